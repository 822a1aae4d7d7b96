package swagger

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultRetrievalPatterns select the methods whose root response uses the
// relation-expanded variant of a model.
var DefaultRetrievalPatterns = []string{`^find$`, `^findById$`, `^findOne$`, `^__get__`}

// DefaultCreatePatterns select the methods whose "data" body uses the
// operation-scoped creation variant of a model.
var DefaultCreatePatterns = []string{`^create$`}

// Option configures a generation run.
type Option func(*config)

type config struct {
	operationScoped   bool
	relationProps     bool
	retrievalPatterns []string
	createPatterns    []string
	logger            Logger

	retrieval []*regexp.Regexp
	create    []*regexp.Regexp
}

// WithOperationScopedModels enables "$new_<Model>" variants for creation
// endpoints of models with a server-generated identifier.
func WithOperationScopedModels(enabled bool) Option {
	return func(c *config) { c.operationScoped = enabled }
}

// WithRelationProperties enables "<Model>WithRelations" variants on retrieval
// endpoints.
func WithRelationProperties(enabled bool) Option {
	return func(c *config) { c.relationProps = enabled }
}

// WithRetrievalPatterns replaces the method-name patterns that qualify a route
// for relation-expanded responses. Patterns are regular expressions matched
// against the method name without class and instance marker.
func WithRetrievalPatterns(patterns []string) Option {
	return func(c *config) {
		if len(patterns) > 0 {
			c.retrievalPatterns = append([]string(nil), patterns...)
		}
	}
}

// WithCreatePatterns replaces the method-name patterns that identify creation
// endpoints.
func WithCreatePatterns(patterns []string) Option {
	return func(c *config) {
		if len(patterns) > 0 {
			c.createPatterns = append([]string(nil), patterns...)
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts []Option) (*config, error) {
	c := &config{
		retrievalPatterns: DefaultRetrievalPatterns,
		createPatterns:    DefaultCreatePatterns,
		logger:            NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	var err error
	if c.retrieval, err = compilePatterns(c.retrievalPatterns); err != nil {
		return nil, fmt.Errorf("retrieval patterns: %w", err)
	}
	if c.create, err = compilePatterns(c.createPatterns); err != nil {
		return nil, fmt.Errorf("create patterns: %w", err)
	}
	return c, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
