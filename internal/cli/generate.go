package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/agriwebb/loopback-swagger/internal/descriptor"
	"github.com/agriwebb/loopback-swagger/internal/emitter"
	"github.com/agriwebb/loopback-swagger/internal/swagger"
)

const defaultOut = "swagger.json"

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input  string
	Out    string
	Format string

	OperationScopedModels bool
	RelationProperties    bool
	RetrievalPatterns     []string
	CreatePatterns        []string

	Title       string
	Version     string
	Description string
	BasePath    string
	Host        string
	Schemes     []string
	Consumes    []string
	Produces    []string

	ConfigPath string
	DryRun     bool
	Force      bool
	Verbose    bool

	stdout io.Writer
	stderr io.Writer
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Out: defaultOut}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a Swagger 2.0 document from an application snapshot",
		Long: "Generate a Swagger 2.0 document from a snapshot of the application's models and remote methods. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  loopback-swagger generate --input app.yaml --out swagger.json
  loopback-swagger generate --input https://example.com/app.json --out - --format yaml
  loopback-swagger --config loopback-swagger.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			cfg.stdout = cmd.OutOrStdout()
			cfg.stderr = cmd.ErrOrStderr()
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or http/https URL of the application snapshot (YAML or JSON)")
	flags.String("out", "", "Output file, or - for stdout (default swagger.json)")
	flags.String("format", "", "Output format (json|yaml); inferred from --out when omitted")
	flags.Bool("operation-scoped-models", false, "Emit $new_<Model> definitions for creation endpoints")
	flags.Bool("relation-properties", false, "Emit <Model>WithRelations definitions for retrieval endpoints")
	flags.StringSlice("retrieval-patterns", nil, "Method-name regular expressions that qualify for relation expansion")
	flags.StringSlice("create-patterns", nil, "Method-name regular expressions that identify creation endpoints")
	flags.String("title", "", "Document title")
	flags.String("api-version", "", "Document version")
	flags.String("description", "", "Document description")
	flags.String("base-path", "", "Base path of the API (default /api)")
	flags.String("host", "", "Host serving the API")
	flags.StringSlice("schemes", nil, "Transfer protocols (http, https)")
	flags.StringSlice("consumes", nil, "Global request media types")
	flags.StringSlice("produces", nil, "Global response media types")
	flags.Bool("dry-run", false, "Preview the planned write without touching the filesystem")
	flags.Bool("force", false, "Overwrite an existing output file")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := map[string]*string{
		"input":       &cfg.Input,
		"out":         &cfg.Out,
		"format":      &cfg.Format,
		"title":       &cfg.Title,
		"api-version": &cfg.Version,
		"description": &cfg.Description,
		"base-path":   &cfg.BasePath,
		"host":        &cfg.Host,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
	}

	lists := map[string]*[]string{
		"retrieval-patterns": &cfg.RetrievalPatterns,
		"create-patterns":    &cfg.CreatePatterns,
		"schemes":            &cfg.Schemes,
		"consumes":           &cfg.Consumes,
		"produces":           &cfg.Produces,
	}
	for name, dst := range lists {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = sanitizeList(value)
	}

	bools := map[string]*bool{
		"operation-scoped-models": &cfg.OperationScopedModels,
		"relation-properties":     &cfg.RelationProperties,
		"dry-run":                 &cfg.DryRun,
		"force":                   &cfg.Force,
		"verbose":                 &cfg.Verbose,
	}
	for name, dst := range bools {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	if c.Out == "" {
		c.Out = defaultOut
	}
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.RetrievalPatterns = sanitizeList(c.RetrievalPatterns)
	c.CreatePatterns = sanitizeList(c.CreatePatterns)
	c.Schemes = sanitizeList(c.Schemes)
	c.Consumes = sanitizeList(c.Consumes)
	c.Produces = sanitizeList(c.Produces)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}
	if _, err := emitter.ParseFormat(c.Format); err != nil {
		return newUsageError(fmt.Sprintf("generate: %v", err))
	}
	for _, p := range append(append([]string(nil), c.RetrievalPatterns...), c.CreatePatterns...) {
		if _, err := regexp.Compile(p); err != nil {
			return newUsageError(fmt.Sprintf("generate: invalid pattern %q: %v", p, err))
		}
	}
	for _, s := range c.Schemes {
		switch s {
		case "http", "https", "ws", "wss":
		default:
			return newUsageError(fmt.Sprintf("generate: unsupported scheme %q (allowed: http, https, ws, wss)", s))
		}
	}
	return nil
}

func (c *GenerateConfig) logger() *slog.Logger {
	w := c.stderr
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	log := cfg.logger()
	stdout := cfg.stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	// 1) Load and validate the snapshot (file or http/https URL)
	app, err := descriptor.Load(ctx, cfg.Input)
	if err != nil {
		var le *descriptor.LoadError
		if errors.As(err, &le) {
			msg := fmt.Sprintf("descriptor: %s", le.Message)
			if le.Location != "" {
				msg = fmt.Sprintf("%s\nLocation: %s", msg, le.Location)
			}
			return newUsageError(msg)
		}
		return err
	}
	log.Debug("loaded snapshot", "input", cfg.Input, "models", len(app.Models), "routes", len(app.Routes))

	// 2) Translate models and routes
	res, err := swagger.Generate(app,
		swagger.WithOperationScopedModels(cfg.OperationScopedModels),
		swagger.WithRelationProperties(cfg.RelationProperties),
		swagger.WithRetrievalPatterns(cfg.RetrievalPatterns),
		swagger.WithCreatePatterns(cfg.CreatePatterns),
		swagger.WithLogger(swagger.NewSlogAdapter(log)),
	)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	// 3) Assemble the document
	doc := swagger.BuildDocument(res, swagger.Metadata{
		Title:       cfg.Title,
		Version:     cfg.Version,
		Description: cfg.Description,
		BasePath:    cfg.BasePath,
		Host:        cfg.Host,
		Schemes:     cfg.Schemes,
		Consumes:    cfg.Consumes,
		Produces:    cfg.Produces,
	})

	// 4) Write it
	format, _ := emitter.ParseFormat(cfg.Format)
	out, err := emitter.Emit(ctx, doc, emitter.Options{
		Out:    cfg.Out,
		Format: format,
		Force:  cfg.Force,
		DryRun: cfg.DryRun,
	}, stdout)
	if err != nil {
		return wrapOutputError(err, cfg.Out)
	}
	if cfg.DryRun {
		fmt.Fprintf(stdout, "Planned write to %s (%s, %d bytes, %d definitions, %d paths)\n",
			out.Planned.Path, out.Format, out.Planned.Size, len(res.Definitions), len(res.Paths))
		return nil
	}
	if cfg.Out != emitter.Stdout {
		log.Info("wrote document", "path", out.Planned.Path, "format", string(out.Format), "bytes", out.Planned.Size)
	}
	return nil
}

func wrapOutputError(err error, out string) error {
	// Provide clearer guidance for common FS failures.
	if errors.Is(err, emitter.ErrExists) {
		return newUsageError(fmt.Sprintf("output error for %s: %v", out, err))
	}
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "directory") {
		return newUsageError(fmt.Sprintf("output error for %s: %v\nHint: choose a different --out or use --force when appropriate.", out, err))
	}
	return err
}

func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	strs := map[string]*string{
		"input":       &cfg.Input,
		"out":         &cfg.Out,
		"format":      &cfg.Format,
		"title":       &cfg.Title,
		"version":     &cfg.Version,
		"description": &cfg.Description,
		"basepath":    &cfg.BasePath,
		"host":        &cfg.Host,
	}
	lists := map[string]*[]string{
		"retrievalpatterns": &cfg.RetrievalPatterns,
		"createpatterns":    &cfg.CreatePatterns,
		"schemes":           &cfg.Schemes,
		"consumes":          &cfg.Consumes,
		"produces":          &cfg.Produces,
	}
	bools := map[string]*bool{
		"generateoperationscopedmodels": &cfg.OperationScopedModels,
		"generaterelationproperties":    &cfg.RelationProperties,
		"dryrun":                        &cfg.DryRun,
		"force":                         &cfg.Force,
		"verbose":                       &cfg.Verbose,
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		if dst, ok := strs[normalized]; ok {
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = str
			continue
		}
		if dst, ok := lists[normalized]; ok {
			list, err := valueAsStringSlice(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = sanitizeList(list)
			continue
		}
		if dst, ok := bools[normalized]; ok {
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = val
			continue
		}
		return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case int, float64:
		return fmt.Sprint(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
