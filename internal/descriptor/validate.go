package descriptor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrInvalidDescriptor is wrapped by every validation failure.
var ErrInvalidDescriptor = errors.New("invalid descriptor")

var methodPattern = regexp.MustCompile(`^[^.\s]+(\.[^.\s]+)+$`)

var knownVerbs = map[string]struct{}{
	"get": {}, "post": {}, "put": {}, "patch": {}, "delete": {},
	"head": {}, "options": {}, "all": {}, "del": {},
}

// Validate checks the whole snapshot once, before any translation starts.
func (a *Application) Validate() error {
	err := validation.ValidateStruct(a,
		validation.Field(&a.Models, validation.Each(validation.NotNil)),
		validation.Field(&a.Routes, validation.Each(validation.NotNil)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}
	seen := make(map[string]struct{}, len(a.Models))
	for _, m := range a.Models {
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("%w: duplicate model %q", ErrInvalidDescriptor, m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	return nil
}

func (m Model) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required),
		validation.Field(&m.Properties),
		validation.Field(&m.Relations),
		validation.Field(&m.CtorAccepts),
	)
}

func (p Property) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
	)
}

func (r Relation) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Type, validation.Required, validation.In(BelongsTo, HasOne, HasMany, HasManyThrough)),
		validation.Field(&r.Model, validation.Required),
		validation.Field(&r.Through, validation.When(r.Type == HasManyThrough, validation.Required)),
	)
}

func (r Route) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Method, validation.Required, validation.Match(methodPattern)),
		validation.Field(&r.Verb, validation.Required, validation.By(func(value any) error {
			verb, _ := value.(string)
			if _, ok := knownVerbs[strings.ToLower(verb)]; !ok {
				return validation.NewError("route.verb.unsupported", fmt.Sprintf("unsupported verb %q", verb))
			}
			return nil
		})),
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Accepts),
		validation.Field(&r.Errors),
		validation.Field(&r.Status, validation.Min(100), validation.Max(599)),
	)
}

func (a Accept) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Arg, validation.Required),
	)
}

func (e ErrorResponse) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Code, validation.Required, validation.Min(100), validation.Max(599)),
	)
}
