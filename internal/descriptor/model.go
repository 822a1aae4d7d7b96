package descriptor

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Application is a snapshot of everything the host application exposes:
// models in registration order and remote routes in declaration order.
type Application struct {
	Models []*Model `yaml:"models" json:"models"`
	Routes []*Route `yaml:"routes" json:"routes"`
}

// Model looks up a model by name.
func (a *Application) Model(name string) (*Model, bool) {
	for _, m := range a.Models {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

type Model struct {
	Name        string        `yaml:"name"`
	Public      bool          `yaml:"public"`
	Description Text          `yaml:"description"`
	Properties  Properties    `yaml:"properties"`
	Hidden      []string      `yaml:"hidden"`
	Relations   []Relation    `yaml:"relations"`
	Settings    ModelSettings `yaml:"settings"`
	// CtorAccepts are inputs shared by every instance method, typically the
	// id path parameter.
	CtorAccepts []Accept `yaml:"ctorAccepts"`
	ACLs        []ACL    `yaml:"acls"`
}

type ModelSettings struct {
	// Tag overrides the model name as the operation tag.
	Tag string `yaml:"tag"`
	// GenerateRelationProperties and GenerateOperationScopedModels override the
	// run-wide options for this model when set.
	GenerateRelationProperties    *bool `yaml:"generateRelationProperties"`
	GenerateOperationScopedModels *bool `yaml:"generateOperationScopedModels"`
	// ForceID marks the identifier as always assigned by the server.
	ForceID bool `yaml:"forceId"`
}

// IDProperty returns the identifier property, if one is declared.
func (m *Model) IDProperty() (Property, bool) {
	for _, p := range m.Properties {
		if p.ID {
			return p, true
		}
	}
	return Property{}, false
}

// HasGeneratedID reports whether the identifier is assigned by the server.
func (m *Model) HasGeneratedID() bool {
	p, ok := m.IDProperty()
	if !ok {
		return false
	}
	return p.Generated || m.Settings.ForceID
}

// IsHidden reports whether the named property is excluded from schemas.
func (m *Model) IsHidden(name string) bool {
	for _, h := range m.Hidden {
		if h == name {
			return true
		}
	}
	return false
}

// Property is a single model field.
type Property struct {
	Name        string  `yaml:"-"`
	Type        Type    `yaml:"type"`
	Required    bool    `yaml:"required"`
	ID          bool    `yaml:"id"`
	Generated   bool    `yaml:"generated"`
	Description Text    `yaml:"description"`
	Min         *Number `yaml:"min"`
	Max         *Number `yaml:"max"`
	Default     any     `yaml:"default"`
	Enum        []any   `yaml:"enum"`
}

// Properties keeps model fields in declaration order.
type Properties []Property

// UnmarshalYAML decodes a mapping of property name to descriptor. A value may
// be a full descriptor (a mapping with a "type" key) or a bare type.
func (p *Properties) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode {
		return p.UnmarshalYAML(node.Alias)
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", node.Line)
	}
	out := make(Properties, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, value := node.Content[i].Value, node.Content[i+1]
		var prop Property
		if isFullProperty(value) {
			type plain Property
			var raw plain
			if err := value.Decode(&raw); err != nil {
				return fmt.Errorf("property %q: %w", name, err)
			}
			prop = Property(raw)
		} else if err := value.Decode(&prop.Type); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		prop.Name = name
		out = append(out, prop)
	}
	*p = out
	return nil
}

func isFullProperty(node *yaml.Node) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "type" {
			return true
		}
	}
	return false
}

// Number is a numeric bound. It decodes from YAML numbers and numeric strings.
type Number float64

func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(node.Value), 64)
	if err != nil {
		return fmt.Errorf("line %d: %q is not a number", node.Line, node.Value)
	}
	*n = Number(v)
	return nil
}

// ToNumber converts numeric values and numeric strings to float64.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case Number:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

type RelationKind string

const (
	BelongsTo      RelationKind = "belongsTo"
	HasOne         RelationKind = "hasOne"
	HasMany        RelationKind = "hasMany"
	HasManyThrough RelationKind = "hasManyThrough"
)

type Relation struct {
	Name           string       `yaml:"name"`
	Type           RelationKind `yaml:"type"`
	Model          string       `yaml:"model"`
	Through        string       `yaml:"through"`
	DisableInclude bool         `yaml:"disableInclude"`
}

// Kind resolves hasMany relations declared with a through model.
func (r Relation) Kind() RelationKind {
	if r.Type == HasMany && r.Through != "" {
		return HasManyThrough
	}
	return r.Type
}

// ToMany reports whether the relation yields a collection.
func (r Relation) ToMany() bool {
	k := r.Kind()
	return k == HasMany || k == HasManyThrough
}

// ACL is one access-control rule of a model.
type ACL struct {
	AccessType    string `yaml:"accessType"`
	Permission    string `yaml:"permission"`
	PrincipalType string `yaml:"principalType"`
	PrincipalID   string `yaml:"principalId"`
	Property      string `yaml:"property"`
}

// GrantsAnonymous reports whether the rule lets unauthenticated callers
// invoke method. Only a rule naming method itself counts; a "*" property
// does not open every method.
func (a ACL) GrantsAnonymous(method string) bool {
	if !strings.EqualFold(a.Permission, "ALLOW") {
		return false
	}
	switch a.PrincipalID {
	case "$everyone", "$unauthenticated":
	default:
		return false
	}
	return a.Property == method
}
