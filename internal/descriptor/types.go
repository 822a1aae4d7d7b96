package descriptor

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TypeKind tags the variant held by a Type.
type TypeKind int

const (
	// KindAny accepts any value. It is also the zero value, so an omitted type
	// decodes as any.
	KindAny TypeKind = iota
	// KindPrimitive is one of the scalar tags in primitiveTags, or the generic
	// "object".
	KindPrimitive
	// KindModel is a reference to a model by name.
	KindModel
	// KindArray wraps an element type.
	KindArray
	// KindObject is an inline object with its own fields.
	KindObject
	// KindFile is a file upload or a streamed response body.
	KindFile
)

func (k TypeKind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindPrimitive:
		return "primitive"
	case KindModel:
		return "model"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Type is a type reference as found on properties, accepts and returns.
// Exactly one of Name, Elem or Fields is meaningful, selected by Kind.
type Type struct {
	Kind   TypeKind
	Name   string  // primitive tag or model name
	Elem   *Type   // element type for KindArray
	Fields []Field // inline fields for KindObject, in declaration order
}

// Field is a named member of an inline object type.
type Field struct {
	Name string
	Type Type
}

var primitiveTags = map[string]struct{}{
	"string":  {},
	"number":  {},
	"integer": {},
	"boolean": {},
	"date":    {},
	"buffer":  {},
	"object":  {},
}

// Any returns the any type.
func Any() Type { return Type{Kind: KindAny} }

// File returns the file type.
func File() Type { return Type{Kind: KindFile} }

// Primitive returns a primitive type for the given tag.
func Primitive(tag string) Type { return Type{Kind: KindPrimitive, Name: strings.ToLower(tag)} }

// ModelRef returns a reference to the named model.
func ModelRef(name string) Type { return Type{Kind: KindModel, Name: name} }

// ArrayOf returns an array of elem.
func ArrayOf(elem Type) Type { return Type{Kind: KindArray, Elem: &elem} }

// ObjectOf returns an inline object type with the given fields.
func ObjectOf(fields ...Field) Type { return Type{Kind: KindObject, Fields: fields} }

// ParseType classifies a type name. Primitive tags are matched
// case-insensitively; anything else names a model.
func ParseType(name string) Type {
	name = strings.TrimSpace(name)
	lower := strings.ToLower(name)
	switch lower {
	case "", "any":
		return Any()
	case "file", "stream":
		return File()
	case "array":
		return ArrayOf(Any())
	}
	if _, ok := primitiveTags[lower]; ok {
		return Primitive(lower)
	}
	return ModelRef(name)
}

// IsModel reports whether t names a model.
func (t Type) IsModel() bool { return t.Kind == KindModel }

// IsFile reports whether t is a file type.
func (t Type) IsFile() bool { return t.Kind == KindFile }

// Innermost returns the element type after unwrapping every array level.
func (t Type) Innermost() Type {
	for t.Kind == KindArray && t.Elem != nil {
		t = *t.Elem
	}
	return t
}

func (t Type) String() string {
	switch t.Kind {
	case KindAny:
		return "any"
	case KindPrimitive, KindModel:
		return t.Name
	case KindFile:
		return "file"
	case KindArray:
		if t.Elem == nil {
			return "[any]"
		}
		return "[" + t.Elem.String() + "]"
	case KindObject:
		parts := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			parts = append(parts, f.Name+": "+f.Type.String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "unknown"
	}
}

// UnmarshalYAML decodes a scalar type name, a one-element sequence for arrays
// and a mapping for inline objects.
func (t *Type) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.AliasNode:
		return t.UnmarshalYAML(node.Alias)
	case yaml.ScalarNode:
		*t = ParseType(node.Value)
		return nil
	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			*t = ArrayOf(Any())
			return nil
		}
		var elem Type
		if err := elem.UnmarshalYAML(node.Content[0]); err != nil {
			return err
		}
		*t = ArrayOf(elem)
		return nil
	case yaml.MappingNode:
		fields := make([]Field, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var ft Type
			if err := ft.UnmarshalYAML(node.Content[i+1]); err != nil {
				return fmt.Errorf("field %q: %w", node.Content[i].Value, err)
			}
			fields = append(fields, Field{Name: node.Content[i].Value, Type: ft})
		}
		*t = ObjectOf(fields...)
		return nil
	default:
		return fmt.Errorf("line %d: unsupported type node", node.Line)
	}
}

// Text is free-form documentation. It decodes from a string or a list of
// lines, which are joined with newlines.
type Text string

func (t *Text) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = Text(node.Value)
		return nil
	case yaml.SequenceNode:
		var lines []string
		if err := node.Decode(&lines); err != nil {
			return err
		}
		*t = Text(strings.Join(lines, "\n"))
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list of strings", node.Line)
	}
}

func (t Text) String() string { return string(t) }
