package swagger

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/agriwebb/loopback-swagger/internal/descriptor"
)

// translator turns type references and model field sets into schemas.
type translator struct {
	reg   *TypeRegistry
	diags *diagnostics
}

func newTranslator(reg *TypeRegistry, diags *diagnostics) *translator {
	return &translator{reg: reg, diags: diags}
}

// typeSchema translates a type reference. Model references are registered
// for output; references to unknown models degrade to a generic object.
// The result is always a fresh value, safe for the caller to decorate.
func (t *translator) typeSchema(typ descriptor.Type) *openapi3.SchemaRef {
	switch typ.Kind {
	case descriptor.KindAny:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{}}
	case descriptor.KindPrimitive:
		return &openapi3.SchemaRef{Value: primitiveSchema(typ.Name)}
	case descriptor.KindFile:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: "file"}}
	case descriptor.KindModel:
		if _, ok := t.reg.Lookup(typ.Name); ok {
			return t.reg.Ref(typ.Name)
		}
		t.diags.add(DiagUnknownType, typ.Name, "unknown type replaced by a generic object", "type", typ.Name)
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: "object"}}
	case descriptor.KindArray:
		elem := descriptor.Any()
		if typ.Elem != nil {
			elem = *typ.Elem
		}
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: "array", Items: t.typeSchema(elem)}}
	case descriptor.KindObject:
		s := &openapi3.Schema{Type: "object", Properties: make(openapi3.Schemas, len(typ.Fields))}
		for _, f := range typ.Fields {
			s.Properties[f.Name] = t.typeSchema(f.Type)
		}
		return &openapi3.SchemaRef{Value: s}
	default:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: "object"}}
	}
}

func primitiveSchema(tag string) *openapi3.Schema {
	switch tag {
	case "string":
		return &openapi3.Schema{Type: "string"}
	case "number":
		return &openapi3.Schema{Type: "number"}
	case "integer":
		return &openapi3.Schema{Type: "integer"}
	case "boolean":
		return &openapi3.Schema{Type: "boolean"}
	case "date":
		return &openapi3.Schema{Type: "string", Format: "date-time"}
	case "buffer":
		return &openapi3.Schema{Type: "string", Format: "binary"}
	default:
		return &openapi3.Schema{Type: "object"}
	}
}

// propertySchema translates one model property with its validation keywords.
// A $ref result is returned bare.
func (t *translator) propertySchema(p descriptor.Property) *openapi3.SchemaRef {
	ref := t.typeSchema(p.Type)
	if ref.Ref != "" {
		return ref
	}
	s := ref.Value
	s.Description = p.Description.String()
	if p.Min != nil {
		v := float64(*p.Min)
		s.Min = &v
	}
	if p.Max != nil {
		v := float64(*p.Max)
		s.Max = &v
	}
	if p.Default != nil {
		s.Default = p.Default
		if isNumeric(p.Type) {
			if n, ok := descriptor.ToNumber(p.Default); ok {
				s.Default = n
			}
		}
	}
	if len(p.Enum) > 0 {
		s.Enum = append([]any(nil), p.Enum...)
	}
	return ref
}

func isNumeric(typ descriptor.Type) bool {
	return typ.Kind == descriptor.KindPrimitive && (typ.Name == "number" || typ.Name == "integer")
}

// fillModelSchema writes the object schema of m into dst, skipping hidden
// properties and the property named exclude.
func (t *translator) fillModelSchema(dst *openapi3.Schema, m *descriptor.Model, exclude string) {
	dst.Type = "object"
	dst.Description = m.Description.String()
	dst.Properties = make(openapi3.Schemas, len(m.Properties))
	for _, p := range m.Properties {
		if p.Name == exclude || m.IsHidden(p.Name) {
			continue
		}
		dst.Properties[p.Name] = t.propertySchema(p)
		if p.Required {
			dst.Required = append(dst.Required, p.Name)
		}
	}
}

func (t *translator) modelSchema(m *descriptor.Model, exclude string) *openapi3.Schema {
	s := &openapi3.Schema{}
	t.fillModelSchema(s, m, exclude)
	return s
}
