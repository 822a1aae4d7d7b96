package swagger

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/agriwebb/loopback-swagger/internal/descriptor"
)

// RelationVariantSuffix is appended to a model name to form its
// relation-expanded definition.
const RelationVariantSuffix = "WithRelations"

// relationExpander builds "<Model>WithRelations" definitions on demand.
type relationExpander struct {
	reg     *TypeRegistry
	tr      *translator
	cfg     *config
	variant map[string]string // model name -> variant definition name
}

func newRelationExpander(reg *TypeRegistry, tr *translator, cfg *config) *relationExpander {
	return &relationExpander{reg: reg, tr: tr, cfg: cfg, variant: make(map[string]string)}
}

func (x *relationExpander) enabledFor(m *descriptor.Model) bool {
	if v := m.Settings.GenerateRelationProperties; v != nil {
		return *v
	}
	return x.cfg.relationProps
}

// qualifies reports whether a route's root response may use relation
// variants: read verbs whose method matches a retrieval pattern. A
// relation accessor ("__get__orders") only qualifies when it lists a
// to-many relation; single-instance lookups through a relation keep the
// base model.
func (x *relationExpander) qualifies(route *descriptor.Route, model *descriptor.Model, verb string, root descriptor.Type) bool {
	if verb != "get" && verb != "head" {
		return false
	}
	name := route.ShortName()
	if !matchAny(x.cfg.retrieval, name) {
		return false
	}
	op, relName, ok := relationAccessor(name)
	if !ok {
		return true
	}
	if op != "get" {
		return false
	}
	if model != nil {
		for _, rel := range model.Relations {
			if rel.Name == relName {
				return rel.ToMany()
			}
		}
	}
	return root.Kind == descriptor.KindArray
}

// relationAccessor splits a relation method name such as "__findById__orders"
// into its operation and relation.
func relationAccessor(name string) (op, relation string, ok bool) {
	rest, found := strings.CutPrefix(name, "__")
	if !found {
		return "", "", false
	}
	op, relation, ok = strings.Cut(rest, "__")
	if !ok || op == "" || relation == "" {
		return "", "", false
	}
	return op, relation, true
}

// rootSchema returns the schema for a qualifying route's root response:
// the relation variant when typ is a model or an array of one, nil when the
// base translation applies.
func (x *relationExpander) rootSchema(typ descriptor.Type) *openapi3.SchemaRef {
	switch typ.Kind {
	case descriptor.KindModel:
		m, ok := x.reg.Lookup(typ.Name)
		if !ok || !x.enabledFor(m) {
			return nil
		}
		return x.variantRef(m)
	case descriptor.KindArray:
		if typ.Elem == nil {
			return nil
		}
		items := x.rootSchema(*typ.Elem)
		if items == nil {
			return nil
		}
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: "array", Items: items}}
	default:
		return nil
	}
}

// variantRef returns a reference to the relation variant of m, building it
// on first use. Models with expansion disabled are referenced as is.
func (x *relationExpander) variantRef(m *descriptor.Model) *openapi3.SchemaRef {
	if !x.enabledFor(m) {
		return x.reg.Ref(m.Name)
	}
	if name, ok := x.variant[m.Name]; ok {
		return &openapi3.SchemaRef{Ref: definitionsPrefix + name}
	}
	name, renamed := x.reg.variantName(m.Name + RelationVariantSuffix)
	if renamed {
		x.tr.diags.add(DiagNameCollision, m.Name+RelationVariantSuffix,
			"relation variant renamed to avoid a model of the same name", "model", m.Name, "definition", name)
	}
	x.variant[m.Name] = name
	schema := &openapi3.Schema{}
	x.reg.defineVariant(name, m.Name, schema)

	x.tr.fillModelSchema(schema, m, "")
	for _, rel := range m.Relations {
		if rel.DisableInclude {
			continue
		}
		var item *openapi3.SchemaRef
		if target, ok := x.reg.Lookup(rel.Model); ok {
			item = x.variantRef(target)
		} else {
			item = x.tr.typeSchema(descriptor.ModelRef(rel.Model))
		}
		if rel.ToMany() {
			item = &openapi3.SchemaRef{Value: &openapi3.Schema{Type: "array", Items: item}}
		}
		schema.Properties[rel.Name] = item
	}
	return &openapi3.SchemaRef{Ref: definitionsPrefix + name}
}
