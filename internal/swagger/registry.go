package swagger

import (
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/agriwebb/loopback-swagger/internal/descriptor"
)

const definitionsPrefix = "#/definitions/"

// ScopeNew is the operation scope of creation endpoints.
const ScopeNew = "new"

type definitionKind int

const (
	baseDefinition definitionKind = iota
	scopedDefinition
	relationDefinition
)

type registryEntry struct {
	kind   definitionKind
	model  string
	scope  string
	schema *openapi3.Schema // nil until materialized
}

type scopeKey struct {
	model string
	scope string
}

// TypeRegistry tracks the models a run knows about and which definitions must
// appear in the output. Entries are only ever added during a run, so a name
// handed out as a $ref always ends up in definitions.
type TypeRegistry struct {
	models  map[string]*descriptor.Model
	entries map[string]*registryEntry
	order   []string
	scoped  map[scopeKey]string
}

// NewTypeRegistry creates a registry over the host's model catalog.
func NewTypeRegistry(models []*descriptor.Model) *TypeRegistry {
	r := &TypeRegistry{
		models:  make(map[string]*descriptor.Model, len(models)),
		entries: make(map[string]*registryEntry),
		scoped:  make(map[scopeKey]string),
	}
	for _, m := range models {
		r.models[m.Name] = m
	}
	return r
}

// Lookup returns the host model with the given name.
func (r *TypeRegistry) Lookup(name string) (*descriptor.Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

// IsDefined reports whether name has been registered for output.
func (r *TypeRegistry) IsDefined(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Reference returns the $ref path of a model and registers the model for
// output.
func (r *TypeRegistry) Reference(name string) string {
	if _, ok := r.entries[name]; !ok {
		r.add(name, &registryEntry{kind: baseDefinition, model: name})
	}
	return definitionsPrefix + name
}

// Ref is Reference wrapped as a schema reference.
func (r *TypeRegistry) Ref(name string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Ref: r.Reference(name)}
}

// ReserveOperationScoped returns the name of the scope variant of base,
// registering it on first use. The base model stays registered on its own.
func (r *TypeRegistry) ReserveOperationScoped(base, scope string) string {
	key := scopeKey{model: base, scope: scope}
	if name, ok := r.scoped[key]; ok {
		return name
	}
	name := OperationScopedName(base, scope)
	r.scoped[key] = name
	if _, ok := r.entries[name]; !ok {
		r.add(name, &registryEntry{kind: scopedDefinition, model: base, scope: scope})
	}
	return name
}

// OperationScopedName derives the definition name of a scope variant.
func OperationScopedName(base, scope string) string {
	return "$" + scope + "_" + base
}

// defineVariant registers a variant whose schema is filled in by the caller.
// schema must be registered before it is populated so cyclic references
// resolve to the in-progress definition.
func (r *TypeRegistry) defineVariant(name, model string, schema *openapi3.Schema) {
	if e, ok := r.entries[name]; ok {
		e.schema = schema
		return
	}
	r.add(name, &registryEntry{kind: relationDefinition, model: model, schema: schema})
}

// variantName returns want, or the first "<want><n>" (n >= 2) that no host
// model and no registered definition uses. The second result reports a rename.
func (r *TypeRegistry) variantName(want string) (string, bool) {
	if !r.nameTaken(want) {
		return want, false
	}
	for n := 2; ; n++ {
		alt := want + strconv.Itoa(n)
		if !r.nameTaken(alt) {
			return alt, true
		}
	}
}

func (r *TypeRegistry) nameTaken(name string) bool {
	if _, ok := r.models[name]; ok {
		return true
	}
	_, ok := r.entries[name]
	return ok
}

func (r *TypeRegistry) define(name string, schema *openapi3.Schema) {
	if e, ok := r.entries[name]; ok {
		e.schema = schema
	}
}

func (r *TypeRegistry) add(name string, e *registryEntry) {
	r.entries[name] = e
	r.order = append(r.order, name)
}

// pending lists registered names without a schema, in registration order.
func (r *TypeRegistry) pending() []string {
	var out []string
	for _, name := range r.order {
		if r.entries[name].schema == nil {
			out = append(out, name)
		}
	}
	return out
}

// Names returns every registered name in registration order.
func (r *TypeRegistry) Names() []string {
	return append([]string(nil), r.order...)
}

// Definitions returns every materialized definition.
func (r *TypeRegistry) Definitions() map[string]*openapi3.SchemaRef {
	out := make(map[string]*openapi3.SchemaRef, len(r.order))
	for _, name := range r.order {
		if s := r.entries[name].schema; s != nil {
			out[name] = &openapi3.SchemaRef{Value: s}
		}
	}
	return out
}
