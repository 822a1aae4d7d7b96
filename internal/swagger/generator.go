package swagger

import (
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/agriwebb/loopback-swagger/internal/descriptor"
)

// Result is the engine's contribution to a Swagger 2.0 document.
type Result struct {
	Definitions map[string]*openapi3.SchemaRef
	Paths       map[string]*openapi2.PathItem
	// Tags holds one entry per operation tag, in first-use order.
	Tags        openapi3.Tags
	Diagnostics []Diagnostic
	// RequiresAuth is set when at least one operation carries a security
	// requirement.
	RequiresAuth bool
}

// Generate translates app into definitions and paths. Models are emitted
// when they are public or reachable from a public model or a route; routes
// are translated in declaration order. The run owns all of its state, so
// concurrent calls are independent.
func Generate(app *descriptor.Application, opts ...Option) (*Result, error) {
	if app == nil {
		return nil, fmt.Errorf("%w: nil application", descriptor.ErrInvalidDescriptor)
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	diags := newDiagnostics(cfg.logger)
	reg := NewTypeRegistry(app.Models)
	tr := newTranslator(reg, diags)
	rt := &routeTranslator{
		cfg:   cfg,
		reg:   reg,
		tr:    tr,
		rel:   newRelationExpander(reg, tr, cfg),
		ids:   NewOperationIDRegistry(diags),
		paths: make(map[string]*openapi2.PathItem),
	}

	for _, m := range app.Models {
		if m.Public {
			reg.Reference(m.Name)
		}
	}

	res := &Result{Paths: rt.paths}
	tagged := make(map[string]struct{})
	for _, route := range app.Routes {
		entry, err := rt.translate(route)
		if errors.Is(err, errPathCollision) {
			path := ConvertPath(route.Path)
			diags.add(DiagPathCollision, route.Method,
				"route skipped, path and verb already defined", "method", route.Method, "path", path, "verb", route.Verb)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", route.Method, err)
		}
		item, ok := rt.paths[entry.Path]
		if !ok {
			item = &openapi2.PathItem{}
			rt.paths[entry.Path] = item
		}
		setOperation(item, entry.Verb, entry.Operation)
		if entry.Operation.Security != nil {
			res.RequiresAuth = true
		}
		if _, seen := tagged[entry.Tag]; !seen {
			tagged[entry.Tag] = struct{}{}
			res.Tags = append(res.Tags, &openapi3.Tag{Name: entry.Tag, Description: tagDescription(reg, route)})
		}
		cfg.logger.Debug("translated route", "method", route.Method, "operationId", entry.Operation.OperationID)
	}

	materialize(reg, tr)

	res.Definitions = reg.Definitions()
	res.Diagnostics = diags.items
	cfg.logger.Info("generated document",
		"definitions", len(res.Definitions), "paths", len(res.Paths), "diagnostics", len(res.Diagnostics))
	return res, nil
}

// materialize fills every registered definition that has no schema yet.
// Filling a definition may register further models, so it runs until
// nothing is pending.
func materialize(reg *TypeRegistry, tr *translator) {
	for {
		pending := reg.pending()
		if len(pending) == 0 {
			return
		}
		for _, name := range pending {
			e := reg.entries[name]
			m, ok := reg.Lookup(e.model)
			if !ok {
				reg.define(name, &openapi3.Schema{Type: "object"})
				continue
			}
			switch e.kind {
			case scopedDefinition:
				exclude := ""
				if id, ok := m.IDProperty(); ok {
					exclude = id.Name
				}
				reg.define(name, tr.modelSchema(m, exclude))
				reg.Reference(m.Name)
			default:
				reg.define(name, tr.modelSchema(m, ""))
				for _, rel := range m.Relations {
					referenceIfKnown(reg, rel.Model)
					if rel.Through != "" {
						referenceIfKnown(reg, rel.Through)
					}
				}
			}
		}
	}
}

func referenceIfKnown(reg *TypeRegistry, name string) {
	if _, ok := reg.Lookup(name); ok {
		reg.Reference(name)
	}
}

func tagDescription(reg *TypeRegistry, route *descriptor.Route) string {
	if m, ok := reg.Lookup(route.ModelName()); ok {
		return m.Description.String()
	}
	return ""
}
