package swagger

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/agriwebb/loopback-swagger/internal/descriptor"
)

// SecuritySchemeName names the credential required by protected operations.
const SecuritySchemeName = "access_token"

const successDescription = "Request was successful"

var errPathCollision = errors.New("path and verb already taken")

var pathParamRe = regexp.MustCompile(`:([A-Za-z0-9_]+)`)

// routeEntry is one translated route, ready to be merged into paths.
type routeEntry struct {
	Path      string
	Verb      string
	Tag       string
	Operation *openapi2.Operation
}

type routeTranslator struct {
	cfg   *config
	reg   *TypeRegistry
	tr    *translator
	rel   *relationExpander
	ids   *OperationIDRegistry
	paths map[string]*openapi2.PathItem
}

// translate converts route into a path entry. It fails with errPathCollision
// when the path and verb are already taken, before any id is allocated.
func (rt *routeTranslator) translate(route *descriptor.Route) (*routeEntry, error) {
	verb, err := normalizeVerb(route.Verb)
	if err != nil {
		return nil, err
	}
	path := ConvertPath(route.Path)
	if item, ok := rt.paths[path]; ok && operationAt(item, verb) != nil {
		return nil, errPathCollision
	}

	model, _ := rt.reg.Lookup(route.ModelName())
	tag := route.ModelName()
	if model != nil && model.Settings.Tag != "" {
		tag = model.Settings.Tag
	}

	op := &openapi2.Operation{
		Tags:        []string{tag},
		Summary:     route.Description.String(),
		Description: route.Notes.String(),
		Deprecated:  route.Deprecated,
		Responses:   make(map[string]*openapi2.Response),
	}

	params, hasFile := rt.parameters(route, model, verb)
	op.Parameters = params
	if hasFile {
		op.Consumes = []string{"multipart/form-data"}
	}
	rt.responses(route, model, verb, op)

	if requiresCredential(route, model) {
		op.Security = &openapi2.SecurityRequirements{{SecuritySchemeName: {}}}
	}

	candidate := route.ModelName() + "." + route.ShortName()
	rt.ids.Allocate(candidate, verb, path, op)

	return &routeEntry{Path: path, Verb: verb, Tag: tag, Operation: op}, nil
}

// ConvertPath rewrites colon-style placeholders to brace style.
func ConvertPath(path string) string {
	return pathParamRe.ReplaceAllString(path, "{$1}")
}

func pathPlaceholders(path string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, m := range pathParamRe.FindAllStringSubmatch(path, -1) {
		out[m[1]] = struct{}{}
	}
	for _, m := range bracePlaceholderRe.FindAllStringSubmatch(path, -1) {
		out[m[1]] = struct{}{}
	}
	return out
}

var bracePlaceholderRe = regexp.MustCompile(`\{([^}]+)\}`)

func normalizeVerb(verb string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(verb))
	switch v {
	case "all":
		return "post", nil
	case "del":
		return "delete", nil
	case "get", "post", "put", "patch", "delete", "head", "options":
		return v, nil
	default:
		return "", fmt.Errorf("unsupported verb %q", verb)
	}
}

func isReadVerb(verb string) bool { return verb == "get" || verb == "head" }

// parameters derives the operation parameters from the route inputs. The
// second result reports whether any parameter is a form-data file.
func (rt *routeTranslator) parameters(route *descriptor.Route, model *descriptor.Model, verb string) (openapi2.Parameters, bool) {
	accepts := routeInputs(route, model)
	placeholders := pathPlaceholders(route.Path)
	creating := matchAny(rt.cfg.create, route.ShortName())

	var (
		params  openapi2.Parameters
		hasFile bool
	)
	for _, a := range accepts {
		if !a.IsDocumented() || a.IsInjected() {
			continue
		}
		in := parameterLocation(a, verb, placeholders)
		p := &openapi2.Parameter{
			Name:        a.Arg,
			In:          in,
			Description: a.Description.String(),
			Required:    a.Required || in == "path",
		}
		switch {
		case in == "formData" && a.Type.IsFile():
			p.Type = "file"
			hasFile = true
		case in == "body":
			p.Schema = rt.bodySchema(a, model, creating)
		default:
			rt.simpleParameter(p, a.Type)
		}
		params = append(params, p)
	}
	return params, hasFile
}

// routeInputs lists the inputs of route. Instance methods take the model's
// constructor inputs first, minus any the route declares itself.
func routeInputs(route *descriptor.Route, model *descriptor.Model) []descriptor.Accept {
	if !route.IsInstance() || model == nil || len(model.CtorAccepts) == 0 {
		return route.Accepts
	}
	declared := make(map[string]struct{}, len(route.Accepts))
	for _, a := range route.Accepts {
		declared[a.Arg] = struct{}{}
	}
	out := make([]descriptor.Accept, 0, len(model.CtorAccepts)+len(route.Accepts))
	for _, a := range model.CtorAccepts {
		if _, dup := declared[a.Arg]; !dup {
			out = append(out, a)
		}
	}
	return append(out, route.Accepts...)
}

// parameterLocation applies, in order: file types, the explicit source hint,
// path template membership, then the verb default.
func parameterLocation(a descriptor.Accept, verb string, placeholders map[string]struct{}) string {
	if a.Type.IsFile() {
		return "formData"
	}
	switch strings.ToLower(a.Source()) {
	case "query":
		return "query"
	case "path":
		return "path"
	case "header":
		return "header"
	case "body":
		return "body"
	case "form", "formdata":
		return "formData"
	}
	if _, ok := placeholders[a.Arg]; ok {
		return "path"
	}
	if isReadVerb(verb) {
		return "query"
	}
	return "formData"
}

// bodySchema resolves the schema of a body parameter. A "data" argument typed
// as a generic object stands for the owning model; on creation endpoints a
// model with a server-generated id is replaced by its "new" variant.
func (rt *routeTranslator) bodySchema(a descriptor.Accept, model *descriptor.Model, creating bool) *openapi3.SchemaRef {
	if a.Arg != "data" {
		return rt.tr.typeSchema(a.Type)
	}
	target := model
	switch {
	case a.Type.Kind == descriptor.KindModel:
		m, ok := rt.reg.Lookup(a.Type.Name)
		if !ok {
			return rt.tr.typeSchema(a.Type)
		}
		target = m
	case isGenericObject(a.Type):
	default:
		return rt.tr.typeSchema(a.Type)
	}
	if target == nil {
		return rt.tr.typeSchema(a.Type)
	}
	if creating && rt.scopedEnabled(target) {
		return &openapi3.SchemaRef{Ref: definitionsPrefix + rt.reg.ReserveOperationScoped(target.Name, ScopeNew)}
	}
	return rt.reg.Ref(target.Name)
}

func (rt *routeTranslator) scopedEnabled(m *descriptor.Model) bool {
	enabled := rt.cfg.operationScoped
	if v := m.Settings.GenerateOperationScopedModels; v != nil {
		enabled = *v
	}
	return enabled && m.HasGeneratedID()
}

func isGenericObject(t descriptor.Type) bool {
	return t.Kind == descriptor.KindAny || t.Kind == descriptor.KindPrimitive && t.Name == "object"
}

// simpleParameter fills the type of a non-body parameter. Primitives and
// arrays of primitives map directly; anything structured is sent as a JSON
// encoded string.
func (rt *routeTranslator) simpleParameter(p *openapi2.Parameter, typ descriptor.Type) {
	ref := rt.tr.typeSchema(typ)
	if ref.Ref == "" && ref.Value.Type != "object" && ref.Value.Type != "" {
		s := ref.Value
		if s.Type != "array" {
			p.Type, p.Format = s.Type, s.Format
			return
		}
		if items := s.Items; items != nil && items.Ref == "" && items.Value.Type != "" &&
			items.Value.Type != "object" && items.Value.Type != "array" {
			p.Type = "array"
			p.Items = items
			p.CollectionFormat = "multi"
			return
		}
	}
	p.Type, p.Format = "string", "JSON"
}

// responses fills the success response and the declared error responses.
func (rt *routeTranslator) responses(route *descriptor.Route, model *descriptor.Model, verb string, op *openapi2.Operation) {
	var outputs []descriptor.Return
	for _, r := range route.Returns {
		if !r.IsMetadata() {
			outputs = append(outputs, r)
		}
	}
	status := http.StatusNoContent
	if len(outputs) > 0 {
		status = http.StatusOK
	}
	if route.Status != 0 {
		status = route.Status
	}
	success := &openapi2.Response{Description: successDescription}
	if len(outputs) > 0 {
		success.Schema = rt.returnSchema(route, model, verb, outputs)
	}
	successKey := strconv.Itoa(status)
	op.Responses[successKey] = success

	for _, e := range route.Errors {
		key := strconv.Itoa(e.Code)
		if key == successKey {
			continue
		}
		desc := e.Message.String()
		if desc == "" {
			desc = http.StatusText(e.Code)
		}
		resp := &openapi2.Response{Description: desc}
		if e.ResponseModel != "" {
			resp.Schema = rt.tr.typeSchema(descriptor.ModelRef(e.ResponseModel))
		}
		op.Responses[key] = resp
	}
}

// returnSchema builds the success schema: the root output directly, or an
// object with one property per output.
func (rt *routeTranslator) returnSchema(route *descriptor.Route, model *descriptor.Model, verb string, outputs []descriptor.Return) *openapi3.SchemaRef {
	outputs = applyDataConvention(outputs, model)
	for _, r := range outputs {
		if !r.Root {
			continue
		}
		if r.IsStream() {
			return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: "file"}}
		}
		if rt.rel.qualifies(route, model, verb, r.Type) {
			if s := rt.rel.rootSchema(r.Type); s != nil {
				return s
			}
		}
		return rt.tr.typeSchema(r.Type)
	}

	obj := &openapi3.Schema{Type: "object", Properties: make(openapi3.Schemas, len(outputs))}
	for _, r := range outputs {
		if r.IsStream() {
			continue
		}
		obj.Properties[r.Arg] = rt.tr.typeSchema(r.Type)
	}
	return &openapi3.SchemaRef{Value: obj}
}

// applyDataConvention makes a leading "data" output of generic object or
// array type refer to the owning model.
func applyDataConvention(outputs []descriptor.Return, model *descriptor.Model) []descriptor.Return {
	if model == nil || len(outputs) == 0 || outputs[0].Arg != "data" {
		return outputs
	}
	first := outputs[0]
	switch {
	case isGenericObject(first.Type):
		first.Type = descriptor.ModelRef(model.Name)
	case first.Type.Kind == descriptor.KindArray && (first.Type.Elem == nil || isGenericObject(*first.Type.Elem)):
		first.Type = descriptor.ArrayOf(descriptor.ModelRef(model.Name))
	default:
		return outputs
	}
	out := append([]descriptor.Return{first}, outputs[1:]...)
	return out
}

// requiresCredential reports whether the model has access rules and none of
// them opens the method to anonymous callers.
func requiresCredential(route *descriptor.Route, model *descriptor.Model) bool {
	if model == nil || len(model.ACLs) == 0 {
		return false
	}
	method := route.ShortName()
	for _, acl := range model.ACLs {
		if acl.GrantsAnonymous(method) {
			return false
		}
	}
	return true
}

func operationAt(item *openapi2.PathItem, verb string) *openapi2.Operation {
	switch verb {
	case "get":
		return item.Get
	case "post":
		return item.Post
	case "put":
		return item.Put
	case "patch":
		return item.Patch
	case "delete":
		return item.Delete
	case "head":
		return item.Head
	case "options":
		return item.Options
	}
	return nil
}

func setOperation(item *openapi2.PathItem, verb string, op *openapi2.Operation) {
	switch verb {
	case "get":
		item.Get = op
	case "post":
		item.Post = op
	case "put":
		item.Put = op
	case "patch":
		item.Patch = op
	case "delete":
		item.Delete = op
	case "head":
		item.Head = op
	case "options":
		item.Options = op
	}
}
