package swagger

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
)

type operationClaim struct {
	path string
	verb string
	op   *openapi2.Operation
}

// OperationIDRegistry hands out operation ids that are unique across a run.
//
// The first claimant of an id gets it as is. When a second route asks for
// the same id, both move to "<id>__<verb>" (the first one retroactively),
// falling back to "<id>__<verb>_<path>" when that is taken too. The bare id
// is retired and never granted again.
type OperationIDRegistry struct {
	claims map[string]*operationClaim // nil value: retired id
	diags  *diagnostics
}

// NewOperationIDRegistry creates an empty registry reporting to diags.
func NewOperationIDRegistry(diags *diagnostics) *OperationIDRegistry {
	return &OperationIDRegistry{claims: make(map[string]*operationClaim), diags: diags}
}

// Allocate assigns an id derived from candidate to op and returns it.
func (r *OperationIDRegistry) Allocate(candidate, verb, path string, op *openapi2.Operation) string {
	claim := &operationClaim{path: path, verb: verb, op: op}
	owner, used := r.claims[candidate]
	if !used {
		r.claims[candidate] = claim
		op.OperationID = candidate
		return candidate
	}
	if owner != nil {
		r.claims[candidate] = nil
		owner.op.OperationID = r.place(candidate, owner)
	}
	op.OperationID = r.place(candidate, claim)
	return op.OperationID
}

// place grants the long form of candidate, then the path-qualified form.
// When both are taken the path-qualified form is returned anyway and the
// collision is reported.
func (r *OperationIDRegistry) place(candidate string, c *operationClaim) string {
	long := candidate + "__" + c.verb
	if _, used := r.claims[long]; !used {
		r.claims[long] = c
		return long
	}
	qualified := long + "_" + flattenPath(c.path)
	if _, used := r.claims[qualified]; !used {
		r.claims[qualified] = c
		return qualified
	}
	r.diags.add(DiagOperationIDCollision, qualified,
		"operation id is not unique", "operationId", qualified, "path", c.path, "verb", c.verb)
	return qualified
}

// Owner returns the path and verb currently holding id.
func (r *OperationIDRegistry) Owner(id string) (path, verb string, ok bool) {
	c := r.claims[id]
	if c == nil {
		return "", "", false
	}
	return c.path, c.verb, true
}

// flattenPath collapses every run of non-alphanumeric characters in a path
// template into a single underscore.
func flattenPath(path string) string {
	var b strings.Builder
	pending := false
	for _, ch := range path {
		if ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(ch)
			continue
		}
		pending = true
	}
	return b.String()
}
