package descriptor

import "strings"

const prototypeMarker = "prototype"

// Route is one HTTP-exposed remote method.
type Route struct {
	// Method is the dotted method path, e.g. "Product.find" or
	// "Product.prototype.__get__orders".
	Method      string          `yaml:"method"`
	Verb        string          `yaml:"verb"`
	Path        string          `yaml:"path"`
	Description Text            `yaml:"description"`
	Notes       Text            `yaml:"notes"`
	Accepts     []Accept        `yaml:"accepts"`
	Returns     []Return        `yaml:"returns"`
	Errors      []ErrorResponse `yaml:"errors"`
	Deprecated  bool            `yaml:"deprecated"`
	// Status overrides the default success status code when non-zero.
	Status int `yaml:"status"`
}

// ModelName returns the class part of Method.
func (r *Route) ModelName() string {
	name, _, _ := strings.Cut(r.Method, ".")
	return name
}

// IsInstance reports whether Method is an instance ("prototype") method.
func (r *Route) IsInstance() bool {
	parts := strings.Split(r.Method, ".")
	for _, p := range parts[1:] {
		if p == prototypeMarker {
			return true
		}
	}
	return false
}

// ShortName returns the method name without the class and the instance marker.
func (r *Route) ShortName() string {
	parts := strings.Split(r.Method, ".")
	if len(parts) < 2 {
		return r.Method
	}
	kept := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		if p != prototypeMarker {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// Accept is a declared input of a remote method.
type Accept struct {
	Arg         string      `yaml:"arg"`
	Type        Type        `yaml:"type"`
	Required    bool        `yaml:"required"`
	Description Text        `yaml:"description"`
	Documented  *bool       `yaml:"documented"`
	HTTP        *HTTPSource `yaml:"http"`
}

// Source returns the explicit source hint, or "".
func (a Accept) Source() string {
	if a.HTTP == nil {
		return ""
	}
	return a.HTTP.Source
}

// IsInjected reports whether the value is supplied by the framework from the
// raw request, response or context rather than by the caller.
func (a Accept) IsInjected() bool {
	switch a.Source() {
	case "req", "res", "context", "derived":
		return true
	}
	return false
}

// IsDocumented reports whether the input should be published.
func (a Accept) IsDocumented() bool {
	return a.Documented == nil || *a.Documented
}

// HTTPSource carries the http mapping hints of accepts and returns.
type HTTPSource struct {
	// Source is the input location: query, body, path, header, formData,
	// or req/res/context/derived for framework-injected values.
	Source string `yaml:"source"`
	// Target is the output location: header, status or stream.
	Target string `yaml:"target"`
}

// Return is a declared output of a remote method.
type Return struct {
	Arg         string      `yaml:"arg"`
	Type        Type        `yaml:"type"`
	Root        bool        `yaml:"root"`
	Description Text        `yaml:"description"`
	HTTP        *HTTPSource `yaml:"http"`
}

func (r Return) target() string {
	if r.HTTP == nil {
		return ""
	}
	return r.HTTP.Target
}

// IsMetadata reports whether the output is sent as a header or status code
// rather than in the body.
func (r Return) IsMetadata() bool {
	t := r.target()
	return t == "header" || t == "status"
}

// IsStream reports whether the output is streamed as a raw body.
func (r Return) IsStream() bool {
	return r.target() == "stream" || r.Type.IsFile()
}

// ErrorResponse documents one error status of a remote method.
type ErrorResponse struct {
	Code          int    `yaml:"code"`
	Message       Text   `yaml:"message"`
	ResponseModel string `yaml:"responseModel"`
}
