package swagger

import "fmt"

// DiagnosticCode identifies a non-fatal condition found during generation.
type DiagnosticCode string

const (
	// DiagUnknownType: a referenced type is not a known model and was
	// replaced by a generic object schema.
	DiagUnknownType DiagnosticCode = "unknown-type"
	// DiagOperationIDCollision: every fallback form of an operation id was
	// taken, so the id is no longer unique.
	DiagOperationIDCollision DiagnosticCode = "operation-id-collision"
	// DiagPathCollision: a route targets a path and verb already taken by an
	// earlier route and was skipped.
	DiagPathCollision DiagnosticCode = "path-collision"
	// DiagNameCollision: a derived definition name belongs to a host model,
	// so the derived definition was given a numbered name instead.
	DiagNameCollision DiagnosticCode = "name-collision"
)

type Diagnostic struct {
	Code    DiagnosticCode
	Subject string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// diagnostics collects each distinct (code, subject) once and mirrors it to
// the logger.
type diagnostics struct {
	log   Logger
	seen  map[string]struct{}
	items []Diagnostic
}

func newDiagnostics(log Logger) *diagnostics {
	return &diagnostics{log: log, seen: make(map[string]struct{})}
}

func (d *diagnostics) add(code DiagnosticCode, subject, msg string, attrs ...any) {
	key := string(code) + "\x00" + subject
	if _, dup := d.seen[key]; dup {
		return
	}
	d.seen[key] = struct{}{}
	d.items = append(d.items, Diagnostic{Code: code, Subject: subject, Message: msg})
	attrs = append([]any{"code", string(code), "subject", subject}, attrs...)
	if code == DiagUnknownType {
		d.log.Debug(msg, attrs...)
		return
	}
	d.log.Warn(msg, attrs...)
}
