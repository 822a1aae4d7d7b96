package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi2"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of the output document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Stdout is the Out value that writes the document to standard output.
const Stdout = "-"

// ErrExists is returned when the output file exists and Force is not set.
var ErrExists = errors.New("output file already exists")

// ParseFormat validates a format name. The empty string yields "".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (use json or yaml)", s)
	}
}

// FormatFromPath infers the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Options controls where and how a document is written.
type Options struct {
	Out    string // file path, or "-" for stdout
	Format Format // inferred from Out when empty
	Force  bool   // overwrite an existing file
	DryRun bool   // plan only
}

// PlannedFile describes the file the emitter intends to write.
type PlannedFile struct {
	Path string
	Size int
	Mode os.FileMode
}

// Result reports the resolved format, the plan and whether anything was
// written.
type Result struct {
	Format  Format
	Planned PlannedFile
	Written bool
}

// Marshal serializes doc. Map keys come out sorted, so equal documents
// always produce equal bytes.
func Marshal(doc *openapi2.T, format Format) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("emitter: nil document")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	if format != FormatYAML {
		return append(data, '\n'), nil
	}
	// Decoding into a node keeps the JSON key order.
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("convert to yaml: %w", err)
	}
	clearStyle(&node)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// clearStyle switches flow-style collections and JSON-quoted strings to block
// style so the YAML output reads like hand-written YAML.
func clearStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		n.Style &^= yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// Emit writes doc according to opts. Output to stdout goes to w.
func Emit(ctx context.Context, doc *openapi2.T, opts Options, w io.Writer) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := strings.TrimSpace(opts.Out)
	if out == "" {
		return nil, errors.New("emitter: Out is required")
	}
	format := opts.Format
	if format == "" {
		format = FormatFromPath(out)
		if out == Stdout {
			format = FormatJSON
		}
	}
	data, err := Marshal(doc, format)
	if err != nil {
		return nil, err
	}

	res := &Result{Format: format, Planned: PlannedFile{Path: out, Size: len(data), Mode: 0o644}}
	if out == Stdout {
		if opts.DryRun {
			return res, nil
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("write stdout: %w", err)
		}
		res.Written = true
		return res, nil
	}

	abs, err := filepath.Abs(out)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}
	res.Planned.Path = abs
	if st, err := os.Stat(abs); err == nil {
		if st.IsDir() {
			return nil, fmt.Errorf("emitter: output path %q is a directory", abs)
		}
		if !opts.Force {
			return nil, fmt.Errorf("emitter: %w: %q (use --force to overwrite)", ErrExists, abs)
		}
	}
	if opts.DryRun {
		return res, nil
	}
	if err := writeFile(abs, data); err != nil {
		return nil, err
	}
	res.Written = true
	return res, nil
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	// atomic write via temp file + rename
	tmp := path + ".tmp-" + time.Now().Format("20060102150405")
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
