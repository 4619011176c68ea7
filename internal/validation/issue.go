package validation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Path addresses a form field. Elements are string keys or int indexes.
type Path []any

// P builds a Path
func P(elems ...any) Path {
	return Path(elems)
}

// String renders the path in dotted form, e.g. resources.extendedEmployees[0].allocationLogs
func (p Path) String() string {
	var b strings.Builder
	for i, e := range p {
		switch v := e.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}

// Equal compares two paths element by element
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// UnmarshalJSON restores int indexes, which encoding/json decodes as float64
func (p *Path) UnmarshalJSON(b []byte) error {
	var raw []any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Path, len(raw))
	for i, e := range raw {
		if f, ok := e.(float64); ok && f == float64(int(f)) {
			out[i] = int(f)
			continue
		}
		out[i] = e
	}
	*p = out
	return nil
}

func (p Path) with(elems ...any) Path {
	out := make(Path, 0, len(p)+len(elems))
	out = append(out, p...)
	return append(out, elems...)
}

// Issue is one failed rule attached to a field
type Issue struct {
	Path    Path   `json:"path"`
	Message string `json:"message"`
	Rule    string `json:"rule"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Result collects every issue found in one validation pass
type Result struct {
	Issues []Issue `json:"issues"`
}

// Valid returns true when no issue was reported
func (r Result) Valid() bool {
	return len(r.Issues) == 0
}

// At returns the issues attached exactly to path
func (r Result) At(path Path) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Path.Equal(path) {
			out = append(out, is)
		}
	}
	return out
}

// ByPath groups messages by dotted path for inline rendering
func (r Result) ByPath() map[string][]string {
	out := make(map[string][]string, len(r.Issues))
	for _, is := range r.Issues {
		k := is.Path.String()
		out[k] = append(out[k], is.Message)
	}
	return out
}
