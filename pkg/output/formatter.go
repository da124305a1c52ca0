// Package output renders diffs, plans and transfer progress for the
// terminal, and writes diffs to files.
package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/locsync/pkg/models"
)

// DiffView is a diff prepared for display: empty relations dropped and
// optionally restricted to a set of relations
type DiffView struct {
	Source string
	Dest   string
	Result models.DiffResult
}

// NewDiffView drops empty relations and, when filter is not empty, keeps
// only the listed ones
func NewDiffView(source, dest string, res models.DiffResult, filter []models.Relation) DiffView {
	out := make(models.DiffResult)
	keep := func(r models.Relation) bool {
		if len(filter) == 0 {
			return true
		}
		for _, f := range filter {
			if f == r {
				return true
			}
		}
		return false
	}
	for _, r := range models.Relations {
		if paths := res.Get(r); len(paths) > 0 && keep(r) {
			out[r] = append([]string(nil), paths...)
		}
	}
	return DiffView{Source: source, Dest: dest, Result: out}
}

// Relations returns the non-empty relations in display order
func (v DiffView) Relations() []models.Relation {
	var out []models.Relation
	for _, r := range models.Relations {
		if len(v.Result[r]) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// Formatter writes a diff in one output format
type Formatter interface {
	// FormatDiff writes the diff to w
	FormatDiff(w io.Writer, view DiffView) error

	// Name returns the formatter name
	Name() string
}

// Formats lists the accepted --format values
var Formats = []string{"table", "json", "yaml"}

// NewFormatter returns the formatter for format
func NewFormatter(format string, theme Theme, style TableStyle, sortBy string) (Formatter, error) {
	switch format {
	case "", "table":
		return &TableFormatter{Theme: theme, Style: style, SortBy: sortBy}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "yaml":
		return &YAMLFormatter{}, nil
	default:
		return nil, &models.ValidationError{Field: "format", Message: fmt.Sprintf("unknown format %q (valid: %v)", format, Formats)}
	}
}
