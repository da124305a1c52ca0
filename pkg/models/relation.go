package models

import (
	"fmt"
	"sort"
)

// Relation classifies a path across a source and a destination location
type Relation string

const (
	// RelationEqual means present on both sides with verified equal content
	RelationEqual Relation = "=="
	// RelationDiffers means present on both sides with verified different content
	RelationDiffers Relation = "!="
	// RelationUnverified means present on both sides, equality not checked
	RelationUnverified Relation = "?="
	// RelationSourceOnly means present in the source only
	RelationSourceOnly Relation = "->"
	// RelationDestOnly means present in the destination only
	RelationDestOnly Relation = "<-"
)

// Relations lists every relation in display order
var Relations = []Relation{
	RelationEqual,
	RelationDiffers,
	RelationUnverified,
	RelationSourceOnly,
	RelationDestOnly,
}

// ParseRelation converts a user supplied key such as "->" into a Relation
func ParseRelation(s string) (Relation, error) {
	for _, r := range Relations {
		if string(r) == s {
			return r, nil
		}
	}
	return "", &ValidationError{Field: "relation", Message: fmt.Sprintf("unknown relation %q (valid: ==, !=, ?=, ->, <-)", s)}
}

// DiffResult maps every relation to the relative paths that carry it.
// The lists are disjoint and together cover the union of both sides.
type DiffResult map[Relation][]string

// NewDiffResult returns a DiffResult with an empty list for every relation
func NewDiffResult() DiffResult {
	d := make(DiffResult, len(Relations))
	for _, r := range Relations {
		d[r] = []string{}
	}
	return d
}

// Add appends a path under a relation
func (d DiffResult) Add(r Relation, path string) {
	d[r] = append(d[r], path)
}

// Get returns the paths for a relation, never nil
func (d DiffResult) Get(r Relation) []string {
	if paths, ok := d[r]; ok && paths != nil {
		return paths
	}
	return []string{}
}

// Len returns the total number of classified paths
func (d DiffResult) Len() int {
	n := 0
	for _, paths := range d {
		n += len(paths)
	}
	return n
}

// RelationOf returns the relation a path was classified under
func (d DiffResult) RelationOf(path string) (Relation, bool) {
	for r, paths := range d {
		for _, p := range paths {
			if p == path {
				return r, true
			}
		}
	}
	return "", false
}

// Promote moves a path to another relation, keeping the partition intact
func (d DiffResult) Promote(path string, to Relation) {
	for r, paths := range d {
		for i, p := range paths {
			if p == path {
				d[r] = append(paths[:i:i], paths[i+1:]...)
				break
			}
		}
	}
	d.Add(to, path)
}

// Filter returns a copy restricted to the given relations
func (d DiffResult) Filter(keep ...Relation) DiffResult {
	out := make(DiffResult, len(keep))
	for _, r := range keep {
		out[r] = append([]string{}, d.Get(r)...)
	}
	return out
}

// Compact drops relations without paths
func (d DiffResult) Compact() DiffResult {
	out := make(DiffResult)
	for r, paths := range d {
		if len(paths) > 0 {
			out[r] = paths
		}
	}
	return out
}

// Sort orders the paths of every relation lexically
func (d DiffResult) Sort() {
	for _, paths := range d {
		sort.Strings(paths)
	}
}

// Validate checks that no path carries two relations and, when universe is
// given, that the relations cover exactly that set of paths
func (d DiffResult) Validate(universe []string) error {
	seen := make(map[string]Relation, d.Len())
	for _, r := range Relations {
		for _, p := range d.Get(r) {
			if prev, dup := seen[p]; dup {
				return &InvariantViolation{Reason: fmt.Sprintf("path %q classified as both %q and %q", p, prev, r)}
			}
			seen[p] = r
		}
	}
	for r := range d {
		if !r.known() {
			return &InvariantViolation{Reason: fmt.Sprintf("unknown relation %q", r)}
		}
	}
	if universe == nil {
		return nil
	}
	want := make(map[string]struct{}, len(universe))
	for _, p := range universe {
		want[p] = struct{}{}
		if _, ok := seen[p]; !ok {
			return &InvariantViolation{Reason: fmt.Sprintf("path %q is not classified", p)}
		}
	}
	for p := range seen {
		if _, ok := want[p]; !ok {
			return &InvariantViolation{Reason: fmt.Sprintf("path %q is classified but belongs to neither side", p)}
		}
	}
	return nil
}

func (r Relation) known() bool {
	for _, k := range Relations {
		if k == r {
			return true
		}
	}
	return false
}
