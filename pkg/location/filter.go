package location

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Filter narrows and formats a path list before it is dumped
type Filter struct {
	// Keep retains only paths matching at least one expression
	Keep []*regexp.Regexp
	// Exclude drops paths matching any expression
	Exclude []*regexp.Regexp
	// ExcludeExt drops paths with one of these extensions (with or without dot)
	ExcludeExt []string
	// Sort orders the result lexically
	Sort bool
	// Format rewrites each path, "{}" standing for the path
	Format string
}

// CompileFilter builds a Filter from string expressions
func CompileFilter(keep, exclude, excludeExt []string, sorted bool, format string) (Filter, error) {
	f := Filter{ExcludeExt: excludeExt, Sort: sorted, Format: format}
	for _, expr := range keep {
		re, err := regexp.Compile(expr)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid keep expression %q: %w", expr, err)
		}
		f.Keep = append(f.Keep, re)
	}
	for _, expr := range exclude {
		re, err := regexp.Compile(expr)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid exclude expression %q: %w", expr, err)
		}
		f.Exclude = append(f.Exclude, re)
	}
	if format != "" && !strings.Contains(format, "{}") {
		return Filter{}, fmt.Errorf("format %q must contain {}", format)
	}
	return f, nil
}

// Apply returns the filtered paths. The input is not modified.
func (f Filter) Apply(paths []string) []string {
	exts := make(map[string]struct{}, len(f.ExcludeExt))
	for _, e := range f.ExcludeExt {
		exts["."+strings.TrimPrefix(e, ".")] = struct{}{}
	}

	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if len(f.Keep) > 0 && !anyMatch(f.Keep, p) {
			continue
		}
		if anyMatch(f.Exclude, p) {
			continue
		}
		if _, skip := exts[filepath.Ext(p)]; skip {
			continue
		}
		out = append(out, p)
	}

	if f.Sort {
		sort.Strings(out)
	}

	if f.Format != "" {
		for i, p := range out {
			out[i] = strings.ReplaceAll(f.Format, "{}", p)
		}
	}
	return out
}

func anyMatch(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
