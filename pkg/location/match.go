package location

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// matchAny reports whether relativePath matches one of patterns.
// Patterns support:
//   - Basename globs: *.tmp, data_??.h5
//   - Directory patterns: .git/, tmp/
//   - Path globs with any depth: build/*, **/tmp/**
func matchAny(relativePath string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchPattern(relativePath, pattern) {
			return true
		}
	}
	return false
}

func matchPattern(relativePath, pattern string) bool {
	if pattern == "" {
		return false
	}

	// Directory pattern: match the directory at any level
	if dir, ok := strings.CutSuffix(pattern, "/"); ok {
		return relativePath == dir ||
			strings.HasPrefix(relativePath, dir+"/") ||
			strings.Contains(relativePath, "/"+dir+"/")
	}

	// Pattern without separator applies to the basename only
	if !strings.Contains(pattern, "/") {
		ok, _ := doublestar.Match(pattern, path.Base(relativePath))
		return ok
	}

	ok, _ := doublestar.Match(pattern, relativePath)
	return ok
}

// depth returns the number of path components of a slash separated path
func depth(relativePath string) int {
	if relativePath == "" || relativePath == "." {
		return 0
	}
	return strings.Count(relativePath, "/") + 1
}
