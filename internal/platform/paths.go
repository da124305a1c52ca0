package platform

import (
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// ParseHostPath splits "user@host:/some/path" into its host and path parts.
// A plain path returns an empty host. Windows drive letters ("C:\dir") are
// never taken for a host.
func ParseHostPath(s string) (host, p string) {
	i := strings.Index(s, ":")
	if i <= 0 {
		return "", s
	}
	if j := strings.IndexAny(s, `/\`); j >= 0 && j < i {
		return "", s
	}
	if runtime.GOOS == "windows" && i == 1 {
		return "", s
	}
	return s[:i], s[i+1:]
}

// Qualify returns "host:path" for remote paths and path unchanged otherwise
func Qualify(host, p string) string {
	if host == "" {
		return p
	}
	return host + ":" + p
}

// IsRemote reports whether a host is set
func IsRemote(host string) bool {
	return host != ""
}

// ExpandHome expands a leading "~" in a local path
func ExpandHome(p string) (string, error) {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", &PathError{Path: p, Message: err.Error()}
	}
	return expanded, nil
}

// CleanRel normalizes a relative, slash separated path and rejects
// absolute paths and paths that climb out of their root
func CleanRel(p string) (string, error) {
	if p == "" {
		return "", &PathError{Path: p, Message: "path is empty"}
	}
	slashed := filepath.ToSlash(p)
	if path.IsAbs(slashed) || filepath.IsAbs(p) {
		return "", &PathError{Path: p, Message: "path is absolute"}
	}
	cleaned := path.Clean(slashed)
	if cleaned == "." {
		return "", &PathError{Path: p, Message: "path names the root itself"}
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", &PathError{Path: p, Message: "path escapes the root"}
	}
	return cleaned, nil
}

// JoinRoot joins a relative record path onto a root. Remote roots are
// joined with forward slashes regardless of the local platform.
func JoinRoot(root, rel string, remote bool) (string, error) {
	cleaned, err := CleanRel(rel)
	if err != nil {
		return "", err
	}
	if remote {
		return path.Join(root, cleaned), nil
	}
	return filepath.Join(root, filepath.FromSlash(cleaned)), nil
}

// RelTo returns target relative to base as a slash separated path,
// failing when target is not inside base
func RelTo(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", &PathError{Path: target, Message: err.Error()}
	}
	return CleanRel(rel)
}

// Dir returns all but the last element of a slash separated path
func Dir(p string) string {
	return path.Dir(p)
}

// Ext returns the file extension
func Ext(p string) string {
	return path.Ext(p)
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
