// Package location models a file collection rooted at a directory,
// optionally on a remote host, and the operations that build or enrich it.
package location

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/sdejongh/locsync/internal/platform"
	"github.com/sdejongh/locsync/pkg/manifest"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/spf13/afero"
)

// FileRecord is one file of a Location. Size and Fingerprint are either both
// known (HasInfo) or both absent.
type FileRecord struct {
	Path        string
	Size        int64
	Fingerprint string
	HasInfo     bool
}

// Location is an immutable snapshot of a file collection. Every
// transforming method returns a new value.
type Location struct {
	Root   string
	Host   string
	Dump   string
	Search []manifest.SearchSpec
	files  []FileRecord
	index  map[string]int
}

// New builds a Location, validating that paths are relative, stay inside
// the root and are unique
func New(root, host string, files []FileRecord) (Location, error) {
	l := Location{Root: root, Host: host}
	return l.WithFiles(files)
}

// WithFiles returns a copy of l holding files instead of its current list
func (l Location) WithFiles(files []FileRecord) (Location, error) {
	out := l
	out.files = make([]FileRecord, len(files))
	out.index = make(map[string]int, len(files))
	for i, f := range files {
		cleaned, err := platform.CleanRel(f.Path)
		if err != nil {
			return Location{}, &models.InvariantViolation{Reason: err.Error()}
		}
		if _, dup := out.index[cleaned]; dup {
			return Location{}, &models.InvariantViolation{Reason: fmt.Sprintf("duplicate path %s", cleaned)}
		}
		f.Path = cleaned
		if !f.HasInfo {
			f.Size, f.Fingerprint = 0, ""
		}
		out.files[i] = f
		out.index[cleaned] = i
	}
	return out, nil
}

// WithPaths is WithFiles for paths without metadata
func (l Location) WithPaths(paths []string) (Location, error) {
	files := make([]FileRecord, len(paths))
	for i, p := range paths {
		files[i] = FileRecord{Path: p}
	}
	return l.WithFiles(files)
}

// Files returns a copy of the records in order
func (l Location) Files() []FileRecord {
	return append([]FileRecord(nil), l.files...)
}

// Paths returns the record paths in order
func (l Location) Paths() []string {
	paths := make([]string, len(l.files))
	for i, f := range l.files {
		paths[i] = f.Path
	}
	return paths
}

// Len returns the number of records
func (l Location) Len() int {
	return len(l.files)
}

// Lookup returns the record for path
func (l Location) Lookup(path string) (FileRecord, bool) {
	i, ok := l.index[path]
	if !ok {
		return FileRecord{}, false
	}
	return l.files[i], true
}

// IsRemote reports whether the root lives on another host
func (l Location) IsRemote() bool {
	return platform.IsRemote(l.Host)
}

// HostPath returns "host:root" or root
func (l Location) HostPath() string {
	return platform.Qualify(l.Host, l.Root)
}

// HasInfo reports whether every record carries size and fingerprint
func (l Location) HasInfo() bool {
	for _, f := range l.files {
		if !f.HasInfo {
			return false
		}
	}
	return len(l.files) > 0
}

// Resolve returns the host-qualified full path of a record path. It is a
// pure join and does not touch the filesystem.
func (l Location) Resolve(path string) (string, error) {
	full, err := platform.JoinRoot(l.Root, path, l.IsRemote())
	if err != nil {
		return "", &models.InvariantViolation{Reason: err.Error()}
	}
	return platform.Qualify(l.Host, full), nil
}

// Sorted returns a copy with records ordered by path
func (l Location) Sorted() Location {
	files := l.Files()
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	out, _ := l.WithFiles(files)
	return out
}

// Subset returns a copy restricted to paths, in the given order. Unknown
// paths become records without metadata.
func (l Location) Subset(paths []string) (Location, error) {
	files := make([]FileRecord, 0, len(paths))
	for _, p := range paths {
		if rec, ok := l.Lookup(p); ok {
			files = append(files, rec)
		} else {
			files = append(files, FileRecord{Path: p})
		}
	}
	return l.WithFiles(files)
}

// WithoutInfo returns a copy whose records carry no metadata
func (l Location) WithoutInfo() Location {
	out, _ := l.WithPaths(l.Paths())
	return out
}

// FromManifest reads a manifest file. A flat list is rooted at the
// manifest's directory; a mapping's root is resolved relative to that
// directory unless it is absolute or remote.
func FromManifest(fs afero.Fs, path string) (Location, error) {
	doc, err := manifest.Read(fs, path)
	if err != nil {
		return Location{}, err
	}
	return FromDocument(doc, path)
}

// FromDocument builds a Location from an already parsed manifest read from
// path
func FromDocument(doc *manifest.Document, path string) (Location, error) {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return Location{}, &models.ManifestError{Path: path, Reason: "cannot resolve directory", Err: err}
	}

	l := Location{Host: doc.Host, Dump: doc.Dump, Search: doc.Search}
	switch {
	case doc.Flat || doc.Root == "":
		l.Root = dir
	case l.IsRemote():
		l.Root = doc.Root
	default:
		root, err := platform.ExpandHome(doc.Root)
		if err != nil {
			return Location{}, &models.ManifestError{Path: path, Reason: "cannot expand root", Err: err}
		}
		if !filepath.IsAbs(root) {
			root = filepath.Join(dir, root)
		}
		l.Root = filepath.Clean(root)
	}

	files := make([]FileRecord, len(doc.Files))
	for i, f := range doc.Files {
		p := f.Path
		if doc.Flat && filepath.IsAbs(p) {
			rel, err := platform.RelTo(l.Root, p)
			if err != nil {
				return Location{}, &models.ManifestError{Path: path, Reason: fmt.Sprintf("%s is outside %s", p, l.Root)}
			}
			p = rel
		}
		if _, err := platform.CleanRel(p); err != nil {
			return Location{}, &models.ManifestError{Path: path, Reason: err.Error()}
		}
		files[i] = FileRecord{Path: p, Size: f.Size, Fingerprint: f.SHA256, HasInfo: f.HasInfo}
	}

	out, err := l.WithFiles(files)
	if err != nil {
		return Location{}, &models.ManifestError{Path: path, Reason: err.Error()}
	}
	return out, nil
}

// ToManifest converts l back into a manifest document. When relativeTo is
// set and l is local, the root is written relative to that directory.
func (l Location) ToManifest(relativeTo string) *manifest.Document {
	root := l.Root
	if relativeTo != "" && !l.IsRemote() {
		if absDir, err := filepath.Abs(relativeTo); err == nil {
			if rel, err := filepath.Rel(absDir, l.Root); err == nil {
				root = filepath.ToSlash(rel)
			}
		}
	}

	doc := &manifest.Document{
		Root:   root,
		Host:   l.Host,
		Dump:   l.Dump,
		Search: l.Search,
		Files:  make([]manifest.FileEntry, len(l.files)),
	}
	for i, f := range l.files {
		doc.Files[i] = manifest.FileEntry{Path: f.Path, SHA256: f.Fingerprint, Size: f.Size, HasInfo: f.HasInfo}
	}
	return doc
}
