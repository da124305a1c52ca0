// Package manifest reads and writes the YAML files that describe a
// location: its root, optional remote host, how its file list is obtained
// and the files themselves with optional size and SHA-256.
package manifest

import (
	"bytes"
	"fmt"

	"github.com/sdejongh/locsync/pkg/models"
	"gopkg.in/yaml.v3"
)

// FileEntry is one file of a manifest. Size and SHA256 are only meaningful
// when HasInfo is set.
type FileEntry struct {
	Path    string
	SHA256  string
	Size    int64
	HasInfo bool
}

// SearchSpec describes a find-style search below the location root
type SearchSpec struct {
	RootDir  string     `yaml:"rootdir,omitempty"`
	Name     string     `yaml:"name,omitempty"`
	Skip     stringList `yaml:"skip,omitempty"`
	MaxDepth int        `yaml:"maxdepth,omitempty"`
}

// Document is the in-memory form of a manifest
type Document struct {
	Root   string
	Host   string
	Dump   string
	Search []SearchSpec
	Files  []FileEntry
	// Flat marks a manifest that is a bare list of paths (as written by dump)
	Flat bool
}

// Paths returns the file paths in order
func (d *Document) Paths() []string {
	paths := make([]string, len(d.Files))
	for i, f := range d.Files {
		paths[i] = f.Path
	}
	return paths
}

// HasInfo reports whether every file carries size and checksum
func (d *Document) HasInfo() bool {
	for _, f := range d.Files {
		if !f.HasInfo {
			return false
		}
	}
	return len(d.Files) > 0
}

type fileYAML struct {
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256,omitempty"`
	Size   *int64 `yaml:"size,omitempty"`
}

// UnmarshalYAML accepts either a bare path or a {path, sha256, size} mapping
func (e *FileEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*e = FileEntry{Path: node.Value}
		return nil
	case yaml.MappingNode:
		var raw fileYAML
		if err := node.Decode(&raw); err != nil {
			return err
		}
		if raw.Path == "" {
			return fmt.Errorf("line %d: file entry without path", node.Line)
		}
		if (raw.SHA256 == "") != (raw.Size == nil) {
			return fmt.Errorf("line %d: %s has partial metadata (sha256 and size go together)", node.Line, raw.Path)
		}
		*e = FileEntry{Path: raw.Path, SHA256: raw.SHA256}
		if raw.Size != nil {
			e.Size = *raw.Size
			e.HasInfo = true
		}
		return nil
	default:
		return fmt.Errorf("line %d: file entry must be a path or a mapping", node.Line)
	}
}

// MarshalYAML writes a bare path when there is no metadata
func (e FileEntry) MarshalYAML() (interface{}, error) {
	if !e.HasInfo {
		return e.Path, nil
	}
	size := e.Size
	return fileYAML{Path: e.Path, SHA256: e.SHA256, Size: &size}, nil
}

// stringList accepts a scalar or a sequence of strings
type stringList []string

func (s *stringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = []string{node.Value}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*s = list
	return nil
}

type docYAML struct {
	Root   string       `yaml:"root,omitempty"`
	Host   string       `yaml:"host,omitempty"`
	SSH    string       `yaml:"ssh,omitempty"`
	Dump   string       `yaml:"dump,omitempty"`
	Search []SearchSpec `yaml:"search,omitempty"`
	Files  []FileEntry  `yaml:"files"`
	SHA256 []string     `yaml:"sha256,omitempty"`
	Size   []int64      `yaml:"size,omitempty"`
}

// Parse decodes a manifest. name is only used in error messages.
func Parse(data []byte, name string) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &models.ManifestError{Path: name, Reason: "not valid YAML", Err: err}
	}

	if len(node.Content) == 0 {
		return &Document{Flat: true}, nil
	}
	top := node.Content[0]

	switch top.Kind {
	case yaml.SequenceNode:
		var files []FileEntry
		if err := top.Decode(&files); err != nil {
			return nil, &models.ManifestError{Path: name, Reason: "cannot read file list", Err: err}
		}
		doc := &Document{Files: files, Flat: true}
		return doc, checkUnique(doc, name)
	case yaml.MappingNode:
	default:
		return nil, &models.ManifestError{Path: name, Reason: "expected a list of files or a mapping"}
	}

	var raw docYAML
	if err := top.Decode(&raw); err != nil {
		return nil, &models.ManifestError{Path: name, Reason: "cannot decode", Err: err}
	}

	if raw.Host != "" && raw.SSH != "" && raw.Host != raw.SSH {
		return nil, &models.ManifestError{Path: name, Reason: "host and ssh disagree"}
	}
	if raw.Dump != "" && len(raw.Search) > 0 {
		return nil, &models.ManifestError{Path: name, Reason: "dump and search are mutually exclusive"}
	}

	doc := &Document{
		Root:   raw.Root,
		Host:   raw.Host,
		Dump:   raw.Dump,
		Search: raw.Search,
		Files:  raw.Files,
	}
	if doc.Host == "" {
		doc.Host = raw.SSH
	}

	if err := mergeParallelLists(doc, raw.SHA256, raw.Size, name); err != nil {
		return nil, err
	}

	return doc, checkUnique(doc, name)
}

// mergeParallelLists folds top-level sha256/size lists into the entries
func mergeParallelLists(doc *Document, sums []string, sizes []int64, name string) error {
	if sums == nil && sizes == nil {
		return nil
	}
	if len(sums) != len(sizes) {
		return &models.ManifestError{Path: name, Reason: "sha256 and size lists differ in length"}
	}
	if len(sums) != len(doc.Files) {
		return &models.ManifestError{Path: name, Reason: fmt.Sprintf("%d checksums for %d files", len(sums), len(doc.Files))}
	}
	for i := range doc.Files {
		if doc.Files[i].HasInfo {
			return &models.ManifestError{Path: name, Reason: fmt.Sprintf("metadata for %s given twice", doc.Files[i].Path)}
		}
		doc.Files[i].SHA256 = sums[i]
		doc.Files[i].Size = sizes[i]
		doc.Files[i].HasInfo = true
	}
	return nil
}

func checkUnique(doc *Document, name string) error {
	seen := make(map[string]struct{}, len(doc.Files))
	for _, f := range doc.Files {
		if _, dup := seen[f.Path]; dup {
			return &models.ManifestError{Path: name, Reason: fmt.Sprintf("duplicate file %s", f.Path)}
		}
		seen[f.Path] = struct{}{}
	}
	return nil
}

// Marshal encodes a document. Flat documents become a bare list of paths.
func Marshal(doc *Document) ([]byte, error) {
	var v interface{}
	if doc.Flat {
		files := doc.Files
		if files == nil {
			files = []FileEntry{}
		}
		v = files
	} else {
		files := doc.Files
		if files == nil {
			files = []FileEntry{}
		}
		v = docYAML{
			Root:   doc.Root,
			Host:   doc.Host,
			Dump:   doc.Dump,
			Search: doc.Search,
			Files:  files,
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return buf.Bytes(), nil
}
