package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/spf13/afero"
)

// ErrExists is returned when a manifest would be overwritten without force
var ErrExists = errors.New("file exists, use --force to overwrite")

// Read loads and parses the manifest at path
func Read(fs afero.Fs, path string) (*Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &models.ManifestError{Path: path, Reason: "cannot read", Err: err}
	}
	return Parse(data, path)
}

// Write stores doc at path. An existing file is only replaced when force is
// set. On the OS filesystem the write holds an advisory lock on
// "<path>.lock".
func Write(fs afero.Fs, path string, doc *Document, force bool) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	return WriteRaw(fs, path, data, force)
}

// WriteRaw stores already encoded YAML with the same overwrite and locking
// rules as Write
func WriteRaw(fs afero.Fs, path string, data []byte, force bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if _, ok := fs.(*afero.OsFs); ok {
		lock := flock.New(path + ".lock")
		if err := lock.Lock(); err != nil {
			return fmt.Errorf("failed to lock %s: %w", path, err)
		}
		defer func() {
			lock.Unlock()
			os.Remove(lock.Path())
		}()
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	if exists && !force {
		return fmt.Errorf("%s: %w", path, ErrExists)
	}

	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Append adds paths to a flat manifest, creating it when missing. Paths
// already listed are kept once.
func Append(fs afero.Fs, path string, files []FileEntry) error {
	doc := &Document{Flat: true}
	if ok, _ := afero.Exists(fs, path); ok {
		existing, err := Read(fs, path)
		if err != nil {
			return err
		}
		if !existing.Flat {
			return &models.ManifestError{Path: path, Reason: "can only append to a flat list of files"}
		}
		doc = existing
	}

	seen := make(map[string]struct{}, len(doc.Files))
	for _, f := range doc.Files {
		seen[f.Path] = struct{}{}
	}
	for _, f := range files {
		if _, dup := seen[f.Path]; dup {
			continue
		}
		seen[f.Path] = struct{}{}
		doc.Files = append(doc.Files, f)
	}

	return Write(fs, path, doc, true)
}
