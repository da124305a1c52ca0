package cli

import (
	"fmt"
	"path/filepath"

	"github.com/sdejongh/locsync/internal/platform"
	"github.com/sdejongh/locsync/pkg/location"
	"github.com/spf13/afero"
)

// Destination is where a command sends or compares files: a directory or
// an existing manifest
type Destination interface {
	// Location returns the destination as a location; a directory has no
	// known files
	Location() (location.Location, error)
}

// DirectoryTarget is a directory, possibly on a remote host
type DirectoryTarget struct {
	Root string
	Host string
}

// Location implements Destination
func (d DirectoryTarget) Location() (location.Location, error) {
	return location.New(d.Root, d.Host, nil)
}

// ManifestTarget is a location described by a manifest
type ManifestTarget struct {
	Path string
	Loc  location.Location
}

// Location implements Destination
func (m ManifestTarget) Location() (location.Location, error) {
	return m.Loc, nil
}

// resolveDestination decides once whether arg names a manifest or a
// directory. --ssh or a "host:path" argument always names a directory.
func resolveDestination(fs afero.Fs, arg, ssh string) (Destination, error) {
	if ssh != "" {
		return DirectoryTarget{Root: arg, Host: ssh}, nil
	}
	if host, p := platform.ParseHostPath(arg); host != "" {
		return DirectoryTarget{Root: p, Host: host}, nil
	}

	expanded, err := platform.ExpandHome(arg)
	if err != nil {
		return nil, err
	}
	info, err := fs.Stat(expanded)
	if err == nil && !info.IsDir() {
		loc, err := location.FromManifest(fs, expanded)
		if err != nil {
			return nil, err
		}
		return ManifestTarget{Path: expanded, Loc: loc}, nil
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", arg, err)
	}
	return DirectoryTarget{Root: abs}, nil
}
