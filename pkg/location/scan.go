package location

import (
	"bufio"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sdejongh/locsync/internal/platform"
	"github.com/sdejongh/locsync/pkg/manifest"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/shell"
	"github.com/sdejongh/locsync/pkg/storage"
	"github.com/spf13/afero"
)

// Lister produces the relative paths of a location's files
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// StaticLister returns a fixed list of paths
type StaticLister []string

// List implements Lister
func (s StaticLister) List(ctx context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}

// CommandLister runs a shell command in Dir (locally or on Host) and takes
// every non-empty output line as a path
type CommandLister struct {
	Runner  shell.Runner
	SSH     string
	Host    string
	Dir     string
	Command string
}

// List implements Lister
func (c CommandLister) List(ctx context.Context) ([]string, error) {
	var res *shell.Result
	var err error
	if c.Host != "" {
		script := c.Command
		if c.Dir != "" {
			script = "cd " + shell.QuotePath(c.Dir) + " && " + script
		}
		res, err = shell.Remote{Runner: c.Runner, SSH: c.SSH, Host: c.Host}.Exec(ctx, script, "")
	} else {
		res, err = c.Runner.Run(ctx, shell.Command{Program: "sh", Args: []string{"-c", c.Command}, Dir: c.Dir})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to run %q: %w", c.Command, err)
	}
	return splitLines(res.Stdout), nil
}

// DumpLister reads the file list from a flat manifest stored under the
// location root
type DumpLister struct {
	FS     afero.Fs
	Runner shell.Runner
	SSH    string
	Host   string
	Root   string
	Dump   string
}

// List implements Lister
func (d DumpLister) List(ctx context.Context) ([]string, error) {
	var doc *manifest.Document
	if d.Host != "" {
		full, err := platform.JoinRoot(d.Root, d.Dump, true)
		if err != nil {
			return nil, err
		}
		res, err := shell.Remote{Runner: d.Runner, SSH: d.SSH, Host: d.Host}.Exec(ctx, "cat "+shell.QuotePath(full), "")
		if err != nil {
			return nil, &models.ManifestError{Path: platform.Qualify(d.Host, full), Reason: "cannot read", Err: err}
		}
		if doc, err = manifest.Parse([]byte(res.Stdout), platform.Qualify(d.Host, full)); err != nil {
			return nil, err
		}
	} else {
		full := filepath.Join(d.Root, filepath.FromSlash(d.Dump))
		var err error
		if doc, err = manifest.Read(d.FS, full); err != nil {
			return nil, err
		}
	}

	paths := doc.Paths()
	// paths in the dump are relative to the dump's own directory
	if dumpDir := path.Dir(filepath.ToSlash(d.Dump)); dumpDir != "." {
		for i, p := range paths {
			paths[i] = path.Join(dumpDir, p)
		}
	}
	return paths, nil
}

// SearchLister walks the location root for every search spec. Remote roots
// are listed with find over ssh; matching happens locally in both cases.
type SearchLister struct {
	FS     afero.Fs
	Runner shell.Runner
	SSH    string
	Host   string
	Root   string
	Specs  []manifest.SearchSpec
}

// List implements Lister
func (s SearchLister) List(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, spec := range s.Specs {
		rootdir := spec.RootDir
		if rootdir == "" {
			rootdir = "."
		}
		rootdir = path.Clean(filepath.ToSlash(rootdir))

		candidates, err := s.candidates(ctx, rootdir, spec.MaxDepth)
		if err != nil {
			return nil, err
		}
		sort.Strings(candidates)

		for _, rel := range candidates {
			within := rel
			if rootdir != "." {
				within = strings.TrimPrefix(rel, rootdir+"/")
			}
			if spec.MaxDepth > 0 && depth(within) > spec.MaxDepth {
				continue
			}
			if spec.Name != "" && !matchPattern(within, spec.Name) {
				continue
			}
			if matchAny(rel, spec.Skip) {
				continue
			}
			if _, dup := seen[rel]; dup {
				continue
			}
			seen[rel] = struct{}{}
			out = append(out, rel)
		}
	}
	return out, nil
}

// candidates returns every regular file below rootdir, relative to Root
func (s SearchLister) candidates(ctx context.Context, rootdir string, maxDepth int) ([]string, error) {
	if s.Host != "" {
		args := []string{"find", shell.Quote(rootdir)}
		if maxDepth > 0 {
			args = append(args, "-maxdepth", strconv.Itoa(maxDepth))
		}
		args = append(args, "-type", "f")
		script := "cd " + shell.QuotePath(s.Root) + " && " + strings.Join(args, " ")
		res, err := shell.Remote{Runner: s.Runner, SSH: s.SSH, Host: s.Host}.Exec(ctx, script, "")
		if err != nil {
			return nil, fmt.Errorf("failed to search %s: %w", platform.Qualify(s.Host, s.Root), err)
		}
		var out []string
		for _, line := range splitLines(res.Stdout) {
			out = append(out, path.Clean(strings.TrimPrefix(line, "./")))
		}
		return out, nil
	}

	root, err := storage.NewLocal(s.FS, s.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", s.Root, err)
	}
	entries, err := root.List(ctx, rootdir)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", root.Abs(rootdir), err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir {
			out = append(out, e.RelativePath)
		}
	}
	return out, nil
}

// FromScan builds a Location of root (on host) from the lister's paths.
// Absolute paths inside root are made relative.
func FromScan(ctx context.Context, root, host string, lister Lister) (Location, error) {
	paths, err := lister.List(ctx)
	if err != nil {
		return Location{}, err
	}
	for i, p := range paths {
		if host == "" && filepath.IsAbs(p) {
			rel, err := platform.RelTo(root, p)
			if err != nil {
				return Location{}, &models.InvariantViolation{Reason: fmt.Sprintf("%s is outside %s", p, root)}
			}
			paths[i] = rel
		}
	}
	return Location{Root: root, Host: host}.WithPaths(uniquePaths(paths))
}

// Scanner holds what Refresh needs to re-read dump or search lists
type Scanner struct {
	FS     afero.Fs
	Runner shell.Runner
	SSH    string
}

// Refresh re-reads the file list from the location's dump or search
// settings and returns a new snapshot without metadata. A location with
// neither keeps its files.
func (l Location) Refresh(ctx context.Context, s Scanner) (Location, error) {
	var lister Lister
	switch {
	case l.Dump != "":
		lister = DumpLister{FS: s.FS, Runner: s.Runner, SSH: s.SSH, Host: l.Host, Root: l.Root, Dump: l.Dump}
	case len(l.Search) > 0:
		lister = SearchLister{FS: s.FS, Runner: s.Runner, SSH: s.SSH, Host: l.Host, Root: l.Root, Specs: l.Search}
	default:
		return l, nil
	}

	paths, err := lister.List(ctx)
	if err != nil {
		return Location{}, err
	}
	return l.WithPaths(uniquePaths(paths))
}

func splitLines(s string) []string {
	var out []string
	scanner := bufio.NewScanner(strings.NewReader(s))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), "\r"); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func uniquePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0:0]
	for _, p := range paths {
		p = path.Clean(filepath.ToSlash(p))
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
