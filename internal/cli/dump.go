package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sdejongh/locsync/pkg/location"
	"github.com/sdejongh/locsync/pkg/manifest"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/output"
	"github.com/spf13/cobra"
)

type dumpFlags struct {
	Output     string
	Append     bool
	Info       bool
	Exclude    []string
	ExcludeExt []string
	Keep       []string
	Format     string
	Command    bool
	Cwd        string
	Root       string
	AbsPath    bool
	Sort       bool
	Force      bool
}

func (a *App) newDumpCommand() *cobra.Command {
	var flags dumpFlags

	cmd := &cobra.Command{
		Use:   "dump <file>... | dump -c <command>...",
		Short: "Write a list of files to a flat manifest",
		Long: `Write file names to a flat YAML manifest. Paths are stored relative to
--root (default: the directory of the output file) unless --abspath is set.

With --command the arguments are joined and run as a shell command (in
--cwd), and every output line is taken as a file name. This avoids
argument-length limits for large trees.`,
		Example: `  locsync dump -o dump.yaml *.h5
  locsync dump -o dump.yaml -c find . -name '*.py'
  locsync dump -o dump.yaml -i -s -E .bak -c find . -type f`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDump(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "output manifest (default from config: manifest.dump_file)")
	cmd.Flags().BoolVarP(&flags.Append, "append", "a", false, "append to an existing flat manifest")
	cmd.Flags().BoolVarP(&flags.Info, "info", "i", false, "add sha256 and size")
	cmd.Flags().StringArrayVarP(&flags.Exclude, "exclude", "e", nil, "exclude paths matching this regex")
	cmd.Flags().StringArrayVarP(&flags.ExcludeExt, "exclude-extension", "E", nil, `exclude paths with this extension (e.g. ".bak")`)
	cmd.Flags().StringArrayVarP(&flags.Keep, "keep", "k", nil, "keep only paths matching this regex")
	cmd.Flags().StringVar(&flags.Format, "fmt", "", `rewrite each path, e.g. "mycmd {}"`)
	cmd.Flags().BoolVarP(&flags.Command, "command", "c", false, "run the arguments as a command and read file names from its output")
	cmd.Flags().StringVar(&flags.Cwd, "cwd", "", "directory to run the command in")
	cmd.Flags().StringVar(&flags.Root, "root", "", "root for relative paths (default: directory of output file)")
	cmd.Flags().BoolVar(&flags.AbsPath, "abspath", false, "store absolute paths")
	cmd.Flags().BoolVarP(&flags.Sort, "sort", "s", false, "sort paths")
	cmd.Flags().BoolVarP(&flags.Force, "force", "f", false, "overwrite the output file")

	return cmd
}

func (a *App) runDump(cmd *cobra.Command, args []string, flags dumpFlags) error {
	ctx := cmd.Context()
	if flags.Info && flags.Format != "" {
		return &models.ValidationError{Field: "fmt", Message: "cannot combine --fmt with --info"}
	}

	out := flags.Output
	if out == "" {
		out = a.Config.Manifest.DumpFile
	}
	root := flags.Root
	if root == "" {
		root = filepath.Dir(out)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	files := append([]string(nil), args...)
	if flags.Command {
		lister := location.CommandLister{Runner: a.Runner, Dir: flags.Cwd, Command: strings.Join(args, " ")}
		if files, err = lister.List(ctx); err != nil {
			return err
		}
		if flags.Cwd != "" {
			for i, f := range files {
				if !filepath.IsAbs(f) {
					files[i] = filepath.Join(flags.Cwd, f)
				}
			}
		}
	}

	for i, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		if flags.AbsPath {
			files[i] = abs
			continue
		}
		rel, err := filepath.Rel(absRoot, abs)
		if err != nil {
			return fmt.Errorf("failed to relate %s to %s: %w", f, absRoot, err)
		}
		files[i] = filepath.ToSlash(rel)
	}

	filter, err := location.CompileFilter(flags.Keep, flags.Exclude, flags.ExcludeExt, flags.Sort, flags.Format)
	if err != nil {
		return &models.ValidationError{Field: "filter", Message: err.Error()}
	}
	files = filter.Apply(files)

	entries := make([]manifest.FileEntry, len(files))
	for i, f := range files {
		entries[i] = manifest.FileEntry{Path: f}
	}
	if flags.Info {
		if err := a.addInfo(ctx, absRoot, entries); err != nil {
			return err
		}
	}

	if flags.Append {
		return manifest.Append(a.FS, out, entries)
	}
	return manifest.Write(a.FS, out, &manifest.Document{Flat: true, Files: entries}, flags.Force)
}

// addInfo fingerprints entries in place. Paths are absolute or relative to
// root and must lie inside root.
func (a *App) addInfo(ctx context.Context, root string, entries []manifest.FileEntry) error {
	records := make([]location.FileRecord, len(entries))
	for i, e := range entries {
		p := e.Path
		if filepath.IsAbs(p) {
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return fmt.Errorf("failed to relate %s to %s: %w", p, root, err)
			}
			p = filepath.ToSlash(rel)
		}
		records[i] = location.FileRecord{Path: p}
	}

	loc, err := location.New(root, "", records)
	if err != nil {
		return err
	}

	progress := output.NewProgress(a.Stderr, "hashed", a.Config.Output.Quiet || !a.Config.Output.Progress)
	progress.Start(len(records), -1)
	loc, err = loc.WithFingerprints(ctx, a.hasher(progress))
	progress.Finish()
	if err != nil {
		return err
	}

	for i, f := range loc.Files() {
		entries[i].SHA256 = f.Fingerprint
		entries[i].Size = f.Size
		entries[i].HasInfo = true
	}
	return nil
}
