package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sdejongh/locsync/internal/platform"
	"github.com/sdejongh/locsync/pkg/config"
	"github.com/sdejongh/locsync/pkg/location"
	"github.com/sdejongh/locsync/pkg/manifest"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/output"
	"github.com/spf13/cobra"
)

type hostinfoFlags struct {
	Output string
	Dump   string
	SSH    string
	Update bool
	Force  bool
	Info   bool
}

func (a *App) newHostinfoCommand() *cobra.Command {
	var flags hostinfoFlags

	cmd := &cobra.Command{
		Use:   "hostinfo <path>",
		Short: "Describe a directory, possibly on a remote host, in a manifest",
		Long: `Collect the files of a directory into a manifest:

  root: <path>      # relative to the manifest, or absolute
  host: <user@host> # optional remote host
  dump: <dump>      # optional, file names are read from this flat manifest
  search:           # optional, used when there is no dump
    - rootdir: .
  files:
    - ...

Without --dump the whole directory is searched. With --update, <path> is an
existing manifest whose files are re-read from its dump or search settings.`,
		Example: `  locsync hostinfo /data
  locsync hostinfo /data --ssh user@host -o remote.yaml
  locsync hostinfo /data --dump
  locsync hostinfo --update locsync_hostinfo.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.Update {
				return a.runHostinfoUpdate(cmd, args[0], flags)
			}
			return a.runHostinfo(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "output manifest (default from config: manifest.hostinfo_file)")
	cmd.Flags().StringVarP(&flags.Dump, "dump", "d", "", "read file names from this flat manifest under <path>")
	cmd.Flags().Lookup("dump").NoOptDefVal = config.Default().Manifest.DumpFile
	cmd.Flags().StringVar(&flags.SSH, "ssh", "", "remote host (user@host)")
	cmd.Flags().BoolVar(&flags.Update, "update", false, "update the files of an existing manifest")
	cmd.Flags().BoolVarP(&flags.Force, "force", "f", false, "overwrite the output file")
	cmd.Flags().BoolVarP(&flags.Info, "info", "i", false, "add sha256 and size")

	return cmd
}

func (a *App) runHostinfo(cmd *cobra.Command, path string, flags hostinfoFlags) error {
	ctx := cmd.Context()

	out := flags.Output
	if out == "" {
		out = a.Config.Manifest.HostinfoFile
	}

	host, root := flags.SSH, path
	if host == "" {
		if h, p := platform.ParseHostPath(path); h != "" {
			host, root = h, p
		}
	}
	if host == "" {
		expanded, err := platform.ExpandHome(root)
		if err != nil {
			return err
		}
		if root, err = filepath.Abs(expanded); err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
	}

	loc, err := location.New(root, host, nil)
	if err != nil {
		return err
	}
	switch flags.Dump {
	case "":
		loc.Search = []manifest.SearchSpec{{RootDir: "."}}
	case config.Default().Manifest.DumpFile:
		// bare --dump
		loc.Dump = a.Config.Manifest.DumpFile
	default:
		loc.Dump = flags.Dump
	}

	if loc, err = a.collect(ctx, loc, out, flags.Info); err != nil {
		return err
	}
	return manifest.Write(a.FS, out, loc.ToManifest(filepath.Dir(out)), flags.Force)
}

func (a *App) runHostinfoUpdate(cmd *cobra.Command, path string, flags hostinfoFlags) error {
	if flags.Output != "" || flags.Dump != "" || flags.SSH != "" {
		return &models.ValidationError{Field: "update", Message: "--output, --dump and --ssh cannot be used with --update"}
	}

	loc, err := location.FromManifest(a.FS, path)
	if err != nil {
		return err
	}
	if loc, err = a.collect(cmd.Context(), loc, path, flags.Info || loc.HasInfo()); err != nil {
		return err
	}
	return manifest.Write(a.FS, path, loc.ToManifest(filepath.Dir(path)), true)
}

// collect re-reads the files of loc, leaving out the manifest being written,
// and fingerprints them when info is set
func (a *App) collect(ctx context.Context, loc location.Location, out string, info bool) (location.Location, error) {
	loc, err := loc.Refresh(ctx, a.scanner())
	if err != nil {
		return location.Location{}, err
	}

	if !loc.IsRemote() {
		if self, err := filepath.Abs(out); err == nil {
			if rel, err := platform.RelTo(loc.Root, self); err == nil {
				var keep []string
				for _, p := range loc.Paths() {
					if p != rel {
						keep = append(keep, p)
					}
				}
				if loc, err = loc.WithPaths(keep); err != nil {
					return location.Location{}, err
				}
			}
		}
	}

	if !info {
		return loc, nil
	}
	progress := output.NewProgress(a.Stderr, "hashed", a.Config.Output.Quiet || !a.Config.Output.Progress)
	progress.Start(loc.Len(), -1)
	defer progress.Finish()
	return loc.WithFingerprints(ctx, a.hasher(progress))
}
