package cli

import (
	"context"

	"github.com/sdejongh/locsync/pkg/diff"
	"github.com/sdejongh/locsync/pkg/location"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/output"
	"github.com/spf13/cobra"
)

type diffFlags struct {
	SSH    string
	SHA256 bool
	Filter []string
	Output string
	Force  bool
	Table  string
	Sort   string
	Format string
	Colors string
	Quiet  bool
}

func (a *App) newDiffCommand() *cobra.Command {
	var flags diffFlags

	cmd := &cobra.Command{
		Use:   "diff <manifest> <destination>",
		Short: "Compare a manifest with a directory or another manifest",
		Long: `Classify every file of a manifest against a destination:

  ==  equal on both sides
  !=  present on both sides, different
  ?=  present on both sides, not verified
  ->  only in the source
  <-  only in the destination

A destination manifest is compared offline by recorded fingerprints. A
destination directory is compared live with rsync when installed, otherwise
by existence and, with --sha256 or without rsync, by fingerprint.`,
		Example: `  locsync diff dump.yaml /backup/data
  locsync diff dump.yaml backup_hostinfo.yaml --filter "->,!="
  locsync diff dump.yaml user@host:/data -o diff.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDiff(cmd, args[0], args[1], flags)
		},
	}

	cmd.Flags().StringVar(&flags.SSH, "ssh", "", "remote host of the destination (user@host)")
	cmd.Flags().BoolVar(&flags.SHA256, "sha256", false, "compare by SHA-256 instead of rsync")
	cmd.Flags().StringSliceVar(&flags.Filter, "filter", nil, `show only these relations, comma separated (e.g. "->,!=")`)
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "write the diff to a YAML file")
	cmd.Flags().BoolVarP(&flags.Force, "force", "f", false, "overwrite the output file")
	cmd.Flags().StringVar(&flags.Table, "table", string(output.TableSingleBorder), "table style: SINGLE_BORDER, PLAIN_COLUMNS")
	cmd.Flags().StringVar(&flags.Sort, "sort", "", "sort rows by column: source, sync, dest")
	cmd.Flags().StringVar(&flags.Format, "format", "table", "output format: table, json, yaml")
	cmd.Flags().StringVar(&flags.Colors, "colors", "", "color scheme: none, dark")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "do not print progress")

	return cmd
}

func (a *App) runDiff(cmd *cobra.Command, manifestPath, dest string, flags diffFlags) error {
	ctx := cmd.Context()

	filter, err := output.ParseFilter(flags.Filter)
	if err != nil {
		return err
	}
	style, err := output.ParseTableStyle(flags.Table)
	if err != nil {
		return err
	}
	colors := a.Config.Output.Colors
	if flags.Colors != "" {
		colors = models.ColorScheme(flags.Colors)
	}
	theme, err := output.NewTheme(colors)
	if err != nil {
		return err
	}
	formatter, err := output.NewFormatter(flags.Format, theme, style, flags.Sort)
	if err != nil {
		return err
	}

	src, err := location.FromManifest(a.FS, manifestPath)
	if err != nil {
		return err
	}
	target, err := resolveDestination(a.FS, dest, flags.SSH)
	if err != nil {
		return err
	}

	res, dst, err := a.compare(ctx, src, target, flags)
	if err != nil {
		return err
	}

	res.Sort()
	view := output.NewDiffView(src.HostPath(), dst.HostPath(), res, filter)
	if flags.Output != "" {
		return output.WriteDiffFile(a.FS, flags.Output, view, flags.Force)
	}
	return formatter.FormatDiff(a.Stdout, view)
}

// compare diffs src against a manifest offline or against a directory live
func (a *App) compare(ctx context.Context, src location.Location, target Destination, flags diffFlags) (models.DiffResult, location.Location, error) {
	dst, err := target.Location()
	if err != nil {
		return nil, dst, err
	}

	if _, ok := target.(ManifestTarget); ok {
		res, err := a.engine().Offline(ctx, src, dst)
		return res, dst, err
	}

	fingerprintOnly := flags.SHA256 || !a.hasRsync()
	res, err := a.engine().Live(ctx, src, dst, diff.LiveOptions{FingerprintOnly: fingerprintOnly})
	if err != nil {
		return nil, dst, err
	}
	if fingerprintOnly {
		if err := a.verifyUnverified(ctx, res, src, dst, flags.Quiet || a.Config.Output.Quiet || !a.Config.Output.Progress); err != nil {
			return nil, dst, err
		}
	}
	return res, dst, nil
}
