package cli

import (
	"github.com/sdejongh/locsync/pkg/diff"
	"github.com/sdejongh/locsync/pkg/location"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/plan"
	"github.com/spf13/cobra"
)

type copyFlags struct {
	TransferFlags
	SSH    string
	SHA256 bool
}

func (a *App) newCopyCommand() *cobra.Command {
	var flags copyFlags

	cmd := &cobra.Command{
		Use:   "cp <manifest> <destination>",
		Short: "Copy the files of a manifest to a directory",
		Long: `Copy the files listed in a manifest to a destination directory, local
or on a remote host ("user@host:/path" or --ssh). Files already equal at the
destination are skipped; files that differ are shown as overwrites ("=>")
and copied only after confirmation.

The comparison uses rsync when installed. With --sha256, or without rsync,
files present on both sides are compared by SHA-256 fingerprint instead.`,
		Example: `  locsync cp dump.yaml /backup/data
  locsync cp dump.yaml user@host:/data --sha256
  locsync cp dump.yaml /backup/data --dry-run`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCopy(cmd, args[0], args[1], flags)
		},
	}

	addTransferFlags(cmd, &flags.TransferFlags)
	cmd.Flags().StringVar(&flags.SSH, "ssh", "", "remote host of the destination (user@host)")
	cmd.Flags().BoolVar(&flags.SHA256, "sha256", false, "compare by SHA-256 instead of rsync")

	return cmd
}

func (a *App) runCopy(cmd *cobra.Command, manifestPath, dest string, flags copyFlags) error {
	ctx := cmd.Context()
	opts, err := flags.options(a.Config)
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
	dst, err := target.Location()
	if err != nil {
		return err
	}

	fingerprintOnly := flags.SHA256 || !a.hasRsync()
	// files judged by fingerprint must not be skipped by rsync's quick check
	opts.Checksum = fingerprintOnly
	res, err := a.engine().Live(ctx, src, dst, diff.LiveOptions{FingerprintOnly: fingerprintOnly})
	if err != nil {
		return err
	}
	if fingerprintOnly {
		if err := a.verifyUnverified(ctx, res, src, dst, opts.Quiet); err != nil {
			return err
		}
	}

	p, err := plan.New(models.OperationCopy, res, nil)
	if err != nil {
		return err
	}
	return a.executePlan(ctx, p, opts, src, dst)
}
