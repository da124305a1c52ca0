package cli

import (
	"github.com/sdejongh/locsync/pkg/diff"
	"github.com/sdejongh/locsync/pkg/location"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/plan"
	"github.com/spf13/cobra"
)

func (a *App) newMoveCommand() *cobra.Command {
	var flags TransferFlags

	cmd := &cobra.Command{
		Use:   "mv <manifest> <destination>",
		Short: "Move the files of a manifest to a local directory",
		Long: `Move the files listed in a manifest to a destination directory on the
same host. Files that already exist at the destination are never replaced.`,
		Example: `  locsync mv dump.yaml /archive/data`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMove(cmd, args[0], args[1], flags)
		},
	}

	addTransferFlags(cmd, &flags)

	return cmd
}

func (a *App) runMove(cmd *cobra.Command, manifestPath, dest string, flags TransferFlags) error {
	ctx := cmd.Context()
	opts, err := flags.options(a.Config)
	if err != nil {
		return err
	}

	src, err := location.FromManifest(a.FS, manifestPath)
	if err != nil {
		return err
	}
	if src.IsRemote() {
		return &models.InvariantViolation{Reason: "cannot move from remote"}
	}
	target, err := resolveDestination(a.FS, dest, "")
	if err != nil {
		return err
	}
	dst, err := target.Location()
	if err != nil {
		return err
	}
	if dst.IsRemote() {
		return &models.InvariantViolation{Reason: "cannot move files across hosts"}
	}

	res, err := a.engine().Live(ctx, src, dst, diff.LiveOptions{FingerprintOnly: true})
	if err != nil {
		return err
	}

	p, err := plan.New(models.OperationMove, res, nil)
	if err != nil {
		return err
	}
	return a.executePlan(ctx, p, opts, src, dst)
}
