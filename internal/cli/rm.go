package cli

import (
	"fmt"

	"github.com/sdejongh/locsync/pkg/location"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/output"
	"github.com/sdejongh/locsync/pkg/plan"
	"github.com/sdejongh/locsync/pkg/transfer"
	"github.com/spf13/cobra"
)

func (a *App) newRemoveCommand() *cobra.Command {
	var flags TransferFlags

	cmd := &cobra.Command{
		Use:   "rm <manifest>",
		Short: "Remove the files listed in a manifest",
		Long: `Remove every file listed in a manifest from the manifest's location.
A remote location is only supported when ssh is installed.`,
		Example: `  locsync rm dump.yaml --dry-run`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRemove(cmd, args[0], flags)
		},
	}

	addTransferFlags(cmd, &flags)

	return cmd
}

func (a *App) runRemove(cmd *cobra.Command, manifestPath string, flags TransferFlags) error {
	ctx := cmd.Context()
	opts, err := flags.options(a.Config)
	if err != nil {
		return err
	}

	src, err := location.FromManifest(a.FS, manifestPath)
	if err != nil {
		return err
	}

	p, err := plan.New(models.OperationRemove, nil, src.Paths())
	if err != nil {
		return err
	}
	if p.State == models.StateDone {
		fmt.Fprintln(a.Stdout, p.Notice)
		return nil
	}

	kind, err := transfer.Select(a.capabilities(), src.Host, "", models.OperationRemove)
	if err != nil {
		return err
	}

	if !opts.Force {
		if err := output.WriteRemovePlan(a.Stdout, p); err != nil {
			return err
		}
	}
	if err := p.Confirm(opts.Force, opts.DryRun, a.Prompter); err != nil {
		return err
	}
	if p.State == models.StateAborted {
		return nil
	}

	progress := output.NewProgress(a.Stderr, pastTense[p.Kind], opts.Quiet)
	target := plan.Target{SourceRoot: src.Root, SourceHost: src.Host}
	return p.Execute(ctx, a.backend(kind, opts, progress), target, a.Logger)
}
