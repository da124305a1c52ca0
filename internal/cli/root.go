package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootCommand assembles the locsync command tree
func (a *App) RootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "locsync",
		Short: "Reconcile and transfer file collections between locations",
		Long: `locsync compares file collections described by manifests with
directories or other manifests, local or on a remote host, and copies,
moves or removes files without silent overwrites.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	AddGlobalFlags(rootCmd, &a.global)

	rootCmd.AddCommand(a.newDumpCommand())
	rootCmd.AddCommand(a.newHostinfoCommand())
	rootCmd.AddCommand(a.newCopyCommand())
	rootCmd.AddCommand(a.newMoveCommand())
	rootCmd.AddCommand(a.newRemoveCommand())
	rootCmd.AddCommand(a.newDiffCommand())
	rootCmd.AddCommand(a.newParseCommand())
	rootCmd.AddCommand(a.newConfigCommand())
	rootCmd.AddCommand(a.newVersionCommand())

	return rootCmd
}
