package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information, set via ldflags from cmd/locsync
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func (a *App) newVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information and the transfer tools found",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(w, Version)
				return
			}

			fmt.Fprintf(w, "locsync %s (commit %s, built %s, %s %s/%s)\n",
				Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			for _, tool := range []string{a.Config.Tools.Rsync, a.Config.Tools.SSH, a.Config.Tools.SCP} {
				where, err := a.Runner.LookPath(tool)
				if err != nil {
					where = "not found"
				}
				fmt.Fprintf(w, "  %-6s %s\n", tool, where)
			}
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")

	return cmd
}
