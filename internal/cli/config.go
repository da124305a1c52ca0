package cli

import (
	"fmt"
	"os"

	"github.com/sdejongh/locsync/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *App) newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or create the locsync configuration file.`,
	}

	cmd.AddCommand(a.newConfigShowCommand())
	cmd.AddCommand(a.newConfigInitCommand())

	return cmd
}

func (a *App) newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.Config)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = a.Stdout.Write(data)
			return err
		},
	}
}

func (a *App) newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}

			if err := config.SaveToFile(config.Default(), path); err != nil {
				return err
			}

			fmt.Fprintf(a.Stdout, "Configuration file created at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}
