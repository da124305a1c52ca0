package cli

import (
	"fmt"

	"github.com/sdejongh/locsync/pkg/location"
	"github.com/sdejongh/locsync/pkg/manifest"
	"github.com/spf13/cobra"
)

func (a *App) newParseCommand() *cobra.Command {
	var paths bool

	cmd := &cobra.Command{
		Use:   "parse <manifest>",
		Short: "Parse a manifest and print it",
		Long: `Parse a manifest and print it in normalized form. With --paths, print the
full (host-qualified) path of every file instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := manifest.Read(a.FS, args[0])
			if err != nil {
				return err
			}

			if !paths {
				data, err := manifest.Marshal(doc)
				if err != nil {
					return err
				}
				_, err = a.Stdout.Write(data)
				return err
			}

			loc, err := location.FromDocument(doc, args[0])
			if err != nil {
				return err
			}
			for _, p := range loc.Paths() {
				full, err := loc.Resolve(p)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.Stdout, full)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&paths, "paths", false, "print the full path of every file")

	return cmd
}
