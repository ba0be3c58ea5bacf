package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dphaener/relay/dispatch"
	"github.com/dphaener/relay/internal/cli/ui"
)

func newRoutesCommand() *cobra.Command {
	var dir string
	var noColor bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the REST routes derived from the procedure manifests",
		Example: `  # Show routes for the configured procedures directory
  relay routes

  # Plain output for scripts
  relay routes --no-color`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := loadCollections(dir)
			if err != nil {
				return err
			}

			table := ui.NewTable(cmd.OutOrStdout(), "METHOD", "PATH", "PROCEDURE", "KIND")
			if noColor {
				table.NoColor()
			}
			for _, c := range result.Collections {
				for _, route := range dispatch.Routes(c, nil) {
					table.AddRow(route.Method, route.Path,
						fmt.Sprintf("%s.%s", route.Namespace, route.Procedure),
						string(route.Kind))
				}
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "procedures directory (default from relay.yml)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}
