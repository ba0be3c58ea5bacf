package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dphaener/relay/discovery"
	"github.com/dphaener/relay/internal/cli/config"
)

// loadCollections runs discovery with the project configuration. Handlers
// live in the application binary, not the CLI, so unresolved handler names
// are tolerated here.
func loadCollections(dir string) (*discovery.Result, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		dir = cfg.Procedures.Dir
	}

	return discovery.Discover(dir, discovery.Options{
		Recursive:            cfg.Procedures.Recursive,
		Extensions:           cfg.Procedures.Extensions,
		Exclude:              cfg.Procedures.Exclude,
		OnInvalidExport:      discovery.Policy(cfg.Procedures.OnInvalidExport),
		AllowMissingHandlers: true,
	})
}

func newDiscoverCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Scan the procedures directory and report what was found",
		Example: `  # Scan the configured procedures directory
  relay discover

  # Scan an explicit directory
  relay discover --dir api/procedures`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			result, err := loadCollections(dir)
			if err != nil {
				var derr *discovery.Error
				if errors.As(err, &derr) {
					color.New(color.FgRed, color.Bold).Fprintf(out, "Discovery failed: %s\n", derr.Kind)
					if derr.File != "" {
						fmt.Fprintf(out, "  file: %s\n", derr.File)
					}
					if derr.Hint != "" {
						color.New(color.FgYellow).Fprintf(out, "  hint: %s\n", derr.Hint)
					}
				}
				return err
			}

			fmt.Fprintf(out, "Scanned %d files, loaded %d\n", len(result.ScannedFiles), len(result.LoadedFiles))
			for _, c := range result.Collections {
				color.New(color.FgGreen).Fprintf(out, "  %s", c.Namespace())
				fmt.Fprintf(out, " (%d procedures)\n", c.Len())
			}
			for _, warning := range result.Warnings {
				color.New(color.FgYellow).Fprintf(out, "  warning: %s export %q: %s\n",
					warning.File, warning.Export, warning.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "procedures directory (default from relay.yml)")
	return cmd
}
