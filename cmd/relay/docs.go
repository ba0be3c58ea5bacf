package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dphaener/relay/metadata"
)

func newDocsCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Generate the machine-readable API description as JSON",
		Example: `  # Describe the configured procedures directory
  relay docs

  # Describe an explicit directory
  relay docs --dir api/procedures`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := loadCollections(dir)
			if err != nil {
				return err
			}

			desc := metadata.Describe(result.Collections, nil)
			data, err := desc.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "procedures directory (default from relay.yml)")
	return cmd
}
