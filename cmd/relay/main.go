package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "relay",
		Short: "Relay declarative procedure layer tooling",
		Long: `Relay turns namespaced procedure declarations into REST routes, a
single-path RPC surface, and a machine-readable API description. The CLI
inspects the procedure manifests of the current project.`,
	}

	rootCmd.AddCommand(newRoutesCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newDocsCommand())
	rootCmd.AddCommand(newDiscoverCommand())
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
