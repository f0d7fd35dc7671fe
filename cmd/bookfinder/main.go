// Command bookfinder runs the hybrid book search service and its
// companion maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookfinder-io/bookfinder/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:   "bookfinder",
		Short: "Hybrid semantic + keyword search over a book catalog",
		Long: `bookfinder ingests book CSV exports into SQLite, vectorizes the
catalog with an embedding provider plus a TF-IDF keyword space, and serves
hybrid search over HTTP.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newPipelineCmd(),
		newReindexCmd(),
		newSearchCmd(),
		newStatsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
