// Package cli is the cobra front door of the retrieval engine. Commands
// are thin: they parse flags, call the core services through the driving
// ports and format output.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driving"
	"github.com/pablofarias19/sentency-sub002/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool
)

// Services are wired lazily by ensureServices and swappable for tests.
var (
	ingestService   driving.Ingestor
	searchService   driving.Searcher
	baselineService driving.BaselineBuilder
)

var rootCmd = &cobra.Command{
	Use:   "sentency",
	Short: "Semantic retrieval over legal decisions",
	Long: `Sentency ingests extracted legal texts, embeds them with one or more
models, and serves metadata-filtered semantic search with doctrinal
distance scoring.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.sentency/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging to stderr")
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}
