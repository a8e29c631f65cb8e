package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Manage the doctrinal baseline",
	Long: `Builds the doctrinal baseline from an authoritative reference corpus
and refreshes the cached distance of every stored chunk.`,
}

var baselineBuildCmd = &cobra.Command{
	Use:   "build [corpus-dir]",
	Short: "Build the baseline from a corpus directory",
	Long: `Embeds every *.txt file under the corpus directory, averages the
vectors into the doctrinal baseline and recomputes stored distances.`,
	Args: cobra.ExactArgs(1),
	RunE: runBaselineBuild,
}

var baselineRecomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute stored doctrinal distances",
	Long: `Re-derives the cached doctrinal distance of every stored chunk
against the persisted baseline. Safe to re-run after a partial failure.`,
	Args: cobra.NoArgs,
	RunE: runBaselineRecompute,
}

func init() {
	baselineCmd.AddCommand(baselineBuildCmd)
	baselineCmd.AddCommand(baselineRecomputeCmd)
	rootCmd.AddCommand(baselineCmd)
}

func runBaselineBuild(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	corpus, err := readCorpus(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	baseline, err := baselineService.Build(ctx, corpus)
	if err != nil {
		return fmt.Errorf("building baseline: %w", err)
	}
	cmd.Printf("Baseline built over %d texts (signature %s).\n", baseline.CorpusSize, baseline.ModelSignature)

	updated, err := baselineService.RecomputeDistances(ctx, baseline)
	if err != nil {
		return fmt.Errorf("recomputing distances: %w", err)
	}
	cmd.Printf("Recomputed doctrinal distance for %d chunks.\n", updated)
	return nil
}

func runBaselineRecompute(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	ctx := context.Background()
	baseline, err := baselineStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading baseline: %w", err)
	}

	updated, err := baselineService.RecomputeDistances(ctx, baseline)
	if err != nil {
		return fmt.Errorf("recomputing distances: %w", err)
	}
	cmd.Printf("Recomputed doctrinal distance for %d chunks.\n", updated)
	return nil
}

// readCorpus collects the *.txt files under dir in name order.
func readCorpus(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("listing corpus: %w", err)
	}
	sort.Strings(paths)

	texts := make([]string, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		texts = append(texts, string(data))
	}
	return texts, nil
}
