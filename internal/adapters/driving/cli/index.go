package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the vector index",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the vector index from stored chunks",
	Long: `Rebuilds the vector index wholesale from the metadata store and swaps
the on-disk artifacts atomically. The previous index stays active until
the swap.`,
	Args: cobra.NoArgs,
	RunE: runIndexRebuild,
}

func init() {
	indexCmd.AddCommand(indexRebuildCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if err := ingestService.RebuildIndex(context.Background()); err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}
	cmd.Println("Index rebuilt.")
	return nil
}
