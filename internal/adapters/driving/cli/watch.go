package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pablofarias19/sentency-sub002/internal/adapters/driven/filewatcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and ingest dropped text files",
	Long: `Watches a directory and ingests every *.txt file created or
rewritten there. The document ID is the file name without extension, so
rewriting a file replaces its earlier chunks. Once ingestion goes quiet
the index is rebuilt, making the new chunks searchable; a bulk drop
triggers a single rebuild. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	watcher, err := filewatcher.New(args[0], ingestService)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s, press Ctrl-C to stop.\n", args[0])
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
