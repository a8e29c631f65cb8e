package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
)

var (
	ingestDocID      string
	ingestExpediente string
	ingestDate       string
	ingestCourt      string
	ingestJurisd     string
	ingestSubject    string
	ingestTopics     []string
	ingestReasoning  []string
	ingestFallacies  []string
	ingestNoRebuild  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest extracted text files",
	Long: `Chunks, embeds and stores one or more extracted text files.
Re-ingesting a file replaces its earlier chunks. Metadata flags apply to
every file in the invocation; --id only makes sense with a single file.
The vector index is rebuilt afterwards unless --no-rebuild is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDocID, "id", "", "document ID (default: file name without extension)")
	ingestCmd.Flags().StringVar(&ingestExpediente, "expediente", "", "case file reference")
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "decision date (YYYY-MM-DD)")
	ingestCmd.Flags().StringVar(&ingestCourt, "court", "", "deciding tribunal")
	ingestCmd.Flags().StringVar(&ingestJurisd, "jurisdiction", "", "territorial jurisdiction")
	ingestCmd.Flags().StringVar(&ingestSubject, "subject", "", "subject matter classification")
	ingestCmd.Flags().StringSliceVar(&ingestTopics, "topics", nil, "topic tags")
	ingestCmd.Flags().StringSliceVar(&ingestReasoning, "reasoning", nil, "reasoning form tags")
	ingestCmd.Flags().StringSliceVar(&ingestFallacies, "fallacies", nil, "fallacy tags")
	ingestCmd.Flags().BoolVar(&ingestNoRebuild, "no-rebuild", false, "skip the index rebuild after ingesting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if ingestDocID != "" && len(args) > 1 {
		return fmt.Errorf("%w: --id cannot apply to %d files", domain.ErrInvalidInput, len(args))
	}

	ctx := context.Background()
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		base := filepath.Base(path)
		docID := ingestDocID
		if docID == "" {
			docID = strings.TrimSuffix(base, filepath.Ext(base))
		}

		doc := domain.SourceDocument{
			ID:       docID,
			Text:     string(data),
			Metadata: metadataFromFlags(base),
		}

		report, err := ingestService.Ingest(ctx, doc)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		printIngestReport(cmd, base, report)
	}

	if ingestNoRebuild {
		return nil
	}
	if err := ingestService.RebuildIndex(ctx); err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}
	cmd.Println("Index rebuilt.")
	return nil
}

func metadataFromFlags(sourceFile string) domain.MetadataRecord {
	record := domain.MetadataRecord{
		SourceFile:     sourceFile,
		Court:          ingestCourt,
		Jurisdiction:   ingestJurisd,
		SubjectMatter:  ingestSubject,
		Topics:         ingestTopics,
		ReasoningForms: ingestReasoning,
		Fallacies:      ingestFallacies,
	}
	if ingestExpediente != "" {
		record.Expediente = &ingestExpediente
	}
	if ingestDate != "" {
		record.DecisionDate = &ingestDate
	}
	return record
}

func printIngestReport(cmd *cobra.Command, name string, report domain.IngestReport) {
	cmd.Printf("%s: %d chunks stored as document %s\n", name, len(report.ChunkIDs), report.DocumentID)
	if len(report.Degraded) > 0 {
		cmd.Printf("  %d chunks fused from a partial model set\n", len(report.Degraded))
	}
	for _, f := range report.Failures {
		cmd.Printf("  failed %s: %s\n", f.ChunkID, f.Err)
	}
}
