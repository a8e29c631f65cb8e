package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
)

// snippetChars bounds the preview printed per result.
const snippetChars = 200

var (
	searchLimit     int
	searchJSON      bool
	searchTopic     string
	searchReasoning string
	searchFallacy   string
	searchCourt     string
	searchSubject   string
	searchFrom      string
	searchTo        string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search ingested decisions",
	Long: `Embeds the query with the configured models and retrieves the most
similar chunks. Court, subject and date filters exclude candidates;
topic, reasoning and fallacy filters boost candidates whose metadata
corroborates them.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVar(&searchTopic, "topic", "", "boost chunks tagged with this topic")
	searchCmd.Flags().StringVar(&searchReasoning, "reasoning", "", "boost chunks tagged with this reasoning form")
	searchCmd.Flags().StringVar(&searchFallacy, "fallacy", "", "boost chunks tagged with this fallacy")
	searchCmd.Flags().StringVar(&searchCourt, "court", "", "only chunks from this tribunal")
	searchCmd.Flags().StringVar(&searchSubject, "subject", "", "only chunks with this subject matter")
	searchCmd.Flags().StringVar(&searchFrom, "from", "", "only decisions on or after this date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchTo, "to", "", "only decisions on or before this date (YYYY-MM-DD)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	filters := domain.SearchFilters{
		Topic:         searchTopic,
		ReasoningForm: searchReasoning,
		Fallacy:       searchFallacy,
		Court:         searchCourt,
		SubjectMatter: searchSubject,
		DateFrom:      searchFrom,
		DateTo:        searchTo,
	}

	results, err := searchService.Search(context.Background(), args[0], filters, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		cmd.Printf("  [%d] %s (%.4f)\n", i+1, r.Record.ChunkID, r.Boost)
		cmd.Printf("      Source: %s\n", r.Record.SourceFile)
		if r.Record.Court != "" {
			cmd.Printf("      Court: %s\n", r.Record.Court)
		}
		if r.Record.DecisionDate != nil {
			cmd.Printf("      Date: %s\n", *r.Record.DecisionDate)
		}
		if r.Record.DoctrinalDistance != nil {
			d := *r.Record.DoctrinalDistance
			cmd.Printf("      Doctrine: %s (%.4f)\n", categoryLabel(d), d)
		}
		cmd.Printf("      %s\n", r.Record.Snippet(snippetChars))
		cmd.Println()
	}
	return nil
}

// categoryLabel classifies a doctrinal distance with the configured
// thresholds, falling back to the defaults when no config is loaded.
func categoryLabel(distance float64) domain.DistanceCategory {
	thresholds := domain.DefaultDistanceThresholds
	if appConfig != nil {
		thresholds = domain.DistanceThresholds{
			Aligned:  appConfig.Retrieval.Thresholds.Aligned,
			Moderate: appConfig.Retrieval.Thresholds.Moderate,
		}
	}
	return thresholds.Categorise(distance)
}
