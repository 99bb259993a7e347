package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch, classify, and store new arXiv papers",
	Long: `Ingest queries the arXiv API for papers submitted within the configured
window, drops papers that are already stored, classifies the remainder into
trend categories, and stores papers and classifications under a fresh run ID.

Papers the pipeline has seen before never reach the classifier, so repeat
runs are cheap and idempotent.`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	p, cleanup, err := openPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := p.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}

	if result.TotalNew == 0 {
		fmt.Println("Nothing new to classify.")
		return nil
	}

	fmt.Printf("\nRun %s\n", result.RunID)
	printTopicCounts(result.TopicCounts)
	return nil
}

// printTopicCounts lists categories by descending count, name breaking ties.
func printTopicCounts(counts map[types.Category]int) {
	cats := make([]types.Category, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if counts[cats[i]] != counts[cats[j]] {
			return counts[cats[i]] > counts[cats[j]]
		}
		return cats[i] < cats[j]
	})
	for _, c := range cats {
		fmt.Printf("  %-40s %d\n", c, counts[c])
	}
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
