// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-trends/internal/fetch"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

var topicsCmd = &cobra.Command{
	Use:   "topics [run-id]",
	Short: "Show a run's topic breakdown",
	Long: `Topics prints the per-category aggregation for an ingestion run: paper
counts per trend category plus each category's highest-impact papers.
With no run ID the most recent run is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTopics,
}

func runTopics(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	runID := ""
	if len(args) > 0 {
		runID = args[0]
	}

	p, cleanup, err := openPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	aggs, err := p.TopicAggregations(context.Background(), runID)
	if err != nil {
		return err
	}

	return formatTopicsOutput(aggs, jsonOutput)
}

func formatTopicsOutput(aggs []types.TopicAggregation, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(aggs)
	}

	if len(aggs) == 0 {
		fmt.Println("No classified papers found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-40s  %5s  %s\n", "Category", "Count", "Top paper")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	total := 0
	for _, agg := range aggs {
		top := ""
		if len(agg.Representatives) > 0 {
			top = agg.Representatives[0].Paper.Title
			if len(top) > 50 {
				top = top[:47] + "..."
			}
		}
		fmt.Fprintf(os.Stdout, "%-40s  %5d  %s\n", agg.PrimaryCategory, agg.Count, top)
		total += agg.Count
	}

	fmt.Fprintf(os.Stdout, "\n%d papers across %d categories\n", total, len(aggs))
	return nil
}

// --- init subcommand ---

var topicsInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a starter topics file",
	Long: `Init writes the currently configured topic filters to a YAML file
(default topics.yaml) as a starting point for a standalone watch list.
Point fetch.topics_file at it to keep the list outside the main config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTopicsInit,
}

func runTopicsInit(cmd *cobra.Command, args []string) error {
	path := "topics.yaml"
	if len(args) > 0 {
		path = args[0]
	}

	if err := fetch.WriteTopicsFile(path, cfg.Fetch.Topics); err != nil {
		return err
	}
	fmt.Printf("Wrote %s with %d topic filters\n", path, len(cfg.Fetch.Topics))
	return nil
}

func init() {
	topicsCmd.Flags().Bool("json", false, "output the aggregation as JSON")

	topicsCmd.AddCommand(topicsInitCmd)
	rootCmd.AddCommand(topicsCmd)
}
