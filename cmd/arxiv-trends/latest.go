package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent trend report",
	Long: `Latest prints the subject and generation time of the most recently
stored trend report. Use --html to dump the report body, or --json for
the full record.`,
	RunE: runLatest,
}

func runLatest(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	htmlOutput, _ := cmd.Flags().GetBool("html")

	p, cleanup, err := openPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	latest, err := p.LatestReport(context.Background())
	if err != nil {
		return err
	}
	if latest == nil {
		fmt.Println("No reports generated yet.")
		return nil
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(latest)
	}

	fmt.Printf("%s (generated %s)\n", latest.Subject, latest.CreatedAt.Format("2006-01-02 15:04"))
	if htmlOutput {
		fmt.Println()
		fmt.Println(latest.BodyHTML)
	}
	return nil
}

func init() {
	latestCmd.Flags().Bool("html", false, "print the report's HTML body")
	latestCmd.Flags().Bool("json", false, "output the report as JSON")
	rootCmd.AddCommand(latestCmd)
}
