package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stored paper, classification, and report counts",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	p, cleanup, err := openPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := p.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Papers:          %d\n", stats.Papers)
	fmt.Printf("Classifications: %d\n", stats.Classifications)
	fmt.Printf("Reports:         %d\n", stats.Reports)
	fmt.Printf("Runs:            %d\n", stats.Runs)
	return nil
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
