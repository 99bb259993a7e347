package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-trends/internal/report"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the trend report for a run and email it",
	Long: `Report aggregates a run's classifications into a trend report, stores it,
and emails it to the configured recipients. With no --run flag the most
recent ingestion run is reported on.

--preview renders and stores the report without emailing it. --export
additionally writes the Markdown and HTML bodies to the configured output
directory (--out overrides the directory).`,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	runID, _ := cmd.Flags().GetString("run")
	preview, _ := cmd.Flags().GetBool("preview")
	export, _ := cmd.Flags().GetBool("export")
	outDir, _ := cmd.Flags().GetString("out")

	p, cleanup, err := openPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := p.GenerateReport(context.Background(), runID, preview)
	if err != nil {
		return err
	}

	fmt.Printf("Subject: %s\n", result.Subject)
	switch {
	case preview:
		fmt.Println("Preview only; not emailed.")
	case result.Emailed:
		fmt.Println("Report emailed.")
	default:
		fmt.Println("Report stored; email delivery skipped or failed.")
	}

	if outDir == "" && export {
		outDir = cfg.Report.OutputDir
	}
	if outDir != "" {
		mdPath, htmlPath, err := report.WriteFiles(outDir, &types.Report{
			RunID:        result.RunID,
			Subject:      result.Subject,
			BodyMarkdown: result.BodyMarkdown,
			BodyHTML:     result.BodyHTML,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s and %s\n", mdPath, htmlPath)
	}
	return nil
}

func init() {
	reportCmd.Flags().String("run", "", "run ID to report on (default: most recent run)")
	reportCmd.Flags().Bool("preview", false, "render and store the report without emailing it")
	reportCmd.Flags().Bool("export", false, "write .md and .html files to the configured output directory")
	reportCmd.Flags().String("out", "", "directory for exported files (implies --export)")
	rootCmd.AddCommand(reportCmd)
}
