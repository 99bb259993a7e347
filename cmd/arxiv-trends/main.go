// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the arxiv-trends CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-trends/internal/config"
	"github.com/pdiddy/arxiv-trends/internal/logging"
	"github.com/pdiddy/arxiv-trends/internal/pipeline"
	"github.com/pdiddy/arxiv-trends/internal/store"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfgFile    string
	secretsDir string

	// cfg and logger are populated by the root PersistentPreRunE before
	// any subcommand runs.
	cfg    *types.Config
	logger *zap.Logger
)

// rootCmd is the base command for the arxiv-trends CLI.
var rootCmd = &cobra.Command{
	Use:   "arxiv-trends",
	Short: "Track and report emerging research trends on arXiv",
	Long: `arxiv-trends watches a set of arXiv topic filters, classifies each new
paper into a research trend category with an LLM, and turns the results
into an email-ready trend report.

Each pipeline operation is a subcommand: ingest fetches and classifies new
papers, report renders and delivers the trend report, latest and topics
inspect past results, and serve exposes the same operations over HTTP with
an optional cron schedule.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile, secretsDir)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./arxiv-trends.yaml)")
	rootCmd.PersistentFlags().StringVar(&secretsDir, "secrets-dir", config.DefaultSecretsDir, "directory of secret files (gemini-api-key, smtp-password)")
}

// openPipeline opens the store and assembles the pipeline around it. The
// caller must invoke the returned cleanup function.
func openPipeline() (*pipeline.Pipeline, func(), error) {
	st, err := store.NewStore(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	return pipeline.New(*cfg, st, logger), func() { st.Close() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
