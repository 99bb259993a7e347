// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sched runs the ingest-and-report cycle on a cron schedule.
package sched

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-trends/internal/report"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// Runner is the pipeline surface the scheduler drives.
type Runner interface {
	Ingest(ctx context.Context, w io.Writer) (*types.IngestResult, error)
	GenerateReport(ctx context.Context, runID string, previewOnly bool) (*types.ReportResult, error)
}

// Scheduler triggers periodic pipeline cycles. Tick failures are logged
// and swallowed; the schedule itself never dies.
type Scheduler struct {
	runner Runner
	cfg    types.SchedulerConfig
	cron   *cron.Cron
	log    *zap.Logger
}

// New builds a Scheduler using the standard five-field cron format.
func New(r Runner, cfg types.SchedulerConfig, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	return &Scheduler{runner: r, cfg: cfg, cron: c, log: log}
}

// Start registers the configured schedule and launches the cron loop. An
// empty cron expression disables the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Cron == "" {
		s.log.Info("scheduler disabled: no cron expression configured")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.Cron, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.cfg.Cron, err)
	}
	s.cron.Start()
	s.log.Info("scheduler started", zap.String("cron", s.cfg.Cron))
	return nil
}

// Stop halts the schedule and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// runOnce executes one ingest-and-report cycle. A run with nothing new
// produces no report; that outcome is a warning, not an error.
func (s *Scheduler) runOnce(ctx context.Context) {
	result, err := s.runner.Ingest(ctx, io.Discard)
	if err != nil {
		s.log.Error("scheduled ingest failed", zap.Error(err))
		return
	}
	s.log.Info("scheduled ingest complete",
		zap.String("run_id", result.RunID),
		zap.Int("new", result.TotalNew))

	rep, err := s.runner.GenerateReport(ctx, result.RunID, false)
	if err != nil {
		var noData *report.NoDataError
		if errors.As(err, &noData) {
			s.log.Warn("nothing new this cycle, skipping report",
				zap.String("run_id", result.RunID))
			return
		}
		s.log.Error("scheduled report failed",
			zap.String("run_id", result.RunID), zap.Error(err))
		return
	}
	s.log.Info("scheduled report complete",
		zap.String("run_id", result.RunID),
		zap.String("subject", rep.Subject),
		zap.Bool("emailed", rep.Emailed))
}
