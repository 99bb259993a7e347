// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the fetch, classify, store, digest, report, and
// email stages into the four operations shared by the CLI, the HTTP API,
// and the scheduler: Ingest, GenerateReport, LatestReport, and
// TopicAggregations.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-trends/internal/classify"
	"github.com/pdiddy/arxiv-trends/internal/digest"
	"github.com/pdiddy/arxiv-trends/internal/email"
	"github.com/pdiddy/arxiv-trends/internal/fetch"
	"github.com/pdiddy/arxiv-trends/internal/report"
	"github.com/pdiddy/arxiv-trends/internal/store"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// Fetcher retrieves recent papers from the arXiv feed.
type Fetcher interface {
	Fetch(ctx context.Context, cfg types.FetchConfig) ([]types.RawPaper, error)
}

// newBackend builds the classifier backend; tests substitute it.
var newBackend = func(cfg types.AIConfig) (classify.Backend, error) {
	return classify.NewGeminiBackend(cfg)
}

var timeNow = time.Now

// Pipeline runs the ingestion and reporting operations against a shared
// store.
type Pipeline struct {
	cfg     types.Config
	store   *store.Store
	fetcher Fetcher
	mailer  *email.Mailer
	log     *zap.Logger
}

// New assembles a Pipeline from configuration and an open store. A nil
// logger is replaced with a no-op logger.
func New(cfg types.Config, st *store.Store, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		cfg:     cfg,
		store:   st,
		fetcher: fetch.NewClient(cfg.Fetch.Timeout),
		mailer:  email.NewMailer(cfg.Mail, log),
		log:     log,
	}
}

// Ingest fetches the recent feed window, drops papers already stored,
// classifies the remainder, and persists papers and classifications under
// a fresh run ID. A classifier transport or configuration error aborts the
// run with nothing persisted. Progress lines are written to w.
func (p *Pipeline) Ingest(ctx context.Context, w io.Writer) (*types.IngestResult, error) {
	runID := uuid.NewString()

	papers, err := p.fetcher.Fetch(ctx, p.cfg.Fetch)
	if err != nil {
		return nil, err
	}

	fresh, err := p.dropExisting(ctx, papers)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "fetched %d papers, %d new\n", len(papers), len(fresh))

	result := &types.IngestResult{
		RunID:       runID,
		TopicCounts: map[types.Category]int{},
	}
	if len(fresh) == 0 {
		p.log.Info("ingest found nothing new",
			zap.String("run_id", runID), zap.Int("fetched", len(papers)))
		return result, nil
	}

	backend, err := newBackend(p.cfg.Classify)
	if err != nil {
		return nil, err
	}
	results, err := classify.ClassifyAll(ctx, backend, fresh, p.cfg.Classify, w)
	if err != nil {
		return nil, err
	}

	created, err := p.store.SavePapers(ctx, runID, fresh)
	if err != nil {
		return nil, err
	}

	cls := make([]types.Classification, len(fresh))
	for i, r := range results {
		cls[i] = types.Classification{
			PaperID:             fresh[i].ArxivID,
			RunID:               runID,
			PrimaryCategory:     r.PrimaryCategory,
			SecondaryCategories: r.SecondaryCategories,
			ImpactScore:         r.ImpactScore,
		}
		result.TopicCounts[r.PrimaryCategory]++
	}
	if err := p.store.CreateClassifications(ctx, cls); err != nil {
		return nil, err
	}

	result.TotalNew = created
	fmt.Fprintf(w, "stored %d papers with classifications (run %s)\n", created, runID)
	p.log.Info("ingest complete",
		zap.String("run_id", runID),
		zap.Int("fetched", len(papers)),
		zap.Int("new", created))
	return result, nil
}

// dropExisting filters out papers whose canonical IDs are already stored.
func (p *Pipeline) dropExisting(ctx context.Context, papers []types.RawPaper) ([]types.RawPaper, error) {
	ids := make([]string, len(papers))
	for i, paper := range papers {
		ids[i] = paper.ArxivID
	}
	existing, err := p.store.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	fresh := make([]types.RawPaper, 0, len(papers))
	for _, paper := range papers {
		if !existing[paper.ArxivID] {
			fresh = append(fresh, paper)
		}
	}
	return fresh, nil
}

// GenerateReport renders the trend report for a run and persists it. An
// empty runID targets the most recent classified run. Unless previewOnly
// is set the report is also emailed; the stored row and the result record
// whether delivery succeeded. A run with no classifications yields a
// *report.NoDataError and no stored row.
func (p *Pipeline) GenerateReport(ctx context.Context, runID string, previewOnly bool) (*types.ReportResult, error) {
	if runID == "" {
		latest, err := p.store.LatestRunID(ctx)
		if err != nil {
			return nil, err
		}
		if latest == "" {
			return nil, &report.NoDataError{}
		}
		runID = latest
	}

	papers, err := p.store.ClassificationsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	aggs := digest.Aggregate(papers)
	rep, err := report.Render(runID, timeNow(), aggs)
	if err != nil {
		return nil, err
	}

	if !previewOnly {
		rep.Emailed = p.mailer.Deliver(ctx, rep.Subject, rep.BodyMarkdown, rep.BodyHTML)
	}

	if _, err := p.store.CreateReport(ctx, rep); err != nil {
		return nil, err
	}

	p.log.Info("report generated",
		zap.String("run_id", runID),
		zap.Bool("preview", previewOnly),
		zap.Bool("emailed", rep.Emailed))
	return &types.ReportResult{
		RunID:        runID,
		Subject:      rep.Subject,
		BodyMarkdown: rep.BodyMarkdown,
		BodyHTML:     rep.BodyHTML,
		Emailed:      rep.Emailed,
	}, nil
}

// LatestReport returns the most recently generated report for display, or
// nil when none exists.
func (p *Pipeline) LatestReport(ctx context.Context) (*types.ReportSummary, error) {
	return p.store.LatestReport(ctx)
}

// TopicAggregations groups a run's classified papers by primary category.
// An empty runID targets the most recent classified run. A run with no
// classifications yields an empty slice.
func (p *Pipeline) TopicAggregations(ctx context.Context, runID string) ([]types.TopicAggregation, error) {
	if runID == "" {
		latest, err := p.store.LatestRunID(ctx)
		if err != nil {
			return nil, err
		}
		runID = latest
	}

	papers, err := p.store.ClassificationsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return digest.Aggregate(papers), nil
}

// Stats reports stored row counts for operator commands.
func (p *Pipeline) Stats(ctx context.Context) (store.Stats, error) {
	return p.store.GetStats(ctx)
}
