// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/arxiv-trends/internal/classify"
	"github.com/pdiddy/arxiv-trends/internal/report"
	"github.com/pdiddy/arxiv-trends/internal/store"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

const agentsReply = `{"primary_category": "AI Agents", "secondary_categories": [], "impact_score": 4}`

// --- test doubles ---

type stubFetcher struct {
	papers []types.RawPaper
	err    error
	calls  int
}

func (f *stubFetcher) Fetch(ctx context.Context, cfg types.FetchConfig) ([]types.RawPaper, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.papers, nil
}

type countingBackend struct {
	reply string
	calls int
}

func (b *countingBackend) Complete(ctx context.Context, prompt string) (string, error) {
	b.calls++
	return b.reply, nil
}

// cancelingBackend fails and cancels the context so retry backoff exits
// immediately.
type cancelingBackend struct {
	cancel context.CancelFunc
	calls  int
}

func (b *cancelingBackend) Complete(ctx context.Context, prompt string) (string, error) {
	b.calls++
	b.cancel()
	return "", errors.New("backend unavailable")
}

func substituteBackend(t *testing.T, b classify.Backend) {
	t.Helper()
	orig := newBackend
	newBackend = func(types.AIConfig) (classify.Backend, error) { return b, nil }
	t.Cleanup(func() { newBackend = orig })
}

// --- helpers ---

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	st, err := store.NewStore(types.StorageConfig{
		DBPath: filepath.Join(t.TempDir(), "pipeline.db"),
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := types.Config{
		Classify: types.AIConfig{APIKey: "test-key", MaxRetries: 1},
	}
	return New(cfg, st, nil)
}

func paper(id string, daysAgo int) types.RawPaper {
	return types.RawPaper{
		ArxivID:    id,
		Title:      "Paper " + id,
		Summary:    "Summary for " + id,
		Authors:    []string{"A Author"},
		Published:  time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo),
		Categories: []string{"cs.CL"},
	}
}

func seedClassifiedRun(t *testing.T, p *Pipeline, runID string, ids ...string) {
	t.Helper()
	ctx := context.Background()

	papers := make([]types.RawPaper, len(ids))
	for i, id := range ids {
		papers[i] = paper(id, i)
	}
	if _, err := p.store.SavePapers(ctx, runID, papers); err != nil {
		t.Fatalf("SavePapers: %v", err)
	}

	cls := make([]types.Classification, len(ids))
	for i, id := range ids {
		cls[i] = types.Classification{
			PaperID:         id,
			RunID:           runID,
			PrimaryCategory: types.CategoryAgents,
			ImpactScore:     3,
		}
	}
	if err := p.store.CreateClassifications(ctx, cls); err != nil {
		t.Fatalf("CreateClassifications: %v", err)
	}
}

// --- ingest ---

func TestIngestStoresNewPapers(t *testing.T) {
	p := testPipeline(t)
	p.fetcher = &stubFetcher{papers: []types.RawPaper{paper("2408.01001", 0), paper("2408.01002", 1)}}
	backend := &countingBackend{reply: agentsReply}
	substituteBackend(t, backend)

	var progress bytes.Buffer
	result, err := p.Ingest(context.Background(), &progress)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if result.RunID == "" {
		t.Error("expected a run ID")
	}
	if result.TotalNew != 2 {
		t.Errorf("TotalNew = %d, want 2", result.TotalNew)
	}
	if result.TopicCounts[types.CategoryAgents] != 2 {
		t.Errorf("TopicCounts[Agents] = %d, want 2", result.TopicCounts[types.CategoryAgents])
	}
	if backend.calls != 2 {
		t.Errorf("backend calls = %d, want 2", backend.calls)
	}
	if !strings.Contains(progress.String(), "fetched 2 papers, 2 new") {
		t.Errorf("progress output missing fetch line: %q", progress.String())
	}

	stats, err := p.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Papers != 2 || stats.Classifications != 2 {
		t.Errorf("stats = %+v, want 2 papers and 2 classifications", stats)
	}
}

func TestIngestIdempotent(t *testing.T) {
	p := testPipeline(t)
	fetcher := &stubFetcher{papers: []types.RawPaper{paper("2408.01001", 0), paper("2408.01002", 1)}}
	p.fetcher = fetcher

	first := &countingBackend{reply: agentsReply}
	substituteBackend(t, first)
	firstResult, err := p.Ingest(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	second := &countingBackend{reply: agentsReply}
	substituteBackend(t, second)
	secondResult, err := p.Ingest(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}

	if secondResult.TotalNew != 0 {
		t.Errorf("second TotalNew = %d, want 0", secondResult.TotalNew)
	}
	if second.calls != 0 {
		t.Errorf("second run classified %d papers, want 0 (dedup gate)", second.calls)
	}
	if secondResult.RunID == firstResult.RunID {
		t.Error("runs should get distinct IDs")
	}

	stats, err := p.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Papers != 2 || stats.Classifications != 2 {
		t.Errorf("stats = %+v, want unchanged counts after re-ingest", stats)
	}
}

func TestIngestFetchError(t *testing.T) {
	p := testPipeline(t)
	p.fetcher = &stubFetcher{err: errors.New("feed down")}

	if _, err := p.Ingest(context.Background(), io.Discard); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}

func TestIngestNoAPIKey(t *testing.T) {
	p := testPipeline(t)
	p.cfg.Classify.APIKey = ""
	p.fetcher = &stubFetcher{papers: []types.RawPaper{paper("2408.01001", 0)}}

	_, err := p.Ingest(context.Background(), io.Discard)
	if !errors.Is(err, classify.ErrNoAPIKey) {
		t.Fatalf("err = %v, want ErrNoAPIKey", err)
	}

	stats, err := p.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Papers != 0 {
		t.Errorf("stats.Papers = %d, want 0 after aborted ingest", stats.Papers)
	}
}

func TestIngestClassifierErrorPersistsNothing(t *testing.T) {
	p := testPipeline(t)
	p.fetcher = &stubFetcher{papers: []types.RawPaper{paper("2408.01001", 0), paper("2408.01002", 1)}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	substituteBackend(t, &cancelingBackend{cancel: cancel})

	if _, err := p.Ingest(ctx, io.Discard); err == nil {
		t.Fatal("expected classifier error to abort ingest")
	}

	stats, err := p.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Papers != 0 || stats.Classifications != 0 {
		t.Errorf("stats = %+v, want nothing persisted after abort", stats)
	}
}

func TestIngestNothingNewSkipsClassifier(t *testing.T) {
	p := testPipeline(t)
	p.fetcher = &stubFetcher{}
	backend := &countingBackend{reply: agentsReply}
	substituteBackend(t, backend)

	result, err := p.Ingest(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.TotalNew != 0 {
		t.Errorf("TotalNew = %d, want 0", result.TotalNew)
	}
	if len(result.TopicCounts) != 0 {
		t.Errorf("TopicCounts = %v, want empty", result.TopicCounts)
	}
	if backend.calls != 0 {
		t.Errorf("backend calls = %d, want 0", backend.calls)
	}
}

// --- reports ---

func TestGenerateReportPreviewPersistsWithoutDelivery(t *testing.T) {
	p := testPipeline(t)
	seedClassifiedRun(t, p, "run-1", "2408.01001", "2408.01002")

	result, err := p.GenerateReport(context.Background(), "run-1", true)
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if result.Emailed {
		t.Error("preview must not deliver")
	}
	if !strings.Contains(result.Subject, "2 new papers") {
		t.Errorf("Subject = %q, want paper count", result.Subject)
	}
	if result.BodyMarkdown == "" || result.BodyHTML == "" {
		t.Error("expected both bodies populated")
	}

	latest, err := p.LatestReport(context.Background())
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if latest == nil {
		t.Fatal("preview report should still be persisted")
	}
	if latest.Subject != result.Subject {
		t.Errorf("stored subject = %q, want %q", latest.Subject, result.Subject)
	}
}

func TestGenerateReportUnconfiguredMail(t *testing.T) {
	p := testPipeline(t)
	seedClassifiedRun(t, p, "run-1", "2408.01001")

	result, err := p.GenerateReport(context.Background(), "run-1", false)
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if result.Emailed {
		t.Error("emailed should be false without SMTP configuration")
	}

	latest, err := p.LatestReport(context.Background())
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if latest == nil {
		t.Fatal("report should be persisted despite failed delivery")
	}
}

func TestGenerateReportNoDataWritesNoRow(t *testing.T) {
	p := testPipeline(t)
	seedClassifiedRun(t, p, "run-1", "2408.01001")

	_, err := p.GenerateReport(context.Background(), "run-404", false)
	var noData *report.NoDataError
	if !errors.As(err, &noData) {
		t.Fatalf("err = %v, want *report.NoDataError", err)
	}
	if noData.RunID != "run-404" {
		t.Errorf("NoDataError.RunID = %q, want run-404", noData.RunID)
	}

	latest, err := p.LatestReport(context.Background())
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if latest != nil {
		t.Error("failed report generation must not persist a row")
	}
}

func TestGenerateReportDefaultsToLatestRun(t *testing.T) {
	p := testPipeline(t)
	seedClassifiedRun(t, p, "run-1", "2408.01001")
	seedClassifiedRun(t, p, "run-2", "2408.01002", "2408.01003")

	result, err := p.GenerateReport(context.Background(), "", true)
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if !strings.Contains(result.Subject, "2 new papers") {
		t.Errorf("Subject = %q, want the latest run's 2 papers", result.Subject)
	}
}

func TestGenerateReportEmptyStore(t *testing.T) {
	p := testPipeline(t)

	_, err := p.GenerateReport(context.Background(), "", false)
	var noData *report.NoDataError
	if !errors.As(err, &noData) {
		t.Fatalf("err = %v, want *report.NoDataError", err)
	}
}

// --- queries ---

func TestLatestReportEmpty(t *testing.T) {
	p := testPipeline(t)

	latest, err := p.LatestReport(context.Background())
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if latest != nil {
		t.Errorf("latest = %+v, want nil", latest)
	}
}

func TestTopicAggregations(t *testing.T) {
	p := testPipeline(t)
	seedClassifiedRun(t, p, "run-1", "2408.01001", "2408.01002")

	aggs, err := p.TopicAggregations(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("TopicAggregations: %v", err)
	}
	if len(aggs) != 1 {
		t.Fatalf("len(aggs) = %d, want 1", len(aggs))
	}
	if aggs[0].PrimaryCategory != types.CategoryAgents || aggs[0].Count != 2 {
		t.Errorf("aggs[0] = %+v, want 2 agent papers", aggs[0])
	}

	empty, err := p.TopicAggregations(context.Background(), "run-404")
	if err != nil {
		t.Fatalf("TopicAggregations(empty): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("len(empty) = %d, want 0", len(empty))
	}
}

func TestTopicAggregationsDefaultsToLatestRun(t *testing.T) {
	p := testPipeline(t)
	seedClassifiedRun(t, p, "run-1", "2408.01001")
	seedClassifiedRun(t, p, "run-2", "2408.01002", "2408.01003")

	aggs, err := p.TopicAggregations(context.Background(), "")
	if err != nil {
		t.Fatalf("TopicAggregations: %v", err)
	}
	if len(aggs) != 1 || aggs[0].Count != 2 {
		t.Fatalf("aggs = %+v, want the two papers of run-2", aggs)
	}
}

func TestTopicAggregationsEmptyStore(t *testing.T) {
	p := testPipeline(t)

	aggs, err := p.TopicAggregations(context.Background(), "")
	if err != nil {
		t.Fatalf("TopicAggregations: %v", err)
	}
	if len(aggs) != 0 {
		t.Errorf("len(aggs) = %d, want 0", len(aggs))
	}
}
