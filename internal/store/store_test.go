package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	cfg := types.StorageConfig{DBPath: filepath.Join(t.TempDir(), "test.db")}
	s, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePapers() []types.RawPaper {
	return []types.RawPaper{
		{
			ArxivID:    "2408.01001",
			Title:      "Scaling Laws for Sparse Models",
			Summary:    "We study scaling behavior.",
			Authors:    []string{"Ada Lovelace", "Alan Turing"},
			Published:  time.Date(2026, 8, 18, 12, 0, 0, 0, time.UTC),
			Categories: []string{"cs.LG", "stat.ML"},
		},
		{
			ArxivID:   "2408.01002",
			Title:     "Retrieval for Long Contexts",
			Summary:   "A retrieval method.",
			Authors:   []string{"Grace Hopper"},
			Published: time.Date(2026, 8, 17, 9, 30, 0, 0, time.UTC),
		},
	}
}

func mustSavePapers(t *testing.T, s *Store, runID string, papers []types.RawPaper) int {
	t.Helper()
	created, err := s.SavePapers(context.Background(), runID, papers)
	if err != nil {
		t.Fatalf("SavePapers: %v", err)
	}
	return created
}

// --- store lifecycle ---

func TestNewStoreCreatesDBFile(t *testing.T) {
	dir := t.TempDir()
	cfg := types.StorageConfig{DBPath: filepath.Join(dir, "nested", "trends.db")}
	s, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(cfg.DBPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

// --- papers ---

func TestSavePapersAndExistingIDs(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	created := mustSavePapers(t, s, "run-1", samplePapers())
	if created != 2 {
		t.Errorf("created = %d, want 2", created)
	}

	existing, err := s.ExistingIDs(ctx, []string{"2408.01001", "2408.01002", "2408.09999"})
	if err != nil {
		t.Fatalf("ExistingIDs: %v", err)
	}
	if !existing["2408.01001"] || !existing["2408.01002"] {
		t.Errorf("existing = %v, missing stored IDs", existing)
	}
	if existing["2408.09999"] {
		t.Error("unknown ID reported as existing")
	}
}

func TestSavePapersIdempotent(t *testing.T) {
	s := testStore(t)

	if created := mustSavePapers(t, s, "run-1", samplePapers()); created != 2 {
		t.Fatalf("first save created = %d, want 2", created)
	}
	if created := mustSavePapers(t, s, "run-2", samplePapers()); created != 0 {
		t.Errorf("second save created = %d, want 0", created)
	}

	p, err := s.GetPaper(context.Background(), "2408.01001")
	if err != nil {
		t.Fatalf("GetPaper: %v", err)
	}
	if p.RunID != "run-1" {
		t.Errorf("RunID = %q, want the run that first stored the paper", p.RunID)
	}
}

func TestSavePapersKeepsFirstRow(t *testing.T) {
	s := testStore(t)

	mustSavePapers(t, s, "run-1", samplePapers())

	revised := samplePapers()
	revised[0].Title = "Revised Title That Must Not Stick"
	mustSavePapers(t, s, "run-2", revised)

	p, err := s.GetPaper(context.Background(), "2408.01001")
	if err != nil {
		t.Fatalf("GetPaper: %v", err)
	}
	if p.Title != "Scaling Laws for Sparse Models" {
		t.Errorf("Title = %q, stored row was overwritten", p.Title)
	}
}

func TestGetPaperRoundTrip(t *testing.T) {
	s := testStore(t)
	mustSavePapers(t, s, "run-1", samplePapers())

	p, err := s.GetPaper(context.Background(), "2408.01001")
	if err != nil {
		t.Fatalf("GetPaper: %v", err)
	}
	if p == nil {
		t.Fatal("GetPaper returned nil for stored paper")
	}
	if p.Title != "Scaling Laws for Sparse Models" || p.Summary != "We study scaling behavior." {
		t.Errorf("text fields = %q / %q", p.Title, p.Summary)
	}
	if len(p.Authors) != 2 || p.Authors[1] != "Alan Turing" {
		t.Errorf("Authors = %v", p.Authors)
	}
	if len(p.Categories) != 2 || p.Categories[0] != "cs.LG" {
		t.Errorf("Categories = %v", p.Categories)
	}
	if !p.Published.Equal(time.Date(2026, 8, 18, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Published = %v", p.Published)
	}
	if p.RunID != "run-1" {
		t.Errorf("RunID = %q", p.RunID)
	}
	if p.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
}

func TestGetPaperMissing(t *testing.T) {
	s := testStore(t)
	p, err := s.GetPaper(context.Background(), "0000.00000")
	if err != nil {
		t.Fatalf("GetPaper: %v", err)
	}
	if p != nil {
		t.Errorf("GetPaper = %+v, want nil", p)
	}
}

// --- classifications ---

func TestCreateClassificationsAndQuery(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	mustSavePapers(t, s, "run-1", samplePapers())

	cls := []types.Classification{
		{
			PaperID:         "2408.01002",
			RunID:           "run-1",
			PrimaryCategory: types.CategoryRAG,
			ImpactScore:     3,
		},
		{
			PaperID:             "2408.01001",
			RunID:               "run-1",
			PrimaryCategory:     types.CategoryEfficiency,
			SecondaryCategories: []types.Category{types.CategoryTheory},
			ImpactScore:         5,
		},
	}
	if err := s.CreateClassifications(ctx, cls); err != nil {
		t.Fatalf("CreateClassifications: %v", err)
	}

	got, err := s.ClassificationsByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ClassificationsByRun: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}

	// Highest impact first.
	if got[0].Classification.ImpactScore != 5 || got[0].Paper.ArxivID != "2408.01001" {
		t.Errorf("got[0] = %s (impact %d), want the impact-5 paper first",
			got[0].Paper.ArxivID, got[0].Classification.ImpactScore)
	}
	if got[0].Classification.PrimaryCategory != types.CategoryEfficiency {
		t.Errorf("PrimaryCategory = %q", got[0].Classification.PrimaryCategory)
	}
	if len(got[0].Classification.SecondaryCategories) != 1 ||
		got[0].Classification.SecondaryCategories[0] != types.CategoryTheory {
		t.Errorf("SecondaryCategories = %v", got[0].Classification.SecondaryCategories)
	}
	if got[0].Paper.Title == "" {
		t.Error("joined paper fields missing")
	}
}

func TestClassificationsByRunOrdering(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	papers := []types.RawPaper{
		{ArxivID: "2408.02001", Title: "older", Published: time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)},
		{ArxivID: "2408.02002", Title: "newer", Published: time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)},
		{ArxivID: "2408.02003", Title: "high impact", Published: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)},
	}
	mustSavePapers(t, s, "run-1", papers)

	cls := []types.Classification{
		{PaperID: "2408.02001", RunID: "run-1", PrimaryCategory: types.CategoryNLP, ImpactScore: 3},
		{PaperID: "2408.02002", RunID: "run-1", PrimaryCategory: types.CategoryNLP, ImpactScore: 3},
		{PaperID: "2408.02003", RunID: "run-1", PrimaryCategory: types.CategoryNLP, ImpactScore: 4},
	}
	if err := s.CreateClassifications(ctx, cls); err != nil {
		t.Fatalf("CreateClassifications: %v", err)
	}

	got, err := s.ClassificationsByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ClassificationsByRun: %v", err)
	}

	wantOrder := []string{"2408.02003", "2408.02002", "2408.02001"}
	for i, want := range wantOrder {
		if got[i].Paper.ArxivID != want {
			t.Errorf("got[%d] = %s, want %s (impact desc, published desc)", i, got[i].Paper.ArxivID, want)
		}
	}
}

func TestClassificationsByRunScopedToRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	mustSavePapers(t, s, "run-1", samplePapers())

	cls := []types.Classification{
		{PaperID: "2408.01001", RunID: "run-1", PrimaryCategory: types.CategoryOther, ImpactScore: 1},
	}
	if err := s.CreateClassifications(ctx, cls); err != nil {
		t.Fatalf("CreateClassifications: %v", err)
	}

	got, err := s.ClassificationsByRun(ctx, "run-2")
	if err != nil {
		t.Fatalf("ClassificationsByRun: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len(got) = %d for unrelated run, want 0", len(got))
	}
}

func TestCreateClassificationsForeignKeyAtomicity(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	mustSavePapers(t, s, "run-1", samplePapers())

	cls := []types.Classification{
		{PaperID: "2408.01001", RunID: "run-1", PrimaryCategory: types.CategoryAgents, ImpactScore: 4},
		{PaperID: "9999.99999", RunID: "run-1", PrimaryCategory: types.CategoryAgents, ImpactScore: 2},
	}
	if err := s.CreateClassifications(ctx, cls); err == nil {
		t.Fatal("CreateClassifications succeeded despite dangling paper reference")
	}

	got, err := s.ClassificationsByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ClassificationsByRun: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len(got) = %d after failed batch, want 0 (batch must be atomic)", len(got))
	}
}

func TestLatestRunID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	got, err := s.LatestRunID(ctx)
	if err != nil {
		t.Fatalf("LatestRunID: %v", err)
	}
	if got != "" {
		t.Errorf("LatestRunID on empty store = %q, want empty", got)
	}

	mustSavePapers(t, s, "run-1", samplePapers())
	for _, runID := range []string{"run-1", "run-2"} {
		cls := []types.Classification{
			{PaperID: "2408.01001", RunID: runID, PrimaryCategory: types.CategoryOther, ImpactScore: 1},
		}
		if err := s.CreateClassifications(ctx, cls); err != nil {
			t.Fatalf("CreateClassifications(%s): %v", runID, err)
		}
	}

	got, err = s.LatestRunID(ctx)
	if err != nil {
		t.Fatalf("LatestRunID: %v", err)
	}
	if got != "run-2" {
		t.Errorf("LatestRunID = %q, want run-2", got)
	}
}

// --- reports ---

func TestCreateReportAndLatest(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := &types.Report{RunID: "run-1", Subject: "first", BodyMarkdown: "# a", BodyHTML: "<h1>a</h1>"}
	if _, err := s.CreateReport(ctx, first); err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	second := &types.Report{RunID: "run-2", Subject: "second", BodyMarkdown: "# b", BodyHTML: "<h1>b</h1>", Emailed: true}
	id, err := s.CreateReport(ctx, second)
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if id <= 0 {
		t.Errorf("report ID = %d", id)
	}

	latest, err := s.LatestReport(ctx)
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if latest == nil {
		t.Fatal("LatestReport returned nil")
	}
	if latest.Subject != "second" {
		t.Errorf("Subject = %q, want the most recent report", latest.Subject)
	}
	if latest.BodyHTML != "<h1>b</h1>" {
		t.Errorf("BodyHTML = %q", latest.BodyHTML)
	}
	if latest.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
}

func TestLatestReportEmpty(t *testing.T) {
	s := testStore(t)
	latest, err := s.LatestReport(context.Background())
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if latest != nil {
		t.Errorf("LatestReport = %+v, want nil", latest)
	}
}

// --- stats ---

func TestGetStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	mustSavePapers(t, s, "run-1", samplePapers())

	cls := []types.Classification{
		{PaperID: "2408.01001", RunID: "run-1", PrimaryCategory: types.CategoryVision, ImpactScore: 2},
	}
	if err := s.CreateClassifications(ctx, cls); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateReport(ctx, &types.Report{RunID: "run-1", Subject: "s", BodyMarkdown: "m", BodyHTML: "h"}); err != nil {
		t.Fatal(err)
	}

	st, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if st.Papers != 2 || st.Classifications != 1 || st.Reports != 1 || st.Runs != 1 {
		t.Errorf("stats = %+v", st)
	}
}
