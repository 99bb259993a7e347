// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists papers, classifications, and reports in SQLite.
//
// Writes follow two rules. Paper rows are immutable and idempotent: the
// first insert for an arXiv ID wins and later saves of the same ID are
// no-ops that leave the stored row untouched. Bulk writes are atomic: a
// batch of papers or classifications lands entirely or not at all, and a
// classification referencing an unknown paper fails its whole batch.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

const defaultDBFile = "arxiv-trends.db"

// Store manages the pipeline's SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the SQLite database at cfg.DBPath, creating
// parent directories and the schema as needed. Foreign key enforcement is
// switched on for every connection.
func NewStore(cfg types.StorageConfig) (*Store, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = defaultDBFile
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			arxiv_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			summary TEXT,
			authors TEXT,
			published TEXT NOT NULL,
			categories TEXT,
			run_id TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS classifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id TEXT NOT NULL REFERENCES papers(arxiv_id),
			run_id TEXT NOT NULL,
			primary_category TEXT NOT NULL,
			secondary_categories TEXT,
			impact_score INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_classifications_run_id ON classifications(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_classifications_paper_id ON classifications(paper_id)`,
		`CREATE TABLE IF NOT EXISTS reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			subject TEXT NOT NULL,
			body_markdown TEXT NOT NULL,
			body_html TEXT NOT NULL,
			emailed INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_run_id ON reports(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SavePapers stores papers under runID in one transaction. IDs already
// present are left untouched; the returned count is the number of rows
// actually created. Any failure rolls back the whole batch.
func (s *Store) SavePapers(ctx context.Context, runID string, papers []types.RawPaper) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (arxiv_id, title, summary, authors, published, categories, run_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(arxiv_id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	created := 0
	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range papers {
		authorsJSON, _ := json.Marshal(p.Authors)
		categoriesJSON, _ := json.Marshal(p.Categories)
		res, err := stmt.ExecContext(ctx,
			p.ArxivID, p.Title, p.Summary, string(authorsJSON),
			p.Published.UTC().Format(time.RFC3339), string(categoriesJSON),
			runID, now,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting paper %s: %w", p.ArxivID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			created += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing papers: %w", err)
	}
	return created, nil
}

// ExistingIDs reports which of the given arXiv IDs already have a paper
// row. Unknown IDs are simply absent from the result map.
func (s *Store) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(ids) == 0 {
		return existing, nil
	}

	placeholders := make([]byte, 0, 2*len(ids))
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT arxiv_id FROM papers WHERE arxiv_id IN (`+string(placeholders)+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying existing IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning ID: %w", err)
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

// GetPaper fetches one paper by canonical arXiv ID. Returns nil when the
// paper does not exist.
func (s *Store) GetPaper(ctx context.Context, arxivID string) (*types.RawPaper, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT arxiv_id, title, summary, authors, published, categories, run_id, created_at
		 FROM papers WHERE arxiv_id = ?`, arxivID)

	p, err := scanPaper(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying paper %s: %w", arxivID, err)
	}
	return p, nil
}

// CreateClassifications stores a batch of classifications in one
// transaction. A row referencing a paper that does not exist violates the
// foreign key and rolls back the entire batch.
func (s *Store) CreateClassifications(ctx context.Context, cls []types.Classification) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO classifications (paper_id, run_id, primary_category, secondary_categories, impact_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, c := range cls {
		secondaryJSON, _ := json.Marshal(c.SecondaryCategories)
		_, err := stmt.ExecContext(ctx,
			c.PaperID, c.RunID, string(c.PrimaryCategory),
			string(secondaryJSON), c.ImpactScore, now,
		)
		if err != nil {
			return fmt.Errorf("inserting classification for %s: %w", c.PaperID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing classifications: %w", err)
	}
	return nil
}

// ClassificationsByRun returns a run's classifications joined with their
// papers, ordered by impact score descending, publication date descending,
// then insertion order. The ordering is what makes downstream aggregation
// deterministic.
func (s *Store) ClassificationsByRun(ctx context.Context, runID string) ([]types.ClassifiedPaper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.arxiv_id, p.title, p.summary, p.authors, p.published, p.categories, p.run_id, p.created_at,
		        c.id, c.paper_id, c.run_id, c.primary_category, c.secondary_categories, c.impact_score, c.created_at
		 FROM classifications c
		 JOIN papers p ON p.arxiv_id = c.paper_id
		 WHERE c.run_id = ?
		 ORDER BY c.impact_score DESC, p.published DESC, c.id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying classifications for run %s: %w", runID, err)
	}
	defer rows.Close()

	var result []types.ClassifiedPaper
	for rows.Next() {
		var paperCols [8]string
		var clsID int64
		var clsPaperID, clsRunID, primary, secondaryJSON, clsCreated string
		var impact int
		err := rows.Scan(
			&paperCols[0], &paperCols[1], &paperCols[2], &paperCols[3],
			&paperCols[4], &paperCols[5], &paperCols[6], &paperCols[7],
			&clsID, &clsPaperID, &clsRunID, &primary, &secondaryJSON, &impact, &clsCreated,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning classification row: %w", err)
		}

		paper, err := paperFromColumns(paperCols)
		if err != nil {
			return nil, err
		}

		var secondary []types.Category
		if secondaryJSON != "" {
			json.Unmarshal([]byte(secondaryJSON), &secondary)
		}

		cp := types.ClassifiedPaper{
			Paper: *paper,
			Classification: types.Classification{
				ID:                  clsID,
				PaperID:             clsPaperID,
				RunID:               clsRunID,
				PrimaryCategory:     types.Category(primary),
				SecondaryCategories: secondary,
				ImpactScore:         impact,
				CreatedAt:           parseStoredTime(clsCreated),
			},
		}
		result = append(result, cp)
	}
	return result, rows.Err()
}

// CreateReport stores a rendered report and returns its row ID.
func (s *Store) CreateReport(ctx context.Context, r *types.Report) (int64, error) {
	emailed := 0
	if r.Emailed {
		emailed = 1
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (run_id, subject, body_markdown, body_html, emailed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Subject, r.BodyMarkdown, r.BodyHTML, emailed,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading report ID: %w", err)
	}
	return id, nil
}

// LatestReport returns the most recently created report in display form,
// or nil when no report has ever been stored.
func (s *Store) LatestReport(ctx context.Context) (*types.ReportSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT subject, body_html, created_at FROM reports
		 ORDER BY created_at DESC, id DESC LIMIT 1`)

	var summary types.ReportSummary
	var created string
	err := row.Scan(&summary.Subject, &summary.BodyHTML, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest report: %w", err)
	}
	summary.CreatedAt = parseStoredTime(created)
	return &summary, nil
}

// LatestRunID returns the run ID of the most recently written
// classification, or "" when no run has been classified yet.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var runID string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id FROM classifications ORDER BY id DESC LIMIT 1`).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying latest run: %w", err)
	}
	return runID, nil
}

// Stats summarizes table sizes for operator commands.
type Stats struct {
	Papers          int
	Classifications int
	Reports         int
	Runs            int
}

// GetStats counts stored rows and distinct ingestion runs.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var st Stats
	queries := []struct {
		sql  string
		dest *int
	}{
		{`SELECT count(*) FROM papers`, &st.Papers},
		{`SELECT count(*) FROM classifications`, &st.Classifications},
		{`SELECT count(*) FROM reports`, &st.Reports},
		{`SELECT count(DISTINCT run_id) FROM papers`, &st.Runs},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.sql).Scan(q.dest); err != nil {
			return Stats{}, fmt.Errorf("counting rows: %w", err)
		}
	}
	return st, nil
}

// scanPaper reads one papers row through the given scan function.
func scanPaper(scan func(...any) error) (*types.RawPaper, error) {
	var cols [8]string
	if err := scan(&cols[0], &cols[1], &cols[2], &cols[3], &cols[4], &cols[5], &cols[6], &cols[7]); err != nil {
		return nil, err
	}
	return paperFromColumns(cols)
}

// paperFromColumns decodes the papers table's column layout:
// arxiv_id, title, summary, authors, published, categories, run_id, created_at.
func paperFromColumns(cols [8]string) (*types.RawPaper, error) {
	p := &types.RawPaper{
		ArxivID:   cols[0],
		Title:     cols[1],
		Summary:   cols[2],
		RunID:     cols[6],
		CreatedAt: parseStoredTime(cols[7]),
	}

	published, err := time.Parse(time.RFC3339Nano, cols[4])
	if err != nil {
		return nil, fmt.Errorf("parsing published time for %s: %w", cols[0], err)
	}
	p.Published = published

	if cols[3] != "" {
		json.Unmarshal([]byte(cols[3]), &p.Authors)
	}
	if cols[5] != "" {
		json.Unmarshal([]byte(cols[5]), &p.Categories)
	}
	return p, nil
}

// parseStoredTime decodes a stored timestamp, returning the zero time for
// anything unparseable rather than failing a whole row read.
func parseStoredTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
