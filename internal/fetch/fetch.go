// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves recent paper metadata from the arXiv Atom API.
//
// A fetch issues a single query combining the configured topic filters
// (OR-ed together) with a trailing submission-date window, then normalizes
// the returned entries: arXiv IDs are canonicalized by stripping version
// suffixes, titles and summaries have internal whitespace collapsed, and
// duplicate IDs within a batch keep only the first entry seen.
package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-trends/internal/httputil"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// timeNow returns the current time; tests substitute a fixed clock to pin
// the submission window.
var timeNow = time.Now

// submittedDateLayout is the timestamp format arXiv expects inside a
// submittedDate range filter.
const submittedDateLayout = "200601021504"

// StatusError reports a non-success HTTP status from the arXiv API.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("arXiv API returned HTTP %d", e.StatusCode)
}

// Client fetches paper metadata from arXiv.
type Client struct {
	HTTP *http.Client
}

// NewClient returns a Client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{HTTP: &http.Client{Timeout: timeout}}
}

// Fetch queries arXiv for papers submitted within the configured trailing
// window and matching any of the configured topic filters. Entries that
// cannot be normalized (no extractable ID, unparseable publication date)
// are skipped; the rest of the batch is unaffected. A non-2xx response
// yields a *StatusError.
func (c *Client) Fetch(ctx context.Context, cfg types.FetchConfig) ([]types.RawPaper, error) {
	topics, err := resolveTopics(cfg)
	if err != nil {
		return nil, err
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}
	windowDays := cfg.WindowDays
	if windowDays <= 0 {
		windowDays = 7
	}

	now := timeNow().UTC()
	query := buildQuery(topics, now.AddDate(0, 0, -windowDays), now)

	url := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=submittedDate&sortOrder=descending",
		arxivAPIBase, query, maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	return normalizeEntries(feed.Entries), nil
}

// normalizeEntries converts feed entries to RawPapers, skipping entries
// that lack an extractable ID or a parseable publication date. When two
// entries collapse to the same canonical ID (typically revisions of one
// submission) the first entry wins and later ones are dropped.
func normalizeEntries(entries []arxivEntry) []types.RawPaper {
	var papers []types.RawPaper
	seen := make(map[string]bool)

	for _, entry := range entries {
		id := extractArxivID(entry.ID)
		if id == "" {
			continue
		}
		if seen[id] {
			continue
		}

		published, err := time.Parse(time.RFC3339, entry.Published)
		if err != nil {
			continue
		}

		p := types.RawPaper{
			ArxivID:   id,
			Title:     collapseWhitespace(entry.Title),
			Summary:   collapseWhitespace(entry.Summary),
			Published: published,
		}
		for _, a := range entry.Authors {
			p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
		}
		for _, cat := range entry.Categories {
			if cat.Term != "" {
				p.Categories = append(p.Categories, cat.Term)
			}
		}

		seen[id] = true
		papers = append(papers, p)
	}
	return papers
}

// buildQuery constructs the search_query parameter: the topic filters
// OR-ed inside parentheses, AND-ed with the submission window.
func buildQuery(topics []string, from, to time.Time) string {
	return fmt.Sprintf("(%s)+AND+submittedDate:[%s+TO+%s]",
		strings.Join(topics, "+OR+"),
		from.Format(submittedDateLayout),
		to.Format(submittedDateLayout))
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// extractArxivID pulls the canonical arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v2" -> "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

// collapseWhitespace trims s and folds internal runs of whitespace
// (including the newlines arXiv wraps long titles with) into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
