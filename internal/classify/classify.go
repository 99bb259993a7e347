// Package classify assigns research topic categories to papers via a
// Generative AI API.
//
// Failures split into two tiers. Transport and configuration problems (a
// missing API key, a non-2xx API status, an empty response) are returned as
// errors and abort the batch. Content problems (a response that is not the
// requested JSON, or that fails schema validation) never surface as errors:
// the paper silently receives the fallback classification instead, keeping
// one bad model reply from sinking an otherwise good run.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// ErrNoAPIKey indicates the classifier was constructed without a credential.
var ErrNoAPIKey = errors.New("classifier API key not configured")

// ErrEmptyResponse indicates the model API answered 2xx but carried no
// candidate text to parse.
var ErrEmptyResponse = errors.New("model API returned no candidates")

// APIError reports a non-2xx status from the model API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model API returned %d: %s", e.StatusCode, e.Body)
}

// Backend abstracts the Generative AI API so tests can supply a mock. A
// backend is responsible only for transport: it submits a prompt and
// returns the model's raw text reply.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Result is one paper's topic assignment.
type Result struct {
	PrimaryCategory     types.Category
	SecondaryCategories []types.Category
	ImpactScore         int
}

// Fallback returns the classification assigned when a model reply cannot
// be used: the catch-all category, no secondary topics, minimum impact.
func Fallback() Result {
	return Result{PrimaryCategory: types.CategoryOther, ImpactScore: 1}
}

// ClassifyPaper classifies a single paper. Transport errors propagate;
// unusable reply content degrades to Fallback with a nil error.
func ClassifyPaper(ctx context.Context, backend Backend, paper types.RawPaper, maxRetries int) (Result, error) {
	prompt, err := renderPrompt(paper)
	if err != nil {
		return Result{}, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := callWithRetry(ctx, backend, prompt, maxRetries)
	if err != nil {
		return Result{}, err
	}

	return parseResult(raw), nil
}

// ClassifyAll classifies papers sequentially, writing a progress line per
// paper to w. The returned slice is index-aligned with papers. The first
// transport error aborts the batch.
func ClassifyAll(ctx context.Context, backend Backend, papers []types.RawPaper, cfg types.AIConfig, w io.Writer) ([]Result, error) {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	results := make([]Result, 0, len(papers))
	for _, paper := range papers {
		r, err := ClassifyPaper(ctx, backend, paper, maxRetries)
		if err != nil {
			return nil, fmt.Errorf("classifying %s: %w", paper.ArxivID, err)
		}
		fmt.Fprintf(w, "classified %s -> %s (impact %d)\n", paper.ArxivID, r.PrimaryCategory, r.ImpactScore)
		results = append(results, r)
	}
	return results, nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the backend with exponential backoff, propagating
// the last error once retries are exhausted.
func callWithRetry(ctx context.Context, backend Backend, prompt string, maxRetries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := backend.Complete(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// classifierReply is the JSON shape the prompt instructs the model to return.
type classifierReply struct {
	PrimaryCategory     string   `json:"primary_category"`
	SecondaryCategories []string `json:"secondary_categories"`
	ImpactScore         int      `json:"impact_score"`
}

// parseResult turns the model's raw text into a Result. Any defect in the
// reply (stray prose, invalid JSON, unknown categories, more than two
// secondary topics, an out-of-range impact score) yields Fallback.
func parseResult(raw string) Result {
	cleaned := stripFences(raw)

	var reply classifierReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return Fallback()
	}

	primary := types.Category(reply.PrimaryCategory)
	if !types.ValidCategory(primary) {
		return Fallback()
	}
	if reply.ImpactScore < 1 || reply.ImpactScore > 5 {
		return Fallback()
	}
	if len(reply.SecondaryCategories) > 2 {
		return Fallback()
	}

	var secondary []types.Category
	for _, s := range reply.SecondaryCategories {
		c := types.Category(s)
		if !types.ValidCategory(c) {
			return Fallback()
		}
		secondary = append(secondary, c)
	}

	return Result{
		PrimaryCategory:     primary,
		SecondaryCategories: secondary,
		ImpactScore:         reply.ImpactScore,
	}
}

// stripFences removes a Markdown code fence that models often wrap JSON
// replies in, with or without a "json" language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
