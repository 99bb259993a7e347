// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a run's topic aggregation into an email-ready
// trend report: a subject line, a markdown body, and a sanitized HTML
// body.
package report

import (
	"fmt"
	"time"

	"github.com/pdiddy/arxiv-trends/internal/digest"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// NoDataError reports an attempt to render a report for a run with no
// classified papers.
type NoDataError struct {
	RunID string
}

func (e *NoDataError) Error() string {
	if e.RunID == "" {
		return "no classified papers to report"
	}
	return fmt.Sprintf("run %s has no classified papers to report", e.RunID)
}

// Render builds the complete report for a run's aggregation. The returned
// report carries the subject, markdown, and sanitized HTML; storage fields
// (ID, CreatedAt) and the emailed flag are left for later stages. An empty
// aggregation yields a *NoDataError and no report.
func Render(runID string, date time.Time, aggs []types.TopicAggregation) (*types.Report, error) {
	total := digest.TotalPapers(aggs)
	if total == 0 {
		return nil, &NoDataError{RunID: runID}
	}

	md := buildMarkdown(date, aggs)
	return &types.Report{
		RunID:        runID,
		Subject:      buildSubject(date, total, aggs[0].PrimaryCategory),
		BodyMarkdown: md,
		BodyHTML:     ToHTML(md),
	}, nil
}
