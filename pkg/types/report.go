// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Report is a rendered trend report persisted for one run. A run may have
// several reports (for example a preview followed by a delivered one); the
// most recent CreatedAt wins for latest-report queries.
type Report struct {
	// ID is the storage-assigned surrogate key.
	ID int64 `json:"id" yaml:"id"`

	// RunID identifies the ingestion run the report describes.
	RunID string `json:"run_id" yaml:"run_id"`

	// Subject is the email subject line.
	Subject string `json:"subject" yaml:"subject"`

	// BodyMarkdown is the canonical report source.
	BodyMarkdown string `json:"body_markdown" yaml:"body_markdown"`

	// BodyHTML is the sanitized HTML rendering of BodyMarkdown. It is safe
	// to serve and email without further processing.
	BodyHTML string `json:"body_html" yaml:"body_html"`

	// Emailed records whether delivery succeeded. False for previews and
	// for reports whose delivery attempt failed.
	Emailed bool `json:"emailed" yaml:"emailed"`

	// CreatedAt is when the row was written.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// TopicAggregation summarizes one primary category within a run: how many
// papers landed in it and which papers best represent it.
type TopicAggregation struct {
	// PrimaryCategory is the topic being summarized.
	PrimaryCategory Category `json:"primary_category" yaml:"primary_category"`

	// Count is the number of papers whose primary category matched.
	Count int `json:"count" yaml:"count"`

	// Representatives holds at most three papers, ordered by impact score
	// descending then published date descending.
	Representatives []ClassifiedPaper `json:"representative_papers" yaml:"representative_papers"`
}

// IngestResult is the outcome of one ingestion run.
type IngestResult struct {
	// RunID is the identifier minted for this run.
	RunID string `json:"run_id" yaml:"run_id"`

	// TotalNew is the number of papers stored for the first time.
	TotalNew int `json:"total_new" yaml:"total_new"`

	// TopicCounts maps each primary category that appeared to its count.
	TopicCounts map[Category]int `json:"topic_counts" yaml:"topic_counts"`
}

// ReportResult is the outcome of rendering (and possibly delivering) a
// report for a run.
type ReportResult struct {
	// RunID is the run that was reported on. When the request left the run
	// unspecified this is the run that was actually picked.
	RunID string `json:"run_id" yaml:"run_id"`

	Subject      string `json:"subject" yaml:"subject"`
	BodyMarkdown string `json:"body_markdown" yaml:"body_markdown"`
	BodyHTML     string `json:"body_html" yaml:"body_html"`

	// Emailed is true only when an email was actually handed to the SMTP
	// server. Preview runs and failed deliveries report false.
	Emailed bool `json:"emailed" yaml:"emailed"`
}

// ReportSummary is the trimmed view of a stored report returned by
// latest-report queries: enough to display, nothing more.
type ReportSummary struct {
	Subject   string    `json:"subject" yaml:"subject"`
	BodyHTML  string    `json:"body_html" yaml:"body_html"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
