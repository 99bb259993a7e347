// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-trends/internal/digest"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

const (
	// trendingTopicLimit caps how many topics get a Trending Research
	// Areas subsection. Topic Distribution always lists every topic.
	trendingTopicLimit = 5

	// summaryPreviewChars bounds representative-paper summaries.
	summaryPreviewChars = 200

	// maxNamedAuthors bounds the author list before "et al." kicks in.
	maxNamedAuthors = 3

	// highImpactThreshold marks the score counted as high impact in the
	// Insights section.
	highImpactThreshold = 4

	subjectDateLayout = "2006-01-02"
	headerDateLayout  = "January 2, 2006"
)

// buildSubject composes the email subject: date, total volume, and the
// leading topic.
func buildSubject(date time.Time, total int, leading types.Category) string {
	return fmt.Sprintf("arXiv Trends %s: %d new papers, led by %s",
		date.Format(subjectDateLayout), total, leading)
}

// buildMarkdown renders the full report body. Sections appear in fixed
// order: header, Topic Distribution, Trending Research Areas, Insights,
// attribution.
func buildMarkdown(date time.Time, aggs []types.TopicAggregation) string {
	total := digest.TotalPapers(aggs)

	var b strings.Builder

	// Header block.
	fmt.Fprintf(&b, "# arXiv Research Trends — %s\n\n", date.Format(headerDateLayout))
	fmt.Fprintf(&b, "**%d** new papers were ingested and classified across **%d** research topics.\n\n",
		total, len(aggs))

	// Topic Distribution: every topic, count and share.
	b.WriteString("## Topic Distribution\n\n")
	for _, agg := range aggs {
		fmt.Fprintf(&b, "- **%s**: %d papers (%s)\n",
			agg.PrimaryCategory, agg.Count, percentage(agg.Count, total))
	}
	b.WriteString("\n")

	// Trending Research Areas: top topics with their representatives.
	b.WriteString("## Trending Research Areas\n\n")
	trending := aggs
	if len(trending) > trendingTopicLimit {
		trending = trending[:trendingTopicLimit]
	}
	for rank, agg := range trending {
		fmt.Fprintf(&b, "### %d. %s (%d papers)\n\n", rank+1, agg.PrimaryCategory, agg.Count)
		for _, cp := range agg.Representatives {
			fmt.Fprintf(&b, "- **%s** — %s (arXiv:%s, impact %d/5)\n",
				cp.Paper.Title,
				formatAuthors(cp.Paper.Authors),
				cp.Paper.ArxivID,
				cp.Classification.ImpactScore)
			if cp.Paper.Summary != "" {
				fmt.Fprintf(&b, "  %s\n", truncateSummary(cp.Paper.Summary, summaryPreviewChars))
			}
		}
		b.WriteString("\n")
	}

	// Insights.
	b.WriteString("## Insights\n\n")
	fmt.Fprintf(&b, "- Most active topic: **%s** with %d papers.\n",
		aggs[0].PrimaryCategory, aggs[0].Count)
	if len(aggs) > 1 {
		fmt.Fprintf(&b, "- Second most active: **%s** with %d papers.\n",
			aggs[1].PrimaryCategory, aggs[1].Count)
	}
	fmt.Fprintf(&b, "- %d representative papers scored impact %d or higher.\n",
		digest.HighImpactRepresentatives(aggs, highImpactThreshold), highImpactThreshold)
	fmt.Fprintf(&b, "- Papers span %d distinct research topics.\n\n", len(aggs))

	// Attribution.
	b.WriteString("---\n\n")
	b.WriteString("Generated by arxiv-trends from arXiv metadata. Thank you to arXiv for use of its open access interoperability.\n")

	return b.String()
}

// percentage formats part/total as a percentage with one decimal place.
func percentage(part, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}

// formatAuthors names the first authors and compresses the rest to
// "et al.".
func formatAuthors(authors []string) string {
	switch {
	case len(authors) == 0:
		return "unknown authors"
	case len(authors) <= maxNamedAuthors:
		return strings.Join(authors, ", ")
	default:
		return strings.Join(authors[:maxNamedAuthors], ", ") + " et al."
	}
}

// truncateSummary truncates text to maxChars, cutting at the last word
// boundary and appending an ellipsis.
func truncateSummary(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}

	truncated := text[:maxChars]
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > 0 {
		truncated = truncated[:lastSpace]
	}
	return truncated + "..."
}
