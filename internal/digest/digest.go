// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package digest aggregates a run's classified papers into per-topic
// statistics for the report renderer.
package digest

import (
	"sort"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// maxRepresentatives caps how many papers represent one topic in a report.
const maxRepresentatives = 3

// Aggregate groups classified papers by primary category and ranks them.
// Within a topic, representatives are the top papers by impact score
// descending, ties broken by publication date descending. Topics are
// ordered by count descending; count ties keep first-seen input order, so
// a fixed input always produces the same output. An empty input yields an
// empty aggregation, not an error.
func Aggregate(papers []types.ClassifiedPaper) []types.TopicAggregation {
	groups := make(map[types.Category][]types.ClassifiedPaper)
	var order []types.Category

	for _, cp := range papers {
		topic := cp.Classification.PrimaryCategory
		if _, seen := groups[topic]; !seen {
			order = append(order, topic)
		}
		groups[topic] = append(groups[topic], cp)
	}

	aggs := make([]types.TopicAggregation, 0, len(order))
	for _, topic := range order {
		group := groups[topic]
		sort.SliceStable(group, func(i, j int) bool {
			a, b := group[i], group[j]
			if a.Classification.ImpactScore != b.Classification.ImpactScore {
				return a.Classification.ImpactScore > b.Classification.ImpactScore
			}
			return a.Paper.Published.After(b.Paper.Published)
		})

		reps := group
		if len(reps) > maxRepresentatives {
			reps = reps[:maxRepresentatives]
		}

		aggs = append(aggs, types.TopicAggregation{
			PrimaryCategory: topic,
			Count:           len(group),
			Representatives: reps,
		})
	}

	sort.SliceStable(aggs, func(i, j int) bool {
		return aggs[i].Count > aggs[j].Count
	})
	return aggs
}

// TotalPapers sums the per-topic counts.
func TotalPapers(aggs []types.TopicAggregation) int {
	total := 0
	for _, a := range aggs {
		total += a.Count
	}
	return total
}

// HighImpactRepresentatives counts representative papers whose impact
// score is at least threshold.
func HighImpactRepresentatives(aggs []types.TopicAggregation, threshold int) int {
	n := 0
	for _, a := range aggs {
		for _, cp := range a.Representatives {
			if cp.Classification.ImpactScore >= threshold {
				n++
			}
		}
	}
	return n
}
