// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures for the arxiv-trends
// pipeline: raw papers, topic classifications, runs, reports, and the
// per-stage configuration blocks.
package types

import "time"

// Category is a research topic label assigned by the classifier. The set of
// valid categories is closed: classifier output and aggregation grouping use
// exactly the labels returned by Categories, and anything else is rejected
// during validation.
type Category string

const (
	CategoryFoundationModels Category = "Foundation Models"
	CategoryRAG              Category = "Retrieval-Augmented Generation (RAG)"
	CategoryAgents           Category = "AI Agents"
	CategoryMultimodal       Category = "Multimodal Learning"
	CategoryReinforcement    Category = "Reinforcement Learning"
	CategoryEfficiency       Category = "Model Efficiency & Compression"
	CategorySafety           Category = "AI Safety & Alignment"
	CategoryNLP              Category = "Natural Language Processing"
	CategoryVision           Category = "Computer Vision"
	CategorySpeech           Category = "Speech & Audio"
	CategoryRobotics         Category = "Robotics & Embodied AI"
	CategoryScience          Category = "AI for Science"
	CategoryTheory           Category = "Machine Learning Theory"

	// CategoryOther is the catch-all bucket and the primary category of the
	// fallback classification used when a model response cannot be parsed.
	CategoryOther Category = "Other"
)

// Categories returns all valid category labels in presentation order.
// The returned slice is a copy; callers may modify it.
func Categories() []Category {
	return []Category{
		CategoryFoundationModels,
		CategoryRAG,
		CategoryAgents,
		CategoryMultimodal,
		CategoryReinforcement,
		CategoryEfficiency,
		CategorySafety,
		CategoryNLP,
		CategoryVision,
		CategorySpeech,
		CategoryRobotics,
		CategoryScience,
		CategoryTheory,
		CategoryOther,
	}
}

// ValidCategory reports whether c is one of the closed category labels.
func ValidCategory(c Category) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// RawPaper holds the arXiv metadata for a single paper as fetched from the
// Atom feed. A paper row is created exactly once, keyed by its canonical
// version-stripped arXiv ID; later sightings of the same ID are no-ops.
type RawPaper struct {
	// ArxivID is the canonical identifier with any version suffix removed
	// (e.g. "2301.07041", never "2301.07041v2").
	ArxivID string `json:"arxiv_id" yaml:"arxiv_id"`

	// Title is the paper title with internal whitespace collapsed.
	Title string `json:"title" yaml:"title"`

	// Summary is the abstract with internal whitespace collapsed.
	Summary string `json:"summary" yaml:"summary"`

	// Authors lists the paper authors in feed order.
	Authors []string `json:"authors" yaml:"authors"`

	// Published is the paper's publication timestamp from the feed.
	Published time.Time `json:"published" yaml:"published"`

	// Categories holds the arXiv subject tags (e.g. "cs.CL"). These are the
	// source taxonomy, distinct from the classifier's Category labels.
	Categories []string `json:"categories" yaml:"categories"`

	// RunID identifies the ingestion run that first stored this paper.
	RunID string `json:"run_id" yaml:"run_id"`

	// CreatedAt is when the row was written.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Classification is the LLM-assigned topic record for one paper in one run.
// Rows are immutable once written.
type Classification struct {
	// ID is the storage-assigned surrogate key.
	ID int64 `json:"id" yaml:"id"`

	// PaperID references the classified paper's canonical arXiv ID. The
	// paper row must already exist; a dangling reference fails the whole
	// batch write.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// RunID identifies the ingestion run that produced this classification.
	RunID string `json:"run_id" yaml:"run_id"`

	// PrimaryCategory is the single dominant topic.
	PrimaryCategory Category `json:"primary_category" yaml:"primary_category"`

	// SecondaryCategories holds up to two additional topics, possibly empty.
	SecondaryCategories []Category `json:"secondary_categories" yaml:"secondary_categories"`

	// ImpactScore is the model's 1-5 assessment of likely significance.
	ImpactScore int `json:"impact_score" yaml:"impact_score"`

	// CreatedAt is when the row was written.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ClassifiedPaper joins a classification with the paper it describes, in the
// shape the aggregation and rendering stages consume.
type ClassifiedPaper struct {
	Paper          RawPaper       `json:"paper" yaml:"paper"`
	Classification Classification `json:"classification" yaml:"classification"`
}
