package eval

import (
	"time"

	"github.com/ledgergraph-ai/sdk/multihop"
)

// Sample represents a single evaluation case for testing retrieval quality.
// It pairs a question with the retrieval result produced for it, plus the
// expectations to score against.
type Sample struct {
	// ID is a unique identifier for this sample.
	ID string `json:"id" yaml:"id"`

	// Question is the natural-language question given to the retriever.
	Question string `json:"question" yaml:"question"`

	// Result is the retrieval result for the question.
	// This is populated after execution, not loaded from the eval set file.
	Result *multihop.Result `json:"result,omitempty" yaml:"result,omitempty"`

	// ExpectedEntities lists entity names or IDs that the final evidence
	// should contain. Used by CoverageScorer.
	ExpectedEntities []string `json:"expected_entities,omitempty" yaml:"expected_entities,omitempty"`

	// Metadata stores additional sample-specific information such as
	// difficulty level, author, or source document.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Tags are labels for categorization and filtering.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Result contains aggregated evaluation results for a sample.
// It includes individual scorer results and an overall score.
type Result struct {
	// SampleID identifies the evaluated sample.
	SampleID string `json:"sample_id" yaml:"sample_id"`

	// Scores contains individual results from each scorer, keyed by scorer name.
	Scores map[string]ScoreResult `json:"scores" yaml:"scores"`

	// OverallScore is the aggregated score across all scorers (0.0 to 1.0).
	OverallScore float64 `json:"overall_score" yaml:"overall_score"`

	// Duration is the total time taken for evaluation.
	Duration time.Duration `json:"duration" yaml:"duration"`

	// Timestamp is when the evaluation was performed.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Error contains error information if evaluation failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// EvalSet is a collection of evaluation samples with metadata.
// It represents a question suite that can be loaded from a file.
type EvalSet struct {
	// Name identifies this evaluation set.
	Name string `json:"name" yaml:"name"`

	// Version tracks the evaluation set version for reproducibility.
	Version string `json:"version" yaml:"version"`

	// Samples contains the individual evaluation cases.
	Samples []Sample `json:"samples" yaml:"samples"`

	// Metadata stores additional evaluation set information.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}
