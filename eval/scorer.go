package eval

import (
	"context"
	"fmt"
)

// Scorer evaluates a sample and returns a scored result.
// All scorers must return scores in the range [0.0, 1.0].
type Scorer interface {
	// Score evaluates the given sample and returns a ScoreResult.
	// The score must be between 0.0 (worst) and 1.0 (best).
	Score(ctx context.Context, sample Sample) (ScoreResult, error)

	// Name returns a unique identifier for this scorer type.
	// This is used for result aggregation and logging.
	Name() string
}

// ScoreResult contains the evaluation score and optional details from a scorer.
type ScoreResult struct {
	// Score must be in the range [0.0, 1.0] where 0.0 is worst and 1.0 is best.
	Score float64 `json:"score" yaml:"score"`

	// Details contains scorer-specific diagnostic information.
	// Common keys include: "matched", "missing", "hops_failed", "reasoning"
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

// ValidateScore ensures the score is within the valid range [0.0, 1.0].
// Returns an error if the score is out of range or NaN.
func ValidateScore(score float64) error {
	if score < 0.0 || score > 1.0 {
		return fmt.Errorf("score %.4f is out of valid range [0.0, 1.0]", score)
	}

	if score != score {
		return fmt.Errorf("score is NaN")
	}

	return nil
}

// AggregateScores combines named ScoreResults into a single weighted score.
// If weights is nil or empty, all scores are weighted equally (average).
// Weight values are normalized to sum to 1.0 over the scorers present in
// results; weights naming absent scorers are ignored.
//
// Example:
//
//	results := map[string]ScoreResult{
//	    "hop_success": {Score: 0.8},
//	    "coverage":    {Score: 0.6},
//	}
//	weights := map[string]float64{
//	    "hop_success": 0.3,
//	    "coverage":    0.7,
//	}
//	score := AggregateScores(results, weights)
func AggregateScores(results map[string]ScoreResult, weights map[string]float64) float64 {
	if len(results) == 0 {
		return 0.0
	}

	// No weights: simple average.
	if len(weights) == 0 {
		var sum float64
		for _, result := range results {
			sum += result.Score
		}
		return sum / float64(len(results))
	}

	// Normalize weights over the scorers that exist in results.
	var weightSum float64
	for name, weight := range weights {
		if _, exists := results[name]; exists {
			weightSum += weight
		}
	}

	if weightSum == 0.0 {
		// No matching scorers or all weights are zero, fall back to equal
		// weighting.
		var sum float64
		for _, result := range results {
			sum += result.Score
		}
		return sum / float64(len(results))
	}

	var weightedSum float64
	for name, result := range results {
		if weight, hasWeight := weights[name]; hasWeight {
			weightedSum += result.Score * (weight / weightSum)
		}
	}

	return weightedSum
}
