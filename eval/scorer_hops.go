package eval

import (
	"context"
	"fmt"
)

// HopSuccessScorer measures the fraction of hops in a retrieval run that
// executed without error. A run where every planned hop produced evidence
// scores 1.0; a run whose plan never parsed scores 0.0.
type HopSuccessScorer struct{}

// NewHopSuccessScorer creates a hop success rate scorer.
func NewHopSuccessScorer() Scorer {
	return &HopSuccessScorer{}
}

// Name returns the scorer name.
func (s *HopSuccessScorer) Name() string {
	return "hop_success"
}

// Score evaluates the hop success rate of the sample's retrieval result.
func (s *HopSuccessScorer) Score(ctx context.Context, sample Sample) (ScoreResult, error) {
	result := sample.Result
	if result == nil {
		return ScoreResult{}, fmt.Errorf("sample %s has no retrieval result", sample.ID)
	}

	if len(result.Hops) == 0 {
		details := map[string]any{
			"hops_total": 0,
		}
		if result.Error != "" {
			details["run_error"] = result.Error
		}
		return ScoreResult{Score: 0.0, Details: details}, nil
	}

	failedSteps := make([]int, 0)
	for _, hop := range result.Hops {
		if hop.Failed() {
			failedSteps = append(failedSteps, hop.StepNumber)
		}
	}

	total := len(result.Hops)
	failed := len(failedSteps)
	score := float64(total-failed) / float64(total)

	details := map[string]any{
		"hops_total":  total,
		"hops_failed": failed,
	}
	if failed > 0 {
		details["failed_steps"] = failedSteps
	}
	if result.Error != "" {
		details["run_error"] = result.Error
	}

	return ScoreResult{Score: score, Details: details}, nil
}
