package eval

import (
	"context"
	"os"
	"testing"
	"time"
)

// Run executes an evaluation test, skipping unless the GOEVALS=1 environment
// variable is set. This allows evaluation tests to be part of the normal test
// suite but only run when explicitly requested, since they typically need a
// populated graph and a live model.
//
// Example:
//
//	func TestRetrievalQuality(t *testing.T) {
//	    eval.Run(t, "ownership_questions", func(e *eval.E) {
//	        sample := eval.Sample{
//	            ID:       "own-001",
//	            Question: "Who owns Acme Widgets?",
//	            Result:   result,
//	        }
//	        r := e.Score(sample, eval.NewHopSuccessScorer())
//	        e.RequireScore(r, 0.8)
//	    })
//	}
func Run(t *testing.T, name string, f func(e *E)) {
	if os.Getenv("GOEVALS") != "1" {
		t.Skip("GOEVALS=1 not set")
		return
	}

	t.Run(name, func(t *testing.T) {
		e := &E{
			T: t,
		}
		f(e)
	})
}

// E wraps *testing.T with evaluation capabilities.
// It provides methods for scoring samples and logging results.
type E struct {
	// T is the underlying testing.TB instance.
	// All testing.TB methods are directly accessible.
	T testing.TB

	// logger persists evaluation results to file (e.g., evals.jsonl)
	logger Logger
}

// Score runs all provided scorers on the sample and returns an aggregated
// result. Each scorer is executed independently and the overall score is the
// mean of all individual scores.
//
// If a scorer returns an error, its score is recorded as 0.0 with the error
// in the details, and the remaining scorers still run.
func (e *E) Score(sample Sample, scorers ...Scorer) Result {
	ctx := context.Background()
	startTime := time.Now()

	result := Result{
		SampleID:  sample.ID,
		Scores:    make(map[string]ScoreResult),
		Timestamp: startTime,
	}

	var totalScore float64
	scorerCount := 0

	for _, scorer := range scorers {
		scorerName := scorer.Name()

		scoreResult, err := scorer.Score(ctx, sample)
		if err != nil {
			result.Scores[scorerName] = ScoreResult{
				Score: 0.0,
				Details: map[string]any{
					"error": err.Error(),
				},
			}
			e.T.Logf("Scorer %s failed: %v", scorerName, err)
			continue
		}

		result.Scores[scorerName] = scoreResult
		totalScore += scoreResult.Score
		scorerCount++
	}

	if scorerCount > 0 {
		result.OverallScore = totalScore / float64(scorerCount)
	}

	result.Duration = time.Since(startTime)

	if e.logger != nil {
		if err := e.Log(sample, result); err != nil {
			e.T.Logf("Failed to log result: %v", err)
		}
	}

	return result
}

// ScoreAll runs all provided scorers on multiple samples and returns results
// for each. This is equivalent to calling Score for each sample.
func (e *E) ScoreAll(samples []Sample, scorers ...Scorer) []Result {
	results := make([]Result, 0, len(samples))
	for _, sample := range samples {
		result := e.Score(sample, scorers...)
		results = append(results, result)
	}
	return results
}

// Log persists the evaluation result using the configured logger.
// If no logger is configured, this is a no-op and returns nil.
func (e *E) Log(sample Sample, result Result) error {
	if e.logger == nil {
		return nil
	}
	return e.logger.Log(sample, result)
}

// RequireScore fails the test if the overall score is below the threshold.
// The threshold should be a value between 0.0 and 1.0.
//
// This uses t.Errorf (not a fatal stop) so multiple samples can be asserted
// in a single test.
func (e *E) RequireScore(result Result, threshold float64) {
	if result.OverallScore < threshold {
		e.T.Errorf("Score %.3f below threshold %.3f for sample %s",
			result.OverallScore, threshold, result.SampleID)

		for name, scoreResult := range result.Scores {
			e.T.Logf("  %s: %.3f", name, scoreResult.Score)
			if len(scoreResult.Details) > 0 {
				e.T.Logf("    Details: %+v", scoreResult.Details)
			}
		}
	}
}

// WithLogger configures a logger for persisting evaluation results.
// The logger is called after each Score operation.
//
// Example:
//
//	logger, _ := eval.NewJSONLLogger("evals.jsonl")
//	defer logger.Close()
//	e.WithLogger(logger)
func (e *E) WithLogger(logger Logger) *E {
	e.logger = logger
	return e
}

// Logger persists evaluation results to storage.
// Implementations include JSONLLogger for writing to evals.jsonl files.
type Logger interface {
	// Log writes a sample and its result to the configured storage.
	Log(sample Sample, result Result) error

	// Close flushes any buffered data and releases resources.
	Close() error
}
