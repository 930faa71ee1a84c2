// Package eval provides a lightweight evaluation framework for assessing
// retrieval quality. It integrates with go test and provides scorers for
// multi-hop retrieval results.
//
// Evaluation tests are gated behind the GOEVALS environment variable so they
// can live in the normal test suite without running on every build:
//
//	func TestRetrievalQuality(t *testing.T) {
//	    eval.Run(t, "ownership_questions", func(e *eval.E) {
//	        set, err := eval.LoadEvalSet("testdata/ownership.yaml")
//	        if err != nil {
//	            t.Fatal(err)
//	        }
//
//	        for i := range set.Samples {
//	            result, _ := client.Retrieve(ctx, set.Samples[i].Question)
//	            set.Samples[i].Result = result
//	        }
//
//	        results := e.ScoreAll(set.Samples,
//	            eval.NewHopSuccessScorer(),
//	            eval.NewCoverageScorer(eval.CoverageOptions{}),
//	        )
//	        for _, r := range results {
//	            e.RequireScore(r, 0.7)
//	        }
//	    })
//	}
//
// Three scorers ship with the package. HopSuccessScorer measures the
// fraction of hops that executed without error. CoverageScorer measures how
// much of the expected evidence appears in the final node set. JudgeScorer
// asks a model to grade the retrieval against a rubric and parses a
// {score, reasoning} verdict out of the response, retrying with corrective
// feedback when the verdict cannot be parsed.
//
// Scores are aggregated per sample into a Result and can be persisted as
// JSONL through a Logger for cross-run comparison.
package eval
