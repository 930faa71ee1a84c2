package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgergraph-ai/sdk/graph"
	"github.com/ledgergraph-ai/sdk/multihop"
)

func TestHopSuccessScorer_Name(t *testing.T) {
	assert.Equal(t, "hop_success", NewHopSuccessScorer().Name())
}

func TestHopSuccessScorer_NoResult(t *testing.T) {
	scorer := NewHopSuccessScorer()

	_, err := scorer.Score(context.Background(), Sample{ID: "s1", Question: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no retrieval result")
}

func TestHopSuccessScorer_AllHopsSucceed(t *testing.T) {
	scorer := NewHopSuccessScorer()
	sample := Sample{
		ID: "s1",
		Result: &multihop.Result{
			Hops: []multihop.HopOutcome{
				{StepNumber: 1, EntitiesFound: 2},
				{StepNumber: 2, EntitiesFound: 1},
			},
		},
	}

	result, err := scorer.Score(context.Background(), sample)
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, 2, result.Details["hops_total"])
	assert.Equal(t, 0, result.Details["hops_failed"])
	assert.NotContains(t, result.Details, "failed_steps")
}

func TestHopSuccessScorer_PartialFailure(t *testing.T) {
	scorer := NewHopSuccessScorer()

	result, err := scorer.Score(context.Background(), retrievalSample())
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, result.Score, 1e-9)
	assert.Equal(t, 3, result.Details["hops_total"])
	assert.Equal(t, 1, result.Details["hops_failed"])
	assert.Equal(t, []int{3}, result.Details["failed_steps"])
}

func TestHopSuccessScorer_PlanFailure(t *testing.T) {
	scorer := NewHopSuccessScorer()
	sample := Sample{
		ID: "s1",
		Result: &multihop.Result{
			Error: "failed to parse retrieval plan",
		},
	}

	result, err := scorer.Score(context.Background(), sample)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, 0, result.Details["hops_total"])
	assert.Equal(t, "failed to parse retrieval plan", result.Details["run_error"])
}

func TestHopSuccessScorer_RunErrorWithHops(t *testing.T) {
	scorer := NewHopSuccessScorer()
	sample := Sample{
		ID: "s1",
		Result: &multihop.Result{
			Hops: []multihop.HopOutcome{
				{StepNumber: 1, EntitiesFound: 1},
			},
			Error: "analysis failed",
			FinalNodes: []graph.Entity{
				{ID: "c1", Label: "Company"},
			},
		},
	}

	result, err := scorer.Score(context.Background(), sample)
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, "analysis failed", result.Details["run_error"])
}
