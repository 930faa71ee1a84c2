package multihop

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ledgergraph-ai/sdk/graph"
	"github.com/ledgergraph-ai/sdk/inference"
)

func TestLLMAnalyzer_Analyze(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{
		"answer":       "Acme Corp employs Jane Rivera as CEO.",
		"completeness": "complete",
		"missing_info": "",
	})

	analyzer := NewAnalyzer(inf, testLogger())
	analysis := analyzer.Analyze(context.Background(), "Who runs Acme?",
		[]graph.Entity{
			{ID: "c1", Label: "Company", Properties: map[string]any{"name": "Acme Corp"}},
			{ID: "p1", Label: "Person", Properties: map[string]any{"name": "Jane Rivera"}},
		},
		[]graph.Relationship{
			{ID: "r1", FromID: "p1", ToID: "c1", Label: "EMPLOYED_BY"},
		})

	if analysis.Answer != "Acme Corp employs Jane Rivera as CEO." {
		t.Errorf("Answer = %q", analysis.Answer)
	}
	if analysis.Completeness != CompletenessComplete {
		t.Errorf("Completeness = %v, want complete", analysis.Completeness)
	}
	if analysis.MissingInfo != "" {
		t.Errorf("MissingInfo = %q, want empty", analysis.MissingInfo)
	}
}

func TestLLMAnalyzer_AnalyzeEmptyEvidence(t *testing.T) {
	inf := inference.NewMock()
	analyzer := NewAnalyzer(inf, testLogger())

	analysis := analyzer.Analyze(context.Background(), "Who runs Acme?", nil, nil)

	if analysis.Completeness != CompletenessIncomplete {
		t.Errorf("Completeness = %v, want incomplete", analysis.Completeness)
	}
	if analysis.MissingInfo == "" {
		t.Error("MissingInfo must be non-empty for empty evidence")
	}
	if analysis.Answer == "" {
		t.Error("Answer must be non-empty for empty evidence")
	}
	if inf.CallCount() != 0 {
		t.Error("empty evidence should not reach the inference client")
	}
}

func TestLLMAnalyzer_AnalyzeDegradesOnInferenceError(t *testing.T) {
	inf := inference.NewMock()
	inf.SetError(errors.New("model unavailable"))
	analyzer := NewAnalyzer(inf, testLogger())

	analysis := analyzer.Analyze(context.Background(), "Who runs Acme?",
		[]graph.Entity{{ID: "c1", Label: "Company"}}, nil)

	if analysis.Completeness != CompletenessPartial {
		t.Errorf("Completeness = %v, want partial fallback", analysis.Completeness)
	}
	if !strings.Contains(analysis.MissingInfo, "analysis unavailable") {
		t.Errorf("MissingInfo = %q, want degradation notice", analysis.MissingInfo)
	}
	if analysis.Answer == "" {
		t.Error("degraded analysis still needs an answer")
	}
}

func TestLLMAnalyzer_AnalyzeNormalizesCompleteness(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{
		"answer":       "some answer",
		"completeness": "The retrieval is INCOMPLETE.",
		"missing_info": "rating details",
	})

	analyzer := NewAnalyzer(inf, testLogger())
	analysis := analyzer.Analyze(context.Background(), "q",
		[]graph.Entity{{ID: "c1"}}, nil)

	if analysis.Completeness != CompletenessIncomplete {
		t.Errorf("Completeness = %v, want incomplete after normalization", analysis.Completeness)
	}
}

func TestLLMAnalyzer_AnalyzeRequestShape(t *testing.T) {
	inf := inference.NewMock()
	analyzer := NewAnalyzer(inf, testLogger())

	analyzer.Analyze(context.Background(), "Who rates Acme?",
		[]graph.Entity{{ID: "c1", Label: "Company"}},
		[]graph.Relationship{{ID: "r1", FromID: "a1", ToID: "c1", Label: "HAS_RATING"}})

	calls := inf.Calls()
	if len(calls) != 1 {
		t.Fatalf("inference calls = %d, want 1", len(calls))
	}
	req := calls[0].Request
	if req.Task != analyzeTask {
		t.Error("request task is not the analysis task")
	}
	if got := inputValue(req, "question"); got != "Who rates Acme?" {
		t.Errorf("question input = %q", got)
	}
	evidence := inputValue(req, "evidence")
	if !strings.Contains(evidence, "c1") || !strings.Contains(evidence, "HAS_RATING") {
		t.Errorf("evidence input %q missing retrieved elements", evidence)
	}
}
