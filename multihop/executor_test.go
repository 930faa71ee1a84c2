package multihop

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ledgergraph-ai/sdk/graph"
	"github.com/ledgergraph-ai/sdk/guard"
	"github.com/ledgergraph-ai/sdk/inference"
)

func newTestExecutor(t *testing.T, inf *inference.Mock) (*LLMStepExecutor, *graph.MockClient) {
	t.Helper()
	g := graph.NewMockClient()
	if err := g.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return NewStepExecutor(inf, g, guard.DefaultPolicy(), nil, testLogger()), g
}

func TestLLMStepExecutor_ExecuteStep(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{
		"cypher_query": "MATCH (c:Company) WHERE toLower(c.sector) CONTAINS 'tech' RETURN DISTINCT c, c.name",
		"reasoning":    "anchor on technology companies",
	})
	executor, g := newTestExecutor(t, inf)
	g.AddQueryResult(&graph.QueryResult{
		Entities: []graph.Entity{
			{ID: "c1", Label: "Company", Properties: map[string]any{"name": "Acme"}},
		},
		Relationships: []graph.Relationship{
			{ID: "r1", FromID: "p1", ToID: "c1", Label: "EMPLOYED_BY"},
		},
	})

	acc := NewAccumulator()
	step := Step{StepNumber: 1, Description: "Find technology companies"}
	outcome := executor.ExecuteStep(context.Background(), step, acc)

	if outcome.Failed() {
		t.Fatalf("ExecuteStep() failed: %s", outcome.Error)
	}
	if outcome.StepNumber != 1 || outcome.Description != step.Description {
		t.Errorf("outcome identity = (%d, %q)", outcome.StepNumber, outcome.Description)
	}
	if outcome.CypherQuery == "" {
		t.Error("outcome.CypherQuery is empty")
	}
	if outcome.Reasoning != "anchor on technology companies" {
		t.Errorf("outcome.Reasoning = %q", outcome.Reasoning)
	}
	if outcome.EntitiesFound != 1 || outcome.RelationshipsFound != 1 {
		t.Errorf("counts = (%d, %d), want (1, 1)", outcome.EntitiesFound, outcome.RelationshipsFound)
	}

	entities, relationships := acc.Counts()
	if entities != 1 || relationships != 1 {
		t.Errorf("accumulator counts = (%d, %d), want (1, 1)", entities, relationships)
	}

	queries := g.GetCallsByMethod("Query")
	if len(queries) != 1 {
		t.Fatalf("graph Query calls = %d, want 1", len(queries))
	}
	if got := queries[0].Args[0].(string); got != outcome.CypherQuery {
		t.Errorf("executed query = %q, want %q", got, outcome.CypherQuery)
	}
}

func TestLLMStepExecutor_GenerateFailure(t *testing.T) {
	inf := inference.NewMock()
	inf.SetError(errors.New("model unavailable"))
	executor, g := newTestExecutor(t, inf)

	acc := NewAccumulator()
	outcome := executor.ExecuteStep(context.Background(), Step{StepNumber: 2, Description: "find ratings"}, acc)

	if !outcome.Failed() {
		t.Fatal("ExecuteStep() should record a failure")
	}
	if !strings.Contains(outcome.Error, StageGenerate) {
		t.Errorf("outcome.Error = %q, want generate stage", outcome.Error)
	}
	if outcome.EntitiesFound != 0 || outcome.RelationshipsFound != 0 {
		t.Errorf("failed hop counts = (%d, %d), want zeros", outcome.EntitiesFound, outcome.RelationshipsFound)
	}
	if len(g.GetCallsByMethod("Query")) != 0 {
		t.Error("graph must not be queried when generation fails")
	}
	if e, r := acc.Counts(); e != 0 || r != 0 {
		t.Error("accumulator must stay empty on failed hop")
	}
}

func TestLLMStepExecutor_EmptyGeneratedQuery(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{"cypher_query": "   ", "reasoning": "r"})
	executor, g := newTestExecutor(t, inf)

	outcome := executor.ExecuteStep(context.Background(), Step{StepNumber: 1, Description: "find companies"}, NewAccumulator())

	if !outcome.Failed() {
		t.Fatal("ExecuteStep() should record a failure")
	}
	if !strings.Contains(outcome.Error, StageGenerate) {
		t.Errorf("outcome.Error = %q, want generate stage", outcome.Error)
	}
	if len(g.GetCallsByMethod("Query")) != 0 {
		t.Error("graph must not be queried for an empty query")
	}
}

func TestLLMStepExecutor_PolicyRejection(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{
		"cypher_query": "CREATE (c:Company {name: 'Evil'}) RETURN c",
		"reasoning":    "r",
	})
	executor, g := newTestExecutor(t, inf)

	acc := NewAccumulator()
	outcome := executor.ExecuteStep(context.Background(), Step{StepNumber: 1, Description: "find companies"}, acc)

	if !outcome.Failed() {
		t.Fatal("ExecuteStep() should record a failure")
	}
	if !strings.Contains(outcome.Error, StagePolicy) {
		t.Errorf("outcome.Error = %q, want policy stage", outcome.Error)
	}
	// The rejected query stays inspectable on the outcome.
	if outcome.CypherQuery == "" {
		t.Error("rejected query should be recorded on the outcome")
	}
	if len(g.GetCallsByMethod("Query")) != 0 {
		t.Error("rejected query must never reach the backend")
	}
	if e, r := acc.Counts(); e != 0 || r != 0 {
		t.Error("accumulator must stay empty on rejected hop")
	}
}

func TestLLMStepExecutor_NilPolicySkipsScreening(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{
		"cypher_query": "CREATE (c:Company) RETURN c",
		"reasoning":    "r",
	})
	g := graph.NewMockClient()
	if err := g.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	executor := NewStepExecutor(inf, g, nil, nil, testLogger())

	outcome := executor.ExecuteStep(context.Background(), Step{StepNumber: 1, Description: "d"}, NewAccumulator())

	if outcome.Failed() {
		t.Fatalf("ExecuteStep() failed: %s", outcome.Error)
	}
	if len(g.GetCallsByMethod("Query")) != 1 {
		t.Error("query should execute when no policy is configured")
	}
}

func TestLLMStepExecutor_ExecuteFailure(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{
		"cypher_query": "MATCH (c:Company) RETURN c",
		"reasoning":    "r",
	})
	executor, g := newTestExecutor(t, inf)
	g.SetQueryError(errors.New("syntax error near RETURN"))

	acc := NewAccumulator()
	outcome := executor.ExecuteStep(context.Background(), Step{StepNumber: 3, Description: "find companies"}, acc)

	if !outcome.Failed() {
		t.Fatal("ExecuteStep() should record a failure")
	}
	if !strings.Contains(outcome.Error, StageExecute) {
		t.Errorf("outcome.Error = %q, want execute stage", outcome.Error)
	}
	if !strings.Contains(outcome.Error, "hop 3") {
		t.Errorf("outcome.Error = %q, want step number", outcome.Error)
	}
	if outcome.EntitiesFound != 0 || outcome.RelationshipsFound != 0 {
		t.Errorf("failed hop counts = (%d, %d), want zeros", outcome.EntitiesFound, outcome.RelationshipsFound)
	}
	if e, r := acc.Counts(); e != 0 || r != 0 {
		t.Error("accumulator must stay empty when execution fails")
	}
}

func TestLLMStepExecutor_ThreadsAccumulatedContext(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{
		"cypher_query": "MATCH (p:Person)-[:EMPLOYED_BY]->(c:Company) RETURN DISTINCT p, c",
		"reasoning":    "r",
	})
	executor, _ := newTestExecutor(t, inf)

	acc := NewAccumulator()
	acc.Add(&graph.QueryResult{
		Entities: []graph.Entity{
			{ID: "c-acme", Label: "Company", Properties: map[string]any{"name": "Acme"}},
		},
	})

	executor.ExecuteStep(context.Background(), Step{StepNumber: 2, Description: "find executives"}, acc)

	calls := inf.Calls()
	if len(calls) != 1 {
		t.Fatalf("inference calls = %d, want 1", len(calls))
	}
	accCtx := inputValue(calls[0].Request, "accumulated_context")
	if !strings.Contains(accCtx, "c-acme") {
		t.Errorf("accumulated_context %q does not carry earlier results", accCtx)
	}
}

func TestLLMStepExecutor_ForwardsStepHints(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{"cypher_query": "MATCH (n) RETURN n", "reasoning": "r"})
	executor, _ := newTestExecutor(t, inf)

	step := Step{
		StepNumber:       1,
		Description:      "find executives",
		CypherTemplate:   "MATCH (p:Person)-[:EMPLOYED_BY]->(c:Company)",
		ExpectedEntities: []string{"Person", "Company"},
	}
	executor.ExecuteStep(context.Background(), step, NewAccumulator())

	req := inf.Calls()[0].Request
	if got := inputValue(req, "cypher_template"); got != step.CypherTemplate {
		t.Errorf("cypher_template input = %q", got)
	}
	if got := inputValue(req, "expected_entities"); got != "Person, Company" {
		t.Errorf("expected_entities input = %q", got)
	}
}
