package multihop

import (
	"context"
	"strings"
	"testing"

	"github.com/ledgergraph-ai/sdk/graph"
	"github.com/ledgergraph-ai/sdk/inference"
)

type plannerFunc func(ctx context.Context, question string) ([]Step, string, error)

func (f plannerFunc) Plan(ctx context.Context, question string) ([]Step, string, error) {
	return f(ctx, question)
}

type executorFunc func(ctx context.Context, step Step, acc *Accumulator) HopOutcome

func (f executorFunc) ExecuteStep(ctx context.Context, step Step, acc *Accumulator) HopOutcome {
	return f(ctx, step, acc)
}

type analyzerFunc func(ctx context.Context, question string, entities []graph.Entity, relationships []graph.Relationship) Analysis

func (f analyzerFunc) Analyze(ctx context.Context, question string, entities []graph.Entity, relationships []graph.Relationship) Analysis {
	return f(ctx, question, entities, relationships)
}

func newTestOrchestrator(t *testing.T, inf *inference.Mock, opts ...OrchestratorOption) (*Orchestrator, *graph.MockClient) {
	t.Helper()
	g := graph.NewMockClient()
	if err := g.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	opts = append([]OrchestratorOption{WithLogger(testLogger())}, opts...)
	return NewOrchestrator(inf, g, opts...), g
}

// TestOrchestrator_Run walks the full pipeline for a two-hop question: plan,
// two generated queries, accumulation with cross-hop deduplication, analysis.
func TestOrchestrator_Run(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{
		"plan": `[
			{"step_number": 1, "description": "Find companies", "expected_entities": ["Company"]},
			{"step_number": 2, "description": "Find executives employed by those companies", "expected_entities": ["Person"]}
		]`,
		"reasoning": "anchor on companies, then walk employment edges",
	})
	inf.QueueOutputs(map[string]string{
		"cypher_query": "MATCH (c:Company) RETURN DISTINCT c, c.name LIMIT 25",
		"reasoning":    "locate anchor companies",
	})
	inf.QueueOutputs(map[string]string{
		"cypher_query": "MATCH (p:Person)-[r:EMPLOYED_BY]->(c:Company) RETURN DISTINCT p, r, c",
		"reasoning":    "follow employment edges from the anchors",
	})
	inf.QueueOutputs(map[string]string{
		"answer":       "Acme Corp is run by Jane Rivera.",
		"completeness": "complete",
		"missing_info": "",
	})

	o, g := newTestOrchestrator(t, inf)

	acme := graph.Entity{ID: "c1", Label: "Company", Properties: map[string]any{"name": "Acme Corp"}}
	jane := graph.Entity{ID: "p1", Label: "Person", Properties: map[string]any{"name": "Jane Rivera"}}
	employment := graph.Relationship{ID: "r1", FromID: "p1", ToID: "c1", Label: "EMPLOYED_BY"}

	g.AddQueryResult(&graph.QueryResult{Entities: []graph.Entity{acme}})
	g.AddQueryResult(&graph.QueryResult{
		Entities:      []graph.Entity{acme, jane},
		Relationships: []graph.Relationship{employment},
	})

	result := o.Run(context.Background(), "Find companies and their executives", 3)

	if result == nil {
		t.Fatal("Run() returned nil")
	}
	if result.Failed() {
		t.Fatalf("Run() recorded error: %s", result.Error)
	}
	if result.Query != "Find companies and their executives" {
		t.Errorf("Query = %q", result.Query)
	}

	if len(result.Hops) != 2 {
		t.Fatalf("hops = %d, want 2", len(result.Hops))
	}
	for i, hop := range result.Hops {
		if hop.Failed() {
			t.Errorf("hop %d failed: %s", i+1, hop.Error)
		}
		if hop.StepNumber != i+1 {
			t.Errorf("hops[%d].StepNumber = %d, want %d", i, hop.StepNumber, i+1)
		}
	}

	// The duplicate company from hop 2 collapses; the edge survives.
	if len(result.FinalNodes) != 2 {
		t.Fatalf("final nodes = %d, want 2", len(result.FinalNodes))
	}
	if result.FinalNodes[0].ID != "c1" || result.FinalNodes[1].ID != "p1" {
		t.Errorf("final node IDs = %q, %q, want c1, p1", result.FinalNodes[0].ID, result.FinalNodes[1].ID)
	}
	if len(result.FinalEdges) != 1 {
		t.Fatalf("final edges = %d, want 1", len(result.FinalEdges))
	}
	if result.FinalEdges[0].Label != "EMPLOYED_BY" {
		t.Errorf("final edge label = %q", result.FinalEdges[0].Label)
	}

	if len(result.CypherQueries) != 2 {
		t.Errorf("cypher queries = %d, want 2", len(result.CypherQueries))
	}
	if result.ExecutionTime <= 0 {
		t.Errorf("execution time = %v, want > 0", result.ExecutionTime)
	}
	if result.Reasoning == "" {
		t.Error("reasoning is empty")
	}
	if result.Analysis == nil {
		t.Fatal("analysis missing")
	}
	if result.Analysis.Completeness != CompletenessComplete {
		t.Errorf("completeness = %v, want complete", result.Analysis.Completeness)
	}
}

func TestOrchestrator_RunPlanParseFailure(t *testing.T) {
	inf := inference.NewMock()
	inf.SetError(&inference.OutputError{
		Raw:    "I am not able to answer that.",
		Reason: "no JSON found in model output",
	})

	o, g := newTestOrchestrator(t, inf)
	result := o.Run(context.Background(), "Find companies", 3)

	if !result.Failed() {
		t.Fatal("Run() should record a top-level error")
	}
	if !strings.Contains(result.Error, "plan parsing failed") {
		t.Errorf("Error = %q, want plan parse failure", result.Error)
	}
	if len(result.Hops) != 0 {
		t.Errorf("hops = %d, want 0 after plan failure", len(result.Hops))
	}
	if len(result.FinalNodes) != 0 || len(result.FinalEdges) != 0 {
		t.Error("failed run must carry no evidence")
	}
	if len(result.CypherQueries) != 0 {
		t.Errorf("cypher queries = %d, want 0", len(result.CypherQueries))
	}

	// Neither query generation nor the backend is ever reached.
	if got := len(inf.CallsForTask(generateTask)); got != 0 {
		t.Errorf("generate calls = %d, want 0", got)
	}
	if got := len(g.GetCallsByMethod("Query")); got != 0 {
		t.Errorf("graph queries = %d, want 0", got)
	}
	if result.ExecutionTime < 0 {
		t.Errorf("execution time = %v", result.ExecutionTime)
	}
}

func TestOrchestrator_RunDegeneratePlan(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{
		"plan":      `{"note": "nothing to retrieve"}`,
		"reasoning": "the question needs no graph traversal",
	})

	o, g := newTestOrchestrator(t, inf)
	result := o.Run(context.Background(), "hello", 3)

	// A degenerate plan is an empty plan, not a failure.
	if result.Failed() {
		t.Fatalf("Run() recorded error: %s", result.Error)
	}
	if len(result.Hops) != 0 {
		t.Errorf("hops = %d, want 0", len(result.Hops))
	}
	if got := len(g.GetCallsByMethod("Query")); got != 0 {
		t.Errorf("graph queries = %d, want 0", got)
	}

	// Zero hops means zero evidence; the verdict reflects that.
	if result.Analysis == nil {
		t.Fatal("analysis missing")
	}
	if result.Analysis.Completeness != CompletenessIncomplete {
		t.Errorf("completeness = %v, want incomplete", result.Analysis.Completeness)
	}
	if result.Analysis.MissingInfo == "" {
		t.Error("missing info must be non-empty for an evidence-free run")
	}
}

func TestOrchestrator_RunHopLimit(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{
		"plan": `[
			{"step_number": 1, "description": "one"},
			{"step_number": 2, "description": "two"},
			{"step_number": 3, "description": "three"}
		]`,
		"reasoning": "three layers",
	})
	inf.QueueOutputs(map[string]string{"cypher_query": "MATCH (c:Company) RETURN c", "reasoning": "r"})
	// No further generate outputs are needed; the run must stop at one hop.

	o, g := newTestOrchestrator(t, inf)
	g.AddQueryResult(&graph.QueryResult{Entities: []graph.Entity{{ID: "c1", Label: "Company"}}})

	result := o.Run(context.Background(), "Find companies", 1)

	if result.Failed() {
		t.Fatalf("Run() recorded error: %s", result.Error)
	}
	if len(result.Hops) != 1 {
		t.Errorf("hops = %d, want 1", len(result.Hops))
	}
	if len(result.CypherQueries) != 1 {
		t.Errorf("cypher queries = %d, want exactly 1", len(result.CypherQueries))
	}
	if got := len(inf.CallsForTask(generateTask)); got != 1 {
		t.Errorf("generate calls = %d, want 1", got)
	}
	if got := len(g.GetCallsByMethod("Query")); got != 1 {
		t.Errorf("graph queries = %d, want 1", got)
	}
}

func TestOrchestrator_RunDefaultMaxHops(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{
		"plan": `[
			{"step_number": 1, "description": "one"},
			{"step_number": 2, "description": "two"},
			{"step_number": 3, "description": "three"},
			{"step_number": 4, "description": "four"},
			{"step_number": 5, "description": "five"}
		]`,
	})
	for i := 0; i < DefaultMaxHops; i++ {
		inf.QueueOutputs(map[string]string{"cypher_query": "MATCH (c:Company) RETURN c", "reasoning": "r"})
	}

	o, _ := newTestOrchestrator(t, inf)
	result := o.Run(context.Background(), "Find companies", 0)

	if len(result.Hops) != DefaultMaxHops {
		t.Errorf("hops = %d, want %d", len(result.Hops), DefaultMaxHops)
	}
}

func TestOrchestrator_RunShortPlan(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{
		"plan": `[{"step_number": 1, "description": "only step"}]`,
	})
	inf.QueueOutputs(map[string]string{"cypher_query": "MATCH (c:Company) RETURN c", "reasoning": "r"})

	o, _ := newTestOrchestrator(t, inf)
	result := o.Run(context.Background(), "Find companies", 5)

	if len(result.Hops) != 1 {
		t.Errorf("hops = %d, want 1 (plan shorter than the limit)", len(result.Hops))
	}
}

func TestOrchestrator_RunSequentialOrder(t *testing.T) {
	var executed []int
	executor := executorFunc(func(ctx context.Context, step Step, acc *Accumulator) HopOutcome {
		executed = append(executed, step.StepNumber)
		return HopOutcome{StepNumber: step.StepNumber, Description: step.Description, CypherQuery: "MATCH (n) RETURN n"}
	})
	planner := plannerFunc(func(ctx context.Context, question string) ([]Step, string, error) {
		return []Step{
			{StepNumber: 1, Description: "one"},
			{StepNumber: 2, Description: "two"},
			{StepNumber: 3, Description: "three"},
		}, "r", nil
	})

	inf := inference.NewMock()
	o, _ := newTestOrchestrator(t, inf, WithPlanner(planner), WithStepExecutor(executor))

	result := o.Run(context.Background(), "q", 3)

	if len(executed) != 3 {
		t.Fatalf("executed steps = %d, want 3", len(executed))
	}
	for i, n := range executed {
		if n != i+1 {
			t.Errorf("execution order[%d] = %d, want %d", i, n, i+1)
		}
	}
	if len(result.CypherQueries) != 3 {
		t.Errorf("cypher queries = %d, want 3", len(result.CypherQueries))
	}
}

func TestOrchestrator_RunToleratesHopFailure(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{
		"plan": `[
			{"step_number": 1, "description": "one"},
			{"step_number": 2, "description": "two"},
			{"step_number": 3, "description": "three"}
		]`,
		"reasoning": "r",
	})
	inf.QueueOutputs(map[string]string{"cypher_query": "MATCH (c:Company) RETURN c", "reasoning": "r1"})
	// The second generated query is empty, so hop 2 fails at generation.
	inf.QueueOutputs(map[string]string{"cypher_query": "", "reasoning": "r2"})
	inf.QueueOutputs(map[string]string{"cypher_query": "MATCH (p:Person) RETURN p", "reasoning": "r3"})
	inf.QueueOutputs(map[string]string{"answer": "a", "completeness": "partial", "missing_info": "hop 2 evidence"})

	o, g := newTestOrchestrator(t, inf)
	g.AddQueryResult(&graph.QueryResult{Entities: []graph.Entity{{ID: "c1", Label: "Company"}}})
	g.AddQueryResult(&graph.QueryResult{Entities: []graph.Entity{{ID: "p1", Label: "Person"}}})

	result := o.Run(context.Background(), "q", 3)

	// A failed hop never fails the run.
	if result.Failed() {
		t.Fatalf("Run() recorded error: %s", result.Error)
	}
	if len(result.Hops) != 3 {
		t.Fatalf("hops = %d, want 3 (later hops still run)", len(result.Hops))
	}
	if result.Hops[0].Failed() || result.Hops[2].Failed() {
		t.Error("hops 1 and 3 should be clean")
	}
	if !result.Hops[1].Failed() {
		t.Error("hop 2 should record its failure")
	}

	failed := result.FailedHops()
	if len(failed) != 1 || failed[0].StepNumber != 2 {
		t.Errorf("FailedHops() = %+v, want only step 2", failed)
	}

	// Both clean hops contributed evidence; the failed hop contributed none.
	if len(result.FinalNodes) != 2 {
		t.Errorf("final nodes = %d, want 2", len(result.FinalNodes))
	}
	if len(result.CypherQueries) != 2 {
		t.Errorf("cypher queries = %d, want 2 (no query from failed hop)", len(result.CypherQueries))
	}
	if result.Analysis == nil {
		t.Error("analysis must still run after hop failures")
	}
}

func TestOrchestrator_RunKeepsDuplicateEdges(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{
		"plan": `[
			{"step_number": 1, "description": "one"},
			{"step_number": 2, "description": "two"}
		]`,
	})
	inf.QueueOutputs(map[string]string{"cypher_query": "MATCH (a)-[r]->(b) RETURN a, r, b", "reasoning": "r"})
	inf.QueueOutputs(map[string]string{"cypher_query": "MATCH (a)-[r]->(b) RETURN a, r, b", "reasoning": "r"})
	inf.QueueOutputs(map[string]string{"answer": "a", "completeness": "complete"})

	edge := graph.Relationship{ID: "r1", FromID: "p1", ToID: "c1", Label: "EMPLOYED_BY"}
	o, g := newTestOrchestrator(t, inf)
	g.AddQueryResult(&graph.QueryResult{
		Entities:      []graph.Entity{{ID: "c1"}, {ID: "p1"}},
		Relationships: []graph.Relationship{edge},
	})
	g.AddQueryResult(&graph.QueryResult{
		Entities:      []graph.Entity{{ID: "c1"}, {ID: "p1"}},
		Relationships: []graph.Relationship{edge},
	})

	result := o.Run(context.Background(), "q", 2)

	if len(result.FinalNodes) != 2 {
		t.Errorf("final nodes = %d, want 2 (entities deduplicated)", len(result.FinalNodes))
	}
	if len(result.FinalEdges) != 2 {
		t.Errorf("final edges = %d, want 2 (relationships never deduplicated)", len(result.FinalEdges))
	}
}

func TestOrchestrator_RunRecoversAnalyzerPanic(t *testing.T) {
	inf := inference.NewMock()
	inf.QueueOutputs(map[string]string{
		"plan": `[{"step_number": 1, "description": "one"}]`,
	})
	inf.QueueOutputs(map[string]string{"cypher_query": "MATCH (c:Company) RETURN c", "reasoning": "r"})

	analyzer := analyzerFunc(func(ctx context.Context, question string, entities []graph.Entity, relationships []graph.Relationship) Analysis {
		panic("analyzer exploded")
	})

	o, g := newTestOrchestrator(t, inf, WithAnalyzer(analyzer))
	g.AddQueryResult(&graph.QueryResult{Entities: []graph.Entity{{ID: "c1", Label: "Company"}}})

	result := o.Run(context.Background(), "q", 3)

	if result == nil {
		t.Fatal("Run() returned nil after panic")
	}
	if !result.Failed() {
		t.Fatal("Run() should record the panic as a top-level error")
	}
	if !strings.Contains(result.Error, "unexpected failure") {
		t.Errorf("Error = %q", result.Error)
	}
	if !strings.Contains(result.Error, StateAnalyzing.String()) {
		t.Errorf("Error = %q, want the failing phase named", result.Error)
	}

	// Evidence gathered before the fault is salvaged.
	if len(result.FinalNodes) != 1 {
		t.Errorf("final nodes = %d, want 1 salvaged entity", len(result.FinalNodes))
	}
	if result.ExecutionTime <= 0 {
		t.Errorf("execution time = %v, want > 0", result.ExecutionTime)
	}
}

func TestOrchestrator_RunRecoversPlannerPanic(t *testing.T) {
	planner := plannerFunc(func(ctx context.Context, question string) ([]Step, string, error) {
		panic("planner exploded")
	})

	inf := inference.NewMock()
	o, _ := newTestOrchestrator(t, inf, WithPlanner(planner))

	result := o.Run(context.Background(), "q", 3)

	if result == nil {
		t.Fatal("Run() returned nil after panic")
	}
	if !strings.Contains(result.Error, StatePlanning.String()) {
		t.Errorf("Error = %q, want the planning phase named", result.Error)
	}
	if len(result.Hops) != 0 {
		t.Errorf("hops = %d, want 0", len(result.Hops))
	}
}

func TestOrchestrator_RunReasoningComposition(t *testing.T) {
	planner := plannerFunc(func(ctx context.Context, question string) ([]Step, string, error) {
		return []Step{}, "walk the graph outward from the anchor", nil
	})
	analyzer := analyzerFunc(func(ctx context.Context, question string, entities []graph.Entity, relationships []graph.Relationship) Analysis {
		return Analysis{Answer: "nothing found", Completeness: CompletenessIncomplete, MissingInfo: "everything"}
	})

	inf := inference.NewMock()
	o, _ := newTestOrchestrator(t, inf, WithPlanner(planner), WithAnalyzer(analyzer))

	result := o.Run(context.Background(), "q", 3)

	for _, fragment := range []string{"walk the graph outward", "nothing found", "incomplete", "everything"} {
		if !strings.Contains(result.Reasoning, fragment) {
			t.Errorf("Reasoning = %q, want %q included", result.Reasoning, fragment)
		}
	}
}
