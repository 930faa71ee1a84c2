package multihop

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ledgergraph-ai/sdk/graph"
	"github.com/ledgergraph-ai/sdk/guard"
	"github.com/ledgergraph-ai/sdk/inference"
	"github.com/ledgergraph-ai/sdk/schema"
)

var errEmptyQuery = errors.New("generated query is empty")

// StepExecutor runs one plan step against the graph backend.
type StepExecutor interface {
	// ExecuteStep generates the step's concrete query, executes it, and feeds
	// the results into the accumulator. It always returns a HopOutcome: a
	// failing step yields an outcome with a non-empty Error and zero counts,
	// never an aborted run.
	ExecuteStep(ctx context.Context, step Step, acc *Accumulator) HopOutcome
}

const generateTask = `Convert one retrieval step into a single openCypher query for a financial knowledge graph.

Query guidelines:
1. Always RETURN DISTINCT both the matched node objects and their specific properties, for example "RETURN DISTINCT c, c.name, c.sector" rather than just "RETURN c" or just "RETURN c.name".
2. Use case-insensitive matching for text fields: toLower(c.sector) = toLower('financial services'), or CONTAINS for partial matches.
3. Prefer fuzzy matching over exact equality; use OR conditions for related terms such as 'financial', 'banking', 'finance'.
4. Build on the accumulated results from earlier steps: anchor this step's MATCH on entities already found when the step follows a relationship outward.
5. Generate a read-only query. Use MATCH, WHERE, RETURN, ORDER BY, LIMIT only.`

// LLMStepExecutor implements StepExecutor: it generates queries on the
// prompted inference port, screens them through a query policy, and executes
// them on the graph port.
type LLMStepExecutor struct {
	inference    inference.Client
	graph        graph.Client
	policy       *guard.Policy
	schema       *schema.Schema
	contextLimit int
	logger       *slog.Logger
}

// NewStepExecutor creates a step executor.
// A nil policy disables query screening; a nil schema uses the default
// vocabulary.
func NewStepExecutor(client inference.Client, g graph.Client, policy *guard.Policy, s *schema.Schema, logger *slog.Logger) *LLMStepExecutor {
	if s == nil {
		s = schema.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMStepExecutor{
		inference:    client,
		graph:        g,
		policy:       policy,
		schema:       s,
		contextLimit: defaultContextLimit,
		logger:       logger,
	}
}

// ExecuteStep implements StepExecutor.
func (e *LLMStepExecutor) ExecuteStep(ctx context.Context, step Step, acc *Accumulator) HopOutcome {
	outcome := HopOutcome{
		StepNumber:  step.StepNumber,
		Description: step.Description,
	}

	req := inference.NewRequest(generateTask).
		WithInput("step_description", step.Description).
		WithInput("schema_context", e.schema.PromptContext()).
		WithInput("accumulated_context", acc.Context(e.contextLimit))
	if step.CypherTemplate != "" {
		req = req.WithInput("cypher_template", step.CypherTemplate)
	}
	if len(step.ExpectedEntities) > 0 {
		req = req.WithInput("expected_entities", strings.Join(step.ExpectedEntities, ", "))
	}
	req = req.
		WithOutput("cypher_query", "the openCypher query for this step").
		WithOutput("reasoning", "brief explanation of how the query maps to the graph structure")

	resp, err := e.inference.Infer(ctx, *req)
	if err != nil {
		hopErr := &HopError{StepNumber: step.StepNumber, Stage: StageGenerate, Err: err}
		e.logger.Warn("hop failed", slog.Int("step", step.StepNumber), slog.String("stage", StageGenerate), slog.Any("error", err))
		outcome.Error = hopErr.Error()
		return outcome
	}

	cypher := strings.TrimSpace(resp.Output("cypher_query"))
	outcome.Reasoning = resp.Output("reasoning")

	if cypher == "" {
		hopErr := &HopError{StepNumber: step.StepNumber, Stage: StageGenerate, Err: errEmptyQuery}
		e.logger.Warn("hop failed", slog.Int("step", step.StepNumber), slog.String("stage", StageGenerate), slog.Any("error", errEmptyQuery))
		outcome.Error = hopErr.Error()
		return outcome
	}

	if e.policy != nil {
		if err := e.policy.Check(cypher); err != nil {
			// Record the query so the rejection is inspectable, but never
			// send it to the backend.
			outcome.CypherQuery = cypher
			hopErr := &HopError{StepNumber: step.StepNumber, Stage: StagePolicy, Err: err}
			e.logger.Warn("hop failed", slog.Int("step", step.StepNumber), slog.String("stage", StagePolicy), slog.Any("error", err))
			outcome.Error = hopErr.Error()
			return outcome
		}
	}
	outcome.CypherQuery = cypher

	result, err := e.graph.Query(ctx, cypher, nil)
	if err != nil {
		hopErr := &HopError{StepNumber: step.StepNumber, Stage: StageExecute, Err: err}
		e.logger.Warn("hop failed", slog.Int("step", step.StepNumber), slog.String("stage", StageExecute), slog.Any("error", err))
		outcome.Error = hopErr.Error()
		return outcome
	}

	acc.Add(result)
	outcome.EntitiesFound = len(result.Entities)
	outcome.RelationshipsFound = len(result.Relationships)

	e.logger.Debug("hop executed",
		slog.Int("step", step.StepNumber),
		slog.Int("entities", outcome.EntitiesFound),
		slog.Int("relationships", outcome.RelationshipsFound))

	return outcome
}
