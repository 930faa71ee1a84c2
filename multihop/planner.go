package multihop

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/ledgergraph-ai/sdk/inference"
	"github.com/ledgergraph-ai/sdk/schema"
)

// Planner turns a question into an ordered retrieval plan.
type Planner interface {
	// Plan returns the ordered steps and the free-text rationale for the
	// overall strategy. A *PlanParseError means the model's output could not
	// be parsed into a plan at all; a parsed-but-degenerate structure yields
	// an empty plan with no error.
	Plan(ctx context.Context, question string) ([]Step, string, error)
}

const planTask = `Decompose a question about a financial knowledge graph into an ordered sequence of retrieval steps.

Each step retrieves one layer of evidence from the graph; later steps build on what earlier steps found. Start broad (locate the anchor entities), then follow relationships outward. Two to four steps answer most questions. Only plan steps the schema can support.`

// LLMPlanner implements Planner on the prompted inference port.
type LLMPlanner struct {
	inference inference.Client
	schema    *schema.Schema
	logger    *slog.Logger
}

// NewPlanner creates a planner using the given inference client and schema.
func NewPlanner(client inference.Client, s *schema.Schema, logger *slog.Logger) *LLMPlanner {
	if s == nil {
		s = schema.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMPlanner{
		inference: client,
		schema:    s,
		logger:    logger,
	}
}

// Plan implements Planner.
func (p *LLMPlanner) Plan(ctx context.Context, question string) ([]Step, string, error) {
	if question == "" {
		return nil, "", &PlanParseError{Reason: "question is empty"}
	}

	req := inference.NewRequest(planTask).
		WithInput("question", question).
		WithInput("schema_context", p.schema.PromptContext()).
		WithOutput("plan", `JSON array of steps, each an object with "step_number" (int), "description" (string), "cypher_template" (string, optional query sketch), "expected_entities" (array of entity labels)`).
		WithOutput("reasoning", "short explanation of the overall retrieval strategy")

	resp, err := p.inference.Infer(ctx, *req)
	if err != nil {
		// An inference failure is treated the same as malformed output.
		var outErr *inference.OutputError
		if errors.As(err, &outErr) {
			return nil, "", &PlanParseError{RawOutput: outErr.Raw, Reason: outErr.Reason, Err: outErr.Err}
		}
		return nil, "", &PlanParseError{Reason: "inference failed", Err: err}
	}

	steps, err := parsePlanField(resp.Output("plan"), p.logger)
	if err != nil {
		return nil, "", err
	}
	reasoning := resp.Output("reasoning")

	p.logger.Debug("retrieval plan built",
		slog.Int("steps", len(steps)),
		slog.String("question", question))

	return steps, reasoning, nil
}

// parsePlanField turns the model's plan field into steps. A missing field is
// an empty plan. A non-empty field that is not valid JSON at all fails with
// *PlanParseError; valid JSON that is not a list, or list elements that are
// not steps, degrade to an empty/shorter plan rather than an error.
func parsePlanField(planField string, logger *slog.Logger) ([]Step, error) {
	if strings.TrimSpace(planField) == "" {
		logger.Warn("model returned no plan field, treating as empty plan")
		return []Step{}, nil
	}
	if !json.Valid([]byte(planField)) {
		return nil, &PlanParseError{
			RawOutput: planField,
			Reason:    "plan field is not valid JSON",
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(planField), &items); err != nil {
		logger.Warn("plan is not a list, treating as empty plan",
			slog.String("plan_field", truncate(planField, 120)))
		return []Step{}, nil
	}

	steps := make([]Step, 0, len(items))
	for i, item := range items {
		var step Step
		if err := json.Unmarshal(item, &step); err != nil {
			logger.Warn("skipping non-step plan element", slog.Int("index", i))
			continue
		}
		if step.Description == "" {
			logger.Warn("skipping plan element without description", slog.Int("index", i))
			continue
		}
		if step.StepNumber < 1 {
			step.StepNumber = i + 1
		}
		steps = append(steps, step)
	}

	// Execution order is ascending step number regardless of list order.
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].StepNumber < steps[j].StepNumber
	})

	return steps, nil
}

// truncate shortens a string for log output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
