package multihop

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ledgergraph-ai/sdk/graph"
	"github.com/ledgergraph-ai/sdk/guard"
	"github.com/ledgergraph-ai/sdk/inference"
	"github.com/ledgergraph-ai/sdk/schema"
)

// DefaultMaxHops bounds execution when the caller does not specify a limit.
const DefaultMaxHops = 3

// Orchestrator sequences planning, per-step execution, accumulation, and
// analysis for one question at a time. It holds no per-run state, so a
// single Orchestrator may serve concurrent runs as long as its ports are
// safe for concurrent use.
type Orchestrator struct {
	planner  Planner
	executor StepExecutor
	analyzer Analyzer
	logger   *slog.Logger
	tracer   trace.Tracer
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*orchestratorConfig)

type orchestratorConfig struct {
	schema       *schema.Schema
	policy       *guard.Policy
	logger       *slog.Logger
	tracer       trace.Tracer
	contextLimit int

	planner  Planner
	executor StepExecutor
	analyzer Analyzer
}

// WithSchema sets the graph vocabulary rendered into prompts.
func WithSchema(s *schema.Schema) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.schema = s
	}
}

// WithPolicy sets the policy generated queries are screened through.
// Passing nil disables screening.
func WithPolicy(p *guard.Policy) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.policy = p
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.logger = logger
	}
}

// WithTracer sets the tracer used for run and hop spans.
func WithTracer(tracer trace.Tracer) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.tracer = tracer
	}
}

// WithContextLimit bounds how many accumulated items are rendered into each
// step's prompt context.
func WithContextLimit(limit int) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.contextLimit = limit
	}
}

// WithPlanner replaces the default planner.
func WithPlanner(p Planner) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.planner = p
	}
}

// WithStepExecutor replaces the default step executor.
func WithStepExecutor(e StepExecutor) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.executor = e
	}
}

// WithAnalyzer replaces the default analyzer.
func WithAnalyzer(a Analyzer) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.analyzer = a
	}
}

// NewOrchestrator creates an orchestrator over the two ports. By default it
// uses the LLM planner/executor/analyzer, the default schema vocabulary, and
// the default read-only query policy.
func NewOrchestrator(client inference.Client, g graph.Client, opts ...OrchestratorOption) *Orchestrator {
	config := orchestratorConfig{
		policy:       guard.DefaultPolicy(),
		logger:       slog.Default(),
		tracer:       noop.NewTracerProvider().Tracer("ledgergraph-multihop"),
		contextLimit: defaultContextLimit,
	}
	for _, opt := range opts {
		opt(&config)
	}

	if config.planner == nil {
		config.planner = NewPlanner(client, config.schema, config.logger)
	}
	if config.executor == nil {
		executor := NewStepExecutor(client, g, config.policy, config.schema, config.logger)
		executor.contextLimit = config.contextLimit
		config.executor = executor
	}
	if config.analyzer == nil {
		config.analyzer = NewAnalyzer(client, config.logger)
	}

	return &Orchestrator{
		planner:  config.planner,
		executor: config.executor,
		analyzer: config.analyzer,
		logger:   config.logger,
		tracer:   config.tracer,
	}
}

// Run executes one orchestrated retrieval for the question. A non-positive
// maxHops uses DefaultMaxHops. Run always returns a well-formed Result: all
// failures, including panics in the run's own machinery, are converted into
// the result's error fields rather than propagated.
//
// Run blocks until the run finishes; callers wanting timeouts impose them
// through ctx around the whole call. Hops are never retried.
func (o *Orchestrator) Run(ctx context.Context, question string, maxHops int) (result *Result) {
	start := time.Now()
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}

	runID := uuid.NewString()
	state := StatePlanning
	acc := NewAccumulator()

	result = &Result{
		Query:         question,
		Hops:          []HopOutcome{},
		FinalNodes:    []graph.Entity{},
		FinalEdges:    []graph.Relationship{},
		CypherQueries: []string{},
	}

	ctx, span := o.tracer.Start(ctx, "multihop.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("run.max_hops", maxHops),
	))

	defer func() {
		if r := recover(); r != nil {
			// Salvage whatever the run accumulated before the fault.
			o.logger.Error("run recovered from unexpected failure",
				slog.String("run_id", runID),
				slog.String("state", state.String()),
				slog.Any("panic", r))
			result.Error = fmt.Sprintf("unexpected failure during %s: %v", state, r)
			result.FinalNodes = DedupeEntities(acc.Entities())
			result.FinalEdges = acc.Relationships()
			span.SetStatus(codes.Error, result.Error)
		}
		result.ExecutionTime = time.Since(start).Seconds()
		span.SetAttributes(
			attribute.Int("run.hops", len(result.Hops)),
			attribute.Int("run.final_nodes", len(result.FinalNodes)),
			attribute.Int("run.final_edges", len(result.FinalEdges)),
		)
		span.End()
	}()

	o.logger.Info("run started",
		slog.String("run_id", runID),
		slog.String("question", question),
		slog.Int("max_hops", maxHops))

	// PLANNING
	plan, reasoning, err := o.plan(ctx, question)
	if err != nil {
		state = StateFailed
		result.Error = err.Error()
		span.SetStatus(codes.Error, result.Error)
		o.logger.Error("run failed during planning",
			slog.String("run_id", runID),
			slog.Any("error", err))
		return result
	}
	result.Reasoning = reasoning

	// EXECUTING: only the first min(len(plan), maxHops) steps run; the
	// rest of the plan is discarded, not deferred.
	state = StateExecuting
	hops := min(len(plan), maxHops)
	for i := 0; i < hops; i++ {
		outcome := o.executeStep(ctx, plan[i], acc)
		result.Hops = append(result.Hops, outcome)
		if outcome.CypherQuery != "" {
			result.CypherQueries = append(result.CypherQueries, outcome.CypherQuery)
		}
	}

	// ANALYZING: always reached, whatever the hops did.
	state = StateAnalyzing
	result.FinalNodes = DedupeEntities(acc.Entities())
	result.FinalEdges = acc.Relationships()

	analysis := o.analyze(ctx, question, result.FinalNodes, result.FinalEdges)
	result.Analysis = &analysis
	result.Reasoning = consolidateReasoning(reasoning, analysis)

	state = StateDone
	o.logger.Info("run finished",
		slog.String("run_id", runID),
		slog.String("state", state.String()),
		slog.Int("hops", len(result.Hops)),
		slog.Int("final_nodes", len(result.FinalNodes)),
		slog.Int("final_edges", len(result.FinalEdges)),
		slog.String("completeness", analysis.Completeness.String()))

	return result
}

func (o *Orchestrator) plan(ctx context.Context, question string) ([]Step, string, error) {
	ctx, span := o.tracer.Start(ctx, "multihop.plan")
	defer span.End()

	plan, reasoning, err := o.planner.Plan(ctx, question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "plan parsing failed")
		return nil, "", err
	}

	span.SetAttributes(attribute.Int("plan.steps", len(plan)))
	return plan, reasoning, nil
}

func (o *Orchestrator) executeStep(ctx context.Context, step Step, acc *Accumulator) HopOutcome {
	ctx, span := o.tracer.Start(ctx, "multihop.hop", trace.WithAttributes(
		attribute.Int("hop.step_number", step.StepNumber),
	))
	defer span.End()

	outcome := o.executor.ExecuteStep(ctx, step, acc)
	if outcome.Failed() {
		span.SetStatus(codes.Error, outcome.Error)
	}
	span.SetAttributes(
		attribute.Int("hop.entities_found", outcome.EntitiesFound),
		attribute.Int("hop.relationships_found", outcome.RelationshipsFound),
	)
	return outcome
}

func (o *Orchestrator) analyze(ctx context.Context, question string, entities []graph.Entity, relationships []graph.Relationship) Analysis {
	ctx, span := o.tracer.Start(ctx, "multihop.analyze")
	defer span.End()

	analysis := o.analyzer.Analyze(ctx, question, entities, relationships)
	span.SetAttributes(attribute.String("analysis.completeness", analysis.Completeness.String()))
	return analysis
}

// consolidateReasoning merges the plan rationale and the final analysis into
// the result's reasoning narrative.
func consolidateReasoning(planReasoning string, analysis Analysis) string {
	narrative := planReasoning
	if narrative != "" {
		narrative += "\n\n"
	}
	narrative += "Answer: " + analysis.Answer
	narrative += "\nCompleteness: " + analysis.Completeness.String()
	if analysis.MissingInfo != "" {
		narrative += "\nMissing: " + analysis.MissingInfo
	}
	return narrative
}
