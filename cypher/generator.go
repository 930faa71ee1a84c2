package cypher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledgergraph-ai/sdk/graph"
	"github.com/ledgergraph-ai/sdk/guard"
	"github.com/ledgergraph-ai/sdk/inference"
	"github.com/ledgergraph-ai/sdk/schema"
)

// Query type labels recorded on results.
const (
	// QueryTypeStandard marks a question translated by the standard task.
	QueryTypeStandard = "standard"

	// QueryTypeTemporal marks a question routed through the time-aware task.
	QueryTypeTemporal = "temporal"
)

const translateTask = `Convert a natural language question about financial entities into one openCypher query for a knowledge graph.

Query guidelines:
1. Always RETURN DISTINCT both the matched node objects and their specific properties, for example "RETURN DISTINCT c, c.name, c.sector" rather than just "RETURN c" or just "RETURN c.name".
2. Use case-insensitive matching for text fields: toLower(c.sector) = toLower('financial services'), or CONTAINS for partial matches.
3. Prefer fuzzy matching over exact equality, and use OR conditions for related terms such as 'financial', 'banking', 'finance', 'investment' or 'technology', 'tech', 'software', 'IT'.
4. Handle common variations in the data ('Financial Services' vs 'finance', 'Healthcare' vs 'health care').
5. Generate a read-only query. Use MATCH, WHERE, RETURN, ORDER BY, LIMIT only.`

const temporalTask = `Convert a temporal natural language question about financial events into one time-aware openCypher query for a knowledge graph.

Handle time ranges ("in 2023", "last quarter", "since 2020"), temporal relationships ("before merger", "after CEO change"), historical comparisons ("rating changes over time"), and event sequences ("mergers followed by regulatory actions"). Filter on the date properties the schema provides (valid_from, valid_to, announced_date, completed_date, event_date, start_date, end_date).

Follow the standard query guidelines: RETURN DISTINCT node objects with their properties, case-insensitive fuzzy matching, read-only clauses only.`

// Result records one translation attempt. Failures are captured in Error
// with the elapsed time rather than raised; a Result is always complete.
type Result struct {
	// Query is the original question.
	Query string `json:"query"`

	// CypherQuery is the generated query, when generation succeeded.
	CypherQuery string `json:"cypher_query,omitempty"`

	// Reasoning explains how the query maps to the graph structure. For
	// temporal questions it covers the temporal filtering approach.
	Reasoning string `json:"reasoning,omitempty"`

	// QueryType is QueryTypeStandard or QueryTypeTemporal.
	QueryType string `json:"query_type"`

	// TimeContext is the extracted temporal context, for temporal questions.
	TimeContext string `json:"time_context,omitempty"`

	// ExecutionTime is the elapsed translation time in seconds, populated on
	// success and failure alike.
	ExecutionTime float64 `json:"execution_time"`

	// Error describes the failure, if any.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the translation recorded an error.
func (r *Result) Failed() bool {
	return r.Error != ""
}

// Run executes the generated query on the graph client. The query was
// already screened during translation; running a failed or empty result
// returns an error.
func (r *Result) Run(ctx context.Context, client graph.Client) (*graph.QueryResult, error) {
	if r.Failed() {
		return nil, fmt.Errorf("cannot run failed translation: %s", r.Error)
	}
	if r.CypherQuery == "" {
		return nil, errors.New("no query to run")
	}
	return client.Query(ctx, r.CypherQuery, nil)
}

// Generator translates questions into screened openCypher queries on the
// prompted inference port.
type Generator struct {
	inference inference.Client
	schema    *schema.Schema
	policy    *guard.Policy
	logger    *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithSchema sets the graph vocabulary rendered into prompts.
func WithSchema(s *schema.Schema) Option {
	return func(g *Generator) {
		g.schema = s
	}
}

// WithPolicy sets the policy generated queries are screened through.
// Passing nil disables screening.
func WithPolicy(p *guard.Policy) Option {
	return func(g *Generator) {
		g.policy = p
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator creates a generator with the default schema vocabulary and
// the default read-only query policy.
func NewGenerator(client inference.Client, opts ...Option) *Generator {
	g := &Generator{
		inference: client,
		schema:    schema.Default(),
		policy:    guard.DefaultPolicy(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.schema == nil {
		g.schema = schema.Default()
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Translate generates one query for the question. Temporal questions are
// detected and routed through the time-aware task automatically.
func (g *Generator) Translate(ctx context.Context, question string) *Result {
	start := time.Now()
	result := &Result{
		Query:     question,
		QueryType: QueryTypeStandard,
	}

	if strings.TrimSpace(question) == "" {
		result.Error = "question is empty"
		result.ExecutionTime = time.Since(start).Seconds()
		return result
	}

	var req *inference.Request
	reasoningField := "reasoning"
	if IsTemporal(question) {
		result.QueryType = QueryTypeTemporal
		result.TimeContext = TimeContext(question)
		reasoningField = "temporal_reasoning"
		req = inference.NewRequest(temporalTask).
			WithInput("natural_query", question).
			WithInput("time_context", result.TimeContext).
			WithInput("schema_context", g.schema.PromptContext()).
			WithOutput("cypher_query", "time-aware openCypher query with proper temporal filtering").
			WithOutput("temporal_reasoning", "explanation of the temporal logic and filtering approach")
	} else {
		req = inference.NewRequest(translateTask).
			WithInput("natural_query", question).
			WithInput("schema_context", g.schema.PromptContext()).
			WithOutput("cypher_query", "openCypher query that retrieves the requested information").
			WithOutput("reasoning", "brief explanation of how the query maps to the graph structure")
	}

	resp, err := g.inference.Infer(ctx, *req)
	if err != nil {
		g.logger.Warn("translation failed",
			slog.String("question", question),
			slog.Any("error", err))
		result.Error = fmt.Sprintf("query generation failed: %v", err)
		result.ExecutionTime = time.Since(start).Seconds()
		return result
	}

	cypherQuery := strings.TrimSpace(resp.Output("cypher_query"))
	result.Reasoning = resp.Output(reasoningField)

	if cypherQuery == "" {
		result.Error = "generated query is empty"
		result.ExecutionTime = time.Since(start).Seconds()
		return result
	}

	if g.policy != nil {
		if err := g.policy.Check(cypherQuery); err != nil {
			// Keep the rejected query inspectable on the result.
			result.CypherQuery = cypherQuery
			result.Error = err.Error()
			result.ExecutionTime = time.Since(start).Seconds()
			return result
		}
	}

	result.CypherQuery = cypherQuery
	result.ExecutionTime = time.Since(start).Seconds()

	g.logger.Debug("question translated",
		slog.String("query_type", result.QueryType),
		slog.Float64("execution_time", result.ExecutionTime))

	return result
}
