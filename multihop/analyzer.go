package multihop

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgergraph-ai/sdk/graph"
	"github.com/ledgergraph-ai/sdk/inference"
)

// Analyzer reduces accumulated evidence to an answer and a completeness
// verdict. It performs no retrieval.
type Analyzer interface {
	// Analyze always returns a valid Analysis. Empty evidence yields an
	// incomplete verdict with a non-empty MissingInfo; an inference failure
	// degrades to a counts-based summary rather than an error.
	Analyze(ctx context.Context, question string, entities []graph.Entity, relationships []graph.Relationship) Analysis
}

const analyzeTask = `Assess whether retrieved knowledge graph evidence answers the original question.

Synthesize a direct natural-language answer from the entities and relationships provided. Judge completeness honestly: "complete" only when the evidence fully answers the question, "partial" when it answers some of it, "incomplete" when it does not answer it. Name any information that is still missing.`

// LLMAnalyzer implements Analyzer on the prompted inference port.
type LLMAnalyzer struct {
	inference inference.Client
	logger    *slog.Logger
}

// NewAnalyzer creates an analyzer using the given inference client.
func NewAnalyzer(client inference.Client, logger *slog.Logger) *LLMAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMAnalyzer{
		inference: client,
		logger:    logger,
	}
}

// Analyze implements Analyzer.
func (a *LLMAnalyzer) Analyze(ctx context.Context, question string, entities []graph.Entity, relationships []graph.Relationship) Analysis {
	if len(entities) == 0 && len(relationships) == 0 {
		return Analysis{
			Answer:       "No evidence was retrieved for this question.",
			Completeness: CompletenessIncomplete,
			MissingInfo:  "the retrieval steps produced no entities or relationships; the question remains unanswered",
		}
	}

	req := inference.NewRequest(analyzeTask).
		WithInput("question", question).
		WithInput("evidence", renderEvidence(entities, relationships)).
		WithOutput("answer", "natural-language answer to the question, grounded in the evidence").
		WithOutput("completeness", "exactly one of: complete, partial, incomplete").
		WithOutput("missing_info", "what evidence is still missing, or an empty string if none")

	resp, err := a.inference.Infer(ctx, *req)
	if err != nil {
		// Analysis never fails the run; fall back to a counts-based summary.
		a.logger.Warn("analysis degraded", slog.Any("error", err))
		return Analysis{
			Answer: fmt.Sprintf("Retrieved %d entities and %d relationships relevant to the question, but the evidence could not be analyzed.",
				len(entities), len(relationships)),
			Completeness: CompletenessPartial,
			MissingInfo:  fmt.Sprintf("analysis unavailable: %v", err),
		}
	}

	analysis := Analysis{
		Answer:       resp.Output("answer"),
		Completeness: NormalizeCompleteness(resp.Output("completeness")),
		MissingInfo:  resp.Output("missing_info"),
	}

	a.logger.Debug("evidence analyzed",
		slog.String("completeness", analysis.Completeness.String()),
		slog.Int("entities", len(entities)),
		slog.Int("relationships", len(relationships)))

	return analysis
}
