package multihop

import (
	"encoding/json"

	"github.com/ledgergraph-ai/sdk/graph"
)

// Result is the terminal record of one orchestrated run. It is created once
// per run and owned exclusively by the caller after it is returned.
type Result struct {
	// Query is the original question.
	Query string `json:"query"`

	// Reasoning is the consolidated narrative: the plan rationale followed
	// by the final analysis.
	Reasoning string `json:"reasoning"`

	// Hops lists the per-step outcomes in execution order.
	Hops []HopOutcome `json:"hops"`

	// FinalNodes is the deduplicated entity list, in discovery order.
	FinalNodes []graph.Entity `json:"final_nodes"`

	// FinalEdges is the full relationship list. Relationships are never
	// deduplicated; duplicates across hops may carry different evidence.
	FinalEdges []graph.Relationship `json:"final_edges"`

	// ExecutionTime is the start-to-finish wall clock of the run, in seconds.
	ExecutionTime float64 `json:"execution_time"`

	// CypherQueries lists the concrete queries the run produced, in order.
	CypherQueries []string `json:"cypher_queries"`

	// Error is the top-level failure, when the run could not complete
	// normally. Per-hop failures live in Hops, not here.
	Error string `json:"error,omitempty"`

	// Analysis is the structured completeness verdict, when analysis ran.
	Analysis *Analysis `json:"analysis,omitempty"`
}

// Failed reports whether the run recorded a top-level error.
func (r *Result) Failed() bool {
	return r.Error != ""
}

// FailedHops returns the outcomes of hops that recorded errors.
func (r *Result) FailedHops() []HopOutcome {
	failed := make([]HopOutcome, 0)
	for _, hop := range r.Hops {
		if hop.Failed() {
			failed = append(failed, hop)
		}
	}
	return failed
}

// ToJSON serializes the result.
func (r *Result) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// Analysis is the Analyzer's reduction of accumulated evidence.
type Analysis struct {
	// Answer is the natural-language answer synthesized from the evidence.
	Answer string `json:"answer"`

	// Completeness classifies how well the evidence answers the question.
	Completeness Completeness `json:"completeness"`

	// MissingInfo describes what evidence is still missing, if any.
	MissingInfo string `json:"missing_info,omitempty"`
}
