package multihop

import "fmt"

// PlanParseError reports model output that could not be parsed into a
// retrieval plan. It is fatal to the run: zero hops execute and the
// orchestrator returns a result with the error populated. The raw output is
// preserved for diagnostics.
type PlanParseError struct {
	// RawOutput is the unparsed model text, when available.
	RawOutput string

	// Reason describes the parse failure.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *PlanParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan parsing failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("plan parsing failed: %s", e.Reason)
}

// Unwrap returns the underlying error.
func (e *PlanParseError) Unwrap() error {
	return e.Err
}

// Hop failure stages, recorded in HopError.
const (
	// StageGenerate covers query generation via the inference port.
	StageGenerate = "generate"

	// StagePolicy covers rejection of a generated query by the query policy.
	StagePolicy = "policy"

	// StageExecute covers query execution against the graph backend.
	StageExecute = "execute"
)

// HopError reports a single step's failure. It is recorded in the step's
// HopOutcome; later steps still execute.
type HopError struct {
	// StepNumber identifies the failed step.
	StepNumber int

	// Stage is the phase that failed: generate, policy, or execute.
	Stage string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HopError) Error() string {
	return fmt.Sprintf("hop %d failed during %s: %v", e.StepNumber, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *HopError) Unwrap() error {
	return e.Err
}
