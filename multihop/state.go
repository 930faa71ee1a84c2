package multihop

// State identifies a phase of an orchestrated run.
// Runs progress planning -> executing -> analyzing -> done; failed is
// reachable only from a plan parse failure.
type State string

const (
	// StatePlanning covers plan generation from the question.
	StatePlanning State = "planning"

	// StateExecuting covers per-step query generation and execution.
	StateExecuting State = "executing"

	// StateAnalyzing covers evidence-to-answer reduction.
	StateAnalyzing State = "analyzing"

	// StateDone is the normal terminal state.
	StateDone State = "done"

	// StateFailed is the terminal state of a run whose plan could not be
	// parsed. Hop failures never lead here.
	StateFailed State = "failed"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsValid checks if the state is a recognized value.
func (s State) IsValid() bool {
	switch s {
	case StatePlanning, StateExecuting, StateAnalyzing, StateDone, StateFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the state ends a run.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}
