package multihop

import "fmt"

// Step is one item of a retrieval plan. Steps are produced once by the
// Planner and are immutable thereafter.
type Step struct {
	// StepNumber is the 1-based position of the step in the plan.
	StepNumber int `json:"step_number"`

	// Description states the step's retrieval goal in free text.
	Description string `json:"description"`

	// CypherTemplate is an optional query sketch to be refined into the
	// concrete query at execution time.
	CypherTemplate string `json:"cypher_template,omitempty"`

	// ExpectedEntities hints at the entity labels the step should surface.
	ExpectedEntities []string `json:"expected_entities,omitempty"`
}

// Validate checks that the step is well-formed.
func (s *Step) Validate() error {
	if s.StepNumber < 1 {
		return fmt.Errorf("step number must be positive, got %d", s.StepNumber)
	}
	if s.Description == "" {
		return fmt.Errorf("step description cannot be empty")
	}
	return nil
}
