package multihop

// HopOutcome records what happened when one plan step executed.
// One outcome is appended per executed step, in execution order, and is
// never mutated after creation.
type HopOutcome struct {
	// StepNumber is the executed step's plan position.
	StepNumber int `json:"step_number"`

	// Description is the executed step's retrieval goal.
	Description string `json:"description"`

	// CypherQuery is the concrete query generated for the step.
	// Empty when query generation itself failed.
	CypherQuery string `json:"cypher_query,omitempty"`

	// Reasoning is the generator's stated rationale for the query.
	Reasoning string `json:"reasoning,omitempty"`

	// EntitiesFound counts the entities the step's query returned.
	EntitiesFound int `json:"entities_found"`

	// RelationshipsFound counts the relationships the step's query returned.
	RelationshipsFound int `json:"relationships_found"`

	// Error describes the step's failure, if any. A failed hop contributes
	// nothing to the accumulated results but does not end the run.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the hop recorded an error.
func (h HopOutcome) Failed() bool {
	return h.Error != ""
}
