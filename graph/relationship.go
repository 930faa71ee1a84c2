package graph

import "fmt"

// Relationship represents a typed connection between two entities.
// FromID and ToID are weak references: they may point at entities that were
// filtered out of a later result set, and nothing here enforces otherwise.
// Duplicate relationships across retrieval hops are retained, since each
// occurrence may carry different evidence.
type Relationship struct {
	// ID is the relationship identifier.
	ID string `json:"id"`

	// FromID is the source entity ID.
	FromID string `json:"from_id"`

	// ToID is the target entity ID.
	ToID string `json:"to_id"`

	// Label describes the relationship type (e.g., "EMPLOYED_BY", "HAS_RATING").
	Label string `json:"label"`

	// Properties contains optional relationship metadata.
	Properties map[string]any `json:"properties,omitempty"`
}

// NewRelationship creates a new Relationship with the specified source,
// target, and label, and an initialized Properties map.
func NewRelationship(fromID, toID, label string) *Relationship {
	return &Relationship{
		FromID:     fromID,
		ToID:       toID,
		Label:      label,
		Properties: make(map[string]any),
	}
}

// WithID sets the relationship ID and returns the relationship for chaining.
func (r *Relationship) WithID(id string) *Relationship {
	r.ID = id
	return r
}

// WithProperty adds a single property to the relationship and returns the
// relationship for chaining.
func (r *Relationship) WithProperty(key string, value any) *Relationship {
	if r.Properties == nil {
		r.Properties = make(map[string]any)
	}
	r.Properties[key] = value
	return r
}

// WithProperties sets multiple properties on the relationship and returns the
// relationship for chaining. This replaces any existing properties.
func (r *Relationship) WithProperties(props map[string]any) *Relationship {
	r.Properties = props
	return r
}

// Validate checks that the relationship has all required fields populated.
// Returns an error if FromID, ToID, or Label are empty.
func (r *Relationship) Validate() error {
	if r.FromID == "" {
		return fmt.Errorf("relationship FromID cannot be empty")
	}
	if r.ToID == "" {
		return fmt.Errorf("relationship ToID cannot be empty")
	}
	if r.Label == "" {
		return fmt.Errorf("relationship Label cannot be empty")
	}
	return nil
}
