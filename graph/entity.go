package graph

import "errors"

// Entity represents a typed, identified node retrieved from the knowledge graph.
// Two entities with the same ID are the same logical entity; result
// accumulation merges them rather than duplicating.
type Entity struct {
	// ID is the entity identifier, unique within a retrieval run.
	ID string `json:"id"`

	// Label is the node type tag (e.g., "Company", "Person", "Rating").
	Label string `json:"label"`

	// Properties contains the node's key-value properties.
	Properties map[string]any `json:"properties,omitempty"`
}

// NewEntity creates a new Entity with the specified label and an initialized
// Properties map.
func NewEntity(label string) *Entity {
	return &Entity{
		Label:      label,
		Properties: make(map[string]any),
	}
}

// WithID sets the entity ID and returns the entity for method chaining.
func (e *Entity) WithID(id string) *Entity {
	e.ID = id
	return e
}

// WithProperty sets a single property and returns the entity for method chaining.
// If the Properties map is nil, it will be initialized.
func (e *Entity) WithProperty(key string, value any) *Entity {
	if e.Properties == nil {
		e.Properties = make(map[string]any)
	}
	e.Properties[key] = value
	return e
}

// WithProperties sets multiple properties and returns the entity for method chaining.
// This replaces the entire Properties map.
func (e *Entity) WithProperties(props map[string]any) *Entity {
	e.Properties = props
	return e
}

// Name returns the entity's "name" property, or an empty string when unset.
// Most financial graph nodes carry one.
func (e *Entity) Name() string {
	if e.Properties == nil {
		return ""
	}
	if name, ok := e.Properties["name"].(string); ok {
		return name
	}
	return ""
}

// Validate checks that the entity has all required fields set correctly.
// Returns an error if ID or Label is empty.
func (e *Entity) Validate() error {
	if e.ID == "" {
		return errors.New("entity ID is required")
	}
	if e.Label == "" {
		return errors.New("entity label is required")
	}
	return nil
}
