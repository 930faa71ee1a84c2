package multihop

import (
	"encoding/json"

	"github.com/ledgergraph-ai/sdk/graph"
)

// defaultContextLimit bounds how many accumulated items are rendered into a
// step's prompt context. Counts always reflect the full accumulation.
const defaultContextLimit = 50

type contextEntity struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	Name  string `json:"name,omitempty"`
}

type contextRelationship struct {
	Label  string `json:"label"`
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
}

type stepContext struct {
	EntityCount       int                   `json:"entity_count"`
	RelationshipCount int                   `json:"relationship_count"`
	Entities          []contextEntity       `json:"entities"`
	Relationships     []contextRelationship `json:"relationships"`
	Truncated         bool                  `json:"truncated,omitempty"`
}

// Context serializes the accumulation into the step-local context a later
// step's query generation is conditioned on. At most limit entities and
// limit relationships are included (non-positive limit uses the default),
// keeping prompts bounded on evidence-heavy runs.
func (a *Accumulator) Context(limit int) string {
	if limit <= 0 {
		limit = defaultContextLimit
	}

	sc := stepContext{
		EntityCount:       len(a.entities),
		RelationshipCount: len(a.relationships),
		Entities:          make([]contextEntity, 0, min(len(a.entities), limit)),
		Relationships:     make([]contextRelationship, 0, min(len(a.relationships), limit)),
	}

	for i, e := range a.entities {
		if i >= limit {
			sc.Truncated = true
			break
		}
		sc.Entities = append(sc.Entities, contextEntity{
			ID:    e.ID,
			Label: e.Label,
			Name:  e.Name(),
		})
	}

	for i, r := range a.relationships {
		if i >= limit {
			sc.Truncated = true
			break
		}
		sc.Relationships = append(sc.Relationships, contextRelationship{
			Label:  r.Label,
			FromID: r.FromID,
			ToID:   r.ToID,
		})
	}

	data, err := json.Marshal(sc)
	if err != nil {
		// stepContext contains only marshalable fields
		return "{}"
	}
	return string(data)
}

// renderEvidence serializes finalized evidence for the analyzer's prompt.
func renderEvidence(entities []graph.Entity, relationships []graph.Relationship) string {
	type evidence struct {
		Entities      []graph.Entity       `json:"entities"`
		Relationships []graph.Relationship `json:"relationships"`
	}

	data, err := json.Marshal(evidence{
		Entities:      entities,
		Relationships: relationships,
	})
	if err != nil {
		return "{}"
	}
	return string(data)
}
