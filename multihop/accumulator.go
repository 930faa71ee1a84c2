package multihop

import (
	"github.com/ledgergraph-ai/sdk/graph"
)

// Accumulator holds the running entity and relationship sequences of one
// run, fed incrementally after each hop. Insertion order is discovery order.
//
// An Accumulator belongs to exactly one run and is not safe for concurrent
// use; concurrent runs each own their own.
type Accumulator struct {
	entities      []graph.Entity
	relationships []graph.Relationship
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		entities:      make([]graph.Entity, 0),
		relationships: make([]graph.Relationship, 0),
	}
}

// Add appends a query result's entities and relationships.
func (a *Accumulator) Add(result *graph.QueryResult) {
	if result == nil {
		return
	}
	a.entities = append(a.entities, result.Entities...)
	a.relationships = append(a.relationships, result.Relationships...)
}

// Entities returns a copy of the raw entity sequence, duplicates included.
func (a *Accumulator) Entities() []graph.Entity {
	out := make([]graph.Entity, len(a.entities))
	copy(out, a.entities)
	return out
}

// Relationships returns a copy of the relationship sequence.
// Relationships are never deduplicated: the same edge rediscovered by a
// later hop may carry different evidence and both occurrences are kept.
func (a *Accumulator) Relationships() []graph.Relationship {
	out := make([]graph.Relationship, len(a.relationships))
	copy(out, a.relationships)
	return out
}

// FinalEntities returns the entity sequence deduplicated by ID.
func (a *Accumulator) FinalEntities() []graph.Entity {
	return DedupeEntities(a.entities)
}

// Counts returns the raw entity and relationship counts.
func (a *Accumulator) Counts() (entities, relationships int) {
	return len(a.entities), len(a.relationships)
}

// DedupeEntities deduplicates entities by ID. The first occurrence of an ID
// wins and first-occurrence order is preserved. The operation is idempotent:
// applying it to its own output returns the same sequence.
func DedupeEntities(entities []graph.Entity) []graph.Entity {
	seen := make(map[string]bool, len(entities))
	out := make([]graph.Entity, 0, len(entities))

	for _, e := range entities {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}

	return out
}
