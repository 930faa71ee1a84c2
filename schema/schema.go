package schema

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// NodeDef describes one node label and the property keys it carries.
type NodeDef struct {
	// Label is the node label as it appears in the graph (e.g., "Company").
	Label string `yaml:"label" json:"label"`

	// Properties lists the known property keys for this label.
	Properties []string `yaml:"properties" json:"properties"`
}

// RelationshipDef describes one relationship type between two node labels.
type RelationshipDef struct {
	// Type is the relationship type as it appears in the graph (e.g., "EMPLOYED_BY").
	Type string `yaml:"type" json:"type"`

	// From is the label of the source node.
	From string `yaml:"from" json:"from"`

	// To is the label of the target node.
	To string `yaml:"to" json:"to"`

	// Properties lists the known property keys on the relationship, if any.
	Properties []string `yaml:"properties,omitempty" json:"properties,omitempty"`

	// Note disambiguates relationships that share endpoints
	// (e.g., PARTICIPATES_IN "as acquirer" vs TARGET_OF "as target").
	Note string `yaml:"note,omitempty" json:"note,omitempty"`
}

// Schema is the graph vocabulary rendered into inference prompts.
type Schema struct {
	Nodes         []NodeDef         `yaml:"nodes" json:"nodes"`
	Relationships []RelationshipDef `yaml:"relationships" json:"relationships"`
}

// Default returns the LedgerGraph financial knowledge graph vocabulary.
func Default() *Schema {
	return &Schema{
		Nodes: []NodeDef{
			{
				Label:      "Company",
				Properties: []string{"id", "name", "ticker", "sector", "industry", "market_cap", "founded_year", "headquarters"},
			},
			{
				Label:      "Person",
				Properties: []string{"id", "name", "title", "age", "nationality", "education"},
			},
			{
				Label:      "Rating",
				Properties: []string{"id", "rating", "rating_agency", "rating_type", "valid_from", "valid_to"},
			},
			{
				Label:      "Transaction",
				Properties: []string{"id", "type", "value", "currency", "status", "announced_date", "completed_date", "description"},
			},
			{
				Label:      "RegulatoryEvent",
				Properties: []string{"id", "event_type", "regulator", "description", "amount", "currency", "event_date", "resolution_date", "status"},
			},
		},
		Relationships: []RelationshipDef{
			{
				Type:       "EMPLOYED_BY",
				From:       "Person",
				To:         "Company",
				Properties: []string{"position", "start_date", "end_date", "salary"},
			},
			{
				Type: "HAS_RATING",
				From: "Company",
				To:   "Rating",
			},
			{
				Type: "PARTICIPATES_IN",
				From: "Company",
				To:   "Transaction",
				Note: "as acquirer",
			},
			{
				Type: "TARGET_OF",
				From: "Company",
				To:   "Transaction",
				Note: "as target",
			},
			{
				Type: "SUBJECT_TO",
				From: "Company",
				To:   "RegulatoryEvent",
			},
		},
	}
}

// Load reads a schema vocabulary from a YAML file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema in %s: %w", path, err)
	}

	return &s, nil
}

// Validate checks that the vocabulary is internally consistent: labels are
// non-empty and unique, and relationship endpoints refer to defined labels.
func (s *Schema) Validate() error {
	if len(s.Nodes) == 0 {
		return fmt.Errorf("schema must define at least one node label")
	}

	labels := make(map[string]bool, len(s.Nodes))
	for i, n := range s.Nodes {
		if n.Label == "" {
			return fmt.Errorf("node %d has an empty label", i)
		}
		if labels[n.Label] {
			return fmt.Errorf("duplicate node label: %s", n.Label)
		}
		labels[n.Label] = true
	}

	types := make(map[string]bool, len(s.Relationships))
	for i, r := range s.Relationships {
		if r.Type == "" {
			return fmt.Errorf("relationship %d has an empty type", i)
		}
		if types[r.Type] {
			return fmt.Errorf("duplicate relationship type: %s", r.Type)
		}
		types[r.Type] = true

		if !labels[r.From] {
			return fmt.Errorf("relationship %s references unknown source label: %s", r.Type, r.From)
		}
		if !labels[r.To] {
			return fmt.Errorf("relationship %s references unknown target label: %s", r.Type, r.To)
		}
	}

	return nil
}

// NodeLabels returns the defined node labels in declaration order.
func (s *Schema) NodeLabels() []string {
	labels := make([]string, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		labels = append(labels, n.Label)
	}
	return labels
}

// RelationshipTypes returns the defined relationship types in declaration order.
func (s *Schema) RelationshipTypes() []string {
	types := make([]string, 0, len(s.Relationships))
	for _, r := range s.Relationships {
		types = append(types, r.Type)
	}
	return types
}

// HasLabel reports whether the vocabulary defines the given node label.
func (s *Schema) HasLabel(label string) bool {
	for _, n := range s.Nodes {
		if n.Label == label {
			return true
		}
	}
	return false
}

// PromptContext renders the vocabulary as the plain-text block handed to
// inference prompts.
func (s *Schema) PromptContext() string {
	var b strings.Builder

	b.WriteString("The knowledge graph contains:\n")
	for _, n := range s.Nodes {
		fmt.Fprintf(&b, "- %s nodes (%s)\n", n.Label, strings.Join(n.Properties, ", "))
	}

	b.WriteString("\nRelationships:\n")
	for _, r := range s.Relationships {
		fmt.Fprintf(&b, "- %s: %s -> %s", r.Type, r.From, r.To)
		if len(r.Properties) > 0 {
			fmt.Fprintf(&b, " (with %s)", strings.Join(r.Properties, ", "))
		}
		if r.Note != "" {
			fmt.Fprintf(&b, " (%s)", r.Note)
		}
		b.WriteString("\n")
	}

	return b.String()
}
