package eval

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledgergraph-ai/sdk/graph"
)

// CoverageScorer measures how much of the expected evidence appears in the
// final node set of a retrieval result. The score is the recall of expected
// entities: matched / expected.
//
// An expected entry matches a node when it equals the node ID
// (case-insensitive) or when the node's name property contains it.
type CoverageScorer struct {
	options CoverageOptions
}

// CoverageOptions configures the coverage scorer.
type CoverageOptions struct {
	// Expected lists the entity names or IDs the evidence should contain.
	// If nil or empty, the scorer uses sample.ExpectedEntities instead.
	Expected []string

	// NameProperty is the node property holding the entity name.
	// Default is "name".
	NameProperty string
}

// NewCoverageScorer creates an evidence coverage scorer with the given options.
func NewCoverageScorer(opts CoverageOptions) Scorer {
	if opts.NameProperty == "" {
		opts.NameProperty = "name"
	}
	return &CoverageScorer{options: opts}
}

// Name returns the scorer name.
func (s *CoverageScorer) Name() string {
	return "coverage"
}

// Score evaluates the evidence coverage of the sample's retrieval result.
func (s *CoverageScorer) Score(ctx context.Context, sample Sample) (ScoreResult, error) {
	result := sample.Result
	if result == nil {
		return ScoreResult{}, fmt.Errorf("sample %s has no retrieval result", sample.ID)
	}

	expected := s.options.Expected
	if len(expected) == 0 {
		expected = sample.ExpectedEntities
	}

	// Nothing to compare against: perfect score with a warning, so samples
	// without expectations don't drag down a suite.
	if len(expected) == 0 {
		return ScoreResult{
			Score: 1.0,
			Details: map[string]any{
				"warning": "no expected entities provided",
			},
		}, nil
	}

	matched := make([]string, 0, len(expected))
	missing := make([]string, 0)

	for _, want := range expected {
		if s.covered(want, result.FinalNodes) {
			matched = append(matched, want)
		} else {
			missing = append(missing, want)
		}
	}

	score := float64(len(matched)) / float64(len(expected))

	details := map[string]any{
		"matched":        matched,
		"expected_count": len(expected),
		"found_count":    len(result.FinalNodes),
	}
	if len(missing) > 0 {
		details["missing"] = missing
	}

	return ScoreResult{Score: score, Details: details}, nil
}

// covered reports whether any node in nodes matches the expected entry.
func (s *CoverageScorer) covered(want string, nodes []graph.Entity) bool {
	wantLower := strings.ToLower(strings.TrimSpace(want))
	if wantLower == "" {
		return false
	}

	for _, node := range nodes {
		if strings.EqualFold(node.ID, want) {
			return true
		}

		name, ok := node.Properties[s.options.NameProperty].(string)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(name), wantLower) {
			return true
		}
	}

	return false
}
