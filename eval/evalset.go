package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ledgergraph-ai/sdk/parser"
)

// LoadEvalSet loads an evaluation set from a file.
// The format is detected by file extension (.json, .yaml, .yml, .jsonl).
// JSONL files carry one sample per line and take their name from the
// filename. It validates that all samples have a question and unique IDs.
func LoadEvalSet(path string) (*EvalSet, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("eval set file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read eval set file: %w", err)
	}

	ext := filepath.Ext(path)
	var evalSet EvalSet

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &evalSet); err != nil {
			return nil, fmt.Errorf("failed to parse JSON eval set: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &evalSet); err != nil {
			return nil, fmt.Errorf("failed to parse YAML eval set: %w", err)
		}
	case ".jsonl":
		samples, err := parser.ParseJSONLines[Sample](data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSONL eval set: %w", err)
		}
		evalSet.Name = strings.TrimSuffix(filepath.Base(path), ext)
		evalSet.Samples = samples
	default:
		return nil, fmt.Errorf("unsupported eval set format: %s (supported: .json, .yaml, .yml, .jsonl)", ext)
	}

	if err := evalSet.Validate(); err != nil {
		return nil, fmt.Errorf("eval set validation failed: %w", err)
	}

	return &evalSet, nil
}

// Validate checks the eval set structure for correctness.
// It ensures all samples have required fields and unique IDs.
func (e *EvalSet) Validate() error {
	seenIDs := make(map[string]bool)

	for i, sample := range e.Samples {
		if sample.ID == "" {
			return fmt.Errorf("sample at index %d is missing required field 'id'", i)
		}

		if sample.Question == "" {
			return fmt.Errorf("sample %s at index %d is missing required field 'question'", sample.ID, i)
		}

		if seenIDs[sample.ID] {
			return fmt.Errorf("duplicate sample ID found: %s", sample.ID)
		}
		seenIDs[sample.ID] = true
	}

	return nil
}

// FilterByTags returns a new EvalSet containing only samples that have all
// specified tags. The original EvalSet is not modified.
// If tags is empty or nil, returns a copy of the entire EvalSet.
func (e *EvalSet) FilterByTags(tags []string) *EvalSet {
	if len(tags) == 0 {
		return e.copy()
	}

	filtered := &EvalSet{
		Name:     e.Name,
		Version:  e.Version,
		Metadata: e.Metadata,
		Samples:  make([]Sample, 0),
	}

	for _, sample := range e.Samples {
		if hasAllTags(sample.Tags, tags) {
			filtered.Samples = append(filtered.Samples, sample)
		}
	}

	return filtered
}

// copy creates a shallow copy of the EvalSet.
func (e *EvalSet) copy() *EvalSet {
	return &EvalSet{
		Name:     e.Name,
		Version:  e.Version,
		Metadata: e.Metadata,
		Samples:  append([]Sample{}, e.Samples...),
	}
}

// hasAllTags checks if sampleTags contains all of the required tags.
func hasAllTags(sampleTags, requiredTags []string) bool {
	tagMap := make(map[string]bool, len(sampleTags))
	for _, tag := range sampleTags {
		tagMap[tag] = true
	}

	for _, requiredTag := range requiredTags {
		if !tagMap[requiredTag] {
			return false
		}
	}

	return true
}
