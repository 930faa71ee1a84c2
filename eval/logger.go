package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ledgergraph-ai/sdk/parser"
)

// LogEntry represents a single evaluation result entry in JSONL format.
// Each entry captures the sample, its scores, and execution metrics.
type LogEntry struct {
	// Timestamp is when the evaluation was performed.
	Timestamp time.Time `json:"timestamp"`

	// SampleID identifies the evaluated sample.
	SampleID string `json:"sample_id"`

	// Question is the question the sample was evaluated on.
	Question string `json:"question,omitempty"`

	// Scores contains simplified score values keyed by scorer name.
	Scores map[string]float64 `json:"scores"`

	// OverallScore is the aggregated score across all scorers (0.0 to 1.0).
	OverallScore float64 `json:"overall_score"`

	// Duration is the total time taken for evaluation in milliseconds.
	Duration int64 `json:"duration_ms"`

	// Details contains additional diagnostic information such as
	// scorer-specific details, error messages, or sample metadata.
	Details map[string]any `json:"details,omitempty"`
}

// JSONLLogger implements Logger by writing evaluation results to a JSONL
// file, one JSON line per result. The logger is safe for concurrent use.
type JSONLLogger struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewJSONLLogger creates a JSONL logger that appends to the file at path,
// creating it if needed. The returned logger must be closed when done.
//
// Example:
//
//	logger, err := eval.NewJSONLLogger("evals.jsonl")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
func NewJSONLLogger(path string) (Logger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	return &JSONLLogger{
		path: path,
		file: file,
	}, nil
}

// Log writes a sample and its result to the JSONL log file.
// The file is synced after each write so results survive an aborted run.
func (l *JSONLLogger) Log(sample Sample, result Result) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	scores := make(map[string]float64, len(result.Scores))
	details := make(map[string]any)

	for name, scoreResult := range result.Scores {
		scores[name] = scoreResult.Score

		if len(scoreResult.Details) > 0 {
			details[name+"_details"] = scoreResult.Details
		}
	}

	if result.Error != "" {
		details["error"] = result.Error
	}

	if len(sample.Metadata) > 0 {
		details["sample_metadata"] = sample.Metadata
	}

	if len(sample.Tags) > 0 {
		details["sample_tags"] = sample.Tags
	}

	entry := LogEntry{
		Timestamp:    result.Timestamp,
		SampleID:     result.SampleID,
		Question:     sample.Question,
		Scores:       scores,
		OverallScore: result.OverallScore,
		Duration:     result.Duration.Milliseconds(),
		Details:      details,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write log entry: %w", err)
	}

	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to flush log file: %w", err)
	}

	return nil
}

// ReadLog loads every entry from a results file written by a JSONLLogger,
// in write order. Use it to compare runs or regenerate summaries.
func ReadLog(path string) ([]LogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read log file %s: %w", path, err)
	}

	entries, err := parser.ParseJSONLines[LogEntry](data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log file %s: %w", path, err)
	}

	return entries, nil
}

// Close flushes any buffered data and closes the underlying file.
func (l *JSONLLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to flush log file before close: %w", err)
	}

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}

	return nil
}
