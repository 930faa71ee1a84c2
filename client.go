package sdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgergraph-ai/sdk/cypher"
	"github.com/ledgergraph-ai/sdk/graph"
	"github.com/ledgergraph-ai/sdk/health"
	"github.com/ledgergraph-ai/sdk/multihop"
	"github.com/ledgergraph-ai/sdk/ner"
	"github.com/ledgergraph-ai/sdk/runstore"
)

// Run statuses. A run is created as running when Retrieve begins and
// transitions to completed or failed when it finishes.
const (
	// RunStatusRunning indicates the retrieval is still executing.
	RunStatusRunning = "running"

	// RunStatusCompleted indicates the retrieval finished and produced a result.
	RunStatusCompleted = "completed"

	// RunStatusFailed indicates the retrieval finished with an error.
	RunStatusFailed = "failed"
)

// Run is one entry in the client's run ledger. It records the lifecycle of a
// single Retrieve call; the full retrieval result is persisted separately in
// the run store and retrieved with GetRunResult.
type Run struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`

	// Question is the natural language question the run answered.
	Question string `json:"question"`

	// Status is the current lifecycle status of the run.
	Status string `json:"status"`

	// Hops is the number of retrieval steps the run executed.
	Hops int `json:"hops"`

	// CreatedAt is when the run started.
	CreatedAt time.Time `json:"created_at"`

	// CompletedAt is when the run finished, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error describes why the run failed, if it did.
	Error string `json:"error,omitempty"`
}

// Client is the root interface for LedgerGraph retrieval. It bundles the
// multi-hop orchestrator, the single-shot Cypher generator, and the entity
// extractor behind one surface, and keeps a ledger of every retrieval run.
//
// A Client satisfies serve.Service, so it can be exposed over gRPC with
// sdk.Serve without adaptation.
//
// Implementations are safe for concurrent use.
type Client interface {
	// Retrieval operations

	// Retrieve answers a question with multi-hop graph retrieval. The run
	// is recorded in the ledger and its result persisted in the run store.
	// The returned result is well-formed even when the run fails; check
	// Result.Failed or the run's ledger status.
	Retrieve(ctx context.Context, question string) (*multihop.Result, error)

	// Translate converts a question into a single screened Cypher query
	// without executing it.
	Translate(ctx context.Context, question string) (*cypher.Result, error)

	// Extract pulls financial entities out of unstructured text.
	Extract(ctx context.Context, text string) (*ner.Extraction, error)

	// Run ledger

	// GetRun returns the ledger entry for a run. Runs persisted by earlier
	// processes resolve through the run store. Returns ErrRunNotFound if
	// the run does not exist.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// GetRunResult returns the persisted result of a finished run.
	// Returns ErrRunNotFound if the run does not exist or has not finished.
	GetRunResult(ctx context.Context, runID string) (*multihop.Result, error)

	// ListRuns returns ledger entries for runs started by this client,
	// most recent first.
	ListRuns(ctx context.Context, opts ...ListOption) ([]*Run, error)

	// DeleteRun removes a run from the ledger and the run store.
	// Returns ErrRunNotFound if the run does not exist.
	DeleteRun(ctx context.Context, runID string) error

	// Lifecycle

	// Start verifies backend connectivity and marks the client ready.
	// Retrieval operations return ErrNotStarted before Start succeeds.
	Start(ctx context.Context) error

	// Shutdown releases client-owned resources. Backends injected through
	// options are left open; their lifecycle belongs to the caller.
	Shutdown(ctx context.Context) error

	// Health reports the aggregate health of the client's backends.
	Health(ctx context.Context) health.Status
}

// client is the default Client implementation assembled by NewClient.
type client struct {
	logger *slog.Logger

	graph graph.Client
	store runstore.Store

	orchestrator *multihop.Orchestrator
	generator    *cypher.Generator
	extractor    *ner.Extractor

	maxHops int

	ownsGraph bool
	ownsStore bool

	mu      sync.Mutex
	started bool

	runsMu sync.RWMutex
	runs   map[string]*Run
}

// Start establishes the graph connection and pings the run store.
func (c *client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("client already started")
	}

	c.logger.Info("client starting")

	if err := c.graph.Connect(ctx); err != nil {
		return NewGraphError("Client.Start", fmt.Errorf("%w: %v", ErrGraphUnavailable, err))
	}
	if err := c.store.Ping(ctx); err != nil {
		return NewNetworkError("Client.Start", fmt.Errorf("run store unreachable: %w", err))
	}

	c.started = true
	c.logger.Info("client started", "max_hops", c.maxHops)
	return nil
}

// Shutdown marks still-running runs failed and closes client-owned backends.
// Shutdown is a no-op if the client was never started.
func (c *client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}

	c.logger.Info("client stopping")

	now := time.Now().UTC()
	c.runsMu.Lock()
	for _, run := range c.runs {
		if run.Status == RunStatusRunning {
			run.Status = RunStatusFailed
			run.Error = "client shut down"
			run.CompletedAt = &now
		}
	}
	c.runsMu.Unlock()

	if c.ownsGraph {
		if err := c.graph.Close(ctx); err != nil {
			c.logger.Warn("failed to close graph client", "error", err)
		}
	}
	if c.ownsStore {
		CloseWithLog(c.store, c.logger, "run store")
	}

	c.started = false
	c.logger.Info("client stopped")
	return nil
}

// Health combines the graph and run store checks.
func (c *client) Health(ctx context.Context) health.Status {
	return health.Combine(
		health.GraphCheck(ctx, c.graph),
		health.StoreCheck(ctx, c.store),
	)
}

func (c *client) ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return ErrNotStarted
	}
	return nil
}

// Retrieve runs the multi-hop loop for the question, tracking the run in the
// ledger and persisting its result. The error return covers client-side
// failures only; retrieval failures land in the result's error fields.
func (c *client) Retrieve(ctx context.Context, question string) (*multihop.Result, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, NewValidationError("Client.Retrieve", errors.New("question cannot be empty"))
	}

	run := &Run{
		ID:        uuid.NewString(),
		Question:  question,
		Status:    RunStatusRunning,
		CreatedAt: time.Now().UTC(),
	}
	c.runsMu.Lock()
	c.runs[run.ID] = run
	c.runsMu.Unlock()

	c.logger.Info("run started",
		"run_id", run.ID,
		"question", question,
		"max_hops", c.maxHops)

	result := c.orchestrator.Run(ctx, question, c.maxHops)

	completed := time.Now().UTC()
	c.runsMu.Lock()
	run.Hops = len(result.Hops)
	run.CompletedAt = &completed
	if result.Failed() {
		run.Status = RunStatusFailed
		run.Error = result.Error
	} else {
		run.Status = RunStatusCompleted
	}
	c.runsMu.Unlock()

	// Persist even when the caller's ctx has been cancelled; the result
	// records the cancellation.
	rec := runstore.Record{
		ID:        run.ID,
		Question:  question,
		Result:    result,
		CreatedAt: run.CreatedAt,
	}
	if err := c.store.Save(context.WithoutCancel(ctx), rec); err != nil {
		c.logger.Warn("failed to persist run result", "run_id", run.ID, "error", err)
	}

	if result.Failed() {
		c.logger.Warn("run failed", "run_id", run.ID, "error", result.Error)
	} else {
		c.logger.Info("run completed",
			"run_id", run.ID,
			"hops", len(result.Hops),
			"entities", len(result.FinalNodes))
	}

	return result, nil
}

// Translate generates one screened Cypher query for the question. Generation
// failures land in the result's error field, not the error return.
func (c *client) Translate(ctx context.Context, question string) (*cypher.Result, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(question) == "" {
		return nil, NewValidationError("Client.Translate", errors.New("question cannot be empty"))
	}
	return c.generator.Translate(ctx, question), nil
}

// Extract pulls financial entities out of unstructured text.
func (c *client) Extract(ctx context.Context, text string) (*ner.Extraction, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.extractor.Extract(ctx, text)
}

// GetRun returns a copy of the ledger entry, falling back to the run store
// for runs this process never saw.
func (c *client) GetRun(ctx context.Context, runID string) (*Run, error) {
	c.runsMu.RLock()
	if run, ok := c.runs[runID]; ok {
		runCopy := *run
		c.runsMu.RUnlock()
		return &runCopy, nil
	}
	c.runsMu.RUnlock()

	rec, err := c.store.Get(ctx, runID)
	if err != nil {
		if errors.Is(err, runstore.ErrNotFound) || errors.Is(err, runstore.ErrInvalidID) {
			return nil, NewNotFoundError("Client.GetRun", ErrRunNotFound)
		}
		return nil, err
	}
	return runFromRecord(rec), nil
}

// GetRunResult returns the persisted result of a finished run.
func (c *client) GetRunResult(ctx context.Context, runID string) (*multihop.Result, error) {
	rec, err := c.store.Get(ctx, runID)
	if err != nil {
		if errors.Is(err, runstore.ErrNotFound) || errors.Is(err, runstore.ErrInvalidID) {
			return nil, NewNotFoundError("Client.GetRunResult", ErrRunNotFound)
		}
		return nil, err
	}
	return rec.Result, nil
}

// ListRuns returns copies of this client's ledger entries, most recent first.
func (c *client) ListRuns(ctx context.Context, opts ...ListOption) ([]*Run, error) {
	listCfg := listConfig{}
	for _, opt := range opts {
		opt(&listCfg)
	}

	c.runsMu.RLock()
	runs := make([]*Run, 0, len(c.runs))
	for _, run := range c.runs {
		if listCfg.status != "" && run.Status != listCfg.status {
			continue
		}
		runCopy := *run
		runs = append(runs, &runCopy)
	}
	c.runsMu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})

	if listCfg.offset > 0 {
		if listCfg.offset >= len(runs) {
			return []*Run{}, nil
		}
		runs = runs[listCfg.offset:]
	}
	if listCfg.limit > 0 && listCfg.limit < len(runs) {
		runs = runs[:listCfg.limit]
	}

	return runs, nil
}

// DeleteRun removes the run from the ledger and the run store.
func (c *client) DeleteRun(ctx context.Context, runID string) error {
	c.runsMu.Lock()
	_, inMemory := c.runs[runID]
	delete(c.runs, runID)
	c.runsMu.Unlock()

	err := c.store.Delete(ctx, runID)
	if err != nil && !errors.Is(err, runstore.ErrNotFound) && !errors.Is(err, runstore.ErrInvalidID) {
		return err
	}
	if !inMemory && err != nil {
		return NewNotFoundError("Client.DeleteRun", ErrRunNotFound)
	}
	return nil
}

// runFromRecord reconstructs a ledger entry from a persisted record.
// Records only exist for finished runs, so the status is derived from the
// result and the completion time from the recorded execution time.
func runFromRecord(rec *runstore.Record) *Run {
	run := &Run{
		ID:        rec.ID,
		Question:  rec.Question,
		Status:    RunStatusCompleted,
		CreatedAt: rec.CreatedAt,
	}
	if rec.Result != nil {
		run.Hops = len(rec.Result.Hops)
		completed := rec.CreatedAt.Add(time.Duration(rec.Result.ExecutionTime * float64(time.Second)))
		run.CompletedAt = &completed
		if rec.Result.Failed() {
			run.Status = RunStatusFailed
			run.Error = rec.Result.Error
		}
	}
	return run
}
