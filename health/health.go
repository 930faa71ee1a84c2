package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ledgergraph-ai/sdk/graph"
	"github.com/ledgergraph-ai/sdk/runstore"
)

// State is the operational state reported by a health check.
type State string

const (
	// StateHealthy indicates the component is fully operational.
	StateHealthy State = "healthy"

	// StateDegraded indicates the component is operational but experiencing issues.
	StateDegraded State = "degraded"

	// StateUnhealthy indicates the component is not operational.
	StateUnhealthy State = "unhealthy"
)

// Status represents the health of a component or service.
type Status struct {
	// State is the current health state.
	State State `json:"state"`

	// Message provides a human-readable description of the status.
	Message string `json:"message,omitempty"`

	// Details contains additional context and diagnostic information.
	Details map[string]any `json:"details,omitempty"`
}

// IsHealthy returns true if the state is StateHealthy.
func (s Status) IsHealthy() bool {
	return s.State == StateHealthy
}

// IsDegraded returns true if the state is StateDegraded.
func (s Status) IsDegraded() bool {
	return s.State == StateDegraded
}

// IsUnhealthy returns true if the state is StateUnhealthy.
func (s Status) IsUnhealthy() bool {
	return s.State == StateUnhealthy
}

// Healthy creates a healthy status with an optional message.
func Healthy(message string) Status {
	return Status{
		State:   StateHealthy,
		Message: message,
	}
}

// Degraded creates a degraded status with a message and optional details.
func Degraded(message string, details map[string]any) Status {
	return Status{
		State:   StateDegraded,
		Message: message,
		Details: details,
	}
}

// Unhealthy creates an unhealthy status with a message and optional details.
func Unhealthy(message string, details map[string]any) Status {
	return Status{
		State:   StateUnhealthy,
		Message: message,
		Details: details,
	}
}

// EndpointCheck verifies TCP connectivity to an address in host:port form.
// It uses the provided context for timeout and cancellation control; a nil
// context gets a 5 second timeout.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	status := health.EndpointCheck(ctx, "graph.internal:7687")
//	if status.IsUnhealthy() {
//	    log.Println("graph backend unreachable")
//	}
func EndpointCheck(ctx context.Context, address string) Status {
	if address == "" {
		return Unhealthy("address cannot be empty", nil)
	}
	if _, _, err := net.SplitHostPort(address); err != nil {
		return Unhealthy(
			fmt.Sprintf("invalid address '%s'", address),
			map[string]any{
				"address": address,
				"error":   err.Error(),
			},
		)
	}

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return Unhealthy(
			fmt.Sprintf("failed to connect to %s", address),
			map[string]any{
				"address": address,
				"error":   err.Error(),
			},
		)
	}
	conn.Close()

	return Healthy(fmt.Sprintf("successfully connected to %s", address))
}

// EnvCheck verifies that the named environment variables are set and
// non-empty. It returns unhealthy listing the missing variables, healthy
// when all are present.
//
// Example:
//
//	status := health.EnvCheck("OPENROUTER_API_KEY", "NEO4J_URI")
//	if status.IsUnhealthy() {
//	    log.Fatal("required environment is incomplete")
//	}
func EnvCheck(names ...string) Status {
	if len(names) == 0 {
		return Healthy("no environment variables required")
	}

	var missing []string
	for _, name := range names {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return Unhealthy(
			fmt.Sprintf("%d required environment variable(s) missing", len(missing)),
			map[string]any{
				"required": names,
				"missing":  missing,
			},
		)
	}

	return Healthy(fmt.Sprintf("all %d environment variable(s) set", len(names)))
}

// GraphCheck verifies that the graph backend answers a ping.
func GraphCheck(ctx context.Context, client graph.Client) Status {
	if client == nil {
		return Unhealthy("graph client is nil", nil)
	}

	if err := client.Ping(ctx); err != nil {
		return Unhealthy(
			"graph backend is unreachable",
			map[string]any{"error": err.Error()},
		)
	}

	return Healthy("graph backend is reachable")
}

// StoreCheck verifies that the run store answers a ping.
func StoreCheck(ctx context.Context, store runstore.Store) Status {
	if store == nil {
		return Unhealthy("run store is nil", nil)
	}

	if err := store.Ping(ctx); err != nil {
		return Unhealthy(
			"run store is unreachable",
			map[string]any{"error": err.Error()},
		)
	}

	return Healthy("run store is reachable")
}

// Combine aggregates multiple health checks into a single status.
// The result follows this priority:
//   - If any check is unhealthy, the result is unhealthy
//   - If any check is degraded (and none unhealthy), the result is degraded
//   - If all checks are healthy, the result is healthy
//
// Example:
//
//	status := health.Combine(
//	    health.GraphCheck(ctx, graphClient),
//	    health.StoreCheck(ctx, store),
//	    health.EnvCheck("OPENROUTER_API_KEY"),
//	)
func Combine(checks ...Status) Status {
	if len(checks) == 0 {
		return Healthy("no checks provided")
	}

	var unhealthyChecks []string
	var degradedChecks []string
	var healthyCount int

	for _, check := range checks {
		switch check.State {
		case StateUnhealthy:
			msg := check.Message
			if msg == "" {
				msg = "unnamed check"
			}
			unhealthyChecks = append(unhealthyChecks, msg)
		case StateDegraded:
			msg := check.Message
			if msg == "" {
				msg = "unnamed check"
			}
			degradedChecks = append(degradedChecks, msg)
		case StateHealthy:
			healthyCount++
		}
	}

	if len(unhealthyChecks) > 0 {
		return Unhealthy(
			fmt.Sprintf("%d check(s) failed", len(unhealthyChecks)),
			map[string]any{
				"total":         len(checks),
				"unhealthy":     len(unhealthyChecks),
				"degraded":      len(degradedChecks),
				"healthy":       healthyCount,
				"failed_checks": unhealthyChecks,
			},
		)
	}

	if len(degradedChecks) > 0 {
		return Degraded(
			fmt.Sprintf("%d check(s) degraded", len(degradedChecks)),
			map[string]any{
				"total":           len(checks),
				"degraded":        len(degradedChecks),
				"healthy":         healthyCount,
				"degraded_checks": degradedChecks,
			},
		)
	}

	return Healthy(fmt.Sprintf("all %d check(s) passed", len(checks)))
}
