// Package health provides reusable health checks for LedgerGraph services.
//
// This package offers standardized ways to verify connectivity,
// configuration, and the state of retrieval dependencies. The root SDK
// client aggregates these checks into its Health method, and the serve
// package reports them over the gRPC health service.
//
// # Health Check Functions
//
// The package provides five main health check functions:
//
//   - EndpointCheck: Verify TCP connectivity to a host:port address
//   - EnvCheck: Verify required environment variables are set
//   - GraphCheck: Verify the graph backend answers a ping
//   - StoreCheck: Verify the run store answers a ping
//   - Combine: Aggregate multiple health checks into a single status
//
// # Usage Example
//
//	import (
//	    "context"
//	    "time"
//
//	    "github.com/ledgergraph-ai/sdk/health"
//	)
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//
//	// Check individual dependencies
//	graphStatus := health.GraphCheck(ctx, graphClient)
//	if graphStatus.IsUnhealthy() {
//	    log.Fatal("graph backend is required but unreachable")
//	}
//
//	// Combine multiple checks
//	overall := health.Combine(
//	    health.GraphCheck(ctx, graphClient),
//	    health.StoreCheck(ctx, store),
//	    health.EnvCheck("OPENROUTER_API_KEY"),
//	)
//	switch overall.State {
//	case health.StateHealthy:
//	    // ready to serve
//	case health.StateDegraded:
//	    // serve with reduced functionality
//	case health.StateUnhealthy:
//	    // refuse traffic
//	}
//
// # Status Priority
//
// When combining checks, the aggregate follows this priority: any unhealthy
// check makes the result unhealthy; otherwise any degraded check makes the
// result degraded; otherwise the result is healthy. Details of failed and
// degraded checks are preserved in the aggregate's Details map.
package health
