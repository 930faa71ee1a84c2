// Package serve hosts a LedgerGraph retrieval client over gRPC.
//
// It handles server lifecycle, graceful shutdown, health checks, signal
// handling, and optional service registration, so a retriever can be
// deployed as a long-running service with a few lines of wiring.
//
// # Usage
//
//	func main() {
//	    cfg, err := config.LoadWithDefaults("ledgergraph.yaml")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    client, err := sdk.NewClient(sdk.WithConfig(cfg))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer client.Shutdown(context.Background())
//
//	    err = serve.Retriever(context.Background(), client,
//	        serve.WithAddress(cfg.Serve.Address),
//	        serve.WithGracefulShutdown(cfg.Serve.GetShutdownTimeout()),
//	        serve.WithReflection(),
//	        serve.WithRegistryFromEnv(),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Wire Format
//
// The hosted service is ledgergraph.v1.Retriever with four unary methods:
// Retrieve, Translate, Extract, and Health. Requests and responses are
// google.protobuf.Struct payloads whose fields follow the JSON layout of the
// SDK result types, so any gRPC client can call the service without compiled
// descriptors. ToStruct and FromStruct convert between the typed results and
// the wire payloads.
//
// Callers that want served retrievals linked into their own trace set the
// x-trace-id and x-parent-span-id request metadata to hex-encoded span
// identifiers.
//
// # Health Checks
//
// The standard gRPC health service (grpc.health.v1.Health) reports SERVING
// once the retriever is registered, which is what load balancers and
// orchestration platforms probe. The Retriever service's own Health method
// additionally returns the instance's aggregate health.Status with
// per-dependency details.
//
// # Observability
//
// Each request runs inside a span, and run counters are recorded through the
// configured meter provider. When no tracer provider is supplied, finished
// spans are written to the logger by a LogSpanExporter, so traces surface in
// deployments that have log collection but no trace backend.
//
// # Graceful Shutdown
//
// On SIGINT, SIGTERM, or context cancellation the server stops accepting new
// connections and waits up to the configured timeout for active requests to
// complete before forcing a stop. A registered instance deregisters from the
// service registry before the server exits.
package serve
