package serve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ledgergraph-ai/sdk/cypher"
	"github.com/ledgergraph-ai/sdk/health"
	"github.com/ledgergraph-ai/sdk/multihop"
	"github.com/ledgergraph-ai/sdk/ner"
	"github.com/ledgergraph-ai/sdk/registry"
)

// Service is the retrieval surface a served instance exposes over gRPC.
// The root sdk.Client satisfies it.
type Service interface {
	// Retrieve answers a question with multi-hop graph retrieval.
	Retrieve(ctx context.Context, question string) (*multihop.Result, error)

	// Translate converts a question into a single screened Cypher query.
	Translate(ctx context.Context, question string) (*cypher.Result, error)

	// Extract pulls financial entities out of unstructured text.
	Extract(ctx context.Context, text string) (*ner.Extraction, error)

	// Health reports the instance's aggregate health.
	Health(ctx context.Context) health.Status
}

// Retriever starts a gRPC server exposing svc and blocks until the context
// is cancelled, a shutdown signal arrives, or the server fails. It registers
// the retrieval service alongside the standard health service, marks both as
// serving, and announces the instance to the configured registry.
//
// Example:
//
//	client, err := sdk.NewClient(sdk.WithConfig(cfg))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = serve.Retriever(ctx, client,
//	    serve.WithAddress(":50051"),
//	    serve.WithReflection(),
//	)
func Retriever(ctx context.Context, svc Service, opts ...Option) error {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.closeRegistry != nil {
		defer func() {
			if err := cfg.closeRegistry(); err != nil {
				logger.Warn("failed to close registry client", "error", err)
			}
		}()
	}

	srv, err := NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	tp := cfg.TracerProvider
	if tp == nil {
		logProvider := NewLogTracerProvider(logger)
		defer func() {
			if err := logProvider.Shutdown(context.Background()); err != nil {
				logger.Warn("failed to shut down tracer provider", "error", err)
			}
		}()
		tp = logProvider
	}

	mp := cfg.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	metrics, err := NewMetrics(mp.Meter(instrumentationName))
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	service := newRetrieverService(svc, logger, tp.Tracer(instrumentationName), metrics)
	srv.GRPCServer().RegisterService(&retrieverServiceDesc, service)

	srv.HealthServer().SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	srv.HealthServer().SetServingStatus(retrieverServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	logger.Info("retriever server started",
		"address", srv.Addr(),
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
	)

	if cfg.Registry != nil {
		info := registry.ServiceInfo{
			Kind:       registry.KindRetriever,
			Name:       cfg.ServiceName,
			Version:    cfg.ServiceVersion,
			InstanceID: uuid.NewString(),
			Endpoint:   advertiseEndpoint(cfg, srv),
			Metadata:   cfg.ServiceMetadata,
			StartedAt:  time.Now().UTC(),
		}

		if err := cfg.Registry.Register(ctx, info); err != nil {
			logger.Warn("failed to register with registry", "error", err, "endpoint", info.Endpoint)
		} else {
			logger.Info("registered with registry", "endpoint", info.Endpoint, "instance_id", info.InstanceID)
			defer func() {
				if err := cfg.Registry.Deregister(context.Background(), info); err != nil {
					logger.Warn("failed to deregister from registry", "error", err, "endpoint", info.Endpoint)
				}
			}()
		}
	}

	return srv.Serve(ctx)
}

// advertiseEndpoint resolves the address the registry entry advertises.
func advertiseEndpoint(cfg *Config, srv *Server) string {
	if cfg.AdvertiseAddr != "" {
		if strings.Contains(cfg.AdvertiseAddr, ":") {
			return cfg.AdvertiseAddr
		}
		return fmt.Sprintf("%s:%d", cfg.AdvertiseAddr, srv.Port())
	}
	return fmt.Sprintf("localhost:%d", srv.Port())
}

// retrieverService bridges the gRPC wire protocol to a Service. Each method
// decodes a Struct request, runs the operation inside a request span, and
// encodes the typed result back into a Struct.
type retrieverService struct {
	svc     Service
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *Metrics
}

func newRetrieverService(svc Service, logger *slog.Logger, tracer trace.Tracer, metrics *Metrics) *retrieverService {
	return &retrieverService{
		svc:     svc,
		logger:  logger,
		tracer:  tracer,
		metrics: metrics,
	}
}

// retrieve handles the Retrieve RPC. Request: {"question": string}.
// Response: the multihop.Result in its JSON field layout.
func (s *retrieverService) retrieve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	question := strings.TrimSpace(stringField(in, "question"))
	if question == "" {
		return nil, status.Error(codes.InvalidArgument, "question is required")
	}

	ctx = parentFromMetadata(ctx)
	ctx, span := s.tracer.Start(ctx, "retriever.Retrieve", trace.WithAttributes(
		attribute.String("question", question),
	))
	defer span.End()

	s.metrics.RunsStarted.Add(ctx, 1)

	result, err := s.svc.Retrieve(ctx, question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "retrieve failed")
		return nil, status.Errorf(codes.Internal, "retrieve: %v", err)
	}
	if result == nil {
		return nil, status.Error(codes.Internal, "retrieve returned no result")
	}

	s.metrics.ObserveRun(ctx, result)
	span.SetAttributes(
		attribute.Int("hops", len(result.Hops)),
		attribute.Int("entities", len(result.FinalNodes)),
		attribute.Int("relationships", len(result.FinalEdges)),
	)
	if result.Failed() {
		span.SetStatus(otelcodes.Error, result.Error)
	}

	out, err := ToStruct(result)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}

	s.logger.Info("retrieve served",
		"question", question,
		"hops", len(result.Hops),
		"entities", len(result.FinalNodes),
		"failed", result.Failed(),
	)
	return out, nil
}

// translate handles the Translate RPC. Request: {"question": string}.
// Response: the cypher.Result in its JSON field layout.
func (s *retrieverService) translate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	question := strings.TrimSpace(stringField(in, "question"))
	if question == "" {
		return nil, status.Error(codes.InvalidArgument, "question is required")
	}

	ctx = parentFromMetadata(ctx)
	ctx, span := s.tracer.Start(ctx, "retriever.Translate", trace.WithAttributes(
		attribute.String("question", question),
	))
	defer span.End()

	result, err := s.svc.Translate(ctx, question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "translate failed")
		return nil, status.Errorf(codes.Internal, "translate: %v", err)
	}
	if result == nil {
		return nil, status.Error(codes.Internal, "translate returned no result")
	}

	span.SetAttributes(attribute.String("query_type", result.QueryType))
	if result.Failed() {
		span.SetStatus(otelcodes.Error, result.Error)
	}

	out, err := ToStruct(result)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}

	s.logger.Info("translate served",
		"question", question,
		"query_type", result.QueryType,
		"failed", result.Failed(),
	)
	return out, nil
}

// extract handles the Extract RPC. Request: {"text": string}.
// Response: the ner.Extraction in its JSON field layout.
func (s *retrieverService) extract(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	text := stringField(in, "text")
	if strings.TrimSpace(text) == "" {
		return nil, status.Error(codes.InvalidArgument, "text is required")
	}

	ctx = parentFromMetadata(ctx)
	ctx, span := s.tracer.Start(ctx, "retriever.Extract")
	defer span.End()

	result, err := s.svc.Extract(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "extract failed")
		return nil, status.Errorf(codes.Internal, "extract: %v", err)
	}
	if result == nil {
		return nil, status.Error(codes.Internal, "extract returned no result")
	}

	span.SetAttributes(attribute.Int("entities", result.Count()))

	out, err := ToStruct(result)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode extraction: %v", err)
	}

	s.logger.Info("extract served", "entities", result.Count())
	return out, nil
}

// healthCheck handles the Health RPC. Request fields are ignored.
// Response: the health.Status in its JSON field layout.
func (s *retrieverService) healthCheck(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	st := s.svc.Health(ctx)

	out, err := ToStruct(st)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return out, nil
}

// Metadata keys callers set to link request spans into their own trace.
const (
	traceIDMetadataKey      = "x-trace-id"
	parentSpanIDMetadataKey = "x-parent-span-id"
)

// parentFromMetadata lifts the caller's trace context out of the incoming
// gRPC metadata, when present.
func parentFromMetadata(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	return ParentContext(ctx, firstValue(md, traceIDMetadataKey), firstValue(md, parentSpanIDMetadataKey))
}

func firstValue(md metadata.MD, key string) string {
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// retrieverServiceName is the fully qualified gRPC service name.
const retrieverServiceName = "ledgergraph.v1.Retriever"

// retrieverHandler is the method set behind retrieverServiceDesc. gRPC
// verifies registered implementations against it through HandlerType.
type retrieverHandler interface {
	retrieve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	translate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	extract(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	healthCheck(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// retrieverServiceDesc is a hand-rolled service descriptor. Every method
// takes and returns a google.protobuf.Struct, so any proto toolchain can
// call the service without a compiled descriptor for it.
var retrieverServiceDesc = grpc.ServiceDesc{
	ServiceName: retrieverServiceName,
	HandlerType: (*retrieverHandler)(nil),
	Methods: []grpc.MethodDesc{
		structMethod("Retrieve", retrieverHandler.retrieve),
		structMethod("Translate", retrieverHandler.translate),
		structMethod("Extract", retrieverHandler.extract),
		structMethod("Health", retrieverHandler.healthCheck),
	},
	Streams: []grpc.StreamDesc{},
}

// structMethod builds the gRPC plumbing for one Struct-in/Struct-out method.
func structMethod(name string, invoke func(retrieverHandler, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	fullMethod := "/" + retrieverServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return invoke(srv.(retrieverHandler), ctx, req.(*structpb.Struct))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, handler)
		},
	}
}
