package rpc

import (
	"context"
	"fmt"
	"strings"

	"github.com/signalsfoundry/constellation-planner/internal/logging"
	"github.com/signalsfoundry/constellation-planner/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const (
	tracerName = "github.com/signalsfoundry/constellation-planner/internal/rpc"

	// PlanIDMetadataKey carries the plan_id in request and response headers.
	PlanIDMetadataKey = "x-request-id"
)

// PlanIDUnaryServerInterceptor ensures a plan_id is present on the context,
// sourcing it from inbound metadata if provided, echoes it back as a response
// header and attaches a per-call logger annotated with plan_id and method.
func PlanIDUnaryServerInterceptor(base logging.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if incoming := firstHeader(md, PlanIDMetadataKey); incoming != "" {
				ctx = logging.ContextWithPlanID(ctx, incoming)
			}
		}

		ctx, callLog := logging.WithPlanLogger(ctx, base.With(logging.String("method", info.FullMethod)))
		ctx = logging.ContextWithLogger(ctx, callLog)
		_ = grpc.SetHeader(ctx, metadata.Pairs(PlanIDMetadataKey, logging.PlanIDFromContext(ctx)))

		return handler(ctx, req)
	}
}

// TracingUnaryServerInterceptor names the server span after the planner
// method and tags it with RPC attributes. It starts its own span when no
// stats handler created one.
func TracingUnaryServerInterceptor() grpc.UnaryServerInterceptor {
	tracer := otel.Tracer(tracerName)

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		service, method := observability.SplitMethod(info.FullMethod)
		spanName := fmt.Sprintf("Planner/%s/%s", service, method)
		span := trace.SpanFromContext(ctx)
		created := false
		if !span.SpanContext().IsValid() {
			ctx, span = tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindServer))
			created = true
		} else {
			span.SetName(spanName)
		}

		attrs := []attribute.KeyValue{
			attribute.String("rpc.system", "grpc"),
			attribute.String("rpc.service", service),
			attribute.String("rpc.method", method),
			attribute.String("rpc.full_method", strings.TrimPrefix(info.FullMethod, "/")),
		}
		if id := logging.PlanIDFromContext(ctx); id != "" {
			attrs = append(attrs, attribute.String("plan_id", id))
		}
		span.SetAttributes(attrs...)

		resp, err := handler(ctx, req)
		if err != nil {
			span.RecordError(err)
		}

		if created {
			span.End()
		}
		return resp, err
	}
}

func startChildSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

func firstHeader(md metadata.MD, key string) string {
	if md == nil {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
