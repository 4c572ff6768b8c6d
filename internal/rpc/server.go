package rpc

import (
	"github.com/signalsfoundry/constellation-planner/internal/logging"
	"github.com/signalsfoundry/constellation-planner/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

// NewServer builds a gRPC server with the planner interceptor chain (plan
// IDs, span enrichment and RPC metrics) and the OpenTelemetry stats handler,
// and registers svc on it. A nil collector skips RPC metrics.
func NewServer(log logging.Logger, collector *observability.RPCCollector, svc PlannerServer, opts ...grpc.ServerOption) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{
		PlanIDUnaryServerInterceptor(log),
		TracingUnaryServerInterceptor(),
	}
	if collector != nil {
		interceptors = append(interceptors, collector.UnaryServerInterceptor())
	}

	serverOpts := append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
	}, opts...)

	server := grpc.NewServer(serverOpts...)
	RegisterPlannerServer(server, svc)
	return server
}
