// Command planner-server serves the planner over gRPC and exposes
// Prometheus metrics over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/signalsfoundry/constellation-planner/internal/logging"
	"github.com/signalsfoundry/constellation-planner/internal/observability"
	"github.com/signalsfoundry/constellation-planner/internal/rpc"
)

// Config holds the server settings taken from flags.
type Config struct {
	ListenAddress  string
	MetricsAddress string
	LogLevel       string
	LogFormat      string
	MaxExpansions  int
}

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.ListenAddress, "grpc-addr", ":50051", "TCP address the planner gRPC server listens on")
	flag.StringVar(&cfg.MetricsAddress, "metrics-addr", ":9090", "HTTP address for Prometheus /metrics (empty disables)")
	flag.StringVar(&cfg.LogLevel, "log-level", os.Getenv("LOG_LEVEL"), "Log level: debug, info, warn or error")
	flag.StringVar(&cfg.LogFormat, "log-format", os.Getenv("LOG_FORMAT"), "Log format: text or json")
	flag.IntVar(&cfg.MaxExpansions, "max-expansions", 5_000_000, "Upper bound on expansions per Plan request (0 = unbounded)")
	flag.Parse()

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.ListenAddress), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "planner server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves on lis until ctx is cancelled, then stops gracefully.
func run(ctx context.Context, cfg Config, log logging.Logger, lis net.Listener) error {
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(observability.ComponentServer), log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	rpcCollector, err := observability.NewRPCCollector(reg)
	if err != nil {
		return err
	}
	searchCollector, err := observability.NewSearchCollector(reg)
	if err != nil {
		return err
	}

	svc := rpc.NewPlannerService(log,
		rpc.WithSearchMetrics(searchCollector),
		rpc.WithExpansionCap(cfg.MaxExpansions),
	)
	server := rpc.NewServer(log, rpcCollector, svc)

	metricsSrv := serveMetrics(cfg.MetricsAddress, searchCollector, log)

	serveErr := make(chan error, 1)
	log.Info(ctx, "starting planner gRPC server", logging.String("addr", lis.Addr().String()))
	go func() {
		serveErr <- server.Serve(lis)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	log.Info(context.Background(), "shutting down planner server")
	server.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

func serveMetrics(addr string, collector *observability.SearchCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
