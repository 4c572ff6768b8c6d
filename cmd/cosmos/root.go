package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/signalsfoundry/constellation-planner/internal/heuristic"
	"github.com/signalsfoundry/constellation-planner/internal/logging"
	"github.com/signalsfoundry/constellation-planner/internal/observability"
	"github.com/signalsfoundry/constellation-planner/internal/problem"
	"github.com/signalsfoundry/constellation-planner/internal/report"
	"github.com/signalsfoundry/constellation-planner/internal/rpc"
	"github.com/signalsfoundry/constellation-planner/internal/search"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type options struct {
	algorithm       string
	maxExpansions   int
	outDir          string
	quiet           bool
	server          string
	timeout         time.Duration
	logLevel        string
	logFormat       string
	metricsTextfile string
}

// outcome is what either planning path hands to the writers.
type outcome struct {
	stats report.Statistics
	lines []string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "cosmos <problem> <h1|h2>",
		Short: "Plan satellite observations and downlinks at minimum energy cost",
		Long: `cosmos loads a constellation problem (".prob" text or YAML), searches for a
plan that measures and downlinks every object, and writes <problem>.statistics
and <problem>.output.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runPlan(cmd.Context(), opts, args[0], args[1], cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "cosmos: %v\n", err)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.algorithm, "algorithm", string(search.AlgorithmAStar), "Search algorithm: astar or bfs")
	flags.IntVar(&opts.maxExpansions, "max-expansions", 0, "Stop after this many expansions (0 = unbounded)")
	flags.StringVar(&opts.outDir, "out-dir", "", "Directory for the statistics and trace files (default: next to the problem)")
	flags.BoolVar(&opts.quiet, "quiet", false, "Do not print the statistics and trace to stdout")
	flags.StringVar(&opts.server, "server", "", "Plan on a remote planner-server at this address instead of locally")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Give up after this long (0 = no limit)")
	flags.StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "info"), "Log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", envOr("LOG_FORMAT", "text"), "Log format: text or json")
	flags.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "Write search metrics in Prometheus text format to this file")

	return cmd
}

func runPlan(ctx context.Context, opts *options, problemPath, heuristicName string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	base := logging.New(logging.Config{Level: opts.logLevel, Format: opts.logFormat, Output: stderr})
	ctx, log := logging.WithPlanLogger(ctx, base.With(logging.String("problem", problemPath)))
	ctx = logging.ContextWithLogger(ctx, log)

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(observability.ComponentCLI), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	var out outcome
	if opts.server != "" {
		out, err = planRemote(ctx, opts, problemPath, heuristicName)
	} else {
		out, err = planLocal(ctx, opts, problemPath, heuristicName, log)
	}
	if err != nil {
		return err
	}

	if !opts.quiet {
		if err := report.WriteStatistics(stdout, out.stats); err != nil {
			return err
		}
		if err := report.WriteTrace(stdout, out.lines); err != nil {
			return err
		}
	}

	statsPath, tracePath, err := report.WriteFiles(problemPath, opts.outDir, out.stats, out.lines)
	if err != nil {
		return err
	}
	log.Info(ctx, "plan written",
		logging.String("statistics", statsPath),
		logging.String("trace", tracePath),
		logging.Float64("cost", out.stats.Cost),
		logging.Int("steps", out.stats.Steps),
	)
	return nil
}

func planLocal(ctx context.Context, opts *options, problemPath, heuristicName string, log logging.Logger) (outcome, error) {
	p, err := problem.LoadFile(problemPath)
	if err != nil {
		return outcome{}, err
	}
	h, err := heuristic.ByName(heuristicName)
	if err != nil {
		return outcome{}, err
	}
	alg, err := search.ParseAlgorithm(opts.algorithm)
	if err != nil {
		return outcome{}, err
	}

	reg := prometheus.NewRegistry()
	collector, err := observability.NewSearchCollector(reg)
	if err != nil {
		return outcome{}, err
	}

	engine := search.New(
		search.WithLogger(log),
		search.WithMetrics(collector),
		search.WithMaxExpansions(opts.maxExpansions),
	)
	res, err := engine.Run(ctx, alg, p.Root(h.Name()), h)
	if err == nil {
		collector.ObservePlan(res.Goal.G, res.Goal.Steps())
	}
	if opts.metricsTextfile != "" {
		if werr := prometheus.WriteToTextfile(opts.metricsTextfile, reg); werr != nil {
			log.Warn(ctx, "failed to write metrics textfile", logging.String("path", opts.metricsTextfile), logging.Err(werr))
		}
	}
	if err != nil {
		return outcome{}, fmt.Errorf("%s search after %d expansions: %w", alg, res.Expansions, err)
	}

	actions := search.Trace(res.Goal)
	return outcome{
		stats: report.StatisticsFrom(res),
		lines: report.StepLines(actions, len(p.Satellites)),
	}, nil
}

func planRemote(ctx context.Context, opts *options, problemPath, heuristicName string) (outcome, error) {
	data, err := os.ReadFile(problemPath)
	if err != nil {
		return outcome{}, fmt.Errorf("read problem: %w", err)
	}

	conn, err := grpc.NewClient(opts.server,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return outcome{}, fmt.Errorf("dial %s: %w", opts.server, err)
	}
	defer conn.Close()

	start := time.Now()
	resp, err := rpc.NewClient(conn).Plan(ctx, rpc.PlanRequest{
		Problem:       string(data),
		Format:        string(problem.FormatFromPath(problemPath)),
		Heuristic:     heuristicName,
		Algorithm:     opts.algorithm,
		MaxExpansions: opts.maxExpansions,
	})
	if err != nil {
		return outcome{}, fmt.Errorf("remote plan: %w", err)
	}

	return outcome{
		stats: report.Statistics{
			Elapsed:    time.Since(start),
			Cost:       resp.Cost,
			Steps:      resp.Steps,
			Expansions: resp.Expansions,
		},
		lines: resp.StepsTrace,
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
