// Package main implements the entry point for the codegraph analyzer.
// codegraph builds a structural graph of a source tree, partitions it into
// communities, and enriches every community with an AI-generated functional
// description, falling back to structural heuristics when the AI path is
// unavailable.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/codegraph/clustering"
	"github.com/c360/codegraph/config"
	"github.com/c360/codegraph/enrich"
	"github.com/c360/codegraph/graph"
	"github.com/c360/codegraph/metric"
	"github.com/c360/codegraph/report"
	"github.com/c360/codegraph/scanner"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "codegraph"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Analysis failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()

	if cliCfg.ShowVersion {
		fmt.Printf("%s %s (build %s)\n", appName, Version, BuildTime)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}
	if err := validateFlags(cliCfg); err != nil {
		return err
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return err
	}
	if cliCfg.Root != "" {
		cfg.Project.Root = cliCfg.Root
	}

	if cliCfg.Validate {
		logger.Info("Configuration is valid", "config", cliCfg.ConfigPath)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := metric.NewRegistry()
	if cfg.Metrics.Enabled {
		serveMetrics(ctx, registry, cfg.Metrics.Listen, logger)
	}

	// Stage 1: scan the source tree into a knowledge graph
	scanOpts := []scanner.Option{
		scanner.WithWorkers(cfg.Scanner.Workers),
		scanner.WithLogger(logger),
		scanner.WithMetrics(registry),
	}
	if cfg.Scanner.IncludeTests {
		scanOpts = append(scanOpts, scanner.WithTests())
	}
	src, err := scanner.New(cfg.Project.Root, scanOpts...)
	if err != nil {
		return err
	}
	store, err := src.Scan(ctx)
	if err != nil {
		return err
	}

	// Stage 2: partition the graph into communities
	partition, err := clustering.NewLPADetector(store).
		WithMaxIterations(cfg.Clustering.MaxIterations).
		WithSeed(cfg.Clustering.Seed).
		WithRepresentatives(cfg.Clustering.Representatives).
		WithLogger(logger).
		Detect(ctx)
	if err != nil {
		return err
	}

	// Stage 3: enrich every community
	results, stats, err := runEnrichment(ctx, cfg, logger, registry, store, partition)
	if err != nil {
		return err
	}

	// Stage 4: render the report
	rep, err := report.New(cfg.Project.Root, partition, results, stats)
	if err != nil {
		return err
	}
	if err := writeReport(cfg, rep); err != nil {
		return err
	}

	logger.Info("analysis complete", "coverage", rep.Coverage())
	return nil
}

func runEnrichment(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	registry *metric.Registry,
	store *graph.Store,
	partition *clustering.Partition,
) (map[string]*enrich.EnrichmentResult, *enrich.RunStats, error) {
	builder := enrich.NewContextBuilder(store, enrich.WithMaxMembers(cfg.Enrich.MaxMembers))
	contexts, err := builder.BuildAll(partition.Communities)
	if err != nil {
		return nil, nil, err
	}

	resultStore, cleanup, err := buildResultStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	defer cleanup()

	client, err := enrich.NewHTTPClient(cfg.Enrich.BaseURL, cfg.APIKey(), cfg.Enrich.Model,
		enrich.WithCallTimeout(cfg.Enrich.CallTimeout.Std()),
		enrich.WithMaxTokens(cfg.Enrich.MaxTokens),
		enrich.WithClientLogger(logger))
	if err != nil {
		return nil, nil, err
	}

	sched, err := enrich.NewScheduler(client, enrich.NewFallbackGenerator(), resultStore,
		enrich.SchedulerConfig{
			MaxConcurrent:    cfg.Enrich.MaxConcurrent,
			DispatchInterval: cfg.Enrich.DispatchInterval.Std(),
			MinCommunitySize: cfg.Enrich.MinCommunitySize,
			CacheEnabled:     cfg.Enrich.Cache.Enabled,
			RetryAttempts:    cfg.Enrich.RetryAttempts,
			RetryDelay:       cfg.Enrich.RetryDelay.Std(),
		},
		enrich.WithSchedulerLogger(logger),
		enrich.WithSchedulerMetrics(registry))
	if err != nil {
		return nil, nil, err
	}

	return sched.Run(ctx, contexts)
}

// buildResultStore wires the configured fingerprint-cache backend. The
// returned cleanup closes any held connection.
func buildResultStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (enrich.ResultStore, func(), error) {
	noop := func() {}
	if !cfg.Enrich.Cache.Enabled {
		return enrich.NewNopStore(), noop, nil
	}

	switch cfg.Enrich.Cache.Backend {
	case config.CacheBackendNATS:
		nc, err := nats.Connect(cfg.Enrich.Cache.NATSURL, nats.Name(appName))
		if err != nil {
			// Cache is advisory: degrade to the in-process backend
			logger.Warn("NATS unavailable, using in-memory cache", "error", err)
			store, merr := enrich.NewMemoryStore(ctx, cfg.Enrich.Cache.TTL.Std())
			return store, noop, merr
		}
		js, err := jetstream.New(nc)
		if err != nil {
			nc.Close()
			return nil, noop, err
		}
		store, err := enrich.NewKVStore(ctx, js, cfg.Enrich.Cache.Bucket, cfg.Enrich.Cache.TTL.Std())
		if err != nil {
			nc.Close()
			return nil, noop, err
		}
		return store, func() { nc.Close() }, nil
	default:
		store, err := enrich.NewMemoryStore(ctx, cfg.Enrich.Cache.TTL.Std())
		return store, noop, err
	}
}

func writeReport(cfg *config.Config, rep *report.Report) error {
	out := os.Stdout
	if cfg.Report.Output != "" {
		f, err := os.Create(cfg.Report.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if cfg.Report.Format == config.FormatJSON {
		return rep.WriteJSON(out)
	}
	return rep.WriteMarkdown(out)
}

func serveMetrics(ctx context.Context, registry *metric.Registry, listen string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	server := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics endpoint listening", "addr", listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
