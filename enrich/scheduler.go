package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/c360/codegraph/errors"
	"github.com/c360/codegraph/metric"
	"github.com/c360/codegraph/pkg/retry"
)

// SchedulerConfig is the concurrency controller's configuration surface.
type SchedulerConfig struct {
	// MaxConcurrent is K, the hard bound on simultaneous in-flight AI
	// calls. Required: there is no default, and K <= 0 is a
	// configuration error that fails the whole run.
	MaxConcurrent int

	// DispatchInterval is the minimum delay between successive dispatch
	// starts, independent of completions. Zero disables pacing.
	DispatchInterval time.Duration

	// MinCommunitySize routes smaller communities straight to the
	// fallback generator without an AI call. Cost control only.
	MinCommunitySize int

	// CacheEnabled turns fingerprint-cache lookups and writes on.
	CacheEnabled bool

	// RetryAttempts is the total attempts per community for transient
	// failures. Values below 2 mean a single attempt.
	RetryAttempts int

	// RetryDelay is the initial backoff between attempts.
	RetryDelay time.Duration
}

// Validate rejects unusable configurations.
func (c SchedulerConfig) Validate() error {
	if c.MaxConcurrent <= 0 {
		return errors.WrapFatal(errors.ErrInvalidConfig, "SchedulerConfig", "Validate",
			fmt.Sprintf("max_concurrent must be positive, got %d", c.MaxConcurrent))
	}
	if c.DispatchInterval < 0 {
		return errors.WrapFatal(errors.ErrInvalidConfig, "SchedulerConfig", "Validate",
			"dispatch_interval cannot be negative")
	}
	return nil
}

// Scheduler dispatches one enrichment task per community under a
// concurrency bound and a dispatch pacing gate. Each scheduler instance
// owns its own semaphore and rate limiter, so independent runs do not
// interfere. Per-task failures never escape: every failure path ends in
// a fallback result, and the output mapping always covers every input
// community.
type Scheduler struct {
	client   Client
	fallback *FallbackGenerator
	store    ResultStore
	cfg      SchedulerConfig

	sem     *semaphore.Weighted
	limiter *rate.Limiter

	logger  *slog.Logger
	metrics *schedulerMetrics
}

// schedulerMetrics makes the concurrency bound observable.
type schedulerMetrics struct {
	inFlight     prometheus.Gauge
	results      *prometheus.CounterVec
	callDuration prometheus.Histogram
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the structured logger.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

// WithSchedulerMetrics registers pipeline metrics with the registry.
func WithSchedulerMetrics(registry *metric.Registry) SchedulerOption {
	return func(s *Scheduler) {
		inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "enrich_inflight_calls",
			Help: "AI enrichment calls currently in flight",
		})
		results := prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrich_results_total",
			Help: "Enrichment results by source",
		}, []string{"source"})
		callDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "enrich_call_duration_seconds",
			Help:    "Wall time of individual AI enrichment calls",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		})

		_ = registry.RegisterGauge("enrich", "enrich_inflight_calls", inFlight)
		_ = registry.RegisterCounterVec("enrich", "enrich_results_total", results)
		_ = registry.RegisterHistogram("enrich", "enrich_call_duration_seconds", callDuration)

		s.metrics = &schedulerMetrics{
			inFlight:     inFlight,
			results:      results,
			callDuration: callDuration,
		}
	}
}

// NewScheduler creates a scheduler. The configuration is validated here so
// a bad K fails construction, not mid-run.
func NewScheduler(client Client, fallback *FallbackGenerator, store ResultStore, cfg SchedulerConfig, opts ...SchedulerOption) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Scheduler", "New", "client is nil")
	}
	if fallback == nil {
		fallback = NewFallbackGenerator()
	}
	if store == nil {
		store = NewNopStore()
	}

	limit := rate.Inf
	if cfg.DispatchInterval > 0 {
		limit = rate.Every(cfg.DispatchInterval)
	}

	s := &Scheduler{
		client:   client,
		fallback: fallback,
		store:    store,
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		limiter:  rate.NewLimiter(limit, 1),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run enriches every community and returns a mapping with exactly one
// entry per input community, plus run statistics. Cancellation stops new
// dispatches and fills outstanding communities with fallbacks; the
// mapping stays complete.
func (s *Scheduler) Run(ctx context.Context, contexts []*CommunityContext) (map[string]*EnrichmentResult, *RunStats, error) {
	start := time.Now()
	stats := &RunStats{
		RunID:            uuid.NewString(),
		TotalCommunities: len(contexts),
	}

	results := make(map[string]*EnrichmentResult, len(contexts))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, cc := range contexts {
		wg.Add(1)
		go func(cc *CommunityContext) {
			defer wg.Done()
			result := s.enrichOne(ctx, cc)

			mu.Lock()
			defer mu.Unlock()
			results[cc.CommunityID] = result
			switch result.Source {
			case SourceCache:
				stats.CacheHits++
			case SourceAI:
				stats.AISuccesses++
			default:
				stats.Fallbacks++
			}
			if s.metrics != nil {
				s.metrics.results.WithLabelValues(string(result.Source)).Inc()
			}
		}(cc)
	}
	wg.Wait()

	stats.Elapsed = time.Since(start)
	s.logger.Info("enrichment run complete",
		"run_id", stats.RunID,
		"total", stats.TotalCommunities,
		"cache_hits", stats.CacheHits,
		"ai_successes", stats.AISuccesses,
		"fallbacks", stats.Fallbacks,
		"elapsed", stats.Elapsed)
	return results, stats, nil
}

// enrichOne runs the per-community task: cache lookup, then the paced and
// bounded AI path, then unconditionally fallback-on-failure. It always
// returns a result.
func (s *Scheduler) enrichOne(ctx context.Context, cc *CommunityContext) *EnrichmentResult {
	if s.cfg.CacheEnabled {
		if cached, ok := s.store.Lookup(ctx, cc.Fingerprint); ok {
			hit := *cached
			hit.CommunityID = cc.CommunityID
			hit.Source = SourceCache
			return &hit
		}
	}

	if cc.Size < s.cfg.MinCommunitySize {
		return s.fallback.Generate(cc)
	}

	result, err := s.callAI(ctx, cc)
	if err != nil {
		s.logger.Warn("AI enrichment failed, using fallback",
			"community_id", cc.CommunityID,
			"error_class", errors.Classify(err),
			"error", err)
		return s.fallback.Generate(cc)
	}

	if s.cfg.CacheEnabled {
		s.store.Store(ctx, cc.Fingerprint, result)
	}
	return result
}

// callAI performs the bounded, paced AI attempt. Both gates respect
// cancellation so a cancelled run drains quickly.
func (s *Scheduler) callAI(ctx context.Context, cc *CommunityContext) (*EnrichmentResult, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.WrapTransient(err, "Scheduler", "callAI", "run cancelled while queued")
	}
	defer s.sem.Release(1)

	// Pacing gate: dispatch starts are serialized, completions are not
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, errors.WrapTransient(err, "Scheduler", "callAI", "run cancelled while pacing")
	}

	req := BuildRequest(cc)

	if s.metrics != nil {
		s.metrics.inFlight.Inc()
		defer s.metrics.inFlight.Dec()
	}
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.callDuration.Observe(time.Since(start).Seconds())
		}
	}()

	if s.cfg.RetryAttempts < 2 {
		return s.client.Enrich(ctx, req)
	}

	retryCfg := retry.Config{
		MaxAttempts:  s.cfg.RetryAttempts,
		InitialDelay: s.cfg.RetryDelay,
		Multiplier:   2.0,
		AddJitter:    true,
	}
	return retry.DoWithResult(ctx, retryCfg, func() (*EnrichmentResult, error) {
		result, err := s.client.Enrich(ctx, req)
		if err != nil && !errors.IsTransient(err) {
			return nil, retry.NonRetryable(err)
		}
		return result, err
	})
}
