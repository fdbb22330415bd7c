package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"IPOPulse/internal/domain/models"
	"IPOPulse/internal/domain/repository"
	"IPOPulse/internal/service/quota"
	"IPOPulse/pkg/logger"
)

// Aggregator fans out one operation across the registered source
// adapters under a bounded-concurrency join, validates and merges the
// records that come back, and scores the merged entities. A pass always
// completes: total source failure yields a structurally valid empty
// result, never an error.
type Aggregator struct {
	adapters map[string]repository.SourceAdapter
	order    []string // registration order, for stable task lists
	gate     *quota.Gate
	limited  string // name of the quota-gated source, "" if none
	metrics  repository.Metrics
	log      *logger.Logger

	concurrency int
}

type AggregatorOption func(*Aggregator)

func WithConcurrency(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

func WithMetrics(m repository.Metrics) AggregatorOption {
	return func(a *Aggregator) { a.metrics = m }
}

// NewAggregator builds an aggregator over the given adapters. limited
// names the adapter gated by the quota gate; pass "" when no source is
// rate-limited.
func NewAggregator(adapters []repository.SourceAdapter, gate *quota.Gate, limited string, log *logger.Logger, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		adapters:    make(map[string]repository.SourceAdapter, len(adapters)),
		gate:        gate,
		limited:     limited,
		log:         log,
		concurrency: 2,
	}
	for _, ad := range adapters {
		a.adapters[ad.Name()] = ad
		a.order = append(a.order, ad.Name())
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sources lists registered adapter names in registration order.
func (a *Aggregator) Sources() []string {
	return append([]string(nil), a.order...)
}

// Adapter returns a registered adapter by name.
func (a *Aggregator) Adapter(name string) (repository.SourceAdapter, bool) {
	ad, ok := a.adapters[name]
	return ad, ok
}

// Offerings aggregates the offerings operation across sources. An empty
// sources slice means all registered adapters.
func (a *Aggregator) Offerings(ctx context.Context, sources []string) *models.AggregateResult {
	return a.run(ctx, models.OpOfferings, sources)
}

// DemandFigures aggregates subscription/demand figures.
func (a *Aggregator) DemandFigures(ctx context.Context, sources []string) *models.AggregateResult {
	return a.run(ctx, models.OpDemand, sources)
}

// SentimentSignals aggregates grey-market price signals.
func (a *Aggregator) SentimentSignals(ctx context.Context, sources []string) *models.AggregateResult {
	return a.run(ctx, models.OpSentiment, sources)
}

// Run dispatches the named operation; the entry point for the route and
// CLI layers.
func (a *Aggregator) Run(ctx context.Context, op models.Operation, sources []string) *models.AggregateResult {
	return a.run(ctx, op, sources)
}

func (a *Aggregator) run(ctx context.Context, op models.Operation, sources []string) *models.AggregateResult {
	start := time.Now()

	tasks := a.taskList(op, sources)

	// Fan out with a channel semaphore so at most `concurrency`
	// adapters are in flight; rendered fetches cost one browser
	// process each. The join waits for every task to settle; one
	// adapter's failure or stall never aborts the others.
	results := make([]models.SourceResult, len(tasks))
	sem := make(chan struct{}, a.concurrency)
	var wg sync.WaitGroup
	for i, ad := range tasks {
		wg.Add(1)
		go func(i int, ad repository.SourceAdapter) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = a.settle(ctx, op, ad)
		}(i, ad)
	}
	wg.Wait()

	res := a.assemble(op, results)

	if a.metrics != nil {
		a.metrics.RecordPassDuration(string(op), time.Since(start).Seconds())
		if a.gate != nil {
			a.metrics.RecordQuotaUsed(a.gate.Status().Used)
		}
	}
	a.log.Info("aggregation pass complete",
		logger.String("operation", string(op)),
		logger.Int("entities", len(res.Data)),
		logger.Int("successful_sources", res.SuccessfulSources),
		logger.Int("total_sources", res.TotalSources),
		logger.Duration("elapsed", time.Since(start)),
	)
	return res
}

// taskList resolves requested source names to adapters, respecting the
// quota gate for the rate-limited source.
func (a *Aggregator) taskList(op models.Operation, sources []string) []repository.SourceAdapter {
	names := sources
	if len(names) == 0 {
		names = a.order
	}

	var tasks []repository.SourceAdapter
	for _, name := range names {
		ad, ok := a.adapters[name]
		if !ok {
			a.log.Warn("unknown source requested", logger.String("source", name))
			continue
		}
		if name == a.limited && a.gate != nil && !a.gate.CanRequest() {
			a.log.Info("source skipped, quota exhausted",
				logger.String("source", name),
				logger.String("operation", string(op)),
			)
			continue
		}
		tasks = append(tasks, ad)
	}
	return tasks
}

// settle invokes one adapter operation, converting a panic into the
// failure variant so a broken parser cannot take down the pass.
func (a *Aggregator) settle(ctx context.Context, op models.Operation, ad repository.SourceAdapter) models.SourceResult {
	return a.guard(ad, func() models.SourceResult {
		switch op {
		case models.OpDemand:
			return ad.DemandFigures(ctx)
		case models.OpSentiment:
			return ad.SentimentSignals(ctx)
		default:
			return ad.Offerings(ctx)
		}
	})
}

func (a *Aggregator) guard(ad repository.SourceAdapter, fn func() models.SourceResult) (res models.SourceResult) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("adapter panicked",
				logger.String("source", ad.Name()),
				logger.Any("panic", r),
			)
			res = models.SourceResult{
				Success:        false,
				Data:           []models.Offering{},
				Err:            fmt.Sprintf("panic: %v", r),
				Source:         ad.Name(),
				Timestamp:      time.Now().UTC(),
				ResponseTimeMs: time.Since(started).Milliseconds(),
			}
		}
	}()
	return fn()
}

// assemble validates, merges, and scores the settled results.
func (a *Aggregator) assemble(op models.Operation, results []models.SourceResult) *models.AggregateResult {
	merged := make(map[string]*models.MergedEntity)
	var keys []string

	outcomes := make([]models.SourceOutcome, 0, len(results))
	successful := 0

	for _, r := range results {
		outcomes = append(outcomes, models.SourceOutcome{
			Source:         r.Source,
			Success:        r.Success,
			Records:        len(r.Data),
			Error:          r.Err,
			ResponseTimeMs: r.ResponseTimeMs,
		})
		if !r.Success {
			continue
		}
		successful++

		for _, rec := range r.Data {
			if reason, ok := validateRecord(rec); !ok {
				if a.metrics != nil {
					a.metrics.RecordValidationReject(string(reason))
				}
				a.log.Debug("record rejected",
					logger.String("source", r.Source),
					logger.String("reason", string(reason)),
				)
				continue
			}

			key := NormalizeSymbol(rec.Symbol)
			if key == "" {
				if a.metrics != nil {
					a.metrics.RecordValidationReject(string(rejectNoSymbol))
				}
				continue
			}

			ent, ok := merged[key]
			if !ok {
				ent = &models.MergedEntity{}
				ent.Symbol = key
				merged[key] = ent
				keys = append(keys, key)
			}

			if op == models.OpSentiment {
				mergeLargestSignal(ent, rec)
			} else {
				mergeKeepExisting(ent, rec)
			}
			if rec.GMP != nil {
				ent.ObservedGMP = append(ent.ObservedGMP, *rec.GMP)
			}
			if !contains(ent.Sources, r.Source) {
				ent.Sources = append(ent.Sources, r.Source)
				ent.SourceCount++
			}
		}
	}

	sort.Strings(keys)
	data := make([]models.AggregatedEntity, 0, len(keys))
	for _, key := range keys {
		ent := merged[key]
		agg := models.AggregatedEntity{
			MergedEntity: *ent,
			Confidence:   deriveConfidence(ent.SourceCount, len(results)),
		}
		if op == models.OpSentiment {
			agg.Trend = deriveTrend(ent.ObservedGMP)
		}
		data = append(data, agg)
	}

	return &models.AggregateResult{
		PassID:            uuid.NewString(),
		Operation:         op,
		Data:              data,
		SourceResults:     outcomes,
		TotalSources:      len(results),
		SuccessfulSources: successful,
		Timestamp:         time.Now().UTC(),
	}
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
