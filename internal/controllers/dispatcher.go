package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/amaumene/rankboard/internal/config"
	"github.com/amaumene/rankboard/internal/metrics"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
	"github.com/amaumene/rankboard/internal/tracing"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SearchOptions tunes a search. Year is a year token ("2021", "decade-1990", "1990s").
type SearchOptions struct {
	Limit int
	Year  string
}

// DiscoverOptions tunes a discovery call
type DiscoverOptions struct {
	Year  string
	Limit int
}

// Dispatcher routes catalog calls to the adapter registered for a category.
// It never fails: upstream errors, panics and timeouts all come back as no data.
type Dispatcher struct {
	adapters map[models.Provider]providers.Adapter
	cache    *cache.Cache
	timeout  time.Duration
	workers  int
	tracer   trace.Tracer
	logger   *logrus.Logger
}

// NewDispatcher creates a dispatcher over the given adapters. Nil adapters
// (providers disabled by configuration) are skipped.
func NewDispatcher(cfg *config.Config, adapters []providers.Adapter, logger *logrus.Logger) *Dispatcher {
	d := &Dispatcher{
		adapters: make(map[models.Provider]providers.Adapter),
		timeout:  cfg.ProviderTimeout,
		workers:  cfg.FanOutWorkers,
		tracer:   tracing.Tracer(),
		logger:   logger,
	}
	if cfg.CacheTTL > 0 {
		d.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	if d.workers < 1 {
		d.workers = 1
	}

	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		d.adapters[adapter.Name()] = adapter
	}
	return d
}

// Enabled reports whether category has a configured upstream
func (d *Dispatcher) Enabled(category models.Category) bool {
	_, ok := d.adapterFor(category)
	return ok
}

func (d *Dispatcher) adapterFor(category models.Category) (providers.Adapter, bool) {
	info := providers.Lookup(category)
	if !info.Searchable() {
		return nil, false
	}
	adapter, ok := d.adapters[info.Provider]
	return adapter, ok
}

// Search queries the category's upstream
func (d *Dispatcher) Search(ctx context.Context, query string, category models.Category, opts SearchOptions) []models.Item {
	query = strings.TrimSpace(query)
	adapter, ok := d.adapterFor(category)
	if !ok || query == "" {
		return []models.Item{}
	}

	q := providers.Query{Limit: opts.Limit, Year: providers.ParseYearFilter(opts.Year)}
	q.Limit = q.EffectiveLimit()

	key := cacheKey("search", category, query, q)
	if items, hit := d.cached(key, "search"); hit {
		return items
	}

	items, ok := guard(d, ctx, "search", adapter.Name(), category, func(ctx context.Context) ([]models.Item, error) {
		return adapter.Search(ctx, query, category, q)
	})
	if !ok {
		return []models.Item{}
	}

	items = d.finish(items, q)
	d.store(key, items)
	return items
}

// Discover returns trending or canned-term results for the category
func (d *Dispatcher) Discover(ctx context.Context, category models.Category, opts DiscoverOptions) []models.Item {
	adapter, ok := d.adapterFor(category)
	if !ok {
		return []models.Item{}
	}

	q := providers.Query{Limit: opts.Limit, Year: providers.ParseYearFilter(opts.Year)}
	q.Limit = q.EffectiveLimit()

	key := cacheKey("discover", category, "", q)
	if items, hit := d.cached(key, "discover"); hit {
		return items
	}

	items, ok := guard(d, ctx, "discover", adapter.Name(), category, func(ctx context.Context) ([]models.Item, error) {
		return adapter.Discover(ctx, category, q)
	})
	if !ok {
		return []models.Item{}
	}

	items = d.finish(items, q)
	d.store(key, items)
	return items
}

// GetByID fetches one item; nil means not found or unavailable
func (d *Dispatcher) GetByID(ctx context.Context, id string, category models.Category) *models.Item {
	adapter, ok := d.adapterFor(category)
	if !ok || strings.TrimSpace(id) == "" {
		return nil
	}

	key := fmt.Sprintf("item|%s|%s", category, id)
	if d.cache != nil {
		if v, found := d.cache.Get(key); found {
			metrics.CacheHits.WithLabelValues("item").Inc()
			item := v.(models.Item).Clone()
			return &item
		}
	}

	item, ok := guard(d, ctx, "get", adapter.Name(), category, func(ctx context.Context) (*models.Item, error) {
		return adapter.GetByID(ctx, id, category)
	})
	if !ok || item == nil {
		return nil
	}

	if d.cache != nil {
		d.cache.SetDefault(key, item.Clone())
	}
	return item
}

// SearchAll runs the query against every searchable category with a configured
// upstream, a bounded number at a time. One category failing leaves the others intact.
func (d *Dispatcher) SearchAll(ctx context.Context, query string, opts SearchOptions) map[models.Category][]models.Item {
	results := make(map[models.Category][]models.Item)
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(d.workers)
	for _, info := range providers.Categories() {
		category := info.Category
		if !d.Enabled(category) {
			continue
		}
		p.Go(func() {
			items := d.Search(ctx, query, category, opts)
			mu.Lock()
			results[category] = items
			mu.Unlock()
		})
	}
	p.Wait()

	return results
}

// finish applies the year filter (unknown years kept), drops duplicates and truncates
func (d *Dispatcher) finish(items []models.Item, q providers.Query) []models.Item {
	items = providers.FilterByYear(items, q.Year)
	items = providers.Dedupe(items)
	items = providers.Truncate(items, q.Limit)
	if items == nil {
		items = []models.Item{}
	}
	return items
}

func cacheKey(op string, category models.Category, query string, q providers.Query) string {
	year := ""
	if q.Year != nil {
		year = fmt.Sprintf("%d-%d", q.Year.StartYear, q.Year.EndYear)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%d", op, category, strings.ToLower(query), year, q.Limit)
}

func (d *Dispatcher) cached(key, op string) ([]models.Item, bool) {
	if d.cache == nil {
		return nil, false
	}
	v, found := d.cache.Get(key)
	if !found {
		return nil, false
	}
	metrics.CacheHits.WithLabelValues(op).Inc()
	return models.CloneItems(v.([]models.Item)), true
}

// store caches successful results only, failures are retried on the next call
func (d *Dispatcher) store(key string, items []models.Item) {
	if d.cache != nil {
		d.cache.SetDefault(key, models.CloneItems(items))
	}
}

type guarded[T any] struct {
	value T
	err   error
}

// guard runs fn under the provider timeout and converts every failure into ok == false.
// fn runs on its own goroutine so an adapter that ignores ctx cannot hold the caller.
func guard[T any](d *Dispatcher, ctx context.Context, op string, provider models.Provider, category models.Category, fn func(ctx context.Context) (T, error)) (T, bool) {
	var zero T

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	ctx, span := d.tracer.Start(ctx, "provider."+op, trace.WithAttributes(
		attribute.String("provider", string(provider)),
		attribute.String("category", string(category)),
	))
	defer span.End()

	log := d.logger.WithFields(logrus.Fields{
		"provider":  provider,
		"category":  category,
		"operation": op,
	})

	start := time.Now()
	done := make(chan guarded[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- guarded[T]{err: fmt.Errorf("adapter panic: %v", r)}
			}
		}()
		value, err := fn(ctx)
		done <- guarded[T]{value: value, err: err}
	}()

	var result guarded[T]
	select {
	case result = <-done:
	case <-ctx.Done():
		result = guarded[T]{err: ctx.Err()}
	}
	metrics.ProviderLatency.WithLabelValues(string(provider), op).Observe(time.Since(start).Seconds())

	if result.err != nil {
		outcome := metrics.OutcomeError
		switch {
		case errors.Is(result.err, providers.ErrRateLimited):
			outcome = metrics.OutcomeRateLimited
		case errors.Is(result.err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			outcome = metrics.OutcomeTimeout
		}
		metrics.ProviderRequests.WithLabelValues(string(provider), op, outcome).Inc()
		span.RecordError(result.err)
		span.SetStatus(codes.Error, outcome)
		log.WithError(result.err).WithField("outcome", outcome).Warn("Provider call failed, returning no data")
		return zero, false
	}

	metrics.ProviderRequests.WithLabelValues(string(provider), op, metrics.OutcomeOK).Inc()
	log.WithField("duration", time.Since(start)).Debug("Provider call completed")
	return result.value, true
}
