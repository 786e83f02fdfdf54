package cache

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/mirkobrombin/redlock/v1/cache")

// Cache defines the basic operations for a cache layer.
//
// T represents the type of values stored in the cache.
type Cache[T any] interface {
	// Get retrieves a value for the given key. The boolean return
	// indicates whether the key was found. An error is returned if
	// retrieving the value fails.
	Get(ctx context.Context, key string) (T, bool, error)
	// Set stores the value for the given key for the specified TTL. A
	// zero TTL stores the value with no expiry.
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	// Invalidate removes the key from the cache.
	Invalidate(ctx context.Context, key string) error
}

// InMemoryCache is a mutex-guarded map with optional per-entry expiry,
// checked lazily on Get. It carries no eviction policy and no background
// sweeper: its only caller, the Script Broker, stores exactly three keys
// (acquire/extend/release digests) with ttl=0, so nothing here is ever
// under memory pressure and a stale entry can only be removed explicitly
// via Invalidate or replaced via Set.
type InMemoryCache[T any] struct {
	mu    sync.RWMutex
	items map[string]item[T]

	hitCounter      prometheus.Counter
	missCounter     prometheus.Counter
	evictionCounter prometheus.Counter
	latencyHist     prometheus.Histogram
	traceEnabled    bool
}

type item[T any] struct {
	value     T
	expiresAt time.Time
}

// InMemoryOption configures an InMemoryCache.
type InMemoryOption[T any] func(*InMemoryCache[T])

// WithMetrics enables Prometheus metrics collection using the provided registerer.
func WithMetrics[T any](reg prometheus.Registerer) InMemoryOption[T] {
	return func(c *InMemoryCache[T]) {
		c.hitCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redlock_cache_hits_total",
			Help: "Total number of cache hits",
		})
		c.missCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redlock_cache_misses_total",
			Help: "Total number of cache misses",
		})
		c.evictionCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redlock_cache_evictions_total",
			Help: "Total number of cache evictions",
		})
		c.latencyHist = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "redlock_cache_latency_seconds",
			Help:    "Latency of cache operations",
			Buckets: prometheus.DefBuckets,
		})
		reg.MustRegister(c.hitCounter, c.missCounter, c.evictionCounter, c.latencyHist)
	}
}

// WithTracing enables OpenTelemetry tracing for cache operations.
func WithTracing[T any]() InMemoryOption[T] {
	return func(c *InMemoryCache[T]) {
		c.traceEnabled = true
	}
}

// NewInMemory returns a new InMemoryCache instance.
func NewInMemory[T any](opts ...InMemoryOption[T]) *InMemoryCache[T] {
	c := &InMemoryCache[T]{items: make(map[string]item[T])}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get implements Cache.Get.
func (c *InMemoryCache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var span trace.Span
	var start time.Time
	if c.traceEnabled {
		ctx, span = tracer.Start(ctx, "Cache.Get")
		defer span.End()
		start = time.Now()
	} else if c.latencyHist != nil {
		start = time.Now()
	}
	if c.traceEnabled || c.latencyHist != nil {
		defer func() {
			latency := time.Since(start)
			if c.traceEnabled {
				span.SetAttributes(attribute.Int64("redlock.cache.latency_ms", latency.Milliseconds()))
			}
			if c.latencyHist != nil {
				c.latencyHist.Observe(latency.Seconds())
			}
		}()
	}
	select {
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	default:
	}

	c.mu.Lock()
	it, ok := c.items[key]
	expired := ok && !it.expiresAt.IsZero() && time.Now().After(it.expiresAt)
	if expired {
		delete(c.items, key)
	}
	c.mu.Unlock()

	if !ok || expired {
		if c.missCounter != nil {
			c.missCounter.Inc()
		}
		if expired && c.evictionCounter != nil {
			c.evictionCounter.Inc()
		}
		if c.traceEnabled {
			span.SetAttributes(attribute.String("redlock.cache.result", "miss"))
		}
		var zero T
		return zero, false, nil
	}
	if c.hitCounter != nil {
		c.hitCounter.Inc()
	}
	if c.traceEnabled {
		span.SetAttributes(attribute.String("redlock.cache.result", "hit"))
	}
	return it.value, true, nil
}

// Set implements Cache.Set.
func (c *InMemoryCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	var span trace.Span
	var start time.Time
	if c.traceEnabled {
		ctx, span = tracer.Start(ctx, "Cache.Set")
		defer span.End()
		start = time.Now()
	} else if c.latencyHist != nil {
		start = time.Now()
	}
	if c.traceEnabled || c.latencyHist != nil {
		defer func() {
			latency := time.Since(start)
			if c.traceEnabled {
				span.SetAttributes(attribute.Int64("redlock.cache.latency_ms", latency.Milliseconds()))
			}
			if c.latencyHist != nil {
				c.latencyHist.Observe(latency.Seconds())
			}
		}()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	c.items[key] = item[T]{value: value, expiresAt: exp}
	return nil
}

// Invalidate implements Cache.Invalidate.
func (c *InMemoryCache[T]) Invalidate(ctx context.Context, key string) error {
	var span trace.Span
	var start time.Time
	if c.traceEnabled {
		ctx, span = tracer.Start(ctx, "Cache.Invalidate")
		defer span.End()
		start = time.Now()
	} else if c.latencyHist != nil {
		start = time.Now()
	}
	if c.traceEnabled || c.latencyHist != nil {
		defer func() {
			latency := time.Since(start)
			if c.traceEnabled {
				span.SetAttributes(attribute.Int64("redlock.cache.latency_ms", latency.Milliseconds()))
			}
			if c.latencyHist != nil {
				c.latencyHist.Observe(latency.Seconds())
			}
		}()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if _, ok := c.items[key]; ok {
		delete(c.items, key)
		if c.evictionCounter != nil {
			c.evictionCounter.Inc()
		}
	}
	return nil
}
