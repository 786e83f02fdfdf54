// Package broker implements the Script Broker: three idempotent
// server-side operations (acquire, extend, release) dispatched to one
// endpoint at a time, backed by a process-wide script-digest cache with
// reload-on-miss. It has no notion of quorum or retries — that is the
// Redlock Coordinator's job.
package broker

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/mirkobrombin/redlock/v1/cache"
	"github.com/mirkobrombin/redlock/v1/endpoint"
	"github.com/mirkobrombin/redlock/v1/redlockerr"
)

var tracer = otel.Tracer("github.com/mirkobrombin/redlock/v1/broker")

type scriptKind int

const (
	kindAcquire scriptKind = iota
	kindExtend
	kindRelease
)

func (k scriptKind) body() string {
	switch k {
	case kindAcquire:
		return acquireScript
	case kindExtend:
		return extendScript
	default:
		return releaseScript
	}
}

func (k scriptKind) cacheKey() string {
	switch k {
	case kindAcquire:
		return "acquire"
	case kindExtend:
		return "extend"
	default:
		return "release"
	}
}

// Broker dispatches the three lock scripts against individual endpoints,
// caching each script's server-assigned digest so steady-state calls use
// EVALSHA instead of re-shipping the script body.
type Broker struct {
	digests cache.Cache[string]
}

// Option configures a Broker.
type Option func(*Broker)

// WithDigestCache overrides the digest cache backend. The default is a
// plain in-memory cache, adequate since only three digests are ever
// stored; callers who want lookups to survive a misbehaving cache backend
// may wrap it in cache.NewResilient(...) instead.
func WithDigestCache(c cache.Cache[string]) Option {
	return func(b *Broker) { b.digests = c }
}

// New returns a Broker with a fresh digest cache unless WithDigestCache is
// supplied.
func New(opts ...Option) *Broker {
	b := &Broker{digests: cache.NewInMemory[string]()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Acquire implements spec.md §4.1's acquire(keys, value, ttlMs, db).
func (b *Broker) Acquire(ctx context.Context, ep endpoint.Endpoint, keys []string, value string, ttlMs int64, db int) (int64, error) {
	return b.run(ctx, ep, kindAcquire, keys, []any{value, ttlMs, db})
}

// Extend implements spec.md §4.1's extend(keys, value, ttlMs, db).
func (b *Broker) Extend(ctx context.Context, ep endpoint.Endpoint, keys []string, value string, ttlMs int64, db int) (int64, error) {
	return b.run(ctx, ep, kindExtend, keys, []any{value, ttlMs, db})
}

// Release implements spec.md §4.1's release(keys, value, db).
func (b *Broker) Release(ctx context.Context, ep endpoint.Endpoint, keys []string, value string, db int) (int64, error) {
	return b.run(ctx, ep, kindRelease, keys, []any{value, db})
}

func (b *Broker) run(ctx context.Context, ep endpoint.Endpoint, kind scriptKind, keys []string, argv []any) (int64, error) {
	ctx, span := tracer.Start(ctx, "Broker.run")
	defer span.End()

	digest, err := b.digestFor(ctx, ep, kind)
	if err != nil {
		return 0, &redlockerr.TransportError{Endpoint: ep.Identity(), Cause: err}
	}

	n, err := ep.EvalDigest(ctx, digest, keys, argv)
	if err == redlockerr.ErrNoScript {
		slog.Debug("redlock: script missing on endpoint, reloading", "endpoint", ep.Identity(), "script", kind.cacheKey())
		digest, err = ep.LoadScript(ctx, kind.body())
		if err != nil {
			return 0, &redlockerr.TransportError{Endpoint: ep.Identity(), Cause: err}
		}
		_ = b.digests.Set(ctx, kind.cacheKey(), digest, 0)
		n, err = ep.EvalDigest(ctx, digest, keys, argv)
	}
	if err != nil {
		return 0, &redlockerr.TransportError{Endpoint: ep.Identity(), Cause: err}
	}
	return n, nil
}

// digestFor returns the cached digest for kind, loading it on the given
// endpoint (and caching it process-wide) on first use. Loading the same
// script body twice is idempotent, so a cache populated by one endpoint is
// safe to reuse when dispatching to another.
func (b *Broker) digestFor(ctx context.Context, ep endpoint.Endpoint, kind scriptKind) (string, error) {
	if digest, ok, err := b.digests.Get(ctx, kind.cacheKey()); err == nil && ok {
		return digest, nil
	}
	digest, err := ep.LoadScript(ctx, kind.body())
	if err != nil {
		return "", err
	}
	_ = b.digests.Set(ctx, kind.cacheKey(), digest, 0)
	return digest, nil
}
