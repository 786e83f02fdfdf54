package redlock

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/mirkobrombin/redlock/v1/broker"
	"github.com/mirkobrombin/redlock/v1/endpoint"
	"github.com/mirkobrombin/redlock/v1/metrics"
	"github.com/mirkobrombin/redlock/v1/notify"
	"github.com/mirkobrombin/redlock/v1/redlockerr"
)

var tracer = otel.Tracer("github.com/mirkobrombin/redlock/v1/redlock")

type opKind int

const (
	opAcquire opKind = iota
	opExtend
	opRelease
)

// Coordinator runs the Redlock quorum protocol over a fixed set of
// endpoints. A Coordinator is safe for concurrent use: callers may acquire,
// extend and release unrelated Handles concurrently from many goroutines.
type Coordinator struct {
	endpoints []endpoint.Endpoint
	quorum    int
	cfg       Config
}

// New constructs a Coordinator over the given endpoints. Endpoints must be
// independent (not replicas of one another); quorum is ⌊N/2⌋+1.
func New(endpoints []endpoint.Endpoint, opts ...Option) (*Coordinator, error) {
	if len(endpoints) == 0 {
		return nil, redlockerr.NewInvalidArgument("redlock: at least one endpoint is required")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.broker == nil {
		cfg.broker = broker.New()
	}
	return &Coordinator{
		endpoints: endpoints,
		quorum:    len(endpoints)/2 + 1,
		cfg:       cfg,
	}, nil
}

func (c *Coordinator) mergeConfig(opts []Option) Config {
	cfg := c.cfg
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Acquire implements spec.md §4.2.1: it validates the request, draws a
// fresh lock value, and runs the quorum protocol until it succeeds or
// exhausts its retries.
func (c *Coordinator) Acquire(ctx context.Context, resources []string, durationMs int64, opts ...Option) (*Handle, error) {
	if len(resources) == 0 {
		return nil, redlockerr.NewInvalidArgument("redlock: resources must not be empty")
	}
	if durationMs <= 0 {
		return nil, redlockerr.NewInvalidArgument("Duration must be an integer value in milliseconds.")
	}
	cfg := c.mergeConfig(opts)

	value, err := newToken()
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "Coordinator.Acquire")
	defer span.End()

	expiresAt, attempts, err := c.runQuorum(ctx, cfg, opAcquire, resources, value, durationMs)
	c.recordOutcome(metrics.AcquireTotal, err)
	c.publish(ctx, cfg, notify.Acquired, resources, value, attempts, err)
	if err != nil {
		return nil, err
	}
	return &Handle{
		coordinator: c,
		cfg:         cfg,
		resources:   append([]string(nil), resources...),
		value:       value,
		attempts:    attempts,
		expiresAt:   expiresAt,
	}, nil
}

// extend re-enters the quorum protocol with the same lock value and a new
// duration. Called by Handle.Extend.
func (c *Coordinator) extend(ctx context.Context, cfg Config, resources []string, value string, durationMs int64) (time.Time, []redlockerr.AttemptRecord, error) {
	if durationMs <= 0 {
		return time.Time{}, nil, redlockerr.NewInvalidArgument("Duration must be an integer value in milliseconds.")
	}
	ctx, span := tracer.Start(ctx, "Coordinator.extend")
	defer span.End()

	expiresAt, attempts, err := c.runQuorum(ctx, cfg, opExtend, resources, value, durationMs)
	c.recordOutcome(metrics.ExtendTotal, err)
	c.publish(ctx, cfg, notify.Extended, resources, value, attempts, err)
	return expiresAt, attempts, err
}

// release dispatches release(resources, value, db) to every endpoint,
// concurrently, without requiring quorum. Called by Handle.Release.
func (c *Coordinator) release(ctx context.Context, cfg Config, resources []string, value string) (redlockerr.AttemptRecord, error) {
	ctx, span := tracer.Start(ctx, "Coordinator.release")
	defer span.End()

	results := c.dispatch(ctx, cfg, opRelease, resources, value, 0)
	record := redlockerr.AttemptRecord{
		VotesFor:     make(map[string]struct{}),
		VotesAgainst: make(map[string]redlockerr.Vote),
	}
	responded := 0
	for _, r := range results {
		if r.err != nil {
			record.VotesAgainst[r.identity] = toVote(r.identity, r.err)
			continue
		}
		responded++
		record.VotesFor[r.identity] = struct{}{}
	}

	var err error
	if responded == 0 {
		err = &redlockerr.ExecutionError{Attempts: []redlockerr.AttemptRecord{record}}
	}
	c.recordOutcome(metrics.ReleaseTotal, err)
	c.publish(ctx, cfg, notify.Released, resources, value, []redlockerr.AttemptRecord{record}, err)
	return record, err
}

// runQuorum implements the shared acquire/extend retry loop from spec.md
// §4.2.1-§4.2.2: dispatch to every endpoint, count votes, check the
// remaining validity window, and retry with jittered backoff on failure.
func (c *Coordinator) runQuorum(ctx context.Context, cfg Config, op opKind, resources []string, value string, durationMs int64) (time.Time, []redlockerr.AttemptRecord, error) {
	requested := time.Duration(durationMs) * time.Millisecond
	drift := time.Duration(int64(cfg.driftFactor*float64(durationMs)))*time.Millisecond + clockResolutionAllowance

	var attempts []redlockerr.AttemptRecord
	for attempt := 0; cfg.retryCount < 0 || attempt <= cfg.retryCount; attempt++ {
		start := time.Now()
		results := c.dispatch(ctx, cfg, op, resources, value, durationMs)
		elapsed := time.Since(start)

		record := classifyQuorum(results, int64(len(resources)), resources)
		attempts = append(attempts, record)

		metrics.AttemptDuration.Observe(elapsed.Seconds())
		metrics.QuorumVotes.Observe(float64(len(record.VotesFor)))

		remaining := requested - elapsed - drift
		if len(record.VotesFor) >= c.quorum && remaining > 0 {
			return start.Add(requested - drift), attempts, nil
		}

		// Best-effort release so a minority of successful votes doesn't
		// strand resources until their TTL expires on its own.
		c.dispatch(ctx, cfg, opRelease, resources, value, 0)

		if cfg.retryCount >= 0 && attempt == cfg.retryCount {
			break
		}
		backoff := cfg.retryDelay + jitter(cfg.retryJitter)
		if waitErr := c.waitForBackoffOrRelease(ctx, cfg, resources[0], backoff); waitErr != nil {
			return time.Time{}, attempts, waitErr
		}
	}
	return time.Time{}, attempts, &redlockerr.ExecutionError{Attempts: attempts}
}

type endpointResult struct {
	identity string
	n        int64
	err      error
}

// dispatch fans out op to every endpoint concurrently and waits for all of
// them to settle: a barrier over settled outcomes, not first-failure, so
// one slow or failing endpoint never cancels its siblings.
func (c *Coordinator) dispatch(ctx context.Context, cfg Config, op opKind, resources []string, value string, durationMs int64) []endpointResult {
	results := make([]endpointResult, len(c.endpoints))
	var g errgroup.Group
	for i, ep := range c.endpoints {
		i, ep := i, ep
		g.Go(func() error {
			n, err := c.call(ctx, cfg, ep, op, resources, value, durationMs)
			results[i] = endpointResult{identity: ep.Identity(), n: n, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Coordinator) call(ctx context.Context, cfg Config, ep endpoint.Endpoint, op opKind, resources []string, value string, durationMs int64) (int64, error) {
	switch op {
	case opAcquire:
		return cfg.broker.Acquire(ctx, ep, resources, value, durationMs, cfg.db)
	case opExtend:
		return cfg.broker.Extend(ctx, ep, resources, value, durationMs, cfg.db)
	default:
		return cfg.broker.Release(ctx, ep, resources, value, cfg.db)
	}
}

func classifyQuorum(results []endpointResult, want int64, resources []string) redlockerr.AttemptRecord {
	votesFor := make(map[string]struct{})
	votesAgainst := make(map[string]redlockerr.Vote)
	for _, r := range results {
		switch {
		case r.err != nil:
			votesAgainst[r.identity] = toVote(r.identity, r.err)
		case r.n == want:
			votesFor[r.identity] = struct{}{}
		default:
			votesAgainst[r.identity] = redlockerr.Vote{Locked: &redlockerr.ResourceLockedError{Resources: resources}}
		}
	}
	return redlockerr.AttemptRecord{VotesFor: votesFor, VotesAgainst: votesAgainst}
}

func toVote(identity string, err error) redlockerr.Vote {
	var te *redlockerr.TransportError
	if errors.As(err, &te) {
		return redlockerr.Vote{Transport: te}
	}
	return redlockerr.Vote{Transport: &redlockerr.TransportError{Endpoint: identity, Cause: err}}
}

// waitForBackoffOrRelease sleeps for backoff, but wakes early if cfg.bus
// reports another holder released resource first: racing the nominal
// backoff against a release notification shaves most of the backoff off
// the common case of contending for a short-lived lock.
func (c *Coordinator) waitForBackoffOrRelease(ctx context.Context, cfg Config, resource string, backoff time.Duration) error {
	if cfg.bus == nil {
		select {
		case <-time.After(backoff):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	events, err := cfg.bus.Watch(watchCtx, resource)
	if err != nil {
		select {
		case <-time.After(backoff):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	timer := time.NewTimer(backoff)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				select {
				case <-timer.C:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if ev.Kind == notify.Released {
				return nil
			}
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// jitter returns a uniform value in [-max, +max). It is not clamped: when
// the sum with the retry delay is negative, the backoff timer fires at once,
// which amounts to a zero wait.
func jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(2*max))) - max
}

func (c *Coordinator) recordOutcome(counter *prometheus.CounterVec, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailure
	}
	counter.WithLabelValues(result).Inc()
}

func (c *Coordinator) publish(ctx context.Context, cfg Config, kind notify.Kind, resources []string, value string, attempts []redlockerr.AttemptRecord, err error) {
	if cfg.bus == nil {
		return
	}
	k := kind
	token := value
	if err != nil {
		k = notify.Exhausted
		token = ""
	}
	votes := 0
	if len(attempts) > 0 {
		votes = len(attempts[len(attempts)-1].VotesFor)
	}
	for _, r := range resources {
		ev := notify.Event{
			Kind:      k,
			Resource:  r,
			Token:     token,
			Endpoints: len(c.endpoints),
			Quorum:    c.quorum,
			Votes:     votes,
			At:        time.Now(),
		}
		if pubErr := cfg.bus.Publish(ctx, ev); pubErr != nil {
			slog.Debug("redlock: failed to publish event", "resource", r, "error", pubErr)
		}
	}
}
