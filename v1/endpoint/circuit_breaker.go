package endpoint

import (
	"context"
	"sync"
	"time"

	"github.com/mirkobrombin/redlock/v1/redlockerr"
)

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

// CircuitBreaker decorates an Endpoint, short-circuiting calls after a run
// of consecutive transport failures so a known-dead endpoint does not cost
// every retry attempt a full dial timeout. This is local protection around
// one endpoint, not coordination between endpoints.
type CircuitBreaker struct {
	inner     Endpoint
	mu        sync.Mutex
	state     state
	failures  int
	threshold int
	cooldown  time.Duration
	lastFail  time.Time
}

// NewCircuitBreaker wraps inner, opening the circuit after threshold
// consecutive failures and attempting one probe call per cooldown while
// open.
func NewCircuitBreaker(inner Endpoint, threshold int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{inner: inner, threshold: threshold, cooldown: cooldown}
}

func (cb *CircuitBreaker) Identity() string { return cb.inner.Identity() }

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case stateClosed:
		return true
	case stateOpen:
		if time.Since(cb.lastFail) > cb.cooldown {
			cb.state = stateHalfOpen
			return true
		}
		return false
	default: // stateHalfOpen: only the probe already in flight is allowed
		return false
	}
}

func (cb *CircuitBreaker) onResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err == nil {
		cb.state = stateClosed
		cb.failures = 0
		return
	}
	cb.lastFail = time.Now()
	cb.failures++
	if cb.state == stateHalfOpen || cb.failures >= cb.threshold {
		cb.state = stateOpen
	}
}

func (cb *CircuitBreaker) shortCircuit() error {
	return &redlockerr.TransportError{Endpoint: cb.inner.Identity(), Cause: errShortCircuited}
}

func (cb *CircuitBreaker) LoadScript(ctx context.Context, body string) (string, error) {
	if !cb.allow() {
		return "", cb.shortCircuit()
	}
	digest, err := cb.inner.LoadScript(ctx, body)
	cb.onResult(err)
	return digest, err
}

func (cb *CircuitBreaker) EvalDigest(ctx context.Context, digest string, keys []string, args []any) (int64, error) {
	if !cb.allow() {
		return 0, cb.shortCircuit()
	}
	n, err := cb.inner.EvalDigest(ctx, digest, keys, args)
	cb.onResult(err)
	return n, err
}

func (cb *CircuitBreaker) Ping(ctx context.Context) error {
	if !cb.allow() {
		return cb.shortCircuit()
	}
	err := cb.inner.Ping(ctx)
	cb.onResult(err)
	return err
}

var errShortCircuited = shortCircuitedError{}

type shortCircuitedError struct{}

func (shortCircuitedError) Error() string { return "circuit breaker is open" }
