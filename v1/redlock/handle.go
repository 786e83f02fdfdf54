package redlock

import (
	"context"
	"time"

	"github.com/mirkobrombin/redlock/v1/redlockerr"
)

// Handle represents a currently held lock. It is created only when an
// acquisition reached quorum with positive remaining validity, and must
// not be reused after Release.
//
// A Handle is not safe for concurrent Extend/Release calls; the owning
// caller is responsible for serializing them.
type Handle struct {
	coordinator *Coordinator
	cfg         Config

	resources []string
	value     string
	attempts  []redlockerr.AttemptRecord
	expiresAt time.Time
	released  bool
}

// Resources returns the ordered resource names this Handle covers.
func (h *Handle) Resources() []string {
	return append([]string(nil), h.resources...)
}

// Value returns the lock's ownership token.
func (h *Handle) Value() string { return h.value }

// Attempts returns the per-retry vote summary from the acquisition or the
// most recent successful extension.
func (h *Handle) Attempts() []redlockerr.AttemptRecord { return h.attempts }

// Expiration returns the absolute monotonic instant beyond which the lock
// is definitely invalid from the caller's perspective.
func (h *Handle) Expiration() time.Time { return h.expiresAt }

// Remaining returns the lock's remaining validity window. A non-positive
// result means the lock may no longer be safely held.
func (h *Handle) Remaining() time.Duration { return time.Until(h.expiresAt) }

// Extend re-enters the Coordinator's quorum protocol to reset every
// endpoint's TTL to newDurationMs; the new expiration is the successful
// attempt's start plus newDurationMs, less the drift allowance. On success the Handle's value is
// unchanged, its expiration strictly advances, and its attempts log is
// replaced with the new attempt log. On failure the Handle is invalidated:
// the caller must treat the lock as lost and must not call Extend or
// Release on it again.
func (h *Handle) Extend(ctx context.Context, newDurationMs int64, opts ...Option) (*Handle, error) {
	if h.released {
		return nil, redlockerr.NewInvalidArgument("redlock: handle already released")
	}
	cfg := h.cfg
	for _, opt := range opts {
		opt(&cfg)
	}
	expiresAt, attempts, err := h.coordinator.extend(ctx, cfg, h.resources, h.value, newDurationMs)
	if err != nil {
		h.released = true
		return h, err
	}
	h.expiresAt = expiresAt
	h.attempts = attempts
	return h, nil
}

// Release dispatches a best-effort release to every endpoint and consumes
// the Handle. Calling Release more than once is a no-op.
func (h *Handle) Release(ctx context.Context) error {
	if h.released {
		return nil
	}
	h.released = true
	_, err := h.coordinator.release(ctx, h.cfg, h.resources, h.value)
	return err
}
