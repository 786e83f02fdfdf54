package endpoint

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeEndpoint struct {
	id      string
	evalErr error
}

func (f *fakeEndpoint) Identity() string { return f.id }
func (f *fakeEndpoint) LoadScript(ctx context.Context, body string) (string, error) {
	return "digest", f.evalErr
}
func (f *fakeEndpoint) EvalDigest(ctx context.Context, digest string, keys []string, args []any) (int64, error) {
	if f.evalErr != nil {
		return 0, f.evalErr
	}
	return int64(len(keys)), nil
}
func (f *fakeEndpoint) Ping(ctx context.Context) error { return f.evalErr }

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	fail := errors.New("boom")
	inner := &fakeEndpoint{id: "e1", evalErr: fail}
	cb := NewCircuitBreaker(inner, 2, 30*time.Millisecond)
	ctx := context.Background()

	if _, err := inner.LoadScript(ctx, ""); err != fail {
		t.Fatalf("sanity: %v", err)
	}

	if _, err := cb.EvalDigest(ctx, "d", nil, nil); err != fail {
		t.Fatalf("expected fail, got %v", err)
	}
	if cb.state != stateClosed {
		t.Fatalf("expected still closed after 1 failure, got %v", cb.state)
	}

	if _, err := cb.EvalDigest(ctx, "d", nil, nil); err != fail {
		t.Fatalf("expected fail, got %v", err)
	}
	if cb.state != stateOpen {
		t.Fatalf("expected open after threshold, got %v", cb.state)
	}

	if _, err := cb.EvalDigest(ctx, "d", nil, nil); err == nil || err == fail {
		t.Fatalf("expected short-circuit error, got %v", err)
	}

	time.Sleep(40 * time.Millisecond)
	inner.evalErr = nil
	if _, err := cb.EvalDigest(ctx, "d", []string{"a"}, nil); err != nil {
		t.Fatalf("expected probe to succeed, got %v", err)
	}
	if cb.state != stateClosed {
		t.Fatalf("expected closed after successful probe, got %v", cb.state)
	}
}
