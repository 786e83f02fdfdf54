package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInMemoryCacheGetSetInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewInMemory[string]()

	if err := c.Set(ctx, "acquire", "sha1", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, err := c.Get(ctx, "acquire"); err != nil || !ok || v != "sha1" {
		t.Fatalf("Get: expected sha1, got %q ok=%v err=%v", v, ok, err)
	}
	if err := c.Invalidate(ctx, "acquire"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, err := c.Get(ctx, "acquire"); ok || err != nil {
		t.Fatalf("expected miss after invalidate")
	}
}

func TestInMemoryCacheNoTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := NewInMemory[string]()
	if err := c.Set(ctx, "acquire", "sha1", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if v, ok, _ := c.Get(ctx, "acquire"); !ok || v != "sha1" {
		t.Fatalf("expected a ttl=0 entry to never expire")
	}
}

func TestInMemoryCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c := NewInMemory[string]()
	if err := c.Set(ctx, "foo", "bar", 5*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(15 * time.Millisecond)
	if _, ok, err := c.Get(ctx, "foo"); ok || err != nil {
		t.Fatalf("expected key to expire")
	}
}

func TestInMemoryCacheContext(t *testing.T) {
	c := NewInMemory[string]()

	ctxSet, cancelSet := context.WithCancel(context.Background())
	cancelSet()
	if err := c.Set(ctxSet, "a", "b", time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled error, got %v", err)
	}
	if _, ok, err := c.Get(context.Background(), "a"); ok || err != nil {
		t.Fatalf("item should not be stored when context is canceled")
	}

	if err := c.Set(context.Background(), "foo", "bar", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctxGet, cancelGet := context.WithCancel(context.Background())
	cancelGet()
	if v, ok, err := c.Get(ctxGet, "foo"); !errors.Is(err, context.Canceled) || ok || v != "" {
		t.Fatalf("expected canceled context to prevent retrieval")
	}

	ctxInv, cancelInv := context.WithCancel(context.Background())
	cancelInv()
	if err := c.Invalidate(ctxInv, "foo"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled error, got %v", err)
	}
	if v, ok, err := c.Get(context.Background(), "foo"); err != nil || !ok || v != "bar" {
		t.Fatalf("item should remain after canceled invalidate")
	}
}
