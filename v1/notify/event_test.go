package notify

import (
	"context"
	"testing"
	"time"
)

func TestPublishFillsBlankID(t *testing.T) {
	bus := NewInMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Watch(ctx, "order:42")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	want := Event{Kind: Released, Resource: "order:42", Token: "tok", Endpoints: 5, Quorum: 3, Votes: 3, At: time.Unix(1000, 0)}
	if err := bus.Publish(context.Background(), want); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-ch:
		if got.ID == "" {
			t.Fatal("expected a generated ID")
		}
		if got.Kind != want.Kind || got.Resource != want.Resource || got.Token != want.Token {
			t.Fatalf("unexpected event %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPublishPreservesCallerID(t *testing.T) {
	bus := NewInMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Watch(ctx, "r")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := bus.Publish(context.Background(), Event{ID: "caller-id", Kind: Acquired, Resource: "r"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-ch:
		if got.ID != "caller-id" {
			t.Fatalf("expected caller-supplied ID to survive, got %q", got.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}
