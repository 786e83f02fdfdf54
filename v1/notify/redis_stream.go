package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStreamBus uses Redis Streams (for per-resource watchers, which read
// only entries added after Watch is called) plus Redis Pub/Sub (for
// tenant-prefix fan-out) to implement Bus across
// processes. Events cross the wire as JSON, unlike InMemoryBus which hands
// watchers the Event value directly.
type RedisStreamBus struct {
	client        *redis.Client
	mu            sync.Mutex
	cancels       map[string]map[chan Event]context.CancelFunc
	prefixCancels map[string]map[chan Event]context.CancelFunc
}

// NewRedisStream creates a new RedisStreamBus using the provided client.
func NewRedisStream(client *redis.Client) *RedisStreamBus {
	return &RedisStreamBus{
		client:        client,
		cancels:       make(map[string]map[chan Event]context.CancelFunc),
		prefixCancels: make(map[string]map[chan Event]context.CancelFunc),
	}
}

// Publish adds ev to the Redis stream identified by ev.Resource and
// publishes it on the matching Pub/Sub channel for tenant watchers.
func (b *RedisStreamBus) Publish(ctx context.Context, ev Event) error {
	ev = ev.withID()
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.client.XAdd(ctx, &redis.XAddArgs{Stream: ev.Resource, Values: map[string]any{"data": data}}).Err(); err != nil {
		return err
	}
	return b.client.Publish(ctx, ev.Resource, data).Err()
}

// PublishTenant publishes ev to every resource stream indexed under
// prefix, and to prefix's own Pub/Sub channel for tenant watchers.
func (b *RedisStreamBus) PublishTenant(ctx context.Context, prefix string, ev Event) error {
	ev = ev.withID()
	var cursor uint64
	for {
		resources, next, err := b.client.SScan(ctx, "redlock:notify:index", cursor, prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		for _, r := range resources {
			if err := b.Publish(ctx, withResource(ev, r)); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, prefix, data).Err()
}

func withResource(ev Event, resource string) Event {
	ev.Resource = resource
	return ev
}

// Watch reads events from the Redis stream for resource.
func (b *RedisStreamBus) Watch(ctx context.Context, resource string) (chan Event, error) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan Event, 1)

	b.mu.Lock()
	m := b.cancels[resource]
	if m == nil {
		m = make(map[chan Event]context.CancelFunc)
		b.cancels[resource] = m
	}
	m[ch] = cancel
	if len(m) == 1 {
		_ = b.client.SAdd(context.Background(), "redlock:notify:index", resource).Err()
	}
	b.mu.Unlock()

	go func() {
		defer close(ch)
		lastID := "$"
		for {
			res, err := b.client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{resource, lastID},
				Block:   0,
				Count:   1,
			}).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				time.Sleep(time.Second)
				continue
			}
			for _, s := range res {
				for _, msg := range s.Messages {
					lastID = msg.ID
					if v, ok := msg.Values["data"].(string); ok {
						ev, ok := decodeEvent(v)
						if !ok {
							continue
						}
						select {
						case ch <- ev:
						case <-ctx.Done():
							return
						}
					}
				}
			}
		}
	}()

	return ch, nil
}

// WatchTenant subscribes to every event published for a resource under
// prefix, or via PublishTenant(prefix, ...) directly.
func (b *RedisStreamBus) WatchTenant(ctx context.Context, prefix string) (chan Event, error) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan Event, 1)

	ps := b.client.PSubscribe(ctx, prefix+"*")
	b.mu.Lock()
	m := b.prefixCancels[prefix]
	if m == nil {
		m = make(map[chan Event]context.CancelFunc)
		b.prefixCancels[prefix] = m
	}
	m[ch] = func() {
		cancel()
		_ = ps.Close()
	}
	b.mu.Unlock()

	go func() {
		defer close(ch)
		for {
			msg, err := ps.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			ev, ok := decodeEvent(msg.Payload)
			if !ok {
				continue
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func decodeEvent(payload string) (Event, bool) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, false
	}
	return ev, true
}

// Unwatch stops watching the given key and channel.
func (b *RedisStreamBus) Unwatch(ctx context.Context, key string, ch chan Event) error {
	b.mu.Lock()
	if m, ok := b.cancels[key]; ok {
		if cancel, ok := m[ch]; ok {
			delete(m, ch)
			if len(m) == 0 {
				delete(b.cancels, key)
				_ = b.client.SRem(context.Background(), "redlock:notify:index", key).Err()
			}
			b.mu.Unlock()
			cancel()
			return nil
		}
	}
	if m, ok := b.prefixCancels[key]; ok {
		if cancel, ok := m[ch]; ok {
			delete(m, ch)
			if len(m) == 0 {
				delete(b.prefixCancels, key)
			}
			b.mu.Unlock()
			cancel()
			return nil
		}
	}
	b.mu.Unlock()
	return nil
}
