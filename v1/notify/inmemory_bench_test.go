package notify

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
)

// BenchmarkInMemoryPublish measures publish throughput with many concurrent
// publishers and watchers.
func BenchmarkInMemoryPublish(b *testing.B) {
	bus := NewInMemory()
	ctx := context.Background()

	const watchers = 1000
	for i := 0; i < watchers; i++ {
		resource := fmt.Sprintf("{tenant}resource-%d", i)
		ch, _ := bus.Watch(ctx, resource)
		go func(c chan Event) {
			for range c {
			}
		}(ch)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(0))
		for pb.Next() {
			resource := fmt.Sprintf("{tenant}resource-%d", r.Intn(watchers))
			_ = bus.Publish(ctx, Event{Kind: Acquired, Resource: resource})
		}
	})
}
