package notify

import "context"

// Bus is a best-effort, at-most-once event bus used to announce Redlock
// lifecycle events (acquire, extend, release, exhaustion) as they happen.
// It is a purely observational side channel: a missed or delayed delivery
// never affects correctness of the lock protocol itself, only the latency
// of the fast-reacquire optimization and the operator dashboard.
//
// Resources are addressed by their hash-tagged name (e.g. "{tenant}order-1"),
// so a Bus can also be watched by tenant: PublishTenant/WatchTenant operate
// on the hash-tag prefix shared by every resource belonging to one tenant,
// letting an operator watch contention across a tenant's locks without
// subscribing to each resource individually.
type Bus interface {
	// Publish announces ev to watchers of ev.Resource and to any tenant
	// watcher whose prefix matches ev.Resource.
	Publish(ctx context.Context, ev Event) error
	// PublishTenant announces ev to every resource watcher whose key has
	// the given prefix, and to every tenant watcher whose own prefix
	// matches. An empty prefix reaches every watcher on the bus.
	PublishTenant(ctx context.Context, prefix string, ev Event) error
	// Watch subscribes to events for a single resource. The returned
	// channel receives events until the context is canceled or Unwatch is
	// called.
	Watch(ctx context.Context, resource string) (chan Event, error)
	// WatchTenant subscribes to events for every resource under prefix.
	WatchTenant(ctx context.Context, prefix string) (chan Event, error)
	// Unwatch stops delivering events registered under key (a resource
	// passed to Watch, or a prefix passed to WatchTenant) to ch.
	Unwatch(ctx context.Context, key string, ch chan Event) error
}
