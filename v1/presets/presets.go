// Package presets provides convenience constructors that wire together a
// Coordinator from plain connection details, so callers don't need to
// assemble endpoints and a broker by hand for the common case of a Redis
// quorum.
package presets

import (
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/mirkobrombin/redlock/v1/endpoint"
	"github.com/mirkobrombin/redlock/v1/redlock"
)

// RedisNode describes one endpoint in a Redis-backed quorum.
type RedisNode struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisQuorum builds a Coordinator over one go-redis client per node,
// each wrapped as an independent Endpoint. Per spec.md §6, callers running
// against a Redis Cluster must hash-tag resource names (e.g.
// "{group}resourceA") so every resource in a single call lands on the same
// shard.
func NewRedisQuorum(nodes []RedisNode, opts ...redlock.Option) (*redlock.Coordinator, error) {
	endpoints := make([]endpoint.Endpoint, len(nodes))
	for i, n := range nodes {
		client := redis.NewClient(&redis.Options{
			Addr:     n.Addr,
			Password: n.Password,
			DB:       n.DB,
		})
		endpoints[i] = endpoint.New(n.Addr, client)
	}
	return redlock.New(endpoints, opts...)
}

// NewRedisQuorumWithCircuitBreaker is identical to NewRedisQuorum but wraps
// every endpoint in a CircuitBreaker, so a node that fails threshold
// consecutive times stops being dispatched to until cooldown passes.
func NewRedisQuorumWithCircuitBreaker(nodes []RedisNode, threshold int, cooldown time.Duration, opts ...redlock.Option) (*redlock.Coordinator, error) {
	endpoints := make([]endpoint.Endpoint, len(nodes))
	for i, n := range nodes {
		client := redis.NewClient(&redis.Options{
			Addr:     n.Addr,
			Password: n.Password,
			DB:       n.DB,
		})
		endpoints[i] = endpoint.NewCircuitBreaker(endpoint.New(n.Addr, client), threshold, cooldown)
	}
	return redlock.New(endpoints, opts...)
}
