package endpoint

import (
	"context"
	"errors"

	redis "github.com/redis/go-redis/v9"

	"github.com/mirkobrombin/redlock/v1/redlockerr"
)

// RedisEndpoint adapts a go-redis client to the Endpoint contract.
// redis.Cmdable is satisfied by *redis.Client, *redis.ClusterClient and
// *redis.Ring, so a single independent server or a sharded cluster can both
// serve as one quorum member provided callers hash-tag multi-resource keys
// as spec'd.
type RedisEndpoint struct {
	identity string
	client   redis.Cmdable
}

// New returns an Endpoint backed by client, identified by identity in
// attempt records (typically the endpoint's address).
func New(identity string, client redis.Cmdable) *RedisEndpoint {
	return &RedisEndpoint{identity: identity, client: client}
}

func (e *RedisEndpoint) Identity() string { return e.identity }

// LoadScript implements Endpoint.LoadScript via SCRIPT LOAD.
func (e *RedisEndpoint) LoadScript(ctx context.Context, body string) (string, error) {
	return e.client.ScriptLoad(ctx, body).Result()
}

// EvalDigest implements Endpoint.EvalDigest via EVALSHA.
func (e *RedisEndpoint) EvalDigest(ctx context.Context, digest string, keys []string, args []any) (int64, error) {
	res, err := e.client.EvalSha(ctx, digest, keys, args...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		if isNoScript(err) {
			return 0, redlockerr.ErrNoScript
		}
		return 0, err
	}
	n, ok := toInt64(res)
	if !ok {
		return 0, errors.New("redlock: unexpected script return type")
	}
	return n, nil
}

func (e *RedisEndpoint) Ping(ctx context.Context) error {
	return e.client.Ping(ctx).Err()
}

func isNoScript(err error) bool {
	// go-redis surfaces "NOSCRIPT No matching script..." as a plain error
	// whose message is prefixed by the server's error code.
	s := err.Error()
	return len(s) >= 8 && s[:8] == "NOSCRIPT"
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
