// Package endpoint defines the contract the redlock Coordinator and Script
// Broker use to talk to one independent key-value server, plus a default
// implementation backed by go-redis. Connection management, pipelining and
// command dispatch belong to the endpoint client library itself and are
// intentionally out of scope here: this package only adapts that library to
// the narrow surface the broker needs.
package endpoint

import "context"

// Endpoint is one independent server participating in the quorum set.
// Implementations must be safe for concurrent use: the Coordinator calls
// every endpoint concurrently within a single attempt.
type Endpoint interface {
	// Identity returns a stable label used as the map key in attempt
	// records (typically the endpoint's address).
	Identity() string

	// LoadScript loads a script body and returns its server-assigned
	// digest. Loading the same body twice must return the same digest.
	LoadScript(ctx context.Context, body string) (digest string, err error)

	// EvalDigest runs a previously loaded script by digest against the
	// given keys and arguments, returning the script's integer result.
	// It returns redlockerr.ErrNoScript if the endpoint no longer
	// recognizes the digest.
	EvalDigest(ctx context.Context, digest string, keys []string, args []any) (int64, error)

	// Ping checks liveness without side effects.
	Ping(ctx context.Context) error
}
