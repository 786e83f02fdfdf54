// Package redlock implements a distributed mutual-exclusion client against
// a set of independent key-value endpoints, following the Redlock quorum
// algorithm: a lock is held when a majority of endpoints agree within a
// bounded wall-clock window. The package exposes a Coordinator that runs
// the acquire/extend/release protocol, a Handle representing a currently
// held lock, and a Using helper that runs caller work under a lock with
// transparent background extension.
package redlock
