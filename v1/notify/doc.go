// Package notify carries best-effort Redlock event notifications: a
// resource was acquired, extended, released, or its quorum was exhausted.
// Two consumers exist. The Redlock Coordinator's fast-reacquire path races
// a release notification against its own jittered backoff timer, so a
// waiter can retry immediately after the holder lets go instead of sitting
// out the full backoff window. An operator dashboard streams the same
// events over SSE or WebSocket for visibility into lock contention.
//
// Delivery is at-most-once and non-blocking: a watcher that is not
// actively receiving can miss events. This is acceptable because the
// notification bus is never on the correctness path — a missed release
// notification only costs the waiter one extra backoff cycle.
package notify
