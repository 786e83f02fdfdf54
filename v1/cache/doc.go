// Package cache provides the generic concurrent store used by the Script
// Broker to hold its process-wide script-digest cache: a small, long-lived
// map from script kind to server-assigned digest. Entries are never swept
// in the background; a stale digest is removed explicitly (via Invalidate)
// or replaced (via Set) when the broker reloads it after a NOSCRIPT miss.
package cache
