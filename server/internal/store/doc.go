// Package store holds the current live combat snapshot and an in-memory
// ring of finished encounters. It provides a thread-safe store with TTL
// eviction for history; persistence of past encounters is out of scope.
package store
