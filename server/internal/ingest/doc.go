// Package ingest is the collector-facing boundary: HTTP endpoints that
// accept live combat snapshots, buff update batches, and encounter-end
// markers, validate them, and hand them to the store, the buff tracker,
// and the notification engine. Requests are authenticated by an optional
// API-key middleware.
package ingest
