// Package api implements the HTTP REST API for embermeter-server.
//
// New(deps) returns a Handler that serves:
//
//	GET /api/v1/health                — liveness plus client/buff/history gauges
//	GET /api/v1/header                — encounter-level summary; 404 without a live snapshot
//	GET /api/v1/rows                  — per-player rows (?metric=&sort=&order=)
//	GET /api/v1/skills/{uid}          — one entity's skill breakdown with groups applied
//	GET /api/v1/targets/{uid}         — one entity's per-target breakdown
//	GET /api/v1/buffs                 — current buff display projection
//	GET /api/v1/notices               — currently firing notices
//	GET /api/v1/encounters            — finished encounters, newest first
//	GET /api/v1/encounters/{id}       — one encounter's summary and header
//	GET /api/v1/encounters/{id}/rows  — rows derived from a finished snapshot
//	GET /api/v1/metricsz              — service counters in Prometheus text format
//
// All endpoints respond with Content-Type: application/json (metricsz
// excepted) and return 405 for non-GET methods. Rows and projections are
// derived per request; nothing is cached between requests.
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
