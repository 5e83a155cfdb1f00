// Package config loads and watches the service configuration (config.yaml).
//
// Sections:
//   - server:  http_port, ingest auth (apikey|none), encounter history TTL,
//     broadcast/buff-tick intervals, row ordering, notify rules + webhooks
//   - monitor: profile-based skill/buff monitor settings — active profile
//     index (clamped into range), monitored skill ids (truncated to 10),
//     monitored buff ids, monitor-all toggle, global and per-display-group
//     buff priority lists, text-mode max visible count (1–20)
//   - tables:  paths to the static lookup tables (buff definitions,
//     recount groups, layered-display specs)
//   - classes: per-class default monitored buff ids, merged after the
//     profile's own ids with first-occurrence-wins dedup
//
// Load(path) applies defaults before unmarshalling, then validates.
// ActiveProfile() resolves the effective profile for the engines.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It handles the rename→create
// pattern used by atomic-save editors by re-adding the watch after reload.
package config
