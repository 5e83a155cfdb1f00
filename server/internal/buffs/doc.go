// Package buffs tracks temporary status effects between collector updates.
//
// tracker.go keeps the latest observation per buff base id using a
// last-writer-wins merge keyed by creation timestamp, so redelivered or
// reordered batches converge on the same state. Liveness is recomputed
// lazily from timestamps on every tick (remaining = createTime + duration
// − now) instead of scheduling per-buff expiry timers.
//
// projection.go joins active buffs against a profile's monitored set,
// icon metadata, and priority lists to produce the display projection:
// icon buffs (optionally layered by stack count) and text buffs truncated
// to the profile's maximum visible count.
package buffs
