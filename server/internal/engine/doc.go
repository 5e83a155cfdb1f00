// Package engine derives presentation-ready player rows from raw combat
// counter snapshots.
//
// rows.go provides pure functions mapping a LiveDataPayload plus a metric
// selector (damage | heal | tanked) into ranked, percentage-annotated rows.
// Every ratio uses the same guard: a non-positive denominator resolves to 0,
// so the first tick of a new encounter (elapsed time 0) never produces NaN
// or Inf. Entities with a zero metric total are omitted, not zeroed.
//
// All functions are stateless and re-entrant; deriving twice from the same
// payload yields identical output.
package engine
