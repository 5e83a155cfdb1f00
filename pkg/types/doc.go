// Package types defines the shared wire contracts between the combat-log
// collector, the aggregation server, and overlay clients. These are the
// canonical in-memory representations of raw combat counters and buff
// events; derived row shapes live next to the code that computes them.
package types
