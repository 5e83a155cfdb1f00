// Package recount partitions a per-skill stats map into named recount
// groups (sub-effects of one parent ability) and an ungrouped remainder,
// then derives row statistics at both granularities.
//
// Group membership is game content, not logic — it is injected through the
// Grouper interface and normally backed by a static table from
// configuration. Group rates are always derived from summed raw counters;
// averaging child percentages across skills with different hit counts is
// wrong and deliberately not implemented.
package recount
