// Package notify evaluates threshold rules against derived player rows and
// delivers webhook notifications when rules fire or resolve. Rules are
// simple "field operator value" expressions over row statistics
// ("dps < 1000", "crit_rate < 20") plus the encounter pause state.
package notify
