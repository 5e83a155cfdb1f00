package api

import "sync/atomic"

// Metrics holds the service's own counters, exposed by the /api/v1/metricsz
// endpoint in Prometheus text format. Buff and history gauges are read
// straight off the handler's own subsystems; WSClients is a callback
// because the hub lives outside the handler and is wired in by main.
type Metrics struct {
	LivePayloads    atomic.Int64
	BuffBatches     atomic.Int64
	BuffsMerged     atomic.Int64
	EncountersEnded atomic.Int64
	RowsDerived     atomic.Int64

	// WSClients reports currently connected overlay clients.
	WSClients func() int
}

// NewMetrics returns a Metrics with a no-op client gauge.
func NewMetrics() *Metrics {
	return &Metrics{
		WSClients: func() int { return 0 },
	}
}
