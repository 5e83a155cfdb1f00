package api

import (
	"log/slog"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// metricsz returns GET /api/v1/metricsz — the service's own counters and
// gauges in Prometheus text exposition format.
func (h *Handler) metricsz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	families := []*dto.MetricFamily{
		counter("embermeter_live_payloads_total",
			"Live snapshot payloads accepted.", h.metrics.LivePayloads.Load()),
		counter("embermeter_buff_batches_total",
			"Buff observation batches accepted.", h.metrics.BuffBatches.Load()),
		counter("embermeter_buffs_merged_total",
			"Individual buff observations merged.", h.metrics.BuffsMerged.Load()),
		counter("embermeter_encounters_ended_total",
			"Encounters moved into history.", h.metrics.EncountersEnded.Load()),
		counter("embermeter_rows_derived_total",
			"Row derivations served.", h.metrics.RowsDerived.Load()),
		gauge("embermeter_ws_clients",
			"Connected overlay clients.", int64(h.metrics.WSClients())),
		gauge("embermeter_tracked_buffs",
			"Retained buff observations, expired included.", int64(h.tracker.Count())),
		gauge("embermeter_history_encounters",
			"Retained finished encounters.", int64(h.store.Count())),
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			slog.Warn("api: metricsz encode failed", "family", mf.GetName(), "error", err)
			return
		}
	}
}

func counter(name, help string, v int64) *dto.MetricFamily {
	t := dto.MetricType_COUNTER
	val := float64(v)
	return &dto.MetricFamily{
		Name:   &name,
		Help:   &help,
		Type:   &t,
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: &val}}},
	}
}

func gauge(name, help string, v int64) *dto.MetricFamily {
	t := dto.MetricType_GAUGE
	val := float64(v)
	return &dto.MetricFamily{
		Name:   &name,
		Help:   &help,
		Type:   &t,
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: &val}}},
	}
}
