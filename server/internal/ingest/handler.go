package ingest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/embermeter/embermeter/pkg/types"
	"github.com/embermeter/embermeter/server/internal/api"
	"github.com/embermeter/embermeter/server/internal/buffs"
	"github.com/embermeter/embermeter/server/internal/engine"
	"github.com/embermeter/embermeter/server/internal/notify"
	"github.com/embermeter/embermeter/server/internal/store"
)

// Handler accepts collector payloads on /ingest/v1/*.
type Handler struct {
	store    *store.Store
	tracker  *buffs.Tracker
	notifier *notify.Engine
	metrics  *api.Metrics
	mux      *http.ServeMux
}

// New creates a Handler wired to the given subsystems and registers all
// ingest routes. notifier may be nil when notifications are not configured.
func New(st *store.Store, tr *buffs.Tracker, notifier *notify.Engine, m *api.Metrics) *Handler {
	h := &Handler{store: st, tracker: tr, notifier: notifier, metrics: m, mux: http.NewServeMux()}

	h.mux.HandleFunc("/ingest/v1/live", h.live)
	h.mux.HandleFunc("/ingest/v1/buffs", h.buffs)
	h.mux.HandleFunc("/ingest/v1/end", h.end)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// live accepts POST /ingest/v1/live — one LiveDataPayload per tick.
// The stored payload replaces the previous snapshot wholesale.
func (h *Handler) live(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var p types.LiveDataPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid live payload: "+err.Error())
		return
	}

	h.store.Put(&p)
	h.metrics.LivePayloads.Add(1)

	slog.Debug("ingest: live snapshot stored",
		"elapsed_ms", p.ElapsedMs.Float(),
		"entities", len(p.Entities),
		"paused", p.IsPaused,
	)

	if h.notifier != nil {
		h.notifier.Evaluate(engine.PlayerRows(&p, engine.MetricDamage), p.IsPaused)
	}

	jsonOK(w)
}

// buffs accepts POST /ingest/v1/buffs — a batch of buff observations.
func (h *Handler) buffs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var p types.BuffUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid buff payload: "+err.Error())
		return
	}

	h.tracker.Merge(p.Buffs)
	h.metrics.BuffBatches.Add(1)
	h.metrics.BuffsMerged.Add(int64(len(p.Buffs)))

	jsonOK(w)
}

// end accepts POST /ingest/v1/end — the encounter-end marker. The live
// snapshot becomes a finished encounter with its elapsed time as the
// authoritative final duration.
func (h *Handler) end(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	enc, ok := h.store.EndEncounter()
	if !ok {
		jsonErr(w, http.StatusConflict, "no live encounter")
		return
	}
	h.metrics.EncountersEnded.Add(1)
	h.tracker.Reset()

	slog.Info("ingest: encounter ended",
		"id", enc.ID, "duration_ms", enc.DurationMs)

	writeJSON(w, http.StatusOK, map[string]string{"id": enc.ID})
}

// --- helpers ----------------------------------------------------------------

func jsonOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
