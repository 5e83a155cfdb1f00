package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/embermeter/embermeter/pkg/types"
	"github.com/embermeter/embermeter/server/internal/buffs"
	"github.com/embermeter/embermeter/server/internal/engine"
	"github.com/embermeter/embermeter/server/internal/notify"
	"github.com/embermeter/embermeter/server/internal/recount"
	"github.com/embermeter/embermeter/server/internal/store"
)

// Handler is the HTTP handler for all /api/v1/* endpoints. It derives rows
// and projections on demand from the live snapshot and buff tracker; nothing
// is cached between requests.
type Handler struct {
	store    *store.Store
	tracker  *buffs.Tracker
	registry *buffs.Registry
	layers   buffs.LayerSpecs
	notifier *notify.Engine
	metrics  *Metrics
	settings func() Settings
	now      func() time.Time
	mux      *http.ServeMux
}

// Deps wires a Handler. Notifier may be nil; a nil Settings func yields the
// zero Settings (no profile, no groups).
type Deps struct {
	Store    *store.Store
	Tracker  *buffs.Tracker
	Registry *buffs.Registry
	Layers   buffs.LayerSpecs
	Notifier *notify.Engine
	Metrics  *Metrics
	Settings func() Settings
}

// New creates a Handler and registers all routes.
func New(d Deps) *Handler {
	h := &Handler{
		store:    d.Store,
		tracker:  d.Tracker,
		registry: d.Registry,
		layers:   d.Layers,
		notifier: d.Notifier,
		metrics:  d.Metrics,
		settings: d.Settings,
		now:      time.Now,
	}
	if h.registry == nil {
		h.registry = buffs.NewRegistry(nil)
	}
	if h.metrics == nil {
		h.metrics = NewMetrics()
	}
	if h.settings == nil {
		h.settings = func() Settings { return Settings{} }
	}

	h.mux = http.NewServeMux()
	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/header", h.header)
	h.mux.HandleFunc("/api/v1/rows", h.rows)
	h.mux.HandleFunc("/api/v1/skills/", h.skills)   // subtree — extracts {uid}
	h.mux.HandleFunc("/api/v1/targets/", h.targets) // subtree — extracts {uid}
	h.mux.HandleFunc("/api/v1/buffs", h.buffs)
	h.mux.HandleFunc("/api/v1/notices", h.notices)
	h.mux.HandleFunc("/api/v1/encounters", h.listEncounters)
	h.mux.HandleFunc("/api/v1/encounters/", h.getEncounter) // subtree — extracts {id}[/rows]
	h.mux.HandleFunc("/api/v1/metricsz", h.metricsz)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health — liveness plus a few gauges.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := HealthResponse{
		Status:       "ok",
		WSClients:    h.metrics.WSClients(),
		TrackedBuffs: h.tracker.Count(),
		HistoryLen:   len(h.store.History()),
	}
	if p, ok := h.store.Live(); ok {
		resp.HasLive = true
		resp.LiveEntities = len(p.Entities)
		resp.Paused = p.IsPaused
	}
	jsonResp(w, http.StatusOK, resp)
}

// header returns GET /api/v1/header — the encounter-level summary.
func (h *Handler) header(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	p, ok := h.store.Live()
	if !ok {
		jsonErr(w, http.StatusNotFound, "no live encounter")
		return
	}
	jsonResp(w, http.StatusOK, engine.Header(p))
}

// rows returns GET /api/v1/rows?metric=&sort=&order= — the per-player table.
func (h *Handler) rows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	m, err := engine.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	p, ok := h.store.Live()
	if !ok {
		jsonResp(w, http.StatusOK, RowsResponse{Metric: string(m), Rows: []engine.PlayerRow{}})
		return
	}

	rows := engine.PlayerRows(p, m)
	if sortField := r.URL.Query().Get("sort"); sortField != "" {
		engine.SortRows(rows, sortField, r.URL.Query().Get("order") == "asc")
	}
	h.metrics.RowsDerived.Add(1)

	jsonResp(w, http.StatusOK, RowsResponse{
		Metric:    string(m),
		ElapsedMs: p.ElapsedMs.Float(),
		Paused:    p.IsPaused,
		Rows:      rows,
	})
}

// skills returns GET /api/v1/skills/{uid}?metric=&sort=&order= — one
// entity's per-skill breakdown with recount groups applied.
func (h *Handler) skills(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	uid, ok := pathID(r.URL.Path, "/api/v1/skills/")
	if !ok {
		jsonErr(w, http.StatusBadRequest, "invalid uid")
		return
	}
	m, err := engine.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	p, ok := h.store.Live()
	if !ok {
		jsonErr(w, http.StatusNotFound, "no live encounter")
		return
	}
	ent := findEntity(p, uid)
	if ent == nil {
		jsonErr(w, http.StatusNotFound, "entity not found")
		return
	}

	skills, channelTotal := skillChannel(ent, m)
	st := h.settings()
	opt := recount.Options{
		SortField: r.URL.Query().Get("sort"),
		Ascending: r.URL.Query().Get("order") == "asc",
		Order:     st.Order,
	}

	jsonResp(w, http.StatusOK, SkillsResponse{
		UID:    uid,
		Metric: string(m),
		Rows:   recount.Rows(skills, p.ElapsedMs, channelTotal, st.Grouper, opt),
	})
}

// targets returns GET /api/v1/targets/{uid}?metric= — one entity's damage
// or healing broken down by target. The tanked channel has no per-target
// breakdown and yields an empty list.
func (h *Handler) targets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	uid, ok := pathID(r.URL.Path, "/api/v1/targets/")
	if !ok {
		jsonErr(w, http.StatusBadRequest, "invalid uid")
		return
	}
	m, err := engine.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	p, ok := h.store.Live()
	if !ok {
		jsonErr(w, http.StatusNotFound, "no live encounter")
		return
	}
	ent := findEntity(p, uid)
	if ent == nil {
		jsonErr(w, http.StatusNotFound, "entity not found")
		return
	}

	var perTarget []types.PerTargetStats
	switch m {
	case engine.MetricDamage:
		perTarget = ent.DmgPerTarget
	case engine.MetricHeal:
		perTarget = ent.HealPerTarget
	}

	st := h.settings()
	targets := recount.PerTarget(perTarget, p.ElapsedMs, st.Grouper, recount.Options{Order: st.Order})
	if targets == nil {
		targets = []recount.TargetRows{}
	}
	jsonResp(w, http.StatusOK, TargetsResponse{UID: uid, Metric: string(m), Targets: targets})
}

// buffs returns GET /api/v1/buffs — the current display projection.
func (h *Handler) buffs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	st := h.settings()
	proj := h.tracker.Projection(st.View(), h.registry, h.layers, h.now().UnixMilli())
	jsonResp(w, http.StatusOK, proj)
}

// notices returns GET /api/v1/notices — currently firing notices.
func (h *Handler) notices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.notifier == nil {
		jsonResp(w, http.StatusOK, []*notify.Notice{})
		return
	}
	jsonResp(w, http.StatusOK, h.notifier.Active())
}

// listEncounters returns GET /api/v1/encounters — finished encounters,
// newest first.
func (h *Handler) listEncounters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	hist := h.store.History()
	out := make([]EncounterSummary, 0, len(hist))
	for _, e := range hist {
		out = append(out, toSummary(e))
	}
	jsonResp(w, http.StatusOK, out)
}

// getEncounter serves GET /api/v1/encounters/{id} and
// GET /api/v1/encounters/{id}/rows?metric=&sort=&order=.
func (h *Handler) getEncounter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/encounters/")
	if rest == "" {
		h.listEncounters(w, r)
		return
	}
	id, sub, _ := strings.Cut(rest, "/")

	e, ok := h.store.Encounter(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "encounter not found")
		return
	}

	switch sub {
	case "":
		jsonResp(w, http.StatusOK, EncounterDetail{
			EncounterSummary: toSummary(e),
			Header:           engine.Header(e.Snapshot),
		})
	case "rows":
		m, err := engine.ParseMetric(r.URL.Query().Get("metric"))
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		rows := engine.PlayerRows(e.Snapshot, m)
		if sortField := r.URL.Query().Get("sort"); sortField != "" {
			engine.SortRows(rows, sortField, r.URL.Query().Get("order") == "asc")
		}
		jsonResp(w, http.StatusOK, RowsResponse{
			Metric:    string(m),
			ElapsedMs: e.DurationMs,
			Rows:      rows,
		})
	default:
		jsonErr(w, http.StatusNotFound, "unknown encounter resource")
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// pathID extracts the numeric id segment after prefix.
func pathID(path, prefix string) (int64, bool) {
	s := strings.TrimPrefix(path, prefix)
	s, _, _ = strings.Cut(s, "/")
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil
}

func findEntity(p *types.LiveDataPayload, uid int64) *types.RawEntityData {
	for i := range p.Entities {
		if p.Entities[i].UID == uid {
			return &p.Entities[i]
		}
	}
	return nil
}

// skillChannel selects the per-skill map and the entity-level percentage
// denominator for a metric channel.
func skillChannel(ent *types.RawEntityData, m engine.Metric) (map[int64]types.RawSkillStats, types.Number) {
	switch m {
	case engine.MetricHeal:
		return ent.HealSkills, ent.Healing.Total
	case engine.MetricTanked:
		return ent.TakenSkills, ent.Taken.Total
	default:
		return ent.DmgSkills, ent.Damage.Total
	}
}

func toSummary(e *store.Encounter) EncounterSummary {
	return EncounterSummary{
		ID:         e.ID,
		EndedAt:    e.EndedAt.UTC().Format(time.RFC3339),
		DurationMs: e.DurationMs,
		Entities:   len(e.Snapshot.Entities),
	}
}
