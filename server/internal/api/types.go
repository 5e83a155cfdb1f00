package api

import (
	"github.com/embermeter/embermeter/pkg/types"
	"github.com/embermeter/embermeter/server/internal/buffs"
	"github.com/embermeter/embermeter/server/internal/config"
	"github.com/embermeter/embermeter/server/internal/engine"
	"github.com/embermeter/embermeter/server/internal/recount"
)

// Settings is the hot-reloadable slice of configuration the API reads on
// every request. Main swaps a fresh value in on config reload; handlers
// only ever see a complete snapshot.
type Settings struct {
	Profile    config.ResolvedProfile
	HasProfile bool
	Grouper    recount.Grouper
	Order      recount.Order
}

// View maps the profile to the buff projection's input.
func (s Settings) View() buffs.ProfileView {
	return buffs.ProfileView{
		MonitoredIDs:  s.Profile.MonitoredBuffIDs,
		MonitorAll:    s.Profile.MonitorAllBuffs,
		Priority:      s.Profile.PriorityBuffIDs,
		GroupPriority: s.Profile.GroupPriority,
		MaxVisible:    s.Profile.MaxVisibleText,
	}
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status       string `json:"status"`
	LiveEntities int    `json:"live_entities"`
	HasLive      bool   `json:"has_live"`
	Paused       bool   `json:"paused"`
	WSClients    int    `json:"ws_clients"`
	TrackedBuffs int    `json:"tracked_buffs"`
	HistoryLen   int    `json:"history_len"`
}

// RowsResponse is the payload for GET /api/v1/rows.
type RowsResponse struct {
	Metric    string             `json:"metric"`
	ElapsedMs float64            `json:"elapsedMs"`
	Paused    bool               `json:"isPaused"`
	Rows      []engine.PlayerRow `json:"rows"`
}

// SkillsResponse is the payload for GET /api/v1/skills/{uid}.
type SkillsResponse struct {
	UID    int64             `json:"uid"`
	Metric string            `json:"metric"`
	Rows   []recount.SkillRow `json:"rows"`
}

// TargetsResponse is the payload for GET /api/v1/targets/{uid}.
type TargetsResponse struct {
	UID     int64                `json:"uid"`
	Metric  string               `json:"metric"`
	Targets []recount.TargetRows `json:"targets"`
}

// StreamRows is the rows frame pushed over the WebSocket stream: the
// header and the damage rows in one envelope, so the overlay repaints
// from a single message.
type StreamRows struct {
	Header types.HeaderInfo   `json:"header"`
	Metric string             `json:"metric"`
	Paused bool               `json:"isPaused"`
	Rows   []engine.PlayerRow `json:"rows"`
}

// EncounterSummary is one finished encounter in GET /api/v1/encounters.
type EncounterSummary struct {
	ID         string  `json:"id"`
	EndedAt    string  `json:"endedAt"` // RFC3339
	DurationMs float64 `json:"durationMs"`
	Entities   int     `json:"entities"`
}

// EncounterDetail is the payload for GET /api/v1/encounters/{id}.
type EncounterDetail struct {
	EncounterSummary
	Header types.HeaderInfo `json:"header"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
