package buffs

import "sort"

// Truncation bounds for text-mode display.
const (
	MinVisibleText = 1
	MaxVisibleText = 20
)

// ProfileView is the slice of profile configuration the projection needs.
type ProfileView struct {
	// MonitoredIDs is the ordered allow-list of buff base ids.
	MonitoredIDs []int32

	// MonitorAll bypasses MonitoredIDs and considers every tracked id.
	MonitorAll bool

	// Priority is the profile-global priority order; earlier is higher.
	Priority []int32

	// GroupPriority is the per-display-group priority order, consulted
	// before Priority when grouped display mode is active. Nil otherwise.
	GroupPriority []int32

	// MaxVisible bounds the text-mode projection, clamped to [1, 20].
	MaxVisible int
}

// IconBuff is one icon-mode entry in the projection.
type IconBuff struct {
	BaseID      int32  `json:"baseId"`
	Name        string `json:"name"`
	SpriteFile  string `json:"spriteFile"`
	Layer       int32  `json:"layer"`
	RemainingMs int64  `json:"remainingMs"`
	DurationMs  int32  `json:"durationMs"`

	// Layered marks multi-image composite display; LayerIndex is the
	// stack count clamped to [1, configured layer count].
	Layered    bool  `json:"layered,omitempty"`
	LayerIndex int32 `json:"layerIndex,omitempty"`
}

// TextBuff is one text-mode entry in the projection.
type TextBuff struct {
	BaseID      int32  `json:"baseId"`
	Name        string `json:"name"`
	Layer       int32  `json:"layer"`
	RemainingMs int64  `json:"remainingMs"`
}

// Projection is the display-ready active-buff view for one tick.
type Projection struct {
	NowMs int64      `json:"nowMs"`
	Icons []IconBuff `json:"icons"`
	Text  []TextBuff `json:"text"`
}

// Projection computes the display projection at nowMs for the given
// profile view. Buffs with resolvable icon metadata populate the icon
// list (ordered by monitored-list position, then observation order);
// the rest populate the text list, truncated to MaxVisible by priority.
func (t *Tracker) Projection(view ProfileView, reg *Registry, layers LayerSpecs, nowMs int64) Projection {
	active := t.Active(nowMs)

	monitored := make(map[int32]int, len(view.MonitoredIDs))
	for i, id := range view.MonitoredIDs {
		if _, dup := monitored[id]; !dup {
			monitored[id] = i
		}
	}

	out := Projection{NowMs: nowMs, Icons: []IconBuff{}, Text: []TextBuff{}}

	var text []ActiveBuff
	for _, b := range active {
		if !view.MonitorAll {
			if _, ok := monitored[b.BaseID]; !ok {
				continue
			}
		}

		def, ok := reg.Resolve(b.BaseID)
		if !ok || def.SpriteFile == "" {
			text = append(text, b)
			continue
		}

		icon := IconBuff{
			BaseID:      b.BaseID,
			Name:        def.Name,
			SpriteFile:  def.SpriteFile,
			Layer:       b.Layer,
			RemainingMs: b.RemainingMs,
			DurationMs:  b.DurationMs,
		}
		if count, layered := layers[b.BaseID]; layered {
			icon.Layered = true
			icon.LayerIndex = clampLayer(b.Layer, count)
		}
		out.Icons = append(out.Icons, icon)
	}

	sort.SliceStable(out.Icons, func(i, j int) bool {
		return iconRank(out.Icons[i].BaseID, monitored) <
			iconRank(out.Icons[j].BaseID, monitored)
	})

	out.Text = truncateText(text, view, reg)
	return out
}

// truncateText orders text-mode buffs by priority and keeps at most the
// profile's visible count. Per-group priority outranks global priority;
// ids in neither list rank below all prioritized ids and keep their
// last-observed order among themselves.
func truncateText(active []ActiveBuff, view ProfileView, reg *Registry) []TextBuff {
	groupRank := indexOf(view.GroupPriority)
	globalRank := indexOf(view.Priority)

	rank := func(b ActiveBuff) (tier int, pos int64) {
		if p, ok := groupRank[b.BaseID]; ok {
			return 0, int64(p)
		}
		if p, ok := globalRank[b.BaseID]; ok {
			return 1, int64(p)
		}
		return 2, int64(b.seq)
	}

	sort.SliceStable(active, func(i, j int) bool {
		ti, pi := rank(active[i])
		tj, pj := rank(active[j])
		if ti != tj {
			return ti < tj
		}
		return pi < pj
	})

	max := view.MaxVisible
	if max < MinVisibleText {
		max = MinVisibleText
	}
	if max > MaxVisibleText {
		max = MaxVisibleText
	}
	if len(active) > max {
		active = active[:max]
	}

	out := make([]TextBuff, 0, len(active))
	for _, b := range active {
		name := ""
		if def, ok := reg.Resolve(b.BaseID); ok {
			name = def.Name
		}
		out = append(out, TextBuff{
			BaseID:      b.BaseID,
			Name:        name,
			Layer:       b.Layer,
			RemainingMs: b.RemainingMs,
		})
	}
	return out
}

// clampLayer clamps a stack count into [1, count].
func clampLayer(layer, count int32) int32 {
	if layer < 1 {
		return 1
	}
	if layer > count {
		return count
	}
	return layer
}

// iconRank orders icons by monitored-list position; under monitor-all the
// monitored map is empty so observation order (stable sort input) holds.
func iconRank(baseID int32, monitored map[int32]int) int {
	if pos, ok := monitored[baseID]; ok {
		return pos
	}
	return 1 << 30
}

func indexOf(ids []int32) map[int32]int {
	m := make(map[int32]int, len(ids))
	for i, id := range ids {
		if _, dup := m[id]; !dup {
			m[id] = i
		}
	}
	return m
}
