package recount

import (
	"sort"

	"github.com/embermeter/embermeter/pkg/types"
)

// Order controls how group rows and ungrouped skill rows are arranged at
// depth 0.
type Order int

const (
	// OrderGroupsFirst sorts group rows and ungrouped rows independently,
	// then concatenates groups before ungrouped skills.
	OrderGroupsFirst Order = iota

	// OrderMixed sorts group rows and ungrouped rows together.
	OrderMixed
)

// Options selects sorting and arrangement for Rows.
// The zero value sorts by total, descending, groups first.
type Options struct {
	SortField string
	Ascending bool
	Order     Order
}

// SkillRow is one derived row at either granularity. Group rows carry the
// group's aggregate identity and their member skills as depth-1 children;
// expansion state is owned by the caller.
type SkillRow struct {
	SkillID     int64  `json:"skillId,omitempty"`
	RecountID   int64  `json:"recountId,omitempty"`
	RecountName string `json:"recountName,omitempty"`
	IsGroup     bool   `json:"isGroup"`
	Depth       int    `json:"depth"`

	Total         float64 `json:"total"`
	DPS           float64 `json:"dps"`
	Pct           float64 `json:"pct"`
	Hits          float64 `json:"hits"`
	HitsPerMinute float64 `json:"hitsPerMinute"`
	CritRate      float64 `json:"critRate"`
	LuckyRate     float64 `json:"luckyRate"`
	CritDmgRate   float64 `json:"critDmgRate"`
	LuckyDmgRate  float64 `json:"luckyDmgRate"`

	Children []SkillRow `json:"children,omitempty"`
}

// TargetRows is one target's derived skill breakdown.
type TargetRows struct {
	TargetUID  int64      `json:"targetUid"`
	TargetName string     `json:"targetName"`
	TotalValue float64    `json:"totalValue"`
	Rows       []SkillRow `json:"rows"`
}

// Rows derives skill rows for one entity's per-skill stats map.
//
// Skills mapping to a group by g become depth-1 children of a depth-0 group
// row whose counters are the arithmetic sums of its members; remaining
// skills become depth-0 rows of their own. elapsedMs is the throughput
// baseline and channelTotal the percentage denominator, both guarded
// against non-positive values.
func Rows(skills map[int64]types.RawSkillStats, elapsedMs, channelTotal types.Number, g Grouper, opt Options) []SkillRow {
	if g == nil {
		g = NoGroups
	}
	elapsedSecs := elapsedMs.Float() / 1000
	total := channelTotal.Float()

	type bucket struct {
		group Group
		sum   types.RawSkillStats
		rows  []SkillRow
	}
	buckets := make(map[int64]*bucket)
	var groupOrder []int64
	var loose []SkillRow

	// Iterate ids in sorted order so derivation is deterministic for maps.
	ids := make([]int64, 0, len(skills))
	for id := range skills {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		st := skills[id]
		row := deriveSkill(st, elapsedSecs, total)
		row.SkillID = id

		grp, ok := g.GroupOf(id)
		if !ok {
			loose = append(loose, row)
			continue
		}

		b, seen := buckets[grp.ID]
		if !seen {
			b = &bucket{group: grp}
			buckets[grp.ID] = b
			groupOrder = append(groupOrder, grp.ID)
		}
		row.Depth = 1
		row.RecountID = grp.ID
		b.rows = append(b.rows, row)

		b.sum.TotalValue += st.TotalValue
		b.sum.Hits += st.Hits
		b.sum.CritHits += st.CritHits
		b.sum.CritTotalValue += st.CritTotalValue
		b.sum.LuckyHits += st.LuckyHits
		b.sum.LuckyTotalValue += st.LuckyTotalValue
	}

	groups := make([]SkillRow, 0, len(buckets))
	for _, gid := range groupOrder {
		b := buckets[gid]
		row := deriveSkill(b.sum, elapsedSecs, total)
		row.IsGroup = true
		row.RecountID = b.group.ID
		row.RecountName = b.group.Name
		sortSkillRows(b.rows, opt)
		row.Children = b.rows
		groups = append(groups, row)
	}

	switch opt.Order {
	case OrderMixed:
		out := append(groups, loose...)
		sortSkillRows(out, opt)
		return out
	default:
		sortSkillRows(groups, opt)
		sortSkillRows(loose, opt)
		return append(groups, loose...)
	}
}

// PerTarget derives skill rows per target, targets ordered by total value
// descending. Each target's percentage denominator is its own total, so
// Pct reads as "share of the damage done to this target".
func PerTarget(targets []types.PerTargetStats, elapsedMs types.Number, g Grouper, opt Options) []TargetRows {
	out := make([]TargetRows, 0, len(targets))
	for i := range targets {
		t := &targets[i]
		out = append(out, TargetRows{
			TargetUID:  t.TargetUID,
			TargetName: t.TargetName,
			TotalValue: t.TotalValue.Float(),
			Rows:       Rows(t.Skills, elapsedMs, t.TotalValue, g, opt),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalValue > out[j].TotalValue
	})
	return out
}

// deriveSkill computes the row field set from raw counters. Identical
// formulas apply to individual skills and to group sums.
func deriveSkill(st types.RawSkillStats, elapsedSecs, channelTotal float64) SkillRow {
	total := st.TotalValue.Float()
	return SkillRow{
		Total:         total,
		DPS:           ratio(total, elapsedSecs),
		Pct:           ratio(total, channelTotal) * 100,
		Hits:          st.Hits.Float(),
		HitsPerMinute: ratio(st.Hits.Float(), elapsedSecs) * 60,
		CritRate:      ratio(st.CritHits.Float(), st.Hits.Float()) * 100,
		LuckyRate:     ratio(st.LuckyHits.Float(), st.Hits.Float()) * 100,
		CritDmgRate:   ratio(st.CritTotalValue.Float(), total) * 100,
		LuckyDmgRate:  ratio(st.LuckyTotalValue.Float(), total) * 100,
	}
}

// skillField maps a sortable field name to its selector; unknown names
// select 0.
var skillField = map[string]func(*SkillRow) float64{
	"total":         func(r *SkillRow) float64 { return r.Total },
	"dps":           func(r *SkillRow) float64 { return r.DPS },
	"pct":           func(r *SkillRow) float64 { return r.Pct },
	"hits":          func(r *SkillRow) float64 { return r.Hits },
	"hitsPerMinute": func(r *SkillRow) float64 { return r.HitsPerMinute },
	"critRate":      func(r *SkillRow) float64 { return r.CritRate },
	"luckyRate":     func(r *SkillRow) float64 { return r.LuckyRate },
	"critDmgRate":   func(r *SkillRow) float64 { return r.CritDmgRate },
	"luckyDmgRate":  func(r *SkillRow) float64 { return r.LuckyDmgRate },
}

func sortSkillRows(rows []SkillRow, opt Options) {
	field := opt.SortField
	if field == "" {
		field = "total"
	}
	sel, ok := skillField[field]
	if !ok {
		sel = func(*SkillRow) float64 { return 0 }
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if opt.Ascending {
			return sel(&rows[i]) < sel(&rows[j])
		}
		return sel(&rows[i]) > sel(&rows[j])
	})
}

// ratio returns num/den, or 0 when den is not positive.
func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}
