package engine

import "sort"

// rowField maps a sortable field name to its value selector.
// Unknown fields select 0, which keeps the sort total and stable.
var rowField = map[string]func(*PlayerRow) float64{
	"total":         func(r *PlayerRow) float64 { return r.Total },
	"dps":           func(r *PlayerRow) float64 { return r.DPS },
	"activeDps":     func(r *PlayerRow) float64 { return r.ActiveDPS },
	"dmgPct":        func(r *PlayerRow) float64 { return r.DmgPct },
	"hits":          func(r *PlayerRow) float64 { return r.Hits },
	"hitsPerMinute": func(r *PlayerRow) float64 { return r.HitsPerMinute },
	"critRate":      func(r *PlayerRow) float64 { return r.CritRate },
	"luckyRate":     func(r *PlayerRow) float64 { return r.LuckyRate },
	"critDmgRate":   func(r *PlayerRow) float64 { return r.CritDmgRate },
	"luckyDmgRate":  func(r *PlayerRow) float64 { return r.LuckyDmgRate },
	"bossDmg":       func(r *PlayerRow) float64 { return r.BossDmg },
	"bossDps":       func(r *PlayerRow) float64 { return r.BossDPS },
	"bossDmgPct":    func(r *PlayerRow) float64 { return r.BossDmgPct },
}

// SortRows orders rows by the named numeric field, descending by default.
// Missing or unknown fields sort as 0. The sort is stable so equal values
// keep their derivation order.
func SortRows(rows []PlayerRow, field string, ascending bool) {
	sel, ok := rowField[field]
	if !ok {
		sel = func(*PlayerRow) float64 { return 0 }
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if ascending {
			return sel(&rows[i]) < sel(&rows[j])
		}
		return sel(&rows[i]) > sel(&rows[j])
	})
}
