package notify

import (
	"strconv"
	"strings"

	"github.com/embermeter/embermeter/server/internal/engine"
)

// evalCondition evaluates a rule condition string against one derived row.
//
// Supported expressions (field operator value):
//
//	dps < 1000
//	active_dps < 1500
//	total > 5000000
//	dmg_pct > 40
//	crit_rate < 20
//	lucky_rate < 5
//	crit_dmg_rate < 50
//	hits_per_minute < 30
//	boss_dps < 800
//	boss_dmg_pct < 10
//	state == paused
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is
// unknown.
func evalCondition(cond string, row *engine.PlayerRow, paused bool) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	if field == "state" {
		if op == "==" && rhs == "paused" {
			return paused, 0
		}
		return false, 0
	}

	var v float64
	switch field {
	case "dps":
		v = row.DPS
	case "active_dps":
		v = row.ActiveDPS
	case "total":
		v = row.Total
	case "dmg_pct":
		v = row.DmgPct
	case "crit_rate":
		v = row.CritRate
	case "lucky_rate":
		v = row.LuckyRate
	case "crit_dmg_rate":
		v = row.CritDmgRate
	case "lucky_dmg_rate":
		v = row.LuckyDmgRate
	case "hits_per_minute":
		v = row.HitsPerMinute
	case "boss_dps":
		v = row.BossDPS
	case "boss_dmg_pct":
		v = row.BossDmgPct
	default:
		return false, 0
	}

	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// compareFloat applies op between v and threshold.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
