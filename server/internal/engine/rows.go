package engine

import (
	"fmt"

	"github.com/embermeter/embermeter/pkg/types"
)

// Metric selects one of the three independent aggregation channels.
type Metric string

// The three metric channels.
const (
	MetricDamage Metric = "damage"
	MetricHeal   Metric = "heal"
	MetricTanked Metric = "tanked"
)

// ParseMetric maps a user-supplied metric name to a Metric.
// Accepts the channel aliases the overlay uses ("dmg", "healing", "taken").
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "damage", "dmg", "":
		return MetricDamage, nil
	case "heal", "healing":
		return MetricHeal, nil
	case "tanked", "taken":
		return MetricTanked, nil
	default:
		return "", fmt.Errorf("unknown metric %q: want damage|heal|tanked", s)
	}
}

// PlayerRow is one entity's derived statistics for a single metric channel.
// Rows are recomputed on every snapshot and never mutated in place.
type PlayerRow struct {
	UID            int64   `json:"uid"`
	Name           string  `json:"name"`
	ClassName      string  `json:"className"`
	ClassSpecName  string  `json:"classSpecName"`
	AbilityScore   int32   `json:"abilityScore"`
	SeasonStrength int32   `json:"seasonStrength"`

	Total         float64 `json:"total"`
	DPS           float64 `json:"dps"`
	ActiveDPS     float64 `json:"activeDps"`
	DmgPct        float64 `json:"dmgPct"`
	Hits          float64 `json:"hits"`
	HitsPerMinute float64 `json:"hitsPerMinute"`
	CritRate      float64 `json:"critRate"`
	LuckyRate     float64 `json:"luckyRate"`
	CritDmgRate   float64 `json:"critDmgRate"`
	LuckyDmgRate  float64 `json:"luckyDmgRate"`

	// Boss-scoped fields, populated for the damage metric only.
	BossDmg    float64 `json:"bossDmg"`
	BossDPS    float64 `json:"bossDps"`
	BossDmgPct float64 `json:"bossDmgPct"`
}

// PlayerRows derives one row per entity whose total for the selected metric
// is strictly greater than zero. Output order is total descending; use
// SortRows for a caller-selected field.
func PlayerRows(p *types.LiveDataPayload, m Metric) []PlayerRow {
	if p == nil {
		return nil
	}

	elapsedSecs := p.ElapsedMs.Float() / 1000
	rows := make([]PlayerRow, 0, len(p.Entities))

	for i := range p.Entities {
		ent := &p.Entities[i]
		stats, channelTotal := channelOf(ent, p, m)
		total := stats.Total.Float()
		if total <= 0 {
			continue
		}

		row := PlayerRow{
			UID:            ent.UID,
			Name:           ent.Name,
			ClassName:      ent.ClassName,
			ClassSpecName:  ent.ClassSpecName,
			AbilityScore:   ent.AbilityScore,
			SeasonStrength: ent.SeasonStrength,
			Total:          total,
			DPS:            ratio(total, elapsedSecs),
			DmgPct:         rate(total, channelTotal),
			Hits:           stats.Hits.Float(),
			HitsPerMinute:  ratio(stats.Hits.Float(), elapsedSecs) * 60,
			CritRate:       rate(stats.CritHits.Float(), stats.Hits.Float()),
			LuckyRate:      rate(stats.LuckyHits.Float(), stats.Hits.Float()),
			CritDmgRate:    rate(stats.CritTotal.Float(), total),
			LuckyDmgRate:   rate(stats.LuckyTotal.Float(), total),
		}

		if m == MetricDamage {
			activeSecs := ent.ActiveDmgTimeMs.Float() / 1000
			row.ActiveDPS = ratio(total, activeSecs)

			bossTotal := ent.DamageBossOnly.Total.Float()
			row.BossDmg = bossTotal
			row.BossDPS = ratio(bossTotal, elapsedSecs)
			row.BossDmgPct = rate(bossTotal, p.TotalDmgBossOnly.Float())
		}

		rows = append(rows, row)
	}

	SortRows(rows, "total", false)
	return rows
}

// Header derives the encounter-level summary for the current snapshot.
func Header(p *types.LiveDataPayload) types.HeaderInfo {
	if p == nil {
		return types.HeaderInfo{}
	}
	return types.HeaderInfo{
		TotalDPS:              ratio(p.TotalDmg.Float(), p.ElapsedMs.Float()/1000),
		TotalDmg:              p.TotalDmg.Float(),
		ElapsedMs:             p.ElapsedMs.Float(),
		FightStartTimestampMs: p.FightStartTimestampMs.Float(),
		Bosses:                p.Bosses,
		SceneID:               p.SceneID,
		SceneName:             p.SceneName,
		CurrentSegmentType:    p.CurrentSegmentType,
		CurrentSegmentName:    p.CurrentSegmentName,
	}
}

// channelOf selects the entity's stats block and the snapshot-level
// cross-entity total for the given metric.
func channelOf(ent *types.RawEntityData, p *types.LiveDataPayload, m Metric) (types.RawCombatStats, float64) {
	switch m {
	case MetricHeal:
		return ent.Healing, p.TotalHeal.Float()
	case MetricTanked:
		// No cross-entity taken total is reported; per-row dmgPct is 0.
		return ent.Taken, 0
	default:
		return ent.Damage, p.TotalDmg.Float()
	}
}

// ratio returns num/den, or 0 when den is not positive.
func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

// rate returns num/den*100, or 0 when den is not positive.
func rate(num, den float64) float64 {
	return ratio(num, den) * 100
}
