package recount

import (
	"math"
	"testing"

	"github.com/embermeter/embermeter/pkg/types"
)

// grouper puts skills 10 and 11 into group 900 "Flame Strike".
var grouper = NewStaticGrouper([]GroupSpec{
	{RecountID: 900, RecountName: "Flame Strike", SkillIDs: []int64{10, 11}},
})

func skill(total, hits, critHits, critTotal float64) types.RawSkillStats {
	return types.RawSkillStats{
		TotalValue:     types.Number(total),
		Hits:           types.Number(hits),
		CritHits:       types.Number(critHits),
		CritTotalValue: types.Number(critTotal),
	}
}

func TestRows_GroupSumsRawCounters(t *testing.T) {
	skills := map[int64]types.RawSkillStats{
		10: skill(6000, 10, 10, 6000), // 100% crit
		11: skill(4000, 90, 0, 0),     // 0% crit
		20: skill(2000, 5, 1, 500),    // ungrouped
	}

	rows := Rows(skills, 10000, 12000, grouper, Options{})
	if len(rows) != 2 {
		t.Fatalf("top-level rows = %d, want 2 (group + ungrouped)", len(rows))
	}

	g := rows[0]
	if !g.IsGroup || g.RecountID != 900 || g.RecountName != "Flame Strike" {
		t.Fatalf("first row is not the group: %+v", g)
	}
	if g.Total != 10000 {
		t.Errorf("group Total = %v, want 10000 (sum of members)", g.Total)
	}
	if g.Hits != 100 {
		t.Errorf("group Hits = %v, want 100", g.Hits)
	}

	// From summed counters: 10 crit hits / 100 hits = 10%.
	// Averaging member critRates would wrongly give (100+0)/2 = 50%.
	if g.CritRate != 10 {
		t.Errorf("group CritRate = %v, want 10 (derived from sums)", g.CritRate)
	}
	if g.CritDmgRate != 60 {
		t.Errorf("group CritDmgRate = %v, want 60", g.CritDmgRate)
	}
	if g.DPS != 1000 {
		t.Errorf("group DPS = %v, want 1000", g.DPS)
	}
	if !almostEqual(g.Pct, 10000.0/12000*100, 0.001) {
		t.Errorf("group Pct = %v, want %v", g.Pct, 10000.0/12000*100)
	}

	if len(g.Children) != 2 {
		t.Fatalf("group children = %d, want 2", len(g.Children))
	}
	for _, c := range g.Children {
		if c.Depth != 1 {
			t.Errorf("child depth = %d, want 1", c.Depth)
		}
		if c.RecountID != 900 {
			t.Errorf("child RecountID = %d, want 900", c.RecountID)
		}
	}
	// Children sorted by total descending.
	if g.Children[0].SkillID != 10 || g.Children[1].SkillID != 11 {
		t.Errorf("children order = %d,%d, want 10,11",
			g.Children[0].SkillID, g.Children[1].SkillID)
	}

	loose := rows[1]
	if loose.IsGroup || loose.SkillID != 20 || loose.Depth != 0 {
		t.Errorf("ungrouped row = %+v", loose)
	}
}

func TestRows_ZeroElapsedAndTotals(t *testing.T) {
	skills := map[int64]types.RawSkillStats{
		10: skill(100, 0, 0, 0),
	}
	rows := Rows(skills, 0, 0, NoGroups, Options{})
	r := rows[0]
	if r.DPS != 0 || r.Pct != 0 || r.HitsPerMinute != 0 || r.CritRate != 0 {
		t.Errorf("zero denominators should yield 0 fields, got %+v", r)
	}
	if math.IsNaN(r.CritDmgRate) {
		t.Errorf("CritDmgRate is NaN")
	}
}

func TestRows_OrderMixed(t *testing.T) {
	skills := map[int64]types.RawSkillStats{
		10: skill(100, 1, 0, 0), // group total = 100
		20: skill(500, 1, 0, 0), // ungrouped, larger
	}

	first := Rows(skills, 1000, 600, grouper, Options{Order: OrderGroupsFirst})
	if !first[0].IsGroup {
		t.Errorf("groups-first order should lead with the group")
	}

	mixed := Rows(skills, 1000, 600, grouper, Options{Order: OrderMixed})
	if mixed[0].SkillID != 20 {
		t.Errorf("mixed order should lead with the larger ungrouped skill, got %+v", mixed[0])
	}
}

func TestRows_SortFieldAscending(t *testing.T) {
	skills := map[int64]types.RawSkillStats{
		20: skill(500, 2, 0, 0),
		21: skill(100, 9, 0, 0),
	}
	rows := Rows(skills, 1000, 600, NoGroups, Options{SortField: "hits", Ascending: true})
	if rows[0].SkillID != 20 || rows[1].SkillID != 21 {
		t.Errorf("ascending hits order = %d,%d, want 20,21", rows[0].SkillID, rows[1].SkillID)
	}
}

func TestPerTarget(t *testing.T) {
	targets := []types.PerTargetStats{
		{
			TargetUID: 1, TargetName: "Adds", TotalValue: 100,
			Skills: map[int64]types.RawSkillStats{20: skill(100, 1, 0, 0)},
		},
		{
			TargetUID: 2, TargetName: "Boss", TotalValue: 900,
			Skills: map[int64]types.RawSkillStats{20: skill(900, 9, 0, 0)},
		},
	}

	out := PerTarget(targets, 10000, NoGroups, Options{})
	if len(out) != 2 || out[0].TargetUID != 2 {
		t.Fatalf("targets should be ordered by total desc, got %+v", out)
	}
	if out[0].Rows[0].Pct != 100 {
		t.Errorf("single-skill share of target = %v, want 100", out[0].Rows[0].Pct)
	}
}

func TestStaticGrouper_FirstSpecWins(t *testing.T) {
	g := NewStaticGrouper([]GroupSpec{
		{RecountID: 1, RecountName: "A", SkillIDs: []int64{5}},
		{RecountID: 2, RecountName: "B", SkillIDs: []int64{5}},
	})
	grp, ok := g.GroupOf(5)
	if !ok || grp.ID != 1 {
		t.Errorf("GroupOf(5) = %+v,%v, want group 1", grp, ok)
	}
	if _, ok := g.GroupOf(77); ok {
		t.Errorf("GroupOf(77) should be unmapped")
	}
}

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}
