package types

// RawCombatStats holds the cumulative totals for one metric channel on one
// entity. All counters are monotonically non-decreasing within an encounter;
// the collector guarantees critTotal ≤ total and critHits ≤ hits (likewise
// for lucky).
type RawCombatStats struct {
	Total      Number `json:"total"`
	Hits       Number `json:"hits"`
	CritHits   Number `json:"critHits"`
	CritTotal  Number `json:"critTotal"`
	LuckyHits  Number `json:"luckyHits"`
	LuckyTotal Number `json:"luckyTotal"`
}

// RawSkillStats is the same shape as RawCombatStats, scoped to one skill id
// within one entity's metric channel.
type RawSkillStats struct {
	TotalValue      Number `json:"totalValue"`
	Hits            Number `json:"hits"`
	CritHits        Number `json:"critHits"`
	CritTotalValue  Number `json:"critTotalValue"`
	LuckyHits       Number `json:"luckyHits"`
	LuckyTotalValue Number `json:"luckyTotalValue"`
}

// PerTargetStats is one entity's damage or healing broken down by target.
type PerTargetStats struct {
	TargetUID  int64                   `json:"targetUid"`
	TargetName string                  `json:"targetName"`
	TotalValue Number                  `json:"totalValue"`
	Damage     RawCombatStats          `json:"damage"`
	Skills     map[int64]RawSkillStats `json:"skills"`
}

// RawEntityData is one combat participant as reported by the collector.
type RawEntityData struct {
	UID            int64          `json:"uid"`
	Name           string         `json:"name"`
	ClassID        int32          `json:"classId"`
	ClassSpec      int32          `json:"classSpec"`
	ClassName      string         `json:"className"`
	ClassSpecName  string         `json:"classSpecName"`
	AbilityScore   int32          `json:"abilityScore"`
	SeasonStrength int32          `json:"seasonStrength"`
	Damage         RawCombatStats `json:"damage"`
	DamageBossOnly RawCombatStats `json:"damageBossOnly"`
	Healing        RawCombatStats `json:"healing"`
	Taken          RawCombatStats `json:"taken"`

	// ActiveDmgTimeMs is the time the entity spent actively dealing damage.
	// Always ≤ the encounter's elapsed time.
	ActiveDmgTimeMs Number `json:"activeDmgTimeMs"`

	DmgSkills   map[int64]RawSkillStats `json:"dmgSkills"`
	HealSkills  map[int64]RawSkillStats `json:"healSkills"`
	TakenSkills map[int64]RawSkillStats `json:"takenSkills"`

	DmgPerTarget  []PerTargetStats `json:"dmgPerTarget,omitempty"`
	HealPerTarget []PerTargetStats `json:"healPerTarget,omitempty"`
}

// BossHealth is the current HP state of one boss in the encounter.
type BossHealth struct {
	UID       int64  `json:"uid"`
	Name      string `json:"name"`
	CurrentHP *int64 `json:"currentHp"`
	MaxHP     *int64 `json:"maxHp"`
}

// LiveDataPayload is one point-in-time view of the encounter, pushed by the
// collector at its own interval. Cross-entity totals are precomputed by the
// collector and used as percentage denominators; they are not recomputed
// from the entity list.
type LiveDataPayload struct {
	ElapsedMs             Number          `json:"elapsedMs"`
	FightStartTimestampMs Number          `json:"fightStartTimestampMs"`
	TotalDmg              Number          `json:"totalDmg"`
	TotalDmgBossOnly      Number          `json:"totalDmgBossOnly"`
	TotalHeal             Number          `json:"totalHeal"`
	LocalPlayerUID        int64           `json:"localPlayerUid"`
	SceneID               *int32          `json:"sceneId"`
	SceneName             *string         `json:"sceneName"`
	IsPaused              bool            `json:"isPaused"`
	Bosses                []BossHealth    `json:"bosses"`
	Entities              []RawEntityData `json:"entities"`
	CurrentSegmentType    *string         `json:"currentSegmentType"`
	CurrentSegmentName    *string         `json:"currentSegmentName"`
}

// HeaderInfo is the encounter-level summary shown above the rows.
type HeaderInfo struct {
	TotalDPS              float64      `json:"totalDps"`
	TotalDmg              float64      `json:"totalDmg"`
	ElapsedMs             float64      `json:"elapsedMs"`
	FightStartTimestampMs float64      `json:"fightStartTimestampMs"`
	Bosses                []BossHealth `json:"bosses"`
	SceneID               *int32       `json:"sceneId"`
	SceneName             *string      `json:"sceneName"`
	CurrentSegmentType    *string      `json:"currentSegmentType"`
	CurrentSegmentName    *string      `json:"currentSegmentName"`
}

// BuffUpdateState is one observed buff instance. Multiple observations for
// the same BaseID may arrive; only the most recently created one is
// authoritative.
type BuffUpdateState struct {
	BuffUUID       int32 `json:"buffUuid"`
	BaseID         int32 `json:"baseId"`
	Layer          int32 `json:"layer"`
	DurationMs     int32 `json:"durationMs"`
	CreateTimeMs   int64 `json:"createTimeMs"`
	SourceConfigID int32 `json:"sourceConfigId"`
}

// BuffUpdatePayload is the batch envelope for buff observations.
type BuffUpdatePayload struct {
	Buffs []BuffUpdateState `json:"buffs"`
}

// BuffDefinition is static display metadata for a buff base id. Supplied by
// configuration, looked up, never mutated by the server.
type BuffDefinition struct {
	BaseID         int32    `json:"baseId" yaml:"base_id"`
	Name           string   `json:"name" yaml:"name"`
	SpriteFile     string   `json:"spriteFile" yaml:"sprite_file"`
	SearchKeywords []string `json:"searchKeywords,omitempty" yaml:"search_keywords"`
}
