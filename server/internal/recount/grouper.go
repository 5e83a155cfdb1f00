package recount

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Group identifies one recount group: an aggregate identity distinct from
// any individual skill id.
type Group struct {
	ID   int64
	Name string
}

// Grouper resolves a skill id to its recount group, if any.
type Grouper interface {
	// GroupOf returns the group the skill belongs to and whether one exists.
	GroupOf(skillID int64) (Group, bool)
}

// GroupSpec is one group's static membership as loaded from configuration.
type GroupSpec struct {
	RecountID   int64   `yaml:"recount_id" json:"recountId"`
	RecountName string  `yaml:"recount_name" json:"recountName"`
	SkillIDs    []int64 `yaml:"skill_ids" json:"skillIds"`
}

// StaticGrouper is a Grouper backed by a fixed skill-id → group table.
type StaticGrouper struct {
	byskill map[int64]Group
}

// NewStaticGrouper builds a StaticGrouper from group specs. If a skill id
// appears in more than one spec, the first occurrence wins.
func NewStaticGrouper(specs []GroupSpec) *StaticGrouper {
	m := make(map[int64]Group)
	for _, sp := range specs {
		g := Group{ID: sp.RecountID, Name: sp.RecountName}
		for _, id := range sp.SkillIDs {
			if _, taken := m[id]; !taken {
				m[id] = g
			}
		}
	}
	return &StaticGrouper{byskill: m}
}

// LoadGroupSpecs reads a YAML list of group specs from path.
func LoadGroupSpecs(path string) ([]GroupSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("recount groups: read %q: %w", path, err)
	}
	var specs []GroupSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("recount groups: parse yaml: %w", err)
	}
	return specs, nil
}

// GroupOf implements Grouper.
func (s *StaticGrouper) GroupOf(skillID int64) (Group, bool) {
	g, ok := s.byskill[skillID]
	return g, ok
}

// NoGroups is a Grouper under which every skill is ungrouped.
var NoGroups Grouper = noGroups{}

type noGroups struct{}

func (noGroups) GroupOf(int64) (Group, bool) { return Group{}, false }
