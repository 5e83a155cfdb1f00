package buffs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/embermeter/embermeter/pkg/types"
)

// Registry resolves buff base ids to their static display metadata.
// A missing definition is a content-availability case, not an error: the
// buff is excluded from icon display but remains eligible for text mode.
type Registry struct {
	byID map[int32]types.BuffDefinition
}

// NewRegistry builds a Registry from definitions. Duplicate base ids keep
// the last entry.
func NewRegistry(defs []types.BuffDefinition) *Registry {
	m := make(map[int32]types.BuffDefinition, len(defs))
	for _, d := range defs {
		m[d.BaseID] = d
	}
	return &Registry{byID: m}
}

// LoadRegistry reads a YAML list of buff definitions from path.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("buff registry: read %q: %w", path, err)
	}
	var defs []types.BuffDefinition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("buff registry: parse yaml: %w", err)
	}
	return NewRegistry(defs), nil
}

// Resolve returns the definition for baseID and whether one exists.
func (r *Registry) Resolve(baseID int32) (types.BuffDefinition, bool) {
	d, ok := r.byID[baseID]
	return d, ok
}

// Len returns the number of known definitions.
func (r *Registry) Len() int { return len(r.byID) }

// LayerSpec declares that a base id renders as a multi-image layered
// composite selected by stack count.
type LayerSpec struct {
	BaseID     int32 `yaml:"base_id"`
	LayerCount int32 `yaml:"layer_count"`
}

// LayerSpecs maps base id to its layered display configuration.
type LayerSpecs map[int32]int32

// LoadLayerSpecs reads a YAML list of layer specs from path.
func LoadLayerSpecs(path string) (LayerSpecs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("layer specs: read %q: %w", path, err)
	}
	var specs []LayerSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("layer specs: parse yaml: %w", err)
	}
	out := make(LayerSpecs, len(specs))
	for _, s := range specs {
		if s.LayerCount > 0 {
			out[s.BaseID] = s.LayerCount
		}
	}
	return out, nil
}
