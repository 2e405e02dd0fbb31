package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset is a house skill shipped as YAML content that players may adopt.
type Preset struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Kind        string `yaml:"kind"`
	BasePower   int    `yaml:"base_power"`
	CoinPower   int    `yaml:"coin_power"`
	Coins       int    `yaml:"coins"`
	Unbreakable int    `yaml:"unbreakable"`
	DicePower   int    `yaml:"dice_power"`
}

// Record converts the preset into a Record owned by userID.
//
// Postcondition: Returns a validated Record or an error.
func (p *Preset) Record(userID string) (Record, error) {
	kind, err := ParseKind(p.Kind)
	if err != nil {
		return Record{}, fmt.Errorf("preset %s: %w", p.ID, err)
	}
	r := Record{
		UserID:           userID,
		Name:             p.Name,
		Kind:             kind,
		BasePower:        p.BasePower,
		CoinPower:        p.CoinPower,
		TotalCoins:       p.Coins,
		UnbreakableCoins: p.Unbreakable,
		DicePower:        p.DicePower,
	}
	if err := r.Validate(); err != nil {
		return Record{}, fmt.Errorf("preset %s: %w", p.ID, err)
	}
	return r, nil
}

// LoadPresets reads all .yaml files in dir. Each file holds a list of presets.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns presets sorted by ID, or an error on a malformed file,
// an invalid preset, or a duplicate ID.
func LoadPresets(dir string) ([]*Preset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading preset dir %s: %w", dir, err)
	}
	seen := make(map[string]bool)
	var presets []*Preset
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var batch []*Preset
		if err := yaml.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("parsing preset file %s: %w", path, err)
		}
		for _, p := range batch {
			if p.ID == "" {
				return nil, fmt.Errorf("preset in %s has empty id", path)
			}
			if seen[p.ID] {
				return nil, fmt.Errorf("duplicate preset id %q in %s", p.ID, path)
			}
			if _, err := p.Record(""); err != nil {
				return nil, err
			}
			seen[p.ID] = true
			presets = append(presets, p)
		}
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].ID < presets[j].ID })
	return presets, nil
}

// FindPreset returns the preset whose ID matches id, or nil.
func FindPreset(presets []*Preset, id string) *Preset {
	for _, p := range presets {
		if p.ID == id {
			return p
		}
	}
	return nil
}
