// Package roster loads unit catalogs from YAML team files.
package roster

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/taktiks/internal/game/dice"
	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/game/unit"
)

// Team is the YAML shape of one team file.
type Team struct {
	Seat  int        `yaml:"seat"`
	Units []UnitFile `yaml:"units"`
}

// UnitFile is the YAML shape of one unit.
type UnitFile struct {
	ID         string        `yaml:"id"`
	Name       string        `yaml:"name"`
	Life       int           `yaml:"life"`
	Mana       int           `yaml:"mana"`
	Attributes AttributeFile `yaml:"attributes"`
	Ranges     RangeFile     `yaml:"ranges"`
	Position   PointFile     `yaml:"position"`
	Attacks    []AttackFile  `yaml:"attacks"`
	Skills     []SkillFile   `yaml:"skills"`
	Items      []ItemFile    `yaml:"items"`
}

// AttributeFile mirrors unit.Attributes.
type AttributeFile struct {
	Strength  int `yaml:"strength"`
	Agility   int `yaml:"agility"`
	Vitality  int `yaml:"vitality"`
	Magic     int `yaml:"magic"`
	Dexterity int `yaml:"dexterity"`
}

// RangeFile mirrors unit.Ranges.
type RangeFile struct {
	Move        float64 `yaml:"move"`
	ShortAttack float64 `yaml:"short_attack"`
	LongAttack  float64 `yaml:"long_attack"`
	Skill       float64 `yaml:"skill"`
}

// PointFile is a screen position.
type PointFile struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// AttackFile describes an attack. Type is "short" or "long".
type AttackFile struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Power string `yaml:"power"`
}

// SkillFile describes a skill. Target is "self" or "target"; Effect is "damage" or "heal".
type SkillFile struct {
	Name   string `yaml:"name"`
	Target string `yaml:"target"`
	Cost   int    `yaml:"cost"`
	Power  string `yaml:"power"`
	Effect string `yaml:"effect"`
	Hook   string `yaml:"hook"`
}

// ItemFile describes an item.
type ItemFile struct {
	Name     string `yaml:"name"`
	Target   string `yaml:"target"`
	Quantity int    `yaml:"quantity"`
	Power    string `yaml:"power"`
	Effect   string `yaml:"effect"`
	Hook     string `yaml:"hook"`
}

// LoadDir reads every .yaml/.yml file in dir in lexicographic order and builds all units.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns units of every file in file order, or the first error.
func LoadDir(dir string) ([]*unit.Unit, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	var all []*unit.Unit
	for _, path := range files {
		units, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, units...)
	}
	return all, nil
}

// LoadFile reads one team file.
func LoadFile(path string) ([]*unit.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	units, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return units, nil
}

// Parse decodes a team document and builds its units.
//
// Postcondition: Every returned unit has Seat == team seat and validated power formulas.
func Parse(data []byte) ([]*unit.Unit, error) {
	var team Team
	if err := yaml.Unmarshal(data, &team); err != nil {
		return nil, fmt.Errorf("decoding team: %w", err)
	}
	if len(team.Units) == 0 {
		return nil, fmt.Errorf("team for seat %d has no units", team.Seat)
	}
	units := make([]*unit.Unit, 0, len(team.Units))
	for i, uf := range team.Units {
		u, err := uf.build(team.Seat)
		if err != nil {
			return nil, fmt.Errorf("unit %d (%q): %w", i, uf.Name, err)
		}
		units = append(units, u)
	}
	return units, nil
}

func (uf UnitFile) build(seat int) (*unit.Unit, error) {
	if uf.Name == "" {
		return nil, fmt.Errorf("name must not be empty")
	}
	var id uuid.UUID
	if uf.ID != "" {
		parsed, err := uuid.Parse(uf.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", uf.ID, err)
		}
		id = parsed
	}

	var cmds []*unit.Command
	for _, a := range uf.Attacks {
		t, err := parseAttackType(a.Type)
		if err != nil {
			return nil, err
		}
		if err := checkPower(a.Name, a.Power); err != nil {
			return nil, err
		}
		cmds = append(cmds, unit.NewAttack(a.Name, unit.AttackSpec{Type: t, Power: a.Power}))
	}
	for _, s := range uf.Skills {
		mode, effect, err := parseModeEffect(s.Target, s.Effect)
		if err != nil {
			return nil, fmt.Errorf("skill %q: %w", s.Name, err)
		}
		if err := checkPower(s.Name, s.Power); err != nil {
			return nil, err
		}
		cmds = append(cmds, unit.NewSkill(s.Name, unit.SkillSpec{
			Mode: mode, Cost: s.Cost, Power: s.Power, Effect: effect, Hook: s.Hook,
		}))
	}
	for _, it := range uf.Items {
		mode, effect, err := parseModeEffect(it.Target, it.Effect)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", it.Name, err)
		}
		if err := checkPower(it.Name, it.Power); err != nil {
			return nil, err
		}
		cmds = append(cmds, unit.NewItem(it.Name, unit.ItemSpec{
			Mode: mode, Quantity: it.Quantity, Power: it.Power, Effect: effect, Hook: it.Hook,
		}))
	}

	return unit.New(unit.Spec{
		ID:   id,
		Name: uf.Name,
		Seat: seat,
		Life: uf.Life,
		Mana: uf.Mana,
		Attributes: unit.Attributes{
			Strength:  uf.Attributes.Strength,
			Agility:   uf.Attributes.Agility,
			Vitality:  uf.Attributes.Vitality,
			Magic:     uf.Attributes.Magic,
			Dexterity: uf.Attributes.Dexterity,
		},
		Ranges: unit.Ranges{
			Move:        uf.Ranges.Move,
			ShortAttack: uf.Ranges.ShortAttack,
			LongAttack:  uf.Ranges.LongAttack,
			Skill:       uf.Ranges.Skill,
		},
		Position: geom.V(uf.Position.X, uf.Position.Y),
		Commands: cmds,
	})
}

func parseAttackType(s string) (unit.AttackType, error) {
	switch s {
	case "short", "":
		return unit.AttackShort, nil
	case "long":
		return unit.AttackLong, nil
	default:
		return 0, fmt.Errorf("unknown attack type %q", s)
	}
}

func parseModeEffect(target, effect string) (unit.TargetMode, unit.Effect, error) {
	mode, err := unit.ParseTargetMode(target)
	if err != nil {
		return 0, 0, err
	}
	switch effect {
	case "damage", "":
		return mode, unit.EffectDamage, nil
	case "heal":
		return mode, unit.EffectHeal, nil
	default:
		return 0, 0, fmt.Errorf("unknown effect %q", effect)
	}
}

func checkPower(name, power string) error {
	if _, err := dice.Parse(power); err != nil {
		return fmt.Errorf("command %q power: %w", name, err)
	}
	return nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
