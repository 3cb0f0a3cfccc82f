// Package replay drives a battle from a recorded list of pointer steps, without a
// window. Frames advance the turn clock; pointer steps are raised on the input hub and
// fully dispatched before the next step runs.
package replay

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/taktiks/internal/game/geom"
)

// Action names a step kind.
type Action string

const (
	ActionWait Action = "wait"
	ActionDown Action = "down"
	ActionDrag Action = "drag"
	ActionUp   Action = "up"
	ActionTap  Action = "tap"
)

// Step is one scripted input. Wait advances Frames frames; the pointer actions act on
// Cursor at (X, Y).
type Step struct {
	Action Action  `yaml:"action"`
	Cursor int     `yaml:"cursor"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Frames int     `yaml:"frames"`
}

// Point returns the step position.
func (s Step) Point() geom.Vec2 { return geom.V(s.X, s.Y) }

// Expect is the outcome a script asserts once every step has run. Zero fields are not
// checked.
type Expect struct {
	Winner int `yaml:"winner"`
	Turns  int `yaml:"turns"`
}

// Script is a named replay.
type Script struct {
	Name   string `yaml:"name"`
	Steps  []Step `yaml:"steps"`
	Expect Expect `yaml:"expect"`
}

// Load reads and validates a script file.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("reading replay %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return Script{}, fmt.Errorf("replay %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a script.
func Parse(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("parsing replay: %w", err)
	}
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return Script{}, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return s, nil
}

func (s Step) validate() error {
	switch s.Action {
	case ActionWait:
		if s.Frames <= 0 {
			return fmt.Errorf("wait needs frames > 0, got %d", s.Frames)
		}
	case ActionDown, ActionDrag, ActionUp, ActionTap:
		if s.Cursor < 0 {
			return fmt.Errorf("%s: cursor must be >= 0, got %d", s.Action, s.Cursor)
		}
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
	return nil
}
