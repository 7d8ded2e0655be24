package stats

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// State selects which time of a tracked event a preset measures from.
type State string

const (
	StateSubmit State = "submit"
	StateStart  State = "start"
	StateEnd    State = "end"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateSubmit, StateStart, StateEnd:
		return true
	}
	return false
}

// Preset defines one measured interval.
type Preset struct {
	// Name labels the preset in reports.
	Name string `yaml:"name" json:"name"`

	StartEvent string `yaml:"start_event" json:"start_event"`
	StartState State  `yaml:"start_state" json:"start_state"`
	EndEvent   string `yaml:"end_event" json:"end_event"`
	EndState   State  `yaml:"end_state" json:"end_state"`
}

// Validate checks that all fields are set and the states are known.
func (p Preset) Validate() error {
	switch {
	case p.Name == "":
		return errors.New("name is required")
	case p.StartEvent == "":
		return fmt.Errorf("%s: start_event is required", p.Name)
	case p.EndEvent == "":
		return fmt.Errorf("%s: end_event is required", p.Name)
	case !p.StartState.Valid():
		return fmt.Errorf("%s: invalid start_state %q", p.Name, p.StartState)
	case !p.EndState.Valid():
		return fmt.Errorf("%s: invalid end_state %q", p.Name, p.EndState)
	case p.StartEvent == p.EndEvent && p.StartState == p.EndState:
		return fmt.Errorf("%s: start and end select the same times", p.Name)
	}
	return nil
}

// presetFile is the YAML document layout.
type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// LoadPresets reads and validates a preset YAML file.
// Unknown fields are rejected.
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets file: %w", err)
	}
	return ParsePresets(data)
}

// ParsePresets decodes and validates preset YAML.
func ParsePresets(data []byte) ([]Preset, error) {
	var doc presetFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	if len(doc.Presets) == 0 {
		return nil, errors.New("presets list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(doc.Presets))
	for i, p := range doc.Presets {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("preset %d: %w", i, err)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("preset %d: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
	}
	return doc.Presets, nil
}
