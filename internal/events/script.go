package events

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Script is a recorded session replayed by the headless front end.
type Script struct {
	Width  int   `yaml:"width"`
	Height int   `yaml:"height"`
	Events []Raw `yaml:"events"`
}

// LoadScript parses a YAML script. Unknown fields are rejected.
func LoadScript(r io.Reader) (Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return Script{}, errors.New("script is empty")
		}
		return Script{}, fmt.Errorf("parse script: %w", err)
	}
	return s, nil
}

// Ops normalizes every event in the script, stopping at the first invalid
// entry.
func (s Script) Ops() ([]Op, error) {
	ops := make([]Op, 0, len(s.Events))
	for i, raw := range s.Events {
		op, err := Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i+1, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}
