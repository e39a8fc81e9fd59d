package timeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File the YAML document shape:
//
//	events:
//	  - at: 5
//	    kind: hp_set
//	    value: 40
type File struct {
	Name   string  `yaml:"name"`
	Events []Event `yaml:"events"`
}

// Parse decodes a YAML timeline
func Parse(data []byte, maxHP float64) (*Timeline, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimeline, err)
	}
	return New(f.Events, maxHP)
}

// LoadFile reads and parses a YAML timeline from path
func LoadFile(path string, maxHP float64) (*Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timeline file: %w", err)
	}
	return Parse(data, maxHP)
}
