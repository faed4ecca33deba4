package deployment

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-agent/internal/command"
	"github.com/nerrad567/gray-logic-agent/internal/rules"
	"github.com/nerrad567/gray-logic-agent/internal/sensor"
)

// SensorDefinition describes one sensor of a deployment.
type SensorDefinition = sensor.Definition

// Definition is the parsed deployment input.
type Definition struct {
	Config   map[string]string    `yaml:"config"`
	Sensors  []SensorDefinition   `yaml:"sensors"`
	Commands []command.Definition `yaml:"commands"`
	Rules    []rules.Definition   `yaml:"rules"`
}

// LoadDefinition reads and parses a YAML deployment definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from agent configuration
	if err != nil {
		return nil, fmt.Errorf("reading deployment file: %w", err)
	}
	return ParseDefinition(data)
}

// ParseDefinition parses a YAML deployment definition. Unknown fields are
// rejected so typos surface at boot instead of as silently missing sensors.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	return &def, nil
}
