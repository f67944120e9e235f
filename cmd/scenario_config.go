package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/Autonomous-Resilient-Cyber-Defence/PrimAITE-sub003/sim"
)

// LoadScenario reads a scenario YAML file into a SimulationConfig. Unknown
// fields are rejected so typos in scenario files fail loudly instead of
// silently configuring nothing.
func LoadScenario(path string) (*sim.SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var cfg sim.SimulationConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &cfg, nil
}

// actionScript mirrors the --actions file: a list of request paths applied
// one per step.
type actionScript struct {
	Actions [][]string `yaml:"actions"`
}

// LoadActions reads a scripted action sequence.
func LoadActions(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read actions: %w", err)
	}

	var script actionScript
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&script); err != nil {
		return nil, fmt.Errorf("parse actions %s: %w", path, err)
	}
	return script.Actions, nil
}
