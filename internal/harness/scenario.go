package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of portal operations with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the manual clock's initial time (RFC 3339). Its zone offset is
	// the device location.
	Start string `yaml:"start"`

	// Server, if set, starts an in-memory account server with this state.
	Server *ServerState `yaml:"server,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`
}

// ServerState seeds the in-memory account server.
type ServerState struct {
	Favorites    []int  `yaml:"favorites"`
	LastModified string `yaml:"last_modified,omitempty"`
	Offline      bool   `yaml:"offline,omitempty"`
}

// Step is one operation.
type Step struct {
	// Op names the operation, e.g. "favorites.add".
	Op string `yaml:"op"`

	// Args are the operation's arguments.
	Args map[string]any `yaml:"args,omitempty"`

	// Advance moves the clock forward before the step runs ("5m", "24h").
	Advance string `yaml:"advance,omitempty"`

	// Expect is checked after the step runs.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect lists the checks made after a step. Unset fields are not checked.
type Expect struct {
	// Kind is the step's result kind ("ok", "noop", "invalid", ...).
	Kind string `yaml:"kind,omitempty"`

	// Favorites is the set the portal presents after the step.
	Favorites *[]int `yaml:"favorites,omitempty"`

	// Source is the reconciliation winner reported by the step.
	Source string `yaml:"source,omitempty"`

	// Visit is whether a recent visit is within the window.
	Visit *bool `yaml:"visit,omitempty"`

	// Played is the persisted played-today set.
	Played *[]string `yaml:"played,omitempty"`

	// Value is a boolean answer reported by the step.
	Value *bool `yaml:"value,omitempty"`

	// State is the activity state reported by the step.
	State string `yaml:"state,omitempty"`

	// Authenticated is whether the portal is signed in after the step.
	Authenticated *bool `yaml:"authenticated,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := time.Parse(time.RFC3339, s.Start); err != nil {
		return fmt.Errorf("start must be an RFC 3339 timestamp: %w", err)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if _, ok := operations[step.Op]; !ok {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.Advance != "" {
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return fmt.Errorf("steps[%d]: advance: %w", i, err)
			}
			if d < 0 {
				return fmt.Errorf("steps[%d]: advance must not be negative", i)
			}
		}
		if needsServer(step.Op) && s.Server == nil {
			return fmt.Errorf("steps[%d]: %s needs a server block", i, step.Op)
		}
	}
	return nil
}
