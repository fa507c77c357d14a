package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/odegen/internal/expr"
)

// Scenario defines a model contract test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden files.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Models lists CUE files or directories to load.
	// Relative paths are resolved against the scenario file location.
	Models []string `yaml:"models"`

	// Model selects a model by name. It may be omitted when exactly one
	// model is loaded.
	Model string `yaml:"model,omitempty"`

	// Params lists constants passed as function arguments when emitting.
	Params []string `yaml:"params,omitempty"`

	// Golden lists backends whose emitted source is snapshotted.
	Golden []string `yaml:"golden,omitempty"`

	// Assertions validate the assembled model.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one property of the model.
type Assertion struct {
	// Type specifies the assertion type (see the Assert* constants).
	Type string `yaml:"type"`

	// Order is the expected statement order (order).
	Order []string `yaml:"order,omitempty"`

	// Semantics is "js" or "python" (derivatives). Defaults to "js".
	Semantics string `yaml:"semantics,omitempty"`

	// Time is the time argument (derivatives).
	Time float64 `yaml:"time,omitempty"`

	// State is the packed state vector (derivatives).
	State []float64 `yaml:"state,omitempty"`

	// Values overrides constants by key (derivatives).
	Values map[string]float64 `yaml:"values,omitempty"`

	// Expect is the expected derivative vector (derivatives).
	Expect []float64 `yaml:"expect,omitempty"`

	// Tolerance is the absolute tolerance (derivatives). Defaults to 1e-9.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Subject is an assignment or reaction key (free_variables).
	Subject string `yaml:"subject,omitempty"`

	// Names is the expected sorted free-variable list (free_variables).
	Names []string `yaml:"names,omitempty"`

	// Count is the expected number of warnings (warnings).
	Count *int `yaml:"count,omitempty"`

	// Messages must each appear in some warning message (warnings).
	Messages []string `yaml:"messages,omitempty"`

	// Initial is the expected initial-condition mapping (initial_conditions).
	Initial map[string]float64 `yaml:"initial,omitempty"`

	// Backend selects the emission to search (emit_contains).
	Backend string `yaml:"backend,omitempty"`

	// Contains lists substrings of the emitted source (emit_contains).
	Contains []string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertOrder         = "order"
	AssertDerivatives   = "derivatives"
	AssertFreeVariables = "free_variables"
	AssertWarnings      = "warnings"
	AssertInitial       = "initial_conditions"
	AssertEmitContains  = "emit_contains"
)

// LoadScenario reads and parses a scenario YAML file, resolving model
// paths relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving model paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, p := range scenario.Models {
		if !filepath.IsAbs(p) && basePath != "" {
			scenario.Models[i] = filepath.Join(basePath, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Models) == 0 {
		return fmt.Errorf("models list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 && len(s.Golden) == 0 {
		return fmt.Errorf("at least one assertion or golden backend is required")
	}

	for _, p := range s.Models {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("model file not found: %s", p)
		}
	}
	for i, b := range s.Golden {
		if _, err := expr.ParseBackend(b); err != nil {
			return fmt.Errorf("golden[%d]: %w", i, err)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOrder:
		if a.Order == nil {
			return fmt.Errorf("assertions[%d]: order is required for order", index)
		}
	case AssertDerivatives:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for derivatives", index)
		}
		if a.Semantics != "" {
			if _, err := expr.ParseSemantics(a.Semantics); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
		if a.Tolerance < 0 {
			return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
		}
	case AssertFreeVariables:
		if a.Subject == "" {
			return fmt.Errorf("assertions[%d]: subject is required for free_variables", index)
		}
	case AssertWarnings:
		if a.Count == nil && len(a.Messages) == 0 {
			return fmt.Errorf("assertions[%d]: count or messages is required for warnings", index)
		}
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for warnings", index)
		}
	case AssertInitial:
		if a.Initial == nil {
			return fmt.Errorf("assertions[%d]: initial is required for initial_conditions", index)
		}
	case AssertEmitContains:
		if _, err := expr.ParseBackend(a.Backend); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if len(a.Contains) == 0 {
			return fmt.Errorf("assertions[%d]: contains is required for emit_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
