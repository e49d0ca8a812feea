package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is an end-to-end read scenario: a schema, the rows to load, and
// query steps with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the directory of CUE model files.
	// Relative paths resolve against the scenario file's directory.
	Schema string `yaml:"schema"`

	// Fixtures lists SQL scripts run after migrating, in order.
	Fixtures []string `yaml:"fixtures,omitempty"`

	// Setup is inline SQL run after the fixtures.
	Setup string `yaml:"setup,omitempty"`

	// MaxConcurrency bounds concurrent relation reads. Zero means the
	// executor default.
	MaxConcurrency int `yaml:"max_concurrency,omitempty"`

	// Steps are run in order against the same database.
	Steps []Step `yaml:"steps"`
}

// Step runs one query document.
type Step struct {
	Name string `yaml:"name"`

	// Query is an inline query document. Exactly one of Query and QueryFile
	// is set.
	Query yaml.Node `yaml:"query,omitempty"`

	// QueryFile is a query document path.
	QueryFile string `yaml:"query_file,omitempty"`

	// Expect is optional; without it the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect lists what a step's outcome must satisfy. Unset fields are not
// checked.
type Expect struct {
	// Error is the expected failure: an executor error code such as
	// UNSUPPORTED, or INVALID_DOCUMENT.
	Error string `yaml:"error,omitempty"`

	// Count is the number of top-level records.
	Count *int `yaml:"count,omitempty"`

	// IDs are the top-level record identifiers, in order.
	IDs []string `yaml:"ids,omitempty"`

	// RecordReads is the number of record queries the step ran.
	RecordReads *int `yaml:"record_reads,omitempty"`
}

func (s Step) hasInlineQuery() bool {
	return s.Query.Kind != 0
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Schema, fixture and query file paths are resolved against the scenario
// file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "step:" vs "steps:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Schema = resolve(base, scenario.Schema)
	for i, f := range scenario.Fixtures {
		scenario.Fixtures[i] = resolve(base, f)
	}
	for i := range scenario.Steps {
		scenario.Steps[i].QueryFile = resolve(base, scenario.Steps[i].QueryFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be non-negative")
	}

	if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
		return fmt.Errorf("schema directory not found: %s", s.Schema)
	}
	for _, f := range s.Fixtures {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			return fmt.Errorf("fixture file not found: %s", f)
		}
	}

	seen := make(map[string]bool, len(s.Steps))
	for i, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if seen[step.Name] {
			return fmt.Errorf("steps[%d]: duplicate step name %q", i, step.Name)
		}
		seen[step.Name] = true

		if step.hasInlineQuery() == (step.QueryFile != "") {
			return fmt.Errorf("steps[%d]: exactly one of query and query_file is required", i)
		}
		if step.Expect != nil {
			if step.Expect.Count != nil && *step.Expect.Count < 0 {
				return fmt.Errorf("steps[%d].expect: count must be non-negative", i)
			}
			if step.Expect.RecordReads != nil && *step.Expect.RecordReads < 0 {
				return fmt.Errorf("steps[%d].expect: record_reads must be non-negative", i)
			}
		}
	}
	return nil
}
