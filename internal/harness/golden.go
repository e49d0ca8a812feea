package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/qres/internal/value"
)

// snapshot builds the canonical value stored in a scenario's golden file.
// Failed steps record their error code; messages are left out so wording
// changes do not churn goldens.
func snapshot(name string, result *Result) value.Object {
	steps := make(value.List, len(result.Steps))
	for i, s := range result.Steps {
		step := value.Object{
			"name":         value.String(s.Name),
			"record_reads": value.Int(s.RecordReads),
			"list_reads":   value.Int(s.ListReads),
		}
		if s.Error != "" {
			step["error"] = value.String(s.Error)
		} else {
			step["result"] = s.Output
		}
		steps[i] = step
	}
	return value.Object{
		"scenario": value.String(name),
		"steps":    steps,
	}
}

// RunWithGolden executes a scenario and compares its step outputs against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario could not run. Test failure (via goldie)
// occurs if the outputs don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := value.MarshalCanonical(snapshot(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
