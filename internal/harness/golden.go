package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenName is the file stem for one backend's snapshot of a scenario.
func GoldenName(scenario, backend string) string {
	return scenario + "." + backend
}

// RunWithGolden executes a scenario and compares each emitted backend
// against testdata/golden/{name}.{backend}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot run. Test failure (via goldie)
// occurs if emitted source doesn't match its golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's emitted source against its
// golden files without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, backend := range emittedBackends(result) {
		g.Assert(t, GoldenName(scenarioName, backend), []byte(result.Emitted[backend]))
	}
}

// CompareGolden checks a result against golden files in dir outside of
// tests. It returns the names of mismatched or missing snapshots.
func CompareGolden(dir, scenarioName string, result *Result) ([]string, error) {
	var mismatched []string
	for _, backend := range emittedBackends(result) {
		name := GoldenName(scenarioName, backend)
		want, err := os.ReadFile(filepath.Join(dir, name+".golden"))
		if os.IsNotExist(err) {
			mismatched = append(mismatched, name+" (missing)")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read golden file: %w", err)
		}
		if !bytes.Equal(want, []byte(result.Emitted[backend])) {
			mismatched = append(mismatched, name)
		}
	}
	return mismatched, nil
}

// UpdateGolden writes the result's emitted source as golden files in dir.
func UpdateGolden(dir, scenarioName string, result *Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	for _, backend := range emittedBackends(result) {
		path := filepath.Join(dir, GoldenName(scenarioName, backend)+".golden")
		if err := os.WriteFile(path, []byte(result.Emitted[backend]), 0644); err != nil {
			return fmt.Errorf("failed to write golden file: %w", err)
		}
	}
	return nil
}

func emittedBackends(result *Result) []string {
	backends := make([]string, 0, len(result.Emitted))
	for b := range result.Emitted {
		backends = append(backends, b)
	}
	slices.Sort(backends)
	return backends
}
