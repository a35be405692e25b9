// Package testutil provides shared test helpers for minilang tests.
package testutil

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"golang.org/x/exp/slices"
)

// ScenariosDir is the path of the scenario tree relative to the module root.
const ScenariosDir = "testdata/scenarios"

// Scenario is a test scenario loaded from a scenario.json file.
type Scenario struct {
	// Cmd is "run", "check" or "repl"; run and check name a program file
	// in the scenario directory.
	Cmd    []string       `json:"cmd"`
	Stdin  string         `json:"stdin,omitempty"`
	Limit  *ScenarioLimit `json:"limit,omitempty"`
	Meta   *ScenarioMeta  `json:"meta,omitempty"`
	Expect ExpectedResult `json:"expect"`
}

// ScenarioLimit sets the evaluation budget for a scenario.
type ScenarioLimit struct {
	MaxIterations int64 `json:"maxIterations,omitempty"`
	TimeMs        int64 `json:"timeMs,omitempty"`
}

// ScenarioMeta holds optional scenario metadata.
type ScenarioMeta struct {
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ExpectedResult describes the expected outcome of running a scenario.
type ExpectedResult struct {
	ExitCode       int             `json:"exitCode"`
	StdoutText     *string         `json:"stdoutText,omitempty"`
	StdoutContains string          `json:"stdoutContains,omitempty"`
	StdoutJSON     json.RawMessage `json:"stdoutJson,omitempty"`
	StderrContains []string        `json:"stderrContains,omitempty"`
	StderrEmpty    bool            `json:"stderrEmpty,omitempty"`
}

// LoadScenario loads a scenario from a directory containing scenario.json.
func LoadScenario(dir string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Join(dir, "scenario.json"))
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListScenarios returns all scenario directories under root, sorted by name.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), "scenario.json")); err == nil {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	slices.Sort(dirs)
	return dirs, nil
}

// ReadProgramFile reads the program file named by the scenario cmd. It
// returns empty strings when the command takes no file.
func ReadProgramFile(scenarioDir string, cmd []string) (string, string, error) {
	if len(cmd) < 2 {
		return "", "", nil
	}
	filename := cmd[1]
	source, err := os.ReadFile(filepath.Join(scenarioDir, filename))
	if err != nil {
		return "", "", err
	}
	return string(source), filename, nil
}
