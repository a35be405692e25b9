package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/minilang/internal/testutil"
	"github.com/thomasrohde/minilang/pkg/diagnostics"
	"github.com/thomasrohde/minilang/pkg/evaluator"
	"github.com/thomasrohde/minilang/pkg/repl"
	"github.com/thomasrohde/minilang/pkg/runtime"
)

type outcome struct {
	exitCode int
	stdout   string
	stderr   string
}

func TestConformance(t *testing.T) {
	dirs, err := testutil.ListScenarios(testutil.ScenariosDir)
	require.NoError(t, err)
	require.NotEmpty(t, dirs, "no scenarios under %s", testutil.ScenariosDir)

	for _, dir := range dirs {
		dir := dir
		t.Run(filepath.Base(dir), func(t *testing.T) {
			scenario, err := testutil.LoadScenario(dir)
			require.NoError(t, err)
			require.NotEmpty(t, scenario.Cmd)

			source, filename, err := testutil.ReadProgramFile(dir, scenario.Cmd)
			require.NoError(t, err)

			var got outcome
			switch scenario.Cmd[0] {
			case "run":
				got = runScenario(scenario, source, filename)
			case "check":
				got = checkScenario(source, filename)
			case "repl":
				got = replScenario(t, scenario)
			default:
				t.Skipf("unsupported command: %s", scenario.Cmd[0])
			}
			checkExpectations(t, scenario, got)
		})
	}
}

func newScenarioRuntime(scenario *testutil.Scenario, stdout *bytes.Buffer) *runtime.Runtime {
	opts := []runtime.Option{runtime.WithStdout(stdout), runtime.WithRunID("test")}
	if scenario.Limit != nil {
		opts = append(opts, runtime.WithBudget(evaluator.Budget{
			MaxIterations: scenario.Limit.MaxIterations,
			TimeMs:        scenario.Limit.TimeMs,
		}))
	}
	return runtime.New(opts...)
}

func runScenario(scenario *testutil.Scenario, source, filename string) outcome {
	var stdout bytes.Buffer
	rt := newScenarioRuntime(scenario, &stdout)
	value, err := rt.Run(context.Background(), source, filename)
	if err != nil {
		return outcome{
			exitCode: runtime.ExitCode(err),
			stdout:   stdout.String(),
			stderr:   diagnostics.FormatDiagnostics(runtime.Diagnostics(err), true),
		}
	}
	if scenario.Expect.StdoutJSON != nil {
		stdout.WriteString(evaluator.ValueToJSONString(value))
	}
	return outcome{exitCode: runtime.ExitOK, stdout: stdout.String()}
}

func checkScenario(source, filename string) outcome {
	diags := runtime.New().Check(source, filename)
	if len(diags) > 0 {
		return outcome{exitCode: runtime.ExitDiagnostics, stderr: diagnostics.FormatDiagnostics(diags, true)}
	}
	return outcome{exitCode: runtime.ExitOK, stdout: "[]"}
}

func replScenario(t *testing.T, scenario *testutil.Scenario) outcome {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rt := newScenarioRuntime(scenario, &stdout)
	r := repl.New(rt, strings.NewReader(scenario.Stdin), &stdout, &stderr,
		repl.WithPrompt(""), repl.WithColor(false))
	require.NoError(t, r.Run(context.Background()))
	return outcome{exitCode: runtime.ExitOK, stdout: stdout.String(), stderr: stderr.String()}
}

func checkExpectations(t *testing.T, scenario *testutil.Scenario, got outcome) {
	t.Helper()
	want := scenario.Expect

	assert.Equal(t, want.ExitCode, got.exitCode, "exit code (stderr: %s)", got.stderr)
	if want.StdoutText != nil {
		assert.Equal(t, *want.StdoutText, got.stdout)
	}
	if want.StdoutContains != "" {
		assert.Contains(t, got.stdout, want.StdoutContains)
	}
	if want.StdoutJSON != nil {
		assert.JSONEq(t, normalizeJSON(t, want.StdoutJSON), got.stdout)
	}
	for _, s := range want.StderrContains {
		assert.Contains(t, got.stderr, s)
	}
	if want.StderrEmpty {
		assert.Empty(t, got.stderr)
	}
}

func normalizeJSON(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal(raw, &v), "raw: %s", string(raw))
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
