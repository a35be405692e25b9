// Package runtime provides the top-level minilang session orchestrator.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/thomasrohde/minilang/pkg/astgraph"
	"github.com/thomasrohde/minilang/pkg/diagnostics"
	"github.com/thomasrohde/minilang/pkg/evaluator"
	"github.com/thomasrohde/minilang/pkg/formatter"
	"github.com/thomasrohde/minilang/pkg/lexer"
	"github.com/thomasrohde/minilang/pkg/parser"
	"github.com/thomasrohde/minilang/pkg/validator"
)

// Exit codes shared by the command line driver and its scenario tests.
const (
	ExitOK          = 0
	ExitUsage       = 1
	ExitDiagnostics = 2
	ExitRuntime     = 4
)

// Runtime wires together the minilang components. It owns one global
// environment for its whole lifetime, so every unit run through it sees the
// bindings left by the units before it.
type Runtime struct {
	env    *evaluator.Environment
	logger zerolog.Logger
	stdout io.Writer
	runID  string
	budget evaluator.Budget
	trace  func(event evaluator.TraceEvent)
	units  int
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for session and unit events.
func WithLogger(l zerolog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithStdout sets the stream print and println write to.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithBudget sets the resource limits applied to each unit.
func WithBudget(b evaluator.Budget) Option {
	return func(rt *Runtime) {
		rt.budget = b
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// New creates a new Runtime with an empty global environment. By default
// output goes to os.Stdout, nothing is logged and the run ID is a fresh ULID.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		env:    evaluator.NewEnvironment(),
		logger: zerolog.Nop(),
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.runID == "" {
		rt.runID = ulid.Make().String()
	}
	rt.logger = rt.logger.With().Str("run_id", rt.runID).Logger()
	rt.logger.Debug().
		Int64("max_iterations", rt.budget.MaxIterations).
		Int64("timeout_ms", rt.budget.TimeMs).
		Msg("session started")
	return rt
}

// RunID returns the ID attached to trace events and log lines.
func (rt *Runtime) RunID() string { return rt.runID }

// Environment returns the session's global environment.
func (rt *Runtime) Environment() *evaluator.Environment { return rt.env }

// Run tokenizes, parses, validates, and evaluates one unit of source against
// the session environment. The result is nil when the unit produced no value.
// Bindings made before a runtime error are kept.
func (rt *Runtime) Run(ctx context.Context, source, filename string) (evaluator.Value, error) {
	rt.units++
	log := rt.logger.With().Str("file", filename).Int("unit", rt.units).Logger()
	start := time.Now()

	program, diags := parser.Parse(source, filename)
	if len(diags) == 0 {
		diags = validator.Validate(program)
	}
	if len(diags) > 0 {
		log.Debug().Str("code", diags[0].Code).Int("diagnostics", len(diags)).Msg("unit rejected")
		return nil, &DiagnosticError{Diagnostics: diags}
	}

	value, err := evaluator.Evaluate(ctx, program, rt.env, evaluator.Options{
		Stdout: rt.stdout,
		Trace:  rt.traceFunc(log),
		RunID:  rt.runID,
		Budget: rt.budget,
	})
	elapsed := time.Since(start)
	if err != nil {
		var rerr *evaluator.RuntimeError
		if errors.As(err, &rerr) {
			log.Debug().Str("code", rerr.Code).Dur("elapsed", elapsed).Msg("unit failed")
		} else {
			log.Debug().Err(err).Dur("elapsed", elapsed).Msg("unit failed")
		}
		return nil, err
	}
	log.Debug().Str("result", evaluator.KindOf(value)).Dur("elapsed", elapsed).Msg("unit evaluated")
	return value, nil
}

func (rt *Runtime) traceFunc(log zerolog.Logger) func(evaluator.TraceEvent) {
	if rt.trace == nil && log.GetLevel() > zerolog.TraceLevel {
		return nil
	}
	return func(ev evaluator.TraceEvent) {
		if e := log.Trace(); e.Enabled() {
			e.Str("event", string(ev.Event))
			for k, v := range ev.Data {
				e.Str(k, v)
			}
			e.Msg("trace")
		}
		if rt.trace != nil {
			rt.trace(ev)
		}
	}
}

// Check parses and validates a program without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(program)
}

// Format parses and formats a program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

// Tokens returns the token stream of source, ending with EOF.
func (rt *Runtime) Tokens(source, filename string) ([]lexer.Token, error) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		var lexErr *lexer.LexError
		if errors.As(err, &lexErr) {
			return nil, &DiagnosticError{Diagnostics: []diagnostics.Diagnostic{lexErr.Diag}}
		}
		return nil, err
	}
	return tokens, nil
}

// Graph parses source and draws its syntax tree to sink, returning the root id.
func (rt *Runtime) Graph(source, filename string, sink astgraph.Sink) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return astgraph.Draw(program, sink), nil
}

// DiagnosticError wraps lex, parse, or validation diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// Is matches diagnostics.ErrLex, ErrParse or ErrValidation when any wrapped
// diagnostic carries the corresponding code.
func (e *DiagnosticError) Is(target error) bool {
	for _, d := range e.Diagnostics {
		if s := diagnostics.Sentinel(d.Code); s != nil && s == target {
			return true
		}
	}
	return false
}

// Diagnostics converts an error returned by Run, Format, Tokens or Graph into
// diagnostics for reporting. Errors of unknown type become a single E_IO
// diagnostic.
func Diagnostics(err error) []diagnostics.Diagnostic {
	if err == nil {
		return nil
	}
	var derr *DiagnosticError
	if errors.As(err, &derr) {
		return derr.Diagnostics
	}
	var rerr *evaluator.RuntimeError
	if errors.As(err, &rerr) {
		return []diagnostics.Diagnostic{rerr.Diagnostic()}
	}
	return []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, "")}
}

// ExitCode maps an error to the process exit code of the command line driver.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var derr *DiagnosticError
	if errors.As(err, &derr) {
		return ExitDiagnostics
	}
	var rerr *evaluator.RuntimeError
	if errors.As(err, &rerr) {
		return ExitRuntime
	}
	return ExitUsage
}
