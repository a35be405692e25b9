// Command minilang is the minilang interpreter entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/thomasrohde/minilang/pkg/astgraph"
	"github.com/thomasrohde/minilang/pkg/config"
	"github.com/thomasrohde/minilang/pkg/diagnostics"
	"github.com/thomasrohde/minilang/pkg/evaluator"
	"github.com/thomasrohde/minilang/pkg/formatter"
	"github.com/thomasrohde/minilang/pkg/help"
	"github.com/thomasrohde/minilang/pkg/repl"
	"github.com/thomasrohde/minilang/pkg/runtime"
)

const usage = `usage: minilang [--log-level <level>] [<file>] | minilang [--log-level <level>] <command> [options]
commands: run, repl, check, fmt, tokens, ast, help, config, version`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, dir: dir}
	code := c.run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	dir    string

	cfg    *config.Config
	color  bool
	logger zerolog.Logger
}

// run dispatches args and returns the process exit code.
func (c *cli) run(ctx context.Context, args []string) int {
	cfg, err := config.Load(c.dir)
	if err != nil {
		c.printDiags([]diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, "")}, false)
		return runtime.ExitUsage
	}
	args, err = globalFlags(cfg, args)
	if err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n%s\n", err, usage)
		return runtime.ExitUsage
	}
	c.cfg = cfg
	c.color = c.colorEnabled(cfg.Color)
	c.logger = c.newLogger(cfg.Level())

	if len(args) == 0 {
		return c.cmdREPL(ctx, nil)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "run":
		return c.cmdRun(ctx, rest)
	case "repl":
		return c.cmdREPL(ctx, rest)
	case "check":
		return c.cmdCheck(rest)
	case "fmt":
		return c.cmdFmt(rest)
	case "tokens":
		return c.cmdTokens(rest)
	case "ast":
		return c.cmdAST(rest)
	case "help", "--help", "-h":
		return c.cmdHelp(rest)
	case "config":
		return c.cmdConfig(rest)
	case "version", "--version":
		fmt.Fprintf(c.stdout, "minilang %s\n", help.Version)
		return runtime.ExitOK
	}

	if !strings.HasPrefix(cmd, "-") && len(rest) == 0 {
		return c.cmdRun(ctx, args)
	}
	fmt.Fprintf(c.stderr, "unknown command: %s\n%s\n", cmd, usage)
	return runtime.ExitUsage
}

// globalFlags consumes leading --log-level options and applies them to cfg.
func globalFlags(cfg *config.Config, args []string) ([]string, error) {
	for len(args) > 0 {
		var level string
		switch {
		case args[0] == "--log-level":
			if len(args) < 2 {
				return nil, fmt.Errorf("--log-level needs a value")
			}
			level, args = args[1], args[2:]
		case strings.HasPrefix(args[0], "--log-level="):
			level, args = strings.TrimPrefix(args[0], "--log-level="), args[1:]
		default:
			return args, nil
		}
		if _, err := zerolog.ParseLevel(level); err != nil || level == "" {
			return nil, fmt.Errorf("invalid log level %q", level)
		}
		cfg.LogLevel = level
	}
	return args, nil
}

func (c *cli) colorEnabled(mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, ok := c.stderr.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (c *cli) newLogger(level zerolog.Level) zerolog.Logger {
	if level < zerolog.GlobalLevel() {
		zerolog.SetGlobalLevel(level)
	}
	w := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = c.stderr
		w.NoColor = !c.color
		w.TimeFormat = "15:04:05"
	})
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// parseFlags parses flags that may appear before or after positional
// arguments and returns the positionals.
func parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func (c *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

// oneFile parses args and requires exactly one positional file argument.
func (c *cli) oneFile(fs *flag.FlagSet, args []string, synopsis string) (string, bool) {
	positional, err := parseFlags(fs, args)
	if err != nil {
		return "", false
	}
	if len(positional) != 1 {
		fmt.Fprintf(c.stderr, "usage: minilang %s\n", synopsis)
		return "", false
	}
	return positional[0], true
}

func (c *cli) cmdRun(ctx context.Context, args []string) int {
	fs := c.flagSet("run")
	showAST := fs.Bool("ast", false, "print the syntax tree to stderr before running")
	astOut := fs.String("ast-out", "", "write the syntax tree as Graphviz DOT to this path")
	showTokens := fs.Bool("tokens", false, "print the token stream to stderr before running")
	trace := fs.Bool("trace", false, "write trace events to stderr as JSON lines")
	jsonOut := fs.Bool("json", false, "print the result and diagnostics as JSON")
	maxIter := fs.Int64("max-iterations", c.cfg.MaxIterations, "loop iteration limit (0 = unlimited)")
	timeout := fs.Int64("timeout-ms", c.cfg.TimeoutMs, "time limit in milliseconds (0 = unlimited)")

	file, ok := c.oneFile(fs, args, "run <file> [--ast] [--ast-out path] [--tokens] [--trace] [--json]")
	if !ok {
		return runtime.ExitUsage
	}
	source, filename, code := c.readSource(file, *jsonOut)
	if code != runtime.ExitOK {
		return code
	}

	opts := []runtime.Option{
		runtime.WithLogger(c.logger),
		runtime.WithStdout(c.stdout),
		runtime.WithBudget(evaluator.Budget{MaxIterations: *maxIter, TimeMs: *timeout}),
	}
	if *trace {
		opts = append(opts, runtime.WithTrace(c.traceWriter(c.stderr)))
	}
	rt := runtime.New(opts...)

	if *showTokens {
		tokens, err := rt.Tokens(source, filename)
		if err != nil {
			return c.fail(err, *jsonOut)
		}
		for _, tok := range tokens {
			fmt.Fprintln(c.stderr, tok)
		}
	}
	if *showAST {
		sink := astgraph.NewOutlineSink()
		if _, err := rt.Graph(source, filename, sink); err != nil {
			return c.fail(err, *jsonOut)
		}
		fmt.Fprint(c.stderr, sink.String())
	}
	if *astOut != "" {
		if code := c.writeDOT(rt, source, filename, *astOut, *jsonOut); code != runtime.ExitOK {
			return code
		}
	}

	value, err := rt.Run(ctx, source, filename)
	if err != nil {
		return c.fail(err, *jsonOut)
	}
	if *jsonOut {
		fmt.Fprintln(c.stdout, evaluator.ValueToJSONString(value))
	}
	return runtime.ExitOK
}

// traceWriter encodes trace events to w as JSON lines. Only the first write
// failure is logged; evaluation continues either way.
func (c *cli) traceWriter(w io.Writer) func(evaluator.TraceEvent) {
	enc := json.NewEncoder(w)
	failed := false
	return func(ev evaluator.TraceEvent) {
		if err := enc.Encode(ev); err != nil && !failed {
			failed = true
			c.logger.Debug().Err(err).Str("event", string(ev.Event)).Msg("trace write failed")
		}
	}
}

func (c *cli) writeDOT(rt *runtime.Runtime, source, filename, path string, jsonOut bool) int {
	sink := astgraph.NewDOTSink()
	if _, err := rt.Graph(source, filename, sink); err != nil {
		return c.fail(err, jsonOut)
	}
	data, err := sink.Marshal("ast")
	if err != nil {
		return c.fail(fmt.Errorf("rendering syntax tree: %w", err), jsonOut)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return c.fail(fmt.Errorf("writing %s: %w", path, err), jsonOut)
	}
	c.logger.Debug().Str("path", path).Int("nodes", sink.Len()).Msg("syntax tree written")
	return runtime.ExitOK
}

func (c *cli) cmdREPL(ctx context.Context, args []string) int {
	fs := c.flagSet("repl")
	prompt := fs.String("prompt", c.cfg.Prompt, "prompt printed before each line")
	positional, err := parseFlags(fs, args)
	if err != nil || len(positional) != 0 {
		fmt.Fprintln(c.stderr, "usage: minilang repl [--prompt text]")
		return runtime.ExitUsage
	}

	rt := runtime.New(
		runtime.WithLogger(c.logger),
		runtime.WithStdout(c.stdout),
		runtime.WithBudget(c.cfg.Budget()),
	)
	r := repl.New(rt, c.stdin, c.stdout, c.stderr,
		repl.WithPrompt(*prompt),
		repl.WithColor(c.outputColor()),
		repl.WithLogger(c.logger),
	)
	if err := r.Run(ctx); err != nil {
		fmt.Fprintln(c.stderr, err)
		return runtime.ExitUsage
	}
	return runtime.ExitOK
}

// outputColor decides color for stdout, which the REPL writes results to.
func (c *cli) outputColor() bool {
	switch c.cfg.Color {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, ok := c.stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (c *cli) cmdCheck(args []string) int {
	fs := c.flagSet("check")
	jsonOut := fs.Bool("json", false, "print diagnostics as JSON")
	file, ok := c.oneFile(fs, args, "check <file> [--json]")
	if !ok {
		return runtime.ExitUsage
	}
	source, filename, code := c.readSource(file, *jsonOut)
	if code != runtime.ExitOK {
		return code
	}

	diags := runtime.New(runtime.WithLogger(c.logger)).Check(source, filename)
	if len(diags) > 0 {
		c.printDiags(diags, *jsonOut)
		return runtime.ExitDiagnostics
	}
	if *jsonOut {
		fmt.Fprintln(c.stdout, "[]")
	} else {
		fmt.Fprintln(c.stdout, "No errors found.")
	}
	return runtime.ExitOK
}

func (c *cli) cmdFmt(args []string) int {
	fs := c.flagSet("fmt")
	write := fs.Bool("write", false, "rewrite the file in place")
	file, ok := c.oneFile(fs, args, "fmt <file> [--write]")
	if !ok {
		return runtime.ExitUsage
	}
	source, filename, code := c.readSource(file, false)
	if code != runtime.ExitOK {
		return code
	}

	formatted, err := runtime.New(runtime.WithLogger(c.logger)).Format(source, filename)
	if err != nil {
		return c.fail(err, false)
	}
	if formatter.HasComments(source) {
		c.logger.Warn().Str("file", filename).Msg("comments are not preserved by the formatter")
	}

	if *write && file != "-" {
		if err := os.WriteFile(file, []byte(formatted), 0o644); err != nil {
			return c.fail(fmt.Errorf("writing %s: %w", file, err), false)
		}
		return runtime.ExitOK
	}
	fmt.Fprint(c.stdout, formatted)
	return runtime.ExitOK
}

func (c *cli) cmdTokens(args []string) int {
	fs := c.flagSet("tokens")
	file, ok := c.oneFile(fs, args, "tokens <file>")
	if !ok {
		return runtime.ExitUsage
	}
	source, filename, code := c.readSource(file, false)
	if code != runtime.ExitOK {
		return code
	}
	tokens, err := runtime.New(runtime.WithLogger(c.logger)).Tokens(source, filename)
	if err != nil {
		return c.fail(err, false)
	}
	for _, tok := range tokens {
		fmt.Fprintln(c.stdout, tok)
	}
	return runtime.ExitOK
}

func (c *cli) cmdAST(args []string) int {
	fs := c.flagSet("ast")
	out := fs.String("o", "", "write Graphviz DOT to this path instead of printing an outline")
	dot := fs.Bool("dot", false, "print Graphviz DOT instead of an outline")
	file, ok := c.oneFile(fs, args, "ast <file> [-o path] [--dot]")
	if !ok {
		return runtime.ExitUsage
	}
	source, filename, code := c.readSource(file, false)
	if code != runtime.ExitOK {
		return code
	}
	rt := runtime.New(runtime.WithLogger(c.logger))

	switch {
	case *out != "":
		return c.writeDOT(rt, source, filename, *out, false)
	case *dot:
		sink := astgraph.NewDOTSink()
		if _, err := rt.Graph(source, filename, sink); err != nil {
			return c.fail(err, false)
		}
		data, err := sink.Marshal("ast")
		if err != nil {
			return c.fail(err, false)
		}
		fmt.Fprintln(c.stdout, string(data))
	default:
		sink := astgraph.NewOutlineSink()
		if _, err := rt.Graph(source, filename, sink); err != nil {
			return c.fail(err, false)
		}
		fmt.Fprint(c.stdout, sink.String())
	}
	return runtime.ExitOK
}

func (c *cli) cmdHelp(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(c.stdout, help.QUICKREF)
		return runtime.ExitOK
	}
	_, content, err := help.MatchTopic(args[0])
	if err != nil {
		fmt.Fprintf(c.stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return runtime.ExitUsage
	}
	fmt.Fprint(c.stdout, content)
	return runtime.ExitOK
}

func (c *cli) cmdConfig(args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(c.stderr, "usage: minilang config")
		return runtime.ExitUsage
	}
	b, err := json.MarshalIndent(c.cfg, "", "  ")
	if err != nil {
		return c.fail(err, false)
	}
	fmt.Fprintln(c.stdout, string(b))
	return runtime.ExitOK
}

// readSource reads file, or standard input for "-".
func (c *cli) readSource(file string, jsonOut bool) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			c.printDiags([]diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("reading stdin: %s", err), nil, "")}, jsonOut)
			return "", "", runtime.ExitUsage
		}
		return string(data), "<stdin>", runtime.ExitOK
	}
	data, err := os.ReadFile(file)
	if err != nil {
		msg := fmt.Sprintf("cannot read file: %s", file)
		if errors.Is(err, os.ErrNotExist) {
			msg = fmt.Sprintf("file not found: %s", file)
		}
		c.printDiags([]diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EIO, msg, nil, "")}, jsonOut)
		return "", "", runtime.ExitUsage
	}
	return string(data), file, runtime.ExitOK
}

// fail reports err and returns its exit code.
func (c *cli) fail(err error, jsonOut bool) int {
	c.printDiags(runtime.Diagnostics(err), jsonOut)
	return runtime.ExitCode(err)
}

func (c *cli) printDiags(diags []diagnostics.Diagnostic, jsonOut bool) {
	if jsonOut {
		fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(diags, false))
		return
	}
	text := diagnostics.FormatDiagnostics(diags, true)
	if c.color {
		out := termenv.NewOutput(c.stderr, termenv.WithProfile(termenv.ANSI))
		text = out.String(text).Foreground(out.Color("1")).String()
	}
	fmt.Fprintln(c.stderr, text)
}
