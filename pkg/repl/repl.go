// Package repl implements the interactive minilang session.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/cancelreader"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/thomasrohde/minilang/pkg/diagnostics"
	"github.com/thomasrohde/minilang/pkg/evaluator"
	"github.com/thomasrohde/minilang/pkg/help"
	"github.com/thomasrohde/minilang/pkg/runtime"
)

const filename = "<repl>"

// REPL reads one unit per line, runs it through a session runtime and prints
// the result. Errors are reported and the session continues with the same
// environment.
type REPL struct {
	rt     *runtime.Runtime
	in     io.Reader
	out    *termenv.Output
	errOut *termenv.Output
	prompt string
	color  *bool
	logger zerolog.Logger
}

// Option is a functional option for configuring the REPL.
type Option func(*REPL)

// WithPrompt sets the prompt printed before each line.
func WithPrompt(p string) Option {
	return func(r *REPL) {
		r.prompt = p
	}
}

// WithColor enables or disables colored output regardless of the terminal.
func WithColor(enabled bool) Option {
	return func(r *REPL) {
		r.color = &enabled
	}
}

// WithLogger sets the logger for session events.
func WithLogger(l zerolog.Logger) Option {
	return func(r *REPL) {
		r.logger = l
	}
}

// New creates a REPL reading from in and writing results to out and errors
// to errOut. Color is detected from out unless WithColor is given.
func New(rt *runtime.Runtime, in io.Reader, out, errOut io.Writer, opts ...Option) *REPL {
	r := &REPL{
		rt:     rt,
		in:     in,
		prompt: "minilang> ",
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	var outputOpts []termenv.OutputOption
	if r.color != nil {
		profile := termenv.Ascii
		if *r.color {
			profile = termenv.ANSI
		}
		outputOpts = append(outputOpts, termenv.WithProfile(profile))
	}
	r.out = termenv.NewOutput(out, outputOpts...)
	r.errOut = termenv.NewOutput(errOut, outputOpts...)
	return r
}

// Run reads and evaluates lines until EOF, :quit, or ctx is done. It returns
// nil for all of those and an error only when reading input fails.
func (r *REPL) Run(ctx context.Context) error {
	reader, stop := r.input(ctx)
	defer stop()

	lines := bufio.NewReader(reader)
	r.logger.Debug().Msg("repl started")
	defer r.logger.Debug().Msg("repl stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(r.out, r.prompt)

		line, err := lines.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			if errors.Is(err, cancelreader.ErrCanceled) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		eof := err != nil

		if quit := r.handle(ctx, strings.TrimSpace(line)); quit {
			return nil
		}
		if eof {
			fmt.Fprintln(r.out)
			return nil
		}
	}
}

// input wraps the reader so a done ctx interrupts a pending read. Only
// terminals are wrapped; pipes and buffers are read directly.
func (r *REPL) input(ctx context.Context) (io.Reader, func()) {
	f, ok := r.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return r.in, func() {}
	}
	cr, err := cancelreader.NewReader(f)
	if err != nil {
		r.logger.Debug().Err(err).Msg("input is not cancelable")
		return r.in, func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cr.Cancel()
		case <-done:
		}
	}()
	return cr, func() {
		close(done)
		cr.Close()
	}
}

// handle processes one trimmed line and reports whether the session ends.
func (r *REPL) handle(ctx context.Context, line string) bool {
	switch {
	case line == "":
		return false
	case strings.HasPrefix(line, ":"):
		return r.command(line)
	}

	value, err := r.rt.Run(ctx, line, filename)
	if err != nil {
		r.report(err)
		return false
	}
	if value != nil {
		fmt.Fprintln(r.out, r.out.String(evaluator.Render(value)).Foreground(r.out.Color("6")))
	}
	return false
}

func (r *REPL) command(line string) bool {
	name := strings.Fields(line)[0]
	switch name {
	case ":quit", ":q", ":exit":
		return true
	case ":help", ":h":
		fmt.Fprint(r.out, help.QUICKREF)
	case ":env":
		env := r.rt.Environment()
		names := env.Names()
		if len(names) == 0 {
			fmt.Fprintln(r.out, "(empty)")
		}
		for _, n := range names {
			desc, _ := env.Describe(n)
			if strings.HasPrefix(desc, "fn ") {
				fmt.Fprintln(r.out, desc)
				continue
			}
			fmt.Fprintf(r.out, "%s: %s\n", n, desc)
		}
	default:
		fmt.Fprintln(r.errOut, r.errOut.String(fmt.Sprintf("unknown command %s (try :help)", name)).Foreground(r.errOut.Color("3")))
	}
	return false
}

func (r *REPL) report(err error) {
	diags := runtime.Diagnostics(err)
	text := diagnostics.FormatDiagnostics(diags, true)
	fmt.Fprintln(r.errOut, r.errOut.String(text).Foreground(r.errOut.Color("1")))
}
