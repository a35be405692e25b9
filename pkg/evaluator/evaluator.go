package evaluator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/thomasrohde/minilang/pkg/ast"
	"github.com/thomasrohde/minilang/pkg/diagnostics"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart       TraceEventType = "run_start"
	TraceRunEnd         TraceEventType = "run_end"
	TraceStmtStart      TraceEventType = "stmt_start"
	TraceStmtEnd        TraceEventType = "stmt_end"
	TraceLoopStart      TraceEventType = "loop_start"
	TraceLoopEnd        TraceEventType = "loop_end"
	TraceFnCallStart    TraceEventType = "fn_call_start"
	TraceFnCallEnd      TraceEventType = "fn_call_end"
	TraceBudgetExceeded TraceEventType = "budget_exceeded"
)

// TraceEvent represents a single trace event emitted during evaluation.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId,omitempty"`
	Event     TraceEventType    `json:"event"`
	Span      *ast.Span         `json:"span,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// Options configures one evaluation.
type Options struct {
	// Stdout receives print/println output. Nil discards it.
	Stdout io.Writer
	Trace  func(event TraceEvent)
	RunID  string
	Budget Budget
}

type evaluator struct {
	ctx     context.Context
	opts    Options
	tracker BudgetTracker
}

// Evaluate evaluates node against env. The node is usually a *ast.Program,
// but any statement, expression or block is accepted. A nil Value with a nil
// error means the node produced none.
func Evaluate(ctx context.Context, node ast.Node, env *Environment, opts Options) (Value, error) {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}

	ev := &evaluator{
		ctx:     ctx,
		opts:    opts,
		tracker: BudgetTracker{StartMs: time.Now().UnixMilli()},
	}

	if opts.Budget.TimeMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.Budget.TimeMs)*time.Millisecond)
		defer cancel()
		ev.ctx = ctx
	}

	span := node.NodeSpan()
	ev.emit(TraceRunStart, &span, nil)
	val, err := ev.evalNode(node, env)
	ev.emit(TraceRunEnd, &span, nil)

	return val, err
}

func (ev *evaluator) emit(event TraceEventType, span *ast.Span, data map[string]string) {
	if ev.opts.Trace != nil {
		ev.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     ev.opts.RunID,
			Event:     event,
			Span:      span,
			Data:      data,
		})
	}
}

// checkContext reports cancellation and time budget exhaustion.
func (ev *evaluator) checkContext(span ast.Span) error {
	err := ev.ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ev.opts.Budget.TimeMs > 0 {
		ev.emit(TraceBudgetExceeded, &span, map[string]string{"budget": "timeMs"})
		return newError(diagnostics.EBudget, &span, "time budget exceeded (%dms)", ev.opts.Budget.TimeMs)
	}
	return &RuntimeError{
		Code:    diagnostics.ECanceled,
		Message: "evaluation canceled",
		Span:    &span,
		cause:   err,
	}
}

// countIteration records one loop iteration against the iteration budget.
func (ev *evaluator) countIteration(span ast.Span) error {
	if err := ev.checkContext(span); err != nil {
		return err
	}
	if limit := ev.opts.Budget.MaxIterations; limit > 0 && ev.tracker.Iterations >= limit {
		ev.emit(TraceBudgetExceeded, &span, map[string]string{"budget": "maxIterations"})
		return newError(diagnostics.EBudget, &span, "iteration budget exceeded (max %d)", limit)
	}
	ev.tracker.Iterations++
	return nil
}

func (ev *evaluator) evalNode(node ast.Node, env *Environment) (Value, error) {
	switch n := node.(type) {
	case *ast.Program:
		return ev.executeBlock(n.Block, env)
	case *ast.Block:
		return ev.executeBlock(n, env)
	case ast.Stmt:
		return ev.executeStmt(n, env)
	case ast.Expr:
		return ev.evalExpr(n, env)
	}
	return nil, typeMismatch(nil, "unsupported node type: %T", node)
}

// executeBlock runs statements in order in the current environment and
// returns the value of the last one.
func (ev *evaluator) executeBlock(block *ast.Block, env *Environment) (Value, error) {
	if block == nil {
		return nil, nil
	}

	var last Value
	for _, stmt := range block.Statements {
		span := stmt.NodeSpan()
		ev.emit(TraceStmtStart, &span, nil)

		val, err := ev.executeStmt(stmt, env)
		if err != nil {
			return nil, err
		}
		last = val

		ev.emit(TraceStmtEnd, &span, nil)
	}
	return last, nil
}

func (ev *evaluator) executeStmt(stmt ast.Stmt, env *Environment) (Value, error) {
	switch s := stmt.(type) {
	case *ast.Statement:
		return ev.evalExpr(s.Expr, env)

	case *ast.Define:
		val, err := ev.evalExpr(s.Value, env)
		if err != nil {
			return nil, err
		}
		env.Define(s.Name, val)
		return nil, nil

	case *ast.Assign:
		val, err := ev.evalExpr(s.Value, env)
		if err != nil {
			return nil, err
		}
		if err := env.Assign(s.Name, val); err != nil {
			return nil, withSpan(err, s.Span)
		}
		return nil, nil

	case *ast.Print:
		val, err := ev.evalExpr(s.Value, env)
		if err != nil {
			return nil, err
		}
		text := Render(val)
		if s.Newline {
			text += "\n"
		}
		if _, err := io.WriteString(ev.opts.Stdout, text); err != nil {
			span := s.Span
			return nil, &RuntimeError{
				Code:    diagnostics.EOutput,
				Message: fmt.Sprintf("writing output: %s", err),
				Span:    &span,
				cause:   err,
			}
		}
		return nil, nil

	case *ast.Fn:
		env.DefineFunction(&Function{Name: s.Name, Params: s.Params, Body: s.Body})
		return nil, nil
	}

	return nil, typeMismatch(nil, "unsupported statement type: %T", stmt)
}

func (ev *evaluator) evalExpr(expr ast.Expr, env *Environment) (Value, error) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		return NewInt(e.Value), nil

	case *ast.FloatLiteral:
		return NewFloat(e.Value), nil

	case *ast.StringLiteral:
		return NewString(e.Value), nil

	case *ast.BoolLiteral:
		return NewBool(e.Value), nil

	case *ast.Symbol:
		val, err := env.Lookup(e.Name)
		if err != nil {
			return nil, withSpan(err, e.Span)
		}
		return val, nil

	case *ast.BinaryOp:
		left, err := ev.evalExpr(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := ev.evalExpr(e.Right, env)
		if err != nil {
			return nil, err
		}
		span := e.Span
		return binaryOp(e.Op, left, right, &span)

	case *ast.Minus:
		operand, err := ev.evalExpr(e.Operand, env)
		if err != nil {
			return nil, err
		}
		span := e.Span
		return negate(operand, &span)

	case *ast.Not:
		operand, err := ev.evalExpr(e.Operand, env)
		if err != nil {
			return nil, err
		}
		span := e.Span
		return logicalNot(operand, &span)

	case *ast.Cast:
		val, err := ev.evalExpr(e.Value, env)
		if err != nil {
			return nil, err
		}
		span := e.Span
		return cast(e.Target, val, &span)

	case *ast.If:
		ok, err := ev.condition(e.Cond, env)
		if err != nil || !ok {
			return nil, err
		}
		return ev.executeBlock(e.Then, env)

	case *ast.IfElse:
		ok, err := ev.condition(e.Cond, env)
		if err != nil {
			return nil, err
		}
		if ok {
			return ev.executeBlock(e.Then, env)
		}
		return ev.executeBlock(e.Else, env)

	case *ast.While:
		return ev.evalWhile(e, env)

	case *ast.For:
		return ev.evalFor(e, env)

	case *ast.Call:
		return ev.evalCall(e, env)
	}

	return nil, typeMismatch(nil, "unsupported expression type: %T", expr)
}

// condition evaluates a control-flow condition, which must produce a bool.
func (ev *evaluator) condition(expr ast.Expr, env *Environment) (bool, error) {
	val, err := ev.evalExpr(expr, env)
	if err != nil {
		return false, err
	}
	b, ok := val.(BoolValue)
	if !ok {
		span := expr.NodeSpan()
		return false, typeMismatch(&span, "condition must be bool, got %s", KindOf(val))
	}
	return b.Value, nil
}

func (ev *evaluator) evalWhile(e *ast.While, env *Environment) (Value, error) {
	span := e.Span
	ev.emit(TraceLoopStart, &span, map[string]string{"loop": "while"})

	var last Value
	for {
		ok, err := ev.condition(e.Cond, env)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := ev.countIteration(span); err != nil {
			return nil, err
		}
		last, err = ev.executeBlock(e.Body, env)
		if err != nil {
			return nil, err
		}
	}

	ev.emit(TraceLoopEnd, &span, map[string]string{"loop": "while"})
	return last, nil
}

func (ev *evaluator) evalFor(e *ast.For, env *Environment) (Value, error) {
	span := e.Span
	ev.emit(TraceLoopStart, &span, map[string]string{"loop": "for"})

	if _, err := ev.executeStmt(e.Init, env); err != nil {
		return nil, err
	}

	var last Value
	for {
		ok, err := ev.condition(e.Cond, env)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := ev.countIteration(span); err != nil {
			return nil, err
		}
		last, err = ev.executeBlock(e.Body, env)
		if err != nil {
			return nil, err
		}
		if _, err := ev.executeStmt(e.Step, env); err != nil {
			return nil, err
		}
	}

	ev.emit(TraceLoopEnd, &span, map[string]string{"loop": "for"})
	return last, nil
}

// evalCall invokes a function entry in a fresh environment that holds only
// the bound parameters.
func (ev *evaluator) evalCall(e *ast.Call, env *Environment) (Value, error) {
	span := e.Span

	args := make([]Value, len(e.Args))
	for i, argExpr := range e.Args {
		val, err := ev.evalExpr(argExpr, env)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	fn, err := env.LookupFunction(e.Name)
	if err != nil {
		return nil, withSpan(err, span)
	}

	if len(args) != len(fn.Params) {
		return nil, newError(diagnostics.EArity, &span,
			"function '%s' expects %d argument(s), got %d", fn.Name, len(fn.Params), len(args))
	}

	bindings := make(map[string]Value, len(args))
	for i, param := range fn.Params {
		if args[i] == nil || args[i].Kind() != param.Type {
			return nil, typeMismatch(&span, "argument %d of '%s' (%s) must be %s, got %s",
				i+1, fn.Name, param.Name, param.Type, KindOf(args[i]))
		}
		bindings[param.Name] = args[i]
	}

	if err := ev.checkContext(span); err != nil {
		return nil, err
	}
	ev.tracker.Calls++

	ev.emit(TraceFnCallStart, &span, map[string]string{"fn": fn.Name})
	callEnv := newCallEnvironment()
	result, err := callEnv.WithFrame(bindings, func() (Value, error) {
		return ev.executeBlock(fn.Body, callEnv)
	})
	ev.emit(TraceFnCallEnd, &span, map[string]string{"fn": fn.Name})
	if err != nil {
		return nil, err
	}
	return result, nil
}
