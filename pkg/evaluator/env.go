package evaluator

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/thomasrohde/minilang/pkg/ast"
	"github.com/thomasrohde/minilang/pkg/diagnostics"
)

// Function is a function entry: the declared parameters and the body block.
type Function struct {
	Name   string
	Params []ast.Param
	Body   *ast.Block
}

// binding holds either a value or a function entry under one name.
type binding struct {
	value Value
	fn    *Function
}

type frame map[string]binding

// Environment is an ordered stack of frames. Lookup and mutation search from
// the innermost frame outward and stop at the first match. Control-flow bodies
// never push a frame; only function invocations do. The zero value is an
// empty environment whose global frame is created on first definition.
type Environment struct {
	frames []frame
}

// NewEnvironment creates an environment holding a single global frame.
func NewEnvironment() *Environment {
	return &Environment{frames: []frame{{}}}
}

// newCallEnvironment creates the environment for a function invocation. It
// takes no reference to the caller: a callee sees only its own parameters.
func newCallEnvironment() *Environment {
	return &Environment{}
}

func (e *Environment) current() frame {
	if len(e.frames) == 0 {
		e.frames = append(e.frames, frame{})
	}
	return e.frames[len(e.frames)-1]
}

func (e *Environment) find(name string) (frame, binding, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if b, ok := e.frames[i][name]; ok {
			return e.frames[i], b, true
		}
	}
	return nil, binding{}, false
}

// Define binds name to val in the current frame, replacing any previous binding.
func (e *Environment) Define(name string, val Value) {
	e.current()[name] = binding{value: val}
}

// DefineFunction binds a function entry under fn.Name in the current frame.
func (e *Environment) DefineFunction(fn *Function) {
	e.current()[fn.Name] = binding{fn: fn}
}

// Lookup resolves name to a value.
func (e *Environment) Lookup(name string) (Value, error) {
	_, b, ok := e.find(name)
	if !ok {
		return nil, newError(diagnostics.EUndefined, nil, "undefined name '%s'", name)
	}
	if b.fn != nil {
		return nil, typeMismatch(nil, "'%s' is a function and cannot be used as a value", name)
	}
	return b.value, nil
}

// LookupFunction resolves name to a function entry.
func (e *Environment) LookupFunction(name string) (*Function, error) {
	_, b, ok := e.find(name)
	if !ok || b.fn == nil {
		return nil, newError(diagnostics.EUndefined, nil, "undefined function '%s'", name)
	}
	return b.fn, nil
}

// Assign mutates the nearest existing binding of name. It never creates one.
func (e *Environment) Assign(name string, val Value) error {
	f, _, ok := e.find(name)
	if !ok {
		return newError(diagnostics.EUndefined, nil, "cannot assign to undefined name '%s'", name)
	}
	f[name] = binding{value: val}
	return nil
}

// WithFrame pushes a frame holding bindings, runs fn, and pops the frame on
// every exit path.
func (e *Environment) WithFrame(bindings map[string]Value, fn func() (Value, error)) (Value, error) {
	f := make(frame, len(bindings))
	for name, val := range bindings {
		f[name] = binding{value: val}
	}
	e.frames = append(e.frames, f)
	defer func() {
		e.frames = e.frames[:len(e.frames)-1]
	}()
	return fn()
}

// Depth returns the number of frames on the stack.
func (e *Environment) Depth() int {
	return len(e.frames)
}

// Names returns the names visible from the innermost frame, sorted.
func (e *Environment) Names() []string {
	seen := map[string]struct{}{}
	for _, f := range e.frames {
		for name := range f {
			seen[name] = struct{}{}
		}
	}
	names := maps.Keys(seen)
	slices.Sort(names)
	return names
}

// Describe returns a printable summary of the binding for name, used by
// interactive listings.
func (e *Environment) Describe(name string) (string, bool) {
	_, b, ok := e.find(name)
	if !ok {
		return "", false
	}
	if b.fn != nil {
		return fnSignature(b.fn), true
	}
	return KindOf(b.value) + " = " + Render(b.value), true
}

func fnSignature(fn *Function) string {
	sig := "fn " + fn.Name + "("
	for i, p := range fn.Params {
		if i > 0 {
			sig += ", "
		}
		sig += p.Name + ": " + p.Type.String()
	}
	return sig + ")"
}
