package evaluator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/minilang/pkg/ast"
)

func TestEnvironmentDefineLookup(t *testing.T) {
	env := NewEnvironment()
	assert.Equal(t, 1, env.Depth())

	env.Define("x", NewInt(5))
	val, err := env.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, NewInt(5), val)

	env.Define("x", NewString("again"))
	val, err = env.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, NewString("again"), val)
}

func TestEnvironmentLookupUndefined(t *testing.T) {
	env := NewEnvironment()
	_, err := env.Lookup("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedName)
}

func TestEnvironmentAssignNeverCreates(t *testing.T) {
	env := NewEnvironment()
	err := env.Assign("y", NewInt(1))
	assert.ErrorIs(t, err, ErrUndefinedName)
	_, err = env.Lookup("y")
	assert.ErrorIs(t, err, ErrUndefinedName)
}

func TestEnvironmentAssignMutatesNearestFrame(t *testing.T) {
	env := NewEnvironment()
	env.Define("g", NewInt(1))
	env.Define("shadow", NewInt(1))

	_, err := env.WithFrame(map[string]Value{"shadow": NewInt(10)}, func() (Value, error) {
		require.NoError(t, env.Assign("shadow", NewInt(20)))
		require.NoError(t, env.Assign("g", NewInt(2)))

		inner, err := env.Lookup("shadow")
		require.NoError(t, err)
		assert.Equal(t, NewInt(20), inner)
		return nil, nil
	})
	require.NoError(t, err)

	outer, err := env.Lookup("shadow")
	require.NoError(t, err)
	assert.Equal(t, NewInt(1), outer, "inner frame must not leak into outer binding")

	g, err := env.Lookup("g")
	require.NoError(t, err)
	assert.Equal(t, NewInt(2), g)
}

func TestWithFramePopsOnError(t *testing.T) {
	env := NewEnvironment()
	boom := errors.New("boom")

	_, err := env.WithFrame(map[string]Value{"a": NewInt(1)}, func() (Value, error) {
		assert.Equal(t, 2, env.Depth())
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, env.Depth())

	_, err = env.Lookup("a")
	assert.ErrorIs(t, err, ErrUndefinedName)
}

func TestWithFramePopsOnPanic(t *testing.T) {
	env := NewEnvironment()
	assert.Panics(t, func() {
		_, _ = env.WithFrame(nil, func() (Value, error) {
			panic("unexpected")
		})
	})
	assert.Equal(t, 1, env.Depth())
}

func TestCallEnvironmentIsEmpty(t *testing.T) {
	env := newCallEnvironment()
	assert.Equal(t, 0, env.Depth())
	assert.Empty(t, env.Names())

	val, err := env.WithFrame(map[string]Value{"p": NewBool(true)}, func() (Value, error) {
		return env.Lookup("p")
	})
	require.NoError(t, err)
	assert.Equal(t, NewBool(true), val)
}

func TestZeroValueEnvironment(t *testing.T) {
	var env Environment
	_, err := env.Lookup("x")
	assert.ErrorIs(t, err, ErrUndefinedName)
	assert.Empty(t, env.Names())

	env.Define("x", NewInt(1))
	env.DefineFunction(&Function{Name: "f", Body: &ast.Block{}})
	assert.Equal(t, 1, env.Depth())

	val, err := env.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, NewInt(1), val)
	require.NoError(t, env.Assign("x", NewInt(2)))
	_, err = env.LookupFunction("f")
	assert.NoError(t, err)
}

func TestFunctionBindings(t *testing.T) {
	env := NewEnvironment()
	fn := &Function{
		Name:   "add",
		Params: []ast.Param{{Name: "a", Type: ast.KindInt}, {Name: "b", Type: ast.KindInt}},
		Body:   &ast.Block{},
	}
	env.DefineFunction(fn)

	got, err := env.LookupFunction("add")
	require.NoError(t, err)
	assert.Same(t, fn, got)

	_, err = env.Lookup("add")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	env.Define("v", NewInt(1))
	_, err = env.LookupFunction("v")
	assert.ErrorIs(t, err, ErrUndefinedName)

	desc, ok := env.Describe("add")
	require.True(t, ok)
	assert.Equal(t, "fn add(a: int, b: int)", desc)
}

func TestNamesSortedAndDescribed(t *testing.T) {
	env := NewEnvironment()
	env.Define("zeta", NewFloat(2))
	env.Define("alpha", NewString("a"))
	assert.Equal(t, []string{"alpha", "zeta"}, env.Names())

	desc, ok := env.Describe("zeta")
	require.True(t, ok)
	assert.Equal(t, "float = 2.0", desc)

	_, ok = env.Describe("nope")
	assert.False(t, ok)
}
