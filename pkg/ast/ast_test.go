package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/minilang/pkg/ast"
)

func TestNodeKinds(t *testing.T) {
	nodes := []ast.Node{
		&ast.IntLiteral{Value: 42},
		&ast.FloatLiteral{Value: 3.14},
		&ast.BoolLiteral{Value: true},
		&ast.StringLiteral{Value: "hello"},
		&ast.Symbol{Name: "x"},
		&ast.BinaryOp{Op: ast.OpAdd},
		&ast.Call{Name: "f"},
		&ast.Program{},
	}

	expected := []string{
		"IntLiteral", "FloatLiteral", "BoolLiteral", "StringLiteral",
		"Symbol", "BinaryOp", "Call", "Program",
	}

	for i, node := range nodes {
		if got := node.Kind(); got != expected[i] {
			t.Errorf("node %d: got Kind() = %q, want %q", i, got, expected[i])
		}
	}
}

func TestParseValueKind(t *testing.T) {
	for _, name := range []string{"int", "float", "str", "bool"} {
		k, ok := ast.ParseValueKind(name)
		require.True(t, ok, name)
		assert.Equal(t, name, k.String())
	}

	_, ok := ast.ParseValueKind("list")
	assert.False(t, ok)
	assert.Equal(t, "invalid", ast.KindInvalid.String())
}

func TestNewStringLiteral(t *testing.T) {
	t.Run("strips quotes", func(t *testing.T) {
		lit, err := ast.NewStringLiteral(ast.Span{}, `"hello"`)
		require.NoError(t, err)
		assert.Equal(t, "hello", lit.Value)
	})

	t.Run("resolves escapes", func(t *testing.T) {
		lit, err := ast.NewStringLiteral(ast.Span{}, `"a\tb\n\"c\""`)
		require.NoError(t, err)
		assert.Equal(t, "a\tb\n\"c\"", lit.Value)
	})

	t.Run("empty", func(t *testing.T) {
		lit, err := ast.NewStringLiteral(ast.Span{}, `""`)
		require.NoError(t, err)
		assert.Equal(t, "", lit.Value)
	})

	t.Run("unquoted input", func(t *testing.T) {
		_, err := ast.NewStringLiteral(ast.Span{}, `abc`)
		assert.Error(t, err)
	})
}

func TestOperatorClasses(t *testing.T) {
	assert.True(t, ast.OpLe.IsComparison())
	assert.False(t, ast.OpAdd.IsComparison())
	assert.True(t, ast.OpOr.IsLogical())
	assert.False(t, ast.OpEq.IsLogical())
}
