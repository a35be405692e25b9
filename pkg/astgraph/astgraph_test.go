package astgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/minilang/pkg/astgraph"
	"github.com/thomasrohde/minilang/pkg/parser"
)

type edge struct{ from, to, label string }

type recordingSink struct {
	labels map[string]string
	edges  []edge
}

func newRecordingSink() *recordingSink {
	return &recordingSink{labels: make(map[string]string)}
}

func (r *recordingSink) AddNode(id, label string)       { r.labels[id] = label }
func (r *recordingSink) AddEdge(from, to, label string) { r.edges = append(r.edges, edge{from, to, label}) }

// edgesFrom returns "edgeLabel=childLabel" pairs leaving the node labeled parent.
func (r *recordingSink) edgesFrom(parent string) []string {
	var out []string
	for _, e := range r.edges {
		if r.labels[e.from] == parent {
			out = append(out, e.label+"="+r.labels[e.to])
		}
	}
	return out
}

func draw(t *testing.T, src string) (*recordingSink, string) {
	t.Helper()
	prog, diags := parser.Parse(src, "test.mini")
	require.Empty(t, diags)
	sink := newRecordingSink()
	root := astgraph.Draw(prog, sink)
	return sink, root
}

func TestDrawRootIsProgram(t *testing.T) {
	sink, root := draw(t, "x := 1")
	assert.Equal(t, "Program", sink.labels[root])
	assert.Equal(t, []string{"=Block"}, sink.edgesFrom("Program"))
	assert.Equal(t, []string{"=Define: x"}, sink.edgesFrom("Block"))
	assert.Equal(t, []string{"=ValueInt: 1"}, sink.edgesFrom("Define: x"))
}

func TestDrawIdsAreUnique(t *testing.T) {
	sink, _ := draw(t, "x := 1; x = x + 1; println(x)")
	// Program, Block, Define, ValueInt, Assign, BinaryOp, Symbol, ValueInt, Println, Symbol
	assert.Len(t, sink.labels, 10)
	assert.Len(t, sink.edges, 9)
}

func TestDrawLabels(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		parent string
		edges  []string
	}{
		{"binary", "1 + 2.5", "BinaryOp: +", []string{"Left=ValueInt: 1", "Right=ValueFloat: 2.5"}},
		{"if", "if true { 1 }", "If", []string{"Condition=ValueTrue", "Consequence=Block"}},
		{"ifelse", "if false { 1 } else { 2 }", "IfElse", []string{"Condition=ValueFalse", "Consequence=Block", "Alternative=Block"}},
		{"while", "while x { }", "While", []string{"Condition=ValueSymbol: x", "Consequence=Block"}},
		{"for", "for i := 0; i < 3; i = i + 1 { }", "For", []string{"Begin=Define: i", "Condition=BinaryOp: <", "Step=Assign: i", "Consequence=Block"}},
		{"cast", `cast(int, "3")`, "Cast", []string{"Type=Type: int", "Value=ValueStr: 3"}},
		{"minus", "-x", "Unary minus", []string{"=ValueSymbol: x"}},
		{"not", "not x", "Negate", []string{"=ValueSymbol: x"}},
		{"print", "print(1)", "Print", []string{"=ValueInt: 1"}},
		{"call", "f(1, y)", "Call: f", []string{"Args=Args"}},
		{"call args", "f(1, y)", "Args", []string{"=ValueInt: 1", "=ValueSymbol: y"}},
		{"fn", "fn f(a: int) { a }", "Define Fn: f", []string{"Args=FnArgs", "Block=Block"}},
		{"fn args", "fn f(a: int, b: str) { a }", "FnArgs", []string{"=Arg: a", "=Arg: b"}},
		{"fn arg type", "fn f(b: str) { b }", "Arg: b", []string{"Type=Type: str"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, _ := draw(t, tt.src)
			assert.Equal(t, tt.edges, sink.edgesFrom(tt.parent))
		})
	}
}

func TestDOTContainsLabels(t *testing.T) {
	prog, diags := parser.Parse(`fn add(a: int, b: int) { a + b }; println(add(1, 2))`, "test.mini")
	require.Empty(t, diags)

	out, err := astgraph.DOT(prog, "ast")
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "digraph ast")
	assert.Contains(t, text, "Define Fn: add")
	assert.Contains(t, text, "Call: add")
	assert.Contains(t, text, "BinaryOp: +")
	assert.Contains(t, text, "Consequence")
	assert.NotContains(t, text, "Unknown")
}

func TestDOTSinkIgnoresUnknownEndpoints(t *testing.T) {
	sink := astgraph.NewDOTSink()
	sink.AddNode("a", "A")
	sink.AddNode("a", "duplicate")
	sink.AddEdge("a", "missing", "x")
	sink.AddEdge("a", "a", "self")
	assert.Equal(t, 1, sink.Len())
	_, err := sink.Marshal("g")
	require.NoError(t, err)
}

func TestOutline(t *testing.T) {
	prog, diags := parser.Parse("x := -1", "test.mini")
	require.Empty(t, diags)
	expected := "Program\n" +
		"  Block\n" +
		"    Define: x\n" +
		"      Unary minus\n" +
		"        ValueInt: 1\n"
	assert.Equal(t, expected, astgraph.Outline(prog))
}
