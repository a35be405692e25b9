package astgraph

import (
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/thomasrohde/minilang/pkg/ast"
)

type dotNode struct {
	id    int64
	name  string
	label string
}

func (n dotNode) ID() int64     { return n.id }
func (n dotNode) DOTID() string { return n.name }
func (n dotNode) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "label", Value: dotQuote(n.label)}}
}

type dotEdge struct {
	from, to graph.Node
	label    string
}

func (e dotEdge) From() graph.Node         { return e.from }
func (e dotEdge) To() graph.Node           { return e.to }
func (e dotEdge) ReversedEdge() graph.Edge { return dotEdge{from: e.to, to: e.from, label: e.label} }
func (e dotEdge) Attributes() []encoding.Attribute {
	if e.label == "" {
		return nil
	}
	return []encoding.Attribute{{Key: "label", Value: dotQuote(e.label)}}
}

// DOTSink collects a drawn tree into a directed graph and renders it in
// Graphviz DOT syntax.
type DOTSink struct {
	g     *simple.DirectedGraph
	nodes map[string]dotNode
}

// NewDOTSink returns an empty sink.
func NewDOTSink() *DOTSink {
	return &DOTSink{g: simple.NewDirectedGraph(), nodes: make(map[string]dotNode)}
}

func (s *DOTSink) AddNode(id, label string) {
	if _, ok := s.nodes[id]; ok {
		return
	}
	n := dotNode{id: int64(len(s.nodes)), name: id, label: label}
	s.nodes[id] = n
	s.g.AddNode(n)
}

func (s *DOTSink) AddEdge(from, to, label string) {
	f, ok := s.nodes[from]
	if !ok {
		return
	}
	t, ok := s.nodes[to]
	if !ok || f.id == t.id {
		return
	}
	s.g.SetEdge(dotEdge{from: f, to: t, label: label})
}

// Len reports the number of nodes collected so far.
func (s *DOTSink) Len() int { return len(s.nodes) }

// Marshal renders the collected graph as a DOT digraph called name.
func (s *DOTSink) Marshal(name string) ([]byte, error) {
	return dot.Marshal(s.g, name, "", "  ")
}

// DOT draws node and returns its DOT rendering.
func DOT(node ast.Node, name string) ([]byte, error) {
	sink := NewDOTSink()
	Draw(node, sink)
	return sink.Marshal(name)
}

func dotQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
