package astgraph

import (
	"strings"

	"github.com/thomasrohde/minilang/pkg/ast"
)

type outlineChild struct {
	id, label string
}

// OutlineSink collects a drawn tree and renders it as indented text, one
// node per line, with edge labels in front of the nodes they lead to.
type OutlineSink struct {
	labels    map[string]string
	children  map[string][]outlineChild
	hasParent map[string]bool
	order     []string
}

func NewOutlineSink() *OutlineSink {
	return &OutlineSink{
		labels:    make(map[string]string),
		children:  make(map[string][]outlineChild),
		hasParent: make(map[string]bool),
	}
}

func (s *OutlineSink) AddNode(id, label string) {
	if _, ok := s.labels[id]; ok {
		return
	}
	s.labels[id] = label
	s.order = append(s.order, id)
}

func (s *OutlineSink) AddEdge(from, to, label string) {
	s.children[from] = append(s.children[from], outlineChild{id: to, label: label})
	s.hasParent[to] = true
}

// String renders every root collected so far.
func (s *OutlineSink) String() string {
	var b strings.Builder
	for _, id := range s.order {
		if !s.hasParent[id] {
			s.write(&b, id, "", 0)
		}
	}
	return b.String()
}

func (s *OutlineSink) write(b *strings.Builder, id, edge string, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if edge != "" {
		b.WriteString(edge)
		b.WriteString(" -> ")
	}
	b.WriteString(s.labels[id])
	b.WriteByte('\n')
	for _, c := range s.children[id] {
		s.write(b, c.id, c.label, depth+1)
	}
}

// Outline draws node and returns its indented text rendering.
func Outline(node ast.Node) string {
	sink := NewOutlineSink()
	Draw(node, sink)
	return sink.String()
}
