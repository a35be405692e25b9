// Package astgraph renders minilang syntax trees as graphs.
//
// Draw walks a tree and reports one node per construct, plus labeled edges to
// its children, to a Sink. It never evaluates anything.
package astgraph

import (
	"strconv"

	"github.com/thomasrohde/minilang/pkg/ast"
)

// Sink receives the nodes and edges of a drawn tree.
type Sink interface {
	AddNode(id, label string)
	AddEdge(from, to, label string)
}

type drawer struct {
	sink Sink
	next int
}

// Draw reports node and all of its descendants to sink and returns the id of
// the root. Ids are unique within one call.
func Draw(node ast.Node, sink Sink) string {
	d := &drawer{sink: sink}
	return d.draw(node)
}

func (d *drawer) add(label string) string {
	id := "n" + strconv.Itoa(d.next)
	d.next++
	d.sink.AddNode(id, label)
	return id
}

func (d *drawer) edge(from string, child ast.Node, label string) {
	d.sink.AddEdge(from, d.draw(child), label)
}

func (d *drawer) draw(node ast.Node) string {
	switch n := node.(type) {
	case *ast.Program:
		id := d.add("Program")
		d.edge(id, n.Block, "")
		return id

	case *ast.Block:
		id := d.add("Block")
		if n != nil {
			for _, stmt := range n.Statements {
				d.edge(id, stmt, "")
			}
		}
		return id

	case *ast.Statement:
		id := d.add("Statement")
		d.edge(id, n.Expr, "")
		return id

	case *ast.Define:
		id := d.add("Define: " + n.Name)
		d.edge(id, n.Value, "")
		return id

	case *ast.Assign:
		id := d.add("Assign: " + n.Name)
		d.edge(id, n.Value, "")
		return id

	case *ast.Print:
		label := "Print"
		if n.Newline {
			label = "Println"
		}
		id := d.add(label)
		d.edge(id, n.Value, "")
		return id

	case *ast.Fn:
		id := d.add("Define Fn: " + n.Name)
		args := d.add("FnArgs")
		for _, p := range n.Params {
			arg := d.add("Arg: " + p.Name)
			d.sink.AddEdge(arg, d.add("Type: "+p.Type.String()), "Type")
			d.sink.AddEdge(args, arg, "")
		}
		d.sink.AddEdge(id, args, "Args")
		d.edge(id, n.Body, "Block")
		return id

	case *ast.IntLiteral:
		return d.add("ValueInt: " + strconv.FormatInt(n.Value, 10))

	case *ast.FloatLiteral:
		return d.add("ValueFloat: " + strconv.FormatFloat(n.Value, 'g', -1, 64))

	case *ast.StringLiteral:
		return d.add("ValueStr: " + n.Value)

	case *ast.BoolLiteral:
		if n.Value {
			return d.add("ValueTrue")
		}
		return d.add("ValueFalse")

	case *ast.Symbol:
		return d.add("ValueSymbol: " + n.Name)

	case *ast.BinaryOp:
		id := d.add("BinaryOp: " + string(n.Op))
		d.edge(id, n.Left, "Left")
		d.edge(id, n.Right, "Right")
		return id

	case *ast.Minus:
		id := d.add("Unary minus")
		d.edge(id, n.Operand, "")
		return id

	case *ast.Not:
		id := d.add("Negate")
		d.edge(id, n.Operand, "")
		return id

	case *ast.Cast:
		id := d.add("Cast")
		d.sink.AddEdge(id, d.add("Type: "+n.Target.String()), "Type")
		d.edge(id, n.Value, "Value")
		return id

	case *ast.If:
		id := d.add("If")
		d.edge(id, n.Cond, "Condition")
		d.edge(id, n.Then, "Consequence")
		return id

	case *ast.IfElse:
		id := d.add("IfElse")
		d.edge(id, n.Cond, "Condition")
		d.edge(id, n.Then, "Consequence")
		d.edge(id, n.Else, "Alternative")
		return id

	case *ast.While:
		id := d.add("While")
		d.edge(id, n.Cond, "Condition")
		d.edge(id, n.Body, "Consequence")
		return id

	case *ast.For:
		id := d.add("For")
		d.edge(id, n.Init, "Begin")
		d.edge(id, n.Cond, "Condition")
		d.edge(id, n.Step, "Step")
		d.edge(id, n.Body, "Consequence")
		return id

	case *ast.Call:
		id := d.add("Call: " + n.Name)
		args := d.add("Args")
		for _, a := range n.Args {
			d.edge(args, a, "")
		}
		d.sink.AddEdge(id, args, "Args")
		return id
	}

	return d.add("Unknown")
}
