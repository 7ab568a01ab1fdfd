package compat

import (
	"io"

	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

type dotNode struct {
	id    int64
	name  string
	attrs []encoding.Attribute
}

func (n dotNode) ID() int64                        { return n.id }
func (n dotNode) DOTID() string                    { return n.name }
func (n dotNode) Attributes() []encoding.Attribute { return n.attrs }

// WriteDOT writes g in Graphviz format. Seeds are drawn as boxes and the
// target as a double circle.
func WriteDOT(w io.Writer, g *Graph, seeds []string, target string) error {
	isSeed := map[string]bool{}
	for _, s := range seeds {
		isSeed[s] = true
	}
	ug := simple.NewUndirectedGraph()
	nodes := make([]dotNode, g.Len())
	for i := range nodes {
		n := dotNode{id: int64(i), name: g.Name(i)}
		switch {
		case n.name == target:
			n.attrs = []encoding.Attribute{{Key: "shape", Value: "doublecircle"}}
		case isSeed[n.name]:
			n.attrs = []encoding.Attribute{{Key: "shape", Value: "box"}}
		}
		nodes[i] = n
		ug.AddNode(n)
	}
	for i := range nodes {
		for _, j := range g.Neighbors(i) {
			if j > i {
				ug.SetEdge(simple.Edge{F: nodes[i], T: nodes[j]})
			}
		}
	}
	out, err := dot.Marshal(ug, "breeding", "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(out, '\n'))
	return err
}
