package diagram

import (
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/solver"
)

// Node is a positioned table box. ID is the table identity.
type Node struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect returns the node's box.
func (n Node) Rect() geom.Rect { return geom.Rect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height} }

// Edge is a routed reference. Points is an orthogonal polyline from the
// source port to the target port with at least two points.
type Edge struct {
	ID     string       `json:"id"`
	Ref    int          `json:"ref"` // index into Schema.References
	Source string       `json:"source"`
	Target string       `json:"target"`
	Points []geom.Point `json:"points"`
}

// Group is the bounding box of a table group.
type Group struct {
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect returns the group's box.
func (g Group) Rect() geom.Rect { return geom.Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height} }

// Layout is a base layout: everything the solver placed, in one global
// coordinate space. It is replaced wholesale on relayout and never edited by
// dragging.
type Layout struct {
	Direction solver.Direction `json:"direction"`
	Width     float64          `json:"width"`
	Height    float64          `json:"height"`
	Nodes     []Node           `json:"nodes"`
	Edges     []Edge           `json:"edges"`
	Groups    []Group          `json:"groups,omitempty"`
}

// Node returns the node with the given table identity.
func (l *Layout) Node(id string) (Node, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Bounds returns the smallest rectangle containing every node, group and
// edge point.
func (l *Layout) Bounds() geom.Rect {
	var r geom.Rect
	for _, g := range l.Groups {
		r = r.Union(g.Rect())
	}
	for _, n := range l.Nodes {
		r = r.Union(n.Rect())
	}
	for _, e := range l.Edges {
		for _, p := range e.Points {
			r = r.Union(geom.Rect{X: p.X, Y: p.Y})
		}
	}
	return r
}

// Clone returns a deep copy of l.
func (l *Layout) Clone() *Layout {
	out := &Layout{Direction: l.Direction, Width: l.Width, Height: l.Height}
	out.Nodes = append([]Node(nil), l.Nodes...)
	out.Groups = append([]Group(nil), l.Groups...)
	out.Edges = make([]Edge, len(l.Edges))
	for i, e := range l.Edges {
		e.Points = geom.Clone(e.Points)
		out.Edges[i] = e
	}
	return out
}
