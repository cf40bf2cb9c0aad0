package diagram

import (
	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/solver"
)

// Extract flattens a positioned solver graph into a Layout. Group members
// are un-nested by adding the group's origin to their group-relative
// position. Result edges are matched to references by their index in the
// submitted edge list.
//
// Extract fails only when the result cannot belong to g: an edge count that
// differs from what was submitted.
func Extract(g *Graph, res *solver.Graph) (*Layout, error) {
	if len(res.Edges) != len(g.edges) {
		return nil, errors.New(errors.ErrCodeLayoutFailed,
			"solver returned %d edges for %d submitted", len(res.Edges), len(g.edges))
	}

	l := &Layout{Direction: g.Direction, Width: res.Width, Height: res.Height}
	for _, child := range res.Children {
		switch it := g.items[child.ID].(type) {
		case groupItem:
			origin := geom.Pt(child.X, child.Y)
			l.Groups = append(l.Groups, Group{
				Name:   it.group.Name,
				X:      child.X,
				Y:      child.Y,
				Width:  child.Width,
				Height: child.Height,
			})
			for _, member := range child.Children {
				if _, ok := g.items[member.ID].(tableItem); ok {
					l.Nodes = append(l.Nodes, placed(member, origin))
				}
			}
		case tableItem:
			l.Nodes = append(l.Nodes, placed(child, geom.Point{}))
		}
	}

	nodes := make(map[string]*solver.Node)
	res.Walk(func(n *solver.Node, _ *solver.Node, _ geom.Point) { nodes[n.ID] = n })
	ports := absolutePorts(l, nodes)

	for i, e := range res.Edges {
		ref := g.edges[i]
		pts := e.Points()
		if len(pts) < 2 {
			pts = fallbackRoute(ports[e.SourcePort], ports[e.TargetPort], g.Direction)
		}
		l.Edges = append(l.Edges, Edge{
			ID:     ref.id,
			Ref:    ref.ref,
			Source: ref.source,
			Target: ref.target,
			Points: pts,
		})
	}

	if l.Width == 0 || l.Height == 0 {
		b := l.Bounds()
		l.Width, l.Height = b.X+b.Width, b.Y+b.Height
	}
	return l, nil
}

func placed(n *solver.Node, origin geom.Point) Node {
	return Node{ID: n.ID, X: origin.X + n.X, Y: origin.Y + n.Y, Width: n.Width, Height: n.Height}
}

// absolutePorts returns every port position in global coordinates.
func absolutePorts(l *Layout, nodes map[string]*solver.Node) map[string]geom.Point {
	out := make(map[string]geom.Point)
	for _, n := range l.Nodes {
		sn := nodes[n.ID]
		if sn == nil {
			continue
		}
		for _, p := range sn.Ports {
			out[p.ID] = geom.Pt(n.X+p.X, n.Y+p.Y)
		}
	}
	return out
}

// fallbackRoute connects two ports with an orthogonal dog-leg when the
// solver returned no route for an edge.
func fallbackRoute(from, to geom.Point, dir solver.Direction) []geom.Point {
	first := geom.Horizontal
	if !dir.Horizontal() {
		first = geom.Vertical
	}
	if geom.IsAxisAligned(from, to) {
		return []geom.Point{from, to}
	}
	var mid1, mid2 geom.Point
	if first == geom.Horizontal {
		mx := (from.X + to.X) / 2
		mid1, mid2 = geom.Pt(mx, from.Y), geom.Pt(mx, to.Y)
	} else {
		my := (from.Y + to.Y) / 2
		mid1, mid2 = geom.Pt(from.X, my), geom.Pt(to.X, my)
	}
	return []geom.Point{from, mid1, mid2, to}
}
