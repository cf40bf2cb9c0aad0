package graph

import (
	"encoding/json"

	"github.com/matzehuels/erdtower/pkg/diagram"
	"github.com/matzehuels/erdtower/pkg/drag"
	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/solver"
)

// =============================================================================
// Conversions
// =============================================================================

// FromDiagram converts a base layout and its displacements to the wire
// format. m may be nil.
func FromDiagram(l *diagram.Layout, m drag.Map) Layout {
	out := Layout{
		Version:       FormatVersion,
		Direction:     string(l.Direction),
		Width:         l.Width,
		Height:        l.Height,
		Nodes:         make([]Node, len(l.Nodes)),
		Edges:         make([]Edge, len(l.Edges)),
		Displacements: FromDisplacements(m),
	}
	for i, n := range l.Nodes {
		out.Nodes[i] = Node{ID: n.ID, X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
	}
	for i, e := range l.Edges {
		out.Edges[i] = Edge{ID: e.ID, Ref: e.Ref, Source: e.Source, Target: e.Target, Points: geom.Clone(e.Points)}
	}
	for _, g := range l.Groups {
		out.Groups = append(out.Groups, Group{Name: g.Name, X: g.X, Y: g.Y, Width: g.Width, Height: g.Height})
	}
	return out
}

// ToDiagram converts a wire layout back to a base layout and its
// displacement map.
func ToDiagram(l Layout) (*diagram.Layout, drag.Map, error) {
	dir, err := solver.ParseDirection(l.Direction)
	if err != nil {
		return nil, nil, err
	}
	out := &diagram.Layout{
		Direction: dir,
		Width:     l.Width,
		Height:    l.Height,
		Nodes:     make([]diagram.Node, len(l.Nodes)),
		Edges:     make([]diagram.Edge, len(l.Edges)),
	}
	for i, n := range l.Nodes {
		out.Nodes[i] = diagram.Node{ID: n.ID, X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
	}
	for i, e := range l.Edges {
		out.Edges[i] = diagram.Edge{ID: e.ID, Ref: e.Ref, Source: e.Source, Target: e.Target, Points: geom.Clone(e.Points)}
	}
	for _, g := range l.Groups {
		out.Groups = append(out.Groups, diagram.Group{Name: g.Name, X: g.X, Y: g.Y, Width: g.Width, Height: g.Height})
	}
	return out, ToDisplacements(l.Displacements), nil
}

// FromDisplacements lists m sorted by node ID.
func FromDisplacements(m drag.Map) []Displacement {
	if len(m) == 0 {
		return nil
	}
	out := make([]Displacement, 0, len(m))
	for _, id := range m.IDs() {
		d := m[id]
		out = append(out, Displacement{Node: id, DX: d.X, DY: d.Y})
	}
	return out
}

// ToDisplacements builds a displacement map. Later entries for the same node
// win; zero entries are dropped.
func ToDisplacements(ds []Displacement) drag.Map {
	m := drag.Map{}
	for _, d := range ds {
		m.Set(d.Node, geom.Pt(d.DX, d.DY))
	}
	return m
}

// MarshalDisplacements serializes m as a JSON array.
func MarshalDisplacements(m drag.Map) ([]byte, error) {
	ds := FromDisplacements(m)
	if ds == nil {
		ds = []Displacement{}
	}
	return json.Marshal(ds)
}

// UnmarshalDisplacements decodes a JSON array of displacements.
func UnmarshalDisplacements(data []byte) (drag.Map, error) {
	var ds []Displacement
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unmarshal displacements")
	}
	return ToDisplacements(ds), nil
}
