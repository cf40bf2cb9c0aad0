package drag

import (
	"github.com/matzehuels/erdtower/pkg/diagram"
)

// Apply composes base with the displacements in m and returns the layout to
// draw. Nodes are translated and the edges touching them re-bent; group
// boxes keep their base position. base is never modified.
func Apply(base *diagram.Layout, m Map) *diagram.Layout {
	out := base.Clone()
	if len(m) == 0 {
		return out
	}

	for i := range out.Nodes {
		n := &out.Nodes[i]
		d := m.Get(n.ID)
		n.X += d.X
		n.Y += d.Y
	}
	for i := range out.Edges {
		e := &out.Edges[i]
		ds, dt := m.Get(e.Source), m.Get(e.Target)
		if ds.IsZero() && dt.IsZero() {
			continue
		}
		e.Points = AdjustPolyline(base.Edges[i].Points, ds, dt)
	}

	b := out.Bounds()
	out.Width = max(out.Width, b.X+b.Width)
	out.Height = max(out.Height, b.Y+b.Height)
	return out
}
