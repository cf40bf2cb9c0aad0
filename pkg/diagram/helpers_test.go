package diagram

import (
	"context"

	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/schema"
	"github.com/matzehuels/erdtower/pkg/solver"
)

// gridSolver lays root children out in a row 300 units apart and group
// members in a row inside their group, honouring the group padding. Edges
// are routed port to port with a horizontal-vertical-horizontal dog-leg.
func gridSolver(_ context.Context, in *solver.Graph) (*solver.Graph, error) {
	g := in.Clone()
	x := g.Options.Padding.Left
	for _, n := range g.Children {
		n.X, n.Y = x, g.Options.Padding.Top
		if n.Compound() {
			pad := n.Options.Padding
			cx, h := pad.Left, 0.0
			for _, c := range n.Children {
				c.X, c.Y = cx, pad.Top
				cx += c.Width + n.Options.NodeSpacing
				h = max(h, c.Height)
			}
			n.Width = cx - n.Options.NodeSpacing + pad.Right
			n.Height = pad.Top + h + pad.Bottom
		}
		x += n.Width + 300
	}

	ports := map[string]geom.Point{}
	g.Walk(func(n *solver.Node, _ *solver.Node, origin geom.Point) {
		for _, p := range n.Ports {
			ports[p.ID] = origin.Add(geom.Pt(p.X, p.Y))
		}
	})
	for _, e := range g.Edges {
		s, t := ports[e.SourcePort], ports[e.TargetPort]
		mx := (s.X + t.X) / 2
		e.Sections = []solver.Section{{
			Start: s,
			Bends: []geom.Point{geom.Pt(mx, s.Y), geom.Pt(mx, t.Y)},
			End:   t,
		}}
	}
	g.Width, g.Height = x, 1000
	return g, nil
}

func col(name, typ string) schema.Column { return schema.Column{Name: name, Type: typ} }

// twoTables is the A.x -> B.y fixture.
func twoTables() *schema.Schema {
	return &schema.Schema{
		Tables: []schema.Table{
			{Name: "A", Columns: []schema.Column{col("id", "int"), col("x", "int")}},
			{Name: "B", Columns: []schema.Column{col("y", "int"), col("label", "text")}},
		},
		References: []schema.Reference{{
			From: schema.Endpoint{Table: "A", Columns: []string{"x"}, Cardinality: schema.Many},
			To:   schema.Endpoint{Table: "B", Columns: []string{"y"}, Cardinality: schema.One},
		}},
	}
}
