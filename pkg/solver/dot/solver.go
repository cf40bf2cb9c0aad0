// Package dot implements [solver.Solver] with Graphviz's dot layered layout
// engine, run in-process through go-graphviz.
//
// The graph is written as DOT source ([ToDOT]), laid out and rendered back
// to DOT with positions, then re-parsed to read node centres, cluster
// bounding boxes and orthogonal edge routes. Graphviz does not honour
// per-column ports under orthogonal routing, so each route is re-anchored on
// the declared source and target ports and re-orthogonalized.
//
// dot has no per-cluster spacing; compound nodes use the root spacing and
// their padding only as cluster margin and label space.
package dot

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/solver"
)

// Solver lays graphs out with Graphviz. The zero value is ready to use.
type Solver struct {
	Logger *log.Logger
}

// New creates a Solver. A nil logger discards output.
func New(logger *log.Logger) *Solver {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Solver{Logger: logger}
}

var _ solver.Solver = (*Solver)(nil)

// Layout runs dot on g and returns a positioned copy. Any Graphviz failure
// is returned as a LAYOUT_FAILED error.
func (s *Solver) Layout(ctx context.Context, g *solver.Graph) (*solver.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "layout cancelled")
	}
	start := time.Now()

	src := ToDOT(g)
	out, err := run(ctx, src)
	if err != nil {
		return nil, err
	}

	in, err := graphviz.ParseBytes(out)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "parse graphviz output")
	}
	defer in.Close()

	res, err := Place(g, &cgraphAttrs{g: in})
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Debug("graphviz layout",
			"nodes", g.NodeCount(),
			"edges", len(g.Edges),
			"width", res.Width,
			"height", res.Height,
			"duration", time.Since(start))
	}
	return res, nil
}

// run lays out DOT source and returns the positioned DOT output.
func run(ctx context.Context, src string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "graphviz layout")
	}
	return buf.Bytes(), nil
}

// =============================================================================
// Reading positions
// =============================================================================

// Attrs reads layout attributes from a positioned Graphviz graph.
type Attrs interface {
	// GraphBB returns the root "bb" attribute.
	GraphBB() string
	// ClusterBB returns the "bb" attribute of the named cluster.
	ClusterBB(name string) (string, error)
	// NodePos returns the "pos" attribute of the node with the given DOT
	// name (see [NodeNames]).
	NodePos(name string) (string, error)
	// EdgePos returns the "pos" attribute of every edge keyed by its id.
	EdgePos() (map[string]string, error)
}

// Place copies g and fills in positions, sizes and edge routes from a. The
// root padding of g is added around the Graphviz bounding box.
func Place(g *solver.Graph, a Attrs) (*solver.Graph, error) {
	ll, ur, err := parseBB(a.GraphBB())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "graph bounds")
	}
	pad := g.Options.Padding
	f := frame{llx: ll.X, ury: ur.Y, offX: pad.Left, offY: pad.Top}

	res := g.Clone()
	res.Width = ur.X - ll.X + pad.Left + pad.Right
	res.Height = ur.Y - ll.Y + pad.Top + pad.Bottom

	if err := placeNodes(res.Children, NodeNames(g), "", geom.Point{}, f, a); err != nil {
		return nil, err
	}

	ports := make(map[string]solver.Port)
	res.Walk(func(n *solver.Node, _ *solver.Node, origin geom.Point) {
		for _, p := range n.Ports {
			p.X, p.Y = origin.X+p.X, origin.Y+p.Y
			ports[p.ID] = p
		}
	})

	routes, err := a.EdgePos()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "edge routes")
	}
	first := geom.Horizontal
	if !g.Options.Direction.Horizontal() {
		first = geom.Vertical
	}
	for i, e := range res.Edges {
		corners, err := parseSpline(routes[edgeID(i)])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "edge %s", e.ID)
		}
		for j := range corners {
			corners[j] = f.point(corners[j])
		}
		e.Sections = []solver.Section{anchor(ports[e.SourcePort], ports[e.TargetPort], corners, first)}
	}
	return res, nil
}

// placeNodes positions nodes relative to parent, which is the absolute
// origin of their container.
func placeNodes(nodes []*solver.Node, names map[string]string, path string, parent geom.Point, f frame, a Attrs) error {
	for i, n := range nodes {
		var abs geom.Point
		if n.Compound() {
			name := ClusterName(path, i)
			bb, err := a.ClusterBB(name)
			if err != nil {
				return errors.Wrap(errors.ErrCodeLayoutFailed, err, "cluster %s", n.ID)
			}
			ll, ur, err := parseBB(bb)
			if err != nil {
				return errors.Wrap(errors.ErrCodeLayoutFailed, err, "cluster %s", n.ID)
			}
			r := f.rect(ll, ur)
			abs = r.Min()
			n.Width, n.Height = r.Width, r.Height
			if err := placeNodes(n.Children, names, name, abs, f, a); err != nil {
				return err
			}
		} else {
			pos, err := a.NodePos(names[n.ID])
			if err != nil {
				return errors.Wrap(errors.ErrCodeLayoutFailed, err, "node %s", n.ID)
			}
			c, err := parsePoint(pos)
			if err != nil {
				return errors.Wrap(errors.ErrCodeLayoutFailed, err, "node %s", n.ID)
			}
			c = f.point(c)
			abs = geom.Pt(c.X-n.Width/2, c.Y-n.Height/2)
		}
		n.X, n.Y = abs.X-parent.X, abs.Y-parent.Y
	}
	return nil
}

// anchor builds the final route: leave the source port with a short stub
// perpendicular to its side, pass through the interior corners Graphviz
// chose, and arrive on the target port the same way. Elbows are inserted
// wherever re-anchoring broke orthogonality. Without interior corners the
// route is a dog-leg through the midpoint.
func anchor(from, to solver.Port, corners []geom.Point, first geom.Axis) solver.Section {
	start, end := geom.Pt(from.X, from.Y), geom.Pt(to.X, to.Y)
	s1, e1 := start.Add(stub(from.Side)), end.Add(stub(to.Side))

	pts := []geom.Point{start, s1}
	if len(corners) > 2 {
		pts = append(pts, corners[1:len(corners)-1]...)
	} else if first == geom.Horizontal {
		mx := (s1.X + e1.X) / 2
		pts = append(pts, geom.Pt(mx, s1.Y), geom.Pt(mx, e1.Y))
	} else {
		my := (s1.Y + e1.Y) / 2
		pts = append(pts, geom.Pt(s1.X, my), geom.Pt(e1.X, my))
	}
	pts = append(pts, e1, end)
	pts = geom.Simplify(geom.Orthogonalize(pts, first))

	sec := solver.Section{Start: pts[0], End: pts[len(pts)-1]}
	if len(pts) > 2 {
		sec.Bends = pts[1 : len(pts)-1]
	}
	return sec
}

// stubLength is how far a route runs straight out of a port.
const stubLength = 12

func stub(side solver.Side) geom.Point {
	switch side {
	case solver.East:
		return geom.Pt(stubLength, 0)
	case solver.West:
		return geom.Pt(-stubLength, 0)
	case solver.South:
		return geom.Pt(0, stubLength)
	case solver.North:
		return geom.Pt(0, -stubLength)
	}
	return geom.Point{}
}
