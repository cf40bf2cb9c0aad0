// Package solver defines the hierarchical graph handed to an automatic layout
// solver and the positioned graph it hands back.
//
// The model follows the shape used by layered layout engines: a root graph
// with child nodes that may themselves hold children (compound nodes), ports
// on node boundaries, and edges whose routes come back as sections of start,
// bend and end points. Child coordinates are relative to their parent's
// top-left corner.
//
// Implementations must return edges in the order they were submitted; callers
// associate result edges with their own records by index.
package solver

import (
	"context"
	"strings"

	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/geom"
)

// Solver computes positions and edge routes for a graph. Layout returns a
// positioned copy and leaves its input untouched.
type Solver interface {
	Layout(ctx context.Context, g *Graph) (*Graph, error)
}

// Func adapts a plain function to the Solver interface.
type Func func(ctx context.Context, g *Graph) (*Graph, error)

// Layout calls f(ctx, g).
func (f Func) Layout(ctx context.Context, g *Graph) (*Graph, error) { return f(ctx, g) }

// =============================================================================
// Direction
// =============================================================================

// Direction is the predominant flow of the layout.
type Direction string

const (
	Right Direction = "RIGHT"
	Left  Direction = "LEFT"
	Down  Direction = "DOWN"
	Up    Direction = "UP"
)

// DefaultDirection is used when none is given.
const DefaultDirection = Right

// Directions lists every supported direction.
var Directions = []Direction{Right, Left, Down, Up}

// ParseDirection accepts a direction name or its Graphviz-style alias, in any
// case: right/lr, left/rl, down/tb, up/bt. An empty string yields
// DefaultDirection.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultDirection, nil
	case "right", "lr":
		return Right, nil
	case "left", "rl":
		return Left, nil
	case "down", "tb":
		return Down, nil
	case "up", "bt":
		return Up, nil
	}
	return "", errors.New(errors.ErrCodeInvalidDirection, "unknown direction %q (want right, left, down or up)", s)
}

// Horizontal reports whether layers advance along the x axis.
func (d Direction) Horizontal() bool { return d == Right || d == Left || d == "" }

// Next cycles through Directions.
func (d Direction) Next() Direction {
	for i, dir := range Directions {
		if dir == d {
			return Directions[(i+1)%len(Directions)]
		}
	}
	return DefaultDirection
}

// Side is the node boundary a port sits on.
type Side string

const (
	North Side = "NORTH"
	East  Side = "EAST"
	South Side = "SOUTH"
	West  Side = "WEST"
)

// OutSide returns the side edges leave from when flowing in d.
func (d Direction) OutSide() Side {
	switch d {
	case Left:
		return West
	case Down:
		return South
	case Up:
		return North
	}
	return East
}

// InSide returns the side edges arrive on when flowing in d.
func (d Direction) InSide() Side {
	switch d {
	case Left:
		return East
	case Down:
		return North
	case Up:
		return South
	}
	return West
}

// =============================================================================
// Graph
// =============================================================================

// Padding reserves space inside a compound node or around the root.
type Padding struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Uniform returns a padding with all sides set to v.
func Uniform(v float64) Padding { return Padding{v, v, v, v} }

// Options are the layout parameters for one level of the hierarchy.
type Options struct {
	Direction Direction `json:"direction"`
	// NodeSpacing separates nodes within a layer.
	NodeSpacing float64 `json:"node_spacing"`
	// LayerSpacing separates consecutive layers.
	LayerSpacing float64 `json:"layer_spacing"`
	Padding      Padding `json:"padding"`
}

// Port is an attachment point on a node boundary. X and Y are relative to
// the node's top-left corner.
type Port struct {
	ID   string  `json:"id"`
	Side Side    `json:"side"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Node is a leaf box or, when it has children, a compound container.
type Node struct {
	ID       string   `json:"id"`
	Label    string   `json:"label,omitempty"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Ports    []Port   `json:"ports,omitempty"`
	Children []*Node  `json:"children,omitempty"`
	Options  *Options `json:"options,omitempty"`
}

// Compound reports whether n holds child nodes.
func (n *Node) Compound() bool { return len(n.Children) > 0 }

// Port returns the port with the given ID.
func (n *Node) Port(id string) (Port, bool) {
	for _, p := range n.Ports {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// Section is one routed piece of an edge, in root coordinates.
type Section struct {
	Start geom.Point   `json:"start"`
	Bends []geom.Point `json:"bends,omitempty"`
	End   geom.Point   `json:"end"`
}

// Edge connects two ports. Source and Target name leaf nodes.
type Edge struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	SourcePort string    `json:"source_port"`
	Target     string    `json:"target"`
	TargetPort string    `json:"target_port"`
	Sections   []Section `json:"sections,omitempty"`
}

// Points concatenates the edge's sections into one polyline.
func (e *Edge) Points() []geom.Point {
	var pts []geom.Point
	for _, s := range e.Sections {
		pts = append(pts, s.Start)
		pts = append(pts, s.Bends...)
		pts = append(pts, s.End)
	}
	return pts
}

// Graph is the root of a layout problem. Width and Height are filled in by
// the solver.
type Graph struct {
	Options  Options `json:"options"`
	Children []*Node `json:"children"`
	Edges    []*Edge `json:"edges"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
}

// Walk visits every node depth-first with its absolute origin.
func (g *Graph) Walk(fn func(n *Node, parent *Node, origin geom.Point)) {
	var visit func(nodes []*Node, parent *Node, base geom.Point)
	visit = func(nodes []*Node, parent *Node, base geom.Point) {
		for _, n := range nodes {
			origin := base.Add(geom.Pt(n.X, n.Y))
			fn(n, parent, origin)
			visit(n.Children, n, origin)
		}
	}
	visit(g.Children, nil, geom.Point{})
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	out := &Graph{Options: g.Options, Width: g.Width, Height: g.Height}
	out.Children = cloneNodes(g.Children)
	out.Edges = make([]*Edge, len(g.Edges))
	for i, e := range g.Edges {
		c := *e
		c.Sections = make([]Section, len(e.Sections))
		for j, s := range e.Sections {
			s.Bends = geom.Clone(s.Bends)
			c.Sections[j] = s
		}
		out.Edges[i] = &c
	}
	return out
}

func cloneNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		c := *n
		c.Ports = append([]Port(nil), n.Ports...)
		c.Children = cloneNodes(n.Children)
		if n.Options != nil {
			opts := *n.Options
			c.Options = &opts
		}
		out[i] = &c
	}
	return out
}

// NodeCount returns the number of leaf nodes.
func (g *Graph) NodeCount() int {
	count := 0
	g.Walk(func(n *Node, _ *Node, _ geom.Point) {
		if !n.Compound() {
			count++
		}
	})
	return count
}
