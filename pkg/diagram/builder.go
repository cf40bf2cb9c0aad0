// Package diagram turns a schema into a positioned entity-relationship
// diagram.
//
// The work happens in three steps:
//
//  1. [Build] converts a schema and a direction into a solver graph: one
//     fixed-size node per table with two ports per column, one compound node
//     per surviving group, and one root-level edge per resolvable reference.
//  2. A [solver.Solver] positions the graph.
//  3. [Extract] flattens the solver's two-level result into a [Layout] in a
//     single global coordinate space.
//
// [Layouter] runs all three once per relayout trigger and keeps the last good
// result when the solver fails.
package diagram

import (
	"fmt"
	"slices"

	"github.com/matzehuels/erdtower/pkg/schema"
	"github.com/matzehuels/erdtower/pkg/solver"
)

// Spacing defaults for the root graph and for group containers.
const (
	DefaultNodeSpacing       = 60.0
	DefaultLayerSpacing      = 100.0
	DefaultRootPadding       = 20.0
	DefaultGroupNodeSpacing  = 30.0
	DefaultGroupLayerSpacing = 60.0
	DefaultGroupPadding      = 20.0
	// DefaultGroupLabelBand is the space reserved above a group's tables for
	// its name.
	DefaultGroupLabelBand = 40.0
)

// PortKind tells the inbound port of a column from the outbound one.
type PortKind string

const (
	PortIn  PortKind = "in"
	PortOut PortKind = "out"
)

// PortID names the port of column index col on table tableID.
func PortID(tableID string, col int, kind PortKind) string {
	return fmt.Sprintf("%s/%d/%s", tableID, col, kind)
}

// GroupNodeID is the solver node ID of a group container.
func GroupNodeID(name string) string { return "group:" + name }

// =============================================================================
// Build options
// =============================================================================

type buildConfig struct {
	metrics           Metrics
	nodeSpacing       float64
	layerSpacing      float64
	rootPadding       float64
	groupNodeSpacing  float64
	groupLayerSpacing float64
	groupPadding      float64
	groupLabelBand    float64
}

func defaultBuildConfig() buildConfig {
	return buildConfig{
		metrics:           DefaultMetrics(),
		nodeSpacing:       DefaultNodeSpacing,
		layerSpacing:      DefaultLayerSpacing,
		rootPadding:       DefaultRootPadding,
		groupNodeSpacing:  DefaultGroupNodeSpacing,
		groupLayerSpacing: DefaultGroupLayerSpacing,
		groupPadding:      DefaultGroupPadding,
		groupLabelBand:    DefaultGroupLabelBand,
	}
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

// WithMetrics overrides the text and box measurements.
func WithMetrics(m Metrics) BuildOption {
	return func(c *buildConfig) { c.metrics = m }
}

// WithSpacing sets node and layer spacing of the root graph.
func WithSpacing(node, layer float64) BuildOption {
	return func(c *buildConfig) { c.nodeSpacing, c.layerSpacing = node, layer }
}

// WithGroupSpacing sets node and layer spacing inside group containers.
func WithGroupSpacing(node, layer float64) BuildOption {
	return func(c *buildConfig) { c.groupNodeSpacing, c.groupLayerSpacing = node, layer }
}

// =============================================================================
// Graph
// =============================================================================

// item is what a top-level or group-level solver node stands for.
type item interface{ isItem() }

type tableItem struct{ table *schema.Table }

type groupItem struct{ group schema.Group }

func (tableItem) isItem() {}
func (groupItem) isItem() {}

// edgeRef ties a submitted solver edge back to its reference.
type edgeRef struct {
	ref    int
	id     string
	source string
	target string
}

// Graph is a solver-ready graph plus the bookkeeping needed to read the
// solver's answer back.
type Graph struct {
	Root      *solver.Graph
	Direction solver.Direction

	items map[string]item
	edges []edgeRef
}

// EdgeCount returns the number of references that produced an edge.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// TableCount returns the number of table nodes.
func (g *Graph) TableCount() int {
	n := 0
	for _, it := range g.items {
		if _, ok := it.(tableItem); ok {
			n++
		}
	}
	return n
}

// Build converts s into a solver graph for direction dir. It never fails:
// references whose tables or first columns do not resolve are dropped, and
// an empty schema yields a graph with no children.
func Build(s *schema.Schema, dir solver.Direction, opts ...BuildOption) *Graph {
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if dir == "" {
		dir = solver.DefaultDirection
	}

	g := &Graph{
		Direction: dir,
		Root: &solver.Graph{
			Options: solver.Options{
				Direction:    dir,
				NodeSpacing:  cfg.nodeSpacing,
				LayerSpacing: cfg.layerSpacing,
				Padding:      solver.Uniform(cfg.rootPadding),
			},
		},
		items: make(map[string]item),
	}

	idx := s.Index()
	nodes := make(map[string]*solver.Node, len(s.Tables))
	for i := range s.Tables {
		t := &s.Tables[i]
		nodes[t.ID()] = tableNode(t, dir, cfg.metrics)
		g.items[t.ID()] = tableItem{table: t}
	}

	degree := make(map[string]int)
	for k, r := range s.References {
		src, dst := idx[r.From.TableID()], idx[r.To.TableID()]
		if src == nil || dst == nil {
			continue
		}
		sc, dc := anchorColumn(src, r.From.Columns), anchorColumn(dst, r.To.Columns)
		if sc < 0 || dc < 0 {
			continue
		}
		g.Root.Edges = append(g.Root.Edges, &solver.Edge{
			ID:         fmt.Sprintf("e%d", len(g.edges)),
			Source:     src.ID(),
			SourcePort: PortID(src.ID(), sc, PortOut),
			Target:     dst.ID(),
			TargetPort: PortID(dst.ID(), dc, PortIn),
		})
		g.edges = append(g.edges, edgeRef{ref: k, id: r.ID(k), source: src.ID(), target: dst.ID()})
		degree[src.ID()]++
		degree[dst.ID()]++
	}

	groups := s.ResolveGroups()
	grouped := make(map[string]bool)
	for _, grp := range groups {
		for _, m := range grp.Tables {
			grouped[m.ID()] = true
		}
	}

	var loose []*solver.Node
	for _, t := range s.Tables {
		if !grouped[t.ID()] {
			loose = append(loose, nodes[t.ID()])
		}
	}
	slices.SortStableFunc(loose, func(a, b *solver.Node) int {
		return degree[b.ID] - degree[a.ID]
	})
	g.Root.Children = append(g.Root.Children, loose...)

	for _, grp := range groups {
		container := &solver.Node{
			ID:    GroupNodeID(grp.Name),
			Label: grp.Name,
			Options: &solver.Options{
				Direction:    dir,
				NodeSpacing:  cfg.groupNodeSpacing,
				LayerSpacing: cfg.groupLayerSpacing,
				Padding: solver.Padding{
					Top:    cfg.groupLabelBand,
					Right:  cfg.groupPadding,
					Bottom: cfg.groupPadding,
					Left:   cfg.groupPadding,
				},
			},
		}
		for _, m := range grp.Tables {
			container.Children = append(container.Children, nodes[m.ID()])
		}
		g.Root.Children = append(g.Root.Children, container)
		g.items[container.ID] = groupItem{group: grp}
	}

	return g
}

// anchorColumn picks the column an edge attaches to: the first listed
// column, or the table's first column when the endpoint lists none or names
// a column the table does not have. It is -1 only for a table without
// columns.
func anchorColumn(t *schema.Table, cols []string) int {
	if len(t.Columns) == 0 {
		return -1
	}
	if len(cols) > 0 {
		if i := t.Column(cols[0]); i >= 0 {
			return i
		}
	}
	return 0
}

// tableNode sizes a table and places its ports.
func tableNode(t *schema.Table, dir solver.Direction, m Metrics) *solver.Node {
	w, h := m.Size(t)
	header := m.Header(t, w)
	n := &solver.Node{ID: t.ID(), Label: HeaderText(t), Width: w, Height: h}

	out, in := dir.OutSide(), dir.InSide()
	count := len(t.Columns)
	for i := range t.Columns {
		n.Ports = append(n.Ports,
			portOn(out, i, count, w, h, header, m.RowHeight, PortID(t.ID(), i, PortOut)),
			portOn(in, i, count, w, h, header, m.RowHeight, PortID(t.ID(), i, PortIn)),
		)
	}
	return n
}

// portOn places column i's port on the given side. Ports on the left and
// right edges sit at the row's vertical midpoint; ports on the top and bottom
// edges are spread evenly by column index.
func portOn(side solver.Side, i, count int, w, h, header, rowHeight float64, id string) solver.Port {
	p := solver.Port{ID: id, Side: side}
	switch side {
	case solver.East, solver.West:
		p.Y = header + float64(i)*rowHeight + rowHeight/2
		if side == solver.East {
			p.X = w
		}
	case solver.North, solver.South:
		p.X = float64(i+1) * w / float64(count+1)
		if side == solver.South {
			p.Y = h
		}
	}
	return p
}
