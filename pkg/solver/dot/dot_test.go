package dot

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/erdtower/pkg/diagram"
	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/schema"
	"github.com/matzehuels/erdtower/pkg/solver"
)

func testGraph() *solver.Graph {
	return &solver.Graph{
		Options: solver.Options{Direction: solver.Right, NodeSpacing: 72, LayerSpacing: 144, Padding: solver.Uniform(20)},
		Children: []*solver.Node{
			{ID: "A", Width: 180, Height: 92, Ports: []solver.Port{{ID: "A/0/out", Side: solver.East, X: 180, Y: 50}}},
			{
				ID:    "group:g",
				Label: "g",
				Options: &solver.Options{
					Padding: solver.Padding{Top: 40, Right: 20, Bottom: 20, Left: 20},
				},
				Children: []*solver.Node{
					{ID: "B", Width: 180, Height: 64, Ports: []solver.Port{{ID: "B/0/in", Side: solver.West, X: 0, Y: 50}}},
				},
			},
		},
		Edges: []*solver.Edge{{ID: "e0", Source: "A", SourcePort: "A/0/out", Target: "B", TargetPort: "B/0/in"}},
	}
}

func TestToDOT(t *testing.T) {
	src := ToDOT(testGraph())
	for _, want := range []string{
		"rankdir=LR;",
		"splines=ortho;",
		"nodesep=1;",
		"ranksep=2;",
		`n0 [width=2.5, height=`,
		`subgraph "cluster_1" {`,
		`label="g";`,
		"margin=20;",
		`n1 [width=2.5, height=`,
		`n0 -> n1 [id="e0"];`,
	} {
		if !strings.Contains(src, want) {
			t.Errorf("DOT missing %q:\n%s", want, src)
		}
	}
}

func TestToDOTAwkwardIdentifiers(t *testing.T) {
	g := testGraph()
	g.Children[0].ID = `public.a\b`
	g.Children[1].Label = `say "hi" \N`
	g.Children[1].Children[0].ID = `public.say "hi"`
	g.Edges[0].Source, g.Edges[0].Target = `public.a\b`, `public.say "hi"`

	src := ToDOT(g)
	for _, raw := range []string{`a\b`, `say "hi"`, `a\\b`} {
		if strings.Contains(src, raw) {
			t.Errorf("DOT contains identifier text %q:\n%s", raw, src)
		}
	}
	for _, want := range []string{`n0 -> n1 [id="e0"];`, `label="say \"hi\" \\N";`} {
		if !strings.Contains(src, want) {
			t.Errorf("DOT missing %q:\n%s", want, src)
		}
	}

	names := NodeNames(g)
	if names[`public.a\b`] != "n0" || names[`public.say "hi"`] != "n1" || len(names) != 2 {
		t.Errorf("NodeNames = %v", names)
	}

	attrs := fakeAttrs{
		bb:       "0,0,500,200",
		clusters: map[string]string{"cluster_1": "250,0,500,200"},
		nodes:    map[string]string{"n0": "90,154", "n1": "375,90"},
	}
	res, err := Place(g, attrs)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if a := res.Children[0]; a.ID != `public.a\b` || a.X != 20 || a.Y != 20 {
		t.Errorf("node %q at (%v,%v), want (20,20)", a.ID, a.X, a.Y)
	}
}

func TestRankDir(t *testing.T) {
	tests := map[solver.Direction]string{
		solver.Right: "LR",
		solver.Left:  "RL",
		solver.Down:  "TB",
		solver.Up:    "BT",
		"":           "LR",
	}
	for dir, want := range tests {
		if got := RankDir(dir); got != want {
			t.Errorf("RankDir(%q) = %s, want %s", dir, got, want)
		}
	}
}

func TestParseSpline(t *testing.T) {
	tests := []struct {
		in   string
		want []geom.Point
	}{
		{"", nil},
		{"e,10,10 0,0 5,0 5,0 10,0", []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}},
		{"0,0 0,5 0,5 0,10 5,10 5,10 10,10", []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}}},
		{"s,1,1 0,0 5,0 5,0 10,0\\\n", []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}},
	}
	for _, tt := range tests {
		got, err := parseSpline(tt.in)
		if err != nil {
			t.Errorf("parseSpline(%q): %v", tt.in, err)
			continue
		}
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("parseSpline(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := parseSpline("0,0 nope"); err == nil {
		t.Error("expected error for malformed point")
	}
}

type fakeAttrs struct {
	bb       string
	clusters map[string]string
	nodes    map[string]string
	edges    map[string]string
}

func (f fakeAttrs) GraphBB() string { return f.bb }

func (f fakeAttrs) ClusterBB(name string) (string, error) {
	if bb, ok := f.clusters[name]; ok {
		return bb, nil
	}
	return "", fmt.Errorf("no cluster %s", name)
}

func (f fakeAttrs) NodePos(name string) (string, error) {
	if pos, ok := f.nodes[name]; ok {
		return pos, nil
	}
	return "", fmt.Errorf("no node %s", name)
}

func (f fakeAttrs) EdgePos() (map[string]string, error) { return f.edges, nil }

func TestPlace(t *testing.T) {
	g := testGraph()
	attrs := fakeAttrs{
		bb:       "0,0,500,200",
		clusters: map[string]string{"cluster_1": "250,0,500,200"},
		nodes:    map[string]string{"n0": "90,154", "n1": "375,90"},
		edges:    map[string]string{"e0": "180,154 215,154 215,154 250,154 250,120 250,120 250,100"},
	}

	res, err := Place(g, attrs)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if res.Width != 540 || res.Height != 240 {
		t.Errorf("size = %vx%v, want 540x240", res.Width, res.Height)
	}

	a, grp := res.Children[0], res.Children[1]
	if a.X != 20 || a.Y != 20 {
		t.Errorf("A at (%v,%v), want (20,20)", a.X, a.Y)
	}
	if grp.X != 270 || grp.Y != 20 || grp.Width != 250 || grp.Height != 200 {
		t.Errorf("group = (%v,%v %vx%v)", grp.X, grp.Y, grp.Width, grp.Height)
	}
	b := grp.Children[0]
	if b.X != 35 || b.Y != 78 {
		t.Errorf("B relative to group at (%v,%v), want (35,78)", b.X, b.Y)
	}

	pts := res.Edges[0].Points()
	if !geom.IsOrthogonal(pts) {
		t.Fatalf("route not orthogonal: %v", pts)
	}
	if pts[0] != geom.Pt(200, 70) {
		t.Errorf("route starts at %v, want source port (200,70)", pts[0])
	}
	if last := pts[len(pts)-1]; last != geom.Pt(305, 148) {
		t.Errorf("route ends at %v, want target port (305,148)", last)
	}

	if g.Children[0].X != 0 || g.Edges[0].Sections != nil {
		t.Error("Place modified its input")
	}
}

func TestPlaceMissingRoute(t *testing.T) {
	attrs := fakeAttrs{
		bb:       "0,0,500,200",
		clusters: map[string]string{"cluster_1": "250,0,500,200"},
		nodes:    map[string]string{"n0": "90,154", "n1": "375,90"},
	}
	res, err := Place(testGraph(), attrs)
	if err != nil {
		t.Fatal(err)
	}
	if pts := res.Edges[0].Points(); !geom.IsOrthogonal(pts) {
		t.Errorf("dog-leg route not orthogonal: %v", pts)
	}
}

func TestPlaceErrors(t *testing.T) {
	tests := []struct {
		name  string
		attrs fakeAttrs
	}{
		{"bad bounds", fakeAttrs{bb: "nope"}},
		{"missing cluster", fakeAttrs{bb: "0,0,1,1", nodes: map[string]string{"n0": "0,0"}}},
		{"bad node pos", fakeAttrs{bb: "0,0,1,1", nodes: map[string]string{"n0": "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Place(testGraph(), tt.attrs); !errors.Is(err, errors.ErrCodeLayoutFailed) {
				t.Errorf("Place error = %v, want LAYOUT_FAILED", err)
			}
		})
	}
}

func TestSolverEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("runs graphviz")
	}
	s := &schema.Schema{
		Tables: []schema.Table{
			{Name: "users", Columns: []schema.Column{{Name: "id", Type: "int", PrimaryKey: true}}},
			{Name: "orders", Columns: []schema.Column{{Name: "id", Type: "int"}, {Name: "user_id", Type: "int"}}},
		},
		References: []schema.Reference{{
			From: schema.Endpoint{Table: "orders", Columns: []string{"user_id"}, Cardinality: schema.Many},
			To:   schema.Endpoint{Table: "users", Columns: []string{"id"}, Cardinality: schema.One},
		}},
	}

	l, err := diagram.Compute(context.Background(), New(nil), s, solver.Right)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(l.Nodes) != 2 || len(l.Edges) != 1 {
		t.Fatalf("nodes=%d edges=%d", len(l.Nodes), len(l.Edges))
	}
	if pts := l.Edges[0].Points; !geom.IsOrthogonal(pts) {
		t.Errorf("route not orthogonal: %v", pts)
	}
	for _, n := range l.Nodes {
		if n.X < 0 || n.Y < 0 || n.X+n.Width > l.Width+1 || n.Y+n.Height > l.Height+1 {
			t.Errorf("node %s at (%v,%v) outside %vx%v canvas", n.ID, n.X, n.Y, l.Width, l.Height)
		}
	}
}

func TestSolverAwkwardTableNames(t *testing.T) {
	if testing.Short() {
		t.Skip("runs graphviz")
	}
	names := []string{`a\b`, `say "hi"`, "café", "x y", "日本"}
	s := &schema.Schema{}
	for i, name := range names {
		s.Tables = append(s.Tables, schema.Table{Name: name, Columns: []schema.Column{{Name: "id", Type: "int"}}})
		if i > 0 {
			s.References = append(s.References, schema.Reference{
				From: schema.Endpoint{Table: name, Columns: []string{"id"}},
				To:   schema.Endpoint{Table: names[i-1], Columns: []string{"id"}},
			})
		}
	}

	l, err := diagram.Compute(context.Background(), New(nil), s, solver.Right)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(l.Nodes) != len(names) || len(l.Edges) != len(names)-1 {
		t.Fatalf("nodes=%d edges=%d", len(l.Nodes), len(l.Edges))
	}
	for _, name := range names {
		if _, ok := l.Node(schema.TableID("", name)); !ok {
			t.Errorf("table %q missing from layout", name)
		}
	}
}

func TestSolverCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(nil).Layout(ctx, testGraph()); !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("Layout error = %v, want TIMEOUT", err)
	}
}
