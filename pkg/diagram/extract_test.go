package diagram

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/schema"
	"github.com/matzehuels/erdtower/pkg/solver"
)

func TestComputeTwoTablesScenario(t *testing.T) {
	l, err := Compute(context.Background(), solver.Func(gridSolver), twoTables(), solver.Right)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(l.Nodes) != 2 || len(l.Edges) != 1 {
		t.Fatalf("nodes=%d edges=%d, want 2 and 1", len(l.Nodes), len(l.Edges))
	}

	a, _ := l.Node("public.A")
	b, _ := l.Node("public.B")
	e := l.Edges[0]
	if e.ID != "ref-0" || e.Ref != 0 || e.Source != "public.A" || e.Target != "public.B" {
		t.Errorf("edge = %+v", e)
	}
	if len(e.Points) < 2 || !geom.IsOrthogonal(e.Points) {
		t.Fatalf("polyline not orthogonal: %v", e.Points)
	}
	first, last := e.Points[0], e.Points[len(e.Points)-1]
	if first.X != a.X+a.Width {
		t.Errorf("polyline starts at x=%v, want A's right side %v", first.X, a.X+a.Width)
	}
	if last.X != b.X {
		t.Errorf("polyline ends at x=%v, want B's left side %v", last.X, b.X)
	}
}

func TestExtractUnnestsGroups(t *testing.T) {
	s := twoTables()
	s.Tables = append(s.Tables, schema.Table{Name: "C", Columns: []schema.Column{col("id", "int")}})
	s.Groups = []schema.Group{{Name: "core", Tables: []schema.TableRef{{Name: "A"}, {Name: "B"}}}}

	g := Build(s, solver.Right)
	res, err := gridSolver(context.Background(), g.Root)
	if err != nil {
		t.Fatal(err)
	}
	l, err := Extract(g, res)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(l.Groups) != 1 || l.Groups[0].Name != "core" {
		t.Fatalf("groups = %+v", l.Groups)
	}
	if len(l.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(l.Nodes))
	}

	var container *solver.Node
	for _, c := range res.Children {
		if c.ID == GroupNodeID("core") {
			container = c
		}
	}
	grp := l.Groups[0]
	if grp.X != container.X || grp.Y != container.Y || grp.Width != container.Width {
		t.Errorf("group box = %+v, container = %+v", grp, container)
	}
	for _, member := range container.Children {
		n, ok := l.Node(member.ID)
		if !ok {
			t.Fatalf("member %s not extracted", member.ID)
		}
		if n.X != grp.X+member.X || n.Y != grp.Y+member.Y {
			t.Errorf("%s at (%v,%v), want group origin + relative (%v,%v)",
				member.ID, n.X, n.Y, grp.X+member.X, grp.Y+member.Y)
		}
	}
}

func TestExtractEdgeOrderFollowsSubmission(t *testing.T) {
	s := twoTables()
	s.References = append(s.References, schema.Reference{
		Name: "b_to_a",
		From: schema.Endpoint{Table: "B", Columns: []string{"label"}},
		To:   schema.Endpoint{Table: "A", Columns: []string{"id"}},
	})
	l, err := Compute(context.Background(), solver.Func(gridSolver), s, solver.Right)
	if err != nil {
		t.Fatal(err)
	}
	if l.Edges[0].ID != "ref-0" || l.Edges[1].ID != "b_to_a" || l.Edges[1].Ref != 1 {
		t.Errorf("edges = %+v", l.Edges)
	}
}

func TestExtractEdgeCountMismatch(t *testing.T) {
	g := Build(twoTables(), solver.Right)
	res := g.Root.Clone()
	res.Edges = nil
	if _, err := Extract(g, res); !errors.Is(err, errors.ErrCodeLayoutFailed) {
		t.Errorf("Extract error = %v, want LAYOUT_FAILED", err)
	}
}

func TestExtractFallbackRoute(t *testing.T) {
	g := Build(twoTables(), solver.Right)
	res, _ := gridSolver(context.Background(), g.Root)
	res.Edges[0].Sections = nil

	l, err := Extract(g, res)
	if err != nil {
		t.Fatal(err)
	}
	pts := l.Edges[0].Points
	if len(pts) < 2 || !geom.IsOrthogonal(pts) {
		t.Errorf("fallback route = %v", pts)
	}
}

func TestLayouterKeepsPreviousLayoutOnError(t *testing.T) {
	fail := false
	sv := solver.Func(func(ctx context.Context, g *solver.Graph) (*solver.Graph, error) {
		if fail {
			return nil, stderrors.New("invalid graph")
		}
		return gridSolver(ctx, g)
	})
	l := NewLayouter(sv, nil)
	ctx := context.Background()

	first, err := l.Layout(ctx, twoTables(), solver.Right)
	if err != nil {
		t.Fatalf("first layout: %v", err)
	}

	fail = true
	got, err := l.Layout(ctx, twoTables(), solver.Down)
	if !errors.Is(err, errors.ErrCodeLayoutFailed) {
		t.Errorf("error = %v, want LAYOUT_FAILED", err)
	}
	if got != first || l.Current() != first {
		t.Error("failed layout must keep the previous result")
	}
	if l.Current().Direction != solver.Right {
		t.Errorf("direction = %s, want RIGHT", l.Current().Direction)
	}
}

func TestComputeEmptySchema(t *testing.T) {
	l, err := Compute(context.Background(), solver.Func(gridSolver), &schema.Schema{}, solver.Right)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(l.Nodes) != 0 || len(l.Edges) != 0 {
		t.Errorf("empty schema layout = %+v", l)
	}
}

func TestLayoutClone(t *testing.T) {
	l, _ := Compute(context.Background(), solver.Func(gridSolver), twoTables(), solver.Right)
	c := l.Clone()
	c.Nodes[0].X = -1
	c.Edges[0].Points[0] = geom.Pt(-1, -1)
	if l.Nodes[0].X == -1 || l.Edges[0].Points[0] == geom.Pt(-1, -1) {
		t.Error("Clone shares memory with the original")
	}
}
