package solver

import (
	"context"
	"slices"
	"testing"

	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/geom"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
	}{
		{"", Right},
		{"right", Right},
		{"LR", Right},
		{"Left", Left},
		{"rl", Left},
		{"down", Down},
		{"TB", Down},
		{" up ", Up},
		{"bt", Up},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if err != nil {
				t.Fatalf("ParseDirection(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDirection(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseDirection("diagonal"); !errors.Is(err, errors.ErrCodeInvalidDirection) {
		t.Errorf("ParseDirection(diagonal) error = %v", err)
	}
}

func TestDirectionSides(t *testing.T) {
	tests := []struct {
		dir        Direction
		horizontal bool
		out, in    Side
	}{
		{Right, true, East, West},
		{Left, true, West, East},
		{Down, false, South, North},
		{Up, false, North, South},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			if tt.dir.Horizontal() != tt.horizontal {
				t.Errorf("Horizontal() = %v", tt.dir.Horizontal())
			}
			if tt.dir.OutSide() != tt.out || tt.dir.InSide() != tt.in {
				t.Errorf("sides = %s/%s, want %s/%s", tt.dir.OutSide(), tt.dir.InSide(), tt.out, tt.in)
			}
		})
	}
}

func TestDirectionNext(t *testing.T) {
	d := Right
	var seen []Direction
	for range Directions {
		seen = append(seen, d)
		d = d.Next()
	}
	if d != Right {
		t.Errorf("Next should cycle back to RIGHT, got %s", d)
	}
	if !slices.Equal(seen, Directions) {
		t.Errorf("cycle = %v", seen)
	}
}

func TestEdgePoints(t *testing.T) {
	e := &Edge{Sections: []Section{
		{Start: geom.Pt(0, 0), Bends: []geom.Point{geom.Pt(5, 0), geom.Pt(5, 5)}, End: geom.Pt(10, 5)},
	}}
	want := []geom.Point{geom.Pt(0, 0), geom.Pt(5, 0), geom.Pt(5, 5), geom.Pt(10, 5)}
	if got := e.Points(); !slices.Equal(got, want) {
		t.Errorf("Points() = %v, want %v", got, want)
	}
}

func TestGraphWalkAndClone(t *testing.T) {
	g := &Graph{
		Children: []*Node{
			{ID: "loose", X: 1, Y: 2},
			{ID: "group", X: 100, Y: 50, Options: &Options{NodeSpacing: 30}, Children: []*Node{
				{ID: "inner", X: 10, Y: 20, Ports: []Port{{ID: "p"}}},
			}},
		},
		Edges: []*Edge{{ID: "e0", Sections: []Section{{Bends: []geom.Point{geom.Pt(1, 1)}}}}},
	}

	origins := map[string]geom.Point{}
	g.Walk(func(n *Node, _ *Node, origin geom.Point) { origins[n.ID] = origin })
	if origins["inner"] != geom.Pt(110, 70) {
		t.Errorf("inner origin = %v, want (110,70)", origins["inner"])
	}
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}

	c := g.Clone()
	c.Children[1].Children[0].X = 999
	c.Children[1].Options.NodeSpacing = 1
	c.Children[1].Children[0].Ports[0].ID = "changed"
	c.Edges[0].Sections[0].Bends[0] = geom.Pt(9, 9)
	if g.Children[1].Children[0].X != 10 || g.Children[1].Options.NodeSpacing != 30 ||
		g.Children[1].Children[0].Ports[0].ID != "p" || g.Edges[0].Sections[0].Bends[0] != geom.Pt(1, 1) {
		t.Error("Clone shares memory with the original")
	}
}

func TestFunc(t *testing.T) {
	called := false
	var s Solver = Func(func(ctx context.Context, g *Graph) (*Graph, error) {
		called = true
		return g, nil
	})
	if _, err := s.Layout(context.Background(), &Graph{}); err != nil || !called {
		t.Errorf("Func.Layout: called=%v err=%v", called, err)
	}
}
