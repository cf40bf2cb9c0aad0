package drag

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/matzehuels/erdtower/pkg/diagram"
	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/solver"
)

func pts(xy ...float64) []geom.Point {
	out := make([]geom.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, geom.Pt(xy[i], xy[i+1]))
	}
	return out
}

// fixture is A -> B with a Z-shaped route, a self-reference on A and an
// edge B -> C that only touches undragged tables.
func fixture() *diagram.Layout {
	return &diagram.Layout{
		Direction: solver.Right,
		Width:     1000,
		Height:    400,
		Nodes: []diagram.Node{
			{ID: "A", X: 0, Y: 0, Width: 180, Height: 92},
			{ID: "B", X: 480, Y: 0, Width: 180, Height: 64},
			{ID: "C", X: 800, Y: 0, Width: 180, Height: 64},
		},
		Edges: []diagram.Edge{
			{ID: "ab", Ref: 0, Source: "A", Target: "B", Points: pts(180, 78, 330, 78, 330, 50, 480, 50)},
			{ID: "aa", Ref: 1, Source: "A", Target: "A", Points: pts(180, 50, 200, 50, 200, -20, -20, -20, -20, 50, 0, 50)},
			{ID: "bc", Ref: 2, Source: "B", Target: "C", Points: pts(660, 50, 800, 50)},
		},
		Groups: []diagram.Group{{Name: "g", X: -40, Y: -40, Width: 740, Height: 200}},
	}
}

func TestAdjustPolyline(t *testing.T) {
	tests := []struct {
		name   string
		base   []geom.Point
		ds, dt geom.Point
		want   []geom.Point
	}{
		{
			name: "source slides along first segment",
			base: pts(180, 78, 330, 78, 330, 50, 480, 50),
			ds:   geom.Pt(50, 0),
			want: pts(230, 78, 330, 78, 330, 50, 480, 50),
		},
		{
			name: "source moves down",
			base: pts(180, 78, 330, 78, 330, 50, 480, 50),
			ds:   geom.Pt(0, 30),
			want: pts(180, 108, 330, 108, 330, 50, 480, 50),
		},
		{
			name: "target moves down",
			base: pts(180, 78, 330, 78, 330, 50, 480, 50),
			dt:   geom.Pt(0, 30),
			want: pts(180, 78, 330, 78, 330, 80, 480, 80),
		},
		{
			name: "both ends move",
			base: pts(180, 78, 330, 78, 330, 50, 480, 50),
			ds:   geom.Pt(10, 10),
			dt:   geom.Pt(-20, 5),
			want: pts(190, 88, 330, 88, 330, 55, 460, 55),
		},
		{
			name: "straight horizontal gets a midpoint bend",
			base: pts(0, 0, 100, 0),
			ds:   geom.Pt(0, 20),
			want: pts(0, 20, 50, 20, 50, 0, 100, 0),
		},
		{
			name: "straight vertical gets a midpoint bend",
			base: pts(0, 0, 0, 100),
			ds:   geom.Pt(30, 0),
			want: pts(30, 0, 30, 50, 0, 50, 0, 100),
		},
		{
			name: "move along a straight route keeps it straight",
			base: pts(0, 0, 100, 0),
			ds:   geom.Pt(50, 0),
			want: pts(50, 0, 100, 0),
		},
		{
			name: "equal displacement translates",
			base: pts(0, 0, 40, 0, 40, 40),
			ds:   geom.Pt(5, 7),
			dt:   geom.Pt(5, 7),
			want: pts(5, 7, 45, 7, 45, 47),
		},
		{
			name: "L shape",
			base: pts(0, 0, 100, 0, 100, 100),
			dt:   geom.Pt(10, 10),
			want: pts(0, 0, 110, 0, 110, 110),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := geom.Clone(tt.base)
			got := AdjustPolyline(tt.base, tt.ds, tt.dt)
			if !slices.Equal(got, tt.want) {
				t.Errorf("AdjustPolyline = %v, want %v", got, tt.want)
			}
			if !geom.IsOrthogonal(got) {
				t.Errorf("result not orthogonal: %v", got)
			}
			if !slices.Equal(tt.base, base) {
				t.Error("base polyline was modified")
			}
		})
	}
}

func TestAdjustPolylineZeroIsIdentity(t *testing.T) {
	base := pts(180, 78, 330, 78, 330, 78, 330, 50, 480, 50)
	got := AdjustPolyline(base, geom.Point{}, geom.Point{})
	if !slices.Equal(got, base) {
		t.Errorf("zero displacement changed the route: %v", got)
	}
	if len(base) > 0 && &got[0] == &base[0] {
		t.Error("result aliases the base slice")
	}
}

func TestAdjustPolylineZeroLength(t *testing.T) {
	got := AdjustPolyline(pts(10, 10, 10, 10), geom.Pt(0, 15), geom.Point{})
	if !geom.IsOrthogonal(got) {
		t.Fatalf("result not orthogonal: %v", got)
	}
	if got[0] != geom.Pt(10, 25) || got[len(got)-1] != geom.Pt(10, 10) {
		t.Errorf("endpoints = %v, %v", got[0], got[len(got)-1])
	}
}

func TestAdjustPolylineStaysOrthogonal(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	step := func() float64 {
		v := float64(rng.Intn(200) + 1)
		if rng.Intn(2) == 0 {
			return -v
		}
		return v
	}
	delta := func() geom.Point {
		return geom.Pt(float64(rng.Intn(301)-150), float64(rng.Intn(301)-150))
	}

	for i := range 500 {
		segs := rng.Intn(6) + 1
		p := geom.Pt(float64(rng.Intn(500)), float64(rng.Intn(500)))
		base := []geom.Point{p}
		axis := geom.Axis(rng.Intn(2))
		for range segs {
			if axis == geom.Horizontal {
				p = geom.Pt(p.X+step(), p.Y)
			} else {
				p = geom.Pt(p.X, p.Y+step())
			}
			base = append(base, p)
			axis = axis.Other()
		}

		ds, dt := delta(), delta()
		if i%5 == 0 {
			dt = geom.Point{}
		}
		got := AdjustPolyline(base, ds, dt)
		if !geom.IsOrthogonal(got) {
			t.Fatalf("case %d: %v with ds=%v dt=%v gave %v", i, base, ds, dt, got)
		}
		if got[0] != base[0].Add(ds) {
			t.Fatalf("case %d: first point %v, want %v", i, got[0], base[0].Add(ds))
		}
		if last := got[len(got)-1]; last != base[len(base)-1].Add(dt) {
			t.Fatalf("case %d: last point %v, want %v", i, last, base[len(base)-1].Add(dt))
		}
	}
}

func TestApply(t *testing.T) {
	base := fixture()
	m := Map{}
	m.Set("A", geom.Pt(50, 0))

	view := Apply(base, m)

	a, _ := view.Node("A")
	if a.X != 50 || a.Y != 0 {
		t.Errorf("A at (%v,%v), want (50,0)", a.X, a.Y)
	}
	b, _ := view.Node("B")
	if b.X != 480 || b.Y != 0 {
		t.Errorf("B moved to (%v,%v)", b.X, b.Y)
	}

	ab := view.Edges[0].Points
	if ab[0] != base.Edges[0].Points[0].Add(geom.Pt(50, 0)) {
		t.Errorf("first point = %v, want shifted by (50,0)", ab[0])
	}
	if ab[len(ab)-1] != geom.Pt(480, 50) {
		t.Errorf("last point = %v, want unchanged", ab[len(ab)-1])
	}

	if want := geom.Translate(base.Edges[1].Points, geom.Pt(50, 0)); !slices.Equal(view.Edges[1].Points, want) {
		t.Errorf("self-reference = %v, want translated %v", view.Edges[1].Points, want)
	}
	if !slices.Equal(view.Edges[2].Points, base.Edges[2].Points) {
		t.Error("edge between undragged tables changed")
	}
	if view.Groups[0] != base.Groups[0] {
		t.Error("group box moved")
	}

	if n, _ := base.Node("A"); n.X != 0 {
		t.Error("Apply modified the base layout")
	}
	if base.Edges[0].Points[0] != geom.Pt(180, 78) {
		t.Error("Apply modified a base polyline")
	}
}

func TestApplyGrowsCanvas(t *testing.T) {
	m := Map{"C": geom.Pt(500, 600)}
	view := Apply(fixture(), m)
	if view.Width < 800+500+180 || view.Height < 600+64 {
		t.Errorf("canvas = %vx%v, want it to contain the moved table", view.Width, view.Height)
	}
}

func TestMap(t *testing.T) {
	m := Map{}
	m.Set("a", geom.Pt(1, 2))
	m.Add("a", geom.Pt(-1, -2))
	if len(m) != 0 {
		t.Errorf("zero displacement should not be stored: %v", m)
	}
	m.Add("b", geom.Pt(3, 0))
	m.Add("a", geom.Pt(0, 1))
	if got := m.IDs(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("IDs = %v", got)
	}
	c := m.Clone()
	c.Clear("a")
	if m.Get("a") != geom.Pt(0, 1) {
		t.Error("Clone shares storage")
	}
	if got := Map(nil).Clone(); got == nil || len(got) != 0 {
		t.Errorf("nil clone = %v", got)
	}
}

func TestEngineGesture(t *testing.T) {
	e := NewEngine(fixture())

	if err := e.Start("missing"); !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("Start(missing) = %v, want NODE_NOT_FOUND", err)
	}
	if err := e.Move(geom.Pt(1, 1)); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Move without Start = %v, want INVALID_INPUT", err)
	}

	if err := e.Start("A"); err != nil {
		t.Fatal(err)
	}
	_ = e.Move(geom.Pt(10, 0))
	_ = e.Move(geom.Pt(20, 5))
	id, d, ok := e.End()
	if !ok || id != "A" || d != geom.Pt(20, 5) {
		t.Errorf("End = %s %v %v, want A (20,5)", id, d, ok)
	}
	if _, _, ok := e.End(); ok {
		t.Error("second End should report no gesture")
	}

	_ = e.Start("A")
	_ = e.Move(geom.Pt(5, 0))
	e.End()
	if got := e.Displacements().Get("A"); got != geom.Pt(25, 5) {
		t.Errorf("regrab displacement = %v, want (25,5)", got)
	}

	a, _ := e.View().Node("A")
	if a.X != 25 || a.Y != 5 {
		t.Errorf("view A at (%v,%v)", a.X, a.Y)
	}
}

func TestEngineClearRestoresBase(t *testing.T) {
	base := fixture()
	e := NewEngine(base)
	_ = e.Start("A")
	_ = e.Move(geom.Pt(33, -12))
	e.End()
	_ = e.Start("B")
	_ = e.Move(geom.Pt(0, 40))
	e.End()

	e.Clear("A")
	e.Clear("B")
	view := e.View()
	for i := range base.Edges {
		if !slices.Equal(view.Edges[i].Points, base.Edges[i].Points) {
			t.Errorf("edge %s = %v, want base %v", base.Edges[i].ID, view.Edges[i].Points, base.Edges[i].Points)
		}
	}
	if !slices.Equal(view.Nodes, base.Nodes) {
		t.Error("nodes not restored")
	}
}

func TestEngineReset(t *testing.T) {
	e := NewEngine(fixture())
	_ = e.Start("A")
	_ = e.Move(geom.Pt(1, 0))
	_ = e.Start("B")
	_ = e.Move(geom.Pt(0, 1))

	next := fixture()
	next.Direction = solver.Down
	if n := e.Reset(next); n != 2 {
		t.Errorf("Reset dropped %d, want 2", n)
	}
	if len(e.Displacements()) != 0 {
		t.Error("displacements survive relayout")
	}
	if _, ok := e.Active(); ok {
		t.Error("gesture survives relayout")
	}
	if e.Base() != next {
		t.Error("base not replaced")
	}
}

func TestNewEngineWith(t *testing.T) {
	e := NewEngineWith(fixture(), Map{"A": geom.Pt(5, 5), "gone": geom.Pt(1, 1)})
	if got := e.Displacements().IDs(); !slices.Equal(got, []string{"A"}) {
		t.Errorf("restored = %v, want only A", got)
	}
}

func TestEngineResumeGesture(t *testing.T) {
	e := NewEngine(fixture())
	_ = e.Start("A")
	_ = e.Move(geom.Pt(10, 0))
	e.End()
	_ = e.Start("A")
	_ = e.Move(geom.Pt(0, 4))

	id, origin, ok := e.Gesture()
	if !ok || id != "A" || origin != geom.Pt(10, 0) {
		t.Fatalf("Gesture = %s %v %v", id, origin, ok)
	}

	restored := NewEngineWith(fixture(), e.Displacements())
	if err := restored.Resume(id, origin); err != nil {
		t.Fatal(err)
	}
	_ = restored.Move(geom.Pt(0, 8))
	if _, d, _ := restored.End(); d != geom.Pt(10, 8) {
		t.Errorf("resumed displacement = %v, want (10,8)", d)
	}
	if err := restored.Resume("missing", geom.Point{}); !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("Resume(missing) = %v", err)
	}
}
