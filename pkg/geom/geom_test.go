package geom

import (
	"slices"
	"testing"
)

func TestSegmentAxis(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want Axis
	}{
		{"horizontal", Pt(0, 0), Pt(10, 0), Horizontal},
		{"vertical", Pt(0, 0), Pt(0, 10), Vertical},
		{"mostly horizontal", Pt(0, 0), Pt(10, 2), Horizontal},
		{"mostly vertical", Pt(0, 0), Pt(-2, -10), Vertical},
		{"zero length", Pt(3, 3), Pt(3, 3), Horizontal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SegmentAxis(tt.a, tt.b); got != tt.want {
				t.Errorf("SegmentAxis = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsOrthogonal(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point
		want bool
	}{
		{"empty", nil, false},
		{"single", []Point{Pt(0, 0)}, false},
		{"straight", []Point{Pt(0, 0), Pt(10, 0)}, true},
		{"dog leg", []Point{Pt(0, 0), Pt(5, 0), Pt(5, 5), Pt(10, 5)}, true},
		{"diagonal", []Point{Pt(0, 0), Pt(5, 5)}, false},
		{"repeated point", []Point{Pt(0, 0), Pt(0, 0), Pt(0, 5)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOrthogonal(tt.pts); got != tt.want {
				t.Errorf("IsOrthogonal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		name string
		in   []Point
		want []Point
	}{
		{
			name: "keeps corners",
			in:   []Point{Pt(0, 0), Pt(5, 0), Pt(5, 5)},
			want: []Point{Pt(0, 0), Pt(5, 0), Pt(5, 5)},
		},
		{
			name: "drops collinear",
			in:   []Point{Pt(0, 0), Pt(5, 0), Pt(10, 0), Pt(10, 5)},
			want: []Point{Pt(0, 0), Pt(10, 0), Pt(10, 5)},
		},
		{
			name: "drops duplicates",
			in:   []Point{Pt(0, 0), Pt(5, 0), Pt(5, 0), Pt(10, 0)},
			want: []Point{Pt(0, 0), Pt(10, 0)},
		},
		{
			name: "collapsed polyline keeps both ends",
			in:   []Point{Pt(1, 1), Pt(1, 1), Pt(1, 1)},
			want: []Point{Pt(1, 1), Pt(1, 1)},
		},
		{
			name: "two points untouched",
			in:   []Point{Pt(0, 0), Pt(0, 0)},
			want: []Point{Pt(0, 0), Pt(0, 0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Simplify(tt.in)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Simplify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrthogonalize(t *testing.T) {
	in := []Point{Pt(0, 0), Pt(10, 10), Pt(20, 10), Pt(30, 0)}
	got := Orthogonalize(in, Horizontal)
	if !IsOrthogonal(got) {
		t.Fatalf("Orthogonalize produced diagonal: %v", got)
	}
	if got[0] != in[0] || got[len(got)-1] != in[len(in)-1] {
		t.Errorf("endpoints changed: %v", got)
	}
	if got[1] != Pt(10, 0) {
		t.Errorf("first elbow = %v, want (10,0)", got[1])
	}

	vertical := Orthogonalize([]Point{Pt(0, 0), Pt(10, 10)}, Vertical)
	if want := []Point{Pt(0, 0), Pt(0, 10), Pt(10, 10)}; !slices.Equal(vertical, want) {
		t.Errorf("Orthogonalize(vertical) = %v, want %v", vertical, want)
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 20, Y: -5, Width: 5, Height: 5}
	got := a.Union(b)
	want := Rect{X: 0, Y: -5, Width: 25, Height: 15}
	if got != want {
		t.Errorf("Union = %+v, want %+v", got, want)
	}
	if (Rect{}).Union(b) != b {
		t.Error("empty rect should union to the other rect")
	}
}
