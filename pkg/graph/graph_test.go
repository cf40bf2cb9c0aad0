package graph

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/erdtower/pkg/diagram"
	"github.com/matzehuels/erdtower/pkg/drag"
	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/solver"
)

func sampleLayout() *diagram.Layout {
	return &diagram.Layout{
		Direction: solver.Down,
		Width:     600,
		Height:    400,
		Nodes: []diagram.Node{
			{ID: "public.a", X: 20, Y: 20, Width: 180, Height: 64},
			{ID: "public.b", X: 20, Y: 200, Width: 180, Height: 92},
		},
		Edges: []diagram.Edge{{
			ID: "ref-0", Ref: 0, Source: "public.a", Target: "public.b",
			Points: []geom.Point{{X: 110, Y: 84}, {X: 110, Y: 140}, {X: 80, Y: 140}, {X: 80, Y: 200}},
		}},
		Groups: []diagram.Group{{Name: "core", X: 0, Y: 0, Width: 220, Height: 312}},
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	base := sampleLayout()
	m := drag.Map{"public.b": geom.Pt(40, -10)}

	data, err := MarshalLayout(FromDiagram(base, m))
	if err != nil {
		t.Fatalf("MarshalLayout: %v", err)
	}
	wire, err := UnmarshalLayout(data)
	if err != nil {
		t.Fatalf("UnmarshalLayout: %v", err)
	}
	if wire.Version != FormatVersion {
		t.Errorf("version = %d, want %d", wire.Version, FormatVersion)
	}

	got, gotMap, err := ToDiagram(wire)
	if err != nil {
		t.Fatalf("ToDiagram: %v", err)
	}
	if !reflect.DeepEqual(got, base) {
		t.Errorf("layout round trip:\n got %+v\nwant %+v", got, base)
	}
	if !reflect.DeepEqual(gotMap, m) {
		t.Errorf("displacements = %v, want %v", gotMap, m)
	}
}

func TestUnmarshalLayoutValidation(t *testing.T) {
	tests := []struct {
		name string
		json string
		code errors.Code
	}{
		{"not json", `{`, errors.ErrCodeInvalidFormat},
		{"unknown edge node", `{"nodes":[{"id":"a"}],"edges":[{"id":"e","source":"a","target":"b","points":[{"x":0,"y":0},{"x":1,"y":0}]}]}`, errors.ErrCodeInvalidFormat},
		{"short polyline", `{"nodes":[{"id":"a"}],"edges":[{"id":"e","source":"a","target":"a","points":[{"x":0,"y":0}]}]}`, errors.ErrCodeInvalidFormat},
		{"diagonal", `{"nodes":[{"id":"a"}],"edges":[{"id":"e","source":"a","target":"a","points":[{"x":0,"y":0},{"x":1,"y":1}]}]}`, errors.ErrCodeInvalidFormat},
		{"duplicate node", `{"nodes":[{"id":"a"},{"id":"a"}],"edges":[]}`, errors.ErrCodeInvalidFormat},
		{"unknown displacement", `{"nodes":[{"id":"a"}],"edges":[],"displacements":[{"node":"z","dx":1,"dy":0}]}`, errors.ErrCodeInvalidFormat},
		{"future version", `{"version":99,"nodes":[],"edges":[]}`, errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnmarshalLayout([]byte(tt.json)); !errors.Is(err, tt.code) {
				t.Errorf("UnmarshalLayout error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestToDiagramBadDirection(t *testing.T) {
	_, _, err := ToDiagram(Layout{Direction: "sideways"})
	if !errors.Is(err, errors.ErrCodeInvalidDirection) {
		t.Errorf("error = %v, want INVALID_DIRECTION", err)
	}
}

func TestLayoutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteLayoutFile(FromDiagram(sampleLayout(), nil), path); err != nil {
		t.Fatalf("WriteLayoutFile: %v", err)
	}
	l, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile: %v", err)
	}
	if len(l.Nodes) != 2 || len(l.Displacements) != 0 {
		t.Errorf("read back %d nodes, %d displacements", len(l.Nodes), len(l.Displacements))
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := ReadLayout(f); err != nil {
		t.Errorf("ReadLayout: %v", err)
	}

	if _, err := ReadLayoutFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestDisplacements(t *testing.T) {
	m := drag.Map{"b": geom.Pt(1, 2), "a": geom.Pt(-3, 0)}
	ds := FromDisplacements(m)
	if len(ds) != 2 || ds[0].Node != "a" || ds[1].Node != "b" {
		t.Errorf("FromDisplacements = %+v, want sorted by node", ds)
	}
	if FromDisplacements(nil) != nil {
		t.Error("empty map should produce nil")
	}

	back := ToDisplacements([]Displacement{{Node: "a", DX: 1}, {Node: "a", DX: 2}, {Node: "z"}})
	if len(back) != 1 || back.Get("a") != geom.Pt(2, 0) {
		t.Errorf("ToDisplacements = %v", back)
	}

	if _, err := UnmarshalDisplacements([]byte(`{`)); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad json error = %v", err)
	}
}
