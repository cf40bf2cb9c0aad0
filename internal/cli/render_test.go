package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/erdtower/pkg/drag"
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/graph"
	"github.com/matzehuels/erdtower/pkg/pipeline"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "png", []string{"png"}},
		{"multiple formats", "svg,pdf,json", []string{"svg", "pdf", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMerged(t *testing.T) {
	a := drag.Map{"public.users": geom.Pt(10, 0)}
	b := drag.Map{"public.users": geom.Pt(0, 5), "public.orders": geom.Pt(1, 1)}

	got := merged(a, b)
	if got.Get("public.users") != geom.Pt(0, 5) || got.Get("public.orders") != geom.Pt(1, 1) {
		t.Errorf("merged = %v", got)
	}
	if a.Get("public.users") != geom.Pt(10, 0) {
		t.Error("merged modified its input")
	}
	if got := merged(nil, nil); got == nil {
		t.Error("merged(nil, nil) returned nil")
	}
}

func TestRunRenderFromLayout(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeSchema(t, dir)

	layoutPath := filepath.Join(dir, "shop.layout.json")
	wire := graph.FromDiagram(computeLayout(t), drag.Map{"public.users": geom.Pt(25, 0)})
	if err := graph.WriteLayoutFile(wire, layoutPath); err != nil {
		t.Fatal(err)
	}

	c := New(os.Stderr, LogInfo)
	opts := &renderOpts{
		output:  filepath.Join(dir, "out"),
		formats: []string{pipeline.FormatSVG, pipeline.FormatJSON},
		layout:  layoutPath,
		theme:   "dark",
		scale:   1,
	}
	opts.flags.noCache = true
	if err := c.runRender(context.Background(), schemaPath, opts); err != nil {
		t.Fatalf("runRender: %v", err)
	}

	svg, err := os.ReadFile(filepath.Join(dir, "out.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svg), `data-table="public.orders"`) {
		t.Error("svg missing orders table")
	}

	out, err := graph.ReadLayoutFile(filepath.Join(dir, "out.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Displacements) != 1 || out.Displacements[0].DX != 25 {
		t.Errorf("json displacements = %+v", out.Displacements)
	}
}
