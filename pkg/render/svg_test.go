package render

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/matzehuels/erdtower/pkg/diagram"
	"github.com/matzehuels/erdtower/pkg/drag"
	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/schema"
)

func testSchema() *schema.Schema {
	return &schema.Schema{
		Tables: []schema.Table{
			{Name: "users", Note: "people & bots", Columns: []schema.Column{
				{Name: "id", Type: "int", PrimaryKey: true},
				{Name: "email", Type: "text", Unique: true},
			}},
			{Name: "orders", Columns: []schema.Column{
				{Name: "id", Type: "int", PrimaryKey: true},
				{Name: "user_id", Type: "int"},
			}},
		},
		References: []schema.Reference{{
			From: schema.Endpoint{Table: "orders", Columns: []string{"user_id"}, Cardinality: schema.Many},
			To:   schema.Endpoint{Table: "users", Columns: []string{"id"}, Cardinality: schema.One},
		}},
		Groups: []schema.Group{{Name: "sales", Color: "#ff0000", Tables: []schema.TableRef{{Name: "orders"}}}},
	}
}

func testLayout() *diagram.Layout {
	return &diagram.Layout{
		Width:  600,
		Height: 300,
		Nodes: []diagram.Node{
			{ID: "public.users", X: 20, Y: 20, Width: 180, Height: 110},
			{ID: "public.orders", X: 320, Y: 60, Width: 180, Height: 92},
		},
		Edges: []diagram.Edge{{
			ID: "ref-0", Ref: 0, Source: "public.orders", Target: "public.users",
			Points: []geom.Point{{X: 320, Y: 138}, {X: 260, Y: 138}, {X: 260, Y: 68}, {X: 200, Y: 68}},
		}},
		Groups: []diagram.Group{{Name: "sales", X: 300, Y: 20, Width: 220, Height: 152}},
	}
}

func TestRenderSVG(t *testing.T) {
	out := string(RenderSVG(testSchema(), testLayout(), WithTitle("Shop <v2>")))

	for _, want := range []string{
		`viewBox="0 0 600.0 340.0"`,
		`data-table="public.users"`,
		`data-table="public.orders"`,
		`data-group="sales"`,
		`stroke="#ff0000"`,
		`points="320.0,138.0 260.0,138.0 260.0,68.0 200.0,68.0"`,
		`marker-start="url(#card-many)"`,
		`marker-end="url(#card-one)"`,
		`Shop &lt;v2&gt;`,
		`people &amp; bots`,
		`text-anchor="end"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG missing %q", want)
		}
	}

	// Groups are drawn under edges, which are drawn under tables.
	group := strings.Index(out, `class="group"`)
	edge := strings.Index(out, `class="ref"`)
	table := strings.Index(out, `class="table"`)
	if group >= edge || edge >= table {
		t.Errorf("draw order group=%d edge=%d table=%d", group, edge, table)
	}

	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		if _, err := dec.Token(); err != nil {
			if err != io.EOF {
				t.Fatalf("invalid XML: %v", err)
			}
			break
		}
	}
}

func TestRenderSVGNoCardinality(t *testing.T) {
	s := testSchema()
	s.References[0].From.Cardinality = ""
	out := string(RenderSVG(s, testLayout()))
	if strings.Contains(out, "marker-start=") {
		t.Error("reference without source cardinality drew a start marker")
	}
	if !strings.Contains(out, `marker-end="url(#card-one)"`) {
		t.Error("missing end marker")
	}
}

func TestRenderSVGDisplacements(t *testing.T) {
	l := testLayout()
	m := drag.Map{}
	m.Set("public.orders", geom.Pt(50, 0))

	out := string(RenderSVG(testSchema(), l, WithDisplacements(m)))
	if !strings.Contains(out, `<rect x="370.0" y="60.0" width="180.0" height="92.0"`) {
		t.Error("dragged table not translated")
	}
	if !strings.Contains(out, `points="370.0,138.0`) {
		t.Error("edge not re-bent to follow dragged source")
	}
	if l.Nodes[1].X != 320 {
		t.Error("RenderSVG modified the base layout")
	}
}

func TestRenderSVGNegativeDrag(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		viewBox   string
		transform string
	}{
		{"no title", "", `viewBox="0 0 640.0 330.0"`, `<g transform="translate(40.0 30.0)">`},
		{"with title", "shop", `viewBox="0 0 640.0 370.0"`, `<g transform="translate(40.0 70.0)">`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := drag.Map{}
			m.Set("public.users", geom.Pt(-60, -50))

			out := string(RenderSVG(testSchema(), testLayout(), WithDisplacements(m), WithTitle(tt.title)))
			if !strings.Contains(out, tt.viewBox) {
				t.Errorf("SVG missing %s", tt.viewBox)
			}
			if !strings.Contains(out, tt.transform) {
				t.Errorf("SVG missing %s", tt.transform)
			}
			if !strings.Contains(out, `<rect x="-40.0" y="-30.0" width="180.0"`) {
				t.Error("dragged table not at its displaced position")
			}
		})
	}

	out := string(RenderSVG(testSchema(), testLayout()))
	if !strings.Contains(out, `<g transform="translate(0.0 0.0)">`) {
		t.Error("undragged layout should not be shifted")
	}
}

func TestRenderSVGTheme(t *testing.T) {
	out := string(RenderSVG(testSchema(), testLayout(), WithTheme(Dark)))
	if !strings.Contains(out, Dark.Background) {
		t.Error("dark background not used")
	}
}

func TestThemeByName(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"", "light", true},
		{"light", "light", true},
		{"dark", "dark", true},
		{"neon", "", false},
	}
	for _, tt := range tests {
		th, err := ThemeByName(tt.name)
		if tt.ok != (err == nil) {
			t.Errorf("ThemeByName(%q) error = %v", tt.name, err)
			continue
		}
		if !tt.ok {
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("ThemeByName(%q) error code = %v", tt.name, err)
			}
			continue
		}
		if th.Name != tt.want {
			t.Errorf("ThemeByName(%q) = %s, want %s", tt.name, th.Name, tt.want)
		}
	}
}

func TestEscapeXML(t *testing.T) {
	if got := EscapeXML(`a<b>&"c"`); got != "a&lt;b&gt;&amp;&#34;c&#34;" {
		t.Errorf("EscapeXML = %s", got)
	}
}

func TestConvertMissingBinary(t *testing.T) {
	old := rsvgConvert
	rsvgConvert = "erdtower-no-such-converter"
	defer func() { rsvgConvert = old }()

	if _, err := ToPDF([]byte("<svg/>")); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("ToPDF error = %v, want UNSUPPORTED", err)
	}
	if _, err := ToPNG([]byte("<svg/>"), 2); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("ToPNG error = %v, want UNSUPPORTED", err)
	}
}
