package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/erdtower/pkg/diagram"
	"github.com/matzehuels/erdtower/pkg/drag"
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/schema"
)

// titleBand is the height reserved above the diagram for the title.
const titleBand = 40.0

// Option configures SVG rendering.
type Option func(*svgRenderer)

// WithTheme sets the colour scheme.
func WithTheme(t Theme) Option {
	return func(r *svgRenderer) { r.theme = t }
}

// WithTitle draws a title above the diagram.
func WithTitle(title string) Option {
	return func(r *svgRenderer) { r.title = title }
}

// WithDisplacements draws the layout with interactive offsets applied.
func WithDisplacements(m drag.Map) Option {
	return func(r *svgRenderer) { r.disp = m }
}

// WithMetrics sets the row metrics. They must match the metrics the layout
// was built with.
func WithMetrics(m diagram.Metrics) Option {
	return func(r *svgRenderer) { r.metrics = m }
}

type svgRenderer struct {
	theme   Theme
	title   string
	disp    drag.Map
	metrics diagram.Metrics
}

// RenderSVG draws l, which must have been computed from s.
func RenderSVG(s *schema.Schema, l *diagram.Layout, opts ...Option) []byte {
	r := svgRenderer{theme: Light, metrics: diagram.DefaultMetrics()}
	for _, opt := range opts {
		opt(&r)
	}
	if len(r.disp) > 0 {
		l = drag.Apply(l, r.disp)
	}

	offY := 0.0
	if r.title != "" {
		offY = titleBand
	}
	// Tables dragged above or left of the origin widen the canvas on that
	// side instead of being clipped.
	b := l.Bounds()
	shift := geom.Pt(-min(0, b.X), -min(0, b.Y))
	width, height := l.Width+shift.X, l.Height+shift.Y+offY

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" font-family="%s">`+"\n",
		width, height, width, height, EscapeXML(r.theme.FontFamily))
	r.renderDefs(&buf)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", r.theme.Background)
	if r.title != "" {
		fmt.Fprintf(&buf, `  <text class="title" x="%.1f" y="26" font-size="18" font-weight="bold" fill="%s">%s</text>`+"\n",
			diagram.DefaultRootPadding, r.theme.Text, EscapeXML(r.title))
	}
	fmt.Fprintf(&buf, `  <g transform="translate(%.1f %.1f)">`+"\n", shift.X, offY+shift.Y)

	groups := make(map[string]schema.Group, len(s.Groups))
	for _, g := range s.Groups {
		groups[g.Name] = g
	}
	for _, g := range l.Groups {
		r.renderGroup(&buf, g, groups[g.Name])
	}
	for _, e := range l.Edges {
		var ref schema.Reference
		if e.Ref >= 0 && e.Ref < len(s.References) {
			ref = s.References[e.Ref]
		}
		r.renderEdge(&buf, e, ref)
	}
	tables := s.Index()
	for _, n := range l.Nodes {
		if t, ok := tables[n.ID]; ok {
			r.renderTable(&buf, n, t)
		}
	}

	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderDefs(buf *bytes.Buffer) {
	buf.WriteString("  <defs>\n")
	fmt.Fprintf(buf, `    <marker id="card-many" viewBox="0 0 12 12" refX="12" refY="6" markerWidth="12" markerHeight="12" markerUnits="userSpaceOnUse" orient="auto-start-reverse">`+
		`<path d="M0,6 L12,0 M0,6 L12,12 M0,6 L12,6" fill="none" stroke="%s" stroke-width="1.5"/></marker>`+"\n", r.theme.Edge)
	fmt.Fprintf(buf, `    <marker id="card-one" viewBox="0 0 12 12" refX="12" refY="6" markerWidth="12" markerHeight="12" markerUnits="userSpaceOnUse" orient="auto-start-reverse">`+
		`<path d="M8,0 L8,12 M0,6 L12,6" fill="none" stroke="%s" stroke-width="1.5"/></marker>`+"\n", r.theme.Edge)
	buf.WriteString("  </defs>\n")
}

func (r *svgRenderer) renderGroup(buf *bytes.Buffer, g diagram.Group, sg schema.Group) {
	stroke := r.theme.GroupStroke
	if sg.Color != "" {
		stroke = sg.Color
	}
	fmt.Fprintf(buf, `    <g class="group" data-group="%s">`+"\n", EscapeXML(g.Name))
	fmt.Fprintf(buf, `      <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8" fill="%s" stroke="%s" stroke-dasharray="6 4"/>`+"\n",
		g.X, g.Y, g.Width, g.Height, r.theme.GroupFill, EscapeXML(stroke))
	fmt.Fprintf(buf, `      <text x="%.1f" y="%.1f" font-size="14" font-weight="bold" fill="%s">%s</text>`+"\n",
		g.X+diagram.DefaultGroupPadding, g.Y+diagram.DefaultGroupLabelBand*0.6, r.theme.GroupText, EscapeXML(g.Name))
	buf.WriteString("    </g>\n")
}

func (r *svgRenderer) renderEdge(buf *bytes.Buffer, e diagram.Edge, ref schema.Reference) {
	if len(e.Points) < 2 {
		return
	}
	fmt.Fprintf(buf, `    <polyline class="ref" data-ref="%s" data-source="%s" data-target="%s" points="%s" fill="none" stroke="%s" stroke-width="1.5"%s%s/>`+"\n",
		EscapeXML(e.ID), EscapeXML(e.Source), EscapeXML(e.Target),
		points(e.Points), r.theme.Edge,
		marker("marker-start", ref.From.Cardinality),
		marker("marker-end", ref.To.Cardinality))
}

func marker(attr string, c schema.Cardinality) string {
	switch c {
	case schema.Many:
		return fmt.Sprintf(` %s="url(#card-many)"`, attr)
	case schema.One:
		return fmt.Sprintf(` %s="url(#card-one)"`, attr)
	}
	return ""
}

func points(pts []geom.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

func (r *svgRenderer) renderTable(buf *bytes.Buffer, n diagram.Node, t *schema.Table) {
	m := r.metrics
	header := m.Header(t, n.Width)
	headerFill := r.theme.HeaderFill
	if t.Color != "" {
		headerFill = t.Color
	}

	fmt.Fprintf(buf, `    <g class="table" data-table="%s">`+"\n", EscapeXML(n.ID))
	if t.Note != "" {
		fmt.Fprintf(buf, "      <title>%s</title>\n", EscapeXML(t.Note))
	}
	fmt.Fprintf(buf, `      <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="4" fill="%s" stroke="%s"/>`+"\n",
		n.X, n.Y, n.Width, n.Height, r.theme.TableFill, r.theme.TableStroke)
	fmt.Fprintf(buf, `      <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="4" fill="%s"/>`+"\n",
		n.X, n.Y, n.Width, header, EscapeXML(headerFill))
	fmt.Fprintf(buf, `      <text x="%.1f" y="%.1f" font-size="14" font-weight="bold" fill="%s">%s</text>`+"\n",
		n.X+m.Padding, n.Y+m.HeaderHeight*0.65, r.theme.HeaderText, EscapeXML(diagram.HeaderText(t)))
	for i, line := range m.WrapNote(t.Note, n.Width) {
		fmt.Fprintf(buf, `      <text x="%.1f" y="%.1f" font-size="11" font-style="italic" fill="%s">%s</text>`+"\n",
			n.X+m.Padding, n.Y+m.HeaderHeight+float64(i)*m.NoteLineHeight+m.NoteLineHeight*0.3, r.theme.HeaderText, EscapeXML(line))
	}

	for i, c := range t.Columns {
		y := n.Y + header + float64(i)*m.RowHeight
		if i%2 == 1 {
			fmt.Fprintf(buf, `      <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
				n.X+1, y, n.Width-2, m.RowHeight, r.theme.RowStripe)
		}
		baseline := y + m.RowHeight*0.65
		name := EscapeXML(c.Name)
		if c.PrimaryKey {
			name = `<tspan font-weight="bold">` + name + `</tspan>`
		}
		if b := diagram.Badges(c); b != "" {
			name += fmt.Sprintf(` <tspan font-size="9" fill="%s">%s</tspan>`, r.theme.Muted, b)
		}
		fmt.Fprintf(buf, `      <text x="%.1f" y="%.1f" font-size="12" fill="%s">%s</text>`+"\n",
			n.X+m.Padding, baseline, r.theme.Text, name)
		fmt.Fprintf(buf, `      <text x="%.1f" y="%.1f" font-size="12" text-anchor="end" fill="%s">%s</text>`+"\n",
			n.X+n.Width-m.Padding, baseline, r.theme.Muted, EscapeXML(c.Type))
	}
	buf.WriteString("    </g>\n")
}

// EscapeXML escapes s for use in SVG text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
