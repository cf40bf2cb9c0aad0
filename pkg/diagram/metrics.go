package diagram

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/erdtower/pkg/schema"
)

// Metrics are the text and box measurements used to size table nodes. The
// renderer draws with the same metrics so that rows line up with ports.
type Metrics struct {
	CharWidth      float64 // advance of one character in the row font
	MinWidth       float64
	MaxWidth       float64
	Padding        float64 // horizontal inset on each side of a row
	HeaderHeight   float64 // title band without note
	RowHeight      float64
	NoteLineHeight float64
}

// DefaultMetrics returns the metrics of the default SVG theme.
func DefaultMetrics() Metrics {
	return Metrics{
		CharWidth:      8,
		MinWidth:       180,
		MaxWidth:       400,
		Padding:        12,
		HeaderHeight:   36,
		RowHeight:      28,
		NoteLineHeight: 18,
	}
}

// HeaderText is the title drawn in a table's header band.
func HeaderText(t *schema.Table) string {
	if t.Namespace == "" || t.Namespace == schema.DefaultNamespace {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Badges returns the short constraint markers shown after a column name.
func Badges(c schema.Column) string {
	var parts []string
	if c.PrimaryKey {
		parts = append(parts, "PK")
	}
	if c.Unique {
		parts = append(parts, "UQ")
	}
	if c.NotNull {
		parts = append(parts, "NN")
	}
	if c.Increment {
		parts = append(parts, "AI")
	}
	return strings.Join(parts, " ")
}

// RowText is the text measured for one column row.
func RowText(c schema.Column) string {
	text := c.Name + "  " + c.Type
	if b := Badges(c); b != "" {
		text += "  " + b
	}
	return text
}

// Width returns the box width for t: wide enough for its longest row,
// never narrower than MinWidth nor wider than MaxWidth.
func (m Metrics) Width(t *schema.Table) float64 {
	longest := utf8.RuneCountInString(HeaderText(t))
	for _, c := range t.Columns {
		longest = max(longest, utf8.RuneCountInString(RowText(c)))
	}
	w := math.Max(m.MinWidth, float64(longest)*m.CharWidth+2*m.Padding)
	return math.Min(w, m.MaxWidth)
}

// Header returns the height of the title band of a box of the given width,
// including the wrapped note.
func (m Metrics) Header(t *schema.Table, width float64) float64 {
	return m.HeaderHeight + float64(len(m.WrapNote(t.Note, width)))*m.NoteLineHeight
}

// Size returns the box width and height for t.
func (m Metrics) Size(t *schema.Table) (w, h float64) {
	w = m.Width(t)
	h = m.Header(t, w) + float64(len(t.Columns))*m.RowHeight
	return w, h
}

// WrapNote breaks note into the lines drawn under the table title. Explicit
// newlines are kept and long paragraphs are wrapped at word boundaries.
// Words longer than a line are split.
func (m Metrics) WrapNote(note string, width float64) []string {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil
	}
	perLine := max(1, int((width-2*m.Padding)/m.CharWidth))

	var lines []string
	for _, para := range strings.Split(note, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var cur []rune
		for _, word := range words {
			w := []rune(word)
			for len(w) > perLine {
				if len(cur) > 0 {
					lines = append(lines, string(cur))
					cur = nil
				}
				lines = append(lines, string(w[:perLine]))
				w = w[perLine:]
			}
			switch {
			case len(cur) == 0:
				cur = w
			case len(cur)+1+len(w) <= perLine:
				cur = append(append(cur, ' '), w...)
			default:
				lines = append(lines, string(cur))
				cur = w
			}
		}
		if len(cur) > 0 {
			lines = append(lines, string(cur))
		}
	}
	return lines
}
