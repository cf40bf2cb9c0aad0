// Package render draws ER diagram layouts.
//
// # Overview
//
// [RenderSVG] draws a layout together with the schema it was computed from:
// group boxes with a label band, table boxes with a header, an optional note
// and one row per column, and references as orthogonal polylines with
// crow's-foot or bar markers for their cardinality.
//
//	svg := render.RenderSVG(s, l,
//	    render.WithTheme(render.Dark),
//	    render.WithDisplacements(m),
//	)
//
// Rows are drawn with the same [diagram.Metrics] the layout was sized with,
// so edge endpoints meet the middle of their column's row.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
package render
