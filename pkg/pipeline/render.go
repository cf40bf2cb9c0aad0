package pipeline

import (
	"github.com/matzehuels/erdtower/pkg/diagram"
	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/graph"
	"github.com/matzehuels/erdtower/pkg/render"
	"github.com/matzehuels/erdtower/pkg/schema"
)

// RenderFormat renders one output format of l. JSON carries the base layout
// together with the displacements; the drawn formats show the composed view.
func RenderFormat(s *schema.Schema, l *diagram.Layout, format string, opts Options) ([]byte, error) {
	if format == FormatJSON {
		return graph.MarshalLayout(graph.FromDiagram(l, opts.Displacements))
	}

	svg, err := RenderSVG(s, l, opts)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatSVG:
		return svg, nil
	case FormatPNG:
		return render.ToPNG(svg, opts.Scale)
	case FormatPDF:
		return render.ToPDF(svg)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
}

// RenderSVG draws l with the theme, title and displacements from opts.
func RenderSVG(s *schema.Schema, l *diagram.Layout, opts Options) ([]byte, error) {
	theme, err := render.ThemeByName(opts.Theme)
	if err != nil {
		return nil, err
	}
	svgOpts := []render.Option{render.WithTheme(theme)}
	if opts.Title != "" {
		svgOpts = append(svgOpts, render.WithTitle(opts.Title))
	}
	if len(opts.Displacements) > 0 {
		svgOpts = append(svgOpts, render.WithDisplacements(opts.Displacements))
	}
	return render.RenderSVG(s, l, svgOpts...), nil
}
