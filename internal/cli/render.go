package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdtower/pkg/diagram"
	"github.com/matzehuels/erdtower/pkg/drag"
	"github.com/matzehuels/erdtower/pkg/graph"
	"github.com/matzehuels/erdtower/pkg/pipeline"
	"github.com/matzehuels/erdtower/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output        string
	formats       []string
	layout        string // precomputed layout.json; skips the solver
	displacements string // displacement JSON array applied before drawing
	theme         string
	title         string
	scale         float64
	refresh       bool
	flags         layoutFlags
}

// renderCommand creates the render command for drawing diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [schema]",
		Short: "Render a schema to SVG, PNG, PDF or JSON",
		Long: `Render a schema to SVG, PNG, PDF or JSON.

Without --layout the schema is laid out first (cached). With --layout the
given layout.json is drawn as is, including the displacements stored in it.
PNG and PDF output need rsvg-convert from librsvg on PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, pdf, png (comma-separated)")
	cmd.Flags().StringVar(&opts.layout, "layout", "", "draw this layout.json instead of computing one")
	cmd.Flags().StringVar(&opts.displacements, "displacements", "", "JSON file of table displacements to apply")
	cmd.Flags().StringVar(&opts.theme, "theme", pipeline.DefaultTheme, "colour theme: "+strings.Join(render.ThemeNames(), ", "))
	cmd.Flags().StringVar(&opts.title, "title", "", "diagram title (default: schema name)")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached output exists")
	opts.flags.register(cmd)

	return cmd
}

// basePath derives the base output path for multi-format output.
// Known format extensions on output are stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputFiles maps each format to the file it is written to.
func outputFiles(output, input string, formats []string) map[string]string {
	out := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		out[formats[0]] = output
		return out
	}
	base := basePath(output, input)
	for _, f := range formats {
		out[f] = base + "." + f
	}
	return out
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	s, err := loadSchema(input)
	if err != nil {
		return err
	}

	popts := pipeline.Options{
		Formats: opts.formats,
		Theme:   opts.theme,
		Title:   opts.title,
		Scale:   opts.scale,
		Refresh: opts.refresh,
		Logger:  c.Logger,
	}
	if popts.Title == "" {
		popts.Title = s.Name
	}
	opts.flags.apply(&popts)

	var base *diagram.Layout
	if opts.layout != "" {
		wire, err := graph.ReadLayoutFile(opts.layout)
		if err != nil {
			return fmt.Errorf("load layout %s: %w", opts.layout, err)
		}
		var m drag.Map
		base, m, err = graph.ToDiagram(wire)
		if err != nil {
			return err
		}
		popts.Displacements = m
	}
	if opts.displacements != "" {
		data, err := os.ReadFile(opts.displacements)
		if err != nil {
			return fmt.Errorf("read displacements: %w", err)
		}
		m, err := graph.UnmarshalDisplacements(data)
		if err != nil {
			return err
		}
		popts.Displacements = merged(popts.Displacements, m)
	}

	runner, err := c.newRunner(opts.flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	cached := false
	if base == nil {
		base, err = spin(ctx, "Computing layout...", func() (*diagram.Layout, error) {
			l, hit, err := runner.LayoutWithCacheInfo(ctx, s, popts)
			cached = hit
			return l, err
		})
		if err != nil {
			printError("Layout failed")
			return fmt.Errorf("compute layout: %w", err)
		}
	}

	artifacts, err := spin(ctx, "Rendering...", func() (map[string][]byte, error) {
		return runner.Render(ctx, s, base, popts)
	})
	if err != nil {
		printError("Render failed")
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	files := outputFiles(opts.output, input, opts.formats)
	printSuccess("Rendered %s", strings.Join(opts.formats, ", "))
	for _, f := range opts.formats {
		if err := os.WriteFile(files[f], artifacts[f], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", files[f], err)
		}
		printFile(files[f])
	}
	printStats(len(base.Nodes), len(base.Edges), len(base.Groups), cached)
	if n := len(popts.Displacements); n > 0 {
		printDetail("%s moved", plural(n, "table"))
	}
	return nil
}

// merged returns a copy of a with the entries of b laid over it.
func merged(a, b drag.Map) drag.Map {
	out := a.Clone()
	for id, d := range b {
		out.Set(id, d)
	}
	return out
}
