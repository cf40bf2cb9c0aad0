// Package pipeline runs the schema → layout → render pipeline shared by the
// CLI and the HTTP server.
//
// # Stages
//
//  1. Layout: build the solver graph for a schema and compute a base layout
//  2. Render: draw the base layout, with optional displacements, in one or
//     more formats (SVG, PNG, PDF, JSON)
//
// Both stages are cached by content hash, so the same schema with the same
// options is laid out once and the same view is rendered once.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, nil, logger)
//	result, err := runner.Execute(ctx, s, pipeline.Options{
//	    Direction: "RIGHT",
//	    Formats:   []string{"svg", "json"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erdtower/pkg/cache"
	"github.com/matzehuels/erdtower/pkg/diagram"
	"github.com/matzehuels/erdtower/pkg/drag"
	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/render"
	"github.com/matzehuels/erdtower/pkg/solver"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultDirection is the layer direction when none is given.
	DefaultDirection = solver.DefaultDirection

	// DefaultTheme is the SVG colour scheme.
	DefaultTheme = "light"

	// DefaultScale is the PNG raster scale.
	DefaultScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Direction    string  `json:"direction,omitempty"`
	NodeSpacing  float64 `json:"node_spacing,omitempty"`
	LayerSpacing float64 `json:"layer_spacing,omitempty"`
	Refresh      bool    `json:"refresh,omitempty"` // bypass the layout cache

	// Render options
	Formats []string `json:"formats,omitempty"`
	Theme   string   `json:"theme,omitempty"`
	Title   string   `json:"title,omitempty"`
	Scale   float64  `json:"scale,omitempty"`

	// Displacements are composed onto the base layout before rendering.
	Displacements drag.Map `json:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.Direction == "" {
		o.Direction = string(DefaultDirection)
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Theme == "" {
		o.Theme = DefaultTheme
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks every option. Call SetDefaults first.
func (o *Options) Validate() error {
	if _, err := solver.ParseDirection(o.Direction); err != nil {
		return err
	}
	if o.NodeSpacing < 0 || o.LayerSpacing < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "spacing must not be negative")
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must not be negative")
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	_, err := render.ThemeByName(o.Theme)
	return err
}

// direction returns the parsed direction. Options must be valid.
func (o *Options) direction() solver.Direction {
	d, err := solver.ParseDirection(o.Direction)
	if err != nil {
		return DefaultDirection
	}
	return d
}

// BuildOptions returns the graph builder options for o.
func (o *Options) BuildOptions() []diagram.BuildOption {
	if o.NodeSpacing == 0 && o.LayerSpacing == 0 {
		return nil
	}
	node, layer := o.NodeSpacing, o.LayerSpacing
	if node == 0 {
		node = diagram.DefaultNodeSpacing
	}
	if layer == 0 {
		layer = diagram.DefaultLayerSpacing
	}
	return []diagram.BuildOption{diagram.WithSpacing(node, layer)}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts(solverName string) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Direction:    string(o.direction()),
		NodeSpacing:  o.NodeSpacing,
		LayerSpacing: o.LayerSpacing,
		Solver:       solverName,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format, displacementHash string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format:        format,
		Theme:         o.Theme,
		Title:         o.Title,
		Displacements: displacementHash,
	}
	if format == FormatPNG {
		opts.Scale = o.Scale
	}
	return opts
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// SchemaHash is the content hash of the input schema.
	SchemaHash string

	// Layout is the base layout, without displacements.
	Layout *diagram.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Tables     int
	Edges      int
	Groups     int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}
