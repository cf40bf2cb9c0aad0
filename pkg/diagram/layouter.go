package diagram

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/observability"
	"github.com/matzehuels/erdtower/pkg/schema"
	"github.com/matzehuels/erdtower/pkg/solver"
)

// Compute builds the graph for s, submits it to sv once, and extracts the
// result. Solver failures are returned as LAYOUT_FAILED errors.
func Compute(ctx context.Context, sv solver.Solver, s *schema.Schema, dir solver.Direction, opts ...BuildOption) (*Layout, error) {
	g := Build(s, dir, opts...)
	observability.Layout().OnBuild(ctx, g.TableCount(), g.EdgeCount())

	start := time.Now()
	observability.Layout().OnSolveStart(ctx, string(g.Direction), g.TableCount())
	res, err := sv.Layout(ctx, g.Root)

	var l *Layout
	switch {
	case err != nil:
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeLayoutFailed, err, "layout solver")
		}
	case res == nil:
		err = errors.New(errors.ErrCodeLayoutFailed, "solver returned no result")
	default:
		l, err = Extract(g, res)
	}
	observability.Layout().OnSolveComplete(ctx, string(g.Direction), time.Since(start), err)
	return l, err
}

// Layouter owns the current base layout of one diagram. Each call to Layout
// is one relayout trigger; a failed call leaves the previous layout in place.
//
// A Layouter is not safe for concurrent use.
type Layouter struct {
	Solver solver.Solver
	Logger *log.Logger

	opts    []BuildOption
	current *Layout
}

// NewLayouter creates a layouter around sv. A nil logger discards output.
func NewLayouter(sv solver.Solver, logger *log.Logger, opts ...BuildOption) *Layouter {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Layouter{Solver: sv, Logger: logger, opts: opts}
}

// Layout computes a new base layout for s in direction dir and makes it
// current. On error the current layout is unchanged.
func (l *Layouter) Layout(ctx context.Context, s *schema.Schema, dir solver.Direction) (*Layout, error) {
	start := time.Now()
	next, err := Compute(ctx, l.Solver, s, dir, l.opts...)
	if err != nil {
		l.Logger.Warn("layout failed, keeping previous layout", "direction", dir, "err", err)
		return l.current, err
	}
	l.current = next
	l.Logger.Debug("computed layout",
		"direction", dir,
		"nodes", len(next.Nodes),
		"edges", len(next.Edges),
		"groups", len(next.Groups),
		"duration", time.Since(start))
	return next, nil
}

// Current returns the last successful layout, or nil before the first one.
func (l *Layouter) Current() *Layout { return l.current }

// SetCurrent installs a layout computed elsewhere, for example one loaded
// from a saved session or a cache.
func (l *Layouter) SetCurrent(layout *Layout) { l.current = layout }
