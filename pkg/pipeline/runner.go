package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/erdtower/pkg/cache"
	"github.com/matzehuels/erdtower/pkg/diagram"
	"github.com/matzehuels/erdtower/pkg/graph"
	"github.com/matzehuels/erdtower/pkg/observability"
	"github.com/matzehuels/erdtower/pkg/schema"
	"github.com/matzehuels/erdtower/pkg/solver"
	"github.com/matzehuels/erdtower/pkg/solver/dot"
)

// Cache key types reported to cache hooks.
const (
	keyTypeLayout   = "layout"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for its collaborators. Multiple goroutines
// can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Solver solver.Solver
	Logger *log.Logger

	// SolverName distinguishes cached layouts of different solvers.
	SolverName string
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If sv is nil, the Graphviz solver is used.
func NewRunner(c cache.Cache, keyer cache.Keyer, sv solver.Solver, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	name := "custom"
	if sv == nil {
		sv = dot.New(logger)
		name = "graphviz"
	}
	return &Runner{
		Cache:      c,
		Keyer:      keyer,
		Solver:     sv,
		Logger:     logger,
		SolverName: name,
	}
}

// Execute runs layout then render with caching.
func (r *Runner) Execute(ctx context.Context, s *schema.Schema, opts Options) (*Result, error) {
	r.prepare(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	hash, err := cache.HashJSON(s)
	if err != nil {
		return nil, fmt.Errorf("hash schema: %w", err)
	}
	result := &Result{SchemaHash: hash}

	start := time.Now()
	l, hit, err := r.LayoutWithCacheInfo(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(start)
	result.Stats.Tables = len(l.Nodes)
	result.Stats.Edges = len(l.Edges)
	result.Stats.Groups = len(l.Groups)
	result.CacheInfo.LayoutHit = hit

	r.Logger.Info("computed layout",
		"tables", len(l.Nodes),
		"edges", len(l.Edges),
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	start = time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, s, l, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	result.CacheInfo.RenderHit = hit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// =============================================================================
// Layout
// =============================================================================

// LayoutWithCacheInfo computes the base layout of s with caching and
// reports whether it came from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, s *schema.Schema, opts Options) (*diagram.Layout, bool, error) {
	r.prepare(&opts)
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}
	if err := s.Validate(); err != nil {
		return nil, false, err
	}

	hash, err := cache.HashJSON(s)
	if err != nil {
		return nil, false, fmt.Errorf("hash schema: %w", err)
	}
	key := r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts(r.SolverName))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if l, err := decodeLayout(data); err == nil {
				observability.Cache().OnCacheHit(ctx, keyTypeLayout)
				return l, true, nil
			}
			// Unreadable entries are recomputed and overwritten.
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
	}

	l, err := diagram.Compute(ctx, r.Solver, s, opts.direction(), opts.BuildOptions()...)
	if err != nil {
		return nil, false, err
	}

	if data, err := graph.MarshalLayout(graph.FromDiagram(l, nil)); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyTypeLayout, len(data))
		}
	}
	return l, false, nil
}

// Layout is LayoutWithCacheInfo without the cache hit info.
func (r *Runner) Layout(ctx context.Context, s *schema.Schema, opts Options) (*diagram.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, s, opts)
	return l, err
}

func decodeLayout(data []byte) (*diagram.Layout, error) {
	wire, err := graph.UnmarshalLayout(data)
	if err != nil {
		return nil, err
	}
	l, _, err := graph.ToDiagram(wire)
	return l, err
}

// =============================================================================
// Render
// =============================================================================

// RenderWithCacheInfo renders l in every requested format with caching and
// reports whether all artifacts came from the cache. Missing formats are
// rendered in parallel.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *schema.Schema, l *diagram.Layout, opts Options) (map[string][]byte, bool, error) {
	r.prepare(&opts)
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	layoutHash, err := cache.HashJSON(graph.FromDiagram(l, nil))
	if err != nil {
		return nil, false, fmt.Errorf("hash layout: %w", err)
	}
	var dispHash string
	if len(opts.Displacements) > 0 {
		if dispHash, err = cache.HashJSON(graph.FromDisplacements(opts.Displacements)); err != nil {
			return nil, false, fmt.Errorf("hash displacements: %w", err)
		}
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format, dispHash))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
			artifacts[format] = data
			continue
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	start := time.Now()
	observability.Layout().OnRenderStart(ctx, missing)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, format := range missing {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := RenderFormat(s, l, format, opts)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	observability.Layout().OnRenderComplete(ctx, missing, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for _, format := range missing {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format, dispHash))
		if err := r.Cache.Set(ctx, key, artifacts[format], cache.TTLArtifact); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(artifacts[format]))
	}
	return artifacts, false, nil
}

// Render is RenderWithCacheInfo without the cache hit info.
func (r *Runner) Render(ctx context.Context, s *schema.Schema, l *diagram.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, s, l, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// prepare applies defaults and the runner's logger.
func (r *Runner) prepare(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	opts.SetDefaults()
}
