// Package session keeps interactive diagram editing sessions.
//
// A session binds a schema and a layer direction to the current base layout
// and the displacements the user has dragged onto it. Relayout replaces the
// base layout and discards every displacement; dragging never touches the
// base layout.
//
// Sessions are persisted through a [Store]:
//   - [MemoryStore]: in-process, for a single server or tests
//   - [FileStore]: JSON files, for the CLI
//   - [RedisStore]: shared across server instances
//   - [MongoStore]: document storage with a TTL index
//
// # Usage
//
//	sess := session.New(s, solver.Right, session.DefaultTTL)
//	if err := sess.Relayout(ctx, layouter); err != nil {
//	    return err
//	}
//	_ = sess.StartDrag(ctx, "public.orders")
//	_ = sess.MoveDrag(geom.Pt(40, 0))
//	sess.EndDrag(ctx)
//	store.Set(ctx, sess)
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/erdtower/pkg/diagram"
	"github.com/matzehuels/erdtower/pkg/drag"
	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/graph"
	"github.com/matzehuels/erdtower/pkg/observability"
	"github.com/matzehuels/erdtower/pkg/schema"
	"github.com/matzehuels/erdtower/pkg/solver"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 24 * time.Hour

// Session is one diagram being edited.
//
// A Session is not safe for concurrent use.
type Session struct {
	ID        string
	Schema    *schema.Schema
	Direction solver.Direction
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time

	ttl    time.Duration
	engine *drag.Engine // nil until the first layout
}

// New creates a session with a fresh ID and no layout yet.
func New(s *schema.Schema, dir solver.Direction, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Schema:    s,
		Direction: dir,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
		ttl:       ttl,
	}
}

// IsExpired reports whether the session has passed its expiry time.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch records an edit and extends the expiry time.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now()
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	s.ExpiresAt = s.UpdatedAt.Add(s.ttl)
}

// =============================================================================
// Layout
// =============================================================================

// Relayout computes a new base layout with l and drops every displacement.
// On failure the previous base layout and displacements are kept.
func (s *Session) Relayout(ctx context.Context, l *diagram.Layouter) error {
	if s.engine != nil {
		l.SetCurrent(s.engine.Base())
	}
	next, err := l.Layout(ctx, s.Schema, s.Direction)
	if err != nil {
		return err
	}
	if s.engine == nil {
		s.engine = drag.NewEngine(next)
	} else {
		discarded := s.engine.Reset(next)
		observability.Drag().OnRelayout(ctx, s.ID, discarded)
	}
	s.Touch()
	return nil
}

// SetDirection changes the layer direction and relays out. On failure the
// previous direction is restored.
func (s *Session) SetDirection(ctx context.Context, l *diagram.Layouter, dir solver.Direction) error {
	prev := s.Direction
	s.Direction = dir
	if err := s.Relayout(ctx, l); err != nil {
		s.Direction = prev
		return err
	}
	return nil
}

// HasLayout reports whether a base layout has been computed.
func (s *Session) HasLayout() bool { return s.engine != nil }

// Base returns the current base layout, or nil before the first layout.
func (s *Session) Base() *diagram.Layout {
	if s.engine == nil {
		return nil
	}
	return s.engine.Base()
}

// View returns the layout to draw: the base layout with displacements
// applied. It is nil before the first layout.
func (s *Session) View() *diagram.Layout {
	if s.engine == nil {
		return nil
	}
	return s.engine.View()
}

// Displacements returns a copy of the displacement map.
func (s *Session) Displacements() drag.Map {
	if s.engine == nil {
		return drag.Map{}
	}
	return s.engine.Displacements()
}

// =============================================================================
// Dragging
// =============================================================================

// StartDrag begins a gesture on table id.
func (s *Session) StartDrag(ctx context.Context, id string) error {
	e, err := s.requireLayout()
	if err != nil {
		return err
	}
	if err := e.Start(id); err != nil {
		return err
	}
	observability.Drag().OnDragStart(ctx, s.ID, id)
	s.Touch()
	return nil
}

// MoveDrag sets the total pointer offset of the gesture in progress.
func (s *Session) MoveDrag(d geom.Point) error {
	e, err := s.requireLayout()
	if err != nil {
		return err
	}
	if err := e.Move(d); err != nil {
		return err
	}
	s.Touch()
	return nil
}

// EndDrag finishes the gesture in progress and returns the table and its
// displacement. ok is false when no gesture was active.
func (s *Session) EndDrag(ctx context.Context) (id string, d geom.Point, ok bool) {
	if s.engine == nil {
		return "", geom.Point{}, false
	}
	id, d, ok = s.engine.End()
	if ok {
		observability.Drag().OnDragEnd(ctx, s.ID, id, d.X, d.Y)
		s.Touch()
	}
	return id, d, ok
}

// Dragging returns the table of the gesture in progress.
func (s *Session) Dragging() (string, bool) {
	if s.engine == nil {
		return "", false
	}
	return s.engine.Active()
}

// ResetNode drops the displacement of table id.
func (s *Session) ResetNode(id string) error {
	e, err := s.requireLayout()
	if err != nil {
		return err
	}
	if _, ok := e.Base().Node(id); !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "no table %q in layout", id)
	}
	e.Clear(id)
	s.Touch()
	return nil
}

func (s *Session) requireLayout() (*drag.Engine, error) {
	if s.engine == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "session %s has no layout yet", s.ID)
	}
	return s.engine, nil
}

// =============================================================================
// Persistence
// =============================================================================

// Record is the stored form of a session.
type Record struct {
	ID        string         `json:"id" bson:"_id"`
	Schema    *schema.Schema `json:"schema" bson:"schema"`
	Direction string         `json:"direction" bson:"direction"`
	Layout    *graph.Layout  `json:"layout,omitempty" bson:"layout,omitempty"`
	Gesture   *Gesture       `json:"gesture,omitempty" bson:"gesture,omitempty"`
	TTL       time.Duration  `json:"ttl" bson:"ttl"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at"`
	ExpiresAt time.Time      `json:"expires_at" bson:"expires_at"`
}

// Gesture is a drag in progress.
type Gesture struct {
	Node    string  `json:"node" bson:"node"`
	OriginX float64 `json:"origin_x" bson:"origin_x"`
	OriginY float64 `json:"origin_y" bson:"origin_y"`
}

// Record returns the stored form of s.
func (s *Session) Record() Record {
	r := Record{
		ID:        s.ID,
		Schema:    s.Schema,
		Direction: string(s.Direction),
		TTL:       s.ttl,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		ExpiresAt: s.ExpiresAt,
	}
	if s.engine != nil {
		wire := graph.FromDiagram(s.engine.Base(), s.engine.Displacements())
		r.Layout = &wire
		if id, origin, ok := s.engine.Gesture(); ok {
			r.Gesture = &Gesture{Node: id, OriginX: origin.X, OriginY: origin.Y}
		}
	}
	return r
}

// FromRecord restores a session from its stored form.
func FromRecord(r Record) (*Session, error) {
	dir, err := solver.ParseDirection(r.Direction)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:        r.ID,
		Schema:    r.Schema,
		Direction: dir,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		ExpiresAt: r.ExpiresAt,
		ttl:       r.TTL,
	}
	if r.Layout != nil {
		base, m, err := graph.ToDiagram(*r.Layout)
		if err != nil {
			return nil, err
		}
		s.engine = drag.NewEngineWith(base, m)
		if g := r.Gesture; g != nil {
			if err := s.engine.Resume(g.Node, geom.Pt(g.OriginX, g.OriginY)); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}
