package drag

import (
	"github.com/matzehuels/erdtower/pkg/diagram"
	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/geom"
)

// Engine tracks drag gestures over one base layout.
//
// An Engine is not safe for concurrent use; callers serving several clients
// wrap it in their own lock.
type Engine struct {
	base *diagram.Layout
	disp Map

	active string
	origin geom.Point // displacement of active when the gesture started
}

// NewEngine creates an engine over base with no displacements.
func NewEngine(base *diagram.Layout) *Engine {
	return &Engine{base: base, disp: Map{}}
}

// NewEngineWith creates an engine over base with displacements restored
// from m, for example when resuming a saved session. Entries for tables
// that are not in base are dropped.
func NewEngineWith(base *diagram.Layout, m Map) *Engine {
	e := NewEngine(base)
	for id, d := range m {
		if _, ok := base.Node(id); ok {
			e.disp.Set(id, d)
		}
	}
	return e
}

// Base returns the layout the engine composes displacements onto.
func (e *Engine) Base() *diagram.Layout { return e.base }

// Start begins a gesture on table id. Starting while another gesture is
// active ends that one first.
func (e *Engine) Start(id string) error {
	if _, ok := e.base.Node(id); !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "no table %q in layout", id)
	}
	e.active = id
	e.origin = e.disp.Get(id)
	return nil
}

// Move sets the pointer offset of the active gesture. d is the total offset
// since Start, so the table's displacement becomes its value at Start plus
// d. Move without an active gesture is an error.
func (e *Engine) Move(d geom.Point) error {
	if e.active == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no drag in progress")
	}
	e.disp.Set(e.active, e.origin.Add(d))
	return nil
}

// End finishes the active gesture and returns the table and its resulting
// displacement. ok is false when no gesture was active.
func (e *Engine) End() (id string, d geom.Point, ok bool) {
	if e.active == "" {
		return "", geom.Point{}, false
	}
	id, d = e.active, e.disp.Get(e.active)
	e.active, e.origin = "", geom.Point{}
	return id, d, true
}

// Active returns the table of the gesture in progress.
func (e *Engine) Active() (string, bool) { return e.active, e.active != "" }

// Clear drops the displacement of one table, restoring its base position
// and the base routes of its edges.
func (e *Engine) Clear(id string) {
	e.disp.Clear(id)
	if id == e.active {
		e.origin = geom.Point{}
	}
}

// Reset installs a new base layout and discards every displacement and
// any gesture in progress. It returns how many displacements were dropped.
func (e *Engine) Reset(base *diagram.Layout) int {
	n := len(e.disp)
	e.base = base
	e.disp = Map{}
	e.active, e.origin = "", geom.Point{}
	return n
}

// Displacements returns a copy of the current displacement map.
func (e *Engine) Displacements() Map { return e.disp.Clone() }

// View returns the base layout with all displacements applied.
func (e *Engine) View() *diagram.Layout { return Apply(e.base, e.disp) }

// Gesture returns the active table and its displacement when the gesture
// started, for persisting a gesture in progress.
func (e *Engine) Gesture() (id string, origin geom.Point, ok bool) {
	return e.active, e.origin, e.active != ""
}

// Resume restores a gesture saved with Gesture.
func (e *Engine) Resume(id string, origin geom.Point) error {
	if _, ok := e.base.Node(id); !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "no table %q in layout", id)
	}
	e.active, e.origin = id, origin
	return nil
}
