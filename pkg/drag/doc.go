// Package drag moves tables of a computed layout without re-running the
// layout solver.
//
// # Overview
//
// A drag never edits the base [diagram.Layout]. Instead the package keeps a
// sparse displacement [Map] from table identity to a 2-D delta and composes
// it with the base layout on demand:
//
//	view := drag.Apply(base, m)
//
// Moved tables are translated by their displacement. Every edge touching a
// moved table is bent by [AdjustPolyline], which slides the corners of the
// orthogonal route so all segments stay horizontal or vertical. Edges whose
// endpoints are both untouched are returned as exact copies.
//
// # Propagation
//
// The source displacement is carried forward along the polyline and the
// target displacement backward. Crossing a horizontal segment only the
// vertical component survives; crossing a vertical segment only the
// horizontal component survives. The two contributions are summed at each
// point. A straight two-point route has no corner to absorb a move, so a
// pair of bends is synthesized at its midpoint first.
//
// # Gestures
//
// [Engine] wraps the map with gesture state. Pointer moves during one
// gesture accumulate onto the displacement the table had when the gesture
// started, so releasing and grabbing a table again continues from where it
// was dropped:
//
//	e := drag.NewEngine(base)
//	_ = e.Start("public.users")
//	e.Move(geom.Pt(40, 0))
//	e.Move(geom.Pt(50, 0)) // total since Start, not incremental
//	e.End()
//	view := e.View()
//
// Relayout replaces the base and clears every displacement via [Engine.Reset].
package drag
