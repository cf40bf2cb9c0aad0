package drag

import "github.com/matzehuels/erdtower/pkg/geom"

// AdjustPolyline bends base so that its first point moves by ds and its last
// point by dt while every segment stays axis-aligned. base is not modified.
//
// With both displacements zero the result is an exact copy of base. With
// equal displacements the route is translated rigidly, which covers
// self-references and tables dragged together.
func AdjustPolyline(base []geom.Point, ds, dt geom.Point) []geom.Point {
	if ds.IsZero() && dt.IsZero() {
		return geom.Clone(base)
	}
	if len(base) == 0 {
		return nil
	}
	if ds == dt {
		return geom.Translate(base, ds)
	}

	pts := geom.Simplify(base)
	if len(pts) == 2 {
		pts = splitStraight(pts[0], pts[1])
	}
	axes := classify(pts)

	n := len(pts)
	fwd := make([]geom.Point, n)
	bwd := make([]geom.Point, n)
	fwd[0] = ds
	for i := 1; i < n; i++ {
		fwd[i] = carry(fwd[i-1], axes[i-1])
	}
	bwd[n-1] = dt
	for i := n - 2; i >= 0; i-- {
		bwd[i] = carry(bwd[i+1], axes[i])
	}

	out := make([]geom.Point, n)
	for i, p := range pts {
		out[i] = p.Add(fwd[i]).Add(bwd[i])
	}
	return geom.Simplify(out)
}

// carry keeps the component of d that a segment along axis passes on.
func carry(d geom.Point, axis geom.Axis) geom.Point {
	if axis == geom.Horizontal {
		return geom.Pt(0, d.Y)
	}
	return geom.Pt(d.X, 0)
}

// splitStraight turns a straight two-point route into three segments by
// inserting a coincident pair of bends at its midpoint. The middle segment
// starts with zero length and takes the other axis. A zero-length route is
// treated as horizontal.
func splitStraight(a, b geom.Point) []geom.Point {
	var m geom.Point
	if geom.SegmentAxis(a, b) == geom.Horizontal {
		m = geom.Pt((a.X+b.X)/2, a.Y)
	} else {
		m = geom.Pt(a.X, (a.Y+b.Y)/2)
	}
	return []geom.Point{a, m, m, b}
}

// classify returns the axis of every segment. Zero-length segments have no
// axis of their own; they take the one that keeps the path alternating,
// looking back to the previous segment first and ahead otherwise.
func classify(pts []geom.Point) []geom.Axis {
	n := len(pts) - 1
	axes := make([]geom.Axis, n)
	known := make([]bool, n)
	for i := range n {
		if pts[i] != pts[i+1] {
			axes[i], known[i] = geom.SegmentAxis(pts[i], pts[i+1]), true
		}
	}

	first := -1
	for i := range n {
		if known[i] {
			first = i
			break
		}
	}
	if first < 0 {
		for i := range n {
			if i%2 == 0 {
				axes[i] = geom.Horizontal
			} else {
				axes[i] = geom.Vertical
			}
		}
		return axes
	}
	for i := first - 1; i >= 0; i-- {
		axes[i] = axes[i+1].Other()
	}
	for i := first + 1; i < n; i++ {
		if !known[i] {
			axes[i] = axes[i-1].Other()
		}
	}
	return axes
}
