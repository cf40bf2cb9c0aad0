package geom

import "math"

// Axis is the orientation of a polyline segment.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

// String returns "H" or "V".
func (a Axis) String() string {
	if a == Vertical {
		return "V"
	}
	return "H"
}

// Other returns the perpendicular axis.
func (a Axis) Other() Axis {
	if a == Vertical {
		return Horizontal
	}
	return Vertical
}

// SegmentAxis classifies the segment a->b by its dominant delta. Ties,
// including zero-length segments, count as horizontal.
func SegmentAxis(a, b Point) Axis {
	if math.Abs(b.Y-a.Y) > math.Abs(b.X-a.X) {
		return Vertical
	}
	return Horizontal
}

// IsAxisAligned reports whether a and b share an X or a Y coordinate.
func IsAxisAligned(a, b Point) bool {
	return a.X == b.X || a.Y == b.Y
}

// IsOrthogonal reports whether every consecutive pair of points is
// axis-aligned. Polylines with fewer than two points are not orthogonal.
func IsOrthogonal(pts []Point) bool {
	if len(pts) < 2 {
		return false
	}
	for i := 1; i < len(pts); i++ {
		if !IsAxisAligned(pts[i-1], pts[i]) {
			return false
		}
	}
	return true
}

// Clone returns a copy of pts.
func Clone(pts []Point) []Point {
	if pts == nil {
		return nil
	}
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}

// Translate returns a copy of pts moved by d.
func Translate(pts []Point, d Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = p.Add(d)
	}
	return out
}

// Simplify drops repeated points and interior points lying on a straight run
// between their neighbours. The first and last points are always kept, so the
// result has at least two points whenever the input did.
func Simplify(pts []Point) []Point {
	if len(pts) <= 2 {
		return Clone(pts)
	}

	dedup := make([]Point, 0, len(pts))
	for _, p := range pts {
		if n := len(dedup); n > 0 && dedup[n-1] == p {
			continue
		}
		dedup = append(dedup, p)
	}
	if len(dedup) == 1 {
		return []Point{pts[0], pts[len(pts)-1]}
	}

	out := make([]Point, 0, len(dedup))
	out = append(out, dedup[0])
	for i := 1; i < len(dedup)-1; i++ {
		prev, cur, next := out[len(out)-1], dedup[i], dedup[i+1]
		if collinear(prev, cur, next) {
			continue
		}
		out = append(out, cur)
	}
	return append(out, dedup[len(dedup)-1])
}

func collinear(a, b, c Point) bool {
	return (a.X == b.X && b.X == c.X) || (a.Y == b.Y && b.Y == c.Y)
}

// Orthogonalize inserts an elbow between every pair of consecutive points
// that is not axis-aligned. The elbow leaves each point along first when it
// is the first segment, and otherwise along the axis perpendicular to the
// previous segment so the path keeps alternating.
func Orthogonalize(pts []Point, first Axis) []Point {
	if len(pts) < 2 {
		return Clone(pts)
	}
	out := make([]Point, 0, len(pts)*2)
	out = append(out, pts[0])
	leave := first
	for i := 1; i < len(pts); i++ {
		prev, cur := out[len(out)-1], pts[i]
		if !IsAxisAligned(prev, cur) {
			var elbow Point
			if leave == Horizontal {
				elbow = Point{cur.X, prev.Y}
			} else {
				elbow = Point{prev.X, cur.Y}
			}
			out = append(out, elbow)
			leave = SegmentAxis(elbow, cur).Other()
		} else {
			leave = SegmentAxis(prev, cur).Other()
		}
		out = append(out, cur)
	}
	return out
}

// Length returns the total length of the polyline.
func Length(pts []Point) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += math.Hypot(pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y)
	}
	return total
}
