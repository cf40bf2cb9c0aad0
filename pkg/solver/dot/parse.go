package dot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/erdtower/pkg/geom"
)

// parsePoint parses an "x,y" attribute value. A trailing "!" (pinned
// position) is ignored.
func parsePoint(s string) (geom.Point, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "!")
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geom.Point{}, fmt.Errorf("malformed point %q", s)
	}
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return geom.Point{}, fmt.Errorf("malformed point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return geom.Point{}, fmt.Errorf("malformed point %q: %w", s, err)
	}
	return geom.Pt(x, y), nil
}

// parseBB parses a "llx,lly,urx,ury" bounding box into its lower-left and
// upper-right corners, still in Graphviz's y-up space.
func parseBB(s string) (ll, ur geom.Point, err error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 4 {
		return ll, ur, fmt.Errorf("malformed bounding box %q", s)
	}
	var v [4]float64
	for i, p := range parts {
		if v[i], err = strconv.ParseFloat(p, 64); err != nil {
			return ll, ur, fmt.Errorf("malformed bounding box %q: %w", s, err)
		}
	}
	return geom.Pt(v[0], v[1]), geom.Pt(v[2], v[3]), nil
}

// parseSpline returns the corner points of an edge "pos" value. Arrow
// endpoints ("s,x,y" and "e,x,y") are skipped. The remaining control points
// form cubic Bezier pieces; with orthogonal splines every piece is a
// straight run, so its corners are every third control point.
func parseSpline(s string) ([]geom.Point, error) {
	var ctrl []geom.Point
	for _, tok := range strings.Fields(strings.ReplaceAll(s, `\`, " ")) {
		if strings.HasPrefix(tok, "s,") || strings.HasPrefix(tok, "e,") {
			continue
		}
		p, err := parsePoint(tok)
		if err != nil {
			return nil, err
		}
		ctrl = append(ctrl, p)
	}
	if len(ctrl) == 0 {
		return nil, nil
	}
	pts := make([]geom.Point, 0, len(ctrl)/3+2)
	for i := 0; i < len(ctrl); i += 3 {
		pts = append(pts, ctrl[i])
	}
	if last := ctrl[len(ctrl)-1]; pts[len(pts)-1] != last {
		pts = append(pts, last)
	}
	return pts, nil
}

// frame maps Graphviz coordinates (points, y up, origin at the bounding box's
// lower-left corner) to layout coordinates (y down, shifted by the root
// padding).
type frame struct {
	llx, ury   float64
	offX, offY float64
}

func (f frame) point(p geom.Point) geom.Point {
	return geom.Pt(p.X-f.llx+f.offX, f.ury-p.Y+f.offY)
}

// rect converts a y-up bounding box to a top-left rectangle.
func (f frame) rect(ll, ur geom.Point) geom.Rect {
	tl := f.point(geom.Pt(ll.X, ur.Y))
	return geom.Rect{X: tl.X, Y: tl.Y, Width: ur.X - ll.X, Height: ur.Y - ll.Y}
}
