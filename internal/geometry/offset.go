// Package geometry provides the 2D polygon routines used by the toolpath
// generators: orientation, point containment and a miter-join offset.
//
// The offset is a local heuristic, not a general polygon offsetter: each
// vertex is moved along the bisector of its two edge normals and the miter is
// capped at 4x the offset distance. Self-intersections produced on sharp or
// concave boundaries are not resolved; callers detect collapse through the
// nil result of Offset.
package geometry

import (
	"math"

	"github.com/piwi3910/camkernel/internal/model"
)

// MiterLimit caps the miter length as a multiple of the offset distance.
const MiterLimit = 4.0

const eps = 1e-9

// SignedArea returns the shoelace area; positive for counter-clockwise outlines.
func SignedArea(o model.Outline) float64 {
	n := len(o)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += o[i].X*o[j].Y - o[j].X*o[i].Y
	}
	return area / 2
}

// IsCCW reports whether the outline winds counter-clockwise.
func IsCCW(o model.Outline) bool {
	return SignedArea(o) > 0
}

// CCW returns the outline wound counter-clockwise.
func CCW(o model.Outline) model.Outline {
	if SignedArea(o) < 0 {
		return o.Reversed()
	}
	return o
}

// Dedupe drops consecutive vertices closer than tol, including a closing
// vertex that repeats the first one.
func Dedupe(o model.Outline, tol float64) model.Outline {
	if len(o) == 0 {
		return nil
	}
	result := make(model.Outline, 0, len(o))
	for _, p := range o {
		if len(result) > 0 && p.Dist(result[len(result)-1]) <= tol {
			continue
		}
		result = append(result, p)
	}
	for len(result) > 1 && result[0].Dist(result[len(result)-1]) <= tol {
		result = result[:len(result)-1]
	}
	return result
}

// leftNormal returns the unit normal pointing left of travel along (dx, dy).
func leftNormal(dx, dy float64) (float64, float64) {
	length := math.Hypot(dx, dy)
	if length < eps {
		return 0, 0
	}
	return -dy / length, dx / length
}

// OffsetLeft moves every vertex by d along the miter of the left-hand normals
// of its adjacent edges. Negative d offsets to the right. The miter length is
// capped at MiterLimit*|d|.
func OffsetLeft(o model.Outline, d float64) model.Outline {
	o = Dedupe(o, eps)
	if len(o) < 3 {
		return nil
	}
	if d == 0 {
		result := make(model.Outline, len(o))
		copy(result, o)
		return result
	}
	return Dedupe(offsetVertices(o, d), 1e-6)
}

// offsetVertices offsets each vertex of a deduplicated outline, keeping a
// one-to-one correspondence with the input vertices.
func offsetVertices(o model.Outline, d float64) model.Outline {
	n := len(o)
	result := make(model.Outline, n)
	for i := 0; i < n; i++ {
		prev := o[(i-1+n)%n]
		curr := o[i]
		next := o[(i+1)%n]

		n1x, n1y := leftNormal(curr.X-prev.X, curr.Y-prev.Y)
		n2x, n2y := leftNormal(next.X-curr.X, next.Y-curr.Y)

		mx, my := n1x+n2x, n1y+n2y
		mLen := math.Hypot(mx, my)
		if mLen < eps {
			// Edge folds back on itself; push straight out along the first normal.
			mx, my, mLen = n1x, n1y, 1
		}
		mx /= mLen
		my /= mLen

		cosHalf := mx*n1x + my*n1y
		length := d
		if cosHalf > eps {
			length = d / cosHalf
		}
		if limit := MiterLimit * math.Abs(d); math.Abs(length) > limit {
			length = math.Copysign(limit, d)
		}

		result[i] = model.Point2D{X: curr.X + mx*length, Y: curr.Y + my*length}
	}
	return result
}

// reversesEdge reports whether any offset edge points against its source
// edge, which happens when an inset passes through itself.
func reversesEdge(src, off model.Outline) bool {
	n := len(src)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sx, sy := src[j].X-src[i].X, src[j].Y-src[i].Y
		ox, oy := off[j].X-off[i].X, off[j].Y-off[i].Y
		if sx*ox+sy*oy < -eps {
			return true
		}
	}
	return false
}

// Offset grows the outline by d regardless of its winding: positive d moves
// outward, negative d inward. An inward offset that collapses (fewer than
// three vertices, flipped orientation, no shrink, or vertices escaping the
// original outline) returns nil, as does one whose edges turn back on
// themselves or that brings a vertex closer than |d| to any wall.
func Offset(o model.Outline, d float64) model.Outline {
	area := SignedArea(o)
	if math.Abs(area) < eps {
		return nil
	}
	// Outward is to the right of travel for a counter-clockwise outline.
	side := -1.0
	if area < 0 {
		side = 1.0
	}
	if d >= 0 {
		return OffsetLeft(o, side*d)
	}
	src := Dedupe(o, eps)
	if len(src) < 3 {
		return nil
	}
	raw := offsetVertices(src, side*d)
	if reversesEdge(src, raw) {
		return nil
	}
	result := Dedupe(raw, 1e-6)
	if len(result) < 3 {
		return nil
	}

	shrunk := SignedArea(result)
	if math.Abs(shrunk) < eps || math.Signbit(shrunk) != math.Signbit(area) {
		return nil
	}
	if math.Abs(shrunk) >= math.Abs(area) {
		return nil
	}
	clearance := math.Abs(d) - wallTolerance*math.Max(1, math.Abs(d))
	for _, p := range result {
		if !Contains(o, p) || WallDistance(src, p) < clearance {
			return nil
		}
	}
	return result
}

// wallTolerance is the relative slack allowed when checking that an inset
// keeps its distance from the boundary.
const wallTolerance = 1e-6

// WallDistance returns the distance from p to the nearest edge of the
// closed outline o.
func WallDistance(o model.Outline, p model.Point2D) float64 {
	best := math.Inf(1)
	n := len(o)
	for i := 0; i < n; i++ {
		best = math.Min(best, segmentDistance(o[i], o[(i+1)%n], p))
	}
	return best
}

func segmentDistance(a, b, p model.Point2D) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 < eps*eps {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = math.Min(math.Max(t, 0), 1)
	return p.Dist(a.Add(ab.Scale(t)))
}

// Contains reports whether p lies inside the outline (even-odd rule).
// Points on the boundary may report either way.
func Contains(o model.Outline, p model.Point2D) bool {
	inside := false
	n := len(o)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := o[i], o[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Centroid returns the area centroid of the outline, falling back to the
// vertex average for degenerate outlines.
func Centroid(o model.Outline) model.Point2D {
	area := SignedArea(o)
	if math.Abs(area) < eps {
		var c model.Point2D
		if len(o) == 0 {
			return c
		}
		for _, p := range o {
			c = c.Add(p)
		}
		return c.Scale(1 / float64(len(o)))
	}
	var cx, cy float64
	n := len(o)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := o[i].X*o[j].Y - o[j].X*o[i].Y
		cx += (o[i].X + o[j].X) * cross
		cy += (o[i].Y + o[j].Y) * cross
	}
	return model.Point2D{X: cx / (6 * area), Y: cy / (6 * area)}
}
