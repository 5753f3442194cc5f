package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/camkernel/internal/geometry"
	"github.com/piwi3910/camkernel/internal/model"
)

// DefaultMaxHoleDiameter is the largest circle imported as a drill hole.
const DefaultMaxHoleDiameter = 20.0

// chainTolerance is the largest endpoint gap joined when chaining segments.
const chainTolerance = 0.01

// DXFOptions controls how drawing entities become features.
type DXFOptions struct {
	// Circles up to this diameter become drill holes; larger circles become
	// boundaries. Zero selects DefaultMaxHoleDiameter, negative disables holes.
	MaxHoleDiameter float64
	// Normalize shifts every feature so the drawing extents start at (0, 0).
	Normalize bool
	// ArcSegments is the number of chords per full circle. Zero selects 64.
	ArcSegments int
}

// segment is a line between two points, used for chaining loose LINE and
// ARC entities into closed boundaries.
type segment struct {
	start model.Point2D
	end   model.Point2D
}

// ImportDXF reads machining features from a DXF drawing. Closed shapes
// (LWPOLYLINE, large CIRCLE, chains of LINE and ARC) become boundaries,
// ordered by area with the largest first; small circles become drill holes
// at their centers.
func ImportDXF(path string, opts DXFOptions) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	maxHole := opts.MaxHoleDiameter
	if maxHole == 0 {
		maxHole = DefaultMaxHoleDiameter
	}
	n := opts.ArcSegments
	if n <= 0 {
		n = 64
	}

	var outlines []model.Outline
	var segments []segment
	skipped := map[string]int{}

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			outline := lwPolylineToOutline(e, n/2)
			if len(outline) >= 3 {
				outlines = append(outlines, outline)
			} else {
				result.Warnings = append(result.Warnings,
					"Skipped LWPOLYLINE with fewer than 3 vertices")
			}

		case *entity.Circle:
			center := model.Point2D{X: e.Center[0], Y: e.Center[1]}
			if 2*e.Radius <= maxHole {
				result.Holes = append(result.Holes, center)
			} else {
				outlines = append(outlines, circleOutline(center, e.Radius, n))
			}

		case *entity.Arc:
			pts := arcPoints(e, n/2)
			for i := 0; i+1 < len(pts); i++ {
				segments = append(segments, segment{start: pts[i], end: pts[i+1]})
			}

		case *entity.Line:
			segments = append(segments, segment{
				start: model.Point2D{X: e.Start[0], Y: e.Start[1]},
				end:   model.Point2D{X: e.End[0], Y: e.End[1]},
			})

		default:
			skipped[fmt.Sprintf("%T", ent)]++
		}
	}

	chained, open := chainSegments(segments, chainTolerance)
	outlines = append(outlines, chained...)
	if open > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Skipped %d open chain(s) of LINE/ARC entities", open))
	}
	kinds := make([]string, 0, len(skipped))
	for k := range skipped {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped %d unsupported %s entities", skipped[k], k))
	}

	for _, o := range outlines {
		o = geometry.Dedupe(o, 1e-6)
		min, max := o.BoundingBox()
		if len(o) < 3 || max.X-min.X < 0.01 || max.Y-min.Y < 0.01 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f mm)", max.X-min.X, max.Y-min.Y))
			continue
		}
		result.Boundaries = append(result.Boundaries, o)
	}
	sort.SliceStable(result.Boundaries, func(i, j int) bool {
		return math.Abs(geometry.SignedArea(result.Boundaries[i])) > math.Abs(geometry.SignedArea(result.Boundaries[j]))
	})

	if len(result.Boundaries) == 0 && len(result.Holes) == 0 {
		result.Errors = append(result.Errors, "No closed shapes or holes found in DXF file")
		return result
	}

	if opts.Normalize {
		normalize(&result)
	}
	return result
}

// lwPolylineToOutline converts a LWPOLYLINE to an outline, interpolating
// bulged spans with n chords.
func lwPolylineToOutline(lw *entity.LwPolyline, n int) model.Outline {
	var outline model.Outline
	for i, v := range lw.Vertices {
		current := model.Point2D{X: v[0], Y: v[1]}
		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		if math.Abs(bulge) < 1e-9 {
			outline = append(outline, current)
			continue
		}
		nv := lw.Vertices[(i+1)%len(lw.Vertices)]
		pts := bulgePoints(current, model.Point2D{X: nv[0], Y: nv[1]}, bulge, n)
		outline = append(outline, pts[:len(pts)-1]...)
	}
	return outline
}

// bulgePoints interpolates the arc from p1 to p2 whose bulge is the tangent
// of a quarter of the included angle. Positive bulges run counter-clockwise.
func bulgePoints(p1, p2 model.Point2D, bulge float64, n int) []model.Point2D {
	chord := p1.Dist(p2)
	if chord < 1e-9 {
		return []model.Point2D{p1, p2}
	}
	sweep := 4 * math.Atan(bulge)
	radius := chord / (2 * math.Sin(math.Abs(sweep)/2))

	// Center lies on the chord bisector, left of p1->p2 for CCW arcs under
	// half a turn.
	mid := p1.Add(p2).Scale(0.5)
	d := p2.Sub(p1).Scale(1 / chord)
	h := math.Sqrt(math.Max(radius*radius-chord*chord/4, 0))
	if math.Abs(sweep) > math.Pi {
		h = -h
	}
	if bulge < 0 {
		h = -h
	}
	center := model.Point2D{X: mid.X - d.Y*h, Y: mid.Y + d.X*h}

	start := math.Atan2(p1.Y-center.Y, p1.X-center.X)
	pts := make([]model.Point2D, n+1)
	for i := 0; i <= n; i++ {
		a := start + sweep*float64(i)/float64(n)
		pts[i] = model.Point2D{X: center.X + radius*math.Cos(a), Y: center.Y + radius*math.Sin(a)}
	}
	pts[n] = p2
	return pts
}

// circleOutline approximates a circle as a counter-clockwise regular polygon.
func circleOutline(c model.Point2D, r float64, n int) model.Outline {
	outline := make(model.Outline, n)
	for i := range outline {
		a := 2 * math.Pi * float64(i) / float64(n)
		outline[i] = model.Point2D{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	return outline
}

// arcPoints converts a counter-clockwise DXF ARC to n chords.
func arcPoints(a *entity.Arc, n int) []model.Point2D {
	cx, cy, r := a.Circle.Center[0], a.Circle.Center[1], a.Circle.Radius
	start := a.Angle[0] * math.Pi / 180
	end := a.Angle[1] * math.Pi / 180
	if end <= start {
		end += 2 * math.Pi
	}

	pts := make([]model.Point2D, n+1)
	for i := range pts {
		ang := start + (end-start)*float64(i)/float64(n)
		pts[i] = model.Point2D{X: cx + r*math.Cos(ang), Y: cy + r*math.Sin(ang)}
	}
	return pts
}

// chainSegments joins segments whose endpoints lie within tol into closed
// outlines. It also returns the number of chains that did not close.
func chainSegments(segs []segment, tol float64) ([]model.Outline, int) {
	used := make([]bool, len(segs))
	var outlines []model.Outline
	open := 0

	for first := range segs {
		if used[first] {
			continue
		}
		used[first] = true
		chain := []model.Point2D{segs[first].start, segs[first].end}

		for extended := true; extended; {
			extended = false
			tail := chain[len(chain)-1]
			for i, s := range segs {
				if used[i] {
					continue
				}
				switch {
				case tail.Dist(s.start) <= tol:
					chain = append(chain, s.end)
				case tail.Dist(s.end) <= tol:
					chain = append(chain, s.start)
				default:
					continue
				}
				used[i] = true
				extended = true
				break
			}
		}

		if len(chain) >= 4 && chain[0].Dist(chain[len(chain)-1]) <= tol {
			outlines = append(outlines, model.Outline(chain[:len(chain)-1]))
		} else {
			open++
		}
	}
	return outlines, open
}

// normalize shifts boundaries and holes so the feature extents start at the
// origin.
func normalize(r *ImportResult) {
	var all model.Outline
	for _, b := range r.Boundaries {
		all = append(all, b...)
	}
	all = append(all, r.Holes...)
	if len(all) == 0 {
		return
	}
	min, _ := all.BoundingBox()
	for i, b := range r.Boundaries {
		r.Boundaries[i] = b.Translate(-min.X, -min.Y)
	}
	r.Holes = model.Outline(r.Holes).Translate(-min.X, -min.Y)
}
