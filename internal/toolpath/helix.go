package toolpath

import (
	"math"

	"github.com/piwi3910/camkernel/internal/model"
)

// HelixParams describes a helical descent around a fixed center.
type HelixParams struct {
	ToolID       string
	Center       model.Point2D
	Diameter     float64 // helix path diameter, not the tool diameter
	ZStart       float64
	ZEnd         float64
	AngleDeg     float64 // ramp angle of the helix
	Feed         float64
	Conventional bool
	ZSafe        float64
}

// DepthPerRev is the Z drop of one helix revolution: the circumference
// times the tangent of the ramp angle.
func DepthPerRev(diameter, angleDeg float64) float64 {
	return math.Pi * diameter * math.Tan(angleDeg*math.Pi/180)
}

// HelixMoves returns the descent alone, starting with a feed to the point
// on the circle at +X from the center. Each revolution is two half arcs and
// the descent ends with a full circle at ZEnd to clean up the floor.
func HelixMoves(p HelixParams) []Move {
	depth := p.ZStart - p.ZEnd
	perRev := DepthPerRev(p.Diameter, p.AngleDeg)
	if depth <= 0 || perRev <= 0 || math.IsInf(perRev, 0) {
		return nil
	}
	revs := int(math.Ceil(depth/perRev - 1e-9))
	if revs < 1 {
		revs = 1
	}
	step := depth / float64(revs)
	r := p.Diameter / 2
	cw := !p.Conventional
	sx, sy := p.Center.X+r, p.Center.Y
	ox := p.Center.X - r

	moves := []Move{FeedXY(sx, sy, p.Feed)}
	for i := 0; i < revs; i++ {
		z := p.ZStart - float64(i)*step
		next := z - step
		if i == revs-1 {
			next = p.ZEnd
		}
		moves = append(moves,
			HelixArc(cw, ox, sy, z-step/2, -r, 0, p.Feed),
			HelixArc(cw, sx, sy, next, r, 0, p.Feed),
		)
	}
	return append(moves,
		HelixArc(cw, ox, sy, p.ZEnd, -r, 0, p.Feed),
		HelixArc(cw, sx, sy, p.ZEnd, r, 0, p.Feed),
	)
}

// HelicalRamp wraps HelixMoves with positioning and a retract to safe Z.
func HelicalRamp(p HelixParams) Toolpath {
	descent := HelixMoves(p)
	var moves []Move
	if len(descent) > 0 {
		moves = append(moves, RapidXY(p.Center.X+p.Diameter/2, p.Center.Y), RapidZ(p.ZStart))
		moves = append(moves, descent...)
		moves = append(moves, RapidZ(p.ZSafe))
	}
	return New(model.OpHelicalEntry, p.ToolID, p.ZSafe, p.ZStart, moves)
}
