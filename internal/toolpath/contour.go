package toolpath

import (
	"math"

	"github.com/piwi3910/camkernel/internal/geometry"
	"github.com/piwi3910/camkernel/internal/model"
)

// ContourParams describes a profile cut along a boundary.
type ContourParams struct {
	ToolID        string
	ToolDiameter  float64
	Boundary      model.Outline
	Side          model.ContourSide
	StockToLeave  float64
	ZTop          float64
	ZBottom       float64
	StepDown      float64
	Feed          float64
	PlungeFeed    float64
	ZSafe         float64
	Clearance     float64
	LeadInRadius  float64
	LeadOutRadius float64
}

// ContourPath returns the tool-center path for a profile: the boundary
// offset to the chosen side of its direction of travel by the tool radius
// plus stock to leave.
func ContourPath(boundary model.Outline, side model.ContourSide, toolDiameter, stockToLeave float64) model.Outline {
	d := toolDiameter/2 + stockToLeave
	switch side {
	case model.SideLeft:
		return geometry.OffsetLeft(boundary, d)
	case model.SideRight:
		return geometry.OffsetLeft(boundary, -d)
	default:
		return geometry.Dedupe(boundary, 1e-6)
	}
}

// Contour2D follows the offset path at each depth level, closing the loop
// back to its start. With lead radii set, each level enters and leaves on a
// tangential quarter arc from the side away from the part.
func Contour2D(p ContourParams) Toolpath {
	return New(model.OpContour2D, p.ToolID, p.ZSafe, p.ZTop, contourMoves(p))
}

func contourMoves(p ContourParams) []Move {
	zs := levels(p.ZTop, p.ZBottom, p.StepDown)
	if len(zs) == 0 || p.ToolDiameter <= 0 {
		return nil
	}
	path := ContourPath(p.Boundary, p.Side, p.ToolDiameter, p.StockToLeave)
	if len(path) < 3 {
		return nil
	}
	clearance := p.Clearance
	if clearance <= 0 {
		clearance = DefaultClearance
	}
	plunge := p.PlungeFeed
	if plunge <= 0 {
		plunge = p.Feed
	}

	start := path[0]
	away := 1.0
	if p.Side == model.SideRight {
		away = -1
	}
	in, hasIn := leadIn(start, path[1], p.LeadInRadius, away, p.Feed)
	out, hasOut := leadOut(path[len(path)-1], start, p.LeadOutRadius, away, p.Feed)
	leads := hasIn || hasOut
	entry := start
	if hasIn {
		entry = in.from
	}

	moves := []Move{RapidXY(entry.X, entry.Y), RapidZ(p.ZTop + clearance)}
	for i, z := range zs {
		if i > 0 && leads {
			moves = append(moves, RapidZ(p.ZTop+clearance), RapidXY(entry.X, entry.Y))
		}
		moves = append(moves, Plunge(z, plunge))
		if hasIn {
			moves = append(moves, in.move)
		}
		for _, v := range path[1:] {
			moves = append(moves, FeedXY(v.X, v.Y, p.Feed))
		}
		moves = append(moves, FeedXY(start.X, start.Y, p.Feed))
		if hasOut {
			moves = append(moves, out.move)
		}
	}
	return append(moves, RapidZ(p.ZSafe))
}

type leadArc struct {
	from model.Point2D
	move Move
}

// leadIn builds a quarter arc that arrives at start tangent to the first
// edge. away is +1 when the approach side is left of travel, -1 for right.
func leadIn(start, next model.Point2D, radius, away, feed float64) (leadArc, bool) {
	t, ok := unit(next.Sub(start))
	if radius <= 0 || !ok {
		return leadArc{}, false
	}
	n := model.Point2D{X: -t.Y * away, Y: t.X * away}
	center := start.Add(n.Scale(radius))
	from := center.Sub(t.Scale(radius))
	i, j := center.X-from.X, center.Y-from.Y
	return leadArc{from: from, move: Arc(away < 0, start.X, start.Y, i, j, feed)}, true
}

// leadOut builds a quarter arc leaving end tangent to the closing edge.
func leadOut(prev, end model.Point2D, radius, away, feed float64) (leadArc, bool) {
	t, ok := unit(end.Sub(prev))
	if radius <= 0 || !ok {
		return leadArc{}, false
	}
	n := model.Point2D{X: -t.Y * away, Y: t.X * away}
	center := end.Add(n.Scale(radius))
	to := center.Add(t.Scale(radius))
	i, j := center.X-end.X, center.Y-end.Y
	return leadArc{from: end, move: Arc(away < 0, to.X, to.Y, i, j, feed)}, true
}

func unit(v model.Point2D) (model.Point2D, bool) {
	l := math.Hypot(v.X, v.Y)
	if l < 1e-12 {
		return model.Point2D{}, false
	}
	return v.Scale(1 / l), true
}
