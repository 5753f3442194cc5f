package toolpath

import (
	"github.com/piwi3910/camkernel/internal/model"
)

// DefaultStepoverPercent is used when a generator is given no stepover.
const DefaultStepoverPercent = 70.0

// FaceMillParams describes a boustrophedon facing pass over a rectangle.
type FaceMillParams struct {
	ToolID          string
	ToolDiameter    float64
	Min, Max        model.Point2D // region to face
	ZTop            float64
	ZBottom         float64 // finished face height
	StepDown        float64
	StepoverPercent float64 // percent of the tool diameter between passes
	Feed            float64
	PlungeFeed      float64
	RapidHeight     float64 // retract height between reversals, defaults to ZTop + 2
	ZSafe           float64
}

// FaceMill generates parallel passes along X, alternating direction, and
// retracting to the rapid height between passes. Each pass starts and ends
// clear of the region by the tool radius plus a small approach.
func FaceMill(p FaceMillParams) Toolpath {
	return New(model.OpFaceMill, p.ToolID, p.ZSafe, p.ZTop, faceMillMoves(p))
}

func faceMillMoves(p FaceMillParams) []Move {
	if p.ToolDiameter <= 0 || p.Max.X <= p.Min.X || p.Max.Y < p.Min.Y {
		return nil
	}
	zs := levels(p.ZTop, p.ZBottom, p.StepDown)
	if len(zs) == 0 {
		return nil
	}
	pct := p.StepoverPercent
	if pct <= 0 {
		pct = DefaultStepoverPercent
	}
	spacing := p.ToolDiameter * pct / 100
	if span := p.Max.Y - p.Min.Y; span/spacing > MaxLevels {
		spacing = span / MaxLevels
	}
	rapidZ := p.RapidHeight
	if rapidZ <= p.ZTop {
		rapidZ = p.ZTop + 2
	}
	plunge := p.PlungeFeed
	if plunge <= 0 {
		plunge = p.Feed
	}

	var ys []float64
	for y := p.Min.Y; y < p.Max.Y-1e-9; y += spacing {
		ys = append(ys, y)
	}
	ys = append(ys, p.Max.Y)

	approach := p.ToolDiameter/2 + 2
	left, right := p.Min.X-approach, p.Max.X+approach

	var moves []Move
	moves = append(moves, RapidXY(left, ys[0]), RapidZ(rapidZ))
	pass := 0
	for _, z := range zs {
		for _, y := range ys {
			from, to := left, right
			if pass%2 == 1 {
				from, to = right, left
			}
			moves = append(moves,
				RapidXY(from, y),
				Plunge(z, plunge),
				FeedXY(to, y, p.Feed),
				RapidZ(rapidZ),
			)
			pass++
		}
	}
	return append(moves, RapidZ(p.ZSafe))
}
