package toolpath

import (
	"github.com/piwi3910/camkernel/internal/geometry"
	"github.com/piwi3910/camkernel/internal/model"
)

// DefaultMaxOffsets bounds the number of inward offset loops per pocket.
const DefaultMaxOffsets = 500

// DefaultClearance is the height above the stock top that rapids stop at
// before a feed move takes over.
const DefaultClearance = 1.0

// EntryFunc produces the moves that take the tool from zFrom down to zTo
// near at. The returned moves may wander in XY; the caller feeds back to
// the path start afterwards.
type EntryFunc func(at model.Point2D, zFrom, zTo float64) []Move

// PocketParams describes a 2D pocket cleared by inward offsets of its boundary.
type PocketParams struct {
	ToolID       string
	ToolDiameter float64
	Boundary     model.Outline
	ZTop         float64
	ZBottom      float64
	StepDown     float64
	Stepover     float64 // distance between successive loops
	Feed         float64
	PlungeFeed   float64
	Conventional bool
	ZSafe        float64
	Clearance    float64
	MaxOffsets   int
	Entry        EntryFunc // nil means plunge
}

// Pocket2D clears a closed boundary level by level. Each level runs the
// offset loops from the innermost outward, so the tool enters in open
// space and finishes on the wall. Climb milling runs the loops
// counter-clockwise, conventional clockwise.
func Pocket2D(p PocketParams) Toolpath {
	return New(model.OpPocket2D, p.ToolID, p.ZSafe, p.ZTop, pocketMoves(p))
}

// PocketLoops returns the offset loops of a pocket, outermost first. The
// first loop sits one tool radius inside the boundary.
func PocketLoops(boundary model.Outline, toolDiameter, stepover float64, maxOffsets int) []model.Outline {
	if toolDiameter <= 0 || len(boundary) < 3 {
		return nil
	}
	if maxOffsets <= 0 {
		maxOffsets = DefaultMaxOffsets
	}
	r := toolDiameter / 2
	var loops []model.Outline
	for k := 0; k < maxOffsets; k++ {
		loop := geometry.Offset(boundary, -(r + float64(k)*stepover))
		if len(loop) < 3 {
			break
		}
		loops = append(loops, loop)
		if stepover <= 0 {
			break
		}
	}
	return loops
}

func pocketMoves(p PocketParams) []Move {
	zs := levels(p.ZTop, p.ZBottom, p.StepDown)
	if len(zs) == 0 {
		return nil
	}
	loops := PocketLoops(p.Boundary, p.ToolDiameter, p.Stepover, p.MaxOffsets)
	if len(loops) == 0 {
		return nil
	}
	ordered := make([]model.Outline, 0, len(loops))
	for i := len(loops) - 1; i >= 0; i-- {
		loop := geometry.CCW(loops[i])
		if p.Conventional {
			loop = loop.Reversed()
		}
		ordered = append(ordered, loop)
	}

	inner := ordered[0]
	at := geometry.Centroid(inner)
	if !geometry.Contains(inner, at) {
		at = inner[0]
	}
	clearance := p.Clearance
	if clearance <= 0 {
		clearance = DefaultClearance
	}
	plunge := p.PlungeFeed
	if plunge <= 0 {
		plunge = p.Feed
	}

	var moves []Move
	zFrom := p.ZTop + clearance
	for _, z := range zs {
		moves = append(moves, RapidXY(at.X, at.Y), RapidZ(p.ZTop+clearance))
		if zFrom < p.ZTop {
			moves = append(moves, FeedZ(zFrom, plunge))
		}
		if p.Entry != nil {
			moves = append(moves, p.Entry(at, zFrom, z)...)
		} else {
			moves = append(moves, Plunge(z, plunge))
		}
		for _, loop := range ordered {
			moves = append(moves, FeedXY(loop[0].X, loop[0].Y, p.Feed))
			for _, v := range loop[1:] {
				moves = append(moves, FeedXY(v.X, v.Y, p.Feed))
			}
			moves = append(moves, FeedXY(loop[0].X, loop[0].Y, p.Feed))
		}
		moves = append(moves, RapidZ(p.ZSafe))
		zFrom = z
	}
	return moves
}
