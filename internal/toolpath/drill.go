package toolpath

import (
	"fmt"
	"math"

	"github.com/piwi3910/camkernel/internal/model"
)

// DefaultRetractClearance is added to the hole top when no usable retract
// height is given.
const DefaultRetractClearance = 2.0

// PeckClearance is how far above the previous peck depth the tool is
// rapided back before feeding again.
const PeckClearance = 0.5

// PeckDrillParams describes peck drilling at one or more positions.
type PeckDrillParams struct {
	ToolID        string
	Holes         []model.Point2D
	ZTop          float64
	ZBottom       float64
	PeckDepth     float64 // zero drills in one feed
	RetractHeight float64 // must be above ZTop, defaults to ZTop + 2
	Feed          float64
	DwellSeconds  float64
	ZSafe         float64
}

// PeckDrill feeds down in pecks, fully retracting to the retract height
// after every peck but the last and rapiding back to just above the
// previous depth before the next one. After the final peck an optional
// dwell comment is added and the tool leaves to safe Z.
func PeckDrill(p PeckDrillParams) Toolpath {
	return New(model.OpPeckDrill, p.ToolID, p.ZSafe, p.ZTop, peckMoves(p))
}

// PeckDepths returns the successive depths of a peck cycle.
func PeckDepths(top, bottom, peck float64) []float64 {
	return levels(top, bottom, peck)
}

func peckMoves(p PeckDrillParams) []Move {
	depths := PeckDepths(p.ZTop, p.ZBottom, p.PeckDepth)
	if len(depths) == 0 || len(p.Holes) == 0 {
		return nil
	}
	retract := p.RetractHeight
	if retract <= p.ZTop {
		retract = p.ZTop + DefaultRetractClearance
	}

	var moves []Move
	for _, h := range p.Holes {
		moves = append(moves, RapidXY(h.X, h.Y), RapidZ(retract))
		for i, z := range depths {
			if i > 0 {
				moves = append(moves, RapidZ(math.Min(depths[i-1]+PeckClearance, retract)))
			}
			moves = append(moves, FeedZ(z, p.Feed))
			if i < len(depths)-1 {
				moves = append(moves, RapidZ(retract))
			}
		}
		if p.DwellSeconds > 0 {
			moves = append(moves, Comment(fmt.Sprintf("DWELL %.2fS", p.DwellSeconds)))
		}
		moves = append(moves, RapidZ(p.ZSafe))
	}
	return moves
}
