// Package entry decides how a cutter gets down to depth inside a feature:
// straight plunge, helix, linear ramp, or not at all without a pre-drilled
// hole.
package entry

import (
	"fmt"
	"math"

	"github.com/piwi3910/camkernel/internal/model"
	"github.com/piwi3910/camkernel/internal/toolpath"
)

// Strategy is the chosen entry method.
type Strategy string

const (
	StrategyPlunge   Strategy = "plunge"
	StrategyHelix    Strategy = "helix"
	StrategyRamp     Strategy = "ramp"
	StrategyPreDrill Strategy = "pre_drill"
)

const (
	// HelixDiameterRatio sizes the helix relative to the tool diameter.
	HelixDiameterRatio = 0.7
	// HelixWidthRatio is the feature width, in tool diameters, above which a helix fits.
	HelixWidthRatio = 1.5
	// PlungeFeedFactor reduces the feed for plunges into solid material.
	PlungeFeedFactor = 0.5
	// MaxRampLegs bounds the zig-zag of a ramp entry. A ramp needing more
	// legs than this does not fit the feature.
	MaxRampLegs = 100
)

// Params is the outcome of entry selection. Moves is the canonical descent
// from Z0 to -depth at the origin; use MovesAt to place it in a toolpath.
type Params struct {
	Strategy      Strategy
	Moves         []toolpath.Move
	Rationale     string
	Material      string
	HelixDiameter float64
	Angle         float64 // degrees, helix or ramp
	RampLength    float64
	FeedFactor    float64
	MaxLeg        float64 // longest straight ramp run the feature allows, 0 for unlimited
	Conventional  bool

	// RampAxis is the unit direction ramps run along; zero means +X.
	// RampLo and RampHi bound the tool center along it when the feature
	// outline is known, so a ramp heads towards the side with more room.
	RampAxis model.Point2D
	RampLo   float64
	RampHi   float64
}

// Cuttable reports whether the moves can be trusted to cut. A pre-drill
// verdict carries only an advisory comment.
func (p Params) Cuttable() bool {
	return p.Strategy != StrategyPreDrill
}

// Selector chooses entry strategies from an injected material table.
type Selector struct {
	Materials model.MaterialTable
}

// NewSelector returns a selector over materials, or the built-in table when nil.
func NewSelector(materials model.MaterialTable) Selector {
	if len(materials) == 0 {
		materials = model.DefaultMaterials
	}
	return Selector{Materials: materials}
}

// Select runs the priority cascade: hole-making tools plunge; features wider
// than 1.5 tool diameters take a helix; wider than the tool, a ramp; then a
// reduced-feed plunge where the material tolerates it; otherwise a pre-drilled
// hole is required.
func (s Selector) Select(tool model.ToolSpec, material string, featureWidth, depth float64) Params {
	return s.selectEntry(tool, material, featureWidth, featureWidth, depth, nil)
}

// SelectFeature selects an entry for a closed feature outline. The width
// is the short side of its bounding box; a ramp runs along the long side.
func (s Selector) SelectFeature(tool model.ToolSpec, material string, boundary model.Outline, depth float64) Params {
	lo, hi := boundary.BoundingBox()
	w, h := hi.X-lo.X, hi.Y-lo.Y
	r := tool.Radius()
	axis := rampAxis{dir: model.Point2D{X: 1}, lo: lo.X + r, hi: hi.X - r}
	if h > w {
		axis = rampAxis{dir: model.Point2D{Y: 1}, lo: lo.Y + r, hi: hi.Y - r}
	}
	return s.selectEntry(tool, material, math.Min(w, h), math.Max(w, h), depth, &axis)
}

type rampAxis struct {
	dir    model.Point2D
	lo, hi float64
}

// rampFits reports whether a ramp of the given run fits in legs of maxLeg
// without exceeding MaxRampLegs.
func rampFits(run, maxLeg float64) bool {
	if run <= 0 {
		return true
	}
	return maxLeg > 0 && math.Ceil(run/maxLeg-1e-9) <= MaxRampLegs
}

func (s Selector) selectEntry(tool model.ToolSpec, material string, featureWidth, featureLength, depth float64, axis *rampAxis) Params {
	mat := s.table().Get(material)
	d := tool.Diameter
	p := Params{Material: mat.Name, FeedFactor: 1}
	maxLeg := (featureLength - d) / 2
	rampRun := RampLength(math.Abs(depth), mat.RampAngleMax)

	switch {
	case tool.Family.IsHoleMaking():
		p.Strategy = StrategyPlunge
		p.Rationale = fmt.Sprintf("%s enters axially; plunge straight to depth", tool.Family)
	case featureWidth > HelixWidthRatio*d:
		p.Strategy = StrategyHelix
		p.HelixDiameter = HelixDiameterRatio * d
		p.Angle = mat.HelixAngleMax
		p.Rationale = fmt.Sprintf("feature width %.3f exceeds %.1fx tool diameter; helix D%.3f at %.1f deg for %s",
			featureWidth, HelixWidthRatio, p.HelixDiameter, p.Angle, mat.Name)
	case featureWidth > d && rampFits(rampRun, maxLeg):
		p.Strategy = StrategyRamp
		p.Angle = mat.RampAngleMax
		p.RampLength = rampRun
		p.MaxLeg = maxLeg
		if axis != nil {
			p.RampAxis = axis.dir
			p.RampLo, p.RampHi = axis.lo, axis.hi
		}
		p.Rationale = fmt.Sprintf("feature width %.3f fits a ramp; %.1f deg over %.3f for %s",
			featureWidth, p.Angle, p.RampLength, mat.Name)
	case mat.PlungeOK:
		p.Strategy = StrategyPlunge
		p.FeedFactor = PlungeFeedFactor
		p.Rationale = fmt.Sprintf("feature too narrow to ramp; %s tolerates a reduced-feed plunge", mat.Name)
		if featureWidth > d {
			p.Rationale = fmt.Sprintf("ramp needs more than %d legs; %s tolerates a reduced-feed plunge", MaxRampLegs, mat.Name)
		}
	default:
		p.Strategy = StrategyPreDrill
		p.Rationale = fmt.Sprintf("feature width %.3f too narrow for D%.3f and %s cannot be plunged; pre-drill required",
			featureWidth, d, mat.Name)
	}
	p.Moves = p.MovesAt(model.Point2D{}, 0, -math.Abs(depth), 0)
	return p
}

// RampLength is the run needed to descend depth at angleDeg.
func RampLength(depth, angleDeg float64) float64 {
	t := math.Tan(angleDeg * math.Pi / 180)
	if t <= 0 || depth <= 0 {
		return 0
	}
	return depth / t
}

func (s Selector) table() model.MaterialTable {
	if len(s.Materials) == 0 {
		return model.DefaultMaterials
	}
	return s.Materials
}

// MovesAt builds the entry descent at a position, from zFrom to zTo, using
// feed as the base cutting feed.
func (p Params) MovesAt(at model.Point2D, zFrom, zTo, feed float64) []toolpath.Move {
	switch p.Strategy {
	case StrategyPlunge:
		factor := p.FeedFactor
		if factor <= 0 {
			factor = 1
		}
		return []toolpath.Move{toolpath.Plunge(zTo, feed*factor)}
	case StrategyHelix:
		return toolpath.HelixMoves(toolpath.HelixParams{
			Center:       at,
			Diameter:     p.HelixDiameter,
			ZStart:       zFrom,
			ZEnd:         zTo,
			AngleDeg:     p.Angle,
			Feed:         feed,
			Conventional: p.Conventional,
		})
	case StrategyRamp:
		return p.rampMoves(at, zFrom, zTo, feed)
	default:
		return []toolpath.Move{toolpath.Comment("PRE-DRILL REQUIRED: " + p.Rationale)}
	}
}

// rampMoves descends along the ramp axis in legs no longer than MaxLeg,
// going out and back, and finishes back over at. The leg count never
// exceeds MaxRampLegs; a descent that would need more ends with one last
// leg to zTo.
func (p Params) rampMoves(at model.Point2D, zFrom, zTo, feed float64) []toolpath.Move {
	depth := zFrom - zTo
	slope := math.Tan(p.Angle * math.Pi / 180)
	if depth <= 0 || slope <= 0 {
		return nil
	}
	maxLeg := p.MaxLeg
	if maxLeg <= 0 {
		maxLeg = depth / slope
	}

	dir := p.RampAxis
	if dir == (model.Point2D{}) {
		dir = model.Point2D{X: 1}
	}
	if p.RampHi > p.RampLo {
		a := at.X*dir.X + at.Y*dir.Y
		if a-p.RampLo > p.RampHi-a {
			dir = dir.Scale(-1)
		}
	}

	var moves []toolpath.Move
	offset, z := 0.0, zFrom
	out := true
	for i := 0; z > zTo+1e-9; i++ {
		leg := (z - zTo) / slope
		if leg > maxLeg && i < MaxRampLegs-1 {
			leg = maxLeg
			z -= leg * slope
		} else {
			leg = math.Min(leg, maxLeg)
			z = zTo
		}
		if out {
			offset += leg
		} else {
			offset -= leg
		}
		out = !out
		pt := at.Add(dir.Scale(offset))
		moves = append(moves, toolpath.Ramp(pt.X, pt.Y, z, feed))
	}
	if math.Abs(offset) > 1e-9 {
		moves = append(moves, toolpath.FeedXY(at.X, at.Y, feed))
	}
	return moves
}

// EntryFunc adapts a selection into a generator entry hook.
func (p Params) EntryFunc(feed float64) toolpath.EntryFunc {
	return func(at model.Point2D, zFrom, zTo float64) []toolpath.Move {
		return p.MovesAt(at, zFrom, zTo, feed)
	}
}
