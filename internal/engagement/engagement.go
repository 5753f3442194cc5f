// Package engagement converts between stepover, scallop height, radial depth
// and engagement angle, and computes chip-thinning feed compensation.
// Every function is a pure conversion of its arguments.
package engagement

import (
	"math"

	"github.com/piwi3910/camkernel/internal/model"
)

// MaxChipThinningFactor clamps the compensation factor as ae/D approaches zero.
const MaxChipThinningFactor = 3.0

// Engagement angles considered optimal for radial engagement, in degrees.
const (
	OptimalAngleMin = 60.0
	OptimalAngleMax = 120.0
)

// EngagementResult describes a radial engagement.
type EngagementResult struct {
	EngagementAngle float64 `json:"engagement_angle"` // degrees
	RadialDepth     float64 `json:"radial_depth"`     // mm (ae)
	StepoverPercent float64 `json:"stepover_percent"` // ae as a percentage of tool diameter
	Optimal         bool    `json:"optimal"`
}

// ChipThinningResult describes the chip-thinning compensation at a radial depth.
type ChipThinningResult struct {
	ProgrammedChipload  float64 `json:"programmed_chipload"`  // mm/tooth
	ActualChipload      float64 `json:"actual_chipload"`      // mm/tooth at the programmed feed
	CompensationFactor  float64 `json:"compensation_factor"`  // feed multiplier
	CompensatedChipload float64 `json:"compensated_chipload"` // chipload to program for the intended thickness
}

// CompensatedFeed scales a feed so the actual chip thickness matches the
// programmed chipload.
func (r ChipThinningResult) CompensatedFeed(feed float64) float64 {
	return feed * r.CompensationFactor
}

// ScallopHeight returns the cusp height left between passes of a round tool
// profile of radius r at the given stepover. Stepovers of 2r or more leave a
// full-radius cusp.
func ScallopHeight(r, stepover float64) float64 {
	if r <= 0 || stepover <= 0 {
		return 0
	}
	if stepover >= 2*r {
		return r
	}
	half := stepover / 2
	return r - math.Sqrt(r*r-half*half)
}

// StepoverFromScallop is the inverse of ScallopHeight: the stepover that
// leaves the target cusp height. Targets of r or more return 2r.
func StepoverFromScallop(r, target float64) float64 {
	if r <= 0 || target <= 0 {
		return 0
	}
	if target >= r {
		return 2 * r
	}
	return 2 * math.Sqrt(2*r*target-target*target)
}

// ChipThinning computes the feed compensation needed to hold the programmed
// chipload at radial depth ae with a tool of the given diameter. At or above
// half-diameter engagement no compensation applies.
func ChipThinning(programmedChipload, ae, toolDiameter float64) ChipThinningResult {
	factor := chipThinningFactor(ae, toolDiameter)
	return ChipThinningResult{
		ProgrammedChipload:  programmedChipload,
		ActualChipload:      programmedChipload / factor,
		CompensationFactor:  factor,
		CompensatedChipload: programmedChipload * factor,
	}
}

func chipThinningFactor(ae, d float64) float64 {
	if d <= 0 {
		return 1.0
	}
	ratio := ae / d
	if ratio >= 0.5 {
		return 1.0
	}
	if ratio <= 0 {
		return MaxChipThinningFactor
	}
	f := 1.0 / math.Sin(math.Acos(1-2*ratio))
	return math.Min(math.Max(f, 1.0), MaxChipThinningFactor)
}

// RadialEngagementFromAngle converts an engagement angle in degrees to the
// radial depth that produces it. Angles are clamped to [0, 180].
func RadialEngagementFromAngle(angleDeg, toolDiameter float64) EngagementResult {
	angle := math.Min(math.Max(angleDeg, 0), 180)
	ae := toolDiameter / 2 * (1 - math.Cos(angle*math.Pi/180))
	return newResult(angle, ae, toolDiameter)
}

// EngagementAngleFromRadial converts a radial depth to an engagement angle in
// degrees. Depths beyond the tool diameter are full slotting (180).
func EngagementAngleFromRadial(ae, toolDiameter float64) EngagementResult {
	if toolDiameter <= 0 {
		return EngagementResult{}
	}
	ae = math.Min(math.Max(ae, 0), toolDiameter)
	angle := math.Acos(1-2*ae/toolDiameter) * 180 / math.Pi
	return newResult(angle, ae, toolDiameter)
}

// OptimalStepover returns the radial engagement at the material's preferred
// engagement angle.
func OptimalStepover(material model.MaterialEntryFactors, toolDiameter float64) EngagementResult {
	angle := material.OptimalEngagement
	if angle <= 0 {
		angle = 70
	}
	angle = math.Min(math.Max(angle, 40), 100)
	return RadialEngagementFromAngle(angle, toolDiameter)
}

// FeedRate returns the table feed in mm/min for a spindle speed, flute count
// and chipload per tooth.
func FeedRate(rpm float64, flutes int, chipload float64) float64 {
	return rpm * float64(flutes) * chipload
}

func newResult(angle, ae, d float64) EngagementResult {
	pct := 0.0
	if d > 0 {
		pct = ae / d * 100
	}
	return EngagementResult{
		EngagementAngle: angle,
		RadialDepth:     ae,
		StepoverPercent: pct,
		Optimal:         angle >= OptimalAngleMin && angle <= OptimalAngleMax,
	}
}
