package engagement

import (
	"testing"

	"github.com/piwi3910/camkernel/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestScallopHeight_KnownValue(t *testing.T) {
	// r=5, stepover=6: 5 - sqrt(25 - 9) = 1
	assert.InDelta(t, 1.0, ScallopHeight(5, 6), 1e-12)
}

func TestScallopHeight_FullRadiusBeyondDiameter(t *testing.T) {
	assert.Equal(t, 5.0, ScallopHeight(5, 10))
	assert.Equal(t, 5.0, ScallopHeight(5, 25))
	assert.Equal(t, 0.0, ScallopHeight(5, 0))
}

func TestScallopHeight_Monotonic(t *testing.T) {
	prev := -1.0
	for s := 0.0; s <= 12; s += 0.05 {
		h := ScallopHeight(5, s)
		assert.GreaterOrEqual(t, h, prev, "stepover %.2f", s)
		prev = h
	}
}

func TestStepoverFromScallop_RoundTrip(t *testing.T) {
	for _, r := range []float64{0.5, 3, 5, 12.7} {
		for s := 0.0; s <= 2*r; s += r / 20 {
			got := StepoverFromScallop(r, ScallopHeight(r, s))
			assert.InDelta(t, s, got, 1e-6, "r=%.2f s=%.3f", r, s)
		}
	}
}

func TestStepoverFromScallop_TargetAtOrAboveRadius(t *testing.T) {
	assert.Equal(t, 10.0, StepoverFromScallop(5, 5))
	assert.Equal(t, 10.0, StepoverFromScallop(5, 7))
}

func TestChipThinning_NoCompensationAtHalfDiameter(t *testing.T) {
	r := ChipThinning(0.05, 5, 10)
	assert.Equal(t, 1.0, r.CompensationFactor)
	assert.Equal(t, 0.05, r.ActualChipload)

	r = ChipThinning(0.05, 10, 10)
	assert.Equal(t, 1.0, r.CompensationFactor)
}

func TestChipThinning_KnownValue(t *testing.T) {
	// ae/D = 0.1: 1/sin(acos(0.8)) = 1/0.6
	r := ChipThinning(0.05, 1, 10)
	assert.InDelta(t, 1/0.6, r.CompensationFactor, 1e-9)
	assert.InDelta(t, 0.05*0.6, r.ActualChipload, 1e-9)
	assert.InDelta(t, 0.05/0.6, r.CompensatedChipload, 1e-9)
	assert.InDelta(t, 1000/0.6, r.CompensatedFeed(1000), 1e-6)
}

func TestChipThinning_FactorBoundedAndNonIncreasing(t *testing.T) {
	prev := MaxChipThinningFactor + 1
	for ae := 0.0; ae <= 10; ae += 0.01 {
		f := ChipThinning(0.04, ae, 10).CompensationFactor
		assert.GreaterOrEqual(t, f, 1.0)
		assert.LessOrEqual(t, f, MaxChipThinningFactor)
		assert.LessOrEqual(t, f, prev, "ae=%.2f", ae)
		prev = f
	}
	assert.Equal(t, MaxChipThinningFactor, ChipThinning(0.04, 0, 10).CompensationFactor)
}

func TestRadialEngagementFromAngle(t *testing.T) {
	r := RadialEngagementFromAngle(90, 10)
	assert.InDelta(t, 5.0, r.RadialDepth, 1e-9)
	assert.InDelta(t, 50.0, r.StepoverPercent, 1e-9)
	assert.True(t, r.Optimal)

	r = RadialEngagementFromAngle(180, 10)
	assert.InDelta(t, 10.0, r.RadialDepth, 1e-9)
	assert.False(t, r.Optimal)

	r = RadialEngagementFromAngle(40, 10)
	assert.False(t, r.Optimal)
}

func TestEngagementAngleFromRadial_Inverse(t *testing.T) {
	for angle := 5.0; angle <= 175; angle += 5 {
		ae := RadialEngagementFromAngle(angle, 12).RadialDepth
		assert.InDelta(t, angle, EngagementAngleFromRadial(ae, 12).EngagementAngle, 1e-6)
	}
}

func TestOptimalStepover_PerMaterial(t *testing.T) {
	alu := model.DefaultMaterials.Get("aluminum")
	r := OptimalStepover(alu, 10)
	assert.InDelta(t, 100.0, r.EngagementAngle, 1e-9)
	assert.True(t, r.Optimal)

	inconel := model.DefaultMaterials.Get("inconel")
	r = OptimalStepover(inconel, 10)
	assert.InDelta(t, 40.0, r.EngagementAngle, 1e-9)
	assert.False(t, r.Optimal)
	assert.Less(t, r.RadialDepth, OptimalStepover(alu, 10).RadialDepth)
}

func TestFeedRate(t *testing.T) {
	assert.InDelta(t, 1200.0, FeedRate(10000, 3, 0.04), 1e-9)
}
