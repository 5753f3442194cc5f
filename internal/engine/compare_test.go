package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/camkernel/internal/model"
	"github.com/piwi3910/camkernel/internal/toolpath"
)

func newTestPocketParams() toolpath.PocketParams {
	return toolpath.PocketParams{
		ToolID:       "em10",
		ToolDiameter: 10,
		Boundary:     model.Rectangle(0, 0, 100, 50),
		ZTop:         0,
		ZBottom:      -3,
		StepDown:     3,
		Feed:         1000,
		PlungeFeed:   300,
		ZSafe:        25,
	}
}

func TestCompareStepovers(t *testing.T) {
	scenarios := []StepoverScenario{
		{Name: "Wide", Stepover: 5},
		{Name: "Fine", Stepover: 2.5},
	}
	results := CompareStepovers(scenarios, newTestPocketParams(), 5000, nil)
	require.Len(t, results, 2)

	wide, fine := results[0], results[1]
	assert.Equal(t, "Wide", wide.Scenario.Name)
	assert.Equal(t, "Fine", fine.Scenario.Name)

	assert.Equal(t, 4, wide.Loops)
	assert.Greater(t, fine.Loops, wide.Loops)
	assert.Greater(t, fine.Stats.CuttingDistance, wide.Stats.CuttingDistance)
	assert.Less(t, fine.ScallopHeight, wide.ScallopHeight)
	assert.InDelta(t, 0.6699, wide.ScallopHeight, 1e-4)

	assert.InDelta(t, 90.0, wide.EngagementAngle, 1e-9)
	assert.InDelta(t, 1.0, wide.ThinningFactor, 1e-9)
	assert.Greater(t, fine.ThinningFactor, 1.0)
	assert.Equal(t, 5000.0, wide.Toolpath.RapidRate)
}

func TestCompareStepovers_Empty(t *testing.T) {
	assert.Empty(t, CompareStepovers(nil, newTestPocketParams(), 0, nil))
}

func TestBuildDefaultStepoverScenarios(t *testing.T) {
	alu, _ := model.DefaultMaterials.Lookup("aluminum")

	scenarios := BuildDefaultStepoverScenarios(5, 10, alu)
	require.Len(t, scenarios, 5)
	assert.Equal(t, "Current Stepover", scenarios[0].Name)
	assert.Equal(t, 5.0, scenarios[0].Stepover)
	assert.Equal(t, "Optimal aluminum (100 deg)", scenarios[1].Name)
	assert.Equal(t, "25% of D", scenarios[2].Name)
	assert.InDelta(t, 2.5, scenarios[2].Stepover, 1e-9)
}

func TestBuildDefaultStepoverScenarios_SkipsDuplicates(t *testing.T) {
	alu, _ := model.DefaultMaterials.Lookup("aluminum")

	scenarios := BuildDefaultStepoverScenarios(4, 10, alu)
	assert.Len(t, scenarios, 4, "40% of D equals the current stepover")

	scenarios = BuildDefaultStepoverScenarios(0, 10, alu)
	assert.Len(t, scenarios, 4, "zero current stepover is left out")
}

func TestComparePocket(t *testing.T) {
	p := newTestPlanner()
	res, err := p.Plan(newTestJob())
	require.NoError(t, err)

	pocket := res.Operations[0]
	comparisons := p.ComparePocket(res, pocket)
	require.Len(t, comparisons, 4, "current equals the optimum, so it is not repeated")

	current := comparisons[0]
	assert.Equal(t, "Current Stepover", current.Scenario.Name)
	assert.InDelta(t, pocket.Engagement.RadialDepth, current.Scenario.Stepover, 1e-9)
	assert.Equal(t, pocket.Toolpath.Stats.CuttingMoves, current.Stats.CuttingMoves)
	assert.InDelta(t, pocket.Toolpath.Stats.CuttingDistance, current.Stats.CuttingDistance, 1e-6)

	assert.Nil(t, p.ComparePocket(res, res.Operations[1]), "drilling has no stepover")
}

func TestComparePocket_RescalesThinnedFeed(t *testing.T) {
	p := newTestPlanner()
	res, err := p.Plan(newTestJob())
	require.NoError(t, err)

	pocket := res.Operations[0]
	require.NotNil(t, pocket.ChipThinning)
	comparisons := p.ComparePocket(res, pocket)
	require.NotEmpty(t, comparisons)

	assert.InDelta(t, pocket.Feed, comparisons[0].Feed, 1e-6, "current stepover keeps the planned feed")
	fullSlot := pocket.Feed / pocket.ChipThinning.CompensationFactor
	for _, c := range comparisons {
		assert.InDelta(t, fullSlot*c.ThinningFactor, c.Feed, 1e-6, c.Scenario.Name)
	}

	quarter := comparisons[len(comparisons)-3]
	assert.Equal(t, "25% of D", quarter.Scenario.Name)
	assert.Greater(t, quarter.Feed, comparisons[0].Feed)
}

func TestComparePocket_KeepsProgrammedFeed(t *testing.T) {
	p := newTestPlanner()
	job := newTestJob()
	job.Operations[0].Feed = 750
	res, err := p.Plan(job)
	require.NoError(t, err)

	pocket := res.Operations[0]
	assert.Nil(t, pocket.ChipThinning)
	for _, c := range p.ComparePocket(res, pocket) {
		assert.Equal(t, 750.0, c.Feed, c.Scenario.Name)
	}
}
