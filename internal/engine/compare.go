package engine

import (
	"fmt"

	"github.com/piwi3910/camkernel/internal/engagement"
	"github.com/piwi3910/camkernel/internal/model"
	"github.com/piwi3910/camkernel/internal/toolpath"
)

// StepoverScenario is a named stepover to compare.
type StepoverScenario struct {
	Name     string
	Stepover float64 // mm
}

// StepoverComparison holds the pocket toolpath and derived figures for one
// scenario.
type StepoverComparison struct {
	Scenario        StepoverScenario
	Toolpath        toolpath.Toolpath
	ScallopHeight   float64 // mm, for a ball of the tool radius
	EngagementAngle float64 // degrees
	ThinningFactor  float64
	Feed            float64 // mm/min the scenario cuts at
	Loops           int
	Stats           toolpath.Stats
}

// Retune adjusts the pocket parameters of one scenario after its stepover
// is set, typically to rescale a chip-thinned feed.
type Retune func(params *toolpath.PocketParams)

// CompareStepovers generates the pocket of base once per scenario and
// returns the results in scenario order. The stepover differs between runs,
// plus whatever retune changes for it, so the statistics show the what-if
// cost of each choice. A nil retune keeps every other parameter of base.
func CompareStepovers(scenarios []StepoverScenario, base toolpath.PocketParams, rapidRate float64, retune Retune) []StepoverComparison {
	results := make([]StepoverComparison, 0, len(scenarios))

	for _, scenario := range scenarios {
		params := base
		params.Stepover = scenario.Stepover
		if retune != nil {
			retune(&params)
		}
		tp := toolpath.Pocket2D(params).WithRapidRate(rapidRate)

		e := engagement.EngagementAngleFromRadial(scenario.Stepover, base.ToolDiameter)
		ct := engagement.ChipThinning(1, scenario.Stepover, base.ToolDiameter)
		loops := toolpath.PocketLoops(base.Boundary, base.ToolDiameter, scenario.Stepover, base.MaxOffsets)

		results = append(results, StepoverComparison{
			Scenario:        scenario,
			Toolpath:        tp,
			ScallopHeight:   engagement.ScallopHeight(base.ToolDiameter/2, scenario.Stepover),
			EngagementAngle: e.EngagementAngle,
			ThinningFactor:  ct.CompensationFactor,
			Feed:            params.Feed,
			Loops:           len(loops),
			Stats:           tp.Stats,
		})
	}

	return results
}

// BuildDefaultStepoverScenarios generates the current stepover plus the
// common alternatives: the material's optimum engagement and 25%, 40% and
// 60% of the tool diameter. Alternatives equal to the current stepover are
// left out.
func BuildDefaultStepoverScenarios(current, toolDiameter float64, material model.MaterialEntryFactors) []StepoverScenario {
	var scenarios []StepoverScenario
	seen := map[string]bool{}
	add := func(name string, stepover float64) {
		key := fmt.Sprintf("%.3f", stepover)
		if stepover <= 0 || seen[key] {
			return
		}
		seen[key] = true
		scenarios = append(scenarios, StepoverScenario{Name: name, Stepover: stepover})
	}

	add("Current Stepover", current)

	opt := engagement.OptimalStepover(material, toolDiameter)
	add(fmt.Sprintf("Optimal %s (%.0f deg)", material.Name, opt.EngagementAngle), opt.RadialDepth)

	for _, pct := range []float64{25, 40, 60} {
		add(fmt.Sprintf("%.0f%% of D", pct), toolDiameter*pct/100)
	}

	return scenarios
}

// ComparePocket reruns a planned pocket at the current stepover and the
// default alternatives, keeping its tool, depths and entry. A feed derived
// with chip-thinning compensation is recomputed per stepover. It
// returns nil for other operation types and for pockets stopped for a
// pre-drill.
func (p *Planner) ComparePocket(res JobResult, r OperationResult) []StepoverComparison {
	if r.Operation.Type != model.OpPocket2D || r.Engagement == nil {
		return nil
	}
	if r.Entry != nil && !r.Entry.Cuttable() {
		return nil
	}

	base := toolpath.PocketParams{
		ToolID:       r.Tool.ID,
		ToolDiameter: r.Tool.Diameter,
		Boundary:     r.Operation.Boundary,
		ZTop:         r.Operation.ZTop,
		ZBottom:      r.Operation.ZBottom,
		StepDown:     r.Operation.StepDown,
		Feed:         r.Feed,
		PlungeFeed:   r.PlungeFeed,
		Conventional: r.Operation.Conventional,
		ZSafe:        res.Job.ZSafe,
		MaxOffsets:   p.Config.MaxPocketOffsets,
	}
	if r.Entry != nil {
		base.Entry = r.Entry.EntryFunc(r.Feed)
	}

	mat := p.Materials.Get(res.Job.Material)
	scenarios := BuildDefaultStepoverScenarios(r.Engagement.RadialDepth, r.Tool.Diameter, mat)
	return CompareStepovers(scenarios, base, p.Config.RapidRate, thinnedFeed(r))
}

// thinnedFeed rescales a derived pocket feed for each stepover the way the
// planner did for the planned one. Feeds set on the operation are kept.
func thinnedFeed(r OperationResult) Retune {
	ct := r.ChipThinning
	if ct == nil || ct.CompensationFactor <= 0 {
		return nil
	}
	fullSlot := r.Feed / ct.CompensationFactor
	return func(params *toolpath.PocketParams) {
		params.Feed = engagement.ChipThinning(ct.ProgrammedChipload, params.Stepover, params.ToolDiameter).
			CompensatedFeed(fullSlot)
		if r.Entry != nil {
			params.Entry = r.Entry.EntryFunc(params.Feed)
		}
	}
}
