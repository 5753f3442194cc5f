// Package engine plans a job: it resolves tools and cutting data, picks
// entry strategies, runs the toolpath generators, checks every toolpath
// against the stock and assembles the program.
package engine

import (
	"errors"
	"fmt"

	"github.com/piwi3910/camkernel/internal/engagement"
	"github.com/piwi3910/camkernel/internal/entry"
	"github.com/piwi3910/camkernel/internal/gcode"
	"github.com/piwi3910/camkernel/internal/model"
	"github.com/piwi3910/camkernel/internal/toolpath"
)

var (
	// ErrUnknownTool is returned when an operation names a tool the library lacks.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrUnknownOperation is returned for an operation type the planner cannot dispatch.
	ErrUnknownOperation = errors.New("unknown operation type")
)

// OperationResult is everything the planner derived for one operation.
type OperationResult struct {
	Operation    model.Operation
	Tool         model.ToolSpec
	ToolNumber   int
	SpindleRPM   int
	Feed         float64
	PlungeFeed   float64
	Entry        *entry.Params
	Engagement   *engagement.EngagementResult
	ChipThinning *engagement.ChipThinningResult
	Toolpath     toolpath.Toolpath
	Collision    *gcode.CollisionCheckResult
}

// JobResult is the outcome of planning a job.
type JobResult struct {
	Job        model.Job
	Operations []OperationResult
	Program    gcode.GCodeProgram
	Safe       bool
	Warnings   []string
	Errors     []string
}

// Planner turns jobs into verified programs. Its tables are injected and
// never modified, so one planner may serve concurrent Plan calls.
type Planner struct {
	Tools     model.ToolLibrary
	Materials model.MaterialTable
	Config    model.AppConfig
	selector  entry.Selector
}

// NewPlanner creates a planner. A nil material table selects the built-in one.
func NewPlanner(tools model.ToolLibrary, materials model.MaterialTable, cfg model.AppConfig) *Planner {
	if len(materials) == 0 {
		materials = model.DefaultMaterials
	}
	return &Planner{
		Tools:     tools,
		Materials: materials,
		Config:    cfg,
		selector:  entry.NewSelector(materials),
	}
}

// Plan generates, verifies and assembles every operation of job. The job is
// not modified. Degenerate operations and unsafe verdicts are reported in
// the result; an error means the job itself is malformed.
func (p *Planner) Plan(job model.Job) (JobResult, error) {
	job.Operations = append([]model.Operation(nil), job.Operations...)
	p.Config.ApplyToJob(&job)

	ops := job.Operations
	if job.GroupByTool {
		ops = GroupByTool(ops)
	}

	result := JobResult{Job: job, Safe: true}
	mat := p.Materials.Get(job.Material)
	if _, ok := p.Materials.Lookup(job.Material); !ok {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("unknown material %q, using %s limits", job.Material, mat.Name))
	}

	var blocks []gcode.Block
	for i, op := range ops {
		if op.Name == "" {
			op.Name = fmt.Sprintf("%s %d", op.Type, i+1)
		}
		tool, ok := p.Tools.Resolve(op.ToolID)
		if !ok {
			Logger().Warn("unknown tool", "operation", op.Name, "tool", op.ToolID)
			return result, fmt.Errorf("operation %q: %w %q", op.Name, ErrUnknownTool, op.ToolID)
		}

		or, err := p.planOperation(job, op, tool, mat)
		if err != nil {
			return result, fmt.Errorf("operation %q: %w", op.Name, err)
		}
		or.ToolNumber = p.toolNumber(tool)

		if or.Entry != nil && !or.Entry.Cuttable() {
			msg := fmt.Sprintf("%s: %s", op.Name, or.Entry.Rationale)
			result.Errors = append(result.Errors, msg)
			Logger().Warn("pre-drill required", "operation", op.Name, "rationale", or.Entry.Rationale)
		} else if or.Toolpath.IsEmpty() {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: no toolpath generated (degenerate geometry or zero depth)", op.Name))
			Logger().Warn("empty toolpath", "operation", op.Name)
		}

		if job.Stock.IsZero() {
			if i == 0 {
				result.Warnings = append(result.Warnings, "no stock bounds set, collision checks skipped")
			}
		} else {
			check := gcode.CheckCollisionsWithOptions(or.Toolpath, job.Stock, tool, gcode.CheckOptions{
				NearMissClearance: p.Config.NearMissClearance,
			})
			or.Collision = &check
			if !check.Safe {
				result.Safe = false
				Logger().Warn("unsafe toolpath", "operation", op.Name, "critical", len(check.Critical()))
			}
			result.Warnings = append(result.Warnings, gcode.FormatCollisionWarnings(op.Name, check)...)
		}

		Logger().Debug("operation planned",
			"operation", op.Name,
			"type", string(op.Type),
			"tool", tool.Describe(),
			"rpm", or.SpindleRPM,
			"feed", or.Feed,
			"moves", len(or.Toolpath.Moves),
			"cutting_mm", or.Toolpath.Stats.CuttingDistance,
			"minutes", or.Toolpath.Stats.EstimatedTime,
		)

		result.Operations = append(result.Operations, or)
		if !or.Toolpath.IsEmpty() {
			blocks = append(blocks, gcode.Block{
				Label:      op.Name,
				Toolpath:   or.Toolpath,
				Tool:       tool,
				ToolNumber: or.ToolNumber,
				SpindleRPM: float64(or.SpindleRPM),
				Coolant:    op.Coolant,
				WorkOffset: op.WorkOffset,
			})
		}
	}

	result.Program = gcode.New(job.Controller, job.ProgramNumber).Assemble(job.Name, blocks)
	Logger().Info("program assembled",
		"job", job.Name,
		"controller", string(result.Program.Controller),
		"lines", result.Program.LineCount,
		"minutes", result.Program.EstimatedTime,
		"safe", result.Safe,
	)
	return result, nil
}

// toolNumber is the tool's 1-based position in the library.
func (p *Planner) toolNumber(tool model.ToolSpec) int {
	for i, t := range p.Tools.Tools {
		if t.ID == tool.ID {
			return i + 1
		}
	}
	return 1
}

func (p *Planner) planOperation(job model.Job, op model.Operation, tool model.ToolSpec, mat model.MaterialEntryFactors) (OperationResult, error) {
	cd := model.CalculateCuttingData(tool, mat)
	or := OperationResult{
		Operation:  op,
		Tool:       tool,
		SpindleRPM: op.SpindleRPM,
		Feed:       op.Feed,
		PlungeFeed: op.PlungeFeed,
	}
	if or.SpindleRPM <= 0 {
		or.SpindleRPM = cd.SpindleRPM
	}
	if or.Feed <= 0 {
		or.Feed = cd.Feed
	}
	if or.PlungeFeed <= 0 {
		or.PlungeFeed = cd.PlungeFeed
	}

	var tp toolpath.Toolpath
	switch op.Type {
	case model.OpFaceMill:
		lo, hi := job.Stock.Min.XY(), job.Stock.Max.XY()
		if len(op.Boundary) > 0 {
			lo, hi = op.Boundary.BoundingBox()
		}
		tp = toolpath.FaceMill(toolpath.FaceMillParams{
			ToolID:          tool.ID,
			ToolDiameter:    tool.Diameter,
			Min:             lo,
			Max:             hi,
			ZTop:            op.ZTop,
			ZBottom:         op.ZBottom,
			StepDown:        op.StepDown,
			StepoverPercent: op.StepoverPercent,
			Feed:            or.Feed,
			PlungeFeed:      or.PlungeFeed,
			RapidHeight:     op.RetractHeight,
			ZSafe:           job.ZSafe,
		})

	case model.OpPocket2D:
		stepover := p.pocketStepover(op, tool, mat, &or)
		if cd.Chipload > 0 && op.Feed <= 0 {
			ct := engagement.ChipThinning(cd.Chipload, stepover, tool.Diameter)
			or.ChipThinning = &ct
			or.Feed = ct.CompensatedFeed(or.Feed)
		}
		sel := p.selector.SelectFeature(tool, job.Material, op.Boundary, op.ZTop-op.ZBottom)
		sel.Conventional = op.Conventional
		or.Entry = &sel
		if !sel.Cuttable() {
			tp = toolpath.New(model.OpPocket2D, tool.ID, job.ZSafe, op.ZTop, sel.Moves)
			break
		}
		tp = toolpath.Pocket2D(toolpath.PocketParams{
			ToolID:       tool.ID,
			ToolDiameter: tool.Diameter,
			Boundary:     op.Boundary,
			ZTop:         op.ZTop,
			ZBottom:      op.ZBottom,
			StepDown:     op.StepDown,
			Stepover:     stepover,
			Feed:         or.Feed,
			PlungeFeed:   or.PlungeFeed,
			Conventional: op.Conventional,
			ZSafe:        job.ZSafe,
			MaxOffsets:   p.Config.MaxPocketOffsets,
			Entry:        sel.EntryFunc(or.Feed),
		})

	case model.OpContour2D:
		side := op.Side
		if side == "" {
			side = model.SideOn
		}
		tp = toolpath.Contour2D(toolpath.ContourParams{
			ToolID:        tool.ID,
			ToolDiameter:  tool.Diameter,
			Boundary:      op.Boundary,
			Side:          side,
			StockToLeave:  op.StockToLeave,
			ZTop:          op.ZTop,
			ZBottom:       op.ZBottom,
			StepDown:      op.StepDown,
			Feed:          or.Feed,
			PlungeFeed:    or.PlungeFeed,
			ZSafe:         job.ZSafe,
			LeadInRadius:  op.LeadInRadius,
			LeadOutRadius: op.LeadOutRadius,
		})

	case model.OpHelicalEntry:
		diameter := op.HelixDiameter
		if diameter <= 0 {
			diameter = entry.HelixDiameterRatio * tool.Diameter
		}
		angle := op.HelixAngle
		if angle <= 0 {
			angle = mat.HelixAngleMax
		}
		tp = toolpath.HelicalRamp(toolpath.HelixParams{
			ToolID:       tool.ID,
			Center:       op.Center,
			Diameter:     diameter,
			ZStart:       op.ZTop,
			ZEnd:         op.ZBottom,
			AngleDeg:     angle,
			Feed:         or.Feed,
			Conventional: op.Conventional,
			ZSafe:        job.ZSafe,
		})

	case model.OpPeckDrill:
		tp = toolpath.PeckDrill(toolpath.PeckDrillParams{
			ToolID:        tool.ID,
			Holes:         op.Holes,
			ZTop:          op.ZTop,
			ZBottom:       op.ZBottom,
			PeckDepth:     op.PeckDepth,
			RetractHeight: op.RetractHeight,
			Feed:          or.PlungeFeed,
			DwellSeconds:  op.DwellSeconds,
			ZSafe:         job.ZSafe,
		})

	default:
		return or, fmt.Errorf("%w %q", ErrUnknownOperation, op.Type)
	}

	or.Toolpath = tp.WithRapidRate(p.Config.RapidRate)
	return or, nil
}

// pocketStepover resolves the stepover of a pocket: an explicit distance,
// then a percentage of the tool diameter, then the material's optimum
// engagement.
func (p *Planner) pocketStepover(op model.Operation, tool model.ToolSpec, mat model.MaterialEntryFactors, or *OperationResult) float64 {
	switch {
	case op.Stepover > 0:
		e := engagement.EngagementAngleFromRadial(op.Stepover, tool.Diameter)
		or.Engagement = &e
		return op.Stepover
	case op.StepoverPercent > 0:
		ae := tool.Diameter * op.StepoverPercent / 100
		e := engagement.EngagementAngleFromRadial(ae, tool.Diameter)
		or.Engagement = &e
		return ae
	default:
		e := engagement.OptimalStepover(mat, tool.Diameter)
		or.Engagement = &e
		return e.RadialDepth
	}
}
