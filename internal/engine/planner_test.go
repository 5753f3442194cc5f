package engine

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/camkernel/internal/entry"
	"github.com/piwi3910/camkernel/internal/model"
	"github.com/piwi3910/camkernel/internal/toolpath"
)

func newTestLibrary() model.ToolLibrary {
	em := model.NewToolSpec("10mm Carbide End Mill", model.ToolEndMill, 10, 22, 72, 4)
	em.ID = "em10"
	drill := model.NewToolSpec("8.5mm Drill", model.ToolDrill, 8.5, 43, 103, 2)
	drill.ID = "dr85"
	return model.ToolLibrary{Tools: []model.ToolSpec{em, drill}}
}

func newTestJob() model.Job {
	return model.Job{
		ID:       "job1",
		Name:     "Bracket",
		Material: "aluminum",
		Stock:    model.NewStockBounds(0, 0, -20, 100, 50, 0),
		Operations: []model.Operation{
			{
				Name:     "Pocket",
				Type:     model.OpPocket2D,
				ToolID:   "em10",
				ZTop:     0,
				ZBottom:  -6,
				StepDown: 3,
				Boundary: model.Rectangle(0, 0, 100, 50),
			},
			{
				Name:      "Holes",
				Type:      model.OpPeckDrill,
				ToolID:    "dr85",
				ZTop:      0,
				ZBottom:   -10,
				PeckDepth: 3,
				Holes:     []model.Point2D{{X: 20, Y: 25}, {X: 80, Y: 25}},
			},
		},
	}
}

func newTestPlanner() *Planner {
	return NewPlanner(newTestLibrary(), nil, model.DefaultAppConfig())
}

func TestPlan_PocketAndDrill(t *testing.T) {
	res, err := newTestPlanner().Plan(newTestJob())
	require.NoError(t, err)
	require.Len(t, res.Operations, 2)

	assert.True(t, res.Safe)
	assert.Empty(t, res.Errors)

	pocket := res.Operations[0]
	assert.Equal(t, 1, pocket.ToolNumber)
	assert.Equal(t, 9549, pocket.SpindleRPM)
	assert.Equal(t, 3056.0, pocket.Feed, "no chip thinning above half-diameter engagement")
	require.NotNil(t, pocket.Entry)
	assert.Equal(t, entry.StrategyHelix, pocket.Entry.Strategy)
	require.NotNil(t, pocket.Engagement)
	assert.InDelta(t, 100.0, pocket.Engagement.EngagementAngle, 1e-6)
	require.NotNil(t, pocket.Collision)
	assert.True(t, pocket.Collision.Safe)
	assert.Equal(t, model.DefaultAppConfig().RapidRate, pocket.Toolpath.RapidRate)

	drill := res.Operations[1]
	assert.Equal(t, 2, drill.ToolNumber)
	assert.Nil(t, drill.Entry)
	assert.Equal(t, model.OpPeckDrill, drill.Toolpath.Operation)

	code := res.Program.String()
	for _, want := range []string{
		"O1000",
		"(Bracket)",
		"(Pocket - T1 10mm Carbide End Mill D10.000 4FL)",
		"T1 M6",
		"S9549 M3",
		"M8",
		"G54",
		"G43 H1 Z25.000",
		"G2 ",
		"T2 M6",
		"M30",
	} {
		assert.Contains(t, code, want)
	}
	assert.Less(t, strings.Index(code, "T1 M6"), strings.Index(code, "T2 M6"))
	assert.InDelta(t, pocket.Toolpath.Stats.EstimatedTime+drill.Toolpath.Stats.EstimatedTime,
		res.Program.EstimatedTime, 1e-9)
}

func TestPlan_DoesNotModifyJob(t *testing.T) {
	job := newTestJob()
	_, err := newTestPlanner().Plan(job)
	require.NoError(t, err)

	assert.Equal(t, "", job.Operations[0].WorkOffset)
	assert.Equal(t, model.CoolantMode(""), job.Operations[0].Coolant)
	assert.Equal(t, model.ControllerType(""), job.Controller)
}

func TestPlan_Deterministic(t *testing.T) {
	p := newTestPlanner()
	a, err := p.Plan(newTestJob())
	require.NoError(t, err)
	b, err := p.Plan(newTestJob())
	require.NoError(t, err)
	assert.Equal(t, a.Program.String(), b.Program.String())
}

func TestPlan_UnknownTool(t *testing.T) {
	job := newTestJob()
	job.Operations[1].ToolID = "missing"

	_, err := newTestPlanner().Plan(job)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTool)
	assert.Contains(t, err.Error(), "Holes")
}

func TestPlan_ResolvesToolByName(t *testing.T) {
	job := newTestJob()
	job.Operations[1].ToolID = "8.5MM DRILL"

	res, err := newTestPlanner().Plan(job)
	require.NoError(t, err)
	assert.Equal(t, "dr85", res.Operations[1].Tool.ID)
}

func TestPlan_UnknownOperationType(t *testing.T) {
	job := newTestJob()
	job.Operations[0].Type = "engrave"

	_, err := newTestPlanner().Plan(job)
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestPlan_PreDrillStopsPocket(t *testing.T) {
	job := newTestJob()
	job.Material = "steel"
	job.Operations = []model.Operation{{
		Name:     "Slot",
		Type:     model.OpPocket2D,
		ToolID:   "em10",
		ZTop:     0,
		ZBottom:  -5,
		Boundary: model.Rectangle(10, 10, 18, 40),
	}}

	res, err := newTestPlanner().Plan(job)
	require.NoError(t, err)
	require.Len(t, res.Operations, 1)

	op := res.Operations[0]
	require.NotNil(t, op.Entry)
	assert.Equal(t, entry.StrategyPreDrill, op.Entry.Strategy)
	assert.True(t, op.Toolpath.IsEmpty())
	require.Len(t, op.Toolpath.Moves, 1)
	assert.Equal(t, toolpath.MoveComment, op.Toolpath.Moves[0].Type)

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "pre-drill required")
	assert.NotContains(t, res.Program.String(), "(Slot")
	assert.NotContains(t, res.Program.String(), "T1 M6")
}

func TestPlan_LongSlotRampsAlongItsLength(t *testing.T) {
	job := newTestJob()
	job.Material = "steel"
	job.Operations = []model.Operation{{
		Name:     "Slot",
		Type:     model.OpPocket2D,
		ToolID:   "em10",
		ZTop:     0,
		ZBottom:  -10,
		StepDown: 5,
		Boundary: model.Rectangle(10, 10, 90, 21),
	}}

	res, err := newTestPlanner().Plan(job)
	require.NoError(t, err)
	require.Len(t, res.Operations, 1)

	op := res.Operations[0]
	require.NotNil(t, op.Entry)
	assert.Equal(t, entry.StrategyRamp, op.Entry.Strategy)
	assert.InDelta(t, 35.0, op.Entry.MaxLeg, 1e-9)

	ramps := 0
	for _, m := range op.Toolpath.Moves {
		if m.Type == toolpath.MoveHelixRamp {
			ramps++
			assert.GreaterOrEqual(t, m.X.Value, 15.0-1e-6)
			assert.LessOrEqual(t, m.X.Value, 85.0+1e-6)
		}
	}
	assert.Greater(t, ramps, 0)
	assert.LessOrEqual(t, ramps, 2*entry.MaxRampLegs)
}

func TestPlan_NoStockSkipsCollisionCheck(t *testing.T) {
	job := newTestJob()
	job.Stock = model.StockBounds{}

	res, err := newTestPlanner().Plan(job)
	require.NoError(t, err)
	assert.Nil(t, res.Operations[0].Collision)
	assert.Contains(t, res.Warnings, "no stock bounds set, collision checks skipped")
	assert.True(t, res.Safe)
}

func TestPlan_UnsafeToolpathFlagged(t *testing.T) {
	job := newTestJob()
	job.Operations = []model.Operation{{
		Name:     "Too deep",
		Type:     model.OpContour2D,
		ToolID:   "em10",
		Side:     model.SideOn,
		ZTop:     0,
		ZBottom:  -25,
		Boundary: model.Rectangle(20, 10, 80, 40),
	}}

	res, err := newTestPlanner().Plan(job)
	require.NoError(t, err)
	assert.False(t, res.Safe)
	require.NotNil(t, res.Operations[0].Collision)
	assert.Positive(t, res.Operations[0].Collision.GougeCount)
	assert.NotEmpty(t, res.Warnings)
}

func TestPlan_UnknownMaterialWarns(t *testing.T) {
	job := newTestJob()
	job.Material = "unobtainium"

	res, err := newTestPlanner().Plan(job)
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "mild_steel")
}

func TestPlan_EmptyToolpathWarns(t *testing.T) {
	job := newTestJob()
	job.Operations = []model.Operation{{
		Name:    "Flat",
		Type:    model.OpFaceMill,
		ToolID:  "em10",
		ZTop:    0,
		ZBottom: 0,
	}}

	res, err := newTestPlanner().Plan(job)
	require.NoError(t, err)
	require.Len(t, res.Operations, 1)
	assert.True(t, res.Operations[0].Toolpath.IsEmpty())
	assert.Contains(t, strings.Join(res.Warnings, "\n"), "no toolpath generated")
}

func TestPlan_FaceMillUsesStockFootprint(t *testing.T) {
	job := newTestJob()
	job.Stock = model.NewStockBounds(0, 0, -20, 100, 50, 1)
	job.Operations = []model.Operation{{
		Name:     "Face",
		Type:     model.OpFaceMill,
		ToolID:   "em10",
		ZTop:     1,
		ZBottom:  0,
		StepDown: 1,
	}}

	res, err := newTestPlanner().Plan(job)
	require.NoError(t, err)
	tp := res.Operations[0].Toolpath
	require.False(t, tp.IsEmpty())

	minX, maxX := 1e9, -1e9
	for _, m := range tp.Moves {
		if m.X.Set {
			minX = min(minX, m.X.Value)
			maxX = max(maxX, m.X.Value)
		}
	}
	assert.InDelta(t, -7.0, minX, 1e-9)
	assert.InDelta(t, 107.0, maxX, 1e-9)
}

func TestPlan_GroupByTool(t *testing.T) {
	job := newTestJob()
	pocket := job.Operations[0]
	pocket.Name = "Pocket 2"
	job.Operations = append(job.Operations, pocket)
	job.GroupByTool = true

	res, err := newTestPlanner().Plan(job)
	require.NoError(t, err)
	require.Len(t, res.Operations, 3)
	assert.Equal(t, "Pocket", res.Operations[0].Operation.Name)
	assert.Equal(t, "Pocket 2", res.Operations[1].Operation.Name)
	assert.Equal(t, "Holes", res.Operations[2].Operation.Name)
}

func TestPlan_NamesUnnamedOperations(t *testing.T) {
	job := newTestJob()
	job.Operations[1].Name = ""

	res, err := newTestPlanner().Plan(job)
	require.NoError(t, err)
	assert.Equal(t, "peck_drill 2", res.Operations[1].Operation.Name)
}

func TestSetLogger_CapturesWarnings(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })

	job := newTestJob()
	job.Material = "steel"
	job.Operations[0].Boundary = model.Rectangle(10, 10, 18, 40)

	_, err := newTestPlanner().Plan(job)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "pre-drill required")
	assert.Contains(t, out, "operation planned")
	assert.Contains(t, out, "program assembled")
}

func TestSetLogger_NilRestoresSilence(t *testing.T) {
	SetLogger(nil)
	require.NotNil(t, Logger())
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}
