package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/camkernel/internal/model"
	"github.com/piwi3910/camkernel/internal/toolpath"
)

func TestParseGCode_Empty(t *testing.T) {
	moves := ParseGCode("", model.Point3D{})
	if len(moves) != 0 {
		t.Errorf("expected 0 moves for empty input, got %d", len(moves))
	}
}

func TestParseGCode_CommentsOnly(t *testing.T) {
	code := `; This is a comment
(parenthetical comment)
%
`
	moves := ParseGCode(code, model.Point3D{})
	if len(moves) != 2 {
		t.Fatalf("expected 2 comment moves, got %d", len(moves))
	}
	for _, m := range moves {
		if m.Type != toolpath.MoveComment {
			t.Errorf("expected comment, got %s", m.Type)
		}
	}
	if moves[1].Move.Text != "parenthetical comment" {
		t.Errorf("unexpected comment text %q", moves[1].Move.Text)
	}
}

func TestParseGCode_RapidMove(t *testing.T) {
	moves := ParseGCode("G0 X10.000 Y20.000\n", model.Point3D{Z: 5})
	if len(moves) != 1 {
		t.Fatalf("expected 1 move, got %d", len(moves))
	}
	m := moves[0]
	if m.Type != toolpath.MoveRapid {
		t.Errorf("expected rapid, got %s", m.Type)
	}
	if m.From != (model.Point3D{Z: 5}) {
		t.Errorf("expected from (0,0,5), got %+v", m.From)
	}
	if m.To != (model.Point3D{X: 10, Y: 20, Z: 5}) {
		t.Errorf("expected to (10,20,5), got %+v", m.To)
	}
	if m.Line != 1 {
		t.Errorf("expected line 1, got %d", m.Line)
	}
}

func TestParseGCode_ModalMotionAndFeed(t *testing.T) {
	code := `G1 X10 F500
Y5
G0 Z10
X0
`
	moves := ParseGCode(code, model.Point3D{})
	require.Len(t, moves, 4)
	assert.Equal(t, toolpath.MoveFeed, moves[1].Type, "motion mode is modal")
	assert.Equal(t, 500.0, moves[1].FeedRate, "feed is modal")
	assert.Equal(t, model.Point3D{X: 10, Y: 5}, moves[1].To)
	assert.Equal(t, toolpath.MoveRapid, moves[3].Type)
	assert.Equal(t, model.Point3D{X: 0, Y: 5, Z: 10}, moves[3].To)
	assert.True(t, moves[2].IsRetract())
}

func TestParseGCode_PlungeClassification(t *testing.T) {
	moves := ParseGCode("G1 Z-3 F100\nG1 X5 Z-4\n", model.Point3D{})
	require.Len(t, moves, 2)
	assert.Equal(t, toolpath.MovePlunge, moves[0].Type)
	assert.Equal(t, toolpath.MoveFeed, moves[1].Type)
}

func TestParseGCode_Arcs(t *testing.T) {
	code := "G1 X5 Y0 F400\nG2 X-5 I-5 J0\nG3 X0 Y5 R5\nG2 I5 J0\n"
	moves := ParseGCode(code, model.Point3D{})
	require.Len(t, moves, 4)
	assert.Equal(t, toolpath.MoveArcCW, moves[1].Type)
	assert.Equal(t, -5.0, moves[1].Move.I.Value)
	assert.Equal(t, toolpath.MoveArcCCW, moves[2].Type)
	assert.Equal(t, 5.0, moves[2].Move.R.Value)
	// full circle with centre words only
	assert.Equal(t, moves[3].From, moves[3].To)
}

func TestParseGCode_IncrementalAndReferenceReturn(t *testing.T) {
	code := `G0 X10 Y10 Z5
G91 G28 Z0
G91
G1 X5 F100
G90
G53 G0 Z0
G1 X0
`
	moves := ParseGCode(code, model.Point3D{})
	require.Len(t, moves, 3)
	assert.Equal(t, model.Point3D{X: 15, Y: 10, Z: 5}, moves[1].To)
	assert.Equal(t, model.Point3D{X: 0, Y: 10, Z: 5}, moves[2].To)
}

func TestParseGCode_InlineComments(t *testing.T) {
	moves := ParseGCode("G0 X1 (go) Y2 ; trailing\n", model.Point3D{})
	require.Len(t, moves, 3)
	assert.Equal(t, "trailing", moves[0].Move.Text)
	assert.Equal(t, "go", moves[1].Move.Text)
	assert.Equal(t, model.Point3D{X: 1, Y: 2}, moves[2].To)
}

func TestParseGCode_RoundTripsAssembledProgram(t *testing.T) {
	tp := toolpath.PeckDrill(toolpath.PeckDrillParams{
		Holes:         []model.Point2D{{X: 10, Y: 10}},
		ZTop:          0,
		ZBottom:       -20,
		PeckDepth:     5,
		RetractHeight: 2,
		Feed:          150,
		DwellSeconds:  0.5,
		ZSafe:         25,
	})
	prog := New(model.ControllerFanuc, 1).Assemble("DRILL", []Block{{Toolpath: tp, Tool: newTestTool(), ToolNumber: 1, SpindleRPM: 3000}})

	parsed := ParseGCode(prog.String(), model.Point3D{Z: 25})
	moves := ParsedToMoves(parsed)
	reread := toolpath.New(model.OpPeckDrill, "em10", 25, 0, moves)

	assert.InDelta(t, tp.Stats.CuttingDistance, reread.Stats.CuttingDistance, 1e-9)
	assert.Equal(t, tp.Stats.CuttingMoves, reread.Stats.CuttingMoves)

	r := CheckCollisions(reread, newTestStock(), newCheckTool(5, 40))
	assert.True(t, r.Safe)
}
