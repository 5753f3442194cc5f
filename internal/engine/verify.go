package engine

import (
	"github.com/piwi3910/camkernel/internal/gcode"
	"github.com/piwi3910/camkernel/internal/model"
	"github.com/piwi3910/camkernel/internal/toolpath"
)

// opProgram tags toolpaths read back from an existing program.
const opProgram model.OperationType = "program"

// VerifyProgram reads an existing G-code program back into moves and runs
// the collision checker over all of it with a single tool. Parsing starts
// at the origin at zSafe, matching where planned toolpaths start.
func (p *Planner) VerifyProgram(code string, stock model.StockBounds, tool model.ToolSpec, zSafe float64) (toolpath.Toolpath, gcode.CollisionCheckResult) {
	start := model.Point3D{Z: zSafe}
	moves := gcode.ParsedToMoves(gcode.ParseGCode(code, start))
	tp := toolpath.New(opProgram, tool.ID, zSafe, stock.Top(), moves).WithRapidRate(p.Config.RapidRate)

	check := gcode.CheckCollisionsWithOptions(tp, stock, tool, gcode.CheckOptions{
		NearMissClearance: p.Config.NearMissClearance,
	})

	log := Logger()
	log.Debug("program verified",
		"moves", len(tp.Moves),
		"cutting_moves", tp.Stats.CuttingMoves,
		"minutes", tp.Stats.EstimatedTime,
	)
	if !check.Safe {
		log.Warn("program failed collision check", "tool", tool.ID, "critical", len(check.Critical()))
	}
	return tp, check
}
