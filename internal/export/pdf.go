// Package export writes operator documents for a planned job: a PDF setup
// sheet and QR-coded tool labels.
package export

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/camkernel/internal/engine"
	"github.com/piwi3910/camkernel/internal/model"
	"github.com/piwi3910/camkernel/internal/toolpath"
)

// ErrNothingToExport is returned when a job result has no operations.
var ErrNothingToExport = errors.New("no operations to export")

// pathColor represents an RGB color for a toolpath plot.
type pathColor struct {
	R, G, B int
}

// pathColors cycles per operation.
var pathColors = []pathColor{
	{R: 33, G: 150, B: 243}, // blue
	{R: 76, G: 175, B: 80},  // green
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	panelWidth   = 85.0
	drawAreaTop  = marginTop + headerHeight + 8.0
)

// arcChordAngle is the largest sweep, in radians, drawn as one chord.
const arcChordAngle = math.Pi / 18

// ExportSetupSheet writes a PDF setup sheet: one page per operation with an
// XY plot of its moves, cutting data, entry and collision verdict, followed
// by a summary page for the whole job.
func ExportSetupSheet(path string, res engine.JobResult) error {
	if len(res.Operations) == 0 {
		return ErrNothingToExport
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for i, op := range res.Operations {
		pdf.AddPage()
		renderOperationPage(pdf, res.Job, op, i)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, res)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("writing setup sheet: %w", err)
	}
	return nil
}

// renderOperationPage draws one operation on the current page.
func renderOperationPage(pdf *fpdf.Fpdf, job model.Job, op engine.OperationResult, index int) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Operation %d: %s (%s)", index+1, op.Operation.Name, op.Operation.Type)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := op.Toolpath.Stats
	line := fmt.Sprintf("T%d %s | Moves: %d | Cutting: %.0f mm | Total: %.0f mm | Est. %.1f min",
		op.ToolNumber, op.Tool.Describe(), len(op.Toolpath.Moves), stats.CuttingDistance, stats.TotalDistance, stats.EstimatedTime)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, line, "", 0, "L", false, 0, "")

	plotW := pageWidth - marginLeft - marginRight - panelWidth - 5
	plotH := pageHeight - drawAreaTop - marginBottom
	drawToolpathPlot(pdf, job.Stock, op.Toolpath, pathColors[index%len(pathColors)], marginLeft, drawAreaTop, plotW, plotH)

	drawOperationPanel(pdf, op, pageWidth-marginRight-panelWidth, drawAreaTop)
}

// plotBounds returns the XY extents to fit on the page: the stock footprint
// grown to include every move endpoint.
func plotBounds(stock model.StockBounds, segs []plotSegment) (min, max model.Point2D, ok bool) {
	first := true
	grow := func(p model.Point2D) {
		if first {
			min, max, first = p, p, false
			return
		}
		min.X, min.Y = math.Min(min.X, p.X), math.Min(min.Y, p.Y)
		max.X, max.Y = math.Max(max.X, p.X), math.Max(max.Y, p.Y)
	}
	if !stock.IsZero() {
		grow(stock.Min.XY())
		grow(stock.Max.XY())
	}
	for _, s := range segs {
		grow(s.from)
		grow(s.to)
	}
	return min, max, !first && max.X-min.X+max.Y-min.Y > 1e-9
}

// plotSegment is one straight piece of a plotted move.
type plotSegment struct {
	from, to model.Point2D
	rapid    bool
}

// plotSegments flattens a toolpath to XY segments, splitting arcs into
// chords.
func plotSegments(tp toolpath.Toolpath) []plotSegment {
	var segs []plotSegment
	c := toolpath.Cursor{Pos: tp.Start()}
	for _, m := range tp.Moves {
		if !m.IsMotion() {
			continue
		}
		from, to := c.Step(m)
		if m.Type.IsArc() {
			if center, r, sweep, ok := toolpath.ArcGeometry(from, to, m); ok {
				n := max(int(math.Ceil(math.Abs(sweep)/arcChordAngle-1e-9)), 1)
				a0 := math.Atan2(from.Y-center.Y, from.X-center.X)
				prev := from.XY()
				for i := 1; i <= n; i++ {
					a := a0 + sweep*float64(i)/float64(n)
					p := model.Point2D{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)}
					segs = append(segs, plotSegment{from: prev, to: p})
					prev = p
				}
				continue
			}
		}
		if from.XY() == to.XY() {
			continue
		}
		segs = append(segs, plotSegment{from: from.XY(), to: to.XY(), rapid: m.Type == toolpath.MoveRapid})
	}
	return segs
}

// drawToolpathPlot draws the stock footprint and the toolpath's XY
// projection scaled into the given box. Machine Y points up the page.
func drawToolpathPlot(pdf *fpdf.Fpdf, stock model.StockBounds, tp toolpath.Toolpath, col pathColor, x, y, w, h float64) {
	segs := plotSegments(tp)
	min, max, ok := plotBounds(stock, segs)
	if !ok {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetXY(x, y)
		pdf.CellFormat(w, 6, "No motion to plot", "", 0, "L", false, 0, "")
		return
	}

	scale := math.Min(w/math.Max(max.X-min.X, 1e-9), h/math.Max(max.Y-min.Y, 1e-9))
	offsetX := x + (w-(max.X-min.X)*scale)/2
	project := func(p model.Point2D) (float64, float64) {
		return offsetX + (p.X-min.X)*scale, y + (max.Y-p.Y)*scale
	}

	if !stock.IsZero() {
		sx, sy := project(model.Point2D{X: stock.Min.X, Y: stock.Max.Y})
		pdf.SetFillColor(225, 228, 232)
		pdf.SetDrawColor(100, 100, 100)
		pdf.SetLineWidth(0.4)
		pdf.Rect(sx, sy, (stock.Max.X-stock.Min.X)*scale, (stock.Max.Y-stock.Min.Y)*scale, "FD")
	}

	for _, s := range segs {
		x1, y1 := project(s.from)
		x2, y2 := project(s.to)
		if s.rapid {
			pdf.SetDrawColor(200, 0, 0)
			pdf.SetLineWidth(0.1)
			pdf.SetDashPattern([]float64{1, 1}, 0)
		} else {
			pdf.SetDrawColor(col.R, col.G, col.B)
			pdf.SetLineWidth(0.25)
			pdf.SetDashPattern(nil, 0)
		}
		pdf.Line(x1, y1, x2, y2)
	}
	pdf.SetDashPattern(nil, 0)

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(80, 80, 80)
	pdf.SetXY(x, y+h+1)
	extent := fmt.Sprintf("X %.1f..%.1f  Y %.1f..%.1f mm", min.X, max.X, min.Y, max.Y)
	pdf.CellFormat(w, 4, extent, "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// drawOperationPanel lists cutting data, entry and verification on the
// right of an operation page.
func drawOperationPanel(pdf *fpdf.Fpdf, op engine.OperationResult, x, y float64) {
	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(x, y)
		pdf.CellFormat(panelWidth, 6, title, "", 0, "L", false, 0, "")
		y += 7
	}
	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(x+2, y)
		pdf.CellFormat(35, 5, label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(panelWidth-37, 5, value, "", 0, "L", false, 0, "")
		y += 5
	}

	o := op.Operation
	section("Cutting Data")
	row("Spindle", fmt.Sprintf("%d rpm", op.SpindleRPM))
	row("Feed", fmt.Sprintf("%.0f mm/min", op.Feed))
	row("Plunge Feed", fmt.Sprintf("%.0f mm/min", op.PlungeFeed))
	row("Z Range", fmt.Sprintf("%.3f to %.3f", o.ZTop, o.ZBottom))
	if o.StepDown > 0 {
		row("Step Down", fmt.Sprintf("%.3f mm", o.StepDown))
	}
	if op.Engagement != nil {
		row("Stepover", fmt.Sprintf("%.3f mm (%.0f%%)", op.Engagement.RadialDepth, op.Engagement.StepoverPercent))
		row("Engagement", fmt.Sprintf("%.1f deg", op.Engagement.EngagementAngle))
	}
	if op.ChipThinning != nil && op.ChipThinning.CompensationFactor > 1 {
		row("Chip Thinning", fmt.Sprintf("x%.2f", op.ChipThinning.CompensationFactor))
	}
	row("Coolant", string(o.Coolant))
	row("Work Offset", o.WorkOffset)
	y += 3

	if op.Entry != nil {
		section("Entry")
		row("Strategy", string(op.Entry.Strategy))
		if op.Entry.Angle > 0 {
			row("Angle", fmt.Sprintf("%.1f deg", op.Entry.Angle))
		}
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetXY(x+2, y)
		pdf.MultiCell(panelWidth-2, 4, op.Entry.Rationale, "", "L", false)
		y = pdf.GetY() + 3
	}

	section("Verification")
	switch {
	case op.Collision == nil:
		row("Status", "not checked")
	case op.Collision.Safe:
		pdf.SetTextColor(0, 130, 0)
		row("Status", "SAFE")
	default:
		pdf.SetTextColor(200, 0, 0)
		row("Status", "UNSAFE")
	}
	pdf.SetTextColor(0, 0, 0)
	if op.Collision != nil {
		row("Gouges", fmt.Sprintf("%d", op.Collision.GougeCount))
		row("Near Misses", fmt.Sprintf("%d", op.Collision.NearMissCount))
		pdf.SetFont("Helvetica", "", 7)
		for i, c := range op.Collision.Collisions {
			if i == 8 {
				pdf.SetXY(x+2, y)
				pdf.CellFormat(panelWidth-2, 4, fmt.Sprintf("... %d more", len(op.Collision.Collisions)-i), "", 0, "L", false, 0, "")
				break
			}
			pdf.SetXY(x+2, y)
			pdf.MultiCell(panelWidth-2, 3.5, fmt.Sprintf("[%s] move %d: %s", c.Severity, c.MoveIndex, c.Message), "", "L", false)
			y = pdf.GetY()
		}
	}
}

// renderSummaryPage draws the job summary with one row per operation.
func renderSummaryPage(pdf *fpdf.Fpdf, res engine.JobResult) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Setup Sheet: "+res.Job.Name, "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	job := res.Job
	items := []struct {
		label string
		value string
	}{
		{"Controller", fmt.Sprintf("%s (program %d)", job.Controller, job.ProgramNumber)},
		{"Material", job.Material},
		{"Stock", stockText(job.Stock)},
		{"Safe Z", fmt.Sprintf("%.3f mm", job.ZSafe)},
		{"Program Lines", fmt.Sprintf("%d", res.Program.LineCount)},
		{"Estimated Time", fmt.Sprintf("%.1f min", res.Program.EstimatedTime)},
		{"Tool Changes", fmt.Sprintf("%d", engine.ToolChanges(plannedOperations(res)))},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(50, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(100, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 6
	}
	y += 5

	colWidths := []float64{10, 55, 30, 60, 20, 25, 25, 20, 22}
	headers := []string{"#", "Operation", "Type", "Tool", "RPM", "Feed", "Cutting mm", "Min", "Verdict"}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 8)
	for i, op := range res.Operations {
		rowData := []string{
			fmt.Sprintf("%d", i+1),
			op.Operation.Name,
			string(op.Operation.Type),
			fmt.Sprintf("T%d %s", op.ToolNumber, op.Tool.Describe()),
			fmt.Sprintf("%d", op.SpindleRPM),
			fmt.Sprintf("%.0f", op.Feed),
			fmt.Sprintf("%.0f", op.Toolpath.Stats.CuttingDistance),
			fmt.Sprintf("%.1f", op.Toolpath.Stats.EstimatedTime),
			verdict(op),
		}
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos = marginLeft
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	y += 6
	for _, group := range []struct {
		title string
		lines []string
		r, g  int
	}{
		{"Errors", res.Errors, 200, 0},
		{"Warnings", res.Warnings, 150, 100},
	} {
		if len(group.lines) == 0 {
			continue
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(group.r, group.g, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, group.title, "", 0, "L", false, 0, "")
		y += 7
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(0, 0, 0)
		for _, l := range group.lines {
			if y > pageHeight-marginBottom-8 {
				break
			}
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(pageWidth-marginLeft-marginRight-5, 4, "- "+l, "", 0, "L", false, 0, "")
			y += 4
		}
		y += 3
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by camkernel", "", 0, "C", false, 0, "")
}

func verdict(op engine.OperationResult) string {
	switch {
	case op.Entry != nil && !op.Entry.Cuttable():
		return "PRE-DRILL"
	case op.Collision == nil:
		return "-"
	case op.Collision.Safe:
		return "SAFE"
	default:
		return "UNSAFE"
	}
}

func stockText(s model.StockBounds) string {
	if s.IsZero() {
		return "not set"
	}
	return fmt.Sprintf("%.1f x %.1f x %.1f mm (top Z %.3f)",
		s.Max.X-s.Min.X, s.Max.Y-s.Min.Y, s.Max.Z-s.Min.Z, s.Top())
}

// plannedOperations returns the operations that produced motion, in
// program order.
func plannedOperations(res engine.JobResult) []model.Operation {
	var ops []model.Operation
	for _, op := range res.Operations {
		if !op.Toolpath.IsEmpty() {
			ops = append(ops, op.Operation)
		}
	}
	return ops
}
