package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/camkernel/internal/engine"
	"github.com/piwi3910/camkernel/internal/model"
)

// LabelInfo holds the data encoded into each tool label's QR code.
type LabelInfo struct {
	ToolID      string           `json:"id"`
	ToolNumber  int              `json:"t,omitempty"`
	Name        string           `json:"name"`
	Family      model.ToolFamily `json:"family"`
	Diameter    float64          `json:"diameter_mm"`
	FluteLength float64          `json:"flute_length_mm,omitempty"`
	Flutes      int              `json:"flutes"`
	Job         string           `json:"job,omitempty"`
	Operations  []string         `json:"ops,omitempty"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// CollectToolLabels returns one label per tool the job uses, in order of
// first use, listing the operations that use it.
func CollectToolLabels(res engine.JobResult) []LabelInfo {
	var labels []LabelInfo
	index := map[string]int{}
	for _, op := range res.Operations {
		if op.Toolpath.IsEmpty() {
			continue
		}
		i, ok := index[op.Tool.ID]
		if !ok {
			i = len(labels)
			index[op.Tool.ID] = i
			labels = append(labels, toolLabel(op.Tool, op.ToolNumber))
			labels[i].Job = res.Job.Name
		}
		labels[i].Operations = append(labels[i].Operations, op.Operation.Name)
	}
	return labels
}

// LibraryLabels returns one label per tool in the library, numbered by
// library position.
func LibraryLabels(lib model.ToolLibrary) []LabelInfo {
	labels := make([]LabelInfo, len(lib.Tools))
	for i, t := range lib.Tools {
		labels[i] = toolLabel(t, i+1)
	}
	return labels
}

func toolLabel(t model.ToolSpec, number int) LabelInfo {
	return LabelInfo{
		ToolID:      t.ID,
		ToolNumber:  number,
		Name:        t.Name,
		Family:      t.Family,
		Diameter:    t.Diameter,
		FluteLength: t.FluteLength,
		Flutes:      t.FluteCount,
	}
}

// ExportToolLabels generates a PDF of QR-coded tool labels laid out on a
// standard label sheet (Avery 5160, 3 columns x 10 rows on US Letter). Each
// label shows the tool number, name and geometry, and its QR code encodes
// the label as JSON.
func ExportToolLabels(path string, labels []LabelInfo) error {
	if len(labels) == 0 {
		return fmt.Errorf("no tools to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		x := labelMarginLeft + float64(posOnPage%labelCols)*labelWidth
		y := labelMarginTop + float64(posOnPage/labelCols)*labelHeight

		if err := renderLabel(pdf, x, y, i, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.ToolID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, index int, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d_%s", index, info.ToolID)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imgName, opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions(imgName, x+labelWidth-qrSize-labelPadding, y+(labelHeight-qrSize)/2, qrSize, qrSize, false, opts, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	title := info.Name
	if info.ToolNumber > 0 {
		title = fmt.Sprintf("T%d %s", info.ToolNumber, info.Name)
	}
	pdf.CellFormat(textW, 4.5, truncate(pdf, title, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	dims := fmt.Sprintf("D%.2f  %dFL  LOC %.1f", info.Diameter, info.Flutes, info.FluteLength)
	pdf.CellFormat(textW, 3.5, dims, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 3, fmt.Sprintf("%s  id %s", info.Family, info.ToolID), "", 1, "L", false, 0, "")

	if len(info.Operations) > 0 {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		ops := fmt.Sprintf("%s: %d op(s)", info.Job, len(info.Operations))
		pdf.CellFormat(textW, 3, truncate(pdf, ops, textW), "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// truncate shortens s with an ellipsis to fit width w in the current font.
func truncate(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}
