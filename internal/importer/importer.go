// Package importer reads tool databases from CSV and Excel files and
// machining features from DXF drawings. Row-level problems are collected in
// the result instead of aborting the import.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/camkernel/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Tools      []model.ToolSpec
	Boundaries []model.Outline
	Holes      []model.Point2D
	Errors     []string
	Warnings   []string
}

// ColumnMapping maps tool attributes to their indices in the data.
type ColumnMapping struct {
	ID             int
	Name           int
	Family         int
	Diameter       int
	FluteLength    int
	TotalLength    int
	Flutes         int
	CornerRadius   int
	HolderDiameter int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"id":              {"id", "tool id", "tool_id", "number", "tool number", "t"},
	"name":            {"name", "tool", "tool name", "description", "desc"},
	"family":          {"family", "type", "tool type", "kind"},
	"diameter":        {"diameter", "dia", "d", "diameter mm"},
	"flute_length":    {"flute length", "flute_length", "loc", "cutting length", "fl"},
	"total_length":    {"total length", "total_length", "oal", "overall length", "length"},
	"flutes":          {"flutes", "flute count", "flute_count", "z", "teeth"},
	"corner_radius":   {"corner radius", "corner_radius", "cr", "radius"},
	"holder_diameter": {"holder diameter", "holder_diameter", "holder", "holder dia"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping. Matching
// is case-insensitive against the known aliases of each column. Without a
// recognizable header the positional layout Name, Family, Diameter,
// FluteLength, TotalLength, Flutes is assumed and false is returned.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{
		ID:             -1,
		Name:           -1,
		Family:         -1,
		Diameter:       -1,
		FluteLength:    -1,
		TotalLength:    -1,
		Flutes:         -1,
		CornerRadius:   -1,
		HolderDiameter: -1,
	}
	slots := map[string]*int{
		"id":              &mapping.ID,
		"name":            &mapping.Name,
		"family":          &mapping.Family,
		"diameter":        &mapping.Diameter,
		"flute_length":    &mapping.FluteLength,
		"total_length":    &mapping.TotalLength,
		"flutes":          &mapping.Flutes,
		"corner_radius":   &mapping.CornerRadius,
		"holder_diameter": &mapping.HolderDiameter,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias && *slots[role] == -1 {
					*slots[role] = i
					isHeader = true
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{
			ID:             -1,
			Name:           0,
			Family:         1,
			Diameter:       2,
			FluteLength:    3,
			TotalLength:    4,
			Flutes:         5,
			CornerRadius:   -1,
			HolderDiameter: -1,
		}, false
	}

	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// optionalFloat parses an optional non-negative number. An empty cell is zero.
func optionalFloat(row []string, idx int, rowLabel, column string) (float64, string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, ""
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, column, s)
	}
	return v, ""
}

// parseRow extracts a ToolSpec from a row using the given column mapping.
// Returns the tool, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, toolCount int) (model.ToolSpec, string, string) {
	familyStr := getCell(row, mapping.Family)
	if familyStr == "" {
		return model.ToolSpec{}, fmt.Sprintf("%s: Missing tool family", rowLabel), ""
	}
	family, err := model.ParseToolFamily(familyStr)
	if err != nil {
		return model.ToolSpec{}, fmt.Sprintf("%s: Unknown tool family '%s'", rowLabel, familyStr), ""
	}

	diaStr := getCell(row, mapping.Diameter)
	if diaStr == "" {
		return model.ToolSpec{}, fmt.Sprintf("%s: Missing diameter value", rowLabel), ""
	}
	dia, err := strconv.ParseFloat(diaStr, 64)
	if err != nil {
		return model.ToolSpec{}, fmt.Sprintf("%s: Invalid diameter '%s'", rowLabel, diaStr), ""
	}
	if dia <= 0 {
		return model.ToolSpec{}, fmt.Sprintf("%s: Diameter must be positive", rowLabel), ""
	}

	fluteLen, msg := optionalFloat(row, mapping.FluteLength, rowLabel, "flute length")
	if msg != "" {
		return model.ToolSpec{}, msg, ""
	}
	totalLen, msg := optionalFloat(row, mapping.TotalLength, rowLabel, "total length")
	if msg != "" {
		return model.ToolSpec{}, msg, ""
	}
	cornerR, msg := optionalFloat(row, mapping.CornerRadius, rowLabel, "corner radius")
	if msg != "" {
		return model.ToolSpec{}, msg, ""
	}
	holder, msg := optionalFloat(row, mapping.HolderDiameter, rowLabel, "holder diameter")
	if msg != "" {
		return model.ToolSpec{}, msg, ""
	}

	var warning string
	flutes := 2
	if s := getCell(row, mapping.Flutes); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return model.ToolSpec{}, fmt.Sprintf("%s: Invalid flute count '%s'", rowLabel, s), ""
		}
		flutes = n
	} else {
		warning = fmt.Sprintf("%s: No flute count, assuming 2", rowLabel)
	}

	name := getCell(row, mapping.Name)
	if name == "" {
		name = fmt.Sprintf("Tool %d", toolCount+1)
	}

	tool := model.NewToolSpec(name, family, dia, fluteLen, totalLen, flutes)
	if id := getCell(row, mapping.ID); id != "" {
		tool.ID = id
	}
	tool.CornerRadius = cornerR
	tool.HolderDiameter = holder
	return tool, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportToolsCSV imports a tool database from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportToolsCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	var warnings []string
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	r := ImportToolsCSVFromReader(bytes.NewReader(data), delimiter)
	r.Warnings = append(warnings, r.Warnings...)
	return r
}

// ImportToolsCSVFromReader imports tools from a CSV reader with a known delimiter.
func ImportToolsCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line")
}

// ImportToolsExcel imports a tool database from the first sheet of an
// Excel workbook.
func ImportToolsExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row")
}

// ToolLibrary wraps the imported tools in a library.
func (r ImportResult) ToolLibrary() model.ToolLibrary {
	return model.ToolLibrary{Tools: append([]model.ToolSpec(nil), r.Tools...)}
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string) ImportResult {
	result := ImportResult{}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Family == -1 {
			missing = append(missing, "Family")
		}
		if mapping.Diameter == -1 {
			missing = append(missing, "Diameter")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 3 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][2]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	seen := map[string]bool{}
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		tool, errMsg, warning := parseRow(row, mapping, rowLabel, len(result.Tools))
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		if seen[tool.ID] {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Duplicate tool id '%s'", rowLabel, tool.ID))
			continue
		}
		seen[tool.ID] = true

		result.Tools = append(result.Tools, tool)
	}

	return result
}
