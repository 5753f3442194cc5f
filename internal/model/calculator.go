package model

import "math"

// CuttingData holds derived spindle and feed values for a tool/material pair.
type CuttingData struct {
	SpindleRPM int     `json:"spindle_rpm"`
	Chipload   float64 `json:"chipload"`    // mm/tooth
	Feed       float64 `json:"feed"`        // mm/min
	PlungeFeed float64 `json:"plunge_feed"` // mm/min
}

// MaxSpindleRPM caps derived spindle speeds for small tools.
const MaxSpindleRPM = 24000

// CalculateCuttingData derives spindle speed and feed from the material's
// surface speed and chipload. Plunge feed is a third of the cutting feed.
func CalculateCuttingData(tool ToolSpec, m MaterialEntryFactors) CuttingData {
	if tool.Diameter <= 0 || m.SurfaceSpeed <= 0 {
		return CuttingData{}
	}
	rpm := m.SurfaceSpeed * 1000.0 / (math.Pi * tool.Diameter)
	if rpm > MaxSpindleRPM {
		rpm = MaxSpindleRPM
	}
	flutes := tool.FluteCount
	if flutes <= 0 {
		flutes = 2
	}
	chipload := m.ChiploadPerD * tool.Diameter
	feed := math.Round(rpm * float64(flutes) * chipload)
	return CuttingData{
		SpindleRPM: int(math.Round(rpm)),
		Chipload:   chipload,
		Feed:       feed,
		PlungeFeed: math.Round(feed / 3.0),
	}
}
