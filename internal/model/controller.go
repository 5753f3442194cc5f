package model

import (
	"fmt"
	"strings"
)

// ControllerType selects the G-code dialect used for program headers and footers.
type ControllerType string

const (
	ControllerFanuc      ControllerType = "fanuc"
	ControllerHaas       ControllerType = "haas"
	ControllerSiemens    ControllerType = "siemens"
	ControllerHeidenhain ControllerType = "heidenhain"
	ControllerMazak      ControllerType = "mazak"
	ControllerOkuma      ControllerType = "okuma"
)

// ParseControllerType resolves a controller name case-insensitively.
func ParseControllerType(s string) (ControllerType, error) {
	c := ControllerType(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range ControllerProfiles {
		if p.Type == c {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown controller %q", s)
}

// CoolantMode selects the coolant command issued after spindle start.
type CoolantMode string

const (
	CoolantOff         CoolantMode = "off"
	CoolantFlood       CoolantMode = "flood"
	CoolantMist        CoolantMode = "mist"
	CoolantThroughTool CoolantMode = "through_tool"
)

// ControllerProfile defines the header/footer conventions of a controller.
// Templates use bracket placeholders: [N] program number, [T] tool number,
// [H] offset register, [S] spindle speed, [Z] height.
type ControllerProfile struct {
	Type        ControllerType `json:"type"`
	Description string         `json:"description"`

	ProgramStart string                 `json:"program_start"` // e.g. "O[N]"
	StartCode    []string               `json:"start_code"`    // unit, plane and cancel modes
	ToolChange   string                 `json:"tool_change"`
	SpindleStart string                 `json:"spindle_start"`
	ToolLength   string                 `json:"tool_length"` // tool length offset activation
	Coolant      map[CoolantMode]string `json:"coolant"`
	CoolantStop  string                 `json:"coolant_stop"`
	SpindleStop  string                 `json:"spindle_stop"`
	Home         []string               `json:"home"` // safe retract before program end
	EndCode      []string               `json:"end_code"`

	DecimalPlaces int `json:"decimal_places"`
}

var fanucCoolant = map[CoolantMode]string{
	CoolantFlood:       "M8",
	CoolantMist:        "M7",
	CoolantThroughTool: "M88",
}

// ControllerProfiles holds the built-in dialects. Motion words are shared;
// only framing differs.
var ControllerProfiles = []ControllerProfile{
	{
		Type:          ControllerFanuc,
		Description:   "Fanuc 0i/30i series",
		ProgramStart:  "O[N]",
		StartCode:     []string{"G21", "G17 G90 G40 G49 G80"},
		ToolChange:    "T[T] M6",
		SpindleStart:  "S[S] M3",
		ToolLength:    "G43 H[H] Z[Z]",
		Coolant:       fanucCoolant,
		CoolantStop:   "M9",
		SpindleStop:   "M5",
		Home:          []string{"G91 G28 Z0", "G90"},
		EndCode:       []string{"M30"},
		DecimalPlaces: 3,
	},
	{
		Type:          ControllerHaas,
		Description:   "Haas NGC",
		ProgramStart:  "O[N]",
		StartCode:     []string{"G21", "G17 G90 G40 G49 G80 G54"},
		ToolChange:    "T[T] M6",
		SpindleStart:  "S[S] M3",
		ToolLength:    "G43 H[H] Z[Z]",
		Coolant:       fanucCoolant,
		CoolantStop:   "M9",
		SpindleStop:   "M5",
		Home:          []string{"G28 G91 Z0", "G90"},
		EndCode:       []string{"M30"},
		DecimalPlaces: 3,
	},
	{
		Type:         ControllerSiemens,
		Description:  "Siemens Sinumerik 840D (ISO mode)",
		ProgramStart: "(PROGRAM [N])",
		StartCode:    []string{"G71", "G17 G90 G40"},
		ToolChange:   "T[T] M6",
		SpindleStart: "S[S] M3",
		ToolLength:   "D1",
		Coolant: map[CoolantMode]string{
			CoolantFlood:       "M8",
			CoolantMist:        "M7",
			CoolantThroughTool: "M8",
		},
		CoolantStop:   "M9",
		SpindleStop:   "M5",
		Home:          []string{"G0 SUPA Z0"},
		EndCode:       []string{"M30"},
		DecimalPlaces: 3,
	},
	{
		Type:         ControllerHeidenhain,
		Description:  "Heidenhain TNC (ISO programming)",
		ProgramStart: "%[N] G71",
		StartCode:    []string{"G17 G90 G40"},
		ToolChange:   "T[T] G17 S[S]",
		SpindleStart: "M3",
		ToolLength:   "G0 Z[Z]",
		Coolant: map[CoolantMode]string{
			CoolantFlood:       "M8",
			CoolantMist:        "M7",
			CoolantThroughTool: "M8",
		},
		CoolantStop:   "M9",
		SpindleStop:   "M5",
		Home:          []string{"G0 G90 M91 Z0"},
		EndCode:       []string{"M30"},
		DecimalPlaces: 3,
	},
	{
		Type:          ControllerMazak,
		Description:   "Mazak Matrix/Smooth (EIA mode)",
		ProgramStart:  "O[N]",
		StartCode:     []string{"G21", "G17 G90 G40 G49 G80 G94"},
		ToolChange:    "T[T] M6",
		SpindleStart:  "S[S] M3",
		ToolLength:    "G43 H[H] Z[Z]",
		Coolant:       fanucCoolant,
		CoolantStop:   "M9",
		SpindleStop:   "M5",
		Home:          []string{"G91 G28 Z0", "G90"},
		EndCode:       []string{"M30"},
		DecimalPlaces: 4,
	},
	{
		Type:          ControllerOkuma,
		Description:   "Okuma OSP",
		ProgramStart:  "O[N]",
		StartCode:     []string{"G21", "G17 G90 G40 G80"},
		ToolChange:    "T[T] M6",
		SpindleStart:  "S[S] M3",
		ToolLength:    "G56 H[H] Z[Z]",
		Coolant:       fanucCoolant,
		CoolantStop:   "M9",
		SpindleStop:   "M5",
		Home:          []string{"G0 Z[Z]"},
		EndCode:       []string{"M02"},
		DecimalPlaces: 4,
	},
}

// GetController returns the profile for c, or the Fanuc profile if unknown.
func GetController(c ControllerType) ControllerProfile {
	for _, p := range ControllerProfiles {
		if p.Type == c {
			return p
		}
	}
	return ControllerProfiles[0]
}

// ControllerNames returns the names of all built-in controllers.
func ControllerNames() []string {
	names := make([]string, len(ControllerProfiles))
	for i, p := range ControllerProfiles {
		names[i] = string(p.Type)
	}
	return names
}

// Fill replaces the bracket placeholders in a template.
func Fill(template string, values map[string]string) string {
	for k, v := range values {
		template = strings.ReplaceAll(template, "["+k+"]", v)
	}
	return template
}
