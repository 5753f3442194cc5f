package model

import (
	"time"

	"github.com/google/uuid"
)

// OperationType tags the operation family of a toolpath.
type OperationType string

const (
	OpFaceMill     OperationType = "face_mill"
	OpPocket2D     OperationType = "pocket_2d"
	OpContour2D    OperationType = "contour_2d"
	OpHelicalEntry OperationType = "helical_entry"
	OpPeckDrill    OperationType = "peck_drill"
)

// OperationTypes lists every operation family.
var OperationTypes = []OperationType{OpFaceMill, OpPocket2D, OpContour2D, OpHelicalEntry, OpPeckDrill}

// ContourSide selects which side of the boundary the tool runs on,
// relative to the boundary's direction of travel.
type ContourSide string

const (
	SideLeft  ContourSide = "left"
	SideRight ContourSide = "right"
	SideOn    ContourSide = "on"
)

// Operation describes one machining feature of a job. Fields that do not
// apply to the operation type are ignored; zero feeds and speeds are derived
// from the job material.
type Operation struct {
	Name   string        `json:"name" yaml:"name"`
	Type   OperationType `json:"type" yaml:"type"`
	ToolID string        `json:"tool_id" yaml:"tool_id"`

	SpindleRPM   int         `json:"spindle_rpm,omitempty" yaml:"spindle_rpm,omitempty"`
	Feed         float64     `json:"feed,omitempty" yaml:"feed,omitempty"`               // mm/min
	PlungeFeed   float64     `json:"plunge_feed,omitempty" yaml:"plunge_feed,omitempty"` // mm/min
	Coolant      CoolantMode `json:"coolant,omitempty" yaml:"coolant,omitempty"`
	WorkOffset   string      `json:"work_offset,omitempty" yaml:"work_offset,omitempty"`
	Conventional bool        `json:"conventional,omitempty" yaml:"conventional,omitempty"`

	ZTop     float64 `json:"z_top" yaml:"z_top"`
	ZBottom  float64 `json:"z_bottom" yaml:"z_bottom"`
	StepDown float64 `json:"step_down,omitempty" yaml:"step_down,omitempty"`

	// Pocket, contour and face
	Boundary        Outline     `json:"boundary,omitempty" yaml:"boundary,omitempty"`
	Stepover        float64     `json:"stepover,omitempty" yaml:"stepover,omitempty"`
	StepoverPercent float64     `json:"stepover_percent,omitempty" yaml:"stepover_percent,omitempty"`
	StockToLeave    float64     `json:"stock_to_leave,omitempty" yaml:"stock_to_leave,omitempty"`
	Side            ContourSide `json:"side,omitempty" yaml:"side,omitempty"`
	LeadInRadius    float64     `json:"lead_in_radius,omitempty" yaml:"lead_in_radius,omitempty"`
	LeadOutRadius   float64     `json:"lead_out_radius,omitempty" yaml:"lead_out_radius,omitempty"`

	// Helical entry
	Center        Point2D `json:"center,omitempty" yaml:"center,omitempty"`
	HelixDiameter float64 `json:"helix_diameter,omitempty" yaml:"helix_diameter,omitempty"`
	HelixAngle    float64 `json:"helix_angle,omitempty" yaml:"helix_angle,omitempty"`

	// Peck drill
	Holes         []Point2D `json:"holes,omitempty" yaml:"holes,omitempty"`
	PeckDepth     float64   `json:"peck_depth,omitempty" yaml:"peck_depth,omitempty"`
	RetractHeight float64   `json:"retract_height,omitempty" yaml:"retract_height,omitempty"`
	DwellSeconds  float64   `json:"dwell_seconds,omitempty" yaml:"dwell_seconds,omitempty"`
}

// Job ties a stock, a material, a controller and an ordered operation list
// together for save/load and planning.
type Job struct {
	ID            string         `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	CreatedAt     string         `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Controller    ControllerType `json:"controller" yaml:"controller"`
	ProgramNumber int            `json:"program_number" yaml:"program_number"`
	Material      string         `json:"material" yaml:"material"`
	Stock         StockBounds    `json:"stock" yaml:"stock"`
	ZSafe         float64        `json:"z_safe" yaml:"z_safe"`
	GroupByTool   bool           `json:"group_by_tool,omitempty" yaml:"group_by_tool,omitempty"`
	Operations    []Operation    `json:"operations" yaml:"operations"`
}

// NewJob creates an empty job with a generated ID and the built-in defaults.
func NewJob(name string) Job {
	cfg := DefaultAppConfig()
	j := Job{
		ID:         uuid.New().String()[:8],
		Name:       name,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Operations: []Operation{},
	}
	cfg.ApplyToJob(&j)
	return j
}
