package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ToolFamily is the closed set of cutter kinds the kernel understands.
type ToolFamily string

const (
	ToolEndMill    ToolFamily = "end_mill"
	ToolBallNose   ToolFamily = "ball_nose"
	ToolBullNose   ToolFamily = "bull_nose"
	ToolDrill      ToolFamily = "drill"
	ToolTap        ToolFamily = "tap"
	ToolFaceMill   ToolFamily = "face_mill"
	ToolChamfer    ToolFamily = "chamfer"
	ToolThreadMill ToolFamily = "thread_mill"
)

// ToolFamilies lists every family in declaration order.
var ToolFamilies = []ToolFamily{
	ToolEndMill, ToolBallNose, ToolBullNose, ToolDrill,
	ToolTap, ToolFaceMill, ToolChamfer, ToolThreadMill,
}

// ParseToolFamily resolves a family name, accepting a few common spellings.
func ParseToolFamily(s string) (ToolFamily, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	switch n {
	case "end_mill", "endmill", "flat", "flat_end_mill":
		return ToolEndMill, nil
	case "ball_nose", "ballnose", "ball", "ball_end_mill":
		return ToolBallNose, nil
	case "bull_nose", "bullnose", "corner_radius":
		return ToolBullNose, nil
	case "drill", "twist_drill", "spot_drill":
		return ToolDrill, nil
	case "tap":
		return ToolTap, nil
	case "face_mill", "facemill", "shell_mill":
		return ToolFaceMill, nil
	case "chamfer", "chamfer_mill", "v_bit":
		return ToolChamfer, nil
	case "thread_mill", "threadmill":
		return ToolThreadMill, nil
	}
	return "", fmt.Errorf("unknown tool family %q", s)
}

// IsHoleMaking reports whether the tool can only enter axially.
func (f ToolFamily) IsHoleMaking() bool {
	return f == ToolDrill || f == ToolTap
}

// ToolSpec describes a cutting tool. Lengths and diameters are in mm, the
// helix angle in degrees. Supplied by the caller's tool database and treated
// as immutable by the kernel.
type ToolSpec struct {
	ID           string     `json:"id" yaml:"id"`
	Name         string     `json:"name" yaml:"name"`
	Family       ToolFamily `json:"family" yaml:"family"`
	Diameter     float64    `json:"diameter" yaml:"diameter"`
	FluteLength  float64    `json:"flute_length" yaml:"flute_length"`
	TotalLength  float64    `json:"total_length" yaml:"total_length"`
	FluteCount   int        `json:"flute_count" yaml:"flute_count"`
	CornerRadius float64    `json:"corner_radius,omitempty" yaml:"corner_radius,omitempty"`
	HelixAngle   float64    `json:"helix_angle,omitempty" yaml:"helix_angle,omitempty"`
	Coating      string     `json:"coating,omitempty" yaml:"coating,omitempty"`

	// HolderDiameter overrides the default holder envelope radius of 1.5 x Diameter.
	HolderDiameter float64 `json:"holder_diameter,omitempty" yaml:"holder_diameter,omitempty"`
}

// NewToolSpec creates a tool with a generated ID.
func NewToolSpec(name string, family ToolFamily, diameter, fluteLength, totalLength float64, flutes int) ToolSpec {
	return ToolSpec{
		ID:          uuid.New().String()[:8],
		Name:        name,
		Family:      family,
		Diameter:    diameter,
		FluteLength: fluteLength,
		TotalLength: totalLength,
		FluteCount:  flutes,
	}
}

// Radius returns half the cutting diameter.
func (t ToolSpec) Radius() float64 {
	return t.Diameter / 2.0
}

// HolderRadius returns the radius of the holder envelope.
func (t ToolSpec) HolderRadius() float64 {
	if t.HolderDiameter > 0 {
		return t.HolderDiameter / 2.0
	}
	return 1.5 * t.Diameter
}

// Describe returns a short human-readable summary used in program comments.
func (t ToolSpec) Describe() string {
	label := t.Name
	if label == "" {
		label = string(t.Family)
	}
	return fmt.Sprintf("%s D%.3f %dFL", label, t.Diameter, t.FluteCount)
}
