package model

import "strings"

// MaterialEntryFactors holds the per-material limits consulted by entry
// selection and the engagement model.
type MaterialEntryFactors struct {
	Name          string  `json:"name" yaml:"name"`
	HelixAngleMax float64 `json:"helix_angle_max" yaml:"helix_angle_max"` // degrees
	RampAngleMax  float64 `json:"ramp_angle_max" yaml:"ramp_angle_max"`   // degrees
	PlungeOK      bool    `json:"plunge_ok" yaml:"plunge_ok"`

	// OptimalEngagement is the preferred radial engagement angle in degrees (40-100).
	OptimalEngagement float64 `json:"optimal_engagement" yaml:"optimal_engagement"`

	// Cutting data for carbide tooling, used when a job leaves speeds unset.
	SurfaceSpeed float64 `json:"surface_speed" yaml:"surface_speed"`   // m/min
	ChiploadPerD float64 `json:"chipload_per_d" yaml:"chipload_per_d"` // mm/tooth per mm of diameter
}

// FallbackMaterial names the row used for unknown materials.
const FallbackMaterial = "mild_steel"

// MaterialTable is an injectable material lookup table.
type MaterialTable []MaterialEntryFactors

// DefaultMaterials is the built-in material table.
var DefaultMaterials = MaterialTable{
	{Name: "aluminum", HelixAngleMax: 5, RampAngleMax: 10, PlungeOK: true, OptimalEngagement: 100, SurfaceSpeed: 300, ChiploadPerD: 0.008},
	{Name: "plastic", HelixAngleMax: 8, RampAngleMax: 15, PlungeOK: true, OptimalEngagement: 100, SurfaceSpeed: 250, ChiploadPerD: 0.012},
	{Name: "brass", HelixAngleMax: 6, RampAngleMax: 8, PlungeOK: true, OptimalEngagement: 90, SurfaceSpeed: 200, ChiploadPerD: 0.007},
	{Name: "copper", HelixAngleMax: 5, RampAngleMax: 8, PlungeOK: true, OptimalEngagement: 80, SurfaceSpeed: 180, ChiploadPerD: 0.006},
	{Name: "cast_iron", HelixAngleMax: 3, RampAngleMax: 5, PlungeOK: false, OptimalEngagement: 70, SurfaceSpeed: 120, ChiploadPerD: 0.006},
	{Name: "mild_steel", HelixAngleMax: 3, RampAngleMax: 5, PlungeOK: false, OptimalEngagement: 70, SurfaceSpeed: 120, ChiploadPerD: 0.005},
	{Name: "steel", HelixAngleMax: 2.5, RampAngleMax: 4, PlungeOK: false, OptimalEngagement: 65, SurfaceSpeed: 100, ChiploadPerD: 0.005},
	{Name: "alloy_steel", HelixAngleMax: 2.5, RampAngleMax: 4, PlungeOK: false, OptimalEngagement: 60, SurfaceSpeed: 90, ChiploadPerD: 0.004},
	{Name: "stainless_steel", HelixAngleMax: 2, RampAngleMax: 3, PlungeOK: false, OptimalEngagement: 50, SurfaceSpeed: 80, ChiploadPerD: 0.004},
	{Name: "titanium", HelixAngleMax: 1.5, RampAngleMax: 2, PlungeOK: false, OptimalEngagement: 45, SurfaceSpeed: 50, ChiploadPerD: 0.003},
	{Name: "inconel", HelixAngleMax: 1, RampAngleMax: 1.5, PlungeOK: false, OptimalEngagement: 40, SurfaceSpeed: 30, ChiploadPerD: 0.002},
}

var materialAliases = map[string]string{
	"aluminium":      "aluminum",
	"al":             "aluminum",
	"plastics":       "plastic",
	"acrylic":        "plastic",
	"delrin":         "plastic",
	"cast_iron_gray": "cast_iron",
	"carbon_steel":   "steel",
	"stainless":      "stainless_steel",
	"ss":             "stainless_steel",
	"ti":             "titanium",
	"nickel_alloy":   "inconel",
}

// NormalizeMaterialName lower-cases the name and maps spaces and hyphens to
// underscores, then resolves aliases.
func NormalizeMaterialName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	if canonical, ok := materialAliases[n]; ok {
		return canonical
	}
	return n
}

// Lookup returns the row for name and whether it was found.
func (mt MaterialTable) Lookup(name string) (MaterialEntryFactors, bool) {
	n := NormalizeMaterialName(name)
	for _, m := range mt {
		if m.Name == n {
			return m, true
		}
	}
	return MaterialEntryFactors{}, false
}

// Get returns the row for name, or the mild steel row if the material is unknown.
func (mt MaterialTable) Get(name string) MaterialEntryFactors {
	if m, ok := mt.Lookup(name); ok {
		return m
	}
	if m, ok := mt.Lookup(FallbackMaterial); ok {
		return m
	}
	if m, ok := DefaultMaterials.Lookup(FallbackMaterial); ok {
		return m
	}
	return MaterialEntryFactors{Name: FallbackMaterial, HelixAngleMax: 3, RampAngleMax: 5, OptimalEngagement: 70}
}

// Merge returns a table where rows in extra replace rows of the same name
// and new rows are appended.
func (mt MaterialTable) Merge(extra MaterialTable) MaterialTable {
	result := make(MaterialTable, len(mt))
	copy(result, mt)
	for _, e := range extra {
		e.Name = NormalizeMaterialName(e.Name)
		replaced := false
		for i := range result {
			if result[i].Name == e.Name {
				result[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			result = append(result, e)
		}
	}
	return result
}

// Names returns the material names in table order.
func (mt MaterialTable) Names() []string {
	names := make([]string, len(mt))
	for i, m := range mt {
		names[i] = m.Name
	}
	return names
}
