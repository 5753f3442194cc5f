package model

// AppConfig holds application-wide preferences and planning defaults.
type AppConfig struct {
	DefaultController    ControllerType `json:"default_controller"`
	DefaultProgramNumber int            `json:"default_program_number"`
	DefaultMaterial      string         `json:"default_material"`
	DefaultSafeZ         float64        `json:"default_safe_z"`
	DefaultWorkOffset    string         `json:"default_work_offset"`
	DefaultCoolant       CoolantMode    `json:"default_coolant"`

	// Verification and generation limits
	RapidRate         float64 `json:"rapid_rate"`          // mm/min, used for time estimates
	NearMissClearance float64 `json:"near_miss_clearance"` // mm above stock top
	MaxPocketOffsets  int     `json:"max_pocket_offsets"`  // hard ceiling per Z level
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		DefaultController:    ControllerFanuc,
		DefaultProgramNumber: 1000,
		DefaultMaterial:      "aluminum",
		DefaultSafeZ:         25.0,
		DefaultWorkOffset:    "G54",
		DefaultCoolant:       CoolantFlood,
		RapidRate:            5000.0,
		NearMissClearance:    2.0,
		MaxPocketOffsets:     500,
	}
}

// ApplyToJob fills the zero-valued job fields from the configured defaults.
func (c AppConfig) ApplyToJob(j *Job) {
	if j.Controller == "" {
		j.Controller = c.DefaultController
	}
	if j.ProgramNumber == 0 {
		j.ProgramNumber = c.DefaultProgramNumber
	}
	if j.Material == "" {
		j.Material = c.DefaultMaterial
	}
	if j.ZSafe == 0 {
		j.ZSafe = c.DefaultSafeZ
	}
	for i := range j.Operations {
		op := &j.Operations[i]
		if op.WorkOffset == "" {
			op.WorkOffset = c.DefaultWorkOffset
		}
		if op.Coolant == "" {
			op.Coolant = c.DefaultCoolant
		}
	}
}
