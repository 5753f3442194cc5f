package model

import "strings"

// ToolLibrary is the tool database the planner resolves tool IDs against.
type ToolLibrary struct {
	Tools []ToolSpec `json:"tools" yaml:"tools"`
}

// DefaultToolLibrary returns a library populated with common tools.
func DefaultToolLibrary() ToolLibrary {
	face := NewToolSpec("50mm Face Mill", ToolFaceMill, 50, 6, 60, 5)
	face.HolderDiameter = 60
	return ToolLibrary{
		Tools: []ToolSpec{
			NewToolSpec("10mm Carbide End Mill", ToolEndMill, 10, 22, 72, 4),
			NewToolSpec("6mm Carbide End Mill", ToolEndMill, 6, 13, 57, 3),
			NewToolSpec("6mm Ball Nose", ToolBallNose, 6, 12, 57, 2),
			NewToolSpec("8.5mm Carbide Drill", ToolDrill, 8.5, 43, 103, 2),
			NewToolSpec("M10 Tap", ToolTap, 10, 20, 90, 3),
			face,
		},
	}
}

// FindToolByID returns a pointer to the tool with the given ID, or nil.
func (lib *ToolLibrary) FindToolByID(id string) *ToolSpec {
	for i := range lib.Tools {
		if lib.Tools[i].ID == id {
			return &lib.Tools[i]
		}
	}
	return nil
}

// FindToolByName returns a pointer to the first tool whose name matches
// case-insensitively, or nil.
func (lib *ToolLibrary) FindToolByName(name string) *ToolSpec {
	for i := range lib.Tools {
		if strings.EqualFold(lib.Tools[i].Name, name) {
			return &lib.Tools[i]
		}
	}
	return nil
}

// Resolve looks a tool up by ID and then by name.
func (lib *ToolLibrary) Resolve(ref string) (ToolSpec, bool) {
	if t := lib.FindToolByID(ref); t != nil {
		return *t, true
	}
	if t := lib.FindToolByName(ref); t != nil {
		return *t, true
	}
	return ToolSpec{}, false
}

// Add appends a tool, replacing any tool with the same ID.
func (lib *ToolLibrary) Add(t ToolSpec) {
	for i := range lib.Tools {
		if lib.Tools[i].ID == t.ID {
			lib.Tools[i] = t
			return
		}
	}
	lib.Tools = append(lib.Tools, t)
}

// Remove removes a tool by ID. Returns true if found and removed.
func (lib *ToolLibrary) Remove(id string) bool {
	for i, t := range lib.Tools {
		if t.ID == id {
			lib.Tools = append(lib.Tools[:i], lib.Tools[i+1:]...)
			return true
		}
	}
	return false
}

// ToolNames returns the tool names in library order.
func (lib *ToolLibrary) ToolNames() []string {
	names := make([]string, len(lib.Tools))
	for i, t := range lib.Tools {
		names[i] = t.Name
	}
	return names
}
