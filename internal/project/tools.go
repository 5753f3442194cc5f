package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/camkernel/internal/model"
)

// DefaultToolLibraryPath returns the default file path for the tool library.
func DefaultToolLibraryPath() string {
	return filepath.Join(DefaultConfigDir(), "tools.json")
}

// SaveToolLibrary writes the tool library to the specified file.
// It creates parent directories if they do not exist.
func SaveToolLibrary(path string, lib model.ToolLibrary) error {
	if lib.Tools == nil {
		lib.Tools = []model.ToolSpec{}
	}
	return writeFile(path, lib)
}

// LoadToolLibrary reads the tool library from the specified file.
// If the file does not exist, it returns the default library and saves it.
func LoadToolLibrary(path string) (model.ToolLibrary, error) {
	var lib model.ToolLibrary
	if err := readFile(path, &lib); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			lib = model.DefaultToolLibrary()
			return lib, SaveToolLibrary(path, lib)
		}
		return model.ToolLibrary{}, err
	}
	for i, t := range lib.Tools {
		if t.ID == "" {
			return model.ToolLibrary{}, fmt.Errorf("tool %d (%s) has no id", i+1, t.Name)
		}
		if t.Diameter <= 0 {
			return model.ToolLibrary{}, fmt.Errorf("tool %q has non-positive diameter", t.ID)
		}
	}
	return lib, nil
}

// ImportToolLibrary merges the tools of another library file into existing.
// Tools whose ID is already present are skipped.
func ImportToolLibrary(path string, existing model.ToolLibrary) (model.ToolLibrary, error) {
	var imported model.ToolLibrary
	if err := readFile(path, &imported); err != nil {
		return existing, err
	}

	merged := model.ToolLibrary{Tools: append([]model.ToolSpec(nil), existing.Tools...)}
	ids := make(map[string]bool, len(merged.Tools))
	for _, t := range merged.Tools {
		ids[t.ID] = true
	}
	for _, t := range imported.Tools {
		if !ids[t.ID] {
			merged.Tools = append(merged.Tools, t)
			ids[t.ID] = true
		}
	}
	return merged, nil
}
