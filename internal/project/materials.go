package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/camkernel/internal/model"
)

// DefaultMaterialsPath returns the default file path for custom materials.
func DefaultMaterialsPath() string {
	return filepath.Join(DefaultConfigDir(), "materials.json")
}

// SaveMaterials writes a material table as YAML (.yaml, .yml) or JSON.
func SaveMaterials(path string, table model.MaterialTable) error {
	if table == nil {
		table = model.MaterialTable{}
	}
	return writeFile(path, table)
}

// LoadMaterials reads custom material rows and merges them over the
// built-in table: rows with a built-in name replace it, new names are
// appended. A missing file yields the built-in table.
func LoadMaterials(path string) (model.MaterialTable, error) {
	var custom model.MaterialTable
	if err := readFile(path, &custom); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.DefaultMaterials, nil
		}
		return nil, err
	}
	for i, m := range custom {
		if m.Name == "" {
			return nil, fmt.Errorf("material %d has no name", i+1)
		}
		if m.HelixAngleMax < 0 || m.RampAngleMax < 0 {
			return nil, fmt.Errorf("material %q has a negative entry angle", m.Name)
		}
	}
	return model.DefaultMaterials.Merge(custom), nil
}
