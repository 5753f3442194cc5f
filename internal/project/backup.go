package project

import (
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/camkernel/internal/model"
)

// BackupVersion is written into every backup file.
const BackupVersion = "1.0.0"

// BackupData is the top-level structure for import/export of all application data.
type BackupData struct {
	Version   string              `json:"version"`
	CreatedAt string              `json:"created_at"`
	Config    model.AppConfig     `json:"config"`
	Tools     model.ToolLibrary   `json:"tools"`
	Materials model.MaterialTable `json:"materials,omitempty"`
}

// ExportAllData exports the config, tool library and custom materials to a
// single JSON file at the specified path.
func ExportAllData(exportPath string, config model.AppConfig, tools model.ToolLibrary, materials model.MaterialTable) error {
	backup := BackupData{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Tools:     tools,
		Materials: materials,
	}
	if err := writeFile(exportPath, backup); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying it.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	backup := BackupData{Config: model.DefaultAppConfig()}
	if err := unmarshal(importPath, data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if backup.Tools.Tools == nil {
		backup.Tools.Tools = []model.ToolSpec{}
	}
	return backup, nil
}
