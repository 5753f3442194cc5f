package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/camkernel/internal/model"
)

func TestExportAndImportAllData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultMaterial = "steel"
	tools := model.ToolLibrary{Tools: []model.ToolSpec{{ID: "em6", Name: "6mm End Mill", Family: model.ToolEndMill, Diameter: 6, FluteCount: 3}}}
	materials := model.MaterialTable{{Name: "wax", HelixAngleMax: 15, RampAngleMax: 30, PlungeOK: true}}

	if err := ExportAllData(path, cfg, tools, materials); err != nil {
		t.Fatalf("ExportAllData failed: %v", err)
	}

	backup, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}
	if backup.Version != BackupVersion {
		t.Errorf("expected version %s, got %s", BackupVersion, backup.Version)
	}
	if backup.CreatedAt == "" {
		t.Error("expected CreatedAt to be set")
	}
	if backup.Config != cfg {
		t.Errorf("config mismatch: got %+v", backup.Config)
	}
	if len(backup.Tools.Tools) != 1 || backup.Tools.Tools[0].ID != "em6" {
		t.Errorf("tools not preserved: %+v", backup.Tools)
	}
	if len(backup.Materials) != 1 || backup.Materials[0].Name != "wax" {
		t.Errorf("materials not preserved: %+v", backup.Materials)
	}
}

func TestImportAllDataRejectsMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	if err := os.WriteFile(path, []byte(`{"config":{}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportAllData(path); err == nil {
		t.Error("expected error for backup without version")
	}
}

func TestImportAllDataMissingFile(t *testing.T) {
	if _, err := ImportAllData(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestImportAllDataNilTools(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	if err := os.WriteFile(path, []byte(`{"version":"1.0.0"}`), 0644); err != nil {
		t.Fatal(err)
	}
	backup, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}
	if backup.Tools.Tools == nil {
		t.Error("expected non-nil tool slice")
	}
	if backup.Config.DefaultController != model.ControllerFanuc {
		t.Error("expected missing config to fall back to defaults")
	}
}
