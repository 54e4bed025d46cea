package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_HasRegisteredDoctors(t *testing.T) {
	cfg := Default()

	if len(cfg.Doctors) != 2 {
		t.Fatalf("expected 2 default doctors, got %d", len(cfg.Doctors))
	}
	if cfg.Doctors[1].SignatureSize != 2 {
		t.Errorf("expected second doctor signature size 2, got %v", cfg.Doctors[1].SignatureSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestParse_KeepsDefaultsForMissingSections(t *testing.T) {
	cfg := Default()
	data := []byte(`
gcp:
  project_id: my-project
  bucket: reports-bucket
storage:
  backend: bigquery
`)

	if err := Parse(data, cfg); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.GCP.ProjectID != "my-project" {
		t.Errorf("project = %q", cfg.GCP.ProjectID)
	}
	if cfg.GCP.Dataset != "medical_reports" {
		t.Errorf("dataset default lost, got %q", cfg.GCP.Dataset)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port default lost, got %d", cfg.Server.Port)
	}
	if len(cfg.Doctors) != 2 {
		t.Errorf("doctor defaults lost, got %d", len(cfg.Doctors))
	}
}

func TestParse_ReplacesDoctors(t *testing.T) {
	cfg := Default()
	data := []byte(`
doctors:
  - name: Dr. Test
    number: "Nº 1"
    signature_url: https://drive.google.com/file/d/abc/view
    signature_size: 1.5
`)

	if err := Parse(data, cfg); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cfg.Doctors) != 1 || cfg.Doctors[0].Name != "Dr. Test" {
		t.Fatalf("unexpected doctors: %+v", cfg.Doctors)
	}
	if cfg.Doctors[0].SignatureSize != 1.5 {
		t.Errorf("signature size = %v", cfg.Doctors[0].SignatureSize)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		"GCP_PROJECT":     "env-project",
		"STORAGE_BACKEND": "mongo",
		"MONGO_URI":       "mongodb://localhost:27017",
		"PORT":            "9090",
		"LOG_LEVEL":       "debug",
	}

	applyEnv(cfg, func(k string) string { return env[k] })

	if cfg.GCP.ProjectID != "env-project" {
		t.Errorf("project = %q", cfg.GCP.ProjectID)
	}
	if cfg.Storage.Backend != BackendMongo {
		t.Errorf("backend = %q", cfg.Storage.Backend)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("level = %q", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }, true},
		{"bigquery without project", func(c *Config) { c.Storage.Backend = BackendBigQuery }, true},
		{"mongo without uri", func(c *Config) { c.Storage.Backend = BackendMongo }, true},
		{"zero signature size", func(c *Config) { c.Doctors[0].SignatureSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFindDoctor(t *testing.T) {
	cfg := Default()

	d, err := cfg.FindDoctor("Dra. Paz Marian Casal")
	if err != nil {
		t.Fatalf("FindDoctor failed: %v", err)
	}
	if d.Number != "Médico colegiado Nº 987 de Sevilla" {
		t.Errorf("number = %q", d.Number)
	}

	_, err = cfg.FindDoctor("Nobody")
	if !errors.Is(err, ErrUnknownDoctor) {
		t.Errorf("expected ErrUnknownDoctor, got %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
