// Package config loads the service configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// ErrUnknownDoctor is returned when a doctor name is not registered.
var ErrUnknownDoctor = errors.New("unknown doctor")

// Storage backends.
const (
	BackendNone     = "none"
	BackendBigQuery = "bigquery"
	BackendMongo    = "mongo"
)

type ServerConfig struct {
	Port           int    `yaml:"port"`
	APIKey         string `yaml:"api_key"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	Workers        int    `yaml:"workers"`
}

type GCPConfig struct {
	ProjectID string `yaml:"project_id"`
	Dataset   string `yaml:"dataset"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

type GeminiConfig struct {
	Model    string `yaml:"model"`
	OCRModel string `yaml:"ocr_model"`
	Location string `yaml:"location"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type StorageConfig struct {
	Backend string      `yaml:"backend"`
	Mongo   MongoConfig `yaml:"mongo"`
}

type NotionConfig struct {
	Token     string `yaml:"token"`
	RecordsDB string `yaml:"records_db_id"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Doctor is a registered signing doctor.
type Doctor struct {
	Name          string  `yaml:"name" json:"name"`
	Number        string  `yaml:"number" json:"number"`
	SignatureURL  string  `yaml:"signature_url" json:"signature_url"`
	SignatureSize float64 `yaml:"signature_size" json:"signature_size"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	GCP     GCPConfig     `yaml:"gcp"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Storage StorageConfig `yaml:"storage"`
	Notion  NotionConfig  `yaml:"notion"`
	Log     LogConfig     `yaml:"log"`
	Doctors []Doctor      `yaml:"doctors"`
}

const defaultSignatureURL = "https://drive.google.com/file/d/1uiMxUdsYmBYXyJwKSya7J0NAZsShmNYK/view"

// DefaultDoctors is the registry used when the config file lists none.
func DefaultDoctors() []Doctor {
	return []Doctor{
		{
			Name:          "Antonio Buzido Jimenez",
			Number:        "Médico colegiado Nº 9800 de Sevilla",
			SignatureURL:  defaultSignatureURL,
			SignatureSize: 1,
		},
		{
			Name:          "Dra. Paz Marian Casal",
			Number:        "Médico colegiado Nº 987 de Sevilla",
			SignatureURL:  defaultSignatureURL,
			SignatureSize: 2,
		},
	}
}

// Default returns a configuration that works locally without cloud access.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			MaxUploadBytes: 32 << 20,
			Workers:        2,
		},
		GCP: GCPConfig{
			Dataset: "medical_reports",
			Prefix:  "reports",
		},
		Gemini: GeminiConfig{
			Model:    "gemini-2.5-flash",
			OCRModel: "gemini-2.5-flash",
			Location: "europe-west1",
		},
		Storage: StorageConfig{
			Backend: BackendNone,
			Mongo: MongoConfig{
				Database: "medreport",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
		Doctors: DefaultDoctors(),
	}
}

// Load reads the YAML file at path (if non-empty) over the defaults and then
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("Load: reading %s: %w", path, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, fmt.Errorf("Load: %w", err)
		}
	}

	applyEnv(cfg, os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Fields absent from the document keep their
// current values.
func Parse(data []byte, cfg *Config) error {
	doctors := cfg.Doctors
	cfg.Doctors = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}
	if len(cfg.Doctors) == 0 {
		cfg.Doctors = doctors
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&cfg.GCP.ProjectID, "GCP_PROJECT")
	setString(&cfg.GCP.Bucket, "GCS_BUCKET")
	setString(&cfg.GCP.Dataset, "BQ_DATASET")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")
	setString(&cfg.Gemini.OCRModel, "GEMINI_OCR_MODEL")
	setString(&cfg.Storage.Backend, "STORAGE_BACKEND")
	setString(&cfg.Storage.Mongo.URI, "MONGO_URI")
	setString(&cfg.Notion.Token, "NOTION_TOKEN")
	setString(&cfg.Notion.RecordsDB, "NOTION_RECORDS_DB_ID")
	setString(&cfg.Server.APIKey, "API_KEY")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	if v := getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendNone, BackendBigQuery, BackendMongo:
	default:
		return fmt.Errorf("Validate: unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == BackendBigQuery && c.GCP.ProjectID == "" {
		return errors.New("Validate: bigquery backend requires gcp.project_id")
	}
	if c.Storage.Backend == BackendMongo && c.Storage.Mongo.URI == "" {
		return errors.New("Validate: mongo backend requires storage.mongo.uri")
	}
	for _, d := range c.Doctors {
		if strings.TrimSpace(d.Name) == "" {
			return errors.New("Validate: doctor without name")
		}
		if d.SignatureSize <= 0 {
			return fmt.Errorf("Validate: doctor %q: signature_size must be positive", d.Name)
		}
	}
	return nil
}

// FindDoctor returns the registered doctor with the exact name.
func (c *Config) FindDoctor(name string) (Doctor, error) {
	for _, d := range c.Doctors {
		if d.Name == name {
			return d, nil
		}
	}
	return Doctor{}, fmt.Errorf("FindDoctor: %q: %w", name, ErrUnknownDoctor)
}

// DoctorNames lists registered doctors in configuration order.
func (c *Config) DoctorNames() []string {
	names := make([]string, 0, len(c.Doctors))
	for _, d := range c.Doctors {
		names = append(names, d.Name)
	}
	return names
}
