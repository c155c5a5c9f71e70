package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Pipeline PipelineConfig
	Database DatabaseConfig
	Report   ReportConfig
}

// DataConfig holds structure retrieval and labeling settings
type DataConfig struct {
	Source       string // "pdb" or "alphafold"
	CacheDir     string
	LabelFile    string // .xlsx or .csv
	RegistryFile string
	IDs          []string // candidate protein identifiers
}

// PipelineConfig holds feature extraction and training settings
type PipelineConfig struct {
	Extractors  []string
	ModelKind   string
	TrainRatio  float64
	Seed        int64
	MinRows     int
	MaxRetries  int
	Concurrency int
}

// DatabaseConfig holds the optional run ledger connection. An empty URL
// means runs are not persisted.
type DatabaseConfig struct {
	URL string
}

// ReportConfig holds report output settings
type ReportConfig struct {
	Dir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Data: DataConfig{
			Source:       getEnvOrDefault("STRUCTURE_SOURCE", "pdb"),
			CacheDir:     getEnvOrDefault("STRUCTURE_CACHE_DIR", "data/structures"),
			LabelFile:    os.Getenv("LABEL_FILE"),
			RegistryFile: getEnvOrDefault("REGISTRY_FILE", "data/registry.json"),
			IDs:          splitList(os.Getenv("PROTEIN_IDS")),
		},
		Pipeline: PipelineConfig{
			Extractors:  splitList(getEnvOrDefault("EXTRACTORS", "aa_composition,physicochemical,secondary_structure")),
			ModelKind:   getEnvOrDefault("MODEL_KIND", "random_forest"),
			TrainRatio:  getEnvFloatOrDefault("TRAIN_RATIO", 0.7),
			Seed:        int64(getEnvIntOrDefault("SEED", 42)),
			MinRows:     getEnvIntOrDefault("MIN_ROWS", 2),
			MaxRetries:  getEnvIntOrDefault("MAX_RETRIES", 1),
			Concurrency: getEnvIntOrDefault("CONCURRENCY", 4),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Report: ReportConfig{
			Dir: getEnvOrDefault("REPORT_DIR", "reports"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

func validateConfig(config *Config) error {
	switch config.Data.Source {
	case "pdb", "alphafold":
	default:
		return fmt.Errorf("unknown STRUCTURE_SOURCE %q", config.Data.Source)
	}
	if config.Data.LabelFile == "" {
		return fmt.Errorf("LABEL_FILE is required")
	}
	if len(config.Pipeline.Extractors) == 0 {
		return fmt.Errorf("EXTRACTORS must name at least one extractor")
	}
	if config.Pipeline.TrainRatio <= 0 || config.Pipeline.TrainRatio >= 1 {
		return fmt.Errorf("TRAIN_RATIO must be in (0, 1), got %g", config.Pipeline.TrainRatio)
	}
	if config.Pipeline.Concurrency < 1 {
		return fmt.Errorf("CONCURRENCY must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
