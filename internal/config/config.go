package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shipdash/internal/backend"
	"shipdash/internal/stats"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Backend             backend.Config
	DataPath            string
	LogDir              string
	ExportDir           string
	EnableMermaidCharts bool
	HistogramBuckets    int
	DensitySteps        int
	OnInvalidNumeric    stats.NumericPolicy
	Preview             PreviewConfig
}

// PreviewConfig controls the optional browser preview server.
type PreviewConfig struct {
	Addr    string
	Enabled bool
	Open    bool
}

// Load loads the configuration from .env files, an optional config file and environment variables.
// Environment variables use the SHIPDASH_ prefix with dots replaced by underscores
// (backend.url -> SHIPDASH_BACKEND_URL).
func Load(configFile string) (*AppConfig, error) {
	// 1. Binary directory .env wins for MCP launches, where the cwd is arbitrary.
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Working directory .env for development runs.
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SHIPDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		configFile = os.Getenv("SHIPDASH_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug().Str("path", configFile).Msg("Loaded configuration file")
	}

	dataPath := v.GetString("data_path")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	exportDir := filepath.Join(dataPath, "exports")

	if err := os.MkdirAll(exportDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", exportDir).Msg("Failed to create export directory")
	}

	cfg := &AppConfig{
		Backend: backend.Config{
			BaseURL: strings.TrimRight(v.GetString("backend.url"), "/"),
			Timeout: v.GetDuration("backend.timeout"),
		},
		DataPath:            dataPath,
		LogDir:              logDir,
		ExportDir:           exportDir,
		EnableMermaidCharts: v.GetBool("mermaid.enabled"),
		HistogramBuckets:    v.GetInt("histogram.buckets"),
		DensitySteps:        v.GetInt("density.steps"),
		OnInvalidNumeric:    stats.NumericPolicy(strings.ToLower(v.GetString("aggregation.on_invalid_numeric"))),
		Preview: PreviewConfig{
			Addr:    v.GetString("preview.addr"),
			Enabled: v.GetBool("preview.enabled"),
			Open:    v.GetBool("preview.open"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", "http://localhost:5000")
	v.SetDefault("backend.timeout", "30s")

	v.SetDefault("data_path", "")
	v.SetDefault("mermaid.enabled", true)

	v.SetDefault("histogram.buckets", stats.DefaultBuckets)
	v.SetDefault("density.steps", stats.DefaultDensitySteps)
	v.SetDefault("aggregation.on_invalid_numeric", string(stats.PolicyZero))

	v.SetDefault("preview.addr", "127.0.0.1:8765")
	v.SetDefault("preview.enabled", false)
	v.SetDefault("preview.open", false)
}

// Validate checks that all configuration values are usable.
func (c *AppConfig) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.url is required")
	}
	if c.Backend.Timeout <= 0 || c.Backend.Timeout > 10*time.Minute {
		return fmt.Errorf("backend.timeout must be between 0 and 10m, got %s", c.Backend.Timeout)
	}
	if c.HistogramBuckets < 1 {
		return fmt.Errorf("histogram.buckets must be at least 1")
	}
	if c.DensitySteps < 1 {
		return fmt.Errorf("density.steps must be at least 1")
	}
	if !c.OnInvalidNumeric.Valid() {
		return fmt.Errorf("aggregation.on_invalid_numeric must be one of: zero, skip, fail")
	}
	if c.Preview.Enabled && c.Preview.Addr == "" {
		return fmt.Errorf("preview.addr is required when preview is enabled")
	}
	return nil
}
