// Package config loads the application configuration from three layers:
// built-in defaults, an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/ravlin/whereabouts/internal/models"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "WHEREABOUTS_CONFIG"

// defaultConfigPaths are searched in order when no override is set.
var defaultConfigPaths = []string{
	"whereabouts.yaml",
	"whereabouts.yml",
	"/etc/whereabouts/config.yaml",
}

// Config is the application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Inference InferenceConfig `koanf:"inference"`
	Zones     ZonesConfig     `koanf:"zones"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// StorageConfig configures the sighting store.
type StorageConfig struct {
	Dir string `koanf:"dir"`
}

// InferenceConfig configures the inference engine.
type InferenceConfig struct {
	Freshness time.Duration `koanf:"freshness"`
}

// ZonesConfig configures zone seeding and refinement. Seeds come from the
// YAML file only; without seeds, Count zones are synthesized from history.
type ZonesConfig struct {
	Count             int               `koanf:"count"`
	MaxIterations     int               `koanf:"max_iterations"`
	ConvergenceMeters float64           `koanf:"convergence_meters"`
	Seeds             []models.ZoneSeed `koanf:"seeds"`
}

// SecurityConfig configures ingest auth and rate limiting.
type SecurityConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level string `koanf:"level"`
}

func defaultConfig() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":8080"},
		Storage: StorageConfig{Dir: "./data/sightings"},
		Inference: InferenceConfig{
			Freshness: 5 * time.Minute,
		},
		Zones: ZonesConfig{
			Count:             4,
			MaxIterations:     50,
			ConvergenceMeters: 0.5,
		},
		Security: SecurityConfig{
			JWTSecret:       "",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// envMappings maps flat environment variables onto koanf paths.
var envMappings = map[string]string{
	"WHEREABOUTS_ADDR":              "server.addr",
	"WHEREABOUTS_STORAGE_DIR":       "storage.dir",
	"WHEREABOUTS_FRESHNESS":         "inference.freshness",
	"WHEREABOUTS_ZONE_COUNT":        "zones.count",
	"WHEREABOUTS_JWT_SECRET":        "security.jwt_secret",
	"WHEREABOUTS_RATE_LIMIT":        "security.rate_limit_reqs",
	"WHEREABOUTS_RATE_LIMIT_WINDOW": "security.rate_limit_window",
	"WHEREABOUTS_LOG_LEVEL":         "logging.level",
}

// Load builds the configuration with precedence env > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("WHEREABOUTS_", ".", func(key string) string {
		if mapped, ok := envMappings[key]; ok {
			return mapped
		}
		// Unmapped WHEREABOUTS_ variables are ignored rather than guessed at.
		return ""
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
