package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the planner service
type Config struct {
	AppEnv   string         `yaml:"app_env" validate:"oneof=development production"`
	Server   ServerConfig   `yaml:"server"`
	Provider ProviderConfig `yaml:"provider"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Places   PlacesConfig   `yaml:"places"`
	Policy   PolicyConfig   `yaml:"policy"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr               string        `yaml:"addr" validate:"required"` // e.g., "127.0.0.1:8080" or "127.0.0.1:0" for random port
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout" validate:"gte=0"`
}

// ProviderConfig points at the OSRM-compatible routing service
type ProviderConfig struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// CatalogConfig controls the transfer-point catalog database
type CatalogConfig struct {
	Path        string `yaml:"path" validate:"required"`
	SeedBuiltin bool   `yaml:"seed_builtin"`
	GTFSPath    string `yaml:"gtfs_path"`
	GTFSKind    string `yaml:"gtfs_kind" validate:"omitempty,oneof=taxi_stand van_terminal"`
}

// PlacesConfig points at the Nominatim place search service. Viewbox is
// min_lng, min_lat, max_lng, max_lat; empty searches worldwide.
type PlacesConfig struct {
	BaseURL   string    `yaml:"base_url" validate:"omitempty,url"`
	UserAgent string    `yaml:"user_agent" validate:"required_with=BaseURL"`
	Viewbox   []float64 `yaml:"viewbox" validate:"omitempty,len=4"`
}

// PolicyConfig exposes the composition thresholds so deployments can tune them
type PolicyConfig struct {
	DetourRatioLimit float64 `yaml:"detour_ratio_limit" validate:"gt=1"`
	OriginWeight     float64 `yaml:"origin_weight" validate:"gte=0"`
	DestWeight       float64 `yaml:"destination_weight" validate:"gte=0"`
	TaxiRadiusMeters float64 `yaml:"taxi_radius_meters" validate:"gt=0"`
	VanRadiusMeters  float64 `yaml:"van_radius_meters" validate:"gt=0"`
	SyntheticCount   int     `yaml:"synthetic_count" validate:"min=1,max=50"`
	RandomSeed       int64   `yaml:"random_seed"` // 0 = time-seeded
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		AppEnv: "production",
		Server: ServerConfig{
			Addr:               "127.0.0.1:8080",
			SessionIdleTimeout: 30 * time.Minute,
		},
		Provider: ProviderConfig{
			BaseURL: "https://router.project-osrm.org",
			Timeout: 8 * time.Second,
		},
		Catalog: CatalogConfig{
			Path:        "cityroute.db",
			SeedBuiltin: true,
		},
		Places: PlacesConfig{
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "CityRoute/1.0",
			Viewbox:   []float64{120.55, 16.37, 120.65, 16.45},
		},
		Policy: PolicyConfig{
			DetourRatioLimit: 1.8,
			OriginWeight:     0.7,
			DestWeight:       0.3,
			TaxiRadiusMeters: 800,
			VanRadiusMeters:  1500,
			SyntheticCount:   5,
		},
	}
}

// Load reads the YAML file at path on top of the defaults, applies
// environment overrides and validates the result. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.Server.Addr = getEnv("SERVER_ADDR", cfg.Server.Addr)
	cfg.Provider.BaseURL = getEnv("OSRM_URL", cfg.Provider.BaseURL)
	cfg.Catalog.Path = getEnv("CATALOG_DB", cfg.Catalog.Path)
	cfg.Catalog.GTFSPath = getEnv("CATALOG_GTFS", cfg.Catalog.GTFSPath)
	cfg.Places.BaseURL = getEnv("PLACES_URL", cfg.Places.BaseURL)

	if v := os.Getenv("PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Provider.Timeout = d
		}
	}
	if v := os.Getenv("PLANNER_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Policy.RandomSeed = seed
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
