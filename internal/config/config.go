package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DEFAULT_MEDIA_BASE_URL = ""
const QR_IMAGE_SIZE = 512

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TelemetryConfig struct {
	// Minimum time between two location history points of a moving screen.
	SampleInterval time.Duration `mapstructure:"sample_interval"`
	// Distance in meters that forces a location history point regardless of time.
	SampleDistanceMeters float64 `mapstructure:"sample_distance_m"`
	// Maximum play events accepted in a single batch.
	MaxBatchSize int `mapstructure:"max_batch_size"`
}

type Config struct {
	// Secret key for signing pairing tokens and deriving the player token key. Must be set in production.
	Secret   string `mapstructure:"secret"`
	LogLevel string `mapstructure:"log_level"`

	// Address the HTTP server binds to, e.g. ":8080"
	Listen string `mapstructure:"listen"`

	// Comma separated list of allowed CIDR networks. Empty means allow all.
	AllowedNetworks string `mapstructure:"allowed_networks"`

	// Base URL prepended to relative creative file references.
	MediaBaseURL string `mapstructure:"media_base_url"`

	// TTL for player pairing tokens in seconds
	PairingTTL uint   `mapstructure:"pairing_ttl"`
	NonceStore string `mapstructure:"nonce_store"`

	Redis RedisConfig `mapstructure:"redis"`

	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	Storage Storage `mapstructure:"storage"`
}

var Cfg *Config

// Check if running in Docker container by checking for the presence of /.dockerenv file
func runningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

func getConfigPath() string {
	if runningInDocker() {
		return "/app/instance"
	}
	return "./instance"
}

// LoadConfig reads configuration from an optional config file and environment variables.
// Nested keys map to env variables with "_" as separator, e.g. STORAGE_TYPE.
func LoadConfig(configFile ...string) (*Config, error) {
	var cfg Config

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getConfigPath())
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, path := range configFile {
		if path != "" {
			v.SetConfigFile(path)
		}
	}

	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
		slog.Debug("No config file found, using defaults and environment")
	}

	// Load configuration from environment variables
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	// Warn if secret is missing - this is a critical security setting for production
	if cfg.Secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			return nil, fmt.Errorf("SECRET configuration variable is required in production")
		}
		slog.Warn("Secret is not set. Do not use in production.")
	}

	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.Telemetry.SampleInterval <= 0 {
		slog.Warn("telemetry.sample_interval must be positive, using default", "actual", cfg.Telemetry.SampleInterval)
		cfg.Telemetry.SampleInterval = defaultSampleInterval
	}
	if cfg.Telemetry.SampleDistanceMeters <= 0 {
		slog.Warn("telemetry.sample_distance_m must be positive, using default", "actual", cfg.Telemetry.SampleDistanceMeters)
		cfg.Telemetry.SampleDistanceMeters = defaultSampleDistance
	}
	if cfg.Telemetry.MaxBatchSize <= 0 {
		cfg.Telemetry.MaxBatchSize = defaultMaxBatchSize
	}

	switch cfg.Storage.Type {
	case StorageSQLite:
		// Convert relative sqlite path to absolute instance folder
		path := cfg.Storage.SQLite.Path
		if path == "" {
			return fmt.Errorf("storage.sqlite.path is required for sqlite storage")
		}
		if path != ":memory:" && !os.IsPathSeparator(path[0]) {
			cfg.Storage.SQLite.Path = fmt.Sprintf("%s/%s", getConfigPath(), strings.TrimPrefix(path, "./"))
		}
	case StoragePostgres:
		if cfg.Storage.Postgres.Database == "" {
			return fmt.Errorf("storage.postgres.database is required for postgres storage")
		}
	default:
		return fmt.Errorf("unsupported storage type %q", cfg.Storage.Type)
	}
	return nil
}
