package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	USDA          USDAConfig
	OpenFoodFacts OpenFoodFactsConfig `mapstructure:"openfoodfacts"`
	DSLD          DSLDConfig
	Cache         CacheConfig
	RateLimit     RateLimitConfig `mapstructure:"ratelimit"`
	Auth          AuthConfig
	Pairing       PairingConfig
	Matching      MatchingConfig
	Log           LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects the store backing foods, logs and pairing state
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "postgres" or "sqlite"
	DSN    string `mapstructure:"dsn"`
}

// USDAConfig holds USDA API configuration
type USDAConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OpenFoodFactsConfig holds OpenFoodFacts API configuration
type OpenFoodFactsConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// DSLDConfig holds Dietary Supplement Label Database configuration
type DSLDConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration.
// Every limit is a number of requests per Window.
type RateLimitConfig struct {
	Backend               string        `mapstructure:"backend"` // "memory" or "redis"
	RedisURL              string        `mapstructure:"redis_url"`
	Window                time.Duration `mapstructure:"window"`
	PairingRequestPerIP   int           `mapstructure:"pairing_request_per_ip"`
	PairingStatusPerToken int           `mapstructure:"pairing_status_per_token"`
	PairingClaimPerUser   int           `mapstructure:"pairing_claim_per_user"`
	SearchPerUser         int           `mapstructure:"search_per_user"`
}

// AuthConfig holds session token verification settings
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// PairingConfig holds device pairing settings
type PairingConfig struct {
	CodeTTL  time.Duration `mapstructure:"code_ttl"`
	ClaimURL string        `mapstructure:"claim_url"`
}

// MatchingConfig tunes supplement label matching
type MatchingConfig struct {
	MinConfidenceThreshold float64 `mapstructure:"min_confidence_threshold"` // 0-100
	EnableFuzzyMatching    bool    `mapstructure:"enable_fuzzy_matching"`
	FuzzyEditDistance      int     `mapstructure:"fuzzy_edit_distance"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/macrolens/")

	// Environment variable settings: usda.api_key <- MACROLENS_USDA_API_KEY
	v.SetEnvPrefix("MACROLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env when present. Variables already set in the
// environment win over the file.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "macrolens.db")

	// Source defaults
	v.SetDefault("usda.api_key", "")
	v.SetDefault("usda.base_url", "https://api.nal.usda.gov/fdc")
	v.SetDefault("usda.timeout", "5s")
	v.SetDefault("openfoodfacts.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("openfoodfacts.timeout", "5s")
	v.SetDefault("openfoodfacts.user_agent", "MacroLens/1.0 (support@macrolens.app)")
	v.SetDefault("dsld.base_url", "https://api.ods.od.nih.gov/dsld")
	v.SetDefault("dsld.timeout", "5s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.redis_url", "")
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("ratelimit.pairing_request_per_ip", 5)
	v.SetDefault("ratelimit.pairing_status_per_token", 60)
	v.SetDefault("ratelimit.pairing_claim_per_user", 10)
	v.SetDefault("ratelimit.search_per_user", 30)

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")

	// Pairing defaults
	v.SetDefault("pairing.code_ttl", "5m")
	v.SetDefault("pairing.claim_url", "macrolens://pair?code=%s")

	// Matching defaults
	v.SetDefault("matching.min_confidence_threshold", 40.0)
	v.SetDefault("matching.enable_fuzzy_matching", true)
	v.SetDefault("matching.fuzzy_edit_distance", 1)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.USDA.APIKey == "" {
		return fmt.Errorf("USDA API key is required (set MACROLENS_USDA_API_KEY)")
	}

	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required (set MACROLENS_AUTH_JWT_SECRET)")
	}

	if config.Database.Driver != "postgres" && config.Database.Driver != "sqlite" {
		return fmt.Errorf("database driver must be 'postgres' or 'sqlite', got: %s", config.Database.Driver)
	}

	if config.Database.DSN == "" {
		return fmt.Errorf("database DSN is required (set MACROLENS_DATABASE_DSN)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.RateLimit.Backend != "memory" && config.RateLimit.Backend != "redis" {
		return fmt.Errorf("rate limit backend must be 'memory' or 'redis', got: %s", config.RateLimit.Backend)
	}

	if config.RateLimit.Backend == "redis" && config.RateLimit.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when rate limit backend is 'redis'")
	}

	if config.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got: %s", config.RateLimit.Window)
	}

	if config.Matching.MinConfidenceThreshold < 0 || config.Matching.MinConfidenceThreshold > 100 {
		return fmt.Errorf("matching confidence threshold must be between 0 and 100, got: %.1f", config.Matching.MinConfidenceThreshold)
	}

	if !strings.Contains(config.Pairing.ClaimURL, "%s") {
		return fmt.Errorf("pairing claim URL must contain %%s for the code, got: %s", config.Pairing.ClaimURL)
	}

	return nil
}
