package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the campushire API server
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// HTTP Configuration
	HTTP HTTPConfig

	// Auth Configuration
	Auth AuthConfig

	// Redis Configuration
	Redis RedisConfig

	// Worker Configuration
	Worker WorkerConfig

	// Logging Configuration
	Logging LoggingConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" envDefault:"campushire.sqlite"`
}

// HTTPConfig holds listener and upload configuration
type HTTPConfig struct {
	ListenAddr  string   `env:"LISTEN_ADDR" envDefault:":8080"`
	UploadDir   string   `env:"UPLOAD_DIR" envDefault:"uploads"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

// AuthConfig holds token configuration. An empty JWTSecret makes the server
// generate one at startup, which invalidates tokens on every restart.
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
}

// RedisConfig holds Redis configuration. An empty Address disables the
// background queue and the server cleans up inline.
type RedisConfig struct {
	Address string `env:"REDIS_ADDRESS"` // Redis address (host:port)
}

// WorkerConfig holds background job configuration
type WorkerConfig struct {
	SweepSchedule string        `env:"UPLOAD_SWEEP_SCHEDULE" envDefault:"0 3 * * *"` // Cron expression, empty disables the sweep
	SweepGrace    time.Duration `env:"UPLOAD_SWEEP_GRACE" envDefault:"1h"`
	MonitorAddr   string        `env:"ASYNQMON_ADDR" envDefault:":8090"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.Auth.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.Auth.TokenTTL)
	}

	return &cfg, nil
}
