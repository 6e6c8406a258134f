package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port           string
	Env            string
	JWTSecret      string
	MigrationsPath string
	AllowedOrigins []string

	DB        DatabaseConfig
	Redis     RedisConfig
	Reset     ResetConfig
	Bootstrap BootstrapConfig
	AWS       AWSConfig
	SES       SESConfig
	S3        S3Config
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ResetConfig tunes the forgot-password flow.
type ResetConfig struct {
	// RequestCooldown is the minimum gap between two reset emails to one
	// address. Zero, the default, turns the cooldown off.
	RequestCooldown time.Duration
}

// BootstrapConfig describes the superadmin created on first boot when no
// account with that email exists yet.
type BootstrapConfig struct {
	Email    string
	Password string
	Name     string
}

// AWSConfig contains AWS credentials shared by SES and S3.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// SESConfig contains the outbound email settings.
type SESConfig struct {
	FromAddress string
}

// S3Config contains object storage settings for member photos.
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.MigrationsPath = getEnv("MIGRATIONS_PATH", "file://migrations")
	cfg.AllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	cfg.Bootstrap = BootstrapConfig{
		Email:    getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
		Password: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		Name:     getEnv("BOOTSTRAP_ADMIN_NAME", "Super Admin"),
	}

	cfg.AWS = AWSConfig{
		Region:          getEnv("AWS_REGION", "ap-southeast-1"),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	cfg.SES = SESConfig{
		FromAddress: getEnv("SES_FROM_ADDRESS", ""),
	}

	cfg.S3 = S3Config{
		Bucket:        getEnv("S3_BUCKET", ""),
		Region:        getEnv("S3_REGION", cfg.AWS.Region),
		Endpoint:      getEnv("S3_ENDPOINT", ""),
		PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
	}

	var err error
	if cfg.Reset.RequestCooldown, err = parseDurationEnv("RESET_REQUEST_COOLDOWN", "0s"); err != nil {
		return nil, fmt.Errorf("invalid RESET_REQUEST_COOLDOWN: %w", err)
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	if (cfg.Bootstrap.Email == "") != (cfg.Bootstrap.Password == "") {
		return nil, errors.New("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
