package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Tokens   TokenConfig
	Cookies  CookieConfig
	Password PasswordConfig
	Media    MediaConfig
	Upload   UploadConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// TokenConfig holds access and refresh token settings. The two secrets
// have no defaults and must differ.
type TokenConfig struct {
	AccessSecret  string
	AccessExpiry  time.Duration
	RefreshSecret string
	RefreshExpiry time.Duration
	Issuer        string
}

// CookieConfig holds session cookie attributes
type CookieConfig struct {
	Secure bool
	Domain string
}

// PasswordConfig holds credential hashing settings
type PasswordConfig struct {
	HashCost int
}

// MediaConfig holds object storage settings. Without a bucket, images are
// kept in process memory.
type MediaConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	UsePathStyle    bool
}

// UploadConfig holds local staging settings for incoming files
type UploadConfig struct {
	TempDir       string
	MaxBytes      int64
	SweepInterval time.Duration
	SweepMaxAge   time.Duration
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8000"),
			Env:            getEnv("SERVER_ENV", "development"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "8001"),
			Namespace: getEnv("DB_NAMESPACE", "vidshare"),
			Database:  getEnv("DB_DATABASE", "main"),
			User:      getEnv("DB_USER", "root"),
			Password:  getEnv("DB_PASSWORD", "root"),
		},
		Tokens: TokenConfig{
			AccessSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
			AccessExpiry:  getDurationEnv("ACCESS_TOKEN_EXPIRY", 24*time.Hour),
			RefreshSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
			RefreshExpiry: getDurationEnv("REFRESH_TOKEN_EXPIRY", 240*time.Hour),
			Issuer:        getEnv("TOKEN_ISSUER", "vidshare"),
		},
		Cookies: CookieConfig{
			Secure: getBoolEnv("COOKIE_SECURE", true),
			Domain: getEnv("COOKIE_DOMAIN", ""),
		},
		Password: PasswordConfig{
			HashCost: getIntEnv("PASSWORD_HASH_COST", bcrypt.DefaultCost),
		},
		Media: MediaConfig{
			Bucket:          getEnv("MEDIA_BUCKET", ""),
			Region:          getEnv("MEDIA_REGION", "us-east-1"),
			Endpoint:        getEnv("MEDIA_ENDPOINT", ""),
			AccessKeyID:     getEnv("MEDIA_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("MEDIA_SECRET_ACCESS_KEY", ""),
			PublicBaseURL:   getEnv("MEDIA_PUBLIC_BASE_URL", ""),
			UsePathStyle:    getBoolEnv("MEDIA_USE_PATH_STYLE", false),
		},
		Upload: UploadConfig{
			TempDir:       getEnv("UPLOAD_TEMP_DIR", ""),
			MaxBytes:      int64(getIntEnv("UPLOAD_MAX_BYTES", 5<<20)),
			SweepInterval: getDurationEnv("UPLOAD_SWEEP_INTERVAL", 10*time.Minute),
			SweepMaxAge:   getDurationEnv("UPLOAD_SWEEP_MAX_AGE", time.Hour),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	// Token validation
	if err := c.Tokens.Validate(); err != nil {
		errs = append(errs, err)
	}

	// Cookies must not travel over plain HTTP outside development
	if c.IsProduction() && !c.Cookies.Secure {
		errs = append(errs, errors.New("COOKIE_SECURE must be true in production"))
	}

	if c.Password.HashCost < bcrypt.MinCost || c.Password.HashCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("PASSWORD_HASH_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	// Media validation
	if c.Media.Bucket != "" && c.Media.Region == "" {
		errs = append(errs, errors.New("MEDIA_REGION is required when MEDIA_BUCKET is set"))
	}
	if (c.Media.AccessKeyID == "") != (c.Media.SecretAccessKey == "") {
		errs = append(errs, errors.New("MEDIA_ACCESS_KEY_ID and MEDIA_SECRET_ACCESS_KEY must be set together"))
	}
	if c.IsProduction() && c.Media.Bucket == "" {
		errs = append(errs, errors.New("MEDIA_BUCKET is required in production"))
	}

	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if c.Upload.SweepInterval <= 0 || c.Upload.SweepMaxAge <= 0 {
		errs = append(errs, errors.New("UPLOAD_SWEEP_INTERVAL and UPLOAD_SWEEP_MAX_AGE must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the token secrets and lifetimes
func (t TokenConfig) Validate() error {
	var errs []error
	if t.AccessSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if t.RefreshSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if t.AccessSecret != "" && t.AccessSecret == t.RefreshSecret {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	if t.AccessExpiry <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRY must be positive"))
	}
	if t.RefreshExpiry <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_EXPIRY must be positive"))
	}
	return errors.Join(errs...)
}

// UsesObjectStorage reports whether images go to an S3 bucket
func (m MediaConfig) UsesObjectStorage() bool {
	return m.Bucket != ""
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
