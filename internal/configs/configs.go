/*
Package configs loads the server configuration from environment variables.

Variables are read with caarlos0/env after an optional .env file has been
loaded by the entry point. Development gets insecure but convenient defaults;
every other environment must provide a JWT secret.
*/
package configs

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	EnvDevelopment = "development"

	devJWTSecret = "your_default_insecure_secret_key_change_me"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment   string `env:"ENVIRONMENT"    envDefault:"development"`
	Port          int    `env:"PORT"           envDefault:"8080"`
	PowDifficulty int    `env:"POW_DIFFICULTY" envDefault:"4"`

	// Security Settings
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	JWTSecret      string   `env:"JWT_SECRET"`

	// Market Settings
	DemoMode           bool          `env:"DEMO_MODE"            envDefault:"false"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	RoomIdleTimeout    time.Duration `env:"ROOM_IDLE_TIMEOUT"    envDefault:"5m"`

	// Backend Settings
	DatabaseDSN     string        `env:"DATABASE_URL"`
	BackendRetries  uint64        `env:"BACKEND_RETRIES"   envDefault:"3"`
	BackendBaseWait time.Duration `env:"BACKEND_BASE_WAIT" envDefault:"50ms"`

	// S3 Storage Settings
	S3BucketName      string `env:"S3_BUCKET_NAME"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3Region          string `env:"S3_REGION"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3PublicBaseURL   string `env:"S3_PUBLIC_BASE_URL"`
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// StorageEnabled reports whether avatar uploads are configured.
func (c *AppConfig) StorageEnabled() bool {
	return c.S3BucketName != ""
}

// LoadConfig reads the configuration from the process environment.
func LoadConfig() (*AppConfig, error) {
	return Load(env.ToMap(os.Environ()))
}

// Load parses the configuration from environ and validates it.
func Load(environ map[string]string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", c.Port, 1024, 65535)
	}

	if c.PowDifficulty < 0 || c.PowDifficulty > 8 {
		return fmt.Errorf("POW_DIFFICULTY %d is outside 0-8", c.PowDifficulty)
	}

	origins := c.AllowedOrigins[:0]
	for _, origin := range c.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.AllowedOrigins = origins

	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET environment variable is required in %s environment for security", c.Environment)
		}
		c.JWTSecret = devJWTSecret
	}

	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %s", c.SessionIdleTimeout)
	}

	if c.StorageEnabled() {
		missing := []string{}
		for _, field := range []struct{ name, value string }{
			{"S3_ENDPOINT", c.S3Endpoint},
			{"S3_ACCESS_KEY_ID", c.S3AccessKeyID},
			{"S3_SECRET_ACCESS_KEY", c.S3SecretAccessKey},
			{"S3_PUBLIC_BASE_URL", c.S3PublicBaseURL},
		} {
			if field.value == "" {
				missing = append(missing, field.name)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("S3_BUCKET_NAME is set but %s missing", strings.Join(missing, ", "))
		}
	}

	return nil
}
