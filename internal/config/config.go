// Package config resolves runtime configuration from an optional .env file,
// the process environment, and built-in defaults. Command-line flags are
// applied on top by the binaries.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/fpang/gemini-studio/internal/chat"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Environment variable names.
const (
	EnvAddr        = "STUDIO_ADDR"
	EnvSessionTTL  = "STUDIO_SESSION_TTL"
	EnvMaxUploadMB = "STUDIO_MAX_UPLOAD_MB"
	EnvModel       = "GEMINI_MODEL"
	EnvImageModel  = "GEMINI_IMAGE_MODEL"
	EnvMetrics     = "STUDIO_METRICS"
)

// Defaults.
const (
	DefaultAddr        = "localhost:8080"
	DefaultSessionTTL  = 30 * time.Minute
	DefaultMaxUploadMB = 20
)

// Config is the resolved configuration shared by both binaries.
type Config struct {
	Addr        string
	SessionTTL  time.Duration
	MaxUploadMB int
	Model       string
	ImageModel  string

	// Metrics is the metrics destination (stdout, stderr, off or a file path).
	// Empty leaves the choice to the binary.
	Metrics string

	// EnvFile is the dotenv file that was loaded, empty when none was found.
	EnvFile string
}

// MaxUploadBytes is the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Load reads envFile (".env" when empty) into the environment without
// overriding variables that are already set, then resolves the configuration.
// A missing dotenv file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}

	cfg := &Config{}
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		log.Debug().Str("file", envFile).Msg("No dotenv file found, using process environment")
	} else {
		cfg.EnvFile = envFile
		log.Debug().Str("file", envFile).Msg("Loaded dotenv file")
	}

	cfg.Addr = envOrDefault(EnvAddr, DefaultAddr)
	cfg.Model = envOrDefault(EnvModel, chat.DefaultModelName)
	cfg.ImageModel = envOrDefault(EnvImageModel, chat.DefaultImageModelName)
	cfg.Metrics = os.Getenv(EnvMetrics)

	ttl, err := durationEnv(EnvSessionTTL, DefaultSessionTTL)
	if err != nil {
		return nil, err
	}
	cfg.SessionTTL = ttl

	maxMB, err := intEnv(EnvMaxUploadMB, DefaultMaxUploadMB)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadMB = maxMB

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", c.SessionTTL)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d MB", c.MaxUploadMB)
	}
	if c.Model == "" || c.ImageModel == "" {
		return fmt.Errorf("model names must not be empty")
	}
	return nil
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return d, nil
}

func intEnv(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return n, nil
}
