// Package composer wires camera connections, the per-camera guidance
// pipeline and the dashboard into one service.
package composer

import (
	"os"
	"strconv"

	"github.com/teslashibe/go-compose/internal/httpc"
	"github.com/teslashibe/go-compose/pkg/camera"
	"github.com/teslashibe/go-compose/pkg/guidance"
	"github.com/teslashibe/go-compose/pkg/tracking/detection"
	"github.com/teslashibe/go-compose/pkg/votes"
)

// Default configuration values.
const (
	DefaultPort = "8090"
)

// Config holds all configuration for the composer service.
// Flag parsing is done in cmd/composer/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// Port is the HTTP listen port for the camera websocket and the dashboard.
	Port string

	// StaticDir is served at / when set.
	StaticDir string

	// TuningPath is an optional TOML tuning file, applied by the caller.
	TuningPath string

	// FaceModel is the YuNet ONNX model path. Empty disables face detection.
	FaceModel string

	// Pipeline configuration shared by every camera session.
	Guidance guidance.Config
	Zoom     camera.Config
	Votes    votes.Table
	Faces    detection.Config

	// Portrait face height as a fraction of the frame that smart compose
	// zooms toward.
	FaceFill float64
}

// DefaultConfig returns sensible defaults for the composer.
func DefaultConfig() Config {
	return Config{
		Port:     DefaultPort,
		Guidance: guidance.DefaultConfig(),
		Zoom:     camera.DefaultConfig(),
		Votes:    votes.DefaultTable(),
		Faces:    detection.DefaultConfig(),
		FaceFill: 0.22,
	}
}

// LoadEnvConfig loads configuration values from environment variables.
// Call this after flag parsing to apply environment overrides.
func (c *Config) LoadEnvConfig() {
	// Port can come from env if not set by flag
	if c.Port == "" || c.Port == DefaultPort {
		if port := os.Getenv("COMPOSER_PORT"); port != "" {
			c.Port = port
		}
	}
	if c.TuningPath == "" {
		c.TuningPath = os.Getenv("COMPOSER_TUNING")
	}
	if c.FaceModel == "" {
		c.FaceModel = os.Getenv("COMPOSER_FACE_MODEL")
	}
	if c.StaticDir == "" {
		c.StaticDir = os.Getenv("COMPOSER_STATIC_DIR")
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if p, err := strconv.Atoi(c.Port); err != nil || p < 0 || p > 65535 {
		return &ConfigError{Field: "Port", Message: "port must be a number between 0 and 65535, got " + strconv.Quote(c.Port)}
	}
	if errs := c.Zoom.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "Zoom", Message: "zoom: " + errs[0]}
	}
	if c.FaceFill <= 0 || c.FaceFill >= 1 {
		return &ConfigError{Field: "FaceFill", Message: "face fill must be in (0, 1)"}
	}
	if c.FaceModel != "" && !httpc.IsURL(c.FaceModel) {
		if _, err := os.Stat(c.FaceModel); err != nil {
			return &ConfigError{Field: "FaceModel", Message: "face model not found: " + c.FaceModel}
		}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
