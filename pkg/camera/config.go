// Package camera drives the camera's digital zoom toward the levels smart
// compose asks for. It follows the same pattern as pkg/tracking for tunable
// parameters.
package camera

// Config holds the zoom driver configuration.
// These can be modified via the camera API at runtime.
type Config struct {
	// === Range ===
	MinZoom float64 `json:"min_zoom" toml:"min_zoom"` // Widest zoom factor
	MaxZoom float64 `json:"max_zoom" toml:"max_zoom"` // Tightest zoom factor

	// ZoomLevel is the zoom factor the driver starts at and returns to on
	// Reset.
	ZoomLevel float64 `json:"zoom_level" toml:"zoom_level"`

	// Tolerance is the distance to the target at which the driver counts as
	// converged.
	Tolerance float64 `json:"tolerance" toml:"tolerance"`
}

// Sensor capabilities
const (
	SensorMinZoom = 1.0
	SensorMaxZoom = 4.0
)

// DefaultConfig returns the full sensor range starting wide.
func DefaultConfig() Config {
	return Config{
		MinZoom:   SensorMinZoom,
		MaxZoom:   SensorMaxZoom,
		ZoomLevel: 1.0,
		Tolerance: 0.005,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.MinZoom < SensorMinZoom || c.MinZoom > SensorMaxZoom {
		errors = append(errors, "min_zoom must be between 1.0 and 4.0")
	}
	if c.MaxZoom < SensorMinZoom || c.MaxZoom > SensorMaxZoom {
		errors = append(errors, "max_zoom must be between 1.0 and 4.0")
	}
	if c.MinZoom > c.MaxZoom {
		errors = append(errors, "min_zoom must not exceed max_zoom")
	}
	if c.ZoomLevel < c.MinZoom || c.ZoomLevel > c.MaxZoom {
		errors = append(errors, "zoom_level must be between min_zoom and max_zoom")
	}
	if c.Tolerance <= 0 || c.Tolerance > 0.5 {
		errors = append(errors, "tolerance must be in (0, 0.5]")
	}

	return errors
}

// Clamp limits z to the configured range.
func (c Config) Clamp(z float64) float64 {
	if z < c.MinZoom {
		return c.MinZoom
	}
	if z > c.MaxZoom {
		return c.MaxZoom
	}
	return z
}

// Capabilities returns the zoom capabilities.
func Capabilities() map[string]interface{} {
	return map[string]interface{}{
		"min_zoom": SensorMinZoom,
		"max_zoom": SensorMaxZoom,
		"presets":  PresetNames(),
	}
}
