// Package config provides configuration helpers for go-compose commands:
// TOML tuning files and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/teslashibe/go-compose/pkg/analysis"
	"github.com/teslashibe/go-compose/pkg/camera"
	"github.com/teslashibe/go-compose/pkg/composer"
	"github.com/teslashibe/go-compose/pkg/guidance"
	"github.com/teslashibe/go-compose/pkg/stabilizer"
	"github.com/teslashibe/go-compose/pkg/tracking"
)

// maxFileSize caps tuning files at 1MB.
const maxFileSize = 1 << 20

// Tuning is the root of a tuning file. Every section is optional and
// only non-zero values are applied, so partial files are safe.
type Tuning struct {
	Server       ServerSection            `toml:"server"`
	Stabilizer   *stabilizer.TuningParams `toml:"stabilizer"`
	Resilience   *tracking.TuningParams   `toml:"resilience"`
	Analysis     *analysis.TuningParams   `toml:"analysis"`
	SmartCompose *SmartComposeSection     `toml:"smart_compose"`
	Zoom         *ZoomSection             `toml:"zoom"`
}

// ServerSection holds process settings.
type ServerSection struct {
	Port      string `toml:"port"`
	StaticDir string `toml:"static_dir"`
	FaceModel string `toml:"face_model"`
	LogLevel  string `toml:"log_level"`
}

// SmartComposeSection tunes the smart compose controller.
type SmartComposeSection struct {
	WatchdogMs       float64 `toml:"watchdog_ms"`
	AlignedFrames    int     `toml:"aligned_frames"`
	AdjustIntervalMs float64 `toml:"adjust_interval_ms"`
	MinConfidence    float64 `toml:"min_confidence"`
	MinZoomStep      float64 `toml:"min_zoom_step"`
	MaxZoomStep      float64 `toml:"max_zoom_step"`
	ZoomStepPerDelta float64 `toml:"zoom_step_per_delta"`
}

// ZoomSection tunes the zoom driver. Preset is applied before the
// individual fields.
type ZoomSection struct {
	Preset    string  `toml:"preset"`
	MinZoom   float64 `toml:"min_zoom"`
	MaxZoom   float64 `toml:"max_zoom"`
	ZoomLevel float64 `toml:"zoom_level"`
	Tolerance float64 `toml:"tolerance"`
}

// LoadTuning reads a TOML tuning file. Unknown keys are rejected so typos
// do not go unnoticed.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".toml" {
		return nil, fmt.Errorf("tuning file must have .toml extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat tuning file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("tuning file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	var t Tuning
	md, err := toml.DecodeFile(cleanPath, &t)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown tuning keys: %s", strings.Join(keys, ", "))
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning file %s: %w", cleanPath, err)
	}
	return &t, nil
}

// Validate checks value ranges that Apply cannot repair.
func (t *Tuning) Validate() error {
	switch strings.ToLower(t.Server.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("server.log_level must be debug, info, warn or error, got %q", t.Server.LogLevel)
	}
	if sc := t.SmartCompose; sc != nil {
		if sc.WatchdogMs < 0 || sc.AdjustIntervalMs < 0 || sc.AlignedFrames < 0 {
			return fmt.Errorf("smart_compose values must not be negative")
		}
		if sc.MinConfidence < 0 || sc.MinConfidence > 1 {
			return fmt.Errorf("smart_compose.min_confidence must be between 0 and 1")
		}
		if sc.MinZoomStep > 0 && sc.MaxZoomStep > 0 && sc.MinZoomStep > sc.MaxZoomStep {
			return fmt.Errorf("smart_compose.min_zoom_step must not exceed max_zoom_step")
		}
	}
	if z := t.Zoom; z != nil && z.Preset != "" && camera.GetPreset(z.Preset) == nil {
		return fmt.Errorf("unknown zoom preset %q", z.Preset)
	}
	return nil
}

// Guidance returns the per-frame tuning sections.
func (t *Tuning) Guidance() guidance.TuningParams {
	return guidance.TuningParams{
		Stabilizer: t.Stabilizer,
		Resilience: t.Resilience,
		Analysis:   t.Analysis,
	}
}

// Apply overlays the file onto cfg. The zoom section is validated as a
// whole after it is applied.
func (t *Tuning) Apply(cfg *composer.Config) error {
	if t.Server.Port != "" {
		cfg.Port = t.Server.Port
	}
	if t.Server.StaticDir != "" {
		cfg.StaticDir = t.Server.StaticDir
	}
	if t.Server.FaceModel != "" {
		cfg.FaceModel = t.Server.FaceModel
	}

	cfg.Guidance = t.Guidance().Apply(cfg.Guidance)

	if sc := t.SmartCompose; sc != nil {
		s := &cfg.Guidance.SmartCompose
		if sc.WatchdogMs > 0 {
			s.Watchdog = ms(sc.WatchdogMs)
		}
		if sc.AlignedFrames > 0 {
			s.AlignedFrames = sc.AlignedFrames
		}
		if sc.AdjustIntervalMs > 0 {
			s.AdjustInterval = ms(sc.AdjustIntervalMs)
		}
		if sc.MinConfidence > 0 {
			s.MinConfidence = sc.MinConfidence
		}
		if sc.MinZoomStep > 0 {
			s.MinZoomStep = sc.MinZoomStep
		}
		if sc.MaxZoomStep > 0 {
			s.MaxZoomStep = sc.MaxZoomStep
		}
		if sc.ZoomStepPerDelta > 0 {
			s.ZoomStepPerDelta = sc.ZoomStepPerDelta
		}
	}

	if z := t.Zoom; z != nil {
		zoom := cfg.Zoom
		if z.Preset != "" {
			if p := camera.GetPreset(z.Preset); p != nil {
				zoom = *p
			}
		}
		if z.MinZoom > 0 {
			zoom.MinZoom = z.MinZoom
		}
		if z.MaxZoom > 0 {
			zoom.MaxZoom = z.MaxZoom
		}
		if z.ZoomLevel > 0 {
			zoom.ZoomLevel = z.ZoomLevel
		}
		if z.Tolerance > 0 {
			zoom.Tolerance = z.Tolerance
		}
		if errs := zoom.Validate(); len(errs) > 0 {
			return fmt.Errorf("zoom: %s", strings.Join(errs, "; "))
		}
		cfg.Zoom = zoom
	}
	return nil
}

func ms(v float64) time.Duration {
	return time.Duration(v * float64(time.Millisecond))
}

// Env returns the value of key, or fallback when it is unset or empty.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
