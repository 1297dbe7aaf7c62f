package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-compose/pkg/composer"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

const sampleTuning = `
[server]
port = "9100"
log_level = "debug"

[stabilizer]
fast_tau_ms = 90
hold_enter = 0.05

[resilience]
loss_grace_ms = 800
lost_frames = 6

[smart_compose]
watchdog_ms = 5000
aligned_frames = 6

[zoom]
preset = "wide"
tolerance = 0.01
`

func TestLoadTuning(t *testing.T) {
	tuning, err := LoadTuning(writeFile(t, "tuning.toml", sampleTuning))
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}

	if tuning.Server.Port != "9100" {
		t.Errorf("Expected port 9100, got %q", tuning.Server.Port)
	}
	if tuning.Stabilizer == nil || tuning.Stabilizer.FastTauMs != 90 {
		t.Errorf("Expected stabilizer fast tau 90, got %+v", tuning.Stabilizer)
	}
	if tuning.Analysis != nil {
		t.Errorf("Expected no analysis section, got %+v", tuning.Analysis)
	}

	cfg := composer.DefaultConfig()
	if err := tuning.Apply(&cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("Expected port 9100, got %q", cfg.Port)
	}
	if cfg.Guidance.Stabilizer.FastTau != 90*time.Millisecond {
		t.Errorf("Expected fast tau 90ms, got %v", cfg.Guidance.Stabilizer.FastTau)
	}
	if cfg.Guidance.Tracking.LossGrace != 800*time.Millisecond {
		t.Errorf("Expected loss grace 800ms, got %v", cfg.Guidance.Tracking.LossGrace)
	}
	if cfg.Guidance.SmartCompose.Watchdog != 5*time.Second {
		t.Errorf("Expected watchdog 5s, got %v", cfg.Guidance.SmartCompose.Watchdog)
	}
	if cfg.Guidance.SmartCompose.AlignedFrames != 6 {
		t.Errorf("Expected 6 aligned frames, got %d", cfg.Guidance.SmartCompose.AlignedFrames)
	}
	// Untouched values keep their defaults.
	if cfg.Guidance.SmartCompose.MaxZoomStep != 0.045 {
		t.Errorf("Expected default max zoom step, got %v", cfg.Guidance.SmartCompose.MaxZoomStep)
	}
	if cfg.Zoom.MaxZoom != 2.0 || cfg.Zoom.Tolerance != 0.01 {
		t.Errorf("Expected wide preset with tolerance 0.01, got %+v", cfg.Zoom)
	}
}

func TestLoadTuningErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"wrong extension", "tuning.json", "{}", ".toml extension"},
		{"bad syntax", "bad.toml", "[stabilizer\n", "failed to parse"},
		{"unknown key", "typo.toml", "[stabilizer]\nfast_tau = 90\n", "unknown tuning keys"},
		{"bad log level", "level.toml", "[server]\nlog_level = \"loud\"\n", "log_level"},
		{"inverted zoom steps", "steps.toml", "[smart_compose]\nmin_zoom_step = 0.1\nmax_zoom_step = 0.01\n", "min_zoom_step"},
		{"unknown preset", "preset.toml", "[zoom]\npreset = \"fisheye\"\n", "zoom preset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTuning(writeFile(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	if _, err := LoadTuning(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestApplyRejectsInvalidZoom(t *testing.T) {
	tuning := &Tuning{Zoom: &ZoomSection{MinZoom: 3, MaxZoom: 2}}
	cfg := composer.DefaultConfig()
	if err := tuning.Apply(&cfg); err == nil {
		t.Error("Expected invalid zoom range to fail")
	}
	if cfg.Zoom.MaxZoom != 4.0 {
		t.Errorf("Expected zoom config untouched, got %+v", cfg.Zoom)
	}
}

func TestEnv(t *testing.T) {
	t.Setenv("COMPOSE_TEST_VALUE", "set")
	if got := Env("COMPOSE_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("Expected set, got %q", got)
	}
	if got := Env("COMPOSE_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %q", got)
	}
}
