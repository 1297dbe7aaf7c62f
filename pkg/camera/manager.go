package camera

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/teslashibe/go-compose/pkg/smartcompose"
)

// Status is the driver state after a step.
type Status struct {
	Zoom      float64   `json:"zoom"`
	Target    float64   `json:"target"`
	RequestID uuid.UUID `json:"request_id"`
	Active    bool      `json:"active"`    // A target is set
	Moved     bool      `json:"moved"`     // The zoom changed this step
	Converged bool      `json:"converged"` // Within tolerance of the target
}

// Manager holds the current zoom configuration and animates the zoom level
// toward the most recent command.
type Manager struct {
	config Config
	mu     sync.RWMutex

	zoom      float64
	target    float64
	requestID uuid.UUID
	active    bool

	// StepSize maps the remaining distance to the per-frame step.
	// Defaults to smartcompose.AdaptiveZoomStep.
	StepSize func(delta float64) float64

	// Callback when the zoom level changes (for applying to the camera)
	OnZoomChange func(zoom float64) error
}

// NewManager creates a new zoom manager with default config.
func NewManager() *Manager {
	return NewManagerWithConfig(DefaultConfig())
}

// NewManagerWithConfig creates a zoom manager starting at cfg.ZoomLevel.
func NewManagerWithConfig(cfg Config) *Manager {
	return &Manager{
		config:   cfg,
		zoom:     cfg.ZoomLevel,
		StepSize: smartcompose.AdaptiveZoomStep,
	}
}

// GetConfig returns the current zoom configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig updates the zoom configuration. The current zoom and any
// target are clamped into the new range.
func (m *Manager) SetConfig(cfg Config) error {
	if errors := cfg.Validate(); len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	m.mu.Lock()
	m.config = cfg
	prev := m.zoom
	m.zoom = cfg.Clamp(m.zoom)
	m.target = cfg.Clamp(m.target)
	zoom := m.zoom
	callback := m.OnZoomChange
	m.mu.Unlock()

	if callback != nil && zoom != prev {
		if err := callback(zoom); err != nil {
			return fmt.Errorf("failed to apply zoom: %w", err)
		}
	}
	return nil
}

// UpdateConfig updates specific fields of the configuration.
// Accepts a map of field names to values.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if presetName, ok := params["preset"].(string); ok {
		preset := GetPreset(presetName)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", presetName)
		}
		cfg = *preset
	}

	for key, value := range params {
		switch key {
		case "min_zoom":
			if v, ok := toFloat(value); ok {
				cfg.MinZoom = v
			}
		case "max_zoom":
			if v, ok := toFloat(value); ok {
				cfg.MaxZoom = v
			}
		case "zoom_level":
			if v, ok := toFloat(value); ok {
				cfg.ZoomLevel = v
			}
		case "tolerance":
			if v, ok := toFloat(value); ok {
				cfg.Tolerance = v
			}
		}
	}

	return m.SetConfig(cfg)
}

// Command sets a new target from a smart compose zoom command.
func (m *Manager) Command(cmd smartcompose.ZoomCommand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = m.config.Clamp(cmd.Zoom)
	m.requestID = cmd.RequestID
	m.active = true
}

// Step moves the zoom one frame toward the target. The step size follows
// the remaining distance and never overshoots.
func (m *Manager) Step() (Status, error) {
	m.mu.Lock()
	st := m.statusLocked()
	if !m.active || st.Converged {
		m.mu.Unlock()
		return st, nil
	}

	delta := m.target - m.zoom
	step := math.Abs(delta)
	if m.StepSize != nil {
		step = math.Min(step, m.StepSize(math.Abs(delta)))
	}
	if delta < 0 {
		step = -step
	}
	m.zoom = m.config.Clamp(m.zoom + step)
	st = m.statusLocked()
	st.Moved = true
	callback := m.OnZoomChange
	zoom := m.zoom
	m.mu.Unlock()

	if callback != nil {
		if err := callback(zoom); err != nil {
			return st, fmt.Errorf("failed to apply zoom: %w", err)
		}
	}
	return st, nil
}

func (m *Manager) statusLocked() Status {
	return Status{
		Zoom:      m.zoom,
		Target:    m.target,
		RequestID: m.requestID,
		Active:    m.active,
		Converged: m.active && math.Abs(m.target-m.zoom) <= m.config.Tolerance,
	}
}

// Status returns the driver state without stepping.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusLocked()
}

// Zoom returns the current zoom factor.
func (m *Manager) Zoom() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.zoom
}

// Release drops the target and keeps the current zoom.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
	m.requestID = uuid.Nil
	m.target = 0
}

// Reset drops the target and returns to the configured start level.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.active = false
	m.requestID = uuid.Nil
	m.target = 0
	changed := m.zoom != m.config.ZoomLevel
	m.zoom = m.config.ZoomLevel
	zoom := m.zoom
	callback := m.OnZoomChange
	m.mu.Unlock()

	if changed && callback != nil {
		_ = callback(zoom)
	}
}

// GetConfigJSON returns the current config as a map for JSON serialization.
func (m *Manager) GetConfigJSON() map[string]interface{} {
	cfg := m.GetConfig()

	data, _ := json.Marshal(cfg)
	var result map[string]interface{}
	_ = json.Unmarshal(data, &result)

	return result
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err == nil {
			return f, true
		}
	}
	return 0, false
}
