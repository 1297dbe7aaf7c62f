package camera

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetWide    = "wide"
	PresetTele    = "tele"
	PresetZoom2x  = "zoom2x"
	PresetPrecise = "precise"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetWide:    WideConfig(),
		PresetTele:    TeleConfig(),
		PresetZoom2x:  Zoom2xConfig(),
		PresetPrecise: PreciseConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetWide,
		PresetTele,
		PresetZoom2x,
		PresetPrecise,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// WideConfig limits smart compose to gentle reframing.
func WideConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxZoom = 2.0
	return cfg
}

// TeleConfig never goes wider than 2x.
func TeleConfig() Config {
	cfg := DefaultConfig()
	cfg.MinZoom = 2.0
	cfg.ZoomLevel = 2.0
	return cfg
}

// Zoom2xConfig starts at 2x with the full range available.
func Zoom2xConfig() Config {
	cfg := DefaultConfig()
	cfg.ZoomLevel = 2.0
	return cfg
}

// PreciseConfig converges to a tighter tolerance.
func PreciseConfig() Config {
	cfg := DefaultConfig()
	cfg.Tolerance = 0.001
	return cfg
}
