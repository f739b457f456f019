package engine

import (
	"fmt"
	"sync"
)

// DetectorConfig holds all tunables of the surge detector. The policy flags
// (RequireBothAverages, GainFloorsEnabled) select between the observed
// product-policy variants without forking code paths.
type DetectorConfig struct {
	// MinVolume is the absolute floor a current candle's volume must reach
	// before a surge entry is considered.
	MinVolume int64 `json:"min_volume"`

	// SurgeThreshold is the multiplier applied to the volume averages,
	// e.g. 1.2 means current volume must exceed the average by 20%.
	SurgeThreshold float64 `json:"surge_threshold"`

	// IntervalSeconds is the candle block length.
	IntervalSeconds int `json:"interval_seconds"`

	// Capacity bounds the completed-candle window per symbol.
	Capacity int `json:"capacity"`

	// RequireBothAverages demands both the intraday and the last-2 average
	// be exceeded for entry; false means either one suffices.
	RequireBothAverages bool `json:"require_both_averages"`

	// GainFloorsEnabled applies the minimum-gain entry floors below.
	GainFloorsEnabled    bool    `json:"gain_floors_enabled"`
	MinGainFromPrevPct   float64 `json:"min_gain_from_prev_pct"`
	MinGainFromDayLowPct float64 `json:"min_gain_from_day_low_pct"`

	// MaxExitedKept bounds the exited-alert audit list (FIFO).
	MaxExitedKept int `json:"max_exited_kept"`
}

// DefaultConfig returns the standard detection policy: either average may
// trigger, conservative gain floors enabled.
func DefaultConfig() DetectorConfig {
	return DetectorConfig{
		MinVolume:            50000,
		SurgeThreshold:       1.2,
		IntervalSeconds:      60,
		Capacity:             30,
		RequireBothAverages:  false,
		GainFloorsEnabled:    true,
		MinGainFromPrevPct:   0.5,
		MinGainFromDayLowPct: 1.0,
		MaxExitedKept:        200,
	}
}

// Preset returns a named policy preset. Known names: "default", "strict"
// (both averages required), "lenient" (either average, no gain floors).
func Preset(name string) (DetectorConfig, bool) {
	cfg := DefaultConfig()
	switch name {
	case "default":
		return cfg, true
	case "strict":
		cfg.RequireBothAverages = true
		return cfg, true
	case "lenient":
		cfg.GainFloorsEnabled = false
		return cfg, true
	default:
		return DetectorConfig{}, false
	}
}

// PresetNames lists the available policy presets.
func PresetNames() []string {
	return []string{"default", "strict", "lenient"}
}

// Validate checks all tunables for sanity. A config that fails validation is
// never applied; the previous valid config stays in effect.
func (c DetectorConfig) Validate() error {
	if c.MinVolume < 0 {
		return fmt.Errorf("min_volume must be >= 0, got %d", c.MinVolume)
	}
	if c.SurgeThreshold <= 0 {
		return fmt.Errorf("surge_threshold must be > 0, got %g", c.SurgeThreshold)
	}
	if c.IntervalSeconds <= 0 {
		return fmt.Errorf("interval_seconds must be > 0, got %d", c.IntervalSeconds)
	}
	if c.Capacity < 2 {
		return fmt.Errorf("capacity must be >= 2, got %d", c.Capacity)
	}
	if c.MinGainFromPrevPct < 0 || c.MinGainFromDayLowPct < 0 {
		return fmt.Errorf("gain floors must be >= 0")
	}
	if c.MaxExitedKept < 1 {
		return fmt.Errorf("max_exited_kept must be >= 1, got %d", c.MaxExitedKept)
	}
	return nil
}

// ConfigStore guards the live detector config for concurrent readers
// (shard workers) and writers (the gateway's config endpoint). Invalid
// updates are rejected and the previous config remains in effect.
type ConfigStore struct {
	mu  sync.RWMutex
	cur DetectorConfig
}

// NewConfigStore creates a store seeded with cfg. Returns an error if the
// seed config is itself invalid.
func NewConfigStore(cfg DetectorConfig) (*ConfigStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("detector config: %w", err)
	}
	return &ConfigStore{cur: cfg}, nil
}

// Get returns the current config (by value).
func (s *ConfigStore) Get() DetectorConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Update atomically replaces the config after validation.
func (s *ConfigStore) Update(cfg DetectorConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cur = cfg
	s.mu.Unlock()
	return nil
}
