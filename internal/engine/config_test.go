package engine

import "testing"

func TestDetectorConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*DetectorConfig)
	}{
		{"negative min volume", func(c *DetectorConfig) { c.MinVolume = -1 }},
		{"zero threshold", func(c *DetectorConfig) { c.SurgeThreshold = 0 }},
		{"zero interval", func(c *DetectorConfig) { c.IntervalSeconds = 0 }},
		{"capacity below two", func(c *DetectorConfig) { c.Capacity = 1 }},
		{"negative gain floor", func(c *DetectorConfig) { c.MinGainFromPrevPct = -0.1 }},
		{"zero exited cap", func(c *DetectorConfig) { c.MaxExitedKept = 0 }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestPresets(t *testing.T) {
	def, ok := Preset("default")
	if !ok {
		t.Fatal("expected default preset")
	}
	if def.RequireBothAverages || !def.GainFloorsEnabled {
		t.Error("default: either average, floors on")
	}

	strict, ok := Preset("strict")
	if !ok || !strict.RequireBothAverages {
		t.Error("strict: both averages required")
	}

	lenient, ok := Preset("lenient")
	if !ok || lenient.GainFloorsEnabled {
		t.Error("lenient: gain floors disabled")
	}

	if _, ok := Preset("aggressive"); ok {
		t.Error("unknown preset must not resolve")
	}

	if len(PresetNames()) != 3 {
		t.Errorf("expected 3 presets, got %d", len(PresetNames()))
	}
}

func TestConfigStore_RejectsInvalidSeed(t *testing.T) {
	bad := DefaultConfig()
	bad.SurgeThreshold = -1
	if _, err := NewConfigStore(bad); err == nil {
		t.Error("expected error for invalid seed config")
	}
}

func TestConfigStore_UpdateKeepsPreviousOnFailure(t *testing.T) {
	store, err := NewConfigStore(DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	good := DefaultConfig()
	good.SurgeThreshold = 1.5
	if err := store.Update(good); err != nil {
		t.Fatalf("valid update rejected: %v", err)
	}

	bad := DefaultConfig()
	bad.Capacity = 0
	if err := store.Update(bad); err == nil {
		t.Fatal("expected invalid update to be rejected")
	}

	if got := store.Get().SurgeThreshold; got != 1.5 {
		t.Errorf("previous valid config must survive a rejected update, got threshold %g", got)
	}
}
