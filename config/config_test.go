package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	// Empty values read as unset
	for _, key := range []string{"REDIS_ADDR", "GATEWAY_ADDR", "METRICS_ADDR",
		"MIN_VOLUME", "SURGE_THRESHOLD", "CANDLE_INTERVAL_SECONDS",
		"CANDLE_CAPACITY", "DETECTOR_PRESET"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("expected default redis addr, got %s", cfg.RedisAddr)
	}
	if cfg.GatewayAddr != ":8080" || cfg.MetricsAddr != ":9090" {
		t.Errorf("unexpected default addrs: %s / %s", cfg.GatewayAddr, cfg.MetricsAddr)
	}
	if cfg.MinVolume != 50000 {
		t.Errorf("expected default min volume 50000, got %d", cfg.MinVolume)
	}
	if cfg.SurgeThreshold != 1.2 {
		t.Errorf("expected default threshold 1.2, got %g", cfg.SurgeThreshold)
	}
	if cfg.IntervalSeconds != 60 || cfg.CandleCapacity != 30 {
		t.Errorf("unexpected candle defaults: %d / %d", cfg.IntervalSeconds, cfg.CandleCapacity)
	}
	if cfg.DetectorPreset != "default" {
		t.Errorf("expected default preset, got %s", cfg.DetectorPreset)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("MIN_VOLUME", "25000")
	t.Setenv("SURGE_THRESHOLD", "1.8")
	t.Setenv("CANDLE_INTERVAL_SECONDS", "30")

	cfg := Load()
	if cfg.RedisAddr != "redis.internal:6380" {
		t.Errorf("expected overridden redis addr, got %s", cfg.RedisAddr)
	}
	if cfg.MinVolume != 25000 {
		t.Errorf("expected min volume 25000, got %d", cfg.MinVolume)
	}
	if cfg.SurgeThreshold != 1.8 {
		t.Errorf("expected threshold 1.8, got %g", cfg.SurgeThreshold)
	}
	if cfg.IntervalSeconds != 30 {
		t.Errorf("expected interval 30, got %d", cfg.IntervalSeconds)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("MIN_VOLUME", "lots")
	t.Setenv("SURGE_THRESHOLD", "high")
	t.Setenv("CANDLE_CAPACITY", "3.5")

	cfg := Load()
	if cfg.MinVolume != 50000 {
		t.Errorf("expected fallback min volume, got %d", cfg.MinVolume)
	}
	if cfg.SurgeThreshold != 1.2 {
		t.Errorf("expected fallback threshold, got %g", cfg.SurgeThreshold)
	}
	if cfg.CandleCapacity != 30 {
		t.Errorf("expected fallback capacity, got %d", cfg.CandleCapacity)
	}
}

func TestParseFallbackSymbols(t *testing.T) {
	c := &Config{FallbackSymbols: "PSO, OGDC ,,PPL, "}
	got := c.ParseFallbackSymbols()
	want := []string{"PSO", "OGDC", "PPL"}
	if len(got) != len(want) {
		t.Fatalf("expected %d symbols, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
