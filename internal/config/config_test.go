package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Env != "development" {
		t.Errorf("expected development env, got %q", cfg.Env)
	}
	if cfg.DashboardPort != "8090" {
		t.Errorf("unexpected dashboard port: %q", cfg.DashboardPort)
	}
	if cfg.TelemetryEnabled() {
		t.Error("telemetry should be off without a broker")
	}
	if cfg.Pipeline.StaticConfidenceThreshold != 0.85 {
		t.Errorf("unexpected static threshold: %f", cfg.Pipeline.StaticConfidenceThreshold)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LUMEN_ENV", "production")
	t.Setenv("STATIC_CONFIDENCE", "0.9")
	t.Setenv("ADAPTIVE_INFERENCE", "false")
	t.Setenv("ALERT_COOLDOWN", "10s")
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")

	cfg := Load()

	if cfg.Env != "production" {
		t.Errorf("expected production env, got %q", cfg.Env)
	}
	if cfg.Pipeline.StaticConfidenceThreshold != 0.9 {
		t.Errorf("override not applied: %f", cfg.Pipeline.StaticConfidenceThreshold)
	}
	if cfg.Pipeline.AdaptiveInference {
		t.Error("adaptive inference override not applied")
	}
	if cfg.Pipeline.AlertCooldown != 10*time.Second {
		t.Errorf("cooldown override not applied: %v", cfg.Pipeline.AlertCooldown)
	}
	if !cfg.TelemetryEnabled() {
		t.Error("telemetry should be on with a broker")
	}
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("STATIC_CONFIDENCE", "not-a-number")
	t.Setenv("LOW_BATTERY_THRESHOLD", "twenty")
	t.Setenv("DUPLICATE_GATE", "maybe")

	cfg := Load()

	if cfg.Pipeline.StaticConfidenceThreshold != 0.85 {
		t.Errorf("expected default threshold, got %f", cfg.Pipeline.StaticConfidenceThreshold)
	}
	if cfg.Pipeline.LowBatteryThreshold != 20 {
		t.Errorf("expected default battery threshold, got %d", cfg.Pipeline.LowBatteryThreshold)
	}
	if cfg.Pipeline.DuplicateGate {
		t.Error("expected default duplicate gate setting")
	}
}
