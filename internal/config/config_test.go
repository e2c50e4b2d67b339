package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clear environment
	envVars := []string{
		"HTTP_ADDR", "STATE_PATH", "ALLOW_FRESH_STATE", "DETECT_FRAMES",
		"CYCLE_DELAY_MS", "CAPTURE_FPS", "TESSERACT_LANG", "TARGET_SPECIES",
		"ALERT_COOLDOWN", "PREVIEW_WIDTH",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	// Check defaults
	if cfg.HTTPAddr != ":8420" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8420")
	}
	if cfg.StatePath != "state.json" {
		t.Errorf("StatePath = %q, want %q", cfg.StatePath, "state.json")
	}
	if cfg.AllowFreshState {
		t.Error("AllowFreshState should default to false")
	}
	if cfg.DetectFrames != 4 {
		t.Errorf("DetectFrames = %d, want 4", cfg.DetectFrames)
	}
	if cfg.CycleDelay != 400*time.Millisecond {
		t.Errorf("CycleDelay = %v, want 400ms", cfg.CycleDelay)
	}
	if cfg.CaptureFPS != 60 {
		t.Errorf("CaptureFPS = %d, want 60", cfg.CaptureFPS)
	}
	if cfg.TesseractLang != "eng" {
		t.Errorf("TesseractLang = %q, want %q", cfg.TesseractLang, "eng")
	}
	if len(cfg.TargetSpecies) != 0 {
		t.Errorf("TargetSpecies = %v, want empty", cfg.TargetSpecies)
	}
	if cfg.AlertCooldown != 30.0 {
		t.Errorf("AlertCooldown = %f, want 30.0", cfg.AlertCooldown)
	}
	if cfg.PreviewWidth != 480 {
		t.Errorf("PreviewWidth = %d, want 480", cfg.PreviewWidth)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STATE_PATH", "/tmp/hunt.json")
	t.Setenv("ALLOW_FRESH_STATE", "true")
	t.Setenv("DETECT_FRAMES", "6")
	t.Setenv("CYCLE_DELAY_MS", "250")
	t.Setenv("TARGET_SPECIES", "eevee, pidgey ,")

	cfg := Load()

	if cfg.StatePath != "/tmp/hunt.json" {
		t.Errorf("StatePath = %q", cfg.StatePath)
	}
	if !cfg.AllowFreshState {
		t.Error("AllowFreshState should be true")
	}
	if cfg.DetectFrames != 6 {
		t.Errorf("DetectFrames = %d, want 6", cfg.DetectFrames)
	}
	if cfg.CycleDelay != 250*time.Millisecond {
		t.Errorf("CycleDelay = %v, want 250ms", cfg.CycleDelay)
	}
	want := []string{"eevee", "pidgey"}
	if len(cfg.TargetSpecies) != len(want) {
		t.Fatalf("TargetSpecies = %v, want %v", cfg.TargetSpecies, want)
	}
	for i, s := range want {
		if cfg.TargetSpecies[i] != s {
			t.Errorf("TargetSpecies[%d] = %q, want %q", i, cfg.TargetSpecies[i], s)
		}
	}
}

func TestLoadInvalidValues(t *testing.T) {
	t.Setenv("DETECT_FRAMES", "many")
	t.Setenv("ALERT_COOLDOWN", "soon")

	cfg := Load()

	if cfg.DetectFrames != 4 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.DetectFrames)
	}
	if cfg.AlertCooldown != 30.0 {
		t.Errorf("invalid float should fall back to default, got %f", cfg.AlertCooldown)
	}
}
