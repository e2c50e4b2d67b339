// Package config handles tracker configuration
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr        string
	StatePath       string
	AllowFreshState bool // start a fresh session when the state file is missing
	DetectFrames    int  // frames sampled per cycle is DetectFrames-1
	CycleDelay      time.Duration
	CaptureFPS      int // display refresh rate used for frame-not-ready pacing
	TesseractLang   string
	TargetSpecies   []string
	AlertCooldown   float64 // seconds
	PreviewWidth    int     // downscaled preview width for broadcast
}

func Load() *Config {
	return &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8420"),
		StatePath:       getEnv("STATE_PATH", "state.json"),
		AllowFreshState: getEnvBool("ALLOW_FRESH_STATE", false),
		DetectFrames:    getEnvInt("DETECT_FRAMES", 4),
		CycleDelay:      time.Duration(getEnvInt("CYCLE_DELAY_MS", 400)) * time.Millisecond,
		CaptureFPS:      getEnvInt("CAPTURE_FPS", 60),
		TesseractLang:   getEnv("TESSERACT_LANG", "eng"),
		TargetSpecies:   getEnvList("TARGET_SPECIES", nil),
		AlertCooldown:   getEnvFloat("ALERT_COOLDOWN", 30.0),
		PreviewWidth:    getEnvInt("PREVIEW_WIDTH", 480),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
