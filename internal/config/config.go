package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	DatabaseURL     string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream API configuration.
	AirNowAPIKey      string
	OpenWeatherAPIKey string
	UpstreamTimeout   time.Duration

	// Risk model configuration.
	ModelPath       string
	OnnxLibraryPath string

	// Snapshot defaults: the fallback coordinate (Altamont, Oregon) and the
	// reporting-area zip used as a region proxy for air quality. The zip proxy
	// is a known simplification — air quality is not derived from the
	// requested coordinate.
	DefaultLatitude  float64
	DefaultLongitude float64
	AirNowDefaultZip string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := parseDurationEnv("UPSTREAM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	defaultLat, err := parseFloatEnv("DEFAULT_LAT", 44.1292)
	if err != nil {
		return nil, err
	}
	defaultLon, err := parseFloatEnv("DEFAULT_LON", -121.7689)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		AirNowAPIKey:      os.Getenv("AIRNOW_API_KEY"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		UpstreamTimeout:   upstreamTimeout,

		ModelPath:       envOrDefault("MODEL_PATH", "model.onnx"),
		OnnxLibraryPath: os.Getenv("ONNXRUNTIME_LIB_PATH"),

		DefaultLatitude:  defaultLat,
		DefaultLongitude: defaultLon,
		AirNowDefaultZip: envOrDefault("AIRNOW_DEFAULT_ZIP", "97601"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloatEnv(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}
