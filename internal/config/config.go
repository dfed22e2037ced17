// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	env "github.com/Netflix/go-env"
)

type Config struct {
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	// ModelDir is the export directory holding model.tflite, model.onnx
	// and the optional metadata.json sidecar.
	ModelDir string `env:"SKINSIGHT_MODEL_DIR,default=models/export"`

	// DebugDir enables the diagnostic sink: when set, the last analysis
	// result is written to <DebugDir>/last_result.json.
	DebugDir string `env:"SKINSIGHT_DEBUG_DIR"`

	// TFLiteThreads caps the compact runtime's thread count.
	TFLiteThreads int `env:"SKINSIGHT_TFLITE_THREADS,default=4"`
}

// Load reads the configuration from process environment variables.
func Load() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the LOG_LEVEL string onto a slog level, defaulting to Info
// for unknown values.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
