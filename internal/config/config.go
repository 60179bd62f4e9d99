// Package config carries build metadata and the runtime settings.
//
// Settings come from an optional YAML file with environment-variable
// overrides on top, so the container image runs without a config file at
// all (the Helm chart injects everything through the environment).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Build metadata, injected via -ldflags at release time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Settings is the full configuration surface.
type Settings struct {
	// Matrix HTTP settings
	MatrixURL       string  `yaml:"matrix_url"`
	MatrixTimeout   float64 `yaml:"matrix_timeout"`    // seconds
	MatrixVerifySSL bool    `yaml:"matrix_verify_ssl"` //

	// Health check settings
	MatrixHealthInterval int `yaml:"matrix_health_interval"` // seconds between probes

	// Server settings
	ServerHost string `yaml:"server_host"`
	ServerPort string `yaml:"server_port"`
}

// defaults returns the out-of-the-box settings.
func defaults() Settings {
	return Settings{
		MatrixURL:            "http://matrix.home.willysamz.com",
		MatrixTimeout:        5.0,
		MatrixVerifySSL:      false,
		MatrixHealthInterval: 30,
		ServerHost:           "0.0.0.0",
		ServerPort:           "8080",
	}
}

// Load reads path (skipped when the file does not exist), then applies
// environment overrides.
func Load(path string) (Settings, error) {
	s := defaults()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return s, fmt.Errorf("read %s: %w", path, err)
	}

	if err := s.applyEnv(); err != nil {
		return s, err
	}
	return s, nil
}

// applyEnv overlays the original deployment's environment variables.
func (s *Settings) applyEnv() error {
	if v := os.Getenv("MATRIX_URL"); v != "" {
		s.MatrixURL = v
	}
	if v := os.Getenv("MATRIX_TIMEOUT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MATRIX_TIMEOUT: %w", err)
		}
		s.MatrixTimeout = f
	}
	if v := os.Getenv("MATRIX_VERIFY_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MATRIX_VERIFY_SSL: %w", err)
		}
		s.MatrixVerifySSL = b
	}
	if v := os.Getenv("MATRIX_HEALTH_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MATRIX_HEALTH_INTERVAL: %w", err)
		}
		s.MatrixHealthInterval = n
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		s.ServerHost = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		s.ServerPort = v
	}
	return nil
}

// Timeout returns the matrix request timeout as a duration.
func (s Settings) Timeout() time.Duration {
	return time.Duration(s.MatrixTimeout * float64(time.Second))
}

// HealthInterval returns the probe interval as a duration.
func (s Settings) HealthInterval() time.Duration {
	return time.Duration(s.MatrixHealthInterval) * time.Second
}
