package config

import (
	"bytes"
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// MergeFile overlays the YAML document at path onto c. Keys absent from the
// file keep their current values.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if c.Observability.LogLevelName != "" {
		c.Observability.LogLevel = parseLogLevel(c.Observability.LogLevelName)
	}
	return nil
}

// LoadThresholdsFile reads only the monitoring thresholds from a YAML config
// file, starting from base for any key the file omits.
func LoadThresholdsFile(path string, base Thresholds) (Thresholds, error) {
	cfg := Default()
	cfg.Monitoring.Thresholds = base
	if err := cfg.MergeFile(path); err != nil {
		return Thresholds{}, err
	}
	if err := cfg.Monitoring.Thresholds.Validate(); err != nil {
		return Thresholds{}, err
	}
	return cfg.Monitoring.Thresholds, nil
}

// ThresholdStore publishes the current thresholds to concurrent readers
type ThresholdStore struct {
	current atomic.Pointer[Thresholds]
}

// NewThresholdStore creates a store holding t
func NewThresholdStore(t Thresholds) *ThresholdStore {
	s := &ThresholdStore{}
	s.Store(t)
	return s
}

// Load returns the current thresholds
func (s *ThresholdStore) Load() Thresholds {
	if t := s.current.Load(); t != nil {
		return *t
	}
	return DefaultThresholds()
}

// Store replaces the current thresholds
func (s *ThresholdStore) Store(t Thresholds) {
	s.current.Store(&t)
}
