// Package config loads the analysis configuration. Every threshold
// the dashboard applies lives here as one named parameter, so pages
// cannot drift apart on what counts as suspicious.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// AnalysisConfig is the root configuration for the analysis layer.
// Fields are pointers so a partial config file only overrides what it
// names; everything else keeps its default.
type AnalysisConfig struct {
	// Suspicious-entity classification: both cutoffs must be cleared.
	SuspiciousRatePct   *float64 `json:"suspicious_rate_pct,omitempty"`
	SuspiciousMinVolume *int     `json:"suspicious_min_volume,omitempty"`

	// Statistical utilities
	AnomalyIQRFactor *float64 `json:"anomaly_iqr_factor,omitempty"`
	ClusterCount     *int     `json:"cluster_count,omitempty"`

	// Dataset refresh window, a duration string like "10m".
	CacheTTL *string `json:"cache_ttl,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

// DefaultConfig returns the canonical defaults: suspicious above a 10%
// complaint rate over at least 10 deliveries, 1.5x IQR whiskers, three
// clusters, a 10 minute refresh window.
func DefaultConfig() *AnalysisConfig {
	return &AnalysisConfig{
		SuspiciousRatePct:   ptrFloat64(10.0),
		SuspiciousMinVolume: ptrInt(10),
		AnomalyIQRFactor:    ptrFloat64(1.5),
		ClusterCount:        ptrInt(3),
		CacheTTL:            ptrString("10m"),
	}
}

// LoadConfig loads an AnalysisConfig from a JSON file. The file is
// validated to ensure it has a .json extension and is under the max
// file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the analysis layer cannot work with.
func (c *AnalysisConfig) Validate() error {
	if c.SuspiciousRatePct != nil && *c.SuspiciousRatePct < 0 {
		return fmt.Errorf("suspicious_rate_pct must not be negative, got %g", *c.SuspiciousRatePct)
	}
	if c.SuspiciousMinVolume != nil && *c.SuspiciousMinVolume < 0 {
		return fmt.Errorf("suspicious_min_volume must not be negative, got %d", *c.SuspiciousMinVolume)
	}
	if c.AnomalyIQRFactor != nil && *c.AnomalyIQRFactor <= 0 {
		return fmt.Errorf("anomaly_iqr_factor must be positive, got %g", *c.AnomalyIQRFactor)
	}
	if c.ClusterCount != nil && *c.ClusterCount < 1 {
		return fmt.Errorf("cluster_count must be at least 1, got %d", *c.ClusterCount)
	}
	if c.CacheTTL != nil {
		if _, err := time.ParseDuration(*c.CacheTTL); err != nil {
			return fmt.Errorf("cache_ttl is not a valid duration: %w", err)
		}
	}
	return nil
}

// RatePct returns the suspicious complaint-rate cutoff.
func (c *AnalysisConfig) RatePct() float64 {
	if c != nil && c.SuspiciousRatePct != nil {
		return *c.SuspiciousRatePct
	}
	return *DefaultConfig().SuspiciousRatePct
}

// MinVolume returns the suspicious volume floor.
func (c *AnalysisConfig) MinVolume() int {
	if c != nil && c.SuspiciousMinVolume != nil {
		return *c.SuspiciousMinVolume
	}
	return *DefaultConfig().SuspiciousMinVolume
}

// IQRFactor returns the anomaly whisker multiplier.
func (c *AnalysisConfig) IQRFactor() float64 {
	if c != nil && c.AnomalyIQRFactor != nil {
		return *c.AnomalyIQRFactor
	}
	return *DefaultConfig().AnomalyIQRFactor
}

// Clusters returns the default cluster count.
func (c *AnalysisConfig) Clusters() int {
	if c != nil && c.ClusterCount != nil {
		return *c.ClusterCount
	}
	return *DefaultConfig().ClusterCount
}

// TTL returns the dataset refresh window.
func (c *AnalysisConfig) TTL() time.Duration {
	if c != nil && c.CacheTTL != nil {
		if d, err := time.ParseDuration(*c.CacheTTL); err == nil {
			return d
		}
	}
	d, _ := time.ParseDuration(*DefaultConfig().CacheTTL)
	return d
}
