package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.RatePct() != 10.0 {
		t.Errorf("RatePct = %v, want 10", cfg.RatePct())
	}
	if cfg.MinVolume() != 10 {
		t.Errorf("MinVolume = %v, want 10", cfg.MinVolume())
	}
	if cfg.IQRFactor() != 1.5 {
		t.Errorf("IQRFactor = %v, want 1.5", cfg.IQRFactor())
	}
	if cfg.Clusters() != 3 {
		t.Errorf("Clusters = %v, want 3", cfg.Clusters())
	}
	if cfg.TTL() != 10*time.Minute {
		t.Errorf("TTL = %v, want 10m", cfg.TTL())
	}
}

func TestLoadConfigPartialOverride(t *testing.T) {
	path := writeConfig(t, "partial.json", `{"suspicious_rate_pct": 25.0}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RatePct() != 25.0 {
		t.Errorf("RatePct = %v, want 25 (overridden)", cfg.RatePct())
	}
	// Everything not named keeps its default.
	if cfg.MinVolume() != 10 {
		t.Errorf("MinVolume = %v, want default 10", cfg.MinVolume())
	}
	if cfg.TTL() != 10*time.Minute {
		t.Errorf("TTL = %v, want default 10m", cfg.TTL())
	}
}

func TestLoadConfigFull(t *testing.T) {
	path := writeConfig(t, "full.json", `{
		"suspicious_rate_pct": 15.5,
		"suspicious_min_volume": 25,
		"anomaly_iqr_factor": 3.0,
		"cluster_count": 5,
		"cache_ttl": "30s"
	}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RatePct() != 15.5 || cfg.MinVolume() != 25 || cfg.IQRFactor() != 3.0 || cfg.Clusters() != 5 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.TTL() != 30*time.Second {
		t.Errorf("TTL = %v, want 30s", cfg.TTL())
	}
}

func TestLoadConfigRejectsNonJSONExtension(t *testing.T) {
	path := writeConfig(t, "config.yaml", `{}`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig accepted a non-.json file")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("LoadConfig succeeded on a missing file")
	}
}

func TestLoadConfigMalformedJSON(t *testing.T) {
	path := writeConfig(t, "bad.json", `{"suspicious_rate_pct": `)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig accepted malformed JSON")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"negative rate", `{"suspicious_rate_pct": -1}`, "suspicious_rate_pct"},
		{"negative volume", `{"suspicious_min_volume": -5}`, "suspicious_min_volume"},
		{"zero iqr factor", `{"anomaly_iqr_factor": 0}`, "anomaly_iqr_factor"},
		{"zero clusters", `{"cluster_count": 0}`, "cluster_count"},
		{"bad ttl", `{"cache_ttl": "soon"}`, "cache_ttl"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeConfig(t, "invalid.json", c.content)
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatalf("LoadConfig accepted %s", c.content)
			}
			if !strings.Contains(err.Error(), c.wantErr) {
				t.Errorf("error %q does not mention %q", err, c.wantErr)
			}
		})
	}
}

func TestNilConfigAccessors(t *testing.T) {
	var cfg *AnalysisConfig
	if cfg.RatePct() != 10.0 || cfg.MinVolume() != 10 || cfg.IQRFactor() != 1.5 || cfg.Clusters() != 3 {
		t.Error("nil config accessors did not fall back to defaults")
	}
	if cfg.TTL() != 10*time.Minute {
		t.Errorf("nil config TTL = %v, want 10m", cfg.TTL())
	}
}
