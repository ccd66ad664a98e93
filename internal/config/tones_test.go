package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTonesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tones.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write tones file: %v", err)
	}
	return path
}

func TestLoadTonesConfig(t *testing.T) {
	path := writeTonesFile(t, `
selector:
  age_weight: 5
profiles:
  child_friendly:
    keywords: ["child", "小男孩"]
    particles: ["呢"]
  elder_friendly:
    keywords: ["gray hair", "拐杖"]
    particles: ["啊"]
  professional_friendly:
    keywords: ["business suit", "西裝"]
    particles: ["you know"]
  casual_friendly:
    keywords: []
    particles: ["honestly"]
`)
	t.Setenv("TONES_CONFIG_PATH", path)

	cfg, err := LoadTonesConfig()
	if err != nil {
		t.Fatalf("LoadTonesConfig() error = %v", err)
	}

	if cfg.Selector.AgeWeight != 5 {
		t.Errorf("AgeWeight = %d, want 5", cfg.Selector.AgeWeight)
	}
	// Defaulted because the file omits it.
	if cfg.Selector.KeywordWeight != 1 {
		t.Errorf("KeywordWeight = %d, want default 1", cfg.Selector.KeywordWeight)
	}

	child, ok := cfg.Profiles["child_friendly"]
	if !ok {
		t.Fatal("child_friendly profile missing")
	}
	if len(child.Keywords) != 2 {
		t.Errorf("child keywords = %d, want 2", len(child.Keywords))
	}
}

func TestLoadTonesConfigMissingProfile(t *testing.T) {
	path := writeTonesFile(t, `
profiles:
  child_friendly:
    keywords: ["child"]
`)
	t.Setenv("TONES_CONFIG_PATH", path)

	if _, err := LoadTonesConfig(); err == nil {
		t.Fatal("expected validation error for missing profiles, got nil")
	}
}

func TestLoadTonesConfigMissingFile(t *testing.T) {
	t.Setenv("TONES_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := LoadTonesConfig(); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
