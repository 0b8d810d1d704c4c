package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "db_path: /tmp/x.db\nsample_rate_hz: 20\nhistory_limit: 5\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath != "/tmp/x.db" {
		t.Errorf("DBPath = %q, want /tmp/x.db", cfg.DBPath)
	}
	if cfg.SampleRateHz != 20 {
		t.Errorf("SampleRateHz = %v, want 20", cfg.SampleRateHz)
	}
	if cfg.HistoryLimit != 5 {
		t.Errorf("HistoryLimit = %d, want 5", cfg.HistoryLimit)
	}
	// Untouched keys keep their defaults.
	if cfg.JerkThresholdGPerS != Default().JerkThresholdGPerS {
		t.Errorf("JerkThresholdGPerS = %v, want default", cfg.JerkThresholdGPerS)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("sample_rate_hz: 20\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SAMPLE_RATE_HZ", "50")
	t.Setenv("HISTORY_LIMIT", "7")
	t.Setenv("DB_PATH", "/tmp/env.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SampleRateHz != 50 {
		t.Errorf("SampleRateHz = %v, want env override 50", cfg.SampleRateHz)
	}
	if cfg.HistoryLimit != 7 {
		t.Errorf("HistoryLimit = %d, want 7", cfg.HistoryLimit)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Errorf("DBPath = %q, want /tmp/env.db", cfg.DBPath)
	}
}

func TestEnvIgnoresUnparsableValues(t *testing.T) {
	t.Setenv("SAMPLE_RATE_HZ", "fast")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SampleRateHz != Default().SampleRateHz {
		t.Errorf("SampleRateHz = %v, want default for junk env", cfg.SampleRateHz)
	}
}
