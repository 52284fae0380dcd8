package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty page url",
			mutate: func(cfg *Config) {
				cfg.PageURL = ""
			},
			wantErr: "page URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.PageURL = "http://"
			},
			wantErr: "page URL",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "ledger not xlsx",
			mutate: func(cfg *Config) {
				cfg.LedgerFile = "prices.csv"
			},
			wantErr: "ledger file",
		},
		{
			name: "unknown timezone",
			mutate: func(cfg *Config) {
				cfg.Timezone = "Mars/Olympus"
			},
			wantErr: "timezone",
		},
		{
			name: "unknown marker policy",
			mutate: func(cfg *Config) {
				cfg.MarkerPolicy = "never"
			},
			wantErr: "marker policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestDataPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "state"
	if got, want := cfg.LedgerPath(), filepath.Join("state", "nalco_prices.xlsx"); got != want {
		t.Fatalf("ledger path = %q, want %q", got, want)
	}

	abs := filepath.Join(t.TempDir(), "marker.txt")
	cfg.MarkerFile = abs
	if got := cfg.MarkerPath(); got != abs {
		t.Fatalf("absolute marker path rewritten to %q", got)
	}
}

func TestLoadFileOverlaysOnlyPresentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circulars.yaml")
	body := "page_url: https://example.test/prices/\ntimeout: 5s\nmarker_policy: append\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := DefaultConfig()
	if err := LoadFile(cfg, path); err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.PageURL != "https://example.test/prices/" {
		t.Fatalf("page url = %q", cfg.PageURL)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("timeout = %v", cfg.Timeout)
	}
	if cfg.MarkerPolicy != MarkerOnAppend {
		t.Fatalf("marker policy = %q", cfg.MarkerPolicy)
	}
	if cfg.LedgerFile != "nalco_prices.xlsx" {
		t.Fatalf("ledger file should keep its default, got %q", cfg.LedgerFile)
	}
}

func TestLoadFileBadTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circulars.yaml")
	if err := os.WriteFile(path, []byte("timeout: soon\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := LoadFile(DefaultConfig(), path); err == nil {
		t.Fatalf("expected timeout parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CIRCULARS_DATA_DIR", "  /var/lib/circulars ")
	t.Setenv("CIRCULARS_TIMEOUT", "15s")
	t.Setenv("CIRCULARS_VERBOSE", "true")

	cfg := DefaultConfig()
	if err := ApplyEnv(cfg); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.DataDir != "/var/lib/circulars" {
		t.Fatalf("data dir = %q", cfg.DataDir)
	}
	if cfg.Timeout != 15*time.Second {
		t.Fatalf("timeout = %v", cfg.Timeout)
	}
	if !cfg.Verbose {
		t.Fatalf("verbose not applied")
	}
}

func TestApplyEnvInvalidDuration(t *testing.T) {
	t.Setenv("CIRCULARS_TIMEOUT", "fast")
	if err := ApplyEnv(DefaultConfig()); err == nil {
		t.Fatalf("expected duration error")
	}
}
