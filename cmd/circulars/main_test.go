package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-circulars/pipeline"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: exitOK},
		{name: "no document", err: pipeline.ErrNoDocument, want: exitNoDocument},
		{name: "wrapped no document", err: fmt.Errorf("run: %w", pipeline.ErrNoDocument), want: exitNoDocument},
		{name: "stage failure", err: &pipeline.StageError{Stage: pipeline.StageExtract, Err: errors.New("x")}, want: exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yamlPath := filepath.Join(dir, "circulars.yaml")
	content := "timeout: 10s\ndata_dir: from-yaml\nmarker_policy: append\ncsv_mirror: ledger.csv\n"
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	envPath := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envPath, []byte("CIRCULARS_MARKER_POLICY=fetch\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("CIRCULARS_TIMEOUT", "5s")
	t.Setenv("CIRCULARS_MARKER_POLICY", "")
	os.Unsetenv("CIRCULARS_MARKER_POLICY")

	t.Cleanup(func() { configPath, envFile, dataDir = "", "", "" })
	if err := rootCmd.ParseFlags([]string{"--config", yamlPath, "--env-file", envPath, "--data-dir", "from-flag"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := loadConfig(rootCmd)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("timeout = %v, want env value 5s", cfg.Timeout)
	}
	if cfg.DataDir != "from-flag" {
		t.Fatalf("data dir = %q, want flag value", cfg.DataDir)
	}
	if cfg.MarkerPolicy != "fetch" {
		t.Fatalf("marker policy = %q, want dotenv value", cfg.MarkerPolicy)
	}
	if cfg.CSVMirror != "ledger.csv" {
		t.Fatalf("csv mirror = %q, want yaml value", cfg.CSVMirror)
	}
}
