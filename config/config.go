package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Marker policies control when the last-processed URL is advanced.
const (
	MarkerOnFetch  = "fetch"
	MarkerOnAppend = "append"
)

// Config holds scraper configuration.
type Config struct {
	PageURL      string
	DocumentDir  string
	DataDir      string
	LedgerFile   string
	RunLogFile   string
	MarkerFile   string
	CSVMirror    string
	Timeout      time.Duration
	UserAgent    string
	Timezone     string
	MarkerPolicy string
	MetricsFile  string
	Verbose      bool
}

// DefaultConfig returns defaults for the NALCO current-price page.
func DefaultConfig() *Config {
	return &Config{
		PageURL:      "https://nalcoindia.com/domestic/current-price/",
		DocumentDir:  "pdfs",
		DataDir:      "data",
		LedgerFile:   "nalco_prices.xlsx",
		RunLogFile:   "nalco_run_log.xlsx",
		MarkerFile:   "latest_nalco_pdf.txt",
		Timeout:      60 * time.Second,
		UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		Timezone:     "Asia/Kolkata",
		MarkerPolicy: MarkerOnFetch,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.PageURL == "" {
		return fmt.Errorf("page URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.PageURL)
	if err != nil {
		return fmt.Errorf("invalid page URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("page URL must include a host")
	}

	if c.DocumentDir == "" {
		return fmt.Errorf("document dir cannot be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir cannot be empty")
	}
	if filepath.Ext(c.LedgerFile) != ".xlsx" {
		return fmt.Errorf("ledger file must be an .xlsx file")
	}
	if filepath.Ext(c.RunLogFile) != ".xlsx" {
		return fmt.Errorf("run log file must be an .xlsx file")
	}
	if c.MarkerFile == "" {
		return fmt.Errorf("marker file cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.MarkerPolicy != MarkerOnFetch && c.MarkerPolicy != MarkerOnAppend {
		return fmt.Errorf("marker policy must be %s or %s", MarkerOnFetch, MarkerOnAppend)
	}

	return nil
}

// LedgerPath is the ledger store location inside DataDir.
func (c *Config) LedgerPath() string {
	return c.dataPath(c.LedgerFile)
}

// RunLogPath is the audit log store location inside DataDir.
func (c *Config) RunLogPath() string {
	return c.dataPath(c.RunLogFile)
}

// MarkerPath is the last-processed URL marker location inside DataDir.
func (c *Config) MarkerPath() string {
	return c.dataPath(c.MarkerFile)
}

func (c *Config) dataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// Location resolves the configured timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type fileConfig struct {
	PageURL      *string `yaml:"page_url"`
	DocumentDir  *string `yaml:"document_dir"`
	DataDir      *string `yaml:"data_dir"`
	LedgerFile   *string `yaml:"ledger_file"`
	RunLogFile   *string `yaml:"run_log_file"`
	MarkerFile   *string `yaml:"marker_file"`
	CSVMirror    *string `yaml:"csv_mirror"`
	Timeout      *string `yaml:"timeout"`
	UserAgent    *string `yaml:"user_agent"`
	Timezone     *string `yaml:"timezone"`
	MarkerPolicy *string `yaml:"marker_policy"`
	MetricsFile  *string `yaml:"metrics_file"`
	Verbose      *bool   `yaml:"verbose"`
}

// LoadFile overlays a YAML file onto cfg. Keys absent from the file keep
// their current value.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	setString(&cfg.PageURL, fc.PageURL)
	setString(&cfg.DocumentDir, fc.DocumentDir)
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.LedgerFile, fc.LedgerFile)
	setString(&cfg.RunLogFile, fc.RunLogFile)
	setString(&cfg.MarkerFile, fc.MarkerFile)
	setString(&cfg.CSVMirror, fc.CSVMirror)
	setString(&cfg.UserAgent, fc.UserAgent)
	setString(&cfg.Timezone, fc.Timezone)
	setString(&cfg.MarkerPolicy, fc.MarkerPolicy)
	setString(&cfg.MetricsFile, fc.MetricsFile)
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}
	if fc.Timeout != nil {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return fmt.Errorf("parse timeout %q: %w", *fc.Timeout, err)
		}
		cfg.Timeout = d
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
