package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "CIRCULARS_"

// EnvString returns a trimmed, non-empty environment value.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvDuration parses a Go duration from the environment.
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return d, true, nil
}

// EnvBool parses a boolean from the environment.
func EnvBool(key string) (bool, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return b, true, nil
}

// ApplyEnv overlays CIRCULARS_* variables onto cfg.
func ApplyEnv(cfg *Config) error {
	strs := map[string]*string{
		"PAGE_URL":      &cfg.PageURL,
		"DOCUMENT_DIR":  &cfg.DocumentDir,
		"DATA_DIR":      &cfg.DataDir,
		"LEDGER_FILE":   &cfg.LedgerFile,
		"RUN_LOG_FILE":  &cfg.RunLogFile,
		"MARKER_FILE":   &cfg.MarkerFile,
		"CSV_MIRROR":    &cfg.CSVMirror,
		"USER_AGENT":    &cfg.UserAgent,
		"TIMEZONE":      &cfg.Timezone,
		"MARKER_POLICY": &cfg.MarkerPolicy,
		"METRICS_FILE":  &cfg.MetricsFile,
	}
	for key, dst := range strs {
		if value, ok := EnvString(EnvPrefix + key); ok {
			*dst = value
		}
	}

	if d, ok, err := EnvDuration(EnvPrefix + "TIMEOUT"); err != nil {
		return err
	} else if ok {
		cfg.Timeout = d
	}
	if b, ok, err := EnvBool(EnvPrefix + "VERBOSE"); err != nil {
		return err
	} else if ok {
		cfg.Verbose = b
	}
	return nil
}
