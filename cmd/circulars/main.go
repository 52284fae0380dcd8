package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aluiziolira/go-scrape-circulars/config"
	"github.com/aluiziolira/go-scrape-circulars/pipeline"
)

// Process exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitNoDocument = 2
)

var (
	configPath   string
	envFile      string
	verbose      bool
	pageURL      string
	documentDir  string
	dataDir      string
	csvMirror    string
	metricsFile  string
	timezone     string
	markerPolicy string
	timeout      time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "circulars",
	Short: "Track the NALCO aluminium ingot price circular",
	Long: `circulars watches the NALCO current-price page, downloads each new ingot
circular, extracts the IE07 basic price and appends it to a spreadsheet
ledger. Every invocation is recorded in a separate run log.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML configuration file")
	flags.StringVar(&envFile, "env-file", "", "dotenv file with CIRCULARS_* variables (default .env when present)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&pageURL, "page-url", "", "Price-circular page URL")
	flags.StringVar(&documentDir, "pdf-dir", "", "Directory for downloaded circulars")
	flags.StringVar(&dataDir, "data-dir", "", "Directory for the ledger, run log and marker")
	flags.StringVar(&csvMirror, "csv-mirror", "", "Also write the ledger to this CSV file")
	flags.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	flags.StringVar(&timezone, "timezone", "", "Timezone for local run timestamps and fallback dates")
	flags.StringVar(&markerPolicy, "marker-policy", "", "When to advance the last-processed marker: fetch or append")
	flags.DurationVar(&timeout, "timeout", 0, "HTTP timeout")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	code := exitCode(err)
	if err != nil && code != exitNoDocument {
		slog.Error("run failed", slog.Any("error", err))
	}
	os.Exit(code)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, pipeline.ErrNoDocument):
		return exitNoDocument
	default:
		return exitFailure
	}
}

// loadConfig layers defaults, the YAML file, dotenv and process environment,
// and finally any flag set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if configPath != "" {
		if err := config.LoadFile(cfg, configPath); err != nil {
			return nil, err
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("page-url") {
		cfg.PageURL = pageURL
	}
	if flags.Changed("pdf-dir") {
		cfg.DocumentDir = documentDir
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("csv-mirror") {
		cfg.CSVMirror = csvMirror
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = metricsFile
	}
	if flags.Changed("timezone") {
		cfg.Timezone = timezone
	}
	if flags.Changed("marker-policy") {
		cfg.MarkerPolicy = markerPolicy
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())
	return cfg, nil
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}
