package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-circulars/config"
	"github.com/aluiziolira/go-scrape-circulars/parser"
	"github.com/aluiziolira/go-scrape-circulars/pipeline"
	"github.com/aluiziolira/go-scrape-circulars/scraper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Check the page once and record any new circular",
	Long: `Fetch the price-circular page, pick the current ingot circular and, when it
differs from the last processed one, download it, extract the IE07 price and
append it to the ledger. Exits 2 when the page carries no ingot circular.`,
	Args: cobra.NoArgs,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := ensureDirs(cfg); err != nil {
		return err
	}

	metrics := scraper.NewMetrics()
	defer func() {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			slog.Error("write metrics textfile", slog.Any("error", err))
		}
	}()

	s, err := scraper.NewScraper(cfg, metrics)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}
	ledger, runLog := pipeline.OpenStores(cfg, slog.Default(), metrics)
	p := pipeline.NewPipeline(s, scraper.NewDownloader(cfg, metrics), parser.DecodePDF, ledger, runLog, pipeline.Options{
		Location:     cfg.Location(),
		MarkerPolicy: cfg.MarkerPolicy,
		Metrics:      metrics,
		Logger:       slog.Default(),
	})

	slog.Info("starting run",
		slog.String("page_url", cfg.PageURL),
		slog.String("ledger", cfg.LedgerPath()),
		slog.String("marker_policy", cfg.MarkerPolicy),
	)

	start := time.Now()
	out, err := p.RunWithMarker(cmd.Context(), pipeline.NewMarker(cfg.MarkerPath()))
	if out != nil {
		printSummary(cmd.OutOrStdout(), cfg, out, time.Since(start))
	}
	return err
}

func ensureDirs(cfg *config.Config) error {
	for _, dir := range []string{cfg.DocumentDir, cfg.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func printSummary(w io.Writer, cfg *config.Config, out *pipeline.Outcome, duration time.Duration) {
	separator := "--------------------------------------------------"
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "  Status:        %s\n", out.Status)
	if out.Entry.Message != "" {
		fmt.Fprintf(w, "  Message:       %s\n", out.Entry.Message)
	}
	if out.Chosen.URL != "" {
		fmt.Fprintf(w, "  Chosen PDF:    %s (%s)\n", out.Chosen.URL, out.Chosen.Tier)
	}
	if out.Entry.SavedDocument != "" {
		fmt.Fprintf(w, "  Saved to:      %s\n", out.Entry.SavedDocument)
	}
	if out.Row != nil {
		fmt.Fprintf(w, "  Basic price:   %s (%s)\n", parser.FormatPrice(out.Row.BasicPrice), out.Row.CircularDate)
		fmt.Fprintf(w, "  Ledger:        %s\n", cfg.LedgerPath())
	}
	if out.Entry.TotalRowsAfter != nil {
		fmt.Fprintf(w, "  Total rows:    %d\n", *out.Entry.TotalRowsAfter)
	}
	fmt.Fprintf(w, "  Duration:      %v\n", duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Run ID:        %s\n", out.RunID)
	fmt.Fprintln(w, separator)
}
