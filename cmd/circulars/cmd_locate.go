package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-circulars/pipeline"
	"github.com/aluiziolira/go-scrape-circulars/scraper"
)

var showCandidates bool

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Print the circular the page currently points to",
	Long: `Fetch the price-circular page and print the document URL that a run would
choose, together with the rule that matched. Nothing is downloaded or written.`,
	Args: cobra.NoArgs,
	RunE: runLocate,
}

func init() {
	rootCmd.AddCommand(locateCmd)
	locateCmd.Flags().BoolVar(&showCandidates, "candidates", false, "Also list every link found on the page")
}

func runLocate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := scraper.NewScraper(cfg, nil)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	page, err := s.FetchPage(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if showCandidates {
		for _, c := range scraper.Candidates(page.Doc) {
			fmt.Fprintf(w, "%-5t %s  %q\n", c.IsPDF, c.Href, c.AnchorText)
		}
	}

	ref, ok := scraper.Locate(page.Doc, page.URL)
	if !ok {
		return pipeline.ErrNoDocument
	}
	fmt.Fprintf(w, "%s\t%s\n", ref.URL, ref.Tier)
	return nil
}
