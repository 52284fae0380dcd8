package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-circulars/parser"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract the IE07 row from a local circular",
	Long: `Decode a circular already on disk and print the record a run would append:
description, product code, normalized price and circular date. Use it to
inspect a document whose run failed at the extract stage.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path := args[0]
	doc, err := parser.DecodePDF(path)
	if err != nil {
		return err
	}
	rec, err := parser.Extract(doc)
	if err != nil {
		return err
	}
	price, err := parser.NormalizePrice(rec.RawPrice)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Description:   %s\n", rec.Description)
	fmt.Fprintf(w, "Product Code:  %s\n", rec.ProductCode)
	fmt.Fprintf(w, "Raw price:     %s\n", rec.RawPrice)
	fmt.Fprintf(w, "Basic Price:   %s\n", parser.FormatPrice(price))
	fmt.Fprintf(w, "Circular Date: %s\n", parser.CircularDate(filepath.Base(path), time.Now().In(cfg.Location())))
	fmt.Fprintf(w, "Matched by:    %s (page %d)\n", rec.Strategy, rec.Page)
	return nil
}
