package parser

import (
	"regexp"
	"strings"

	"github.com/aluiziolira/go-scrape-circulars/models"
)

// Strategy finds the target record in a document, reporting whether it
// found one.
type Strategy func(doc *models.Document) (*models.ExtractedRecord, bool)

// DefaultStrategies lists the extraction strategies in priority order.
var DefaultStrategies = []Strategy{TableStrategy, LineStrategy}

var (
	codeCellRe  = regexp.MustCompile(`(?i)^` + ProductCode + `$`)
	codeTokenRe = regexp.MustCompile(`(?i)\b` + ProductCode + `\b`)
	numericRe   = regexp.MustCompile(`^\d+(\.\d+)?$`)
	digitRe     = regexp.MustCompile(`\d`)
	// trailing price on a reconstructed line; commas are validated afterwards
	linePriceRe = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*$`)
	lineDescRe  = regexp.MustCompile(`(?i)([A-Z ]*INGOT[A-Z ]*)\b`)
)

// Extract runs strategies in order and returns the first accepted record.
func Extract(doc *models.Document, strategies ...Strategy) (*models.ExtractedRecord, error) {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	for _, strategy := range strategies {
		record, ok := strategy(doc)
		if !ok {
			continue
		}
		if err := ValidateRecord(record); err != nil {
			continue
		}
		return record, nil
	}

	name, pages := "", 0
	if doc != nil {
		name, pages = doc.Name, len(doc.Pages)
	}
	return nil, &ExtractionError{Document: name, Pages: pages}
}

// TableStrategy scans every table row, page by page, for a cell equal to the
// product code.
func TableStrategy(doc *models.Document) (*models.ExtractedRecord, bool) {
	if doc == nil {
		return nil, false
	}
	for _, page := range doc.Pages {
		for _, table := range page.Tables {
			for _, row := range table {
				if record, ok := recordFromRow(row); ok {
					record.Page = page.Number
					return record, true
				}
			}
		}
	}
	return nil, false
}

func recordFromRow(row []string) (*models.ExtractedRecord, bool) {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.TrimSpace(c)
	}

	idx := -1
	for i, c := range cells {
		if codeCellRe.MatchString(c) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}

	desc := ""
	for j := idx - 1; j >= 0; j-- {
		if cells[j] != "" && !numericRe.MatchString(cells[j]) {
			desc = cells[j]
			break
		}
	}
	if desc == "" {
		desc = DefaultDescription
	}

	price := ""
	for j := idx + 1; j < len(cells); j++ {
		if digitRe.MatchString(cells[j]) {
			price = stripSeparators(cells[j])
			break
		}
	}
	if price == "" {
		return nil, false
	}

	return &models.ExtractedRecord{
		Description: strings.ToUpper(desc),
		ProductCode: ProductCode,
		RawPrice:    price,
		Strategy:    "table",
	}, true
}

// LineStrategy rebuilds text lines from positioned words and matches the
// product code as a whole word.
func LineStrategy(doc *models.Document) (*models.ExtractedRecord, bool) {
	if doc == nil {
		return nil, false
	}
	for _, page := range doc.Pages {
		for _, line := range Lines(page.Words) {
			if !codeTokenRe.MatchString(line) {
				continue
			}
			price, ok := trailingPrice(line)
			if !ok {
				continue
			}
			desc := DefaultDescription
			if m := lineDescRe.FindStringSubmatch(line); m != nil {
				if d := strings.TrimSpace(m[1]); d != "" {
					desc = d
				}
			}
			return &models.ExtractedRecord{
				Description: strings.ToUpper(desc),
				ProductCode: ProductCode,
				RawPrice:    price,
				Strategy:    "line",
				Page:        page.Number,
			}, true
		}
	}
	return nil, false
}

// Lines groups words by their top coordinate rounded to one decimal and
// joins each group left to right. Lines are returned top to bottom.
func Lines(words []models.Word) []string {
	grouped := wordLines(words)
	lines := make([]string, 0, len(grouped))
	for _, group := range grouped {
		parts := make([]string, len(group))
		for i, w := range group {
			parts[i] = w.Text
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines
}

func trailingPrice(line string) (string, bool) {
	m := linePriceRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	price := stripSeparators(m[1])
	whole := price
	if i := strings.IndexByte(price, '.'); i >= 0 {
		whole = price[:i]
	}
	if len(whole) < 5 || len(whole) > 7 {
		return "", false
	}
	return price, true
}

func stripSeparators(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}
