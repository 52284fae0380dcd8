package parser

import (
	"fmt"
	"strings"

	"github.com/aluiziolira/go-scrape-circulars/models"
)

const (
	// ProductCode identifies the aluminium ingot row in a circular.
	ProductCode = "IE07"
	// DefaultDescription is used when the row carries no usable label.
	DefaultDescription = "ALUMINIUM INGOT"
)

// ValidateRecord ensures an extractor captured the required fields.
func ValidateRecord(r *models.ExtractedRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	if !strings.EqualFold(strings.TrimSpace(r.ProductCode), ProductCode) {
		return fmt.Errorf("record has product code %q, want %s", r.ProductCode, ProductCode)
	}
	if strings.TrimSpace(r.RawPrice) == "" {
		return fmt.Errorf("record missing price for %s", r.ProductCode)
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("record missing description for %s", r.ProductCode)
	}
	return nil
}

// ExtractionError reports that no strategy located the target record.
type ExtractionError struct {
	Document string
	Pages    int
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("could not find a row with product code %s in %q (%d pages scanned)", ProductCode, e.Document, e.Pages)
}

// NormalizationError reports a price that is not numeric.
type NormalizationError struct {
	Raw string
	Err error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("could not parse numeric price from %q: %v", e.Raw, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}
