// Package models defines data structures for the circular scraper.
package models

import (
	"github.com/shopspring/decimal"
)

// CandidateLink is a link found on the price-circular page.
type CandidateLink struct {
	Href       string
	AnchorText string
	IsPDF      bool
}

// ChosenDocumentRef is the document the locator settled on.
type ChosenDocumentRef struct {
	URL  string
	Tier string
}

// Download describes a document saved to disk.
type Download struct {
	URL         string
	FinalURL    string
	Path        string
	Name        string
	ContentType string
	Bytes       int64
}

// ExtractedRecord is the raw target row pulled from a circular.
type ExtractedRecord struct {
	Description string
	ProductCode string
	RawPrice    string
	Strategy    string
	Page        int
}

// LedgerRow is the persisted unit of the price ledger.
type LedgerRow struct {
	SlNo         int
	Description  string
	ProductCode  string
	BasicPrice   decimal.Decimal
	CircularDate string // DD-MM-YYYY
	CircularLink string
}

// RunStatus classifies the outcome of one invocation.
type RunStatus string

const (
	RunUpdated RunStatus = "UPDATED"
	RunSkipped RunStatus = "SKIPPED"
	RunFailed  RunStatus = "FAILED"
)

// RunLogEntry is one row of the run audit log.
type RunLogEntry struct {
	RunUTC         string
	RunLocal       string
	Status         RunStatus
	Message        string
	ChosenURL      string
	SavedDocument  string
	RowsAppended   int
	TotalRowsAfter *int // nil leaves the cell empty
}
