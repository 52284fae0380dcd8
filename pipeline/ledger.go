package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aluiziolira/go-scrape-circulars/models"
	"github.com/aluiziolira/go-scrape-circulars/parser"
)

// Ledger column names, in persisted order.
const (
	ColSlNo         = "Sl.no."
	ColDescription  = "Description"
	ColProductCode  = "Product Code"
	ColBasicPrice   = "Basic Price"
	ColCircularDate = "Circular Date"
	ColCircularLink = "Circular Link"
)

// LedgerColumns is the canonical ledger header.
var LedgerColumns = []string{ColSlNo, ColDescription, ColProductCode, ColBasicPrice, ColCircularDate, ColCircularLink}

// LedgerLayout is applied to the ledger workbook on every save.
var LedgerLayout = Layout{
	MinWidth: 10,
	MaxWidth: 80,
	Decimals: map[string]int{ColBasicPrice: parser.PriceScale},
	Integers: []string{ColSlNo},
	Links:    []string{ColCircularLink},
}

// Ledger is the append-only price ledger.
type Ledger struct {
	store TableStore
}

// NewLedger wraps a table store.
func NewLedger(store TableStore) *Ledger {
	return &Ledger{store: store}
}

type ledgerEntry struct {
	cells []string
	slNo  int
	date  time.Time
	dated bool
}

// Append assigns the next Sl.no. to row, re-sorts and re-normalizes every
// row, and saves the full ledger. It returns the row count after the save.
func (l *Ledger) Append(row *models.LedgerRow) (int, error) {
	entries, err := l.load()
	if err != nil {
		return 0, err
	}

	next := 1
	for _, e := range entries {
		if e.slNo >= next {
			next = e.slNo + 1
		}
	}
	row.SlNo = next

	entries = append(entries, healEntry([]string{
		strconv.Itoa(row.SlNo),
		row.Description,
		row.ProductCode,
		parser.FormatPrice(parser.RoundPrice(row.BasicPrice)),
		row.CircularDate,
		row.CircularLink,
	}))
	sortEntries(entries)

	out := &Records{Columns: LedgerColumns}
	for _, e := range entries {
		out.Rows = append(out.Rows, e.cells)
	}
	if err := l.store.Save(out); err != nil {
		return 0, fmt.Errorf("save ledger: %w", err)
	}
	return len(out.Rows), nil
}

// Rows returns the ledger in persisted order. Cells that fail to parse come
// back as zero values, except CircularDate which keeps its text.
func (l *Ledger) Rows() ([]models.LedgerRow, error) {
	entries, err := l.load()
	if err != nil {
		return nil, err
	}
	rows := make([]models.LedgerRow, 0, len(entries))
	for _, e := range entries {
		price, _ := decimal.NewFromString(e.cells[3])
		rows = append(rows, models.LedgerRow{
			SlNo:         e.slNo,
			Description:  e.cells[1],
			ProductCode:  e.cells[2],
			BasicPrice:   price,
			CircularDate: e.cells[4],
			CircularLink: e.cells[5],
		})
	}
	return rows, nil
}

func (l *Ledger) load() ([]ledgerEntry, error) {
	records, err := l.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	records = records.Conform(LedgerColumns)

	entries := make([]ledgerEntry, 0, len(records.Rows))
	for _, cells := range records.Rows {
		entries = append(entries, healEntry(cells))
	}
	return entries, nil
}

// healEntry re-normalizes a row written by this or an older version: Sl.no.
// as an integer, the price rounded to three decimals and the date as
// DD-MM-YYYY. Cells that do not parse are left as they are.
func healEntry(cells []string) ledgerEntry {
	e := ledgerEntry{cells: cells}
	for i := range e.cells {
		e.cells[i] = strings.TrimSpace(e.cells[i])
	}

	if n, ok := parseSlNo(e.cells[0]); ok {
		e.slNo = n
		e.cells[0] = strconv.Itoa(n)
	}
	if price, err := decimal.NewFromString(strings.ReplaceAll(e.cells[3], ",", "")); err == nil {
		e.cells[3] = parser.FormatPrice(parser.RoundPrice(price))
	}
	if d, ok := parser.ParseStoredDate(e.cells[4]); ok {
		e.date, e.dated = d, true
		e.cells[4] = d.Format(parser.DateLayout)
	}
	return e
}

func parseSlNo(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// sortEntries orders by date descending then Sl.no. ascending. Undated rows
// go last. The sort is stable so full ties keep their prior order.
func sortEntries(entries []ledgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.dated != b.dated {
			return a.dated
		}
		if !a.date.Equal(b.date) {
			return a.date.After(b.date)
		}
		return a.slNo < b.slNo
	})
}
