package pipeline

import (
	"fmt"
	"strconv"

	"github.com/aluiziolira/go-scrape-circulars/models"
)

// RunLogColumns is the canonical audit log header.
var RunLogColumns = []string{
	"Run UTC",
	"Run IST",
	"Status",
	"Message",
	"Chosen URL",
	"Saved PDF",
	"Rows Appended",
	"Total Rows After",
}

// RunLogLayout is applied to the audit workbook on every save.
var RunLogLayout = Layout{
	MinWidth: 10,
	MaxWidth: 100,
	Integers: []string{"Rows Appended", "Total Rows After"},
}

// RunLog is the execution history, one entry per invocation.
type RunLog struct {
	store TableStore
}

// NewRunLog wraps a table store.
func NewRunLog(store TableStore) *RunLog {
	return &RunLog{store: store}
}

// Append adds entry after the existing ones and saves the log. Prior entries
// are written back untouched.
func (l *RunLog) Append(entry models.RunLogEntry) error {
	records, err := l.store.Load()
	if err != nil {
		return fmt.Errorf("load run log: %w", err)
	}
	records = records.Conform(RunLogColumns)

	total := ""
	if entry.TotalRowsAfter != nil {
		total = strconv.Itoa(*entry.TotalRowsAfter)
	}
	records.Rows = append(records.Rows, []string{
		entry.RunUTC,
		entry.RunLocal,
		string(entry.Status),
		entry.Message,
		entry.ChosenURL,
		entry.SavedDocument,
		strconv.Itoa(entry.RowsAppended),
		total,
	})

	if err := l.store.Save(records); err != nil {
		return fmt.Errorf("save run log: %w", err)
	}
	return nil
}

// Entries returns the log in execution order.
func (l *RunLog) Entries() ([]models.RunLogEntry, error) {
	records, err := l.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load run log: %w", err)
	}
	records = records.Conform(RunLogColumns)

	entries := make([]models.RunLogEntry, 0, len(records.Rows))
	for _, row := range records.Rows {
		e := models.RunLogEntry{
			RunUTC:        row[0],
			RunLocal:      row[1],
			Status:        models.RunStatus(row[2]),
			Message:       row[3],
			ChosenURL:     row[4],
			SavedDocument: row[5],
		}
		e.RowsAppended, _ = strconv.Atoi(row[6])
		if n, err := strconv.Atoi(row[7]); err == nil {
			e.TotalRowsAfter = &n
		}
		entries = append(entries, e)
	}
	return entries, nil
}
