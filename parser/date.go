package parser

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DateLayout is the DD-MM-YYYY layout used for circular dates.
const DateLayout = "02-01-2006"

// DatedFilenameRe matches "Ingot-DD-MM-YYYY.pdf" filenames.
var DatedFilenameRe = regexp.MustCompile(`(?i)^Ingot-(\d{2})-(\d{2})-(\d{4})\.pdf$`)

// CircularDate derives the effective date from a document filename, falling
// back to the calendar date of now when the name carries no valid date.
func CircularDate(filename string, now time.Time) string {
	if d, ok := DateFromFilename(filename); ok {
		return d.Format(DateLayout)
	}
	return now.Format(DateLayout)
}

// DateFromFilename parses the date embedded in a dated filename. Invalid
// calendar dates such as 31-02 are reported as absent.
func DateFromFilename(filename string) (time.Time, bool) {
	m := DatedFilenameRe.FindStringSubmatch(path.Base(strings.TrimSpace(filename)))
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	return validDate(year, month, day)
}

func validDate(year, month, day int) (time.Time, bool) {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

var storedDateLayouts = []string{
	DateLayout,
	"2006-01-02",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02-01-2006 15:04:05",
}

// ParseStoredDate reads a date cell written by this or an older version of
// the ledger: DD-MM-YYYY, ISO dates and timestamps, DD/MM/YYYY, or an Excel
// serial number.
func ParseStoredDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range storedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
