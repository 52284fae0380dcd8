// Package pipeline reconciles extracted circular records into the ledger and
// run audit log.
package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/aluiziolira/go-scrape-circulars/scraper"
)

// Records is a header plus rows of cell text, the unit a TableStore loads
// and saves.
type Records struct {
	Columns []string
	Rows    [][]string
}

// Conform returns a copy of r with exactly the given columns in the given
// order. Missing columns are filled with empty cells and unknown ones dropped.
func (r *Records) Conform(columns []string) *Records {
	out := &Records{Columns: append([]string(nil), columns...)}
	if r == nil {
		return out
	}

	index := make(map[string]int, len(r.Columns))
	for i, name := range r.Columns {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	for _, row := range r.Rows {
		conformed := make([]string, len(columns))
		for i, name := range columns {
			if src, ok := index[name]; ok && src < len(row) {
				conformed[i] = row[src]
			}
		}
		out.Rows = append(out.Rows, conformed)
	}
	return out
}

// Layout carries presentation hints applied on every save. Hints never change
// the cell values themselves.
type Layout struct {
	MinWidth float64
	MaxWidth float64
	// Decimals maps numeric columns to the number of fractional digits shown.
	Decimals map[string]int
	// Integers lists columns written as whole numbers when they parse as such.
	Integers []string
	// Links lists columns whose http(s) values become hyperlinks.
	Links []string
}

func (l Layout) isInteger(column string) bool {
	return slices.Contains(l.Integers, column)
}

func (l Layout) isLink(column string) bool {
	return slices.Contains(l.Links, column)
}

// width clamps the content-derived width into [MinWidth, MaxWidth].
func (l Layout) width(maxLen int) float64 {
	w := float64(maxLen + 2)
	if w < l.MinWidth {
		w = l.MinWidth
	}
	if l.MaxWidth > 0 && w > l.MaxWidth {
		w = l.MaxWidth
	}
	return w
}

// TableStore persists Records. Load on a store that does not exist yet
// returns empty Records and no error.
type TableStore interface {
	Load() (*Records, error)
	Save(*Records) error
}

// DualStore saves to a primary store and a mirror. Loads only read the
// primary, which stays the source of truth: a failed mirror save is logged
// and counted but never fails Save.
type DualStore struct {
	Primary TableStore
	Mirror  TableStore
	Logger  *slog.Logger
	Metrics *scraper.Metrics
}

// NewDualStore pairs a primary store with a mirror.
func NewDualStore(primary, mirror TableStore) *DualStore {
	return &DualStore{Primary: primary, Mirror: mirror}
}

// Load reads the primary store.
func (d *DualStore) Load() (*Records, error) {
	return d.Primary.Load()
}

// Save writes the primary store first and then the mirror.
func (d *DualStore) Save(r *Records) error {
	if err := d.Primary.Save(r); err != nil {
		return fmt.Errorf("primary save failed: %w", err)
	}
	if err := d.Mirror.Save(r); err != nil {
		logger := d.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("mirror save failed",
			slog.Int("rows", len(r.Rows)),
			slog.Any("error", err),
		)
		d.Metrics.IncError("mirror")
	}
	return nil
}

// writeAtomic streams write into a temp file next to path and renames it over
// path, so readers see either the old file or the new one.
func writeAtomic(path string, write func(io.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	err = write(tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %q: %w", path, err)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
