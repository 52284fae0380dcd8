package pipeline

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// CSVStore keeps Records in a plain CSV file with a header row.
type CSVStore struct {
	Path string
}

// NewCSVStore returns a CSV-backed store.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{Path: path}
}

// Load reads the header and every record.
func (s *CSVStore) Load() (*Records, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Records{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(bufio.NewReader(f))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv records: %w", err)
	}
	if len(records) == 0 {
		return &Records{}, nil
	}
	return &Records{Columns: trimAll(records[0]), Rows: records[1:]}, nil
}

// Save rewrites the file with the header followed by every row.
func (s *CSVStore) Save(r *Records) error {
	return writeAtomic(s.Path, func(w io.Writer) error {
		writer := csv.NewWriter(w)
		if err := writer.Write(r.Columns); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		if err := writer.WriteAll(r.Rows); err != nil {
			return fmt.Errorf("write csv records: %w", err)
		}
		return nil
	})
}
