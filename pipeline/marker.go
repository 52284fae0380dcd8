package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Marker is the plain-text file holding the last processed document URL.
type Marker struct {
	Path string
}

// NewMarker returns a marker stored at path.
func NewMarker(path string) *Marker {
	return &Marker{Path: path}
}

// Read returns the stored URL, or "" when nothing was processed yet.
func (m *Marker) Read() (string, error) {
	data, err := os.ReadFile(m.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Write replaces the stored URL.
func (m *Marker) Write(url string) error {
	if err := ensureDir(m.Path); err != nil {
		return err
	}
	if err := os.WriteFile(m.Path, []byte(url), 0o644); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}
