package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSXStore keeps Records in the first sheet of a workbook.
type XLSXStore struct {
	Path   string
	Layout Layout
}

// NewXLSXStore returns a workbook-backed store.
func NewXLSXStore(path string, layout Layout) *XLSXStore {
	return &XLSXStore{Path: path, Layout: layout}
}

// Load reads raw cell values from the first sheet. Blank rows are skipped.
func (s *XLSXStore) Load() (*Records, error) {
	f, err := excelize.OpenFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Records{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", s.Path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Records{}, nil
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return &Records{}, nil
	}

	out := &Records{Columns: trimAll(rows[0])}
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// Save rewrites the whole workbook and re-applies the layout to every cell.
func (s *XLSXStore) Save(r *Records) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := s.fill(f, r); err != nil {
		return err
	}
	return writeAtomic(s.Path, func(w io.Writer) error {
		return f.Write(w)
	})
}

func (s *XLSXStore) fill(f *excelize.File, r *Records) error {
	sheet := defaultSheet

	for col, name := range r.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("write header %q: %w", name, err)
		}
	}

	for i, row := range r.Rows {
		for col, name := range r.Columns {
			value := ""
			if col < len(row) {
				value = row[col]
			}
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := s.setCell(f, sheet, cell, name, value); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}

	return s.format(f, sheet, r)
}

func (s *XLSXStore) setCell(f *excelize.File, sheet, cell, column, value string) error {
	layout := s.Layout
	if places, ok := layout.Decimals[column]; ok {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return f.SetCellFloat(sheet, cell, v, places, 64)
		}
	}
	if layout.isInteger(column) {
		if n, err := strconv.Atoi(value); err == nil {
			return f.SetCellValue(sheet, cell, n)
		}
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return err
	}
	if layout.isLink(column) && strings.HasPrefix(value, "http") {
		return f.SetCellHyperLink(sheet, cell, value, "External")
	}
	return nil
}

// format sizes columns to their content, centers every cell, applies number
// formats and freezes the header row.
func (s *XLSXStore) format(f *excelize.File, sheet string, r *Records) error {
	layout := s.Layout
	if len(r.Columns) == 0 {
		return nil
	}

	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	centerStyle, err := f.NewStyle(&excelize.Style{Alignment: center})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	last, err := excelize.CoordinatesToCellName(len(r.Columns), len(r.Rows)+1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, centerStyle); err != nil {
		return fmt.Errorf("center cells: %w", err)
	}

	for col, name := range r.Columns {
		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}

		maxLen := utf8.RuneCountInString(name)
		for _, row := range r.Rows {
			if col < len(row) {
				maxLen = max(maxLen, utf8.RuneCountInString(row[col]))
			}
		}
		if err := f.SetColWidth(sheet, colName, colName, layout.width(maxLen)); err != nil {
			return fmt.Errorf("size column %s: %w", colName, err)
		}

		places, ok := layout.Decimals[name]
		if !ok || len(r.Rows) == 0 {
			continue
		}
		numFmt := "0"
		if places > 0 {
			numFmt += "." + strings.Repeat("0", places)
		}
		numStyle, err := f.NewStyle(&excelize.Style{Alignment: center, CustomNumFmt: &numFmt})
		if err != nil {
			return fmt.Errorf("create number style: %w", err)
		}
		top := fmt.Sprintf("%s2", colName)
		bottom := fmt.Sprintf("%s%d", colName, len(r.Rows)+1)
		if err := f.SetCellStyle(sheet, top, bottom, numStyle); err != nil {
			return fmt.Errorf("format column %s: %w", colName, err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
		Selection: []excelize.Selection{
			{SQRef: "A2", ActiveCell: "A2", Pane: "bottomLeft"},
		},
	})
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
