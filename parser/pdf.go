package parser

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/aluiziolira/go-scrape-circulars/models"
)

const (
	defaultPageHeight = 792.0 // US Letter, used when no MediaBox is found
	defaultFontSize   = 10.0
	// gaps are measured in multiples of the font size
	wordGapFactor = 0.25
	cellGapFactor = 1.0
)

// DecodePDF reads a circular into positioned words per page and rebuilds
// tables from the word layout.
func DecodePDF(path string) (doc *models.Document, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %q: %w", path, err)
	}
	defer f.Close()

	// the pdf package panics on malformed content streams
	defer func() {
		if rec := recover(); rec != nil {
			doc = nil
			err = fmt.Errorf("decode pdf %q: %v", path, rec)
		}
	}()

	doc = &models.Document{Name: filepath.Base(path)}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		words := WordsFromGlyphs(p.Content().Text, pageHeight(p))
		doc.Pages = append(doc.Pages, models.Page{
			Number: i,
			Words:  words,
			Tables: TablesFromWords(words),
		})
	}
	return doc, nil
}

func pageHeight(p pdf.Page) float64 {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
	}
	return defaultPageHeight
}

// WordsFromGlyphs merges glyph runs that sit on the same baseline and touch
// horizontally into words. Whitespace glyphs always end a word.
func WordsFromGlyphs(glyphs []pdf.Text, height float64) []models.Word {
	sorted := make([]pdf.Text, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		yi, yj := roundTenth(sorted[i].Y), roundTenth(sorted[j].Y)
		if yi != yj {
			return yi > yj
		}
		return sorted[i].X < sorted[j].X
	})

	var (
		words   []models.Word
		cur     models.Word
		curY    float64
		pending bool
	)
	flush := func() {
		if pending && cur.Text != "" {
			words = append(words, cur)
		}
		cur = models.Word{}
		pending = false
	}

	for _, g := range splitGlyphs(sorted) {
		if strings.TrimSpace(g.S) == "" {
			flush()
			continue
		}
		size := g.FontSize
		if size <= 0 {
			size = defaultFontSize
		}
		sameLine := pending && math.Abs(g.Y-curY) < size*0.5
		gap := g.X - cur.X1
		if sameLine && gap <= size*wordGapFactor && gap > -size {
			cur.Text += g.S
			cur.X1 = g.X + g.W
			continue
		}
		flush()
		cur = models.Word{
			Text: g.S,
			X0:   g.X,
			X1:   g.X + g.W,
			Top:  height - (g.Y + size),
			Size: size,
		}
		curY = g.Y
		pending = true
	}
	flush()
	return words
}

// splitGlyphs breaks text runs containing inner spaces into one run per
// field, spreading the run width evenly over its characters.
func splitGlyphs(glyphs []pdf.Text) []pdf.Text {
	out := make([]pdf.Text, 0, len(glyphs))
	for _, g := range glyphs {
		runes := []rune(g.S)
		if len(runes) <= 1 || !strings.ContainsFunc(g.S, unicode.IsSpace) {
			out = append(out, g)
			continue
		}
		charW := g.W / float64(len(runes))
		start := -1
		for i := 0; i <= len(runes); i++ {
			if i < len(runes) && !unicode.IsSpace(runes[i]) {
				if start < 0 {
					start = i
				}
				continue
			}
			if start >= 0 {
				part := g
				part.S = string(runes[start:i])
				part.X = g.X + float64(start)*charW
				part.W = float64(i-start) * charW
				out = append(out, part)
				start = -1
			}
			if i < len(runes) {
				space := g
				space.S = " "
				out = append(out, space)
			}
		}
	}
	return out
}

// TablesFromWords rebuilds tables from lines that split into at least two
// cells. Consecutive multi-cell lines form one table.
func TablesFromWords(words []models.Word) []models.Table {
	var (
		tables  []models.Table
		current models.Table
	)
	for _, line := range wordLines(words) {
		cells := lineCells(line)
		if len(cells) < 2 {
			if len(current) > 0 {
				tables = append(tables, current)
				current = nil
			}
			continue
		}
		current = append(current, cells)
	}
	if len(current) > 0 {
		tables = append(tables, current)
	}
	return tables
}

func wordLines(words []models.Word) [][]models.Word {
	groups := make(map[float64][]models.Word)
	var keys []float64
	for _, w := range words {
		key := roundTenth(w.Top)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], w)
	}
	sort.Float64s(keys)

	lines := make([][]models.Word, 0, len(keys))
	for _, key := range keys {
		line := groups[key]
		sort.SliceStable(line, func(i, j int) bool { return line[i].X0 < line[j].X0 })
		lines = append(lines, line)
	}
	return lines
}

func lineCells(line []models.Word) []string {
	var cells []string
	var cell []string
	for i, w := range line {
		if i > 0 {
			prev := line[i-1]
			size := math.Max(prev.Size, w.Size)
			if size <= 0 {
				size = defaultFontSize
			}
			if w.X0-prev.X1 > size*cellGapFactor {
				cells = append(cells, strings.Join(cell, " "))
				cell = nil
			}
		}
		cell = append(cell, w.Text)
	}
	if len(cell) > 0 {
		cells = append(cells, strings.Join(cell, " "))
	}
	return cells
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
