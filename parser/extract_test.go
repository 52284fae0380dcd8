package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aluiziolira/go-scrape-circulars/models"
)

// lineWords lays out tokens on one line, left to right.
func lineWords(top float64, tokens ...string) []models.Word {
	words := make([]models.Word, len(tokens))
	x := 40.0
	for i, tok := range tokens {
		w := float64(len(tok)) * 5
		words[i] = models.Word{Text: tok, X0: x, X1: x + w, Top: top, Size: 10}
		x += w + 3
	}
	return words
}

func TestTableStrategy(t *testing.T) {
	doc := &models.Document{Pages: []models.Page{{
		Number: 1,
		Tables: []models.Table{{
			{"Sl", "Description", "Code", "Price"},
			{"1", "Aluminium Ingot", "IE07", "268,250"},
		}},
	}}}

	rec, err := Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "ALUMINIUM INGOT", rec.Description)
	assert.Equal(t, "IE07", rec.ProductCode)
	assert.Equal(t, "268250", rec.RawPrice)
	assert.Equal(t, "table", rec.Strategy)
	assert.Equal(t, 1, rec.Page)
}

func TestTableStrategyCellRules(t *testing.T) {
	tests := []struct {
		name      string
		row       []string
		wantDesc  string
		wantPrice string
		wantOK    bool
	}{
		{
			name:      "description skips numeric cells",
			row:       []string{"ingot", "12", "", "ie07", "268,250"},
			wantDesc:  "INGOT",
			wantPrice: "268250",
			wantOK:    true,
		},
		{
			name:      "default description",
			row:       []string{"3", "IE07", "268250"},
			wantDesc:  DefaultDescription,
			wantPrice: "268250",
			wantOK:    true,
		},
		{
			name:      "price skips cells without digits",
			row:       []string{"Ingot", "IE07", "MT", "Rs 2,68,250/-"},
			wantDesc:  "INGOT",
			wantPrice: "Rs 268250/-",
			wantOK:    true,
		},
		{
			name:   "code must be the whole cell",
			row:    []string{"Ingot", "IE07A", "268250"},
			wantOK: false,
		},
		{
			name:   "no price to the right",
			row:    []string{"Ingot", "268250", "IE07"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &models.Document{Pages: []models.Page{{Number: 1, Tables: []models.Table{{tt.row}}}}}
			rec, ok := TableStrategy(doc)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantDesc, rec.Description)
			assert.Equal(t, tt.wantPrice, rec.RawPrice)
		})
	}
}

func TestTableStrategyFirstMatchWins(t *testing.T) {
	doc := &models.Document{Pages: []models.Page{
		{Number: 1, Tables: []models.Table{{{"Billet", "IB01", "280000"}}}},
		{Number: 2, Tables: []models.Table{
			{{"Ingot", "IE07", "268250"}},
			{{"Ingot", "IE07", "999999"}},
		}},
		{Number: 3, Tables: []models.Table{{{"Ingot", "IE07", "111111"}}}},
	}}

	rec, ok := TableStrategy(doc)
	require.True(t, ok)
	assert.Equal(t, "268250", rec.RawPrice)
	assert.Equal(t, 2, rec.Page)
}

func TestLineStrategy(t *testing.T) {
	words := append(lineWords(100, "Product", "Code", "Price"),
		lineWords(120, "ALUMINIUM", "INGOT", "IE07", "268,250")...)
	doc := &models.Document{Pages: []models.Page{{Number: 1, Words: words}}}

	rec, ok := LineStrategy(doc)
	require.True(t, ok)
	assert.Equal(t, "ALUMINIUM INGOT", rec.Description)
	assert.Equal(t, "268250", rec.RawPrice)
	assert.Equal(t, "line", rec.Strategy)
}

func TestLineStrategyRules(t *testing.T) {
	tests := []struct {
		name      string
		tokens    []string
		wantDesc  string
		wantPrice string
		wantOK    bool
	}{
		{name: "default description", tokens: []string{"IE07", "268250"}, wantDesc: DefaultDescription, wantPrice: "268250", wantOK: true},
		{name: "decimal price", tokens: []string{"Ingot", "ie07", "268250.50"}, wantDesc: "INGOT", wantPrice: "268250.50", wantOK: true},
		{name: "last number wins", tokens: []string{"Ingot", "IE07", "260000", "268250"}, wantDesc: "INGOT", wantPrice: "268250", wantOK: true},
		{name: "code glued to other text", tokens: []string{"Ingot", "XIE07", "268250"}, wantOK: false},
		{name: "price too short", tokens: []string{"Ingot", "IE07", "2682"}, wantOK: false},
		{name: "longer digit run is not truncated", tokens: []string{"Ingot", "IE07", "26825000"}, wantOK: false},
		{name: "grouped price", tokens: []string{"Ingot", "IE07", "2,68,250"}, wantDesc: "INGOT", wantPrice: "268250", wantOK: true},
		{name: "price not at end", tokens: []string{"Ingot", "IE07", "268250", "MT"}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &models.Document{Pages: []models.Page{{Number: 1, Words: lineWords(50, tt.tokens...)}}}
			rec, ok := LineStrategy(doc)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantDesc, rec.Description)
			assert.Equal(t, tt.wantPrice, rec.RawPrice)
		})
	}
}

func TestLineStrategySkipsLineWithoutPrice(t *testing.T) {
	words := append(lineWords(10, "IE07", "see", "annexure"), lineWords(30, "Ingot", "IE07", "268250")...)
	rec, ok := LineStrategy(&models.Document{Pages: []models.Page{{Number: 1, Words: words}}})
	require.True(t, ok)
	assert.Equal(t, "268250", rec.RawPrice)
}

func TestExtractPrefersTablesAcrossAllPages(t *testing.T) {
	doc := &models.Document{Pages: []models.Page{
		{Number: 1, Words: lineWords(20, "Ingot", "IE07", "111111")},
		{Number: 2, Tables: []models.Table{{{"Aluminium Ingot", "IE07", "268,250"}}}},
	}}

	lineCalled := false
	spyLine := func(d *models.Document) (*models.ExtractedRecord, bool) {
		lineCalled = true
		return LineStrategy(d)
	}

	rec, err := Extract(doc, TableStrategy, spyLine)
	require.NoError(t, err)
	assert.Equal(t, "268250", rec.RawPrice)
	assert.Equal(t, 2, rec.Page)
	assert.False(t, lineCalled, "line fallback must not run when a table matched")
}

func TestExtractFallsBackToLines(t *testing.T) {
	doc := &models.Document{Pages: []models.Page{
		{Number: 1, Tables: []models.Table{{{"Billet", "IB01", "280000"}}}},
		{Number: 2, Words: lineWords(20, "Aluminium", "Ingot", "IE07", "268250")},
	}}

	rec, err := Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "line", rec.Strategy)
	assert.Equal(t, 2, rec.Page)
}

func TestExtractNotFound(t *testing.T) {
	doc := &models.Document{Name: "Ingot-05-06-2024.pdf", Pages: []models.Page{
		{Number: 1, Tables: []models.Table{{{"Billet", "IB01", "280000"}}}, Words: lineWords(20, "no", "match")},
	}}

	_, err := Extract(doc)
	var exErr *ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, 1, exErr.Pages)
	assert.Contains(t, err.Error(), "Ingot-05-06-2024.pdf")

	_, err = Extract(nil)
	require.ErrorAs(t, err, &exErr)
}

func TestLinesGroupsByRoundedTop(t *testing.T) {
	words := []models.Word{
		{Text: "IE07", X0: 80, Top: 100.04},
		{Text: "Ingot", X0: 10, Top: 99.96},
		{Text: "header", X0: 10, Top: 50},
	}
	assert.Equal(t, []string{"header", "Ingot IE07"}, Lines(words))
}
