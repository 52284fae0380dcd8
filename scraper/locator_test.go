package scraper

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPageURL = "https://nalco.example/domestic/current-price/"

func parseHTML(t *testing.T, body string) (*goquery.Document, *url.URL) {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	base, err := url.Parse(testPageURL)
	require.NoError(t, err)
	return doc, base
}

func TestLocateTiers(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantURL  string
		wantTier string
	}{
		{
			name:     "strict anchor",
			body:     `<a href="/c/Ingot-05-06-2024.pdf"><img src="x.png"><p> Ingots </p></a>`,
			wantURL:  "https://nalco.example/c/Ingot-05-06-2024.pdf",
			wantTier: TierStrictAnchor,
		},
		{
			name:     "strict anchor with uppercase extension",
			body:     `<a href="files/current.PDF"><span>INGOTS</span></a>`,
			wantURL:  "https://nalco.example/domestic/current-price/files/current.PDF",
			wantTier: TierStrictAnchor,
		},
		{
			name:     "dated filename",
			body:     `<a href="/misc/brochure.pdf">Brochure</a><a href="/c/Ingot-01-07-2024.pdf">Latest</a>`,
			wantURL:  "https://nalco.example/c/Ingot-01-07-2024.pdf",
			wantTier: TierDatedName,
		},
		{
			name:     "loose anchor text",
			body:     `<a href="/c/wire-rod.pdf">Wire Rod</a><a href="/c/price_july.pdf">Aluminium Ingot Price</a>`,
			wantURL:  "https://nalco.example/c/price_july.pdf",
			wantTier: TierAnchorText,
		},
		{
			name:     "label not exact falls to anchor text",
			body:     `<a href="/c/a.pdf"><p>Ingots price</p></a>`,
			wantURL:  "https://nalco.example/c/a.pdf",
			wantTier: TierAnchorText,
		},
		{
			name:     "absolute href kept",
			body:     `<a href="https://cdn.example/Ingot-02-02-2024.pdf">x</a>`,
			wantURL:  "https://cdn.example/Ingot-02-02-2024.pdf",
			wantTier: TierDatedName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, base := parseHTML(t, tt.body)
			ref, ok := Locate(doc, base)
			require.True(t, ok)
			assert.Equal(t, tt.wantURL, ref.URL)
			assert.Equal(t, tt.wantTier, ref.Tier)
		})
	}
}

func TestLocateStrictBeatsDated(t *testing.T) {
	body := `
		<a href="/c/Ingot-01-01-2023.pdf">old circular</a>
		<div><a href="/c/current-ingot.pdf"><p>Ingots</p></a></div>`
	doc, base := parseHTML(t, body)

	ref, ok := Locate(doc, base)
	require.True(t, ok)
	assert.Equal(t, "https://nalco.example/c/current-ingot.pdf", ref.URL)
	assert.Equal(t, TierStrictAnchor, ref.Tier)
}

func TestLocateNeverReturnsSpecDocuments(t *testing.T) {
	body := `
		<a href="/c/Ingot-Spec-01-01-2024.pdf"><p>Ingots</p></a>
		<a href="/c/SPEC/Ingot-01-01-2024.pdf">ingot spec</a>
		<a href="/c/ingot-specification.pdf">Ingot specification</a>`
	doc, base := parseHTML(t, body)

	_, ok := Locate(doc, base)
	assert.False(t, ok)
}

func TestLocateStrictSkipsNonDocumentLinks(t *testing.T) {
	body := `
		<a href="/products/ingots"><p>Ingots</p></a>
		<a href="/c/Ingot-03-03-2024.pdf">March</a>`
	doc, base := parseHTML(t, body)

	ref, ok := Locate(doc, base)
	require.True(t, ok)
	assert.Equal(t, TierDatedName, ref.Tier)
}

func TestLocateNotFound(t *testing.T) {
	tests := map[string]string{
		"empty page":         ``,
		"no links":           `<p>Ingots</p>`,
		"label on non pdf":   `<a href="/c/ingots-price"><p>Ingots price</p></a>`,
		"pdf without ingot":  `<a href="/c/a.pdf"><p>Wire rod price</p></a>`,
		"non pdf dated name": `<a href="/c/Ingot-01-01-2024.doc">Ingot</a>`,
		"loose dated name":   `<a href="/c/Ingot-1-1-2024.pdf">Circular</a>`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			doc, base := parseHTML(t, body)
			_, ok := Locate(doc, base)
			assert.False(t, ok)
		})
	}

	_, ok := Locate(nil, nil)
	assert.False(t, ok)
}

func TestCandidates(t *testing.T) {
	doc, _ := parseHTML(t, `<a href=" /a.pdf ">A</a><a href="/spec.pdf">S</a><a>none</a><a href="/b.html">B</a>`)
	links := Candidates(doc)
	require.Len(t, links, 3)
	assert.Equal(t, "/a.pdf", links[0].Href)
	assert.True(t, links[0].IsPDF)
	assert.False(t, links[1].IsPDF)
	assert.False(t, links[2].IsPDF)
}
