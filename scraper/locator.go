package scraper

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-circulars/models"
	"github.com/aluiziolira/go-scrape-circulars/parser"
)

// Locator tiers, in priority order.
const (
	TierStrictAnchor = "strict_anchor"
	TierDatedName    = "dated_filename"
	TierAnchorText   = "anchor_text"
)

const (
	ingotsLabel  = "ingots"
	ingotKeyword = "ingot"
	excludeToken = "spec"
	documentExt  = ".pdf"
)

// Locate picks the current ingot circular from a parsed page. The first
// tier that yields a link wins; the returned URL is absolute.
func Locate(doc *goquery.Document, base *url.URL) (models.ChosenDocumentRef, bool) {
	if doc == nil {
		return models.ChosenDocumentRef{}, false
	}

	// element labelled exactly "Ingots" inside a link
	var chosen models.ChosenDocumentRef
	found := false
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if normalize(s.Text()) != ingotsLabel {
			return true
		}
		a := s.Closest("a[href]")
		if a.Length() == 0 {
			return true
		}
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if !isDocumentHref(href) {
			return true
		}
		abs, ok := resolve(base, href)
		if !ok {
			return true
		}
		chosen = models.ChosenDocumentRef{URL: abs, Tier: TierStrictAnchor}
		found = true
		return false
	})
	if found {
		return chosen, true
	}

	candidates := Candidates(doc)

	for _, c := range candidates {
		if !c.IsPDF || !parser.DatedFilenameRe.MatchString(path.Base(c.Href)) {
			continue
		}
		if abs, ok := resolve(base, c.Href); ok {
			return models.ChosenDocumentRef{URL: abs, Tier: TierDatedName}, true
		}
	}

	for _, c := range candidates {
		if !c.IsPDF || !strings.Contains(normalize(c.AnchorText), ingotKeyword) {
			continue
		}
		if abs, ok := resolve(base, c.Href); ok {
			return models.ChosenDocumentRef{URL: abs, Tier: TierAnchorText}, true
		}
	}

	return models.ChosenDocumentRef{}, false
}

// Candidates lists every link on the page in document order. IsPDF is set
// for document links that are not specification sheets.
func Candidates(doc *goquery.Document) []models.CandidateLink {
	var links []models.CandidateLink
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		links = append(links, models.CandidateLink{
			Href:       href,
			AnchorText: s.Text(),
			IsPDF:      isDocumentHref(href),
		})
	})
	return links
}

func isDocumentHref(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasSuffix(lower, documentExt) && !strings.Contains(lower, excludeToken)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func resolve(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base == nil {
		return ref.String(), ref.IsAbs()
	}
	return base.ResolveReference(ref).String(), true
}
