package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-scrape-circulars/config"
)

// Page is a fetched price-circular page.
type Page struct {
	URL *url.URL
	Doc *goquery.Document
}

// Scraper wraps the colly collector used to fetch the circular page.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	Metrics   *Metrics
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config, metrics *Metrics) (*Scraper, error) {
	parsed, err := url.Parse(cfg.PageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("page url must include a host")
	}

	// No AllowedDomains: the site redirects between apex and www hosts.
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Scraper{
		cfg:       cfg,
		collector: collector,
		Metrics:   metrics,
	}, nil
}

// FetchPage downloads and parses the configured page. Any non-2xx status is
// returned as a classified transport error.
func (s *Scraper) FetchPage(ctx context.Context) (*Page, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, classifyError(err, 0, s.cfg.PageURL)
	}

	c := s.collector.Clone()

	var (
		page     *Page
		parseErr error
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		s.Metrics.IncRequest("page")
		slog.Debug("fetching page", slog.String("url", r.URL.String()))
	})

	c.OnResponse(func(r *colly.Response) {
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			s.Metrics.ObserveDuration("page", time.Since(start))
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			parseErr = fmt.Errorf("parse page html: %w", err)
			return
		}
		page = &Page{URL: r.Request.URL, Doc: doc}
	})

	c.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = classifyError(err, statusCode, s.cfg.PageURL)
		slog.Error("page request error",
			slog.String("url", s.cfg.PageURL),
			slog.Int("status", statusCode),
			slog.String("category", ErrorTypeLabel(fetchErr)),
			slog.Any("error", err),
		)
	})

	visitErr := c.Visit(s.cfg.PageURL)
	switch {
	case fetchErr != nil:
		return nil, fetchErr
	case visitErr != nil:
		return nil, classifyError(visitErr, 0, s.cfg.PageURL)
	case parseErr != nil:
		return nil, parseErr
	case page == nil:
		return nil, fmt.Errorf("no response received from %s", s.cfg.PageURL)
	}
	return page, nil
}
