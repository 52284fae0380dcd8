package scraper

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/aluiziolira/go-scrape-circulars/config"
	"github.com/aluiziolira/go-scrape-circulars/models"
)

// DocumentContentType is the MIME type a circular download must declare.
const DocumentContentType = "application/pdf"

// Downloader streams circular documents to disk.
type Downloader struct {
	cfg     *config.Config
	client  *resty.Client
	Metrics *Metrics
	now     func() time.Time
}

// NewDownloader builds a resty client carrying the browser-like headers the
// publisher expects.
func NewDownloader(cfg *config.Config, metrics *Metrics) *Downloader {
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetHeaders(map[string]string{
		"User-Agent":      cfg.UserAgent,
		"Referer":         cfg.PageURL,
		"Accept":          "application/pdf,*/*;q=0.9",
		"Accept-Language": "en-US,en;q=0.9",
	})

	return &Downloader{
		cfg:     cfg,
		client:  client,
		Metrics: metrics,
		now:     time.Now,
	}
}

// Download fetches rawURL into the document directory. The response must
// declare a PDF content type; anything else is an ErrContentType.
func (d *Downloader) Download(ctx context.Context, rawURL string) (*models.Download, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	d.Metrics.IncRequest("document")
	resp, err := d.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, classifyError(err, 0, rawURL)
	}
	body := resp.RawBody()
	defer body.Close()

	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, classifyError(nil, code, rawURL)
	}

	ctype := strings.ToLower(resp.Header().Get("Content-Type"))
	if !strings.Contains(ctype, DocumentContentType) {
		return nil, ErrContentType{ContentType: ctype, URL: rawURL}
	}

	finalURL := rawURL
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		finalURL = raw.Request.URL.String()
	}
	name := documentName(resp.Header().Get("Content-Disposition"), finalURL, d.now())

	dest := filepath.Join(d.cfg.DocumentDir, name)
	written, err := writeFile(dest, body)
	if err != nil {
		return nil, classifyError(err, 0, rawURL)
	}
	d.Metrics.ObserveDuration("document", time.Since(start))

	slog.Debug("document saved",
		slog.String("url", finalURL),
		slog.String("path", dest),
		slog.Int64("bytes", written),
	)

	return &models.Download{
		URL:         rawURL,
		FinalURL:    finalURL,
		Path:        dest,
		Name:        name,
		ContentType: ctype,
		Bytes:       written,
	}, nil
}

// documentName prefers the Content-Disposition filename, then the last path
// segment of the final URL, then a timestamped fallback.
func documentName(disposition, finalURL string, now time.Time) string {
	if name := dispositionFilename(disposition); name != "" {
		return name
	}
	if u, err := url.Parse(finalURL); err == nil {
		if name := safeName(path.Base(u.Path)); name != "" {
			return name
		}
	}
	return fmt.Sprintf("nalco_%d.pdf", now.Unix())
}

func dispositionFilename(disposition string) string {
	if !strings.Contains(disposition, "filename=") {
		return ""
	}
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := safeName(params["filename"]); name != "" {
			return name
		}
	}
	raw := strings.SplitN(disposition, "filename=", 2)[1]
	return safeName(strings.Trim(raw, "\"; "))
}

func safeName(name string) string {
	name = filepath.Base(strings.TrimSpace(strings.ReplaceAll(name, "\\", "/")))
	switch name {
	case "", ".", "/", "..":
		return ""
	}
	return name
}

func writeFile(dest string, r io.Reader) (int64, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriterSize(tmp, 64*1024)
	written, err := io.Copy(w, r)
	if err == nil {
		err = w.Flush()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("write document %q: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("move document into place: %w", err)
	}
	return written, nil
}
