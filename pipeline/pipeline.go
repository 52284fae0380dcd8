package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aluiziolira/go-scrape-circulars/config"
	"github.com/aluiziolira/go-scrape-circulars/models"
	"github.com/aluiziolira/go-scrape-circulars/parser"
	"github.com/aluiziolira/go-scrape-circulars/scraper"
)

var (
	// ErrNoDocument is returned when the page carries no ingot circular link.
	ErrNoDocument = errors.New("pipeline: no ingots document link found")
)

// Stages reported by StageError.
const (
	StageFetchPage = "fetch_page"
	StageFetch     = "fetch"
	StageDecode    = "decode"
	StageExtract   = "extract"
	StageNormalize = "normalize"
	StageAppend    = "append"
	StageLog       = "log"
)

// Audit log messages.
const (
	MsgNoDocument = "No Ingots PDF link found on the page."
	MsgUnchanged  = "No change in PDF. Skipping download & Excel update."
	MsgUpdated    = "New circular processed."
)

// Timestamp layouts for the audit log.
const (
	RunUTCLayout   = "2006-01-02 15:04:05 UTC"
	RunLocalLayout = "2006-01-02 15:04:05 MST"
)

// StageError wraps a fatal error with the stage it happened in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// PageFetcher fetches and parses the price-circular page.
type PageFetcher interface {
	FetchPage(ctx context.Context) (*scraper.Page, error)
}

// DocumentFetcher downloads a circular to local storage.
type DocumentFetcher interface {
	Download(ctx context.Context, url string) (*models.Download, error)
}

// Decoder turns a downloaded file into pages of tables and words.
type Decoder func(path string) (*models.Document, error)

// Options tunes a Pipeline. Zero values fall back to sensible defaults.
type Options struct {
	Location     *time.Location
	MarkerPolicy string
	Strategies   []parser.Strategy
	Metrics      *scraper.Metrics
	Now          func() time.Time
	Logger       *slog.Logger
}

// Outcome describes one run. Marker is the last-processed URL the caller
// should persist, and is valid even when Run returns an error.
type Outcome struct {
	RunID  string
	Status models.RunStatus
	Marker string
	Chosen models.ChosenDocumentRef
	Entry  models.RunLogEntry
	Row    *models.LedgerRow
}

// Pipeline sequences locate, gate, fetch, extract, normalize and append for a
// single invocation.
type Pipeline struct {
	pages  PageFetcher
	docs   DocumentFetcher
	decode Decoder
	ledger *Ledger
	runLog *RunLog
	opts   Options
}

// NewPipeline wires the collaborators of a run.
func NewPipeline(pages PageFetcher, docs DocumentFetcher, decode Decoder, ledger *Ledger, runLog *RunLog, opts Options) *Pipeline {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MarkerPolicy == "" {
		opts.MarkerPolicy = config.MarkerOnFetch
	}
	if len(opts.Strategies) == 0 {
		opts.Strategies = parser.DefaultStrategies
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		pages:  pages,
		docs:   docs,
		decode: decode,
		ledger: ledger,
		runLog: runLog,
		opts:   opts,
	}
}

// OpenStores builds the ledger and run log described by cfg. When a CSV
// mirror is configured the ledger is also written there; mirror failures
// are logged to logger and counted on metrics.
func OpenStores(cfg *config.Config, logger *slog.Logger, metrics *scraper.Metrics) (*Ledger, *RunLog) {
	var ledgerStore TableStore = NewXLSXStore(cfg.LedgerPath(), LedgerLayout)
	if cfg.CSVMirror != "" {
		dual := NewDualStore(ledgerStore, NewCSVStore(cfg.CSVMirror))
		dual.Logger = logger
		dual.Metrics = metrics
		ledgerStore = dual
	}
	return NewLedger(ledgerStore), NewRunLog(NewXLSXStore(cfg.RunLogPath(), RunLogLayout))
}

// RunWithMarker reads the last processed URL from m, runs the pipeline and
// stores the advanced marker, also after a failed run.
func (p *Pipeline) RunWithMarker(ctx context.Context, m *Marker) (*Outcome, error) {
	last, err := m.Read()
	if err != nil {
		return nil, err
	}

	out, runErr := p.Run(ctx, last)
	if out != nil && out.Marker != last {
		if err := m.Write(out.Marker); err != nil {
			return out, errors.Join(runErr, err)
		}
	}
	return out, runErr
}

// Run executes one invocation against the last processed URL.
//
// A missing document link is recorded as SKIPPED and returned as
// ErrNoDocument. An unchanged link is recorded as SKIPPED with a nil error.
// Fatal errors are returned as *StageError; once a link was chosen they are
// also recorded as FAILED.
func (p *Pipeline) Run(ctx context.Context, last string) (*Outcome, error) {
	now := p.opts.Now()
	out := &Outcome{RunID: uuid.NewString(), Marker: last}
	log := p.opts.Logger.With(slog.String("run_id", out.RunID))
	entry := models.RunLogEntry{
		RunUTC:   now.UTC().Format(RunUTCLayout),
		RunLocal: now.In(p.opts.Location).Format(RunLocalLayout),
	}

	page, err := p.pages.FetchPage(ctx)
	if err != nil {
		return p.fail(log, out, entry, StageFetchPage, err)
	}

	ref, ok := scraper.Locate(page.Doc, page.URL)
	if !ok {
		log.Warn("no document link on page", slog.String("url", page.URL.String()))
		entry.Status = models.RunSkipped
		entry.Message = MsgNoDocument
		if err := p.finish(out, entry); err != nil {
			return p.fail(log, out, entry, StageLog, err)
		}
		return out, ErrNoDocument
	}
	out.Chosen = ref
	entry.ChosenURL = ref.URL
	log.Info("document located", slog.String("url", ref.URL), slog.String("tier", ref.Tier))

	if ref.URL == last {
		log.Info("document unchanged, skipping", slog.String("url", ref.URL))
		entry.Status = models.RunSkipped
		entry.Message = MsgUnchanged
		if err := p.finish(out, entry); err != nil {
			return p.fail(log, out, entry, StageLog, err)
		}
		return out, nil
	}

	dl, err := p.docs.Download(ctx, ref.URL)
	if err != nil {
		return p.fail(log, out, entry, StageFetch, err)
	}
	entry.SavedDocument = dl.Name
	if p.opts.MarkerPolicy == config.MarkerOnFetch {
		out.Marker = ref.URL
	}
	log.Info("document saved", slog.String("document", dl.Path), slog.Int64("bytes", dl.Bytes))

	doc, err := p.decode(dl.Path)
	if err != nil {
		return p.fail(log, out, entry, StageDecode, err)
	}
	rec, err := parser.Extract(doc, p.opts.Strategies...)
	if err != nil {
		return p.fail(log, out, entry, StageExtract, err)
	}
	log.Debug("record extracted",
		slog.String("strategy", rec.Strategy),
		slog.Int("page", rec.Page),
		slog.String("raw_price", rec.RawPrice),
	)

	price, err := parser.NormalizePrice(rec.RawPrice)
	if err != nil {
		return p.fail(log, out, entry, StageNormalize, err)
	}

	row := models.LedgerRow{
		Description:  rec.Description,
		ProductCode:  strings.ToUpper(rec.ProductCode),
		BasicPrice:   price,
		CircularDate: parser.CircularDate(dl.Name, now.In(p.opts.Location)),
		CircularLink: ref.URL,
	}
	total, err := p.ledger.Append(&row)
	if err != nil {
		return p.fail(log, out, entry, StageAppend, err)
	}
	out.Row = &row
	out.Marker = ref.URL
	p.opts.Metrics.SetLedgerRows(total, now)
	log.Info("ledger updated",
		slog.String("price", parser.FormatPrice(price)),
		slog.String("date", row.CircularDate),
		slog.Int("rows", total),
	)

	entry.Status = models.RunUpdated
	entry.Message = MsgUpdated
	entry.RowsAppended = 1
	entry.TotalRowsAfter = &total
	if err := p.finish(out, entry); err != nil {
		return p.fail(log, out, entry, StageLog, err)
	}
	return out, nil
}

// finish records a non-fatal outcome.
func (p *Pipeline) finish(out *Outcome, entry models.RunLogEntry) error {
	out.Status = entry.Status
	out.Entry = entry
	if err := p.runLog.Append(entry); err != nil {
		return err
	}
	p.opts.Metrics.IncRun(strings.ToLower(string(entry.Status)))
	return nil
}

// fail wraps err with its stage and, when a link was already chosen, writes a
// best-effort FAILED entry.
func (p *Pipeline) fail(log *slog.Logger, out *Outcome, entry models.RunLogEntry, stage string, err error) (*Outcome, error) {
	serr := &StageError{Stage: stage, Err: err}
	out.Status = models.RunFailed
	p.opts.Metrics.IncRun(strings.ToLower(string(models.RunFailed)))
	p.opts.Metrics.IncError(errorLabel(serr))

	log.Error("run failed",
		slog.String("stage", stage),
		slog.String("url", entry.ChosenURL),
		slog.Any("error", err),
	)

	if entry.ChosenURL == "" || stage == StageLog {
		return out, serr
	}

	entry.Status = models.RunFailed
	entry.Message = serr.Error()
	entry.RowsAppended = 0
	entry.TotalRowsAfter = nil
	out.Entry = entry
	if lerr := p.runLog.Append(entry); lerr != nil {
		log.Error("audit entry not written", slog.Any("error", lerr))
	}
	return out, serr
}

// errorLabel prefers the transport classification and falls back to the stage.
func errorLabel(err *StageError) string {
	if label := scraper.ErrorTypeLabel(err.Err); label != "other" {
		return label
	}
	var extractErr *parser.ExtractionError
	if errors.As(err.Err, &extractErr) {
		return "extraction"
	}
	var normErr *parser.NormalizationError
	if errors.As(err.Err, &normErr) {
		return "normalization"
	}
	return err.Stage
}
