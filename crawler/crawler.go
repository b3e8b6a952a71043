// Package crawler drives one browser session per ticker through every
// extraction stage and hands completed records to a sink.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"financescrapper/browser"
	"financescrapper/finance"
	"financescrapper/record"
	"financescrapper/sink"
)

// DefaultBaseURL is the site the navigation map is built from.
const DefaultBaseURL = "https://finance.yahoo.com"

// StageError records the ticker and stage at which a crawl failed.
type StageError struct {
	Ticker string
	Stage  record.Stage
	Err    error
}

// Error returns the message for the StageError.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s at %s: %v", e.Ticker, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Orchestrator runs crawls. It is not safe for concurrent use: tickers are
// processed strictly one after another.
type Orchestrator struct {
	launcher browser.Launcher
	registry *finance.Registry
	sink     sink.Sink

	logger         *slog.Logger
	baseURL        string
	waitTimeout    time.Duration
	diagnosticsDir string
	screenshots    bool
	snapshots      bool
	now            func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBaseURL sets the site root used for the navigation map.
func WithBaseURL(u string) Option {
	return func(o *Orchestrator) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithWaitTimeout bounds the wait for each page's ready element.
func WithWaitTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.waitTimeout = d
		}
	}
}

// WithDiagnostics stores a screenshot of the failing page and, when
// snapshots is set, a compressed copy of every page visited under dir.
func WithDiagnostics(dir string, screenshots, snapshots bool) Option {
	return func(o *Orchestrator) {
		o.diagnosticsDir = dir
		o.screenshots = screenshots
		o.snapshots = snapshots
	}
}

// WithClock sets the time source used for artifact names.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an Orchestrator.
func New(launcher browser.Launcher, registry *finance.Registry, s sink.Sink, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		launcher:    launcher,
		registry:    registry,
		sink:        s,
		logger:      slog.Default(),
		baseURL:     DefaultBaseURL,
		waitTimeout: 20 * time.Second,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CrawlTicker visits every stage for ticker in a fresh session and returns
// the completed record. The session is closed before CrawlTicker returns.
func (o *Orchestrator) CrawlTicker(ctx context.Context, ticker string) (rec record.Record, err error) {
	session, err := o.launcher.Open(ctx)
	if err != nil {
		return record.Record{}, &StageError{Ticker: ticker, Stage: record.StageSummary, Err: fmt.Errorf("open session: %w", err)}
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			o.logger.Warn("failed to close browser session", "ticker", ticker, "error", cerr)
		}
	}()

	nav := record.NewNavigationMap(o.baseURL, ticker)
	p := record.NewPartial(ticker, nav)

	for !p.Complete() {
		stage := p.Stage
		start := o.now()

		next, err := o.runStage(ctx, session, ticker, p)
		if err != nil {
			o.captureFailure(ctx, session, ticker, stage)
			return record.Record{}, &StageError{Ticker: ticker, Stage: stage, Err: err}
		}
		if next.Stage <= stage {
			return record.Record{}, &StageError{Ticker: ticker, Stage: stage, Err: errors.New("stage did not advance")}
		}

		o.logger.Debug("stage complete", "ticker", ticker, "stage", stage.String(), "elapsed", o.now().Sub(start))
		p = record.WithStage(next, nav)
	}

	return p.Record, nil
}

func (o *Orchestrator) runStage(ctx context.Context, session browser.Session, ticker string, p record.Partial) (record.Partial, error) {
	extractor, ok := o.registry.Lookup(p.Stage)
	if !ok {
		return p, fmt.Errorf("no extractor registered for %s", p.Stage)
	}
	url, ok := p.Nav.URL(p.Stage)
	if !ok {
		return p, fmt.Errorf("no url for %s", p.Stage)
	}

	if err := session.Navigate(ctx, url); err != nil {
		return p, err
	}
	if err := session.WaitForElement(ctx, extractor.Ready(), o.waitTimeout); err != nil {
		return p, err
	}

	page, err := finance.LoadPage(ctx, session, url)
	if err != nil {
		return p, err
	}
	if o.snapshots && o.diagnosticsDir != "" {
		if path, err := browser.SaveSnapshot(o.diagnosticsDir, ticker+"_"+p.Stage.String(), page.HTML(), o.now()); err != nil {
			o.logger.Warn("failed to save page snapshot", "ticker", ticker, "stage", p.Stage.String(), "error", err)
		} else {
			o.logger.Debug("saved page snapshot", "path", path)
		}
	}

	return extractor.Extract(ctx, page, p)
}

func (o *Orchestrator) captureFailure(ctx context.Context, session browser.Session, ticker string, stage record.Stage) {
	if !o.screenshots || o.diagnosticsDir == "" || ctx.Err() != nil {
		return
	}

	png, err := session.Screenshot(ctx)
	if err != nil {
		o.logger.Warn("failed to capture screenshot", "ticker", ticker, "stage", stage.String(), "error", err)
		return
	}
	path, err := browser.SaveScreenshot(o.diagnosticsDir, png, o.now())
	if err != nil {
		o.logger.Warn("failed to save screenshot", "ticker", ticker, "error", err)
		return
	}
	o.logger.Info("saved failure screenshot", "ticker", ticker, "stage", stage.String(), "path", path)
}

// Failure is one ticker that produced no record.
type Failure struct {
	Ticker string
	Err    error
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Succeeded []string
	Failed    []Failure
	Skipped   []string
}

// Run crawls tickers in order. A failing ticker is logged and skipped; the
// run only stops early when ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context, tickers []string) Summary {
	summary := Summary{RunID: uuid.NewString()}
	logger := o.logger.With("run_id", summary.RunID)
	logger.Info("starting crawl", "tickers", len(tickers))

	for i, ticker := range tickers {
		if ctx.Err() != nil {
			summary.Skipped = append(summary.Skipped, tickers[i:]...)
			logger.Warn("crawl cancelled", "skipped", len(tickers)-i)
			break
		}

		rec, err := o.CrawlTicker(ctx, ticker)
		if err != nil {
			logger.Error("ticker failed", "ticker", ticker, "error", err)
			summary.Failed = append(summary.Failed, Failure{Ticker: ticker, Err: err})
			continue
		}

		if err := o.sink.Append(ctx, rec); err != nil {
			logger.Error("failed to store record", "ticker", ticker, "error", err)
			summary.Failed = append(summary.Failed, Failure{Ticker: ticker, Err: fmt.Errorf("sink: %w", err)})
			continue
		}

		logger.Info("ticker complete", "ticker", ticker)
		summary.Succeeded = append(summary.Succeeded, ticker)
	}

	logger.Info("crawl finished",
		"succeeded", len(summary.Succeeded),
		"failed", len(summary.Failed),
		"skipped", len(summary.Skipped),
	)
	return summary
}
