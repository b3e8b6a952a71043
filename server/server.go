// Package server exposes on-demand crawls over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"financescrapper/browser"
	"financescrapper/cache"
	"financescrapper/crawler"
	"financescrapper/finance"
	"financescrapper/normalize"
	"financescrapper/record"
	"financescrapper/sink"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.^=-]{1,15}$`)

// Crawler produces one record per ticker.
type Crawler interface {
	CrawlTicker(ctx context.Context, ticker string) (record.Record, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves crawl results. Crawls are serialized so only one browser
// session is open at a time.
type Server struct {
	crawler Crawler
	sink    sink.Sink
	store   cache.Store
	pinger  Pinger
	ttl     time.Duration
	logger  *slog.Logger

	mu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithSink stores every fresh record.
func WithSink(s sink.Sink) Option {
	return func(srv *Server) { srv.sink = s }
}

// WithCache memoizes records in store for ttl.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(srv *Server) {
		srv.store = store
		srv.ttl = ttl
	}
}

// WithHealthCheck adds p to the health endpoint.
func WithHealthCheck(p Pinger) Option {
	return func(srv *Server) { srv.pinger = p }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) {
		if logger != nil {
			srv.logger = logger
		}
	}
}

// New creates a Server.
func New(c Crawler, opts ...Option) *Server {
	s := &Server{crawler: c, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed and wrapped handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/records/{ticker}", s.handleRecord).Methods(http.MethodGet)

	var h http.Handler = router
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{s.logger}))(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)
	return compress(h)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.logger.Info("request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"size", p.Size,
		"elapsed", time.Since(p.TimeStamp),
	)
}

type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("panic recovered", "error", fmt.Sprint(v...))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["cache"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, status)
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(mux.Vars(r)["ticker"])
	if !tickerPattern.MatchString(ticker) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid ticker", Ticker: ticker})
		return
	}

	crawl := func(ctx context.Context) (record.Record, error) {
		return s.crawl(ctx, ticker)
	}

	var (
		rec record.Record
		err error
	)
	if s.store != nil && r.URL.Query().Get("refresh") != "true" {
		rec, err = cache.Memoize(r.Context(), s.store, "records:"+ticker, s.ttl, crawl)
	} else {
		rec, err = crawl(r.Context())
	}
	if err != nil {
		code, body := errorResponse(ticker, err)
		s.logger.Warn("crawl failed", "ticker", ticker, "status", code, "error", err)
		writeJSON(w, code, body)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) crawl(ctx context.Context, ticker string) (record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.crawler.CrawlTicker(ctx, ticker)
	if err != nil {
		return rec, err
	}
	if s.sink != nil {
		if err := s.sink.Append(ctx, rec); err != nil {
			s.logger.Warn("failed to store record", "ticker", ticker, "error", err)
		}
	}
	return rec, nil
}

type errorBody struct {
	Error  string `json:"error"`
	Ticker string `json:"ticker,omitempty"`
	Stage  string `json:"stage,omitempty"`
}

func errorResponse(ticker string, err error) (int, errorBody) {
	body := errorBody{Error: err.Error(), Ticker: ticker}

	var se *crawler.StageError
	if errors.As(err, &se) {
		body.Stage = se.Stage.String()
	}

	var (
		timeout browser.TimeoutError
		miss    finance.SelectorMissError
		parse   normalize.ParseError
		divZero normalize.DivisionByZeroError
	)
	switch {
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, body
	case errors.As(err, &miss), errors.As(err, &parse), errors.As(err, &divZero):
		return http.StatusBadGateway, body
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, body
	default:
		return http.StatusInternalServerError, body
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	jsonData, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		http.Error(w, "Error marshaling to JSON", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(jsonData)
}
