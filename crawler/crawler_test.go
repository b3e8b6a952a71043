package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"financescrapper/browser"
	"financescrapper/finance"
	"financescrapper/normalize"
	"financescrapper/record"
	"financescrapper/sink"
)

const baseURL = "https://finance.example.com"

// pagePaths maps a navigation path fragment to the fixture served for it.
var pagePaths = []struct {
	fragment string
	fixture  string
}{
	{fragment: "/key-statistics", fixture: "statistics.html"},
	{fragment: "/profile", fixture: "profile.html"},
	{fragment: "/holders", fixture: "holders.html"},
	{fragment: "/financials", fixture: "income_quarterly.html"},
	{fragment: "/balance-sheet", fixture: "balance_sheet_quarterly.html"},
	{fragment: "/cash-flow", fixture: "cash_flow.html"},
}

// fakeSite serves the finance fixtures for any ticker and lets a test break
// individual pages.
type fakeSite struct {
	t        *testing.T
	waitErr  func(url string) error
	override func(url string) (string, bool)

	mu       sync.Mutex
	sessions []*fakeSession
}

func (s *fakeSite) open(context.Context) (browser.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &fakeSession{site: s}
	s.sessions = append(s.sessions, sess)
	return sess, nil
}

// togglePage is a statement page before its quarterly columns are shown.
const togglePage = `<html><body><button><div><span>Quarterly</span></div></button></body></html>`

func isStatement(url string) bool {
	return strings.Contains(url, "/financials") || strings.Contains(url, "/balance-sheet")
}

func (s *fakeSite) html(url string, toggled bool) string {
	s.t.Helper()
	if isStatement(url) && !toggled {
		return togglePage
	}
	if s.override != nil {
		if html, ok := s.override(url); ok {
			return html
		}
	}
	name := "summary.html"
	for _, p := range pagePaths {
		if strings.Contains(url, p.fragment) {
			name = p.fixture
			break
		}
	}
	data, err := os.ReadFile(filepath.Join("..", "finance", "testdata", name))
	if err != nil {
		s.t.Fatalf("read fixture %s: %v", name, err)
	}
	return string(data)
}

type fakeSession struct {
	site    *fakeSite
	current string
	toggled bool
	visited []string
	closes  int
}

func (f *fakeSession) Navigate(_ context.Context, url string) error {
	f.current = url
	f.toggled = false
	f.visited = append(f.visited, url)
	return nil
}

func (f *fakeSession) WaitForElement(_ context.Context, loc browser.Locator, timeout time.Duration) error {
	if f.site.waitErr != nil {
		return f.site.waitErr(f.current)
	}
	return nil
}

func (f *fakeSession) Click(context.Context, browser.Locator) error {
	f.toggled = true
	return nil
}

func (f *fakeSession) ReadText(context.Context, browser.Locator) (string, bool, error) {
	return "27.55", true, nil
}

func (f *fakeSession) ReadAttribute(context.Context, browser.Locator, string) (string, bool, error) {
	return "", false, nil
}

func (f *fakeSession) OuterHTML(context.Context) (string, error) {
	return f.site.html(f.current, f.toggled), nil
}

func (f *fakeSession) Screenshot(context.Context) ([]byte, error) {
	return []byte("\x89PNG"), nil
}

func (f *fakeSession) Close() error {
	f.closes++
	return nil
}

// tickerIs matches a record by ticker.
type tickerIs string

func (m tickerIs) Matches(x interface{}) bool {
	r, ok := x.(record.Record)
	if !ok {
		return false
	}
	v, _ := r.Ticker.Get()
	return v == string(m)
}

func (m tickerIs) String() string { return fmt.Sprintf("record for %s", string(m)) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrchestrator(t *testing.T, site *fakeSite, s sink.Sink, opts ...Option) *Orchestrator {
	t.Helper()

	ctrl := gomock.NewController(t)
	launcher := browser.NewMockLauncher(ctrl)
	launcher.EXPECT().Open(gomock.Any()).DoAndReturn(site.open).AnyTimes()

	fopts := finance.DefaultOptions()
	fopts.Now = func() time.Time { return time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC) }
	fopts.ToggleTimeout = 200 * time.Millisecond

	opts = append([]Option{WithLogger(discardLogger()), WithBaseURL(baseURL)}, opts...)
	return New(launcher, finance.NewDefaultRegistry(fopts), s, opts...)
}

func TestCrawlTicker(t *testing.T) {
	t.Parallel()

	site := &fakeSite{t: t}
	o := newOrchestrator(t, site, nil)

	rec, err := o.CrawlTicker(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("CrawlTicker: %v", err)
	}

	if missing := rec.Missing(); len(missing) != 0 {
		t.Errorf("record is missing %v", missing)
	}

	want := map[record.Field]string{
		record.FieldTicker:            "ACME",
		record.FieldCompanyName:       "ACME Corporation",
		record.FieldDiffTo1YTargetEst: "-19.00%",
		record.FieldPriceOverBook:     "3.2",
		record.FieldCountry:           "United States",
		record.FieldVanguardHolder:    "Y",
		record.FieldFreeCashFlow:      normalize.NA,
	}
	for f, w := range want {
		if v, _ := rec.Value(f); v != w {
			t.Errorf("%s = %q, want %q", f, v, w)
		}
	}

	if len(site.sessions) != 1 {
		t.Fatalf("opened %d sessions, want 1", len(site.sessions))
	}
	sess := site.sessions[0]
	if sess.closes != 1 {
		t.Errorf("session closed %d times, want 1", sess.closes)
	}

	nav := record.NewNavigationMap(baseURL, "ACME")
	if len(sess.visited) != len(record.Stages) {
		t.Fatalf("visited %d pages, want %d", len(sess.visited), len(record.Stages))
	}
	for i, stage := range record.Stages {
		if sess.visited[i] != nav[stage] {
			t.Errorf("visit %d = %q, want %q", i, sess.visited[i], nav[stage])
		}
	}
}

func TestRunTimeoutAtHolders(t *testing.T) {
	t.Parallel()

	site := &fakeSite{
		t: t,
		waitErr: func(url string) error {
			if strings.Contains(url, "/holders") {
				return browser.TimeoutError{Op: "element", Target: "css:body", Timeout: time.Second}
			}
			return nil
		},
	}

	ctrl := gomock.NewController(t)
	out := sink.NewMockSink(ctrl)
	out.EXPECT().Append(gomock.Any(), gomock.Any()).Times(0)

	o := newOrchestrator(t, site, out)
	summary := o.Run(context.Background(), []string{"XYZ"})

	if len(summary.Succeeded) != 0 || len(summary.Failed) != 1 {
		t.Fatalf("summary = %+v, want one failure", summary)
	}

	var te browser.TimeoutError
	if !errors.As(summary.Failed[0].Err, &te) {
		t.Errorf("failure %v is not a TimeoutError", summary.Failed[0].Err)
	}
	var se *StageError
	if !errors.As(summary.Failed[0].Err, &se) || se.Stage != record.StageHolders {
		t.Errorf("failure %v did not happen at holders", summary.Failed[0].Err)
	}

	if len(site.sessions) != 1 || site.sessions[0].closes != 1 {
		t.Errorf("expected exactly one session closed once, got %d sessions", len(site.sessions))
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	t.Parallel()

	site := &fakeSite{
		t: t,
		override: func(url string) (string, bool) {
			if strings.Contains(url, "/quote/A/financials") {
				return `<html><body><div><div><span>Breakdown</span></div><div><span>TTM</span></div></div></body></html>`, true
			}
			return "", false
		},
	}

	ctrl := gomock.NewController(t)
	out := sink.NewMockSink(ctrl)
	out.EXPECT().Append(gomock.Any(), tickerIs("B")).Return(nil).Times(1)

	o := newOrchestrator(t, site, out)
	summary := o.Run(context.Background(), []string{"A", "B"})

	if len(summary.Succeeded) != 1 || summary.Succeeded[0] != "B" {
		t.Errorf("succeeded = %v, want [B]", summary.Succeeded)
	}
	if len(summary.Failed) != 1 || summary.Failed[0].Ticker != "A" {
		t.Fatalf("failed = %+v, want A", summary.Failed)
	}

	var miss finance.SelectorMissError
	if !errors.As(summary.Failed[0].Err, &miss) || miss.Stage != record.StageIncomeStatement {
		t.Errorf("failure %v is not a miss at the income statement", summary.Failed[0].Err)
	}

	for i, s := range site.sessions {
		if s.closes != 1 {
			t.Errorf("session %d closed %d times, want 1", i, s.closes)
		}
	}
	if summary.RunID == "" {
		t.Error("expected a run id")
	}
}

func TestRunOpenFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	launcher := browser.NewMockLauncher(ctrl)
	launcher.EXPECT().Open(gomock.Any()).Return(nil, errors.New("chrome not found")).Times(2)

	out := sink.NewMockSink(ctrl)
	o := New(launcher, finance.NewDefaultRegistry(finance.Options{}), out, WithLogger(discardLogger()))

	summary := o.Run(context.Background(), []string{"A", "B"})
	if len(summary.Failed) != 2 {
		t.Errorf("failed = %d, want 2", len(summary.Failed))
	}
}

func TestRunSinkFailure(t *testing.T) {
	t.Parallel()

	site := &fakeSite{t: t}

	ctrl := gomock.NewController(t)
	out := sink.NewMockSink(ctrl)
	quota := errors.New("quota exceeded")
	out.EXPECT().Append(gomock.Any(), tickerIs("ACME")).Return(quota)

	o := newOrchestrator(t, site, out)
	summary := o.Run(context.Background(), []string{"ACME"})

	if len(summary.Failed) != 1 || !errors.Is(summary.Failed[0].Err, quota) {
		t.Errorf("failed = %+v, want sink failure", summary.Failed)
	}
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	launcher := browser.NewMockLauncher(ctrl)
	out := sink.NewMockSink(ctrl)
	o := New(launcher, finance.NewDefaultRegistry(finance.Options{}), out, WithLogger(discardLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := o.Run(ctx, []string{"A", "B", "C"})
	if len(summary.Skipped) != 3 {
		t.Errorf("skipped = %v, want all three", summary.Skipped)
	}
}

func TestFailureDiagnostics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	site := &fakeSite{
		t: t,
		override: func(url string) (string, bool) {
			if strings.Contains(url, "/profile") {
				return "<html><body></body></html>", true
			}
			return "", false
		},
	}

	now := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)
	o := newOrchestrator(t, site, nil,
		WithDiagnostics(dir, true, true),
		WithClock(func() time.Time { return now }),
	)

	if _, err := o.CrawlTicker(context.Background(), "ACME"); err == nil {
		t.Fatal("expected failure at profile")
	}

	if _, err := os.Stat(filepath.Join(dir, "ss_03-05-2024_14:07:09.000000.png")); err != nil {
		t.Errorf("screenshot not written: %v", err)
	}
	snapshots, _ := filepath.Glob(filepath.Join(dir, "page_ACME_*.html.gz"))
	if len(snapshots) != 3 {
		t.Errorf("got %d snapshots, want one per visited page (3)", len(snapshots))
	}
}
