package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Options configures the Chrome instances opened by ChromeLauncher.
type Options struct {
	Headless          bool
	UserAgent         string
	WindowWidth       int
	WindowHeight      int
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Headless:          true,
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36",
		WindowWidth:       1920,
		WindowHeight:      1080,
		NavigationTimeout: 30 * time.Second,
		ActionTimeout:     10 * time.Second,
	}
}

// ChromeLauncher starts one headless Chrome per session.
// Sessions are never pooled: each ticker gets a fresh browser.
type ChromeLauncher struct {
	opts   Options
	logger *slog.Logger
}

var _ Launcher = (*ChromeLauncher)(nil)

// NewChromeLauncher creates a launcher. A nil logger uses slog.Default().
func NewChromeLauncher(opts Options, logger *slog.Logger) *ChromeLauncher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromeLauncher{opts: opts, logger: logger}
}

func (l *ChromeLauncher) allocatorOptions() []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(l.opts.WindowWidth, l.opts.WindowHeight),
		chromedp.UserAgent(l.opts.UserAgent),
	)
}

// Open starts a browser and returns a session bound to it.
func (l *ChromeLauncher) Open(ctx context.Context) (Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), l.allocatorOptions()...)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		l.logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
	}))

	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if e, ok := ev.(*page.EventFrameNavigated); ok && e.Frame.ParentID == "" {
			l.logger.Debug("frame navigated", "url", e.Frame.URL)
		}
	})

	// The first Run allocates the browser and must not carry a timeout.
	started := make(chan error, 1)
	go func() {
		started <- chromedp.Run(browserCtx,
			network.ClearBrowserCookies(),
			chromedp.Navigate("about:blank"),
		)
	}()

	select {
	case err := <-started:
		if err != nil {
			browserCancel()
			allocCancel()
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
	case <-ctx.Done():
		browserCancel()
		allocCancel()
		return nil, ctx.Err()
	}

	l.logger.Debug("browser session opened")
	return &ChromeSession{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		opts:        l.opts,
	}, nil
}

// ChromeSession is a Session backed by chromedp.
type ChromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	opts        Options
	closeOnce   sync.Once
	closeErr    error
}

var _ Session = (*ChromeSession)(nil)

// scoped derives a context from the browser context that ends after timeout
// or when the caller's ctx is done, whichever comes first.
func (s *ChromeSession) scoped(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	c, cancel := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return c, func() {
		stop()
		cancel()
	}
}

func (s *ChromeSession) run(ctx context.Context, timeout time.Duration, op, target string, actions ...chromedp.Action) error {
	c, cancel := s.scoped(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(c, actions...); err != nil {
		if ctx.Err() == nil && errors.Is(c.Err(), context.DeadlineExceeded) {
			return TimeoutError{Op: op, Target: target, Timeout: timeout}
		}
		return fmt.Errorf("%s %s: %w", op, target, err)
	}
	return nil
}

// Navigate implements Session.
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, s.opts.NavigationTimeout, "navigation to", url, chromedp.Navigate(url))
}

// WaitForElement implements Session.
func (s *ChromeSession) WaitForElement(ctx context.Context, loc Locator, timeout time.Duration) error {
	return s.run(ctx, timeout, "element", loc.String(), chromedp.WaitReady(loc.Query, loc.option()))
}

// Click implements Session.
func (s *ChromeSession) Click(ctx context.Context, loc Locator) error {
	return s.run(ctx, s.opts.ActionTimeout, "click on", loc.String(),
		chromedp.Click(loc.Query, loc.option(), chromedp.NodeVisible))
}

func (s *ChromeSession) firstNode(ctx context.Context, loc Locator) (*cdp.Node, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, s.opts.ActionTimeout, "lookup of", loc.String(),
		chromedp.Nodes(loc.Query, &nodes, loc.option(), chromedp.AtLeast(0)))
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}

// ReadText implements Session.
func (s *ChromeSession) ReadText(ctx context.Context, loc Locator) (string, bool, error) {
	node, err := s.firstNode(ctx, loc)
	if err != nil || node == nil {
		return "", false, err
	}

	var text string
	err = s.run(ctx, s.opts.ActionTimeout, "text of", loc.String(),
		chromedp.TextContent([]cdp.NodeID{node.NodeID}, &text, chromedp.ByNodeID))
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// ReadAttribute implements Session.
func (s *ChromeSession) ReadAttribute(ctx context.Context, loc Locator, name string) (string, bool, error) {
	node, err := s.firstNode(ctx, loc)
	if err != nil || node == nil {
		return "", false, err
	}

	for i := 0; i+1 < len(node.Attributes); i += 2 {
		if node.Attributes[i] == name {
			return node.Attributes[i+1], true, nil
		}
	}
	return "", false, nil
}

// OuterHTML implements Session.
func (s *ChromeSession) OuterHTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, s.opts.ActionTimeout, "outer html of", "document",
		chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Screenshot implements Session.
func (s *ChromeSession) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, s.opts.ActionTimeout, "screenshot of", "viewport", chromedp.CaptureScreenshot(&buf))
	return buf, err
}

// Close implements Session.
func (s *ChromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancel()
		s.allocCancel()
	})
	return s.closeErr
}
