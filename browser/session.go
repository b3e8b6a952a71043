// Package browser provides browser automation functionality
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

//go:generate mockgen -source=session.go -destination=mock_browser.go -package=browser

// Kind selects how a Locator query is interpreted.
type Kind int

const (
	XPath Kind = iota
	CSS
)

// Locator identifies an element on the rendered page.
type Locator struct {
	Query string
	Kind  Kind
}

// ByXPath returns an XPath locator.
func ByXPath(query string) Locator {
	return Locator{Query: query, Kind: XPath}
}

// ByCSS returns a CSS selector locator.
func ByCSS(query string) Locator {
	return Locator{Query: query, Kind: CSS}
}

func (l Locator) String() string {
	if l.Kind == CSS {
		return "css:" + l.Query
	}
	return "xpath:" + l.Query
}

func (l Locator) option() chromedp.QueryOption {
	if l.Kind == CSS {
		return chromedp.ByQuery
	}
	return chromedp.BySearch
}

// Session is one browser instance bound to a single ticker's crawl.
// Every call that waits on the page is bounded by a timeout.
type Session interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// WaitForElement blocks until loc is present in the DOM or timeout
	// elapses, in which case it returns a TimeoutError.
	WaitForElement(ctx context.Context, loc Locator, timeout time.Duration) error

	// Click clicks the first element matching loc.
	Click(ctx context.Context, loc Locator) error

	// ReadText returns the text of the first element matching loc, or false
	// when nothing matches.
	ReadText(ctx context.Context, loc Locator) (string, bool, error)

	// ReadAttribute returns the named attribute of the first element
	// matching loc, or false when nothing matches or the attribute is absent.
	ReadAttribute(ctx context.Context, loc Locator, name string) (string, bool, error)

	// OuterHTML returns the rendered document.
	OuterHTML(ctx context.Context) (string, error)

	// Screenshot captures the viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close releases the browser. It is safe to call more than once.
	Close() error
}

// Launcher opens sessions.
type Launcher interface {
	Open(ctx context.Context) (Session, error)
}

// TimeoutError is returned when a navigation or an awaited element does not
// complete within its window.
type TimeoutError struct {
	Op      string
	Target  string
	Timeout time.Duration
}

// Error returns the message for the TimeoutError.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s %s", e.Timeout, e.Op, e.Target)
}
