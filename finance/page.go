package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"financescrapper/browser"
)

// Page is the rendered DOM of one navigation target together with the live
// session that produced it.
type Page struct {
	URL     string
	Doc     *goquery.Document
	Session browser.Session
	html    string
}

// LoadPage snapshots the document currently shown by s.
func LoadPage(ctx context.Context, s browser.Session, url string) (*Page, error) {
	p := &Page{URL: url, Session: s}
	if err := p.Reload(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// NewPage parses html as the content of url.
func NewPage(url, html string, s browser.Session) (*Page, error) {
	p := &Page{URL: url, Session: s}
	if err := p.parse(html); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload replaces the document with a fresh snapshot, used after an
// interaction re-renders the page.
func (p *Page) Reload(ctx context.Context) error {
	html, err := p.Session.OuterHTML(ctx)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", p.URL, err)
	}
	return p.parse(html)
}

// HTML returns the markup of the current snapshot.
func (p *Page) HTML() string {
	return p.html
}

func (p *Page) parse(html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", p.URL, err)
	}
	p.Doc = doc
	p.html = html
	return nil
}
