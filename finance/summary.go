package finance

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"financescrapper/browser"
	"financescrapper/normalize"
	"financescrapper/record"
)

const dateLayout = "02/01/2006"

var headerPattern = regexp.MustCompile(`^(.+\S)\s?\((.+)\)`)

const (
	headerSelector        = "div#quote-header-info h1"
	previousCloseSelector = "[data-test=PREV_CLOSE-value] > span"
	peRatioSelector       = "[data-test=PE_RATIO-value] > span"
	targetSelector        = "[data-test=ONE_YEAR_TARGET_PRICE-value] > span"
)

// Summary reads the quote page: company name, previous close, P/E, fair
// value and the one year target estimate.
type Summary struct {
	opts Options
}

// Stage implements Extractor.
func (e *Summary) Stage() record.Stage { return record.StageSummary }

// Ready implements Extractor.
func (e *Summary) Ready() browser.Locator { return bodyReady }

// Extract implements Extractor.
func (e *Summary) Extract(_ context.Context, page *Page, p record.Partial) (record.Partial, error) {
	doc := page.Doc
	r := p.Record

	name, err := companyName(ownText(doc.Find(headerSelector).First()))
	if err != nil {
		return p, err
	}

	previousClose := cleanText(doc.Find(previousCloseSelector).First().Text())
	if previousClose == "" {
		return p, SelectorMissError{Stage: e.Stage(), What: "previous close", Selector: previousCloseSelector}
	}

	target := cleanText(doc.Find(targetSelector).First().Text())
	if target == "" {
		return p, SelectorMissError{Stage: e.Stage(), What: "one year target estimate", Selector: targetSelector}
	}

	r = record.MergeAll(r, map[record.Field]string{
		record.FieldTicker:           p.Ticker,
		record.FieldCompanyName:      name,
		record.FieldDate:             e.opts.Now().Format(dateLayout),
		record.FieldPreviousClose:    previousClose,
		record.FieldPERatio:          normalize.FirstNonEmpty(doc.Find(peRatioSelector).First().Text()),
		record.FieldFairValue:        normalize.FirstNonEmpty(fairValue(page)),
		record.FieldOneYearTargetEst: target,
	})

	return advance(p, r, e.Stage()), nil
}

// companyName extracts "Apple Inc." from "Apple Inc. (AAPL)". A missing
// header yields an empty name.
func companyName(header string) (string, error) {
	if header == "" {
		return "", nil
	}
	m := headerPattern.FindStringSubmatch(header)
	if m == nil {
		return "", normalize.NewParseError(header, "company header", nil)
	}
	return m[1], nil
}

// fairValue reads the value cell that follows the "Fair Value" heading.
func fairValue(page *Page) string {
	heading := page.Doc.Find("div > span > h5").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(ownText(s), "Fair Value")
	}).First()

	block := heading.Parent().Parent()
	return ownText(block.NextAllFiltered("div").First().ChildrenFiltered("div").Eq(1))
}
