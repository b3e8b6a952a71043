package finance

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"financescrapper/browser"
	"financescrapper/normalize"
	"financescrapper/record"
)

// Holders checks whether the configured fund leads the top institutional
// holders table.
type Holders struct {
	opts Options
}

// Stage implements Extractor.
func (e *Holders) Stage() record.Stage { return record.StageHolders }

// Ready implements Extractor.
func (e *Holders) Ready() browser.Locator { return bodyReady }

// Extract implements Extractor.
func (e *Holders) Extract(_ context.Context, page *Page, p record.Partial) (record.Partial, error) {
	heading := page.Doc.Find("h3 > span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(ownText(s), "Top Institutional Holders")
	}).First()

	top := heading.Parent().NextAllFiltered("table").First().Find("tbody > tr").First().Find("td").First()

	holder := normalize.NA
	if top.Length() > 0 && strings.Contains(ownText(top), e.opts.HolderName) {
		holder = "Y"
	}

	r := record.Merge(p.Record, record.FieldVanguardHolder, holder)
	return advance(p, r, e.Stage()), nil
}
