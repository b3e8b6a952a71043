package finance

import (
	"context"

	"financescrapper/browser"
	"financescrapper/normalize"
	"financescrapper/record"
)

// CashFlow reads the most recent net change in cash and free cash flow. It
// is the last stage.
type CashFlow struct{}

// Stage implements Extractor.
func (e *CashFlow) Stage() record.Stage { return record.StageCashFlow }

// Ready implements Extractor.
func (e *CashFlow) Ready() browser.Locator { return bodyReady }

// Extract implements Extractor.
func (e *CashFlow) Extract(_ context.Context, page *Page, p record.Partial) (record.Partial, error) {
	latest := func(title string) string {
		return spanText(titled(page.Doc, title).Parent().NextAllFiltered("div").First())
	}

	r := record.MergeAll(p.Record, map[record.Field]string{
		record.FieldNetChangeInCash: normalize.FirstNonEmpty(latest("Net change in cash")),
		record.FieldFreeCashFlow:    normalize.FirstNonEmpty(latest("Free Cash Flow")),
	})
	return advance(p, r, e.Stage()), nil
}
