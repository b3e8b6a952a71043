package finance

import (
	"context"
	"strings"

	"financescrapper/browser"
	"financescrapper/record"
)

const addressSelector = "div[data-test='asset-profile'] > div > div > p"

// Profile reads the company address block; its last line is the country.
type Profile struct{}

// Stage implements Extractor.
func (e *Profile) Stage() record.Stage { return record.StageProfile }

// Ready implements Extractor.
func (e *Profile) Ready() browser.Locator { return bodyReady }

// Extract implements Extractor.
func (e *Profile) Extract(_ context.Context, page *Page, p record.Partial) (record.Partial, error) {
	lines := make([]string, 0)
	for _, line := range textNodes(page.Doc.Find(addressSelector)) {
		// Label/value separators render as a bare colon.
		if strings.Trim(line, ":\u00a0 ") == "" {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return p, SelectorMissError{Stage: e.Stage(), What: "country", Selector: addressSelector}
	}

	r := record.Merge(p.Record, record.FieldCountry, lines[len(lines)-1])
	return advance(p, r, e.Stage()), nil
}
