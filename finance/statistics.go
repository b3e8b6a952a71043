package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"financescrapper/browser"
	"financescrapper/normalize"
	"financescrapper/record"
)

var forwardPELocator = browser.ByXPath("//tr/td/span[text()='Forward P/E']/parent::td/following-sibling::td[1]")

// statCell is one row of the key statistics tables. The value is either
// rendered directly in the cell or wrapped in a span.
type statCell struct {
	label    string
	primary  string
	fallback string
}

// statLookup describes how an optional statistic is located.
type statLookup struct {
	field       record.Field
	label       string
	useFallback bool
}

var optionalStats = []statLookup{
	{field: record.FieldPEGRatio, label: "PEG Ratio", useFallback: true},
	{field: record.FieldPriceOverSales, label: "Price/Sales"},
	{field: record.FieldPriceOverBook, label: "Price/Book", useFallback: true},
	{field: record.FieldReturnOnAssets, label: "Return on Assets", useFallback: true},
	{field: record.FieldReturnOnEquity, label: "Return on Equity", useFallback: true},
	{field: record.FieldDilutedEPS, label: "Diluted EPS"},
	{field: record.FieldQuarterlyEarningsGrowth, label: "Quarterly Earnings Growth", useFallback: true},
	{field: record.FieldFwdAnnualDividendRate, label: "Forward Annual Dividend Rate", useFallback: true},
	{field: record.FieldFwdAnnualDividendYield, label: "Forward Annual Dividend Yield", useFallback: true},
	{field: record.FieldExDividendDate, label: "Ex-Dividend Date", useFallback: true},
}

// Statistics reads the key statistics page and derives the distance of the
// previous close to the 52 week high and to the one year target.
type Statistics struct {
	opts Options
}

// Stage implements Extractor.
func (e *Statistics) Stage() record.Stage { return record.StageStatistics }

// Ready implements Extractor.
func (e *Statistics) Ready() browser.Locator { return bodyReady }

// Extract implements Extractor.
func (e *Statistics) Extract(ctx context.Context, page *Page, p record.Partial) (record.Partial, error) {
	cells := statCells(page.Doc)
	r := p.Record
	policy := e.opts.Policy

	high, ok := findStat(cells, "52 Week High", true)
	if !ok || high.primary == "" {
		return p, SelectorMissError{Stage: e.Stage(), What: "52 week high", Selector: "//tr/td/span[text()='52 Week High']/parent::td/following-sibling::td[1]/text()"}
	}

	previousClose, err := parsedField(policy, r, record.FieldPreviousClose)
	if err != nil {
		return p, err
	}
	target, err := parsedField(policy, r, record.FieldOneYearTargetEst)
	if err != nil {
		return p, err
	}
	highValue, err := policy.ParseLocaleNumber(high.primary)
	if err != nil {
		return p, err
	}

	forwardPE, err := e.forwardPE(ctx, page.Session)
	if err != nil {
		return p, err
	}

	capCell, ok := findStat(cells, "Market Cap", false)
	if !ok || capCell.primary == "" {
		return p, SelectorMissError{Stage: e.Stage(), What: "market cap", Selector: "//tr/td/span[contains(text(), 'Market Cap')]/parent::td/following-sibling::td[1]/text()"}
	}
	marketCap, err := policy.ParseMagnitude(capCell.primary)
	if err != nil {
		return p, err
	}

	values := map[record.Field]string{
		record.FieldFiftyTwoWeekHigh:  high.primary,
		record.FieldDiffTo52WeekHigh:  normalize.ParsePercentChange(previousClose, highValue),
		record.FieldDiffTo1YTargetEst: normalize.ParsePercentChange(target, previousClose),
		record.FieldForwardPE:         forwardPE,
	}
	for _, s := range optionalStats {
		c, _ := findStat(cells, s.label, false)
		if s.useFallback {
			values[s.field] = normalize.FirstNonEmpty(c.primary, c.fallback)
		} else {
			values[s.field] = normalize.FirstNonEmpty(c.primary)
		}
	}

	r = record.MergeAll(r, values)
	r = record.MergeMarketCap(r, marketCap)
	return advance(p, r, e.Stage()), nil
}

// forwardPE is rendered client side, so it is read through the session after
// an explicit wait rather than from the snapshot.
func (e *Statistics) forwardPE(ctx context.Context, s browser.Session) (string, error) {
	if err := s.WaitForElement(ctx, forwardPELocator, e.opts.ForwardPETimeout); err != nil {
		return "", fmt.Errorf("forward P/E: %w", err)
	}
	text, ok, err := s.ReadText(ctx, forwardPELocator)
	if err != nil {
		return "", fmt.Errorf("forward P/E: %w", err)
	}
	if !ok {
		return "", SelectorMissError{Stage: e.Stage(), What: "forward P/E", Selector: forwardPELocator.Query}
	}
	return cleanText(text), nil
}

func statCells(doc *goquery.Document) []statCell {
	cells := make([]statCell, 0)

	doc.Find("tr").Each(func(i int, s *goquery.Selection) {
		labelCell := s.ChildrenFiltered("td").First()
		label := labelCell.ChildrenFiltered("span").First()
		if label.Length() == 0 {
			return
		}
		value := labelCell.NextAllFiltered("td").First()

		cells = append(cells, statCell{
			label:    ownText(label),
			primary:  ownText(value),
			fallback: ownText(value.ChildrenFiltered("span").First()),
		})
	})

	return cells
}

// findStat returns the first row whose label equals (exact) or contains name.
func findStat(cells []statCell, name string, exact bool) (statCell, bool) {
	for _, c := range cells {
		if (exact && c.label == name) || (!exact && strings.Contains(c.label, name)) {
			return c, true
		}
	}
	return statCell{}, false
}

func parsedField(policy normalize.Policy, r record.Record, f record.Field) (decimal.Decimal, error) {
	v, ok := r.Value(f)
	if !ok {
		return decimal.Zero, fmt.Errorf("%s was not extracted before statistics", f)
	}
	return policy.ParseLocaleNumber(v)
}
