package finance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"financescrapper/browser"
	"financescrapper/normalize"
	"financescrapper/record"
)

var quarterlyToggle = browser.ByXPath("//button[div[span[text()='Quarterly']]]")

func breakdownColumn(col int) browser.Locator {
	return browser.ByXPath("//div[span[contains(text(), 'Breakdown')]]/following-sibling::div[" + strconv.Itoa(col) + "]/span")
}

// rerenderPoll is the interval between snapshots while waiting for the
// quarterly columns to replace the annual ones.
var rerenderPoll = 100 * time.Millisecond

// showQuarterly switches a statement page to quarterly columns. The annual
// table stays in the DOM until the toggle re-renders it, so the page is
// snapshotted until its header row differs from the one seen before the click.
func showQuarterly(ctx context.Context, page *Page, column browser.Locator, timeout time.Duration) error {
	before := statementTable{doc: page.Doc}.headerRow()
	deadline := time.Now().Add(timeout)

	if err := page.Session.Click(ctx, quarterlyToggle); err != nil {
		return fmt.Errorf("quarterly toggle: %w", err)
	}
	if err := page.Session.WaitForElement(ctx, column, timeout); err != nil {
		return fmt.Errorf("quarterly columns: %w", err)
	}

	for {
		if err := page.Reload(ctx); err != nil {
			return err
		}
		if row := (statementTable{doc: page.Doc}).headerRow(); row != "" && row != before {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("quarterly columns: %w", browser.TimeoutError{Op: "rerender", Target: column.String(), Timeout: timeout})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rerenderPoll):
		}
	}
}

// IncomeStatement derives the net income margin of the trailing twelve
// months and of the last four quarters.
type IncomeStatement struct {
	opts Options
}

var incomeColumns = []struct {
	field record.Field
	col   int
}{
	{field: record.FieldTTMNetIncomePercentage, col: 1},
	{field: record.FieldQ1NetIncomePercentage, col: 2},
	{field: record.FieldQ2NetIncomePercentage, col: 3},
	{field: record.FieldQ3NetIncomePercentage, col: 4},
	{field: record.FieldQ4NetIncomePercentage, col: 5},
}

// Stage implements Extractor.
func (e *IncomeStatement) Stage() record.Stage { return record.StageIncomeStatement }

// Ready implements Extractor.
func (e *IncomeStatement) Ready() browser.Locator { return quarterlyToggle }

// Extract implements Extractor.
func (e *IncomeStatement) Extract(ctx context.Context, page *Page, p record.Partial) (record.Partial, error) {
	if err := showQuarterly(ctx, page, breakdownColumn(2), e.opts.ToggleTimeout); err != nil {
		return p, err
	}

	t := statementTable{doc: page.Doc, stage: e.Stage()}
	values := make(map[record.Field]string, len(incomeColumns))

	for _, c := range incomeColumns {
		if _, err := t.header(c.col); err != nil {
			return p, err
		}
		revenue, err := e.number(t, "Total Revenue", c.col)
		if err != nil {
			return p, err
		}
		netIncome, err := e.number(t, "Net Income", c.col)
		if err != nil {
			return p, err
		}

		margin, err := normalize.Ratio(netIncome, revenue)
		if err != nil {
			return p, fmt.Errorf("net income percentage of column %d: %w", c.col, err)
		}
		values[c.field] = margin
	}

	r := record.MergeAll(p.Record, values)
	return advance(p, r, e.Stage()), nil
}

func (e *IncomeStatement) number(t statementTable, title string, col int) (decimal.Decimal, error) {
	text, err := t.cell(title, col)
	if err != nil {
		return decimal.Zero, err
	}
	return e.opts.Policy.ParseLocaleNumber(text)
}

// BalanceSheet derives net tangible assets and the debt to equity ratio of
// the last four quarters.
type BalanceSheet struct {
	opts Options
}

// Stage implements Extractor.
func (e *BalanceSheet) Stage() record.Stage { return record.StageBalanceSheet }

// Ready implements Extractor.
func (e *BalanceSheet) Ready() browser.Locator { return quarterlyToggle }

// Extract implements Extractor.
func (e *BalanceSheet) Extract(ctx context.Context, page *Page, p record.Partial) (record.Partial, error) {
	if err := showQuarterly(ctx, page, breakdownColumn(1), e.opts.ToggleTimeout); err != nil {
		return p, err
	}

	t := statementTable{doc: page.Doc, stage: e.Stage()}
	policy := e.opts.Policy

	var sheet record.BalanceSheet
	for i, q := range record.Quarters {
		col := i + 1

		date, err := t.header(col)
		if err != nil {
			return p, err
		}

		raw := make(map[string]decimal.Decimal, 3)
		texts := make(map[string]string, 3)
		for _, title := range []string{"Total Assets", "Total Liabilities", "Total stockholders' equity"} {
			text, err := t.cell(title, col)
			if err != nil {
				return p, err
			}
			v, err := policy.ParseLocaleNumber(text)
			if err != nil {
				return p, err
			}
			raw[title], texts[title] = v, text
		}

		assets, liabilities, equity := raw["Total Assets"], raw["Total Liabilities"], raw["Total stockholders' equity"]
		debtToEquity, err := normalize.Ratio(liabilities, equity)
		if err != nil {
			return p, fmt.Errorf("debt to equity of %s: %w", q, err)
		}

		sheet[q] = record.BalanceSheetQuarter{
			Date:                    date,
			TotalAssets:             texts["Total Assets"],
			TotalLiabilities:        texts["Total Liabilities"],
			TotalStockholdersEquity: texts["Total stockholders' equity"],
			NetTangibleAssets:       policy.FormatGrouped(assets.Sub(liabilities)),
			DebtToEquityRatio:       debtToEquity,
		}
	}

	r := record.MergeBalanceSheet(p.Record, sheet)
	return advance(p, r, e.Stage()), nil
}
