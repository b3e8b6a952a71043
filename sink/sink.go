// Package sink delivers completed ticker records to their destinations.
package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"financescrapper/record"
)

//go:generate mockgen -source=sink.go -destination=mock_sink.go -package=sink

// Sink receives completed records, one call per ticker.
type Sink interface {
	Append(ctx context.Context, r record.Record) error
}

// IncompleteError is returned when a record with unset fields reaches a sink.
type IncompleteError struct {
	Ticker  string
	Missing []record.Field
}

// Error returns the message for the IncompleteError.
func (e IncompleteError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("record %q is incomplete: missing %s", e.Ticker, strings.Join(names, ", "))
}

// CheckComplete returns an IncompleteError when r has unset fields.
func CheckComplete(r record.Record) error {
	missing := r.Missing()
	if len(missing) == 0 {
		return nil
	}
	ticker, _ := r.Ticker.Get()
	return IncompleteError{Ticker: ticker, Missing: missing}
}

// Columns is the spreadsheet header, in row order.
var Columns = []string{
	"date",
	"ticker",
	"company_name",
	"previous_close",
	"pe_ratio",
	"fiftytwo_week_high",
	"diff_to_52_week_high",
	"fair_value",
	"one_year_target_est",
	"diff_to_1y_target_est",
	"forward_pe",
	"ttm_net_income_percentage",
	"q1_net_income_percentage",
	"q2_net_income_percentage",
	"q3_net_income_percentage",
	"q4_net_income_percentage",
	"q1_net_tangible_assets",
	"q1_debt_to_equity_ratio",
	"net_change_in_cash",
	"free_cash_flow",
	"market_cap",
	"peg_ratio",
	"price_over_sales",
	"price_over_book",
	"return_on_assets",
	"return_on_equity",
	"diluted_eps",
	"quarterly_earnings_growth",
	"fwd_annual_dividend_rate",
	"fwd_annual_dividend_yield",
	"ex_dividend_date",
	"vanguard_holder",
	"country",
}

// Row flattens a complete record into Columns order.
func Row(r record.Record) ([]string, error) {
	if err := CheckComplete(r); err != nil {
		return nil, err
	}

	get := func(f record.Field) string {
		v, _ := r.Value(f)
		return v
	}
	marketCap, _ := r.MarketCap.Get()
	sheet, _ := r.BalanceSheet.Get()

	return []string{
		get(record.FieldDate),
		get(record.FieldTicker),
		get(record.FieldCompanyName),
		get(record.FieldPreviousClose),
		get(record.FieldPERatio),
		get(record.FieldFiftyTwoWeekHigh),
		get(record.FieldDiffTo52WeekHigh),
		get(record.FieldFairValue),
		get(record.FieldOneYearTargetEst),
		get(record.FieldDiffTo1YTargetEst),
		get(record.FieldForwardPE),
		get(record.FieldTTMNetIncomePercentage),
		get(record.FieldQ1NetIncomePercentage),
		get(record.FieldQ2NetIncomePercentage),
		get(record.FieldQ3NetIncomePercentage),
		get(record.FieldQ4NetIncomePercentage),
		sheet[record.Q1].NetTangibleAssets,
		sheet[record.Q1].DebtToEquityRatio,
		get(record.FieldNetChangeInCash),
		get(record.FieldFreeCashFlow),
		marketCap.String(),
		get(record.FieldPEGRatio),
		get(record.FieldPriceOverSales),
		get(record.FieldPriceOverBook),
		get(record.FieldReturnOnAssets),
		get(record.FieldReturnOnEquity),
		get(record.FieldDilutedEPS),
		get(record.FieldQuarterlyEarningsGrowth),
		get(record.FieldFwdAnnualDividendRate),
		get(record.FieldFwdAnnualDividendYield),
		get(record.FieldExDividendDate),
		get(record.FieldVanguardHolder),
		get(record.FieldCountry),
	}, nil
}

// Multi fans a record out to several sinks. Incomplete records are refused
// before any sink sees them; the remaining sinks still run when one fails.
type Multi struct {
	sinks []Sink
}

var _ Sink = (*Multi)(nil)

// NewMulti returns a fan-out over sinks.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Add appends another destination.
func (m *Multi) Add(s Sink) {
	m.sinks = append(m.sinks, s)
}

// Len reports the number of destinations.
func (m *Multi) Len() int {
	return len(m.sinks)
}

// Append implements Sink.
func (m *Multi) Append(ctx context.Context, r record.Record) error {
	if err := CheckComplete(r); err != nil {
		return err
	}

	var errs []error
	for _, s := range m.sinks {
		if err := s.Append(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
