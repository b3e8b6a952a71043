// Package record holds the Ticker Record schema and the accumulator that
// carries a partially built record across the extraction stages.
package record

import (
	"github.com/shopspring/decimal"
)

// Opt is an optional value. The zero value is unset.
type Opt[T any] struct {
	value T
	set   bool
}

// Some returns a set Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// Get returns the value and whether it was set.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the value was set.
func (o Opt[T]) IsSet() bool {
	return o.set
}

// Or returns the value, or fallback when unset.
func (o Opt[T]) Or(fallback T) T {
	if !o.set {
		return fallback
	}
	return o.value
}

// Quarter indexes the quarterly columns of the financial statements, most
// recent first.
type Quarter int

const (
	Q1 Quarter = iota
	Q2
	Q3
	Q4
)

// Quarters lists the quarterly columns in page order.
var Quarters = [...]Quarter{Q1, Q2, Q3, Q4}

func (q Quarter) String() string {
	return [...]string{"Q1", "Q2", "Q3", "Q4"}[q]
}

// BalanceSheetQuarter is one quarterly column of the balance sheet page with
// its derived values.
type BalanceSheetQuarter struct {
	Date                    string `json:"date"`
	TotalAssets             string `json:"total_assets"`
	TotalLiabilities        string `json:"total_liabilities"`
	TotalStockholdersEquity string `json:"total_stockholders_equity"`
	NetTangibleAssets       string `json:"net_tangible_assets"`
	DebtToEquityRatio       string `json:"debt_to_equity_ratio"`
}

// BalanceSheet holds the four quarterly columns, indexed by Quarter.
type BalanceSheet [4]BalanceSheetQuarter

// Record is the output unit: one per ticker.
type Record struct {
	Date        Opt[string]
	Ticker      Opt[string]
	CompanyName Opt[string]

	PreviousClose           Opt[string]
	PERatio                 Opt[string]
	FiftyTwoWeekHigh        Opt[string]
	DiffTo52WeekHigh        Opt[string]
	FairValue               Opt[string]
	OneYearTargetEst        Opt[string]
	DiffTo1YTargetEst       Opt[string]
	ForwardPE               Opt[string]
	MarketCap               Opt[decimal.Decimal]
	PEGRatio                Opt[string]
	PriceOverSales          Opt[string]
	PriceOverBook           Opt[string]
	ReturnOnAssets          Opt[string]
	ReturnOnEquity          Opt[string]
	DilutedEPS              Opt[string]
	QuarterlyEarningsGrowth Opt[string]

	TTMNetIncomePercentage Opt[string]
	Q1NetIncomePercentage  Opt[string]
	Q2NetIncomePercentage  Opt[string]
	Q3NetIncomePercentage  Opt[string]
	Q4NetIncomePercentage  Opt[string]

	FwdAnnualDividendRate  Opt[string]
	FwdAnnualDividendYield Opt[string]
	ExDividendDate         Opt[string]

	Country        Opt[string]
	VanguardHolder Opt[string]

	BalanceSheet Opt[BalanceSheet]

	NetChangeInCash Opt[string]
	FreeCashFlow    Opt[string]
}

// Field names a string field of Record. The values match the column keys
// used by the sinks.
type Field string

const (
	FieldDate                    Field = "date"
	FieldTicker                  Field = "ticker"
	FieldCompanyName             Field = "company_name"
	FieldPreviousClose           Field = "previous_close"
	FieldPERatio                 Field = "pe_ratio"
	FieldFiftyTwoWeekHigh        Field = "fiftytwo_week_high"
	FieldDiffTo52WeekHigh        Field = "diff_to_52_week_high"
	FieldFairValue               Field = "fair_value"
	FieldOneYearTargetEst        Field = "one_year_target_est"
	FieldDiffTo1YTargetEst       Field = "diff_to_1y_target_est"
	FieldForwardPE               Field = "forward_pe"
	FieldPEGRatio                Field = "peg_ratio"
	FieldPriceOverSales          Field = "price_over_sales"
	FieldPriceOverBook           Field = "price_over_book"
	FieldReturnOnAssets          Field = "return_on_assets"
	FieldReturnOnEquity          Field = "return_on_equity"
	FieldDilutedEPS              Field = "diluted_eps"
	FieldQuarterlyEarningsGrowth Field = "quarterly_earnings_growth"
	FieldTTMNetIncomePercentage  Field = "ttm_net_income_percentage"
	FieldQ1NetIncomePercentage   Field = "q1_net_income_percentage"
	FieldQ2NetIncomePercentage   Field = "q2_net_income_percentage"
	FieldQ3NetIncomePercentage   Field = "q3_net_income_percentage"
	FieldQ4NetIncomePercentage   Field = "q4_net_income_percentage"
	FieldFwdAnnualDividendRate   Field = "fwd_annual_dividend_rate"
	FieldFwdAnnualDividendYield  Field = "fwd_annual_dividend_yield"
	FieldExDividendDate          Field = "ex_dividend_date"
	FieldCountry                 Field = "country"
	FieldVanguardHolder          Field = "vanguard_holder"
	FieldNetChangeInCash         Field = "net_change_in_cash"
	FieldFreeCashFlow            Field = "free_cash_flow"

	// typed fields, set through MergeMarketCap and MergeBalanceSheet
	FieldMarketCap    Field = "market_cap"
	FieldBalanceSheet Field = "balance_sheet"
)

// slot returns the storage for a string field, or nil for an unknown or
// typed field.
func (r *Record) slot(f Field) *Opt[string] {
	switch f {
	case FieldDate:
		return &r.Date
	case FieldTicker:
		return &r.Ticker
	case FieldCompanyName:
		return &r.CompanyName
	case FieldPreviousClose:
		return &r.PreviousClose
	case FieldPERatio:
		return &r.PERatio
	case FieldFiftyTwoWeekHigh:
		return &r.FiftyTwoWeekHigh
	case FieldDiffTo52WeekHigh:
		return &r.DiffTo52WeekHigh
	case FieldFairValue:
		return &r.FairValue
	case FieldOneYearTargetEst:
		return &r.OneYearTargetEst
	case FieldDiffTo1YTargetEst:
		return &r.DiffTo1YTargetEst
	case FieldForwardPE:
		return &r.ForwardPE
	case FieldPEGRatio:
		return &r.PEGRatio
	case FieldPriceOverSales:
		return &r.PriceOverSales
	case FieldPriceOverBook:
		return &r.PriceOverBook
	case FieldReturnOnAssets:
		return &r.ReturnOnAssets
	case FieldReturnOnEquity:
		return &r.ReturnOnEquity
	case FieldDilutedEPS:
		return &r.DilutedEPS
	case FieldQuarterlyEarningsGrowth:
		return &r.QuarterlyEarningsGrowth
	case FieldTTMNetIncomePercentage:
		return &r.TTMNetIncomePercentage
	case FieldQ1NetIncomePercentage:
		return &r.Q1NetIncomePercentage
	case FieldQ2NetIncomePercentage:
		return &r.Q2NetIncomePercentage
	case FieldQ3NetIncomePercentage:
		return &r.Q3NetIncomePercentage
	case FieldQ4NetIncomePercentage:
		return &r.Q4NetIncomePercentage
	case FieldFwdAnnualDividendRate:
		return &r.FwdAnnualDividendRate
	case FieldFwdAnnualDividendYield:
		return &r.FwdAnnualDividendYield
	case FieldExDividendDate:
		return &r.ExDividendDate
	case FieldCountry:
		return &r.Country
	case FieldVanguardHolder:
		return &r.VanguardHolder
	case FieldNetChangeInCash:
		return &r.NetChangeInCash
	case FieldFreeCashFlow:
		return &r.FreeCashFlow
	}
	return nil
}

// StringFields lists every string field in schema order.
var StringFields = []Field{
	FieldDate, FieldTicker, FieldCompanyName,
	FieldPreviousClose, FieldPERatio, FieldFiftyTwoWeekHigh, FieldDiffTo52WeekHigh,
	FieldFairValue, FieldOneYearTargetEst, FieldDiffTo1YTargetEst, FieldForwardPE,
	FieldPEGRatio, FieldPriceOverSales, FieldPriceOverBook,
	FieldReturnOnAssets, FieldReturnOnEquity, FieldDilutedEPS, FieldQuarterlyEarningsGrowth,
	FieldTTMNetIncomePercentage, FieldQ1NetIncomePercentage, FieldQ2NetIncomePercentage,
	FieldQ3NetIncomePercentage, FieldQ4NetIncomePercentage,
	FieldFwdAnnualDividendRate, FieldFwdAnnualDividendYield, FieldExDividendDate,
	FieldCountry, FieldVanguardHolder,
	FieldNetChangeInCash, FieldFreeCashFlow,
}

// Value returns the string value of f and whether it is set.
func (r Record) Value(f Field) (string, bool) {
	s := r.slot(f)
	if s == nil {
		return "", false
	}
	return s.Get()
}

// Missing lists the fields that have not been set, typed fields included.
func (r Record) Missing() []Field {
	var missing []Field
	for _, f := range StringFields {
		if _, ok := r.Value(f); !ok {
			missing = append(missing, f)
		}
	}
	if !r.MarketCap.IsSet() {
		missing = append(missing, FieldMarketCap)
	}
	if !r.BalanceSheet.IsSet() {
		missing = append(missing, FieldBalanceSheet)
	}
	return missing
}
