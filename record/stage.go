package record

import (
	"fmt"
	"net/url"
	"strings"
)

// Stage is one page visit in the fixed extraction sequence.
type Stage int

const (
	StageSummary Stage = iota
	StageStatistics
	StageProfile
	StageHolders
	StageIncomeStatement
	StageBalanceSheet
	StageCashFlow
	StageComplete
)

// Stages lists the page-visiting stages in execution order.
var Stages = []Stage{
	StageSummary,
	StageStatistics,
	StageProfile,
	StageHolders,
	StageIncomeStatement,
	StageBalanceSheet,
	StageCashFlow,
}

var stageNames = map[Stage]string{
	StageSummary:         "summary",
	StageStatistics:      "statistics",
	StageProfile:         "profile",
	StageHolders:         "holders",
	StageIncomeStatement: "income_statement",
	StageBalanceSheet:    "balance_sheet",
	StageCashFlow:        "cash_flow",
	StageComplete:        "complete",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// NavigationMap maps each stage to the URL it visits.
type NavigationMap map[Stage]string

// stagePaths are appended to {base}/quote/{ticker}.
var stagePaths = map[Stage]string{
	StageSummary:         "",
	StageStatistics:      "/key-statistics",
	StageProfile:         "/profile",
	StageHolders:         "/holders",
	StageIncomeStatement: "/financials",
	StageBalanceSheet:    "/balance-sheet",
	StageCashFlow:        "/cash-flow",
}

// NewNavigationMap derives every stage URL from the base URL and the ticker.
func NewNavigationMap(baseURL, ticker string) NavigationMap {
	base := strings.TrimRight(baseURL, "/")
	t := url.PathEscape(ticker)
	q := url.QueryEscape(ticker)

	nav := make(NavigationMap, len(stagePaths))
	for stage, path := range stagePaths {
		nav[stage] = fmt.Sprintf("%s/quote/%s%s?p=%s", base, t, path, q)
	}
	return nav
}

// URL returns the target of a stage.
func (n NavigationMap) URL(s Stage) (string, bool) {
	u, ok := n[s]
	return u, ok
}

// Partial is a record in flight: the ticker being crawled, the fields
// gathered so far, the navigation map computed at crawl start and the stage
// that runs next.
type Partial struct {
	Ticker string
	Record Record
	Nav    NavigationMap
	Stage  Stage
}

// NewPartial starts an empty record for ticker at the summary stage.
func NewPartial(ticker string, nav NavigationMap) Partial {
	return Partial{Ticker: ticker, Nav: nav, Stage: StageSummary}
}

// WithStage threads the navigation map into p. A map already carried by p is
// never replaced.
func WithStage(p Partial, nav NavigationMap) Partial {
	if p.Nav == nil {
		p.Nav = nav
	}
	return p
}

// Advance returns p with its record replaced by r and the next stage set.
func Advance(p Partial, r Record, next Stage) Partial {
	p.Record = r
	p.Stage = next
	return p
}

// Complete reports whether every stage has run.
func (p Partial) Complete() bool {
	return p.Stage == StageComplete
}
