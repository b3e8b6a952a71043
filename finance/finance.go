// Package finance extracts quote, statistics, profile, holder and financial
// statement facts from rendered finance pages.
package finance

import (
	"context"
	"sync"
	"time"

	"financescrapper/browser"
	"financescrapper/normalize"
	"financescrapper/record"
)

// Extractor pulls the facts of one stage out of a rendered page and merges
// them into the partial record.
type Extractor interface {
	// Stage is the stage this extractor handles.
	Stage() record.Stage

	// Ready is the element the page must contain before it is snapshotted.
	Ready() browser.Locator

	// Extract returns p with the stage's fields merged and the next stage set.
	Extract(ctx context.Context, page *Page, p record.Partial) (record.Partial, error)
}

// Options holds the knobs shared by the extractors.
type Options struct {
	Policy           normalize.Policy
	Now              func() time.Time
	HolderName       string
	ForwardPETimeout time.Duration
	ToggleTimeout    time.Duration
}

// DefaultOptions returns en-US parsing, the wall clock and Vanguard as the
// tracked holder.
func DefaultOptions() Options {
	return Options{
		Policy:           normalize.EnUS,
		Now:              time.Now,
		HolderName:       "Vanguard",
		ForwardPETimeout: 20 * time.Second,
		ToggleTimeout:    10 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Policy.Decimal == 0 {
		o.Policy = d.Policy
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	if o.HolderName == "" {
		o.HolderName = d.HolderName
	}
	if o.ForwardPETimeout <= 0 {
		o.ForwardPETimeout = d.ForwardPETimeout
	}
	if o.ToggleTimeout <= 0 {
		o.ToggleTimeout = d.ToggleTimeout
	}
	return o
}

// Registry maps each stage to its extractor.
type Registry struct {
	extractors map[record.Stage]Extractor
	mu         sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[record.Stage]Extractor),
	}
}

// Register adds e, replacing any extractor already registered for its stage.
func (r *Registry) Register(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[e.Stage()] = e
}

// Lookup returns the extractor for stage s.
func (r *Registry) Lookup(s record.Stage) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[s]
	return e, ok
}

// NewDefaultRegistry registers the seven page extractors.
func NewDefaultRegistry(opts Options) *Registry {
	opts = opts.withDefaults()

	r := NewRegistry()
	r.Register(&Summary{opts: opts})
	r.Register(&Statistics{opts: opts})
	r.Register(&Profile{})
	r.Register(&Holders{opts: opts})
	r.Register(&IncomeStatement{opts: opts})
	r.Register(&BalanceSheet{opts: opts})
	r.Register(&CashFlow{})
	return r
}

// bodyReady is used by pages whose facts are all in the server render.
var bodyReady = browser.ByCSS("body")

func advance(p record.Partial, r record.Record, from record.Stage) record.Partial {
	return record.Advance(p, r, from+1)
}
