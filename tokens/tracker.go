// Package tokens provides a passive TokenEvent collector, the default sink
// callers get when they register it against a CallbackBus's
// on_tokens_used hook (§6's "token_tracker" entry in the caller-facing
// surface).
package tokens

import (
	"sync"

	"github.com/cliorch/cliorch"
)

// Tracker accumulates token usage across calls, broken down per provider
// and per model.
type Tracker struct {
	mu     sync.Mutex
	events []cliorch.TokenEvent
	byProvider map[cliorch.ProviderName]Totals
	byModel    map[string]Totals
}

// Totals is an input/output/total rollup.
type Totals struct {
	Input  int64
	Output int64
	Total  int64
	Calls  int64
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byProvider: make(map[cliorch.ProviderName]Totals),
		byModel:    make(map[string]Totals),
	}
}

// Attach registers the tracker's Record method as an on_tokens_used
// listener on bus.
func (t *Tracker) Attach(bus *cliorch.CallbackBus) {
	bus.OnTokensUsed(t.Record)
}

// Record accumulates one TokenEvent. Safe to call directly in tests without
// going through a CallbackBus.
func (t *Tracker) Record(ev cliorch.TokenEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = append(t.events, ev)

	pt := t.byProvider[ev.Provider]
	pt.Input += ev.Input
	pt.Output += ev.Output
	pt.Total += ev.Total
	pt.Calls++
	t.byProvider[ev.Provider] = pt

	mt := t.byModel[ev.Model]
	mt.Input += ev.Input
	mt.Output += ev.Output
	mt.Total += ev.Total
	mt.Calls++
	t.byModel[ev.Model] = mt
}

// Total returns the running total across every provider and model.
func (t *Tracker) Total() Totals {
	t.mu.Lock()
	defer t.mu.Unlock()
	var sum Totals
	for _, pt := range t.byProvider {
		sum.Input += pt.Input
		sum.Output += pt.Output
		sum.Total += pt.Total
		sum.Calls += pt.Calls
	}
	return sum
}

// ByProvider returns a copy of the per-provider totals map.
func (t *Tracker) ByProvider() map[cliorch.ProviderName]Totals {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[cliorch.ProviderName]Totals, len(t.byProvider))
	for k, v := range t.byProvider {
		out[k] = v
	}
	return out
}

// ByModel returns a copy of the per-model totals map.
func (t *Tracker) ByModel() map[string]Totals {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Totals, len(t.byModel))
	for k, v := range t.byModel {
		out[k] = v
	}
	return out
}

// Events returns a copy of every recorded event, in arrival order.
func (t *Tracker) Events() []cliorch.TokenEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]cliorch.TokenEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Reset clears all accumulated state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
	t.byProvider = make(map[cliorch.ProviderName]Totals)
	t.byModel = make(map[string]Totals)
}
