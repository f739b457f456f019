package engine

import (
	"sort"
	"sync"

	"surge-systemv1/internal/model"
)

// QuoteBoard holds the latest per-symbol snapshot for the dashboard's live
// feed. Written by shard workers on every valid tick, read concurrently by
// the gateway; accessors return copies.
type QuoteBoard struct {
	mu     sync.RWMutex
	quotes map[string]model.Quote
}

// NewQuoteBoard creates an empty board.
func NewQuoteBoard() *QuoteBoard {
	return &QuoteBoard{quotes: make(map[string]model.Quote, 256)}
}

// Set stores the latest quote for its symbol.
func (q *QuoteBoard) Set(quote model.Quote) {
	q.mu.Lock()
	q.quotes[quote.Symbol] = quote
	q.mu.Unlock()
}

// Get returns the latest quote for a symbol.
func (q *QuoteBoard) Get(symbol string) (model.Quote, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	quote, ok := q.quotes[symbol]
	return quote, ok
}

// All returns a snapshot of every quote, sorted by symbol.
func (q *QuoteBoard) All() []model.Quote {
	q.mu.RLock()
	out := make([]model.Quote, 0, len(q.quotes))
	for _, quote := range q.quotes {
		out = append(out, quote)
	}
	q.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Len returns the number of tracked symbols.
func (q *QuoteBoard) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.quotes)
}
