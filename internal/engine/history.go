// Package engine implements the tick aggregation and surge detection core:
// per-symbol candle histories built from cumulative-volume ticks, surge
// evaluation against configurable thresholds, composite signal scoring, and
// the entry/update/exit lifecycle of surge alerts.
package engine

import (
	"time"

	"surge-systemv1/internal/model"
)

// SymbolHistory holds the rolling candle state for one symbol. It is owned
// exclusively by the shard that processes the symbol; external consumers only
// ever see snapshots derived from it (quotes, alerts), never the struct itself.
type SymbolHistory struct {
	Symbol       string
	CurrentBlock int64
	Current      model.Candle   // in-progress candle, mutated in place
	Completed    []model.Candle // oldest first, bounded FIFO
	SessionLow   int64          // paisa, running day low
	PrevClose    int64          // paisa, previous session close
	LastTS       time.Time
}

// PrevCandle returns the most recent completed candle, or false if none exists.
func (h *SymbolHistory) PrevCandle() (model.Candle, bool) {
	if len(h.Completed) == 0 {
		return model.Candle{}, false
	}
	return h.Completed[len(h.Completed)-1], true
}

// DayRange returns the high and low across completed candles plus the
// in-progress candle.
func (h *SymbolHistory) DayRange() (high, low int64) {
	high, low = h.Current.High, h.Current.Low
	for i := range h.Completed {
		if h.Completed[i].High > high {
			high = h.Completed[i].High
		}
		if h.Completed[i].Low < low {
			low = h.Completed[i].Low
		}
	}
	return high, low
}

// Aggregator builds fixed-interval OHLCV candles from a stream of ticks.
// Candle volume is derived from deltas of the session-cumulative volume
// carried on each tick. Designed for single-goroutine usage (one aggregator
// per shard) — no locks needed.
type Aggregator struct {
	histories map[string]*SymbolHistory

	// OnCandleClosed is called with each finalized non-empty candle (optional).
	OnCandleClosed func(model.Candle)
	// OnLateTick is called when a tick for an already-closed block is dropped.
	OnLateTick func()
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		histories: make(map[string]*SymbolHistory, 256),
	}
}

// History returns the state for a symbol, or nil if no tick has been seen.
func (a *Aggregator) History(symbol string) *SymbolHistory {
	return a.histories[symbol]
}

// Symbols returns the number of tracked symbols.
func (a *Aggregator) Symbols() int {
	return len(a.histories)
}

// Ingest incorporates one tick into the symbol's candle state and returns the
// updated history. intervalSeconds controls the block length; capacity bounds
// the completed-candle window (oldest evicted first).
//
// A cumulative volume below the current candle's baseline means the session
// counter reset: the delta is clamped to zero and the tick's volume becomes
// the fresh baseline.
func (a *Aggregator) Ingest(tick model.Tick, intervalSeconds int64, capacity int) *SymbolHistory {
	block := tick.TS.Unix() / intervalSeconds

	h, exists := a.histories[tick.Symbol]
	if !exists {
		h = &SymbolHistory{
			Symbol:       tick.Symbol,
			CurrentBlock: block,
			Current:      seedCandle(tick, block, intervalSeconds),
			SessionLow:   lowOf(tick),
			PrevClose:    prevCloseOf(tick),
			LastTS:       tick.TS,
		}
		a.histories[tick.Symbol] = h
		return h
	}

	if block < h.CurrentBlock {
		// Late tick — belongs to an already-closed block, drop it
		if a.OnLateTick != nil {
			a.OnLateTick()
		}
		return h
	}

	// Running day low: prefer the feed's session low, fall back to trade price
	if l := lowOf(tick); l < h.SessionLow {
		h.SessionLow = l
	}
	if pc := prevCloseOf(tick); pc > 0 {
		h.PrevClose = pc
	}

	if block > h.CurrentBlock {
		// Block rolled over — finalize the old candle first.
		// Zero-volume candles are discarded so no-trade intervals
		// never drag the volume averages down.
		if h.Current.Volume > 0 {
			h.Completed = append(h.Completed, h.Current)
			if len(h.Completed) > capacity {
				h.Completed = h.Completed[1:]
			}
			if a.OnCandleClosed != nil {
				a.OnCandleClosed(h.Current)
			}
		}
		h.CurrentBlock = block
		h.Current = seedCandle(tick, block, intervalSeconds)
		h.LastTS = tick.TS
		return h
	}

	// Same block — update OHLC and the volume delta
	c := &h.Current
	if tick.Price > c.High {
		c.High = tick.Price
	}
	if tick.Price < c.Low {
		c.Low = tick.Price
	}
	c.Close = tick.Price

	delta := tick.CumVolume - c.StartVolume
	if delta < 0 {
		// Session volume counter reset (new session or feed restart):
		// clamp and re-baseline instead of emitting a negative delta.
		c.StartVolume = tick.CumVolume
		delta = 0
	}
	c.Volume = delta
	h.LastTS = tick.TS

	return h
}

// seedCandle starts a zero-volume candle at the tick price with the tick's
// cumulative volume as baseline.
func seedCandle(tick model.Tick, block, intervalSeconds int64) model.Candle {
	return model.Candle{
		Symbol:      tick.Symbol,
		Block:       block,
		TS:          time.Unix(block*intervalSeconds, 0).UTC(),
		Open:        tick.Price,
		High:        tick.Price,
		Low:         tick.Price,
		Close:       tick.Price,
		Volume:      0,
		StartVolume: tick.CumVolume,
	}
}

func lowOf(tick model.Tick) int64 {
	if tick.SessionLow > 0 {
		return tick.SessionLow
	}
	return tick.Price
}

func prevCloseOf(tick model.Tick) int64 {
	if tick.PrevClose > 0 {
		return tick.PrevClose
	}
	return tick.Price
}
