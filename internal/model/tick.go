package model

import "time"

// Tick represents a single market data tick from the PSX feed.
// Price is stored as int64 in paisa (1 PKR = 100 paisa) to avoid float drift.
// CumVolume is the session-cumulative traded volume for the symbol: it is
// monotonically non-decreasing within a trading session and resets only when
// a new session begins.
type Tick struct {
	Symbol     string    `json:"symbol"`
	Price      int64     `json:"price"`       // paisa (last traded price)
	CumVolume  int64     `json:"cum_volume"`  // session-cumulative volume
	TS         time.Time `json:"ts"`          // UTC timestamp
	PrevClose  int64     `json:"prev_close"`  // paisa, last session close (0 = absent)
	PctChange  float64   `json:"pct_change"`  // % change vs previous close
	SessionLow int64     `json:"session_low"` // paisa, running day low (0 = absent)
}

// Valid reports whether the tick is well-formed enough to enter the engine.
// Malformed ticks are dropped at the ingestion boundary without mutating state.
func (t *Tick) Valid() bool {
	if t.Symbol == "" {
		return false
	}
	if t.Price <= 0 || t.CumVolume < 0 {
		return false
	}
	if t.TS.IsZero() {
		return false
	}
	// NaN compares unequal to itself
	if t.PctChange != t.PctChange {
		return false
	}
	return true
}
