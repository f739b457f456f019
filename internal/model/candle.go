package model

import (
	"encoding/json"
	"time"
)

// Candle represents a fixed-interval OHLCV candle for a single symbol.
// All prices are in paisa (int64) to avoid floating-point drift.
// Volume is the delta of session-cumulative volume accrued during the
// interval, not the cumulative total; StartVolume records the cumulative
// baseline at interval start so the delta can be recomputed from ticks.
type Candle struct {
	Symbol      string    `json:"symbol"`
	Block       int64     `json:"block"` // interval id = ts / interval_seconds
	TS          time.Time `json:"ts"`    // bucket start time (UTC)
	Open        int64     `json:"open"`  // paisa
	High        int64     `json:"high"`  // paisa
	Low         int64     `json:"low"`   // paisa
	Close       int64     `json:"close"` // paisa
	Volume      int64     `json:"volume"`
	StartVolume int64     `json:"start_volume"`
}

// Green reports whether the candle closed above its open.
func (c *Candle) Green() bool {
	return c.Close > c.Open
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}
