package model

import (
	"encoding/json"
	"time"
)

// Quote is the live per-symbol snapshot consumed by the dashboard.
// Updated on every valid tick; readers always receive copies.
type Quote struct {
	Symbol     string    `json:"symbol"`
	Price      int64     `json:"price"`      // paisa
	CumVolume  int64     `json:"cum_volume"` // session-cumulative volume
	PctChange  float64   `json:"pct_change"`
	PrevClose  int64     `json:"prev_close"`  // paisa
	SessionLow int64     `json:"session_low"` // paisa
	TS         time.Time `json:"ts"`
}

// JSON returns the JSON-encoded quote (ignoring errors for hot-path usage).
func (q *Quote) JSON() []byte {
	b, _ := json.Marshal(q)
	return b
}
