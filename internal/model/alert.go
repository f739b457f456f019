package model

import (
	"encoding/json"
	"time"
)

// AlertState is the lifecycle state of a surge alert.
type AlertState string

const (
	AlertActive AlertState = "ACTIVE"
	AlertExited AlertState = "EXITED"
)

// Strength classifies a signal score into a coarse quality band.
type Strength string

const (
	StrengthWeak   Strength = "Weak"
	StrengthMedium Strength = "Medium"
	StrengthStrong Strength = "Strong"
)

// Alert is one surge episode for a symbol. Created when the entry conditions
// are satisfied, refreshed in place on every tick while the uptrend holds,
// and frozen the moment the close drops to or below the previous candle
// close. An exited alert is immutable; a later surge for the same symbol
// produces a new Alert with a fresh ID.
type Alert struct {
	ID         string       `json:"id"` // uuid, distinct per entry episode
	Symbol     string       `json:"symbol"`
	State      AlertState   `json:"state"`
	EntryPrice int64        `json:"entry_price"` // paisa, close at entry
	EntryTS    time.Time    `json:"entry_ts"`
	Price      int64        `json:"price"` // paisa, latest close while active
	Metrics    SurgeMetrics `json:"metrics"`
	Score      int          `json:"score"`    // 0–100 composite
	Strength   Strength     `json:"strength"` // Weak / Medium / Strong
	PctChange  float64      `json:"pct_change"`
	UpdatedTS  time.Time    `json:"updated_ts"`
	ExitTS     time.Time    `json:"exit_ts,omitempty"` // zero unless EXITED
	ExitPrice  int64        `json:"exit_price,omitempty"`
}

// Duration returns how long the alert has been (or was) active.
func (a *Alert) Duration(now time.Time) time.Duration {
	if a.State == AlertExited {
		return a.ExitTS.Sub(a.EntryTS)
	}
	return now.Sub(a.EntryTS)
}

// JSON returns the JSON-encoded alert (ignoring errors for hot-path usage).
func (a *Alert) JSON() []byte {
	b, _ := json.Marshal(a)
	return b
}
