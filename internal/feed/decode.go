package feed

import (
	"encoding/json"
	"math"
	"time"

	"surge-systemv1/internal/model"
)

// envelope is the outer frame of every feed message.
type envelope struct {
	Message string `json:"message"`
	Data    struct {
		Type string   `json:"type"`
		Data tickBody `json:"data"`
	} `json:"data"`
}

// tickBody is the vendor's tick payload. Prices arrive as PKR decimals,
// volume as the session-cumulative count, pch as a fraction (0.0123 = 1.23%).
type tickBody struct {
	Symbol     string  `json:"s"`
	Close      float64 `json:"c"`
	Volume     float64 `json:"v"`
	TS         int64   `json:"t"` // epoch seconds
	LDCP       float64 `json:"ldcp"`
	PrevClose  float64 `json:"pc"`
	SessionLow float64 `json:"l"`
	PctChange  float64 `json:"pch"`
}

// Decode parses one raw feed frame. Returns ok=false for frames that are not
// trade ticks (connection acks, heartbeats) — those are silently ignored by
// the engine. A malformed frame returns an error.
func Decode(raw []byte) (model.Tick, bool, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return model.Tick{}, false, err
	}

	if env.Message != "Received tick" || env.Data.Type != "tick" {
		return model.Tick{}, false, nil
	}

	body := env.Data.Data

	// LDCP (last day close price) is preferred; pc is the older field name.
	prevClose := body.LDCP
	if prevClose == 0 {
		prevClose = body.PrevClose
	}

	tick := model.Tick{
		Symbol:     body.Symbol,
		Price:      toPaisa(body.Close),
		CumVolume:  int64(body.Volume),
		TS:         time.Unix(body.TS, 0).UTC(),
		PrevClose:  toPaisa(prevClose),
		PctChange:  body.PctChange * 100,
		SessionLow: toPaisa(body.SessionLow),
	}
	return tick, true, nil
}

// toPaisa converts a PKR decimal price to int64 paisa.
func toPaisa(rupees float64) int64 {
	if math.IsNaN(rupees) || math.IsInf(rupees, 0) {
		return 0
	}
	return int64(math.Round(rupees * 100))
}
