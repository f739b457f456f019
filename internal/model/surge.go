package model

// SurgeMetrics holds the volume/momentum measurements computed for one symbol
// on each tick. Transient: recomputed from SymbolHistory every evaluation,
// never stored outside an Alert snapshot.
type SurgeMetrics struct {
	CurrentVolume      int64   `json:"current_volume"`      // in-progress candle volume
	IntradayAvgVolume  float64 `json:"intraday_avg_volume"` // mean of all completed candles
	Last2AvgVolume     float64 `json:"last2_avg_volume"`    // mean of the 2 most recent
	ExceedsIntradayAvg bool    `json:"exceeds_intraday_avg"`
	ExceedsLast2Avg    bool    `json:"exceeds_last2_avg"`
	GainFromPrevCandle float64 `json:"gain_from_prev_candle"` // % vs prev completed close
	GainFromDayLow     float64 `json:"gain_from_day_low"`     // % vs running session low
}
