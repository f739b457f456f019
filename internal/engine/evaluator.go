package engine

import "surge-systemv1/internal/model"

// Evaluate computes surge metrics for a symbol's current state. Pure: two
// calls on an unmutated history yield identical metrics.
//
// Returns ok=false when no completed candle exists yet — a normal transient
// state for freshly tracked symbols, not an error. The caller takes no
// lifecycle transition on that tick.
func Evaluate(h *SymbolHistory, surgeThreshold float64) (model.SurgeMetrics, bool) {
	prev, ok := h.PrevCandle()
	if !ok {
		return model.SurgeMetrics{}, false
	}

	currentVolume := h.Current.Volume

	var sum int64
	for i := range h.Completed {
		sum += h.Completed[i].Volume
	}
	intradayAvg := float64(sum) / float64(len(h.Completed))

	last2 := h.Completed
	if len(last2) > 2 {
		last2 = last2[len(last2)-2:]
	}
	var last2Sum int64
	for i := range last2 {
		last2Sum += last2[i].Volume
	}
	last2Avg := float64(last2Sum) / float64(len(last2))

	m := model.SurgeMetrics{
		CurrentVolume:      currentVolume,
		IntradayAvgVolume:  intradayAvg,
		Last2AvgVolume:     last2Avg,
		ExceedsIntradayAvg: intradayAvg > 0 && float64(currentVolume) > intradayAvg*surgeThreshold,
		ExceedsLast2Avg:    last2Avg > 0 && float64(currentVolume) > last2Avg*surgeThreshold,
	}

	close := h.Current.Close
	if prev.Close > 0 {
		m.GainFromPrevCandle = float64(close-prev.Close) / float64(prev.Close) * 100
	}
	if h.SessionLow > 0 {
		m.GainFromDayLow = float64(close-h.SessionLow) / float64(h.SessionLow) * 100
	}

	return m, true
}

// Uptrend reports whether the in-progress close is strictly above the
// previous completed candle's close. This is both the entry uptrend filter
// and the sole hold condition for an active alert (sticky semantics).
func Uptrend(h *SymbolHistory) bool {
	prev, ok := h.PrevCandle()
	if !ok {
		return false
	}
	return h.Current.Close > prev.Close
}

// EntrySignal applies the full entry decision to already-computed metrics:
// uptrend, absolute volume floor, volume surge versus the configured
// averages, and (if enabled) the minimum-gain floors.
func EntrySignal(h *SymbolHistory, m model.SurgeMetrics, cfg DetectorConfig) bool {
	if !Uptrend(h) {
		return false
	}
	if m.CurrentVolume < cfg.MinVolume {
		return false
	}

	if cfg.RequireBothAverages {
		if !m.ExceedsIntradayAvg || !m.ExceedsLast2Avg {
			return false
		}
	} else {
		if !m.ExceedsIntradayAvg && !m.ExceedsLast2Avg {
			return false
		}
	}

	if cfg.GainFloorsEnabled {
		if m.GainFromPrevCandle < cfg.MinGainFromPrevPct {
			return false
		}
		if m.GainFromDayLow < cfg.MinGainFromDayLowPct {
			return false
		}
	}

	return true
}
