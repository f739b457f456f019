package engine

import "surge-systemv1/internal/model"

// Sub-score caps. The factors sum to at most 100; Score clamps anyway.
const (
	maxVolumeSurgePts = 30
	maxMomentumPts    = 25
	maxDayRangePts    = 20
	maxVolQualityPts  = 15
	maxConsistencyPts = 10
)

// Score converts surge metrics into a 0–100 composite signal score.
// Deterministic and pure: it reads the metrics and the candle window only.
func Score(m model.SurgeMetrics, h *SymbolHistory) int {
	total := volumeSurgePts(m) +
		momentumPts(m.GainFromPrevCandle) +
		dayRangePts(h) +
		volumeQualityPts(m) +
		consistencyPts(h)

	if total > 100 {
		total = 100
	}
	return total
}

// StrengthFor maps a score to its strength band.
func StrengthFor(score int) model.Strength {
	switch {
	case score >= 80:
		return model.StrengthStrong
	case score >= 55:
		return model.StrengthMedium
	default:
		return model.StrengthWeak
	}
}

// volumeSurgePts scores the ratio of current volume to the intraday average.
func volumeSurgePts(m model.SurgeMetrics) int {
	avg := m.IntradayAvgVolume
	if avg <= 0 {
		avg = 1
	}
	ratio := float64(m.CurrentVolume) / avg
	switch {
	case ratio >= 3:
		return maxVolumeSurgePts
	case ratio >= 2:
		return 22
	case ratio >= 1.5:
		return 15
	case ratio >= 1.2:
		return 10
	default:
		return 0
	}
}

func momentumPts(gainPct float64) int {
	switch {
	case gainPct >= 2:
		return maxMomentumPts
	case gainPct >= 1:
		return 18
	case gainPct >= 0.5:
		return 10
	case gainPct > 0:
		return 5
	default:
		return 0
	}
}

// dayRangePts scores where the close sits inside the day's high-low range.
func dayRangePts(h *SymbolHistory) int {
	high, low := h.DayRange()
	rng := high - low
	if rng <= 0 {
		rng = 1
	}
	position := float64(h.Current.Close-low) / float64(rng) * 100
	switch {
	case position > 90:
		return maxDayRangePts
	case position > 75:
		return 15
	case position > 60:
		return 10
	case position > 50:
		return 5
	default:
		return 0
	}
}

func volumeQualityPts(m model.SurgeMetrics) int {
	switch {
	case m.ExceedsIntradayAvg && m.ExceedsLast2Avg:
		return maxVolQualityPts
	case m.ExceedsIntradayAvg || m.ExceedsLast2Avg:
		return 8
	default:
		return 0
	}
}

// consistencyPts counts green candles among the last 3 completed.
func consistencyPts(h *SymbolHistory) int {
	n := len(h.Completed)
	start := n - 3
	if start < 0 {
		start = 0
	}
	green := 0
	for i := start; i < n; i++ {
		if h.Completed[i].Green() {
			green++
		}
	}
	switch green {
	case 3:
		return maxConsistencyPts
	case 2:
		return 7
	case 1:
		return 4
	default:
		return 0
	}
}
