package engine

import (
	"testing"

	"surge-systemv1/internal/model"
)

func TestScore_VolumeSurgeBands(t *testing.T) {
	h := &SymbolHistory{Current: model.Candle{Close: 100, High: 100, Low: 100}}

	cases := []struct {
		current int64
		avg     float64
		want    int
	}{
		{300, 100, 30}, // ratio 3
		{200, 100, 22}, // ratio 2
		{150, 100, 15}, // ratio 1.5
		{120, 100, 10}, // ratio 1.2
		{110, 100, 0},  // below 1.2
	}
	for _, tc := range cases {
		m := model.SurgeMetrics{CurrentVolume: tc.current, IntradayAvgVolume: tc.avg}
		got := Score(m, h)
		if got != tc.want {
			t.Errorf("volume %d vs avg %g: expected %d, got %d", tc.current, tc.avg, tc.want, got)
		}
	}
}

func TestScore_MomentumMonotonic(t *testing.T) {
	h := &SymbolHistory{Current: model.Candle{Close: 100, High: 100, Low: 100}}

	prev := -1
	for _, gain := range []float64{0.1, 0.3, 0.5, 0.8, 1.0, 1.5, 2.0, 3.0} {
		m := model.SurgeMetrics{GainFromPrevCandle: gain}
		got := Score(m, h)
		if got < prev {
			t.Errorf("momentum score decreased at gain %g: %d < %d", gain, got, prev)
		}
		prev = got
	}

	// A 1.5% gain must strictly outrank a 0.3% gain
	low := Score(model.SurgeMetrics{GainFromPrevCandle: 0.3}, h)
	high := Score(model.SurgeMetrics{GainFromPrevCandle: 1.5}, h)
	if high <= low {
		t.Errorf("expected 1.5%% gain to outscore 0.3%%: %d vs %d", high, low)
	}
}

func TestScore_DayRangePosition(t *testing.T) {
	// Close at the very top of the day range
	top := &SymbolHistory{
		Current:   model.Candle{Close: 31990, High: 32000, Low: 31980},
		Completed: []model.Candle{{High: 32000, Low: 31000}},
	}
	// Same metrics, close at the bottom
	bottom := &SymbolHistory{
		Current:   model.Candle{Close: 31010, High: 31020, Low: 31000},
		Completed: []model.Candle{{High: 32000, Low: 31000}},
	}

	m := model.SurgeMetrics{}
	if Score(m, top) <= Score(m, bottom) {
		t.Errorf("close near day high should outscore close near day low: %d vs %d",
			Score(m, top), Score(m, bottom))
	}
}

func TestScore_VolumeQuality(t *testing.T) {
	h := &SymbolHistory{Current: model.Candle{Close: 100, High: 100, Low: 100}}

	both := Score(model.SurgeMetrics{ExceedsIntradayAvg: true, ExceedsLast2Avg: true}, h)
	one := Score(model.SurgeMetrics{ExceedsIntradayAvg: true}, h)
	neither := Score(model.SurgeMetrics{}, h)

	if both != 15 || one != 8 || neither != 0 {
		t.Errorf("expected quality scores 15/8/0, got %d/%d/%d", both, one, neither)
	}
}

func TestScore_Consistency(t *testing.T) {
	green := model.Candle{Open: 100, Close: 110}
	red := model.Candle{Open: 110, Close: 100}

	cases := []struct {
		window []model.Candle
		want   int
	}{
		{[]model.Candle{green, green, green}, 10},
		{[]model.Candle{red, green, green}, 7},
		{[]model.Candle{red, red, green}, 4},
		{[]model.Candle{red, red, red}, 0},
		// Only the last 3 count
		{[]model.Candle{green, green, red, red, red}, 0},
	}
	for i, tc := range cases {
		h := &SymbolHistory{
			Current:   model.Candle{Close: 100, High: 100, Low: 100},
			Completed: tc.window,
		}
		got := Score(model.SurgeMetrics{}, h)
		if got != tc.want {
			t.Errorf("case %d: expected consistency %d, got %d", i, tc.want, got)
		}
	}
}

func TestScore_ClampedTo100(t *testing.T) {
	green := model.Candle{Open: 100, Close: 110, High: 110, Low: 100}
	h := &SymbolHistory{
		Current:   model.Candle{Close: 999, High: 1000, Low: 998},
		Completed: []model.Candle{green, green, green},
	}
	m := model.SurgeMetrics{
		CurrentVolume:      10000,
		IntradayAvgVolume:  100,
		ExceedsIntradayAvg: true,
		ExceedsLast2Avg:    true,
		GainFromPrevCandle: 5.0,
	}

	got := Score(m, h)
	if got > 100 {
		t.Errorf("score must be clamped to 100, got %d", got)
	}
	if got != 100 {
		t.Errorf("maxed factors should hit exactly 100, got %d", got)
	}
}

func TestScore_Deterministic(t *testing.T) {
	h := &SymbolHistory{
		Current:   model.Candle{Close: 31550, High: 31600, Low: 31400},
		Completed: []model.Candle{{Open: 31000, Close: 31200, High: 31300, Low: 30900, Volume: 500}},
	}
	m := model.SurgeMetrics{
		CurrentVolume:      1200,
		IntradayAvgVolume:  500,
		ExceedsIntradayAvg: true,
		GainFromPrevCandle: 1.1,
	}

	if Score(m, h) != Score(m, h) {
		t.Error("score must be deterministic for identical inputs")
	}
}

func TestStrengthFor(t *testing.T) {
	cases := []struct {
		score int
		want  model.Strength
	}{
		{0, model.StrengthWeak},
		{54, model.StrengthWeak},
		{55, model.StrengthMedium},
		{79, model.StrengthMedium},
		{80, model.StrengthStrong},
		{100, model.StrengthStrong},
	}
	for _, tc := range cases {
		if got := StrengthFor(tc.score); got != tc.want {
			t.Errorf("score %d: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}
