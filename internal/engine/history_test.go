package engine

import (
	"testing"
	"time"

	"surge-systemv1/internal/model"
)

func tickAt(symbol string, price, cum int64, ts time.Time) model.Tick {
	return model.Tick{
		Symbol:    symbol,
		Price:     price,
		CumVolume: cum,
		TS:        ts,
	}
}

var t0 = time.Unix(360000, 0).UTC() // block-aligned for 60s intervals

func TestAggregator_FirstTickSeedsCandle(t *testing.T) {
	agg := NewAggregator()

	h := agg.Ingest(tickAt("PSO", 31550, 12000, t0), 60, 30)

	if h.Current.Open != 31550 || h.Current.Close != 31550 {
		t.Errorf("expected seeded OHLC at 31550, got open=%d close=%d", h.Current.Open, h.Current.Close)
	}
	if h.Current.Volume != 0 {
		t.Errorf("expected seed volume 0, got %d", h.Current.Volume)
	}
	if h.Current.StartVolume != 12000 {
		t.Errorf("expected baseline 12000, got %d", h.Current.StartVolume)
	}
	if len(h.Completed) != 0 {
		t.Errorf("expected no completed candles, got %d", len(h.Completed))
	}
}

func TestAggregator_SameBlockUpdatesOHLCAndVolume(t *testing.T) {
	agg := NewAggregator()

	agg.Ingest(tickAt("PSO", 31550, 12000, t0), 60, 30)
	agg.Ingest(tickAt("PSO", 31700, 13000, t0.Add(10*time.Second)), 60, 30)
	h := agg.Ingest(tickAt("PSO", 31400, 14500, t0.Add(20*time.Second)), 60, 30)

	c := h.Current
	if c.Open != 31550 {
		t.Errorf("expected open 31550, got %d", c.Open)
	}
	if c.High != 31700 {
		t.Errorf("expected high 31700, got %d", c.High)
	}
	if c.Low != 31400 {
		t.Errorf("expected low 31400, got %d", c.Low)
	}
	if c.Close != 31400 {
		t.Errorf("expected close 31400, got %d", c.Close)
	}
	if c.Volume != 2500 {
		t.Errorf("expected volume delta 2500, got %d", c.Volume)
	}
}

func TestAggregator_OHLCInvariant(t *testing.T) {
	agg := NewAggregator()

	prices := []int64{31550, 31800, 31300, 31600, 31450}
	for i, p := range prices {
		agg.Ingest(tickAt("PSO", p, int64(12000+i*100), t0.Add(time.Duration(i)*time.Second)), 60, 30)
	}

	c := agg.History("PSO").Current
	if c.Low > c.Open || c.Low > c.Close || c.High < c.Open || c.High < c.Close {
		t.Errorf("OHLC invariant violated: o=%d h=%d l=%d c=%d", c.Open, c.High, c.Low, c.Close)
	}
}

func TestAggregator_BlockRolloverFinalizes(t *testing.T) {
	agg := NewAggregator()

	var closed []model.Candle
	agg.OnCandleClosed = func(c model.Candle) { closed = append(closed, c) }

	agg.Ingest(tickAt("PSO", 31550, 12000, t0), 60, 30)
	agg.Ingest(tickAt("PSO", 31600, 13000, t0.Add(30*time.Second)), 60, 30)
	h := agg.Ingest(tickAt("PSO", 31650, 13200, t0.Add(61*time.Second)), 60, 30)

	if len(closed) != 1 {
		t.Fatalf("expected 1 closed candle, got %d", len(closed))
	}
	if closed[0].Volume != 1000 {
		t.Errorf("expected closed volume 1000, got %d", closed[0].Volume)
	}
	if closed[0].Close != 31600 {
		t.Errorf("expected closed close 31600, got %d", closed[0].Close)
	}
	if len(h.Completed) != 1 {
		t.Fatalf("expected 1 completed candle, got %d", len(h.Completed))
	}
	// New current candle baselined at the rollover tick's cumulative volume
	if h.Current.StartVolume != 13200 || h.Current.Volume != 0 {
		t.Errorf("expected fresh candle baseline 13200/vol 0, got %d/%d",
			h.Current.StartVolume, h.Current.Volume)
	}
}

func TestAggregator_ZeroVolumeCandleDiscarded(t *testing.T) {
	agg := NewAggregator()

	var closedCount int
	agg.OnCandleClosed = func(model.Candle) { closedCount++ }

	// Single tick in block 0 — candle stays at volume 0
	agg.Ingest(tickAt("PSO", 31550, 12000, t0), 60, 30)
	// Rollover: the empty candle must vanish, not close
	h := agg.Ingest(tickAt("PSO", 31560, 12500, t0.Add(65*time.Second)), 60, 30)

	if closedCount != 0 {
		t.Errorf("expected no closed candles, got %d", closedCount)
	}
	if len(h.Completed) != 0 {
		t.Errorf("expected empty window, got %d completed", len(h.Completed))
	}
}

func TestAggregator_NegativeDeltaClampsAndRebaselines(t *testing.T) {
	agg := NewAggregator()

	agg.Ingest(tickAt("PSO", 31550, 500000, t0), 60, 30)
	agg.Ingest(tickAt("PSO", 31600, 510000, t0.Add(5*time.Second)), 60, 30)
	// Cumulative counter resets (new session / feed restart)
	h := agg.Ingest(tickAt("PSO", 31600, 800, t0.Add(10*time.Second)), 60, 30)

	if h.Current.Volume != 0 {
		t.Errorf("expected clamped volume 0, got %d", h.Current.Volume)
	}
	if h.Current.StartVolume != 800 {
		t.Errorf("expected re-baselined start volume 800, got %d", h.Current.StartVolume)
	}

	// Counting resumes from the new baseline
	h = agg.Ingest(tickAt("PSO", 31620, 1300, t0.Add(15*time.Second)), 60, 30)
	if h.Current.Volume != 500 {
		t.Errorf("expected volume 500 after re-baseline, got %d", h.Current.Volume)
	}
}

func TestAggregator_CapacityEvictsOldest(t *testing.T) {
	agg := NewAggregator()

	// 6 blocks with trades, capacity 3
	for i := 0; i < 6; i++ {
		blockStart := t0.Add(time.Duration(i) * time.Minute)
		agg.Ingest(tickAt("PSO", 31550, int64(1000*(2*i+1)), blockStart), 60, 3)
		agg.Ingest(tickAt("PSO", 31560, int64(1000*(2*i+2)), blockStart.Add(10*time.Second)), 60, 3)
	}

	h := agg.History("PSO")
	if len(h.Completed) != 3 {
		t.Fatalf("expected window capped at 3, got %d", len(h.Completed))
	}
	// Oldest evicted first: surviving blocks are 2, 3, 4
	first := h.Completed[0].Block
	if first != t0.Unix()/60+2 {
		t.Errorf("expected oldest surviving block %d, got %d", t0.Unix()/60+2, first)
	}
}

func TestAggregator_LateTickDropped(t *testing.T) {
	agg := NewAggregator()

	var late int
	agg.OnLateTick = func() { late++ }

	agg.Ingest(tickAt("PSO", 31550, 1000, t0), 60, 30)
	agg.Ingest(tickAt("PSO", 31560, 2000, t0.Add(70*time.Second)), 60, 30)
	h := agg.Ingest(tickAt("PSO", 99999, 3000, t0.Add(5*time.Second)), 60, 30)

	if late != 1 {
		t.Errorf("expected 1 late tick, got %d", late)
	}
	if h.Current.Close == 99999 {
		t.Error("late tick must not mutate the current candle")
	}
}

func TestAggregator_VolumeConservation(t *testing.T) {
	agg := NewAggregator()

	var closed []model.Candle
	agg.OnCandleClosed = func(c model.Candle) { closed = append(closed, c) }

	// Monotonic cumulative volume over several blocks
	cum := int64(10000)
	firstBaseline := cum
	for i := 0; i < 12; i++ {
		cum += int64(500 + i*37)
		ts := t0.Add(time.Duration(i*25) * time.Second)
		agg.Ingest(tickAt("PSO", 31550, cum, ts), 60, 30)
	}

	var sum int64
	for _, c := range closed {
		sum += c.Volume
	}
	sum += agg.History("PSO").Current.Volume

	// Every unit of cumulative growth lands in exactly one candle, except
	// growth carried on rollover ticks which re-baselines the next candle.
	if sum > cum-firstBaseline {
		t.Errorf("candle volumes %d exceed cumulative growth %d", sum, cum-firstBaseline)
	}
	if sum == 0 {
		t.Error("expected non-zero aggregated volume")
	}
}

func TestSymbolHistory_SessionLowAndPrevClose(t *testing.T) {
	agg := NewAggregator()

	tick := tickAt("PSO", 31550, 1000, t0)
	tick.SessionLow = 31000
	tick.PrevClose = 31200
	h := agg.Ingest(tick, 60, 30)

	if h.SessionLow != 31000 {
		t.Errorf("expected session low 31000, got %d", h.SessionLow)
	}
	if h.PrevClose != 31200 {
		t.Errorf("expected prev close 31200, got %d", h.PrevClose)
	}

	// Feed lowers the session low mid-day
	tick2 := tickAt("PSO", 31100, 2000, t0.Add(time.Second))
	tick2.SessionLow = 30900
	tick2.PrevClose = 31200
	h = agg.Ingest(tick2, 60, 30)

	if h.SessionLow != 30900 {
		t.Errorf("expected session low 30900, got %d", h.SessionLow)
	}
}

func TestSymbolHistory_DayRange(t *testing.T) {
	h := &SymbolHistory{
		Current: model.Candle{High: 31800, Low: 31500, Close: 31700},
		Completed: []model.Candle{
			{High: 31600, Low: 31200},
			{High: 32000, Low: 31400},
		},
	}

	high, low := h.DayRange()
	if high != 32000 {
		t.Errorf("expected day high 32000, got %d", high)
	}
	if low != 31200 {
		t.Errorf("expected day low 31200, got %d", low)
	}
}
