package feed

import (
	"math"
	"testing"
	"time"
)

func TestDecode_TickFrame(t *testing.T) {
	raw := []byte(`{"message":"Received tick","data":{"type":"tick","data":{"s":"PSO","c":315.57,"v":125000,"t":1772445600,"ldcp":310.00,"pc":309.50,"l":308.25,"pch":0.0179}}}`)

	tick, ok, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a tick frame")
	}

	if tick.Symbol != "PSO" {
		t.Errorf("expected symbol PSO, got %s", tick.Symbol)
	}
	if tick.Price != 31557 {
		t.Errorf("expected price 31557 paisa, got %d", tick.Price)
	}
	if tick.CumVolume != 125000 {
		t.Errorf("expected cum volume 125000, got %d", tick.CumVolume)
	}
	if !tick.TS.Equal(time.Unix(1772445600, 0).UTC()) {
		t.Errorf("unexpected timestamp %v", tick.TS)
	}
	// ldcp wins over pc when both are present
	if tick.PrevClose != 31000 {
		t.Errorf("expected prev close 31000 (ldcp), got %d", tick.PrevClose)
	}
	if tick.SessionLow != 30825 {
		t.Errorf("expected session low 30825, got %d", tick.SessionLow)
	}
	// pch arrives as a fraction
	if tick.PctChange < 1.789 || tick.PctChange > 1.791 {
		t.Errorf("expected pct change 1.79, got %g", tick.PctChange)
	}
}

func TestDecode_FallsBackToPCWhenNoLDCP(t *testing.T) {
	raw := []byte(`{"message":"Received tick","data":{"type":"tick","data":{"s":"OGDC","c":227.80,"v":5000,"t":1772445600,"pc":225.00,"l":224.00,"pch":0.0124}}}`)

	tick, ok, err := Decode(raw)
	if err != nil || !ok {
		t.Fatalf("expected tick, got ok=%v err=%v", ok, err)
	}
	if tick.PrevClose != 22500 {
		t.Errorf("expected prev close 22500 from pc, got %d", tick.PrevClose)
	}
}

func TestDecode_NonTickFramesIgnored(t *testing.T) {
	frames := [][]byte{
		[]byte(`{"message":"Connected","data":{}}`),
		[]byte(`{"message":"Received tick","data":{"type":"heartbeat","data":{}}}`),
		[]byte(`{"message":"","data":{"type":"tick","data":{"s":"PSO","c":1}}}`),
	}
	for i, raw := range frames {
		_, ok, err := Decode(raw)
		if err != nil {
			t.Errorf("frame %d: unexpected error: %v", i, err)
		}
		if ok {
			t.Errorf("frame %d: expected non-tick frame to be ignored", i)
		}
	}
}

func TestDecode_MalformedJSON(t *testing.T) {
	if _, _, err := Decode([]byte(`{"message":`)); err == nil {
		t.Error("expected error for malformed frame")
	}
}

func TestToPaisa(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{315.57, 31557},
		{1.5, 150},
		{0.01, 1},
		{0, 0},
	}
	for _, tc := range cases {
		if got := toPaisa(tc.in); got != tc.want {
			t.Errorf("toPaisa(%g): expected %d, got %d", tc.in, tc.want, got)
		}
	}

	if got := toPaisa(math.NaN()); got != 0 {
		t.Errorf("toPaisa(NaN): expected 0, got %d", got)
	}
	if got := toPaisa(math.Inf(1)); got != 0 {
		t.Errorf("toPaisa(+Inf): expected 0, got %d", got)
	}
}
