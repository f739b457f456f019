package model

import (
	"math"
	"testing"
	"time"
)

func validTick() Tick {
	return Tick{
		Symbol:    "PSO",
		Price:     31550,
		CumVolume: 1000,
		TS:        time.Unix(360000, 0),
	}
}

func TestTick_Valid(t *testing.T) {
	if tick := validTick(); !tick.Valid() {
		t.Fatal("baseline tick must be valid")
	}

	cases := []struct {
		name   string
		mutate func(*Tick)
	}{
		{"empty symbol", func(tk *Tick) { tk.Symbol = "" }},
		{"zero price", func(tk *Tick) { tk.Price = 0 }},
		{"negative price", func(tk *Tick) { tk.Price = -1 }},
		{"negative cum volume", func(tk *Tick) { tk.CumVolume = -1 }},
		{"zero timestamp", func(tk *Tick) { tk.TS = time.Time{} }},
		{"NaN pct change", func(tk *Tick) { tk.PctChange = math.NaN() }},
	}
	for _, tc := range cases {
		tick := validTick()
		tc.mutate(&tick)
		if tick.Valid() {
			t.Errorf("%s: expected invalid", tc.name)
		}
	}

	// Zero cumulative volume is fine (start of session)
	tick := validTick()
	tick.CumVolume = 0
	if !tick.Valid() {
		t.Error("zero cum volume must be valid")
	}
}

func TestCandle_Green(t *testing.T) {
	up := Candle{Open: 100, Close: 101}
	if !up.Green() {
		t.Error("close above open must be green")
	}
	flat := Candle{Open: 100, Close: 100}
	if flat.Green() {
		t.Error("flat candle is not green")
	}
	down := Candle{Open: 100, Close: 99}
	if down.Green() {
		t.Error("close below open is not green")
	}
}

func TestItoa(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{42, "42"},
		{-42, "-42"},
		{1234567890, "1234567890"},
	}
	for _, tc := range cases {
		if got := Itoa(tc.in); got != tc.want {
			t.Errorf("Itoa(%d): expected %s, got %s", tc.in, tc.want, got)
		}
	}
}
