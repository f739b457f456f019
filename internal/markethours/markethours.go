// Package markethours answers "is the PSX trading right now" and schedules
// the feed-session lifecycle around the exchange calendar. The engine core
// never consults this package — it only gates when the feed connection is
// established and torn down.
package markethours

import (
	"fmt"
	"time"
)

// PKT is Pakistan Standard Time (UTC+5, no DST).
var PKT = time.FixedZone("PKT", 5*3600)

// PSX regular session in PKT.
const (
	OpenHour    = 9
	OpenMinute  = 30
	CloseHour   = 15
	CloseMinute = 30

	// Connect the feed slightly before the bell so the first ticks of the
	// session are never missed.
	ConnectMinutesBefore = 2
)

// IsMarketOpen returns true if t falls within PSX trading hours
// (9:30 AM – 3:30 PM PKT, Mon–Fri, excluding holidays).
func IsMarketOpen(t time.Time) bool {
	pkt := t.In(PKT)
	wd := pkt.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	if IsHoliday(pkt) {
		return false
	}
	hm := pkt.Hour()*60 + pkt.Minute()
	return hm >= OpenHour*60+OpenMinute && hm < CloseHour*60+CloseMinute
}

// IsWeekday returns true if t is Mon–Fri.
func IsWeekday(t time.Time) bool {
	wd := t.In(PKT).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsTradingDay returns true if t is a weekday and not a holiday.
func IsTradingDay(t time.Time) bool {
	pkt := t.In(PKT)
	return IsWeekday(pkt) && !IsHoliday(pkt)
}

// NextOpen returns the next market open time (9:30 AM PKT on the next
// trading day). If t is before today's open on a trading day, returns
// today's open.
func NextOpen(t time.Time) time.Time {
	pkt := t.In(PKT)

	todayOpen := time.Date(pkt.Year(), pkt.Month(), pkt.Day(), OpenHour, OpenMinute, 0, 0, PKT)
	if pkt.Before(todayOpen) && IsTradingDay(pkt) {
		return todayOpen
	}

	d := pkt.AddDate(0, 0, 1)
	for i := 0; i < 10; i++ { // max 10 days ahead (holidays + weekends)
		if IsTradingDay(d) {
			return time.Date(d.Year(), d.Month(), d.Day(), OpenHour, OpenMinute, 0, 0, PKT)
		}
		d = d.AddDate(0, 0, 1)
	}
	// Fallback: next day
	return time.Date(pkt.Year(), pkt.Month(), pkt.Day()+1, OpenHour, OpenMinute, 0, 0, PKT)
}

// ConnectTime returns the feed connect time for the given open time.
func ConnectTime(openTime time.Time) time.Time {
	return openTime.Add(-time.Duration(ConnectMinutesBefore) * time.Minute)
}

// TodayClose returns today's market close time (3:30 PM PKT).
func TodayClose(t time.Time) time.Time {
	pkt := t.In(PKT)
	return time.Date(pkt.Year(), pkt.Month(), pkt.Day(), CloseHour, CloseMinute, 0, 0, PKT)
}

// TimeUntilClose returns the duration until today's close.
// Returns 0 if the market is already closed.
func TimeUntilClose(t time.Time) time.Duration {
	cl := TodayClose(t)
	d := cl.Sub(t.In(PKT))
	if d < 0 {
		return 0
	}
	return d
}

// TimeUntilOpen returns the duration until the next market open.
func TimeUntilOpen(t time.Time) time.Duration {
	return NextOpen(t).Sub(t.In(PKT))
}

// StatusString returns a human-readable market status.
func StatusString(t time.Time) string {
	if IsMarketOpen(t) {
		d := TimeUntilClose(t)
		return fmt.Sprintf("Market Open — closes in %s", fmtDur(d))
	}
	next := NextOpen(t)
	d := next.Sub(t)
	pkt := next.In(PKT)
	return fmt.Sprintf("Market Closed — opens %s %s (%s)",
		pkt.Weekday().String()[:3], pkt.Format("15:04"), fmtDur(d))
}

func fmtDur(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
