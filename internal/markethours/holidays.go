package markethours

import (
	"fmt"
	"time"
)

// PSX holidays for 2026.
// Source: PSX official notice board. Lunar dates are tentative.
var psxHolidays2026 = []struct {
	month time.Month
	day   int
}{
	{time.February, 5},  // Kashmir Day
	{time.March, 20},    // Eid-ul-Fitr (tentative)
	{time.March, 23},    // Pakistan Day / Eid-ul-Fitr (tentative)
	{time.March, 24},    // Eid-ul-Fitr (tentative)
	{time.May, 1},       // Labour Day
	{time.May, 27},      // Eid-ul-Azha (tentative)
	{time.May, 28},      // Eid-ul-Azha (tentative)
	{time.May, 29},      // Eid-ul-Azha (tentative)
	{time.June, 25},     // Ashura (tentative)
	{time.June, 26},     // Ashura (tentative)
	{time.August, 14},   // Independence Day
	{time.August, 25},   // Eid Milad-un-Nabi (tentative)
	{time.November, 9},  // Iqbal Day
	{time.December, 25}, // Quaid-e-Azam Day
}

// pre-compute for fast lookup
var holidaySet map[string]bool

func init() {
	holidaySet = make(map[string]bool, len(psxHolidays2026))
	for _, h := range psxHolidays2026 {
		holidaySet[holidayKey(2026, h.month, h.day)] = true
	}
}

func holidayKey(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// IsHoliday returns true if t (in PKT) is a PSX holiday.
// Only 2026 is loaded; other years fall through to false.
func IsHoliday(t time.Time) bool {
	pkt := t.In(PKT)
	return holidaySet[holidayKey(pkt.Year(), pkt.Month(), pkt.Day())]
}
