package reconciliation

import (
	"time"
)

// Window is a fixed time of day bucket with a nominal settlement time
type Window struct {
	Index     int
	Label     string
	Start     time.Duration // offset from midnight, inclusive
	End       time.Duration // offset from midnight, exclusive
	SettlesAt time.Duration
}

// SettlementWindows partitions a day; indexes are 1-based and ordered
var SettlementWindows = []Window{
	{Index: 1, Label: "W1 (00:00-10:00, settled 10:30)", Start: 0, End: 10 * time.Hour, SettlesAt: 10*time.Hour + 30*time.Minute},
	{Index: 2, Label: "W2 (10:00-15:00, settled 15:30)", Start: 10 * time.Hour, End: 15 * time.Hour, SettlesAt: 15*time.Hour + 30*time.Minute},
	{Index: 3, Label: "W3 (15:00-24:00, settled 23:00)", Start: 15 * time.Hour, End: 24 * time.Hour, SettlesAt: 23 * time.Hour},
}

// WindowFor returns the window containing t's wall clock time
func WindowFor(t time.Time) Window {
	offset := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
	for _, w := range SettlementWindows {
		if offset >= w.Start && offset < w.End {
			return w
		}
	}
	return SettlementWindows[len(SettlementWindows)-1]
}

// at returns the instant offset from the start of day in loc
func at(day time.Time, offset time.Duration, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(offset)
}
