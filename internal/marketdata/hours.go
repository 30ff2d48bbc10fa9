package marketdata

import (
	"sync"
	"time"
)

// Regular US equity session boundaries, exchange-local.
const (
	SessionOpenHour    = 9
	SessionOpenMinute  = 30
	SessionCloseHour   = 16
	SessionCloseMinute = 0
)

var (
	easternOnce sync.Once
	eastern     *time.Location
)

// Eastern returns the exchange-local timezone. Falls back to a fixed EST
// offset if the zone database is unavailable.
func Eastern() *time.Location {
	easternOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.FixedZone("EST", -5*60*60)
		}
		eastern = loc
	})
	return eastern
}

// SessionOpenMs maps a bar timestamp to the session open (09:30 ET) on the
// bar's UTC calendar date. Daily-bar entries display at this instant.
func SessionOpenMs(tsMs int64) int64 {
	y, m, d := time.UnixMilli(tsMs).UTC().Date()
	return time.Date(y, m, d, SessionOpenHour, SessionOpenMinute, 0, 0, Eastern()).UnixMilli()
}

// SessionCloseMs maps a bar timestamp to the session close (16:00 ET) on the
// bar's UTC calendar date. Daily-bar exits display at this instant.
func SessionCloseMs(tsMs int64) int64 {
	y, m, d := time.UnixMilli(tsMs).UTC().Date()
	return time.Date(y, m, d, SessionCloseHour, SessionCloseMinute, 0, 0, Eastern()).UnixMilli()
}
