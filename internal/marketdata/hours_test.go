package marketdata

import (
	"testing"
	"time"
)

func TestSessionOpenMs(t *testing.T) {
	// Noon UTC on 2024-01-10.
	ts := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC).UnixMilli()

	open := time.UnixMilli(SessionOpenMs(ts)).In(Eastern())
	if open.Hour() != SessionOpenHour || open.Minute() != SessionOpenMinute {
		t.Errorf("session open = %02d:%02d ET, want 09:30", open.Hour(), open.Minute())
	}
	if open.Year() != 2024 || open.Month() != time.January || open.Day() != 10 {
		t.Errorf("session open landed on %v, want 2024-01-10", open)
	}
}

func TestSessionCloseMs(t *testing.T) {
	ts := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC).UnixMilli()

	closeAt := time.UnixMilli(SessionCloseMs(ts)).In(Eastern())
	if closeAt.Hour() != SessionCloseHour || closeAt.Minute() != SessionCloseMinute {
		t.Errorf("session close = %02d:%02d ET, want 16:00", closeAt.Hour(), closeAt.Minute())
	}
}

func TestSessionTimesUseUTCCalendarDate(t *testing.T) {
	// 01:00 UTC on Jan 11 is still Jan 10 evening in New York; the session
	// maps to the bar's UTC date, Jan 11.
	ts := time.Date(2024, 1, 11, 1, 0, 0, 0, time.UTC).UnixMilli()

	open := time.UnixMilli(SessionOpenMs(ts)).In(Eastern())
	if open.Day() != 11 {
		t.Errorf("session open landed on day %d, want 11", open.Day())
	}
}

func TestSessionOrdering(t *testing.T) {
	ts := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC).UnixMilli()
	if SessionOpenMs(ts) >= SessionCloseMs(ts) {
		t.Error("session open must precede session close")
	}
}
