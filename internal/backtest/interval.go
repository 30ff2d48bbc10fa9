package backtest

import "fmt"

// Regular-session minutes per trading day, used to scale intraday lookback.
const sessionMinutes = 390

// lookbackSessions is how many sessions the trailing-high window spans,
// regardless of bar granularity.
const lookbackSessions = 20

// Interval is a parsed bar granularity.
type Interval struct {
	Minutes int  // bar length in minutes; 0 for daily
	Daily   bool
}

// ParseInterval parses a bar granularity string. Supported values: 1d, 60m,
// 30m, 15m, 5m, 1m.
func ParseInterval(s string) (Interval, error) {
	switch s {
	case "1d":
		return Interval{Daily: true}, nil
	case "60m":
		return Interval{Minutes: 60}, nil
	case "30m":
		return Interval{Minutes: 30}, nil
	case "15m":
		return Interval{Minutes: 15}, nil
	case "5m":
		return Interval{Minutes: 5}, nil
	case "1m":
		return Interval{Minutes: 1}, nil
	default:
		return Interval{}, fmt.Errorf("unsupported interval %q", s)
	}
}

// String returns the canonical interval string.
func (iv Interval) String() string {
	if iv.Daily {
		return "1d"
	}
	return fmt.Sprintf("%dm", iv.Minutes)
}

// LookbackBars returns how many bars the trailing-high window holds so it
// spans ~20 sessions at this granularity: 20 bars daily, 20 sessions worth
// of bars intraday.
func (iv Interval) LookbackBars() int {
	if iv.Daily {
		return lookbackSessions
	}
	return lookbackSessions * sessionMinutes / iv.Minutes
}
