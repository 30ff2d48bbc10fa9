package domain

import (
	"sort"
	"time"
)

// PriceBar is a single OHLCV bar for a symbol. Bars are externally supplied
// and immutable; a series is ordered by timestamp ascending.
type PriceBar struct {
	Symbol      string
	TimestampMs int64 // bar open timestamp (ms, UTC)
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
}

// CalendarDate returns the bar's raw calendar date as YYYY-MM-DD in UTC.
// Same-day trade comparisons use this value, never display-remapped times.
func (b PriceBar) CalendarDate() string {
	return time.UnixMilli(b.TimestampMs).UTC().Format("2006-01-02")
}

// SortBars orders a bar series by timestamp ascending in place.
func SortBars(bars []PriceBar) {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].TimestampMs < bars[j].TimestampMs
	})
}
