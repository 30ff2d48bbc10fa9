package lookup

import (
	"errors"

	"dip-strategy-lab/internal/domain"
)

// ErrNoBarData is returned when a lookup runs against an empty bar series.
var ErrNoBarData = errors.New("no bar data available")

// CloseAt returns the close of the bar at or before the target timestamp.
// If no bar opens before the target, the first available close is returned.
// Returns ErrNoBarData if the series is empty.
func CloseAt(target int64, bars []domain.PriceBar) (float64, error) {
	if len(bars) == 0 {
		return 0, ErrNoBarData
	}

	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].TimestampMs <= target {
			return bars[i].Close, nil
		}
	}

	return bars[0].Close, nil
}

// NearestClose returns the close of the bar whose timestamp is nearest the
// target, in either direction. Ground-truth price checks use this to match a
// recorded fill time against the closest observed bar.
// Returns ErrNoBarData if the series is empty.
func NearestClose(target int64, bars []domain.PriceBar) (float64, error) {
	if len(bars) == 0 {
		return 0, ErrNoBarData
	}

	best := bars[0]
	bestDist := absDiff(target, best.TimestampMs)
	for _, b := range bars[1:] {
		if d := absDiff(target, b.TimestampMs); d < bestDist {
			best = b
			bestDist = d
		}
	}

	return best.Close, nil
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
