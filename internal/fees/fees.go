// Package fees implements per-share regulatory fee schedules.
package fees

import "math"

// Fee schedule constants, per published FINRA/CAT rates.
const (
	tafPerShare = 0.000166
	tafCap      = 8.30
	catPerShare = 0.0000265
)

// TAFFee returns the FINRA Trading Activity Fee for a sell of the given
// share count. The raw fee is rounded up to the nearest penny and capped
// at $8.30 per trade. Returns 0 for non-positive share counts.
func TAFFee(shares int64) float64 {
	if shares <= 0 {
		return 0
	}
	fee := math.Ceil(float64(shares)*tafPerShare*100) / 100
	return math.Min(fee, tafCap)
}

// CATFee returns the Consolidated Audit Trail fee for the given share count.
// CAT applies to both sides of a trade at the NMS equity rate, uncapped.
// Returns 0 for non-positive share counts.
func CATFee(shares int64) float64 {
	if shares <= 0 {
		return 0
	}
	return float64(shares) * catPerShare
}
