package backtest

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned for configuration problems detected before the
// simulation starts. A run never begins with a bad config.
var ErrInvalidConfig = errors.New("invalid backtest config")

// PDT protection applies below this equity threshold unless overridden.
const pdtCapitalThreshold = 25000.0

// Config holds all strategy and account parameters for one backtest run.
type Config struct {
	Symbols []string
	StartMs int64 // range start (ms, UTC), inclusive
	EndMs   int64 // range end (ms, UTC), inclusive

	Interval     string  // bar granularity: 1d, 60m, 30m, 15m, 5m, 1m
	DipThreshold float64 // fractional drop from trailing high to trigger entry
	HoldDays     int     // hold-period expiry, whole days
	TakeProfit   float64 // fractional gain target
	StopLoss     float64 // fractional loss stop
	PositionSize float64 // fraction of available capital per entry

	InitialCapital float64

	// PDTEnabled overrides the pattern-day-trade rule. When nil the rule is
	// active iff InitialCapital < $25,000.
	PDTEnabled *bool

	IncludeTAFFees bool
	IncludeCATFees bool
}

// Validate checks the config and returns ErrInvalidConfig (wrapped with
// detail) on the first problem found.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("%w: no symbols", ErrInvalidConfig)
	}
	if c.StartMs <= 0 || c.EndMs <= 0 || c.StartMs >= c.EndMs {
		return fmt.Errorf("%w: start must precede end", ErrInvalidConfig)
	}
	if _, err := ParseInterval(c.Interval); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.DipThreshold <= 0 {
		return fmt.Errorf("%w: dip threshold must be positive", ErrInvalidConfig)
	}
	if c.HoldDays < 1 {
		return fmt.Errorf("%w: hold period must be at least 1 day", ErrInvalidConfig)
	}
	if c.TakeProfit <= 0 {
		return fmt.Errorf("%w: take profit must be positive", ErrInvalidConfig)
	}
	if c.StopLoss <= 0 || c.StopLoss >= 1 {
		return fmt.Errorf("%w: stop loss must be in (0, 1)", ErrInvalidConfig)
	}
	if c.PositionSize <= 0 || c.PositionSize > 1 {
		return fmt.Errorf("%w: position size must be in (0, 1]", ErrInvalidConfig)
	}
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive", ErrInvalidConfig)
	}
	return nil
}

// PDTActive resolves the pattern-day-trade rule for this run.
func (c *Config) PDTActive() bool {
	if c.PDTEnabled != nil {
		return *c.PDTEnabled
	}
	return c.InitialCapital < pdtCapitalThreshold
}
