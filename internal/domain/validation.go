package domain

import "fmt"

// Anomaly type codes.
const (
	AnomalyPriceTolerance   = "price_tolerance"
	AnomalyPnLMath          = "pnl_math"
	AnomalyMarketHours      = "market_hours"
	AnomalyWeekendTrade     = "weekend_trade"
	AnomalyTPSLConflict     = "tp_sl_conflict"
	AnomalyInvalidTimestamp = "invalid_timestamp"
)

// Anomaly is a detected mismatch between a recorded trade and either computed
// expectation or external ground truth. Anomalies are ephemeral: the validator
// regenerates them every iteration.
type Anomaly struct {
	Type       string  `json:"type"`
	TradeIndex int     `json:"trade_index"`
	Symbol     string  `json:"symbol"`
	Field      string  `json:"field,omitempty"` // entry_price, exit_price, entry_time, exit_time
	Recorded   float64 `json:"recorded,omitempty"`
	Actual     float64 `json:"actual,omitempty"` // ground truth or recomputed value
	DiffPct    float64 `json:"diff_pct,omitempty"`
	Message    string  `json:"message"`
}

// NewPriceToleranceAnomaly builds a price deviation anomaly for one price field.
func NewPriceToleranceAnomaly(field string, recorded, actual, diff float64) Anomaly {
	return Anomaly{
		Type:     AnomalyPriceTolerance,
		Field:    field,
		Recorded: recorded,
		Actual:   actual,
		DiffPct:  diff * 100,
		Message: fmt.Sprintf("%s $%.2f differs from market $%.2f by %.1f%%",
			field, recorded, actual, diff*100),
	}
}

// NewPnLMathAnomaly builds a P&L recomputation mismatch anomaly.
func NewPnLMathAnomaly(recorded, expected float64) Anomaly {
	return Anomaly{
		Type:     AnomalyPnLMath,
		Recorded: recorded,
		Actual:   expected,
		Message: fmt.Sprintf("P&L mismatch: expected $%.2f, recorded $%.2f",
			expected, recorded),
	}
}

// NewMarketHoursAnomaly flags a timestamp whose exchange-local hour falls
// outside the extended session window.
func NewMarketHoursAnomaly(field string, hourET int) Anomaly {
	return Anomaly{
		Type:  AnomalyMarketHours,
		Field: field,
		Message: fmt.Sprintf("%s at %d:00 ET is outside the 4AM-8PM window",
			field, hourET),
	}
}

// NewWeekendAnomaly flags a timestamp falling on an exchange-local weekend.
func NewWeekendAnomaly(field, dayName string) Anomaly {
	return Anomaly{
		Type:    AnomalyWeekendTrade,
		Field:   field,
		Message: fmt.Sprintf("%s on %s (weekend)", field, dayName),
	}
}

// NewTPSLConflictAnomaly flags a trade recording both exits at once.
func NewTPSLConflictAnomaly() Anomaly {
	return Anomaly{
		Type:    AnomalyTPSLConflict,
		Message: "both take profit and stop loss marked as hit",
	}
}

// NewInvalidTimestampAnomaly flags a timestamp that failed to parse as a
// valid instant. A bad timestamp is reported, never silently skipped.
func NewInvalidTimestampAnomaly(field string, raw int64) Anomaly {
	return Anomaly{
		Type:    AnomalyInvalidTimestamp,
		Field:   field,
		Message: fmt.Sprintf("%s value %d is not a valid timestamp", field, raw),
	}
}

// Correction type codes.
const (
	CorrectionPnLRecalc = "pnl_recalculation"
	CorrectionPrice     = "price_correction"
	CorrectionFlagged   = "flagged"
)

// Correction describes one repair (or a flag for an unrepairable anomaly).
// Corrections apply to a fresh copy of the trade set each iteration.
type Correction struct {
	Type       string  `json:"type"`
	TradeIndex int     `json:"trade_index"`
	Field      string  `json:"field,omitempty"`
	OldValue   float64 `json:"old_value,omitempty"`
	NewValue   float64 `json:"new_value,omitempty"`
	Issue      string  `json:"issue,omitempty"` // anomaly type, for flagged corrections
	Message    string  `json:"message,omitempty"`
}

// Validation statuses.
const (
	StatusPassed    = "passed"
	StatusCorrected = "corrected"
	StatusFailed    = "failed"
)

// ValidationResult is the terminal outcome of one validation run.
type ValidationResult struct {
	RunID          string       `json:"run_id"`
	Status         string       `json:"status"`
	TotalChecked   int          `json:"total_trades_checked"`
	Anomalies      []Anomaly    `json:"anomalies"`
	Corrections    []Correction `json:"corrections"`
	Suggestions    []string     `json:"suggestions"`
	IterationsUsed int          `json:"iterations_used"`
}
