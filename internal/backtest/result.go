package backtest

import (
	"dip-strategy-lab/internal/domain"
	"dip-strategy-lab/internal/metrics"
)

// Result is the complete output of one simulation run. Trades are ordered by
// exit time; the equity curve holds exactly one point per tick.
type Result struct {
	RunID  string `json:"run_id"`
	Config Config `json:"-"`

	Trades      []domain.ClosedTrade      `json:"trades"`
	EquityCurve []domain.EquityCurvePoint `json:"equity_curve"`

	// OpenPositions are positions still open when the range ended. Their
	// mark-to-market value is included in Summary.FinalCapital.
	OpenPositions []domain.Position `json:"open_positions,omitempty"`

	// FinalCapital is available (uninvested) capital at the last tick.
	FinalCapital float64 `json:"final_capital"`

	Summary metrics.Summary `json:"summary"`
}
