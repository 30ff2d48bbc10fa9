// Package reporting renders backtest results as CSV and Markdown.
package reporting

import (
	"time"

	"dip-strategy-lab/internal/domain"
	"dip-strategy-lab/internal/metrics"
)

// Report holds everything needed to render a single run.
type Report struct {
	GeneratedAt time.Time
	RunID       string
	Summary     metrics.Summary
	Trades      []*domain.TradeRecord
	EquityCurve []*domain.EquityCurvePoint
}
