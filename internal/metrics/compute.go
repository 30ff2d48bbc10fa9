// Package metrics computes summary statistics over a closed-trade ledger and
// an equity curve.
package metrics

import (
	"math"
	"sort"

	"dip-strategy-lab/internal/domain"
)

// Trading days per year, used to annualize the Sharpe ratio.
const tradingDaysPerYear = 252

// Summary is the aggregate view of one backtest run. Percent-valued fields
// carry percent units (e.g. 1.5 means 1.5%).
type Summary struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`

	TotalPnL         float64 `json:"total_pnl"`
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	ProfitFactor     float64 `json:"profit_factor"`

	FinalCapital float64 `json:"final_capital"`
}

// Compute calculates trade-level statistics from a ledger. Trades are sorted
// by ExitTimeMs ASC, Symbol ASC before computing order-dependent metrics
// (MaxDrawdown). The caller may override AnnualizedReturn and MaxDrawdown
// with equity-curve figures, which account for overlapping positions.
func Compute(trades []domain.ClosedTrade, initialCapital float64, startMs, endMs int64) Summary {
	n := len(trades)
	if n == 0 {
		return Summary{FinalCapital: initialCapital}
	}

	sorted := make([]domain.ClosedTrade, n)
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ExitTimeMs != sorted[j].ExitTimeMs {
			return sorted[i].ExitTimeMs < sorted[j].ExitTimeMs
		}
		return sorted[i].Symbol < sorted[j].Symbol
	})

	wins, losses := 0, 0
	totalPnL := 0.0
	grossWin, grossLoss := 0.0, 0.0
	returns := make([]float64, n)
	for i, t := range sorted {
		totalPnL += t.PnL
		returns[i] = t.PnLPct
		if t.PnL > 0 {
			wins++
			grossWin += t.PnL
		} else {
			losses++
			grossLoss += -t.PnL
		}
	}

	totalReturn := 0.0
	if initialCapital > 0 {
		totalReturn = totalPnL / initialCapital * 100
	}

	return Summary{
		TotalTrades:   n,
		WinningTrades: wins,
		LosingTrades:  losses,
		WinRate:       float64(wins) / float64(n) * 100,

		TotalPnL:         totalPnL,
		TotalReturn:      totalReturn,
		AnnualizedReturn: annualize(totalReturn, startMs, endMs),
		MaxDrawdown:      drawdownFromTrades(sorted, initialCapital),
		SharpeRatio:      sharpe(returns),
		ProfitFactor:     profitFactor(grossWin, grossLoss),

		FinalCapital: initialCapital + totalPnL,
	}
}

// AnnualizedFromCurve compounds the growth rate observed across the equity
// curve. Degenerate curves (single point, non-positive start) yield 0.
func AnnualizedFromCurve(curve []domain.EquityCurvePoint) float64 {
	if len(curve) < 2 {
		return 0
	}
	first, last := curve[0], curve[len(curve)-1]
	days := float64(last.TimestampMs-first.TimestampMs) / 86400000.0
	if days <= 0 || first.Equity <= 0 || last.Equity <= 0 {
		return 0
	}
	growth := last.Equity / first.Equity
	return (math.Pow(growth, 365.0/days) - 1) * 100
}

// MaxDrawdownFromCurve returns the largest peak-to-trough decline of the
// equity series, in percent of the peak.
func MaxDrawdownFromCurve(curve []domain.EquityCurvePoint) float64 {
	maxDD := 0.0
	peak := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// annualize compounds a total percent return over the run's calendar span.
func annualize(totalReturnPct float64, startMs, endMs int64) float64 {
	days := float64(endMs-startMs) / 86400000.0
	if days <= 0 {
		return totalReturnPct
	}
	growth := 1 + totalReturnPct/100
	if growth <= 0 {
		return -100
	}
	return (math.Pow(growth, 365.0/days) - 1) * 100
}

// drawdownFromTrades walks the realized equity path (EquityAfter per trade,
// seeded with initial capital) and returns the largest decline in percent.
func drawdownFromTrades(sorted []domain.ClosedTrade, initialCapital float64) float64 {
	maxDD := 0.0
	peak := initialCapital
	for _, t := range sorted {
		if t.EquityAfter > peak {
			peak = t.EquityAfter
		}
		if peak > 0 {
			dd := (peak - t.EquityAfter) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpe annualizes mean/stddev of per-trade percent returns. Returns 0 when
// the dispersion is zero or there are fewer than two trades.
func sharpe(returns []float64) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(n)

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(n - 1)
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear)
}

// profitFactor is gross wins over gross losses. Undefined without losses;
// reported as 0 in that case so the value stays JSON-serializable.
func profitFactor(grossWin, grossLoss float64) float64 {
	if grossLoss == 0 {
		return 0
	}
	return grossWin / grossLoss
}
