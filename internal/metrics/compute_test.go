package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dip-strategy-lab/internal/domain"
)

const dayMs = int64(86400000)

func sampleTrades() []domain.ClosedTrade {
	return []domain.ClosedTrade{
		{Symbol: "AAPL", ExitTimeMs: 1000, PnL: 100, PnLPct: 2.0, EquityAfter: 10100},
		{Symbol: "AAPL", ExitTimeMs: 2000, PnL: -50, PnLPct: -1.0, EquityAfter: 10050},
		{Symbol: "MSFT", ExitTimeMs: 3000, PnL: 30, PnLPct: 0.6, EquityAfter: 10080},
	}
}

func TestComputeBasics(t *testing.T) {
	s := Compute(sampleTrades(), 10000, 0, 365*dayMs)

	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.InDelta(t, 100.0*2/3, s.WinRate, 1e-9)

	assert.InDelta(t, 80, s.TotalPnL, 1e-9)
	assert.InDelta(t, 0.8, s.TotalReturn, 1e-9)
	assert.InDelta(t, 130.0/50.0, s.ProfitFactor, 1e-9)
	assert.InDelta(t, 10080, s.FinalCapital, 1e-9)

	// One-year span annualizes to the total return.
	assert.InDelta(t, 0.8, s.AnnualizedReturn, 1e-9)

	// Worst decline on the realized equity path: 10100 -> 10050.
	assert.InDelta(t, 50.0/10100.0*100, s.MaxDrawdown, 1e-9)

	// mean/stddev of [2.0, -1.0, 0.6] scaled by sqrt(252).
	assert.InDelta(t, 5.640, s.SharpeRatio, 1e-3)
}

func TestComputeEmptyLedger(t *testing.T) {
	s := Compute(nil, 10000, 0, dayMs)
	assert.Equal(t, 0, s.TotalTrades)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.SharpeRatio)
	assert.InDelta(t, 10000, s.FinalCapital, 1e-9)
}

func TestComputeSingleTradeNoSharpe(t *testing.T) {
	trades := []domain.ClosedTrade{
		{Symbol: "AAPL", ExitTimeMs: 1000, PnL: 100, PnLPct: 2.0, EquityAfter: 10100},
	}
	s := Compute(trades, 10000, 0, dayMs)
	assert.Zero(t, s.SharpeRatio, "sharpe is undefined for a single trade")
}

func TestComputeProfitFactorNoLosses(t *testing.T) {
	trades := []domain.ClosedTrade{
		{Symbol: "AAPL", ExitTimeMs: 1000, PnL: 100, PnLPct: 2.0, EquityAfter: 10100},
		{Symbol: "MSFT", ExitTimeMs: 2000, PnL: 40, PnLPct: 0.8, EquityAfter: 10140},
	}
	s := Compute(trades, 10000, 0, dayMs)
	assert.Zero(t, s.ProfitFactor, "profit factor is reported as 0 without losses")
}

func TestComputeAnnualizeCompounds(t *testing.T) {
	// 10% over half a year compounds to 21% annualized.
	trades := []domain.ClosedTrade{
		{Symbol: "AAPL", ExitTimeMs: 1000, PnL: 1000, PnLPct: 10, EquityAfter: 11000},
	}
	s := Compute(trades, 10000, 0, 365*dayMs/2)
	assert.InDelta(t, 21.0, s.AnnualizedReturn, 1e-6)
}

func TestComputeZeroCapital(t *testing.T) {
	s := Compute(sampleTrades(), 0, 0, dayMs)
	assert.Zero(t, s.TotalReturn, "return is undefined without capital")
}

func TestAnnualizedFromCurve(t *testing.T) {
	curve := []domain.EquityCurvePoint{
		{TimestampMs: 0, Equity: 10000},
		{TimestampMs: 365 * dayMs, Equity: 11000},
	}
	assert.InDelta(t, 10.0, AnnualizedFromCurve(curve), 1e-9)

	assert.Zero(t, AnnualizedFromCurve(nil))
	assert.Zero(t, AnnualizedFromCurve(curve[:1]))
	assert.Zero(t, AnnualizedFromCurve([]domain.EquityCurvePoint{
		{TimestampMs: 0, Equity: 0},
		{TimestampMs: dayMs, Equity: 100},
	}))
}

func TestMaxDrawdownFromCurve(t *testing.T) {
	curve := []domain.EquityCurvePoint{
		{TimestampMs: 1, Equity: 10000},
		{TimestampMs: 2, Equity: 12000},
		{TimestampMs: 3, Equity: 9000},
		{TimestampMs: 4, Equity: 11000},
	}
	assert.InDelta(t, 25.0, MaxDrawdownFromCurve(curve), 1e-9)
	assert.Zero(t, MaxDrawdownFromCurve(nil))

	rising := []domain.EquityCurvePoint{
		{TimestampMs: 1, Equity: 10000},
		{TimestampMs: 2, Equity: 10500},
	}
	assert.Zero(t, MaxDrawdownFromCurve(rising))
}
