// Package backtest implements a discrete-event, multi-symbol buy-the-dip
// position simulator with same-day-trade protection, regulatory fee
// accounting and equity curve tracking.
package backtest

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"dip-strategy-lab/internal/domain"
	"dip-strategy-lab/internal/fees"
	"dip-strategy-lab/internal/marketdata"
	"dip-strategy-lab/internal/metrics"
)

// ErrNoTrades is returned when a run produced zero closed trades. Callers
// distinguish "nothing triggered" from an empty-but-valid ledger.
var ErrNoTrades = errors.New("backtest produced no trades")

const msPerDay = int64(24 * time.Hour / time.Millisecond)

// Calendar answers whether the venue trades at a given instant. A closed
// venue blocks entries for that tick; exits and equity recording still run.
type Calendar interface {
	IsMarketOpen(ctx context.Context, at time.Time) bool
}

// Engine runs one simulation over prefetched bar series. It is
// single-threaded and deterministic; concurrent runs must use separate
// Engine values.
type Engine struct {
	cfg      Config
	interval Interval
	calendar Calendar // nil means always open
}

// NewEngine validates the config and builds an engine. The calendar may be
// nil, in which case the venue is treated as always open.
func NewEngine(cfg Config, calendar Calendar) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	iv, err := ParseInterval(cfg.Interval)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, interval: iv, calendar: calendar}, nil
}

// symbolState tracks one symbol's bar cursor during the tick loop.
type symbolState struct {
	bars []domain.PriceBar
	upto int // count of bars with timestamp <= current tick
}

// barAt returns the bar whose timestamp equals the tick, if the symbol has
// one. Symbols without a bar at a tick are skipped for that tick.
func (s *symbolState) barAt(tick int64) (domain.PriceBar, bool) {
	if s.upto > 0 && s.bars[s.upto-1].TimestampMs == tick {
		return s.bars[s.upto-1], true
	}
	return domain.PriceBar{}, false
}

// recentHigh returns the max High over the trailing lookback window, which
// includes the current bar.
func (s *symbolState) recentHigh(lookback int) float64 {
	lo := s.upto - lookback
	if lo < 0 {
		lo = 0
	}
	high := 0.0
	for _, b := range s.bars[lo:s.upto] {
		if b.High > high {
			high = b.High
		}
	}
	return high
}

// Run executes the simulation over the supplied per-symbol series. Series
// should include warm-up bars before the configured start so the trailing
// high window is populated from the first tick; bars outside the range only
// feed history, never ticks. Returns ErrNoTrades when nothing closed.
func (e *Engine) Run(ctx context.Context, series map[string][]domain.PriceBar) (*Result, error) {
	// 1. Deterministic symbol order, sorted bar cursors, tick set.
	symbols := make([]string, 0, len(e.cfg.Symbols))
	states := make(map[string]*symbolState, len(e.cfg.Symbols))
	tickSet := make(map[int64]struct{})
	for _, sym := range e.cfg.Symbols {
		bars := series[sym]
		if len(bars) == 0 {
			continue
		}
		sorted := make([]domain.PriceBar, len(bars))
		copy(sorted, bars)
		domain.SortBars(sorted)

		symbols = append(symbols, sym)
		states[sym] = &symbolState{bars: sorted}
		for _, b := range sorted {
			if b.TimestampMs >= e.cfg.StartMs && b.TimestampMs <= e.cfg.EndMs {
				tickSet[b.TimestampMs] = struct{}{}
			}
		}
	}
	sort.Strings(symbols)

	ticks := make([]int64, 0, len(tickSet))
	for t := range tickSet {
		ticks = append(ticks, t)
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })

	if len(ticks) == 0 {
		return nil, ErrNoTrades
	}

	// 2. Tick loop.
	capital := e.cfg.InitialCapital
	pdt := e.cfg.PDTActive()
	lookback := e.interval.LookbackBars()

	positions := make(map[string]*domain.Position)
	lastClose := make(map[string]float64)
	var trades []domain.ClosedTrade
	curve := make([]domain.EquityCurvePoint, 0, len(ticks))

	for _, tick := range ticks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Advance cursors and refresh marks before anything trades.
		for _, sym := range symbols {
			st := states[sym]
			for st.upto < len(st.bars) && st.bars[st.upto].TimestampMs <= tick {
				st.upto++
			}
			if st.upto > 0 {
				lastClose[sym] = st.bars[st.upto-1].Close
			}
		}

		// Exit pass.
		for _, sym := range symbols {
			pos := positions[sym]
			if pos == nil {
				continue
			}
			bar, ok := states[sym].barAt(tick)
			if !ok {
				continue
			}

			sameDay := pdt && bar.CalendarDate() == pos.EntryDate

			var exitPrice float64
			var hitTarget, hitStop bool
			switch {
			case !sameDay && bar.High >= pos.TargetPrice:
				exitPrice, hitTarget = pos.TargetPrice, true
			case !sameDay && bar.Low <= pos.StopPrice:
				exitPrice, hitStop = pos.StopPrice, true
			case tick >= pos.MaxExitTimeMs:
				exitPrice = bar.Close
			default:
				continue
			}

			capital += pos.EntryCost
			delete(positions, sym)

			trade := e.closeTrade(pos, exitPrice, tick, hitTarget, hitStop)
			capital += trade.PnL
			trade.EquityAfter = capital + markToMarket(positions, lastClose)
			trades = append(trades, trade)
		}

		// Market-open gate: a closed venue blocks entries only.
		venueOpen := e.calendar == nil || e.calendar.IsMarketOpen(ctx, time.UnixMilli(tick).UTC())

		// Entry pass.
		if venueOpen {
			for _, sym := range symbols {
				if positions[sym] != nil {
					continue
				}
				st := states[sym]
				bar, ok := st.barAt(tick)
				if !ok || st.upto < lookback {
					continue
				}

				recentHigh := st.recentHigh(lookback)
				if recentHigh <= 0 {
					continue
				}
				dip := (recentHigh - bar.Close) / recentHigh
				if dip < e.cfg.DipThreshold {
					continue
				}

				shares := int64(math.Floor(capital * e.cfg.PositionSize / bar.Close))
				for shares > 0 && float64(shares)*bar.Close > capital {
					shares--
				}
				if shares <= 0 {
					continue
				}

				cost := float64(shares) * bar.Close
				capital -= cost
				positions[sym] = &domain.Position{
					Symbol:        sym,
					EntryTimeMs:   tick,
					EntryPrice:    bar.Close,
					Shares:        shares,
					TargetPrice:   bar.Close * (1 + e.cfg.TakeProfit),
					StopPrice:     bar.Close * (1 - e.cfg.StopLoss),
					MaxExitTimeMs: tick + int64(e.cfg.HoldDays)*msPerDay,
					DipPct:        dip * 100,
					EntryDate:     bar.CalendarDate(),
					EntryCost:     cost,
				}
			}
		}

		// Equity snapshot: one point per tick, positions marked at last close.
		curve = append(curve, domain.EquityCurvePoint{
			TimestampMs: e.displayExitTime(tick),
			Equity:      capital + markToMarket(positions, lastClose),
		})
	}

	if len(trades) == 0 {
		return nil, ErrNoTrades
	}

	// 3. Ledger order and summary.
	sort.SliceStable(trades, func(i, j int) bool {
		if trades[i].ExitTimeMs != trades[j].ExitTimeMs {
			return trades[i].ExitTimeMs < trades[j].ExitTimeMs
		}
		return trades[i].Symbol < trades[j].Symbol
	})

	summary := metrics.Compute(trades, e.cfg.InitialCapital, e.cfg.StartMs, e.cfg.EndMs)
	// Equity-curve figures reflect overlapping positions more accurately than
	// trade-only stats.
	summary.AnnualizedReturn = metrics.AnnualizedFromCurve(curve)
	summary.MaxDrawdown = metrics.MaxDrawdownFromCurve(curve)
	summary.FinalCapital = capital + markToMarket(positions, lastClose)

	open := make([]domain.Position, 0, len(positions))
	for _, sym := range symbols {
		if pos := positions[sym]; pos != nil {
			open = append(open, *pos)
		}
	}

	return &Result{
		Config:        e.cfg,
		Trades:        trades,
		EquityCurve:   curve,
		OpenPositions: open,
		FinalCapital:  capital,
		Summary:       summary,
	}, nil
}

// closeTrade builds the immutable ledger record for one exit. Fee toggles
// follow the configured schedule: CAT on entry, CAT and TAF on exit.
func (e *Engine) closeTrade(pos *domain.Position, exitPrice float64, exitTick int64, hitTarget, hitStop bool) domain.ClosedTrade {
	pnl := (exitPrice - pos.EntryPrice) * float64(pos.Shares)

	var tafFee, catFee float64
	if e.cfg.IncludeCATFees {
		catFee = fees.CATFee(pos.Shares) * 2
	}
	if e.cfg.IncludeTAFFees {
		tafFee = fees.TAFFee(pos.Shares)
	}
	totalFees := tafFee + catFee
	pnl -= totalFees

	return domain.ClosedTrade{
		EntryTimeMs: e.displayEntryTime(pos.EntryTimeMs),
		ExitTimeMs:  e.displayExitTime(exitTick),
		Symbol:      pos.Symbol,
		Direction:   domain.DirectionLong,
		Shares:      pos.Shares,

		EntryPrice:  pos.EntryPrice,
		ExitPrice:   exitPrice,
		TargetPrice: pos.TargetPrice,
		StopPrice:   pos.StopPrice,
		HitTarget:   hitTarget,
		HitStop:     hitStop,

		PnL:       pnl,
		PnLPct:    (exitPrice - pos.EntryPrice) / pos.EntryPrice * 100,
		DipPct:    pos.DipPct,
		EntryDate: pos.EntryDate,

		TAFFee:    tafFee,
		CATFee:    catFee,
		TotalFees: totalFees,
	}
}

// displayEntryTime remaps daily-bar timestamps to the session open. Same-day
// protection never sees these values; it compares raw calendar dates.
func (e *Engine) displayEntryTime(tsMs int64) int64 {
	if e.interval.Daily {
		return marketdata.SessionOpenMs(tsMs)
	}
	return tsMs
}

// displayExitTime remaps daily-bar timestamps to the session close.
func (e *Engine) displayExitTime(tsMs int64) int64 {
	if e.interval.Daily {
		return marketdata.SessionCloseMs(tsMs)
	}
	return tsMs
}

// markToMarket values open positions at their latest observed close.
func markToMarket(positions map[string]*domain.Position, lastClose map[string]float64) float64 {
	total := 0.0
	for sym, pos := range positions {
		price, ok := lastClose[sym]
		if !ok {
			price = pos.EntryPrice
		}
		total += float64(pos.Shares) * price
	}
	return total
}
