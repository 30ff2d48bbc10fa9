package validation

import (
	"context"
	"math"
	"time"

	"dip-strategy-lab/internal/domain"
	"dip-strategy-lab/internal/lookup"
	"dip-strategy-lab/internal/marketdata"
)

// Extended-session window, exchange-local hours. The close boundary 20:00:00
// exactly is accepted.
const (
	sessionHourMin = 4
	sessionHourMax = 20
)

// checkTrade runs every check against one trade and returns its anomalies in
// a fixed order. TradeIndex and Symbol are stamped by the merge step.
func (v *Validator) checkTrade(ctx context.Context, t domain.TradeRecord, tolerance float64) []domain.Anomaly {
	var anomalies []domain.Anomaly
	anomalies = append(anomalies, v.checkPriceTolerance(ctx, t, tolerance)...)
	anomalies = append(anomalies, checkPnLMath(t, v.pnlTolerance)...)
	anomalies = append(anomalies, checkMarketHours(t)...)
	anomalies = append(anomalies, checkWeekends(t)...)
	anomalies = append(anomalies, checkTPSLConflict(t)...)
	return anomalies
}

// checkPriceTolerance compares entry and exit prices against the ground-truth
// close nearest each recorded timestamp. A failed market lookup skips that
// one comparison.
func (v *Validator) checkPriceTolerance(ctx context.Context, t domain.TradeRecord, tolerance float64) []domain.Anomaly {
	var issues []domain.Anomaly
	if t.Symbol == "" {
		return issues
	}

	fields := []struct {
		name  string
		tsMs  int64
		price float64
	}{
		{"entry_price", t.EntryTimeMs, t.EntryPrice},
		{"exit_price", t.ExitTimeMs, t.ExitPrice},
	}

	for _, f := range fields {
		if f.tsMs <= 0 || f.price <= 0 {
			continue
		}
		actual, ok := v.marketPrice(ctx, t.Symbol, f.tsMs)
		if !ok || actual <= 0 {
			continue
		}
		diff := math.Abs(f.price-actual) / actual
		if diff > tolerance {
			issues = append(issues, domain.NewPriceToleranceAnomaly(f.name, f.price, actual, diff))
		}
	}
	return issues
}

// marketPrice fetches the minute-bar close nearest the timestamp. Any
// provider failure downgrades to "data unavailable" for this one lookup.
func (v *Validator) marketPrice(ctx context.Context, symbol string, tsMs int64) (float64, bool) {
	date := time.UnixMilli(tsMs).UTC()
	bars, err := v.provider.IntradayPrices(ctx, symbol, date, 1)
	if err != nil || len(bars) == 0 {
		return 0, false
	}
	price, err := lookup.NearestClose(tsMs, bars)
	if err != nil {
		return 0, false
	}
	return price, true
}

// checkPnLMath recomputes (exit-entry)*shares - fees and compares against the
// recorded value within an absolute tolerance.
func checkPnLMath(t domain.TradeRecord, tolerance float64) []domain.Anomaly {
	if t.EntryPrice <= 0 || t.ExitPrice <= 0 || t.Shares <= 0 {
		return nil
	}
	expected := (t.ExitPrice-t.EntryPrice)*float64(t.Shares) - t.TotalFees
	if math.Abs(t.PnL-expected) <= tolerance {
		return nil
	}
	return []domain.Anomaly{domain.NewPnLMathAnomaly(t.PnL, expected)}
}

// checkMarketHours flags timestamps whose exchange-local hour lies outside
// [04:00, 20:00). A non-positive timestamp is its own anomaly rather than a
// silent skip.
func checkMarketHours(t domain.TradeRecord) []domain.Anomaly {
	var issues []domain.Anomaly
	for _, f := range timeFields(t) {
		if f.tsMs <= 0 {
			issues = append(issues, domain.NewInvalidTimestampAnomaly(f.name, f.tsMs))
			continue
		}
		et := time.UnixMilli(f.tsMs).In(marketdata.Eastern())
		hour := et.Hour()
		if hour >= sessionHourMin && hour < sessionHourMax {
			continue
		}
		if hour == sessionHourMax && et.Minute() == 0 && et.Second() == 0 {
			continue
		}
		issues = append(issues, domain.NewMarketHoursAnomaly(f.name, hour))
	}
	return issues
}

// checkWeekends flags timestamps falling on an exchange-local Saturday or
// Sunday. Invalid timestamps are already reported by the hours check.
func checkWeekends(t domain.TradeRecord) []domain.Anomaly {
	var issues []domain.Anomaly
	for _, f := range timeFields(t) {
		if f.tsMs <= 0 {
			continue
		}
		et := time.UnixMilli(f.tsMs).In(marketdata.Eastern())
		if wd := et.Weekday(); wd == time.Saturday || wd == time.Sunday {
			issues = append(issues, domain.NewWeekendAnomaly(f.name, wd.String()))
		}
	}
	return issues
}

// checkTPSLConflict flags a trade recording both exit reasons at once.
func checkTPSLConflict(t domain.TradeRecord) []domain.Anomaly {
	if t.HitTarget && t.HitStop {
		return []domain.Anomaly{domain.NewTPSLConflictAnomaly()}
	}
	return nil
}

type timeField struct {
	name string
	tsMs int64
}

func timeFields(t domain.TradeRecord) [2]timeField {
	return [2]timeField{
		{"entry_time", t.EntryTimeMs},
		{"exit_time", t.ExitTimeMs},
	}
}
