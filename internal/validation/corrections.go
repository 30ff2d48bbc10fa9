package validation

import "dip-strategy-lab/internal/domain"

// buildCorrections maps each anomaly to its repair. Price and P&L anomalies
// are auto-correctable; everything else is flagged with the original message
// and leaves the trade untouched.
func buildCorrections(anomalies []domain.Anomaly) []domain.Correction {
	corrections := make([]domain.Correction, 0, len(anomalies))
	for _, a := range anomalies {
		switch a.Type {
		case domain.AnomalyPnLMath:
			corrections = append(corrections, domain.Correction{
				Type:       domain.CorrectionPnLRecalc,
				TradeIndex: a.TradeIndex,
				OldValue:   a.Recorded,
				NewValue:   a.Actual,
			})

		case domain.AnomalyPriceTolerance:
			corrections = append(corrections, domain.Correction{
				Type:       domain.CorrectionPrice,
				TradeIndex: a.TradeIndex,
				Field:      a.Field,
				OldValue:   a.Recorded,
				NewValue:   a.Actual,
			})

		default:
			corrections = append(corrections, domain.Correction{
				Type:       domain.CorrectionFlagged,
				TradeIndex: a.TradeIndex,
				Issue:      a.Type,
				Message:    a.Message,
			})
		}
	}
	return corrections
}

// applyCorrections produces the next working set: a fresh copy of the trades
// with every auto-correction applied. A price correction also recomputes P&L
// from the corrected price pair and the recorded fees.
func applyCorrections(trades []domain.TradeRecord, corrections []domain.Correction) []domain.TradeRecord {
	next := make([]domain.TradeRecord, len(trades))
	copy(next, trades)

	for _, c := range corrections {
		idx := c.TradeIndex
		if idx < 0 || idx >= len(next) {
			continue
		}

		switch c.Type {
		case domain.CorrectionPnLRecalc:
			next[idx].PnL = c.NewValue

		case domain.CorrectionPrice:
			switch c.Field {
			case "entry_price":
				next[idx].EntryPrice = c.NewValue
			case "exit_price":
				next[idx].ExitPrice = c.NewValue
			default:
				continue
			}
			t := &next[idx]
			if t.EntryPrice > 0 && t.ExitPrice > 0 && t.Shares > 0 {
				t.PnL = (t.ExitPrice-t.EntryPrice)*float64(t.Shares) - t.TotalFees
			}
		}
	}
	return next
}
