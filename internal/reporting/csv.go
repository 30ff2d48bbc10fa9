package reporting

import (
	"fmt"
	"strings"

	"dip-strategy-lab/internal/domain"
)

// RenderTradesCSV renders a trade ledger as a CSV string.
func RenderTradesCSV(trades []*domain.TradeRecord) string {
	var sb strings.Builder

	// Header
	sb.WriteString("trade_id,run_id,source,symbol,direction,entry_time,exit_time,entry_date,")
	sb.WriteString("shares,entry_price,exit_price,target_price,stop_price,hit_target,hit_stop,")
	sb.WriteString("dip_pct,pnl,pnl_pct,taf_fee,cat_fee,total_fees,equity_after\n")

	// Rows
	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%d,%d,%s,%d,%.4f,%.4f,%.4f,%.4f,%t,%t,%.4f,%.2f,%.4f,%.2f,%.2f,%.2f,%.2f\n",
			t.TradeID,
			t.RunID,
			t.Source,
			t.Symbol,
			t.Direction,
			t.EntryTimeMs,
			t.ExitTimeMs,
			t.EntryDate,
			t.Shares,
			t.EntryPrice,
			t.ExitPrice,
			t.TargetPrice,
			t.StopPrice,
			t.HitTarget,
			t.HitStop,
			t.DipPct,
			t.PnL,
			t.PnLPct,
			t.TAFFee,
			t.CATFee,
			t.TotalFees,
			t.EquityAfter,
		))
	}

	return sb.String()
}

// RenderEquityCSV renders an equity curve as a CSV string.
func RenderEquityCSV(curve []*domain.EquityCurvePoint) string {
	var sb strings.Builder

	sb.WriteString("timestamp_ms,equity\n")
	for _, p := range curve {
		sb.WriteString(fmt.Sprintf("%d,%.2f\n", p.TimestampMs, p.Equity))
	}

	return sb.String()
}
