package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", r.RunID))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.Summary.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Winning Trades | %d |\n", r.Summary.WinningTrades))
	sb.WriteString(fmt.Sprintf("| Losing Trades | %d |\n", r.Summary.LosingTrades))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", r.Summary.WinRate))
	sb.WriteString(fmt.Sprintf("| Total PnL | $%.2f |\n", r.Summary.TotalPnL))
	sb.WriteString(fmt.Sprintf("| Total Return | %.2f%% |\n", r.Summary.TotalReturn))
	sb.WriteString(fmt.Sprintf("| Annualized Return | %.2f%% |\n", r.Summary.AnnualizedReturn))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f%% |\n", r.Summary.MaxDrawdown))
	sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %.2f |\n", r.Summary.SharpeRatio))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %.2f |\n", r.Summary.ProfitFactor))
	sb.WriteString(fmt.Sprintf("| Final Capital | $%.2f |\n", r.Summary.FinalCapital))
	sb.WriteString("\n")

	// Trade ledger
	sb.WriteString("## Trades\n\n")
	if len(r.Trades) > 0 {
		sb.WriteString("| Symbol | Entry Date | Shares | Entry | Exit | Dip% | PnL | PnL% | Exit Reason |\n")
		sb.WriteString("|--------|-----------|--------|-------|------|------|-----|------|-------------|\n")
		for _, t := range r.Trades {
			reason := "expiry"
			if t.HitTarget {
				reason = "target"
			} else if t.HitStop {
				reason = "stop"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %.2f | %.2f | %.2f | %.2f | %.2f | %s |\n",
				t.Symbol, t.EntryDate, t.Shares,
				t.EntryPrice, t.ExitPrice, t.DipPct,
				t.PnL, t.PnLPct, reason))
		}
	} else {
		sb.WriteString("No trades closed during the run.\n")
	}
	sb.WriteString("\n")

	// Equity curve endpoints
	sb.WriteString("## Equity Curve\n\n")
	if n := len(r.EquityCurve); n > 0 {
		first, last := r.EquityCurve[0], r.EquityCurve[n-1]
		sb.WriteString(fmt.Sprintf("%d points, %s to %s, $%.2f to $%.2f\n",
			n,
			time.UnixMilli(first.TimestampMs).UTC().Format("2006-01-02"),
			time.UnixMilli(last.TimestampMs).UTC().Format("2006-01-02"),
			first.Equity, last.Equity))
	} else {
		sb.WriteString("No equity points recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
