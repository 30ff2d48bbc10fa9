package validation

import "dip-strategy-lab/internal/domain"

// generateSuggestions returns one human-readable remediation hint per anomaly
// type still present, in a fixed order so output is deterministic.
func generateSuggestions(anomalies []domain.Anomaly) []string {
	present := make(map[string]bool, len(anomalies))
	for _, a := range anomalies {
		present[a.Type] = true
	}

	var suggestions []string
	if present[domain.AnomalyWeekendTrade] {
		suggestions = append(suggestions,
			"Weekend trades detected. Check the data source for incorrect timestamps "+
				"or ensure the backtester skips weekends.")
	}
	if present[domain.AnomalyMarketHours] {
		suggestions = append(suggestions,
			"Trades outside market hours detected. Verify the data source provides "+
				"correct timestamps and that the strategy respects trading hours.")
	}
	if present[domain.AnomalyPriceTolerance] {
		suggestions = append(suggestions,
			"Significant price deviations from market data. This may indicate stale "+
				"price data or data feed issues. Consider re-running with a different "+
				"data source.")
	}
	if present[domain.AnomalyTPSLConflict] {
		suggestions = append(suggestions,
			"Take profit and stop loss both triggered on the same trade. Review the "+
				"strategy exit logic for race conditions.")
	}
	if present[domain.AnomalyPnLMath] {
		suggestions = append(suggestions,
			"P&L calculation mismatches remain after correction. Manually verify the "+
				"fee calculations and entry/exit prices.")
	}
	if present[domain.AnomalyInvalidTimestamp] {
		suggestions = append(suggestions,
			"Trades with unparseable timestamps detected. Inspect the ingestion path "+
				"for records written with missing or zeroed time fields.")
	}
	return suggestions
}
