// Package idhash computes deterministic identifiers for backtest runs and
// trade records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(sorted symbols|interval|start_ms|end_ms|dip|hold|tp|sl|size|capital)
// Returns hex-encoded hash (64 characters). Two runs with identical
// parameters share an ID, so re-running a sweep cell is idempotent.
func ComputeRunID(
	symbols []string,
	interval string,
	startMs, endMs int64,
	dipThreshold float64,
	holdDays int,
	takeProfit, stopLoss, positionSize, initialCapital float64,
) string {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	data := fmt.Sprintf("%s|%s|%d|%d|%g|%d|%g|%g|%g|%g",
		strings.Join(sorted, ","),
		interval,
		startMs,
		endMs,
		dipThreshold,
		holdDays,
		takeProfit,
		stopLoss,
		positionSize,
		initialCapital,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(run_id|symbol|entry_time|exit_time)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(runID, symbol string, entryTimeMs, exitTimeMs int64) string {
	data := fmt.Sprintf("%s|%s|%d|%d", runID, symbol, entryTimeMs, exitTimeMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
