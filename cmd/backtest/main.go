package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dip-strategy-lab/internal/backtest"
	"dip-strategy-lab/internal/marketdata"
	"dip-strategy-lab/internal/observability"
	"dip-strategy-lab/internal/storage"
	chstore "dip-strategy-lab/internal/storage/clickhouse"
	"dip-strategy-lab/internal/storage/memory"
	"dip-strategy-lab/internal/storage/migrations"
	pgstore "dip-strategy-lab/internal/storage/postgres"
)

func main() {
	// Strategy parameters
	symbols := flag.String("symbols", "", "Comma-separated symbols to backtest (required)")
	startDate := flag.String("start", "", "Range start, YYYY-MM-DD (required)")
	endDate := flag.String("end", "", "Range end, YYYY-MM-DD (required)")
	interval := flag.String("interval", "1d", "Bar granularity: 1d, 60m, 30m, 15m, 5m, 1m")
	dipThreshold := flag.Float64("dip-threshold", 0.05, "Fractional drop from trailing high to trigger entry")
	holdDays := flag.Int("hold-days", 5, "Hold-period expiry in whole days")
	takeProfit := flag.Float64("take-profit", 0.10, "Fractional gain target")
	stopLoss := flag.Float64("stop-loss", 0.05, "Fractional loss stop")
	positionSize := flag.Float64("position-size", 0.10, "Fraction of available capital per entry")
	initialCapital := flag.Float64("initial-capital", 10000, "Starting capital in dollars")
	pdtMode := flag.String("pdt", "auto", "Pattern-day-trade rule: auto, on, off")
	includeTAF := flag.Bool("taf-fees", false, "Include TAF fees on exits")
	includeCAT := flag.Bool("cat-fees", false, "Include CAT fees on entries and exits")

	// Market data
	apiKey := flag.String("api-key", os.Getenv("POLYGON_API_KEY"), "Market data API key (or POLYGON_API_KEY)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	persist := flag.Bool("persist", false, "Persist bars, trades and equity curve to storage")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")
	metricsAddr := flag.String("metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9100)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	// Validate required flags
	if *symbols == "" {
		logger.Fatal("--symbols is required")
	}
	if *startDate == "" || *endDate == "" {
		logger.Fatal("--start and --end are required")
	}
	if *apiKey == "" {
		logger.Fatal("--api-key or POLYGON_API_KEY is required")
	}

	startMs, err := parseDate(*startDate)
	if err != nil {
		logger.Fatalf("invalid --start: %v", err)
	}
	endMs, err := parseDate(*endDate)
	if err != nil {
		logger.Fatalf("invalid --end: %v", err)
	}

	cfg := backtest.Config{
		Symbols:        splitSymbols(*symbols),
		StartMs:        startMs,
		EndMs:          endMs,
		Interval:       *interval,
		DipThreshold:   *dipThreshold,
		HoldDays:       *holdDays,
		TakeProfit:     *takeProfit,
		StopLoss:       *stopLoss,
		PositionSize:   *positionSize,
		InitialCapital: *initialCapital,
		IncludeTAFFees: *includeTAF,
		IncludeCATFees: *includeCAT,
	}
	switch strings.ToLower(*pdtMode) {
	case "auto":
	case "on":
		on := true
		cfg.PDTEnabled = &on
	case "off":
		off := false
		cfg.PDTEnabled = &off
	default:
		logger.Fatalf("invalid --pdt: %s. Must be auto, on, or off", *pdtMode)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Optional metrics endpoint
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Printf("metrics server: %v", err)
			}
		}()
	}

	// Create stores
	var barStore storage.BarStore
	var tradeStore storage.TradeStore
	var equityStore storage.EquityCurveStore

	if *persist {
		if *useMemory {
			barStore = memory.NewBarStore()
			tradeStore = memory.NewTradeStore()
			equityStore = memory.NewEquityCurveStore()
		} else {
			if *postgresDSN == "" {
				logger.Fatal("--postgres-dsn is required with --persist (trade ledger)")
			}
			if *clickhouseDSN == "" {
				logger.Fatal("--clickhouse-dsn is required with --persist (bars and equity curves)")
			}

			// PostgreSQL for the trade ledger
			pool, err := pgstore.NewPool(ctx, *postgresDSN)
			if err != nil {
				logger.Fatalf("connect to postgres: %v", err)
			}
			defer pool.Close()
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				logger.Fatalf("postgres migrations: %v", err)
			}
			tradeStore = pgstore.NewTradeStore(pool)

			// ClickHouse for time series
			conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
			if err != nil {
				logger.Fatalf("connect to clickhouse: %v", err)
			}
			defer conn.Close()
			barStore = chstore.NewBarStore(conn)
			equityStore = chstore.NewEquityCurveStore(conn)
		}
	}

	// Build the runner over a cached vendor client
	provider := marketdata.NewCachingProvider(marketdata.NewPolygonClient(*apiKey))
	runner, err := backtest.NewRunner(backtest.RunnerOptions{
		Provider:    provider,
		BarStore:    barStore,
		TradeStore:  tradeStore,
		EquityStore: equityStore,
	})
	if err != nil {
		logger.Fatalf("create runner: %v", err)
	}

	logger.Printf("Running backtest: symbols=%s range=%s..%s interval=%s",
		*symbols, *startDate, *endDate, *interval)

	result, err := runner.Run(ctx, cfg)
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		printResult(result)
	}
}

// parseDate converts a YYYY-MM-DD date to UTC midnight in unix ms.
func parseDate(s string) (int64, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

// splitSymbols splits a comma-separated list, trimming and uppercasing.
func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		sym := strings.ToUpper(strings.TrimSpace(part))
		if sym != "" {
			out = append(out, sym)
		}
	}
	return out
}

// printResult outputs a human-readable run summary.
func printResult(r *backtest.Result) {
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Run ID:             %s\n", r.RunID)
	fmt.Println()

	fmt.Println("Summary:")
	fmt.Printf("  Total Trades:     %d\n", r.Summary.TotalTrades)
	fmt.Printf("  Win Rate:         %.2f%%\n", r.Summary.WinRate)
	fmt.Printf("  Total PnL:        $%.2f\n", r.Summary.TotalPnL)
	fmt.Printf("  Total Return:     %.2f%%\n", r.Summary.TotalReturn)
	fmt.Printf("  Annualized:       %.2f%%\n", r.Summary.AnnualizedReturn)
	fmt.Printf("  Max Drawdown:     %.2f%%\n", r.Summary.MaxDrawdown)
	fmt.Printf("  Sharpe Ratio:     %.2f\n", r.Summary.SharpeRatio)
	fmt.Printf("  Profit Factor:    %.2f\n", r.Summary.ProfitFactor)
	fmt.Printf("  Final Capital:    $%.2f\n", r.Summary.FinalCapital)
	fmt.Println()

	if len(r.Trades) > 0 {
		fmt.Println("Trades:")
		for _, t := range r.Trades {
			reason := "expiry"
			if t.HitTarget {
				reason = "target"
			} else if t.HitStop {
				reason = "stop"
			}
			fmt.Printf("  %-6s %s  %4d sh  %.2f -> %.2f  pnl $%.2f (%.2f%%)  %s\n",
				t.Symbol, t.EntryDate, t.Shares,
				t.EntryPrice, t.ExitPrice, t.PnL, t.PnLPct, reason)
		}
		fmt.Println()
	}

	if len(r.OpenPositions) > 0 {
		fmt.Println("Open Positions:")
		for _, p := range r.OpenPositions {
			fmt.Printf("  %-6s %4d sh  entry %.2f\n", p.Symbol, p.Shares, p.EntryPrice)
		}
		fmt.Println()
	}
}
