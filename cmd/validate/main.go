package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dip-strategy-lab/internal/domain"
	"dip-strategy-lab/internal/marketdata"
	"dip-strategy-lab/internal/publisher"
	"dip-strategy-lab/internal/storage"
	pgstore "dip-strategy-lab/internal/storage/postgres"
	"dip-strategy-lab/internal/validation"
)

func main() {
	// Input selection
	runID := flag.String("run-id", "", "Run ID whose ledger to validate")
	source := flag.String("source", "backtest", "Trade source: backtest, paper")
	tradesFile := flag.String("trades-file", "", "JSON file with trade records to validate (bypasses storage)")

	// Validator tuning
	maxIterations := flag.Int("max-iterations", validation.DefaultMaxIterations, "Self-correction iteration budget")
	priceTolerance := flag.Float64("price-tolerance", validation.DefaultPriceTolerance, "Relative price deviation tolerance")
	workers := flag.Int("workers", validation.DefaultWorkers, "Parallel check workers")

	// Market data
	apiKey := flag.String("api-key", os.Getenv("POLYGON_API_KEY"), "Market data API key (or POLYGON_API_KEY)")

	// Storage and messaging
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (trade ledger)")
	wsURL := flag.String("ws-url", "", "WebSocket URL to publish the result to")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[validate] ", log.LstdFlags)

	// Validate required flags
	if *runID == "" && *tradesFile == "" {
		logger.Fatal("--run-id or --trades-file is required")
	}
	if *apiKey == "" {
		logger.Fatal("--api-key or POLYGON_API_KEY is required")
	}

	tradeSource := domain.TradeSource(*source)
	if tradeSource != domain.SourceBacktest && tradeSource != domain.SourcePaper {
		logger.Fatalf("invalid --source: %s. Must be backtest or paper", *source)
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

	// Load trades from file, or wire a store for the run's ledger
	var trades []domain.TradeRecord
	var tradeStore storage.TradeStore

	if *tradesFile != "" {
		data, err := os.ReadFile(*tradesFile)
		if err != nil {
			logger.Fatalf("read trades file: %v", err)
		}
		if err := json.Unmarshal(data, &trades); err != nil {
			logger.Fatalf("parse trades file: %v", err)
		}
	} else {
		if *postgresDSN == "" {
			logger.Fatal("--postgres-dsn is required when validating a stored run")
		}
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		tradeStore = pgstore.NewTradeStore(pool)
	}

	// Optional result publisher
	var pub publisher.Publisher
	if *wsURL != "" {
		wsPub := publisher.NewWSPublisher(*wsURL, nil)
		defer wsPub.Close()
		pub = wsPub
	}

	validator, err := validation.New(validation.Options{
		Provider:       marketdata.NewPolygonClient(*apiKey),
		TradeStore:     tradeStore,
		Publisher:      pub,
		MaxIterations:  *maxIterations,
		PriceTolerance: *priceTolerance,
		Workers:        *workers,
	})
	if err != nil {
		logger.Fatalf("create validator: %v", err)
	}

	logger.Printf("Validating: run=%s source=%s budget=%d", *runID, *source, *maxIterations)

	result, err := validator.Run(ctx, validation.Request{
		RunID:  *runID,
		Source: tradeSource,
		Trades: trades,
	})
	if err != nil {
		logger.Fatalf("validation failed: %v", err)
	}

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		printResult(result)
	}

	if result.Status == domain.StatusFailed {
		os.Exit(1)
	}
}

// printResult outputs a human-readable validation report.
func printResult(r *domain.ValidationResult) {
	fmt.Println()
	fmt.Println("=== Validation Result ===")
	fmt.Printf("Run ID:             %s\n", r.RunID)
	fmt.Printf("Status:             %s\n", r.Status)
	fmt.Printf("Trades Checked:     %d\n", r.TotalChecked)
	fmt.Printf("Iterations Used:    %d\n", r.IterationsUsed)
	fmt.Println()

	if len(r.Corrections) > 0 {
		fmt.Println("Corrections:")
		for _, c := range r.Corrections {
			switch c.Type {
			case domain.CorrectionFlagged:
				fmt.Printf("  trade %d: flagged %s: %s\n", c.TradeIndex, c.Issue, c.Message)
			default:
				fmt.Printf("  trade %d: %s %s %.2f -> %.2f\n",
					c.TradeIndex, c.Type, c.Field, c.OldValue, c.NewValue)
			}
		}
		fmt.Println()
	}

	if len(r.Anomalies) > 0 {
		fmt.Println("Remaining Anomalies:")
		for _, a := range r.Anomalies {
			fmt.Printf("  trade %d (%s): %s: %s\n", a.TradeIndex, a.Symbol, a.Type, a.Message)
		}
		fmt.Println()
	}

	if len(r.Suggestions) > 0 {
		fmt.Println("Suggestions:")
		for _, s := range r.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
		fmt.Println()
	}
}
