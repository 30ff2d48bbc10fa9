package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"dip-strategy-lab/internal/reporting"
	chstore "dip-strategy-lab/internal/storage/clickhouse"
	pgstore "dip-strategy-lab/internal/storage/postgres"
)

func main() {
	// Run selection
	runID := flag.String("run-id", "", "Run ID to report on (required)")
	initialCapital := flag.Float64("initial-capital", 10000, "Starting capital the run was executed with")
	startDate := flag.String("start", "", "Range start, YYYY-MM-DD (required)")
	endDate := flag.String("end", "", "Range end, YYYY-MM-DD (required)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (required)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (required)")

	// Output
	format := flag.String("format", "markdown", "Output format: markdown, csv, json")
	outputFile := flag.String("output", "", "Write to file instead of stdout")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	// Validate required flags
	if *runID == "" {
		logger.Fatal("--run-id is required")
	}
	if *startDate == "" || *endDate == "" {
		logger.Fatal("--start and --end are required")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}
	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required")
	}

	startMs, err := parseDate(*startDate)
	if err != nil {
		logger.Fatalf("invalid --start: %v", err)
	}
	endMs, err := parseDate(*endDate)
	if err != nil {
		logger.Fatalf("invalid --end: %v", err)
	}

	ctx := context.Background()

	// PostgreSQL for the trade ledger
	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	// ClickHouse for the equity curve
	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("connect to clickhouse: %v", err)
	}
	defer conn.Close()

	gen := reporting.NewGenerator(pgstore.NewTradeStore(pool), chstore.NewEquityCurveStore(conn))

	report, err := gen.Generate(ctx, *runID, *initialCapital, startMs, endMs)
	if err != nil {
		logger.Fatalf("generate report: %v", err)
	}

	var rendered string
	switch strings.ToLower(*format) {
	case "markdown", "md":
		rendered = reporting.RenderMarkdown(report)
	case "csv":
		rendered = reporting.RenderTradesCSV(report.Trades)
	case "json":
		output, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			logger.Fatalf("marshal report: %v", err)
		}
		rendered = string(output) + "\n"
	default:
		logger.Fatalf("invalid --format: %s. Must be markdown, csv, or json", *format)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(rendered), 0o644); err != nil {
			logger.Fatalf("write %s: %v", *outputFile, err)
		}
		logger.Printf("Report written to %s", *outputFile)
		return
	}
	fmt.Print(rendered)
}

// parseDate converts a YYYY-MM-DD date to UTC midnight in unix ms.
func parseDate(s string) (int64, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}
