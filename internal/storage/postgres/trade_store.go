package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dip-strategy-lab/internal/domain"
	"dip-strategy-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const insertTradeQuery = `
	INSERT INTO trades (
		trade_id, run_id, source,
		symbol, direction, shares,
		entry_time, exit_time, entry_date,
		entry_price, exit_price, target_price, stop_price,
		hit_target, hit_stop,
		pnl, pnl_pct, equity_after, dip_pct,
		taf_fee, cat_fee, total_fees
	) VALUES (
		$1, $2, $3,
		$4, $5, $6,
		$7, $8, $9,
		$10, $11, $12, $13,
		$14, $15,
		$16, $17, $18, $19,
		$20, $21, $22
	)
`

func insertArgs(t *domain.TradeRecord) []interface{} {
	return []interface{}{
		t.TradeID, t.RunID, string(t.Source),
		t.Symbol, t.Direction, t.Shares,
		t.EntryTimeMs, t.ExitTimeMs, t.EntryDate,
		t.EntryPrice, t.ExitPrice, t.TargetPrice, t.StopPrice,
		t.HitTarget, t.HitStop,
		t.PnL, t.PnLPct, t.EquityAfter, t.DipPct,
		t.TAFFee, t.CATFee, t.TotalFees,
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeQuery, insertArgs(t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, insertTradeQuery, insertArgs(t)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const selectTradeColumns = `
	trade_id, run_id, source,
	symbol, direction, shares,
	entry_time, exit_time, entry_date,
	entry_price, exit_price, target_price, stop_price,
	hit_target, hit_stop,
	pnl, pnl_pct, equity_after, dip_pct,
	taf_fee, cat_fee, total_fees
`

// FetchBacktestTrades retrieves backtest-sourced trades for a run, ordered by
// exit time ASC, trade_id ASC.
func (s *TradeStore) FetchBacktestTrades(ctx context.Context, runID string) ([]*domain.TradeRecord, error) {
	return s.fetch(ctx, runID, domain.SourceBacktest)
}

// FetchPaperTrades retrieves paper-sourced trades for a run, ordered by exit
// time ASC, trade_id ASC.
func (s *TradeStore) FetchPaperTrades(ctx context.Context, runID string) ([]*domain.TradeRecord, error) {
	return s.fetch(ctx, runID, domain.SourcePaper)
}

func (s *TradeStore) fetch(ctx context.Context, runID string, source domain.TradeSource) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + selectTradeColumns + `
		FROM trades
		WHERE run_id = $1 AND source = $2
		ORDER BY exit_time ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, string(source))
	if err != nil {
		return nil, fmt.Errorf("fetch %s trades: %w", source, err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// scanTrade scans a single row into a TradeRecord.
func scanTrade(row pgx.Row) (*domain.TradeRecord, error) {
	var (
		t      domain.TradeRecord
		source string
	)

	err := row.Scan(
		&t.TradeID, &t.RunID, &source,
		&t.Symbol, &t.Direction, &t.Shares,
		&t.EntryTimeMs, &t.ExitTimeMs, &t.EntryDate,
		&t.EntryPrice, &t.ExitPrice, &t.TargetPrice, &t.StopPrice,
		&t.HitTarget, &t.HitStop,
		&t.PnL, &t.PnLPct, &t.EquityAfter, &t.DipPct,
		&t.TAFFee, &t.CATFee, &t.TotalFees,
	)
	if err != nil {
		return nil, err
	}
	t.Source = domain.TradeSource(source)
	return &t, nil
}

// scanTrades scans all rows into TradeRecords.
func scanTrades(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var result []*domain.TradeRecord
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return result, nil
}
