package clickhouse

import (
	"context"
	"fmt"

	"dip-strategy-lab/internal/domain"
	"dip-strategy-lab/internal/storage"
)

// EquityCurveStore implements storage.EquityCurveStore using ClickHouse.
type EquityCurveStore struct {
	conn *Conn
}

// NewEquityCurveStore creates a new EquityCurveStore.
func NewEquityCurveStore(conn *Conn) *EquityCurveStore {
	return &EquityCurveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)

// InsertBulk adds a run's curve points. Fails entire batch on duplicate
// (run_id, timestamp_ms), checked explicitly before the batch is sent.
func (s *EquityCurveStore) InsertBulk(ctx context.Context, runID string, points []*domain.EquityCurvePoint) error {
	if runID == "" {
		return fmt.Errorf("%w: empty run id", storage.ErrInvalidInput)
	}
	if len(points) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.TimestampMs <= 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[p.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		seen[p.TimestampMs] = struct{}{}
	}

	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM equity_curves WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO equity_curves (run_id, timestamp_ms, equity)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(runID, uint64(p.TimestampMs), p.Equity); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRunID retrieves a run's curve, ordered by timestamp ASC.
func (s *EquityCurveStore) GetByRunID(ctx context.Context, runID string) ([]*domain.EquityCurvePoint, error) {
	query := `
		SELECT timestamp_ms, equity
		FROM equity_curves
		WHERE run_id = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	var result []*domain.EquityCurvePoint
	for rows.Next() {
		var (
			ts uint64
			p  domain.EquityCurvePoint
		)
		if err := rows.Scan(&ts, &p.Equity); err != nil {
			return nil, fmt.Errorf("scan curve point: %w", err)
		}
		p.TimestampMs = int64(ts)
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate curve points: %w", err)
	}
	return result, nil
}
