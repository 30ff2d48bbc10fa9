package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"dip-strategy-lab/internal/domain"
	"dip-strategy-lab/internal/storage"
)

// EquityCurveStore is an in-memory implementation of storage.EquityCurveStore.
type EquityCurveStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]float64 // run_id -> timestamp_ms -> equity
}

// NewEquityCurveStore creates a new in-memory equity curve store.
func NewEquityCurveStore() *EquityCurveStore {
	return &EquityCurveStore{
		data: make(map[string]map[int64]float64),
	}
}

// InsertBulk adds a run's curve points atomically. Fails entire batch on
// duplicate (run_id, timestamp_ms).
func (s *EquityCurveStore) InsertBulk(_ context.Context, runID string, points []*domain.EquityCurvePoint) error {
	if runID == "" {
		return fmt.Errorf("%w: empty run id", storage.ErrInvalidInput)
	}
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run := s.data[runID]
	batchKeys := make(map[int64]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.TimestampMs <= 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := run[p.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[p.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[p.TimestampMs] = struct{}{}
	}

	if run == nil {
		run = make(map[int64]float64, len(points))
		s.data[runID] = run
	}
	for _, p := range points {
		run[p.TimestampMs] = p.Equity
	}
	return nil
}

// GetByRunID retrieves a run's curve, ordered by timestamp ASC.
func (s *EquityCurveStore) GetByRunID(_ context.Context, runID string) ([]*domain.EquityCurvePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run := s.data[runID]
	result := make([]*domain.EquityCurvePoint, 0, len(run))
	for ts, eq := range run {
		result = append(result, &domain.EquityCurvePoint{TimestampMs: ts, Equity: eq})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}

var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)
