package memory

import (
	"context"
	"errors"
	"testing"

	"dip-strategy-lab/internal/domain"
	"dip-strategy-lab/internal/storage"
)

func testBar(symbol string, tsMs int64, close float64) *domain.PriceBar {
	return &domain.PriceBar{
		Symbol:      symbol,
		TimestampMs: tsMs,
		Open:        close,
		High:        close + 1,
		Low:         close - 1,
		Close:       close,
		Volume:      1000,
	}
}

func TestBarStoreInsertBulkAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewBarStore()

	err := s.InsertBulk(ctx, []*domain.PriceBar{
		testBar("AAPL", 3000, 103),
		testBar("AAPL", 1000, 101),
		testBar("AAPL", 2000, 102),
		testBar("MSFT", 1000, 201),
	})
	if err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	got, err := s.GetBySymbol(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetBySymbol: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d bars, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].TimestampMs < got[i-1].TimestampMs {
			t.Fatal("bars not ordered by timestamp ASC")
		}
	}

	ranged, err := s.GetByTimeRange(ctx, "AAPL", 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange: %v", err)
	}
	if len(ranged) != 2 {
		t.Fatalf("got %d bars in range, want 2", len(ranged))
	}
}

func TestBarStoreDuplicateKey(t *testing.T) {
	ctx := context.Background()
	s := NewBarStore()

	if err := s.InsertBulk(ctx, []*domain.PriceBar{testBar("AAPL", 1000, 100)}); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}
	err := s.InsertBulk(ctx, []*domain.PriceBar{
		testBar("AAPL", 2000, 101),
		testBar("AAPL", 1000, 100), // existing key
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}

	// The failed batch must not have written its first bar.
	got, err := s.GetBySymbol(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetBySymbol: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d bars, want 1", len(got))
	}
}
