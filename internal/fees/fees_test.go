package fees

import (
	"math"
	"testing"
)

func TestTAFFee_Schedule(t *testing.T) {
	tests := []struct {
		name   string
		shares int64
		want   float64
	}{
		{"zero shares", 0, 0},
		{"negative shares", -100, 0},
		{"one share rounds up to penny", 1, 0.01},
		{"100 shares", 100, 0.02},   // 0.0166 -> 0.02
		{"1000 shares", 1000, 0.17}, // 0.166 -> 0.17
		{"exactly at cap", 50000, 8.30},
		{"above cap", 1000000, 8.30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TAFFee(tt.shares)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TAFFee(%d) = %v, want %v", tt.shares, got, tt.want)
			}
		})
	}
}

func TestTAFFee_MonotoneAndCapped(t *testing.T) {
	prev := 0.0
	for shares := int64(0); shares <= 200000; shares += 137 {
		fee := TAFFee(shares)
		if fee < prev {
			t.Fatalf("TAFFee not non-decreasing at %d shares: %v < %v", shares, fee, prev)
		}
		if fee > 8.30 {
			t.Fatalf("TAFFee exceeds cap at %d shares: %v", shares, fee)
		}
		prev = fee
	}
}

func TestCATFee(t *testing.T) {
	if got := CATFee(0); got != 0 {
		t.Errorf("CATFee(0) = %v, want 0", got)
	}
	if got := CATFee(-5); got != 0 {
		t.Errorf("CATFee(-5) = %v, want 0", got)
	}

	got := CATFee(10000)
	want := 0.265
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("CATFee(10000) = %v, want %v", got, want)
	}
}
