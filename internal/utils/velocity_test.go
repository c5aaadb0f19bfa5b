package utils

import (
	"testing"
)

func TestCalculateVelocityMonotonic(t *testing.T) {
	cfg := DefaultVelocityConfig

	// 扫码量为 0 时分数为 0
	if score := CalculateVelocity(0, 0, cfg); score != 0 {
		t.Errorf("Expected 0 for no scans, got %f", score)
	}

	// 随扫码频率单调递增
	prev := 0.0
	for _, n := range []int{1, 5, 20, 100, 500} {
		score := CalculateVelocity(n, n, cfg)
		if score <= prev {
			t.Errorf("Expected score to increase with scan count, got %f after %f (n=%d)", score, prev, n)
		}
		prev = score
	}
}

func TestCalculateVelocity24hDominates(t *testing.T) {
	cfg := DefaultVelocityConfig

	// 同样的扫码量，落在 24h 窗里要比只落在 7d 窗里分数高
	recent := CalculateVelocity(50, 50, cfg)
	stale := CalculateVelocity(0, 50, cfg)
	if recent <= stale {
		t.Errorf("Expected 24h scans to weigh more: recent=%f stale=%f", recent, stale)
	}
}

func TestCalculateVelocityNegativeInput(t *testing.T) {
	cfg := DefaultVelocityConfig
	if score := CalculateVelocity(-5, -10, cfg); score != 0 {
		t.Errorf("Expected negative counts to be clamped to 0, got %f", score)
	}
}

func TestTierUrgency(t *testing.T) {
	cfg := VelocityConfig{TrendingThreshold: 10, UrgentThreshold: 25}

	cases := []struct {
		score float64
		want  string
	}{
		{0, "normal"},
		{9.99, "normal"},
		{10, "trending"},
		{24.99, "trending"},
		{25, "urgent"},
		{100, "urgent"},
	}
	for _, tc := range cases {
		if got := TierUrgency(tc.score, cfg); got != tc.want {
			t.Errorf("TierUrgency(%f) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
