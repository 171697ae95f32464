package models

import (
	"math"
	"testing"
	"time"
)

func TestFeatureStatsWelfordMatchesReferenceMean(t *testing.T) {
	values := make([]float64, 0, 1000)
	var sum float64
	for i := 0; i < 1000; i++ {
		v := float64(i%37) * 1.37
		values = append(values, v)
		sum += v
	}
	wantMean := sum / float64(len(values))

	stats := &FeatureStats{Name: "amount"}
	now := time.Unix(0, 0)
	for _, v := range values {
		stats.UpdateNumerical(v, now)
	}

	if stats.Count != int64(len(values)) {
		t.Fatalf("count = %d, want %d", stats.Count, len(values))
	}
	if rel := math.Abs(stats.Mean-wantMean) / math.Max(1, math.Abs(wantMean)); rel > 1e-9 {
		t.Fatalf("mean = %v, want %v (rel err %v)", stats.Mean, wantMean, rel)
	}
}

func TestFeatureStatsNullRate(t *testing.T) {
	stats := &FeatureStats{Name: "ip_risk_score"}
	now := time.Unix(0, 0)
	stats.UpdateNumerical(1.0, now)
	stats.UpdateNumerical(2.0, now)
	stats.UpdateNull(now)

	if got, want := stats.NullRate(), 1.0/3.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("null rate = %v, want %v", got, want)
	}
}

func TestFeatureStatsVarianceRequiresTwoSamples(t *testing.T) {
	stats := &FeatureStats{Name: "amount"}
	if v := stats.Variance(); v != 0 {
		t.Fatalf("variance on empty stats = %v, want 0", v)
	}
	stats.UpdateNumerical(5, time.Unix(0, 0))
	if v := stats.Variance(); v != 0 {
		t.Fatalf("variance on single sample = %v, want 0", v)
	}
}
