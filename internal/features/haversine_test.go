package features

import (
	"math"
	"testing"
)

func TestHaversineZeroDistance(t *testing.T) {
	if d := HaversineKM(40.7128, -74.0060, 40.7128, -74.0060); math.Abs(d) > 1e-9 {
		t.Fatalf("distance to self = %v, want 0", d)
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := HaversineKM(40.7128, -74.0060, 51.5074, -0.1278)
	b := HaversineKM(51.5074, -0.1278, 40.7128, -74.0060)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("asymmetric distance: %v vs %v", a, b)
	}
	// NYC-London is roughly 5570km.
	if a < 5000 || a > 6000 {
		t.Fatalf("distance out of expected range: %v", a)
	}
}
