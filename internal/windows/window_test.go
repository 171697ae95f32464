package windows

import (
	"testing"
	"time"
)

func TestTumblingWindowAlignsToSize(t *testing.T) {
	base := time.Date(2026, 1, 1, 10, 37, 12, 0, time.UTC)
	start, end := TumblingWindow(base, time.Hour)

	if start.Minute() != 0 || start.Second() != 0 {
		t.Fatalf("start not hour-aligned: %v", start)
	}
	if !end.Equal(start.Add(time.Hour)) {
		t.Fatalf("end = %v, want start+1h", end)
	}
	if base.Before(start) || !base.Before(end) {
		t.Fatalf("base %v not inside [%v, %v)", base, start, end)
	}
}

func TestSlidingWindowsCoversAllInstances(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 4, 30, 0, time.UTC)
	instances := SlidingWindows(base, 5*time.Minute, time.Minute)

	if len(instances) != 5 {
		t.Fatalf("got %d instances, want 5", len(instances))
	}
	for _, w := range instances {
		if base.Before(w.Start) || !base.Before(w.End) {
			t.Fatalf("instance [%v,%v) does not contain %v", w.Start, w.End, base)
		}
	}
}

func TestAmountBucketPatternBoundaries(t *testing.T) {
	cases := map[float64]string{
		5:     "micro",
		50:    "small",
		400:   "medium",
		1500:  "large",
		8000:  "very_large",
		50000: "extreme",
	}
	for amount, want := range cases {
		if got := AmountBucketPattern(amount); got != want {
			t.Errorf("AmountBucketPattern(%v) = %q, want %q", amount, got, want)
		}
	}
}

func TestAmountClusterBucketLog10(t *testing.T) {
	if got := AmountClusterBucket(50); got != 1 {
		t.Fatalf("AmountClusterBucket(50) = %d, want 1", got)
	}
	if got := AmountClusterBucket(999); got != 2 {
		t.Fatalf("AmountClusterBucket(999) = %d, want 2", got)
	}
}

func TestGeoGridKeyUnknownOnMissingGeo(t *testing.T) {
	if got := GeoGridKey(nil, nil); got != "unknown" {
		t.Fatalf("GeoGridKey(nil, nil) = %q, want unknown", got)
	}
	lat, lon := 40.7, -73.9
	if got := GeoGridKey(&lat, &lon); got != "geo_40_-74" {
		t.Fatalf("GeoGridKey = %q, want geo_40_-74", got)
	}
}

func TestWatermarkIsLateAfterAllowedLateness(t *testing.T) {
	w := NewWatermark(10 * time.Second)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	w.Advance(base)
	if w.IsLate(base) {
		t.Fatalf("should not be late before watermark advances past lateness bound")
	}

	w.Advance(base.Add(AllowedLateness + 11*time.Second))
	if !w.IsLate(base) {
		t.Fatalf("should be late once watermark passes end+lateness")
	}
}

func TestStdDevPopulation(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	got := StdDev(values)
	if got < 1.99 || got > 2.01 {
		t.Fatalf("StdDev = %v, want ≈2.0", got)
	}
}

func TestStdDevSingleValueIsZero(t *testing.T) {
	if got := StdDev([]float64{42}); got != 0 {
		t.Fatalf("StdDev of one value = %v, want 0", got)
	}
}
