package models

import "time"

// FeatureType classifies a registered feature for storage and statistics.
type FeatureType string

const (
	FeatureNumerical  FeatureType = "NUMERICAL"
	FeatureCategorical FeatureType = "CATEGORICAL"
	FeatureBoolean    FeatureType = "BOOLEAN"
	FeatureText       FeatureType = "TEXT"
	FeatureTimestamp  FeatureType = "TIMESTAMP"
)

// FeatureMetadata describes a registered feature.
type FeatureMetadata struct {
	Name        string
	Type        FeatureType
	Description string
	Properties  map[string]string
	RegisteredAt time.Time
}

// FeatureRecord is the compact per-entity record emitted to the features
// stream and stored by the feature store facade.
type FeatureRecord struct {
	EntityID   string
	EntityType string
	Timestamp  time.Time
	Version    int
	Features   map[string]any
}

// FeatureStats accumulates per-feature online statistics. Numerical stats
// use Welford's algorithm (Mean plus the running M2 sum), categorical
// values are counted, and NullCount tracks missing observations for the
// null-rate derivation.
type FeatureStats struct {
	Name              string
	Count             int64
	Mean              float64
	M2                float64
	Min               float64
	Max               float64
	CategoricalCounts map[string]int64
	NullCount         int64
	LastUpdated       time.Time
}

// Variance returns the sample variance M2/(n-1), or 0 if fewer
// than two observations have been recorded.
func (s *FeatureStats) Variance() float64 {
	if s.Count < 2 {
		return 0
	}
	return s.M2 / float64(s.Count-1)
}

// NullRate returns the fraction of observations that were null, or 0 if
// nothing has been observed.
func (s *FeatureStats) NullRate() float64 {
	total := s.Count + s.NullCount
	if total == 0 {
		return 0
	}
	return float64(s.NullCount) / float64(total)
}

// UpdateNumerical folds a new numerical observation into the stats using
// Welford's online algorithm, maintaining an exact running mean and M2 so
// that Variance() stays numerically stable across long streams.
func (s *FeatureStats) UpdateNumerical(v float64, at time.Time) {
	s.Count++
	delta := v - s.Mean
	s.Mean += delta / float64(s.Count)
	delta2 := v - s.Mean
	s.M2 += delta * delta2

	if s.Count == 1 {
		s.Min, s.Max = v, v
	} else {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.LastUpdated = at
}

// UpdateCategorical folds a new categorical/boolean/text observation into
// the stats by incrementing its bucket count.
func (s *FeatureStats) UpdateCategorical(value string, at time.Time) {
	if s.CategoricalCounts == nil {
		s.CategoricalCounts = make(map[string]int64)
	}
	s.CategoricalCounts[value]++
	s.Count++
	s.LastUpdated = at
}

// UpdateNull records a missing observation for the null-rate derivation.
func (s *FeatureStats) UpdateNull(at time.Time) {
	s.NullCount++
	s.LastUpdated = at
}
