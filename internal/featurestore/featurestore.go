// Package featurestore implements the feature store facade (spec
// component C9): feature registration/versioning, per-entity feature
// value storage, and running per-feature statistics for monitoring.
//
// Grounded on original_source/FeatureStore.java, translated from its
// Redis-counter-as-registry idiom to go-redis JSON values. The Java
// source's updateNumericalStats only tracks a running mean (its own
// comment admits "For std calculation, we'd need to maintain sum of
// squares" and never finishes it) — this implementation uses
// models.FeatureStats's full Welford accumulator instead, so standard
// deviation here is exact rather than perpetually zero.
package featurestore

import (
	"context"
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
	"github.com/fraudscorer/streaming-scorer/internal/stateclient"
)

// FeatureType mirrors FeatureStore.java's FeatureType enum.
type FeatureType = models.FeatureType

// Store is the feature store facade over the state-store backend.
type Store struct {
	state *stateclient.Client
}

func New(state *stateclient.Client) *Store {
	return &Store{state: state}
}

// RegisterFeature records a feature's metadata. Re-registering an
// existing feature overwrites its description/properties, matching the
// Java source which never bumps the version either.
func (s *Store) RegisterFeature(ctx context.Context, name string, typ FeatureType, description string, properties map[string]string) error {
	metadata := models.FeatureMetadata{
		Name:         name,
		Type:         typ,
		Description:  description,
		Properties:   properties,
		RegisteredAt: time.Now().UTC(),
	}
	key := stateclient.FeatureMetadataPrefix + name
	return s.state.SetJSON(ctx, key, metadata, stateclient.FeatureMetadataTTL)
}

// StoreFeatureValues persists a snapshot of an entity's feature vector
// and rolls the values into the running per-feature statistics.
func (s *Store) StoreFeatureValues(ctx context.Context, entityID, entityType string, features map[string]any) error {
	record := models.FeatureRecord{
		EntityID:   entityID,
		EntityType: entityType,
		Timestamp:  time.Now().UTC(),
		Version:    1,
		Features:   features,
	}
	key := stateclient.FeatureValuesPrefix + entityType + ":" + entityID
	if err := s.state.SetJSON(ctx, key, record, stateclient.FeatureValuesTTL); err != nil {
		return err
	}

	var firstErr error
	for name, value := range features {
		if err := s.updateStatistics(ctx, name, value); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetFeatureValues retrieves the most recently stored feature vector for
// an entity, or an empty map if none is stored.
func (s *Store) GetFeatureValues(ctx context.Context, entityID, entityType string) (map[string]any, error) {
	key := stateclient.FeatureValuesPrefix + entityType + ":" + entityID
	var record models.FeatureRecord
	found, err := s.state.GetJSON(ctx, key, &record)
	if err != nil || !found {
		return map[string]any{}, err
	}
	return record.Features, nil
}

// GetBatchFeatureValues retrieves feature vectors for multiple entities.
func (s *Store) GetBatchFeatureValues(ctx context.Context, entityIDs []string, entityType string) (map[string]map[string]any, error) {
	out := make(map[string]map[string]any, len(entityIDs))
	for _, id := range entityIDs {
		values, err := s.GetFeatureValues(ctx, id, entityType)
		if err != nil {
			return out, err
		}
		out[id] = values
	}
	return out, nil
}

// GetSelectedFeatures retrieves only the named subset of an entity's
// feature vector.
func (s *Store) GetSelectedFeatures(ctx context.Context, entityID, entityType string, names []string) (map[string]any, error) {
	all, err := s.GetFeatureValues(ctx, entityID, entityType)
	if err != nil {
		return map[string]any{}, err
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	out := make(map[string]any, len(names))
	for k, v := range all {
		if _, ok := want[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *Store) updateStatistics(ctx context.Context, featureName string, value any) error {
	key := stateclient.FeatureStatsPrefix + featureName

	var stats models.FeatureStats
	found, err := s.state.GetJSON(ctx, key, &stats)
	if err != nil {
		return err
	}
	if !found {
		stats = models.FeatureStats{Name: featureName}
	}

	now := time.Now().UTC()
	switch v := value.(type) {
	case nil:
		stats.UpdateNull(now)
	case bool:
		if v {
			stats.UpdateCategorical("true", now)
		} else {
			stats.UpdateCategorical("false", now)
		}
	case string:
		stats.UpdateCategorical(v, now)
	case float64:
		stats.UpdateNumerical(v, now)
	case int:
		stats.UpdateNumerical(float64(v), now)
	case int64:
		stats.UpdateNumerical(float64(v), now)
	default:
		stats.UpdateNull(now)
	}

	return s.state.SetJSON(ctx, key, stats, stateclient.FeatureStatsTTL)
}

// GetFeatureStatistics retrieves the current running statistics for one
// feature, or a zero-value result if none have been recorded yet.
func (s *Store) GetFeatureStatistics(ctx context.Context, featureName string) (models.FeatureStats, error) {
	key := stateclient.FeatureStatsPrefix + featureName
	var stats models.FeatureStats
	found, err := s.state.GetJSON(ctx, key, &stats)
	if err != nil {
		return models.FeatureStats{Name: featureName}, err
	}
	if !found {
		return models.FeatureStats{Name: featureName}, nil
	}
	return stats, nil
}

// RegisteredFeatureNames returns the fixed catalog of feature names this
// pipeline extracts, mirroring FeatureStore.java's getRegisteredFeatures.
func RegisteredFeatureNames() []string {
	return []string{
		"amount", "amount_log", "amount_sqrt", "is_round_amount", "is_round_10", "is_round_100",
		"amount_to_user_avg_ratio", "amount_deviation_zscore", "is_large_for_user",
		"amount_to_merchant_avg_ratio", "is_large_for_merchant", "amount_category",

		"hour_of_day", "day_of_week", "day_of_month", "is_weekend", "time_period",
		"is_business_hours", "is_night_time", "in_user_preferred_time",

		"has_geolocation", "has_merchant_location", "latitude", "longitude",
		"is_high_risk_country", "distance_to_merchant_km", "user_intl_preference",
		"unexpected_intl_transaction",

		"account_age_days", "is_new_account", "is_very_new_account", "user_risk_score",
		"is_kyc_verified", "kyc_status", "weekend_activity_factor", "online_preference",
		"user_avg_amount", "user_transaction_frequency",

		"merchant_risk_level", "merchant_fraud_rate", "is_blacklisted_merchant",
		"merchant_category", "is_high_risk_category", "within_merchant_hours",
		"merchant_risk_multiplier", "suspicious_merchant_name",

		"is_known_device", "is_new_device", "is_private_ip", "ip_risk_score",
		"suspicious_user_agent",

		"velocity_5min_count", "velocity_5min_amount", "velocity_1hour_count",
		"velocity_1hour_amount", "velocity_24hour_count", "velocity_24hour_amount",
		"high_velocity_5min", "high_velocity_1hour",

		"payment_method", "is_high_risk_payment", "transaction_type", "is_refund", "card_type",
	}
}

// IsHealthy reports whether the backing store is reachable.
func (s *Store) IsHealthy(ctx context.Context) bool {
	return s.state.Ping(ctx)
}
