package joins

import (
	"context"
	"testing"
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

func TestJoinUserBehaviorSetsRiskFactors(t *testing.T) {
	txn := &models.Transaction{UserID: "u1"}
	JoinUserBehavior(context.Background(), txn, UserBehaviorEvent{
		UserID:              "u1",
		AnomalousLogin:      true,
		ShortSession:        true,
		AnomalousNavigation: false,
	})

	if txn.Features["recent_login_anomaly"] != 0.3 {
		t.Errorf("recent_login_anomaly = %v, want 0.3", txn.Features["recent_login_anomaly"])
	}
	if txn.Features["session_duration_anomaly"] != 0.2 {
		t.Errorf("session_duration_anomaly = %v, want 0.2", txn.Features["session_duration_anomaly"])
	}
	if _, ok := txn.Features["navigation_pattern_anomaly"]; ok {
		t.Errorf("navigation_pattern_anomaly should not be set when the flag is false")
	}
}

func TestJoinMerchantUpdateSetsRiskFactors(t *testing.T) {
	txn := &models.Transaction{MerchantID: "m1"}
	JoinMerchantUpdate(context.Background(), txn, MerchantProfileUpdate{
		MerchantID:       "m1",
		NewlyBlacklisted: true,
	})

	if txn.Features["merchant_newly_blacklisted"] != 0.8 {
		t.Errorf("merchant_newly_blacklisted = %v, want 0.8", txn.Features["merchant_newly_blacklisted"])
	}
}

func TestPatternSimilarityExactMatch(t *testing.T) {
	txn := &models.Transaction{PaymentMethod: "card", Amount: 500}
	hour := 14
	txn.HourOfDay = &hour

	pattern := HistoricalFraudPattern{
		PaymentMethod: "card",
		AmountRange:   500,
		HourOfDay:     &hour,
		FraudRate:     0.8,
	}

	got := patternSimilarity(txn, pattern)
	if got < 0.99 {
		t.Fatalf("similarity = %v, want ≈1.0 for an exact match", got)
	}
}

func TestJoinHistoricalPatternRiskFactors(t *testing.T) {
	txn := &models.Transaction{PaymentMethod: "card", Amount: 500}
	p := HistoricalFraudPattern{
		PaymentMethod:   "card",
		AmountRange:     500,
		FraudRate:       0.6,
		Recent:          true,
		OccurrenceCount: 150,
	}

	JoinHistoricalPattern(context.Background(), txn, p)

	if sim, ok := txn.Features["historical_pattern_similarity"].(float64); !ok || sim <= 0 {
		t.Fatalf("historical_pattern_similarity = %v, want > 0", txn.Features["historical_pattern_similarity"])
	}
	if txn.Features["recent_high_fraud_pattern"] != 0.4 {
		t.Errorf("recent_high_fraud_pattern = %v, want 0.4", txn.Features["recent_high_fraud_pattern"])
	}
	if txn.Features["frequent_fraud_pattern"] != 0.3 {
		t.Errorf("frequent_fraud_pattern = %v, want 0.3", txn.Features["frequent_fraud_pattern"])
	}
}

func TestWithinWindowBounds(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	txn := &models.Transaction{Timestamp: base}

	inside := UserBehaviorEvent{Timestamp: base.Add(-4 * time.Minute)}
	outside := UserBehaviorEvent{Timestamp: base.Add(-10 * time.Minute)}

	if !WithinUserBehaviorWindow(txn, inside) {
		t.Errorf("expected event within window to be joinable")
	}
	if WithinUserBehaviorWindow(txn, outside) {
		t.Errorf("expected event outside window to be rejected")
	}
}

func TestPatternKeyFormatsAmountBucket(t *testing.T) {
	got := PatternKey("card", "retail", 543)
	if got != "card:retail:500" {
		t.Fatalf("PatternKey = %q, want card:retail:500", got)
	}
}
