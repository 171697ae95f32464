package scoring

import (
	"testing"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

func TestScoreRoutineSmallPurchase(t *testing.T) {
	txn := &models.Transaction{
		Features: map[string]any{
			"amount_category":        "small",
			"is_large_for_user":      false,
			"is_round_100":           false,
			"is_night_time":          false,
			"in_user_preferred_time": true,
			"is_weekend":             false,
			"is_very_new_account":    false,
			"is_new_account":         false,
			"is_kyc_verified":        true,
			"user_risk_score":        0.1,
			"is_blacklisted_merchant": false,
			"is_high_risk_category":  false,
			"merchant_fraud_rate":    0.01,
			"suspicious_merchant_name": false,
			"within_merchant_hours":  true,
			"high_velocity_5min":     false,
			"high_velocity_1hour":    false,
			"velocity_5min_count":    int64(1),
			"velocity_1hour_count":   int64(1),
			"is_new_device":          false,
			"ip_risk_score":          0.1,
			"suspicious_user_agent":  false,
		},
	}

	Score(txn)

	if txn.FraudScore >= 0.3 {
		t.Fatalf("fraud score = %v, want < 0.3", txn.FraudScore)
	}
	if txn.Decision != models.DecisionApprove || txn.RiskLevel != models.RiskVeryLow {
		t.Fatalf("decision=%v risk=%v, want APPROVE/VERY_LOW", txn.Decision, txn.RiskLevel)
	}
}

func TestScoreBlacklistOverride(t *testing.T) {
	txn := &models.Transaction{
		Features: map[string]any{
			"is_blacklisted_merchant": true,
			"merchant_fraud_rate":     0.01,
		},
	}
	low := 0.1
	txn.PriorFraudScore = &low

	Score(txn)

	if txn.Decision != models.DecisionDecline || txn.RiskLevel != models.RiskCritical {
		t.Fatalf("decision=%v risk=%v, want DECLINE/CRITICAL", txn.Decision, txn.RiskLevel)
	}
}

func TestScoreClampedToUnitInterval(t *testing.T) {
	txn := &models.Transaction{
		Features: map[string]any{
			"is_blacklisted_merchant": true,
			"is_high_risk_category":   true,
			"merchant_fraud_rate":     1.0,
			"suspicious_merchant_name": true,
			"within_merchant_hours":   false,
			"high_velocity_5min":      true,
			"high_velocity_1hour":     true,
			"velocity_5min_count":     int64(10),
			"velocity_1hour_count":    int64(20),
			"is_very_new_account":     true,
			"is_kyc_verified":         false,
			"user_risk_score":         1.0,
			"is_new_device":           true,
			"ip_risk_score":           0.3,
			"suspicious_user_agent":   true,
			"is_night_time":           true,
			"is_weekend":              true,
			"weekend_activity_factor": 0.0,
			"in_user_preferred_time":  false,
		},
	}
	Score(txn)

	if txn.FraudScore > 1.0 || txn.FraudScore < 0 {
		t.Fatalf("fraud score out of range: %v", txn.FraudScore)
	}
}

func TestUnknownUserLargeRoundAmountAtNight(t *testing.T) {
	txn := &models.Transaction{
		Features: map[string]any{
			"amount_category":         "large",
			"is_round_100":            true,
			"is_night_time":           true,
			"in_user_preferred_time":  false,
			"is_weekend":              false,
			"is_very_new_account":     true,
			"is_kyc_verified":         false,
			"user_risk_score":         0.8,
			"is_blacklisted_merchant": false,
			"is_high_risk_category":   false,
			"merchant_fraud_rate":     0.01,
			"is_new_device":           true,
			"ip_risk_score":           0.3,
		},
	}
	Score(txn)

	if txn.Decision != models.DecisionApprove || txn.RiskLevel != models.RiskLow {
		t.Fatalf("decision=%v risk=%v, want APPROVE/LOW, score=%v", txn.Decision, txn.RiskLevel, txn.FraudScore)
	}
}
