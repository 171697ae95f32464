package windows

import (
	"testing"
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

func TestUserVelocityScoreLowActivity(t *testing.T) {
	acc := newUserVelocityAccumulator()
	acc.transactionCount = 2
	acc.totalAmount = 50
	acc.uniqueMerchants["m1"] = struct{}{}
	acc.uniqueMerchants["m2"] = struct{}{}

	if got := userVelocityScore(acc); got != 0 {
		t.Fatalf("score = %v, want 0 for low activity, diverse merchants", got)
	}
}

func TestUserVelocityScoreHighActivityLowDiversity(t *testing.T) {
	acc := newUserVelocityAccumulator()
	acc.transactionCount = 25
	acc.totalAmount = 12000
	acc.fraudCount = 5
	acc.uniqueMerchants["m1"] = struct{}{}

	got := userVelocityScore(acc)
	// 0.4 (count>20) + 0.3 (amount>10000) + 0.4*0.2 (fraud_rate=5/25) + 0.2 (diversity<0.2) = 0.98.
	if got < 0.97 || got > 0.99 {
		t.Fatalf("score = %v, want ≈0.98", got)
	}
}

func TestUserVelocityAggregatorEmitsAfterWatermarkAdvance(t *testing.T) {
	agg := NewUserVelocityAggregator()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		agg.Add(&models.Transaction{
			UserID:     "u1",
			MerchantID: "m1",
			Amount:     100,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		})
	}
	agg.Add(&models.Transaction{
		UserID:     "flush",
		MerchantID: "m2",
		Amount:     1,
		Timestamp:  base.Add(2 * time.Hour),
	})

	results := agg.Emit()
	if len(results) == 0 {
		t.Fatalf("expected at least one emitted window")
	}
	var found bool
	for _, r := range results {
		if r.UserID == "u1" && r.TransactionCount > 0 {
			found = true
		}
	}
	if !found {
		t.Fatalf("no window emitted for u1")
	}
}
