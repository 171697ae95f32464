package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

func TestDecodeRoundTrip(t *testing.T) {
	txn := &models.Transaction{
		TransactionID: "t1",
		UserID:        "u1",
		MerchantID:    "m1",
		Amount:        42.5,
		Currency:      "USD",
		Timestamp:     time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		PaymentMethod: "credit_card",
	}
	raw := Encode(txn)
	got := Decode(raw)

	if got.TransactionID != txn.TransactionID || got.UserID != txn.UserID {
		t.Fatalf("round-trip mismatch: got %+v", got)
	}
	if got.Amount != txn.Amount {
		t.Fatalf("amount mismatch: got %v want %v", got.Amount, txn.Amount)
	}
	if !got.Timestamp.Equal(txn.Timestamp) {
		t.Fatalf("timestamp mismatch: got %v want %v", got.Timestamp, txn.Timestamp)
	}
}

func TestDecodeMalformedProducesPlaceholder(t *testing.T) {
	got := Decode([]byte("not json"))
	if !strings.HasPrefix(got.TransactionID, "ERROR_") {
		t.Fatalf("expected ERROR_ prefixed id, got %s", got.TransactionID)
	}
	if got.FraudScore != 0.5 || got.RiskLevel != models.RiskError || got.Decision != models.DecisionReview {
		t.Fatalf("placeholder record wrong: %+v", got)
	}
}

func TestDecodeMissingRequiredFieldsProducesPlaceholder(t *testing.T) {
	got := Decode([]byte(`{"amount": 10}`))
	if !strings.HasPrefix(got.TransactionID, "ERROR_") {
		t.Fatalf("expected placeholder for missing required fields, got %+v", got)
	}
}
