// Package codec implements the bidirectional text-format mapping between
// wire bytes and transaction/feature/alert records (spec component C1).
// Decode never fails outward: a malformed record becomes a well-typed
// placeholder so downstream stages never see undefined values.
package codec

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

// wireTransaction is the JSON wire shape for an input transaction. It
// mirrors models.Transaction's pre-enrichment fields only.
type wireTransaction struct {
	TransactionID     string            `json:"transaction_id"`
	UserID            string            `json:"user_id"`
	MerchantID        string            `json:"merchant_id"`
	Amount            float64           `json:"amount"`
	Currency          string            `json:"currency"`
	Timestamp         time.Time         `json:"timestamp"`
	PaymentMethod     string            `json:"payment_method"`
	CardType          string            `json:"card_type"`
	TransactionType   string            `json:"transaction_type"`
	IPAddress         string            `json:"ip_address"`
	UserAgent         string            `json:"user_agent"`
	DeviceFingerprint string            `json:"device_fingerprint"`
	Geolocation       *models.GeoPoint  `json:"geolocation,omitempty"`
	MerchantLocation  *models.GeoPoint  `json:"merchant_location,omitempty"`
	HourOfDay         *int              `json:"hour_of_day,omitempty"`
	IsWeekend         *bool             `json:"is_weekend,omitempty"`
	IsFraud           *bool             `json:"is_fraud,omitempty"`
	FraudScore        *float64          `json:"fraud_score,omitempty"`
}

// Decode turns raw wire bytes into a Transaction. On malformed input it
// never returns an error to the caller; instead it returns a placeholder
// record flagged for review, per the DecodeError handling in the error
// table.
func Decode(raw []byte) *models.Transaction {
	var wt wireTransaction
	if err := json.Unmarshal(raw, &wt); err != nil {
		return placeholder()
	}
	if wt.TransactionID == "" || wt.UserID == "" {
		return placeholder()
	}

	txn := &models.Transaction{
		TransactionID:     wt.TransactionID,
		UserID:            wt.UserID,
		MerchantID:        wt.MerchantID,
		Amount:            wt.Amount,
		Currency:          wt.Currency,
		Timestamp:         wt.Timestamp,
		PaymentMethod:     wt.PaymentMethod,
		CardType:          wt.CardType,
		TransactionType:   wt.TransactionType,
		IPAddress:         wt.IPAddress,
		UserAgent:         wt.UserAgent,
		DeviceFingerprint: wt.DeviceFingerprint,
		Geolocation:       wt.Geolocation,
		MerchantLocation:  wt.MerchantLocation,
		HourOfDay:         wt.HourOfDay,
		IsWeekend:         wt.IsWeekend,
		IsFraudLabel:      wt.IsFraud,
	}
	if wt.FraudScore != nil {
		txn.PriorFraudScore = wt.FraudScore
	}
	if txn.Timestamp.IsZero() {
		txn.Timestamp = time.Now().UTC()
	}
	return txn
}

// placeholder builds the decode-failure record described in spec §4.1 and
// §7: a fresh ERROR_-prefixed id, score 0.5, risk_level ERROR, decision
// REVIEW.
func placeholder() *models.Transaction {
	return &models.Transaction{
		TransactionID: "ERROR_" + uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		FraudScore:    0.5,
		RiskLevel:     models.RiskError,
		Decision:      models.DecisionReview,
		Error:         "decode_failed",
	}
}

// Encode renders a Transaction to wire bytes. Encode is total: a failure
// to marshal the full record still produces a minimal valid payload
// rather than breaking the stream.
func Encode(txn *models.Transaction) []byte {
	if b, err := json.Marshal(txn); err == nil {
		return b
	}
	minimal := struct {
		TransactionID string    `json:"transaction_id"`
		Error         string    `json:"error"`
		Timestamp     time.Time `json:"timestamp"`
	}{
		TransactionID: txn.TransactionID,
		Error:         "serialization_failed",
		Timestamp:     time.Now().UTC(),
	}
	b, _ := json.Marshal(minimal)
	return b
}

// EncodeFeatureRecord renders a feature record to wire bytes for the
// features output stream.
func EncodeFeatureRecord(rec *models.FeatureRecord) []byte {
	if b, err := json.Marshal(rec); err == nil {
		return b
	}
	return []byte(`{"error":"serialization_failed"}`)
}

// EncodeAlert renders the text payload published to the alerts stream
// for any transaction whose score exceeds the configured threshold.
func EncodeAlert(txn *models.Transaction) []byte {
	alert := struct {
		TransactionID string           `json:"transaction_id"`
		UserID        string           `json:"user_id"`
		MerchantID    string           `json:"merchant_id"`
		Amount        float64          `json:"amount"`
		FraudScore    float64          `json:"fraud_score"`
		RiskLevel     models.RiskLevel `json:"risk_level"`
		Decision      models.Decision  `json:"decision"`
		Timestamp     time.Time        `json:"timestamp"`
	}{
		TransactionID: txn.TransactionID,
		UserID:        txn.UserID,
		MerchantID:    txn.MerchantID,
		Amount:        txn.Amount,
		FraudScore:    txn.FraudScore,
		RiskLevel:     txn.RiskLevel,
		Decision:      txn.Decision,
		Timestamp:     txn.Timestamp,
	}
	b, err := json.Marshal(alert)
	if err != nil {
		return []byte(`{"error":"serialization_failed"}`)
	}
	return b
}
