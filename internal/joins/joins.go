// Package joins implements the window-bounded stream joins (spec
// component C8): transaction correlation with recent user-behavior
// events, merchant profile updates, and historical fraud patterns. Each
// join enriches a transaction's Features map with named risk factors
// rather than emitting a separate join record, since the feature map is
// already the payload the feature store and features stream carry
// downstream; the rule scorer's sub-scores are fixed by spec and do not
// consume these keys directly.
//
// Grounded on original_source/StreamJoiner.java: key selectors, window
// sizes/out-of-orderness, and the join functions' exact risk-factor
// weights and pattern-similarity formula.
package joins

import (
	"context"
	"math"
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

// UserBehaviorEvent is a side-input event correlated by user_id.
type UserBehaviorEvent struct {
	UserID              string    `json:"user_id"`
	Timestamp           time.Time `json:"timestamp"`
	AnomalousLogin      bool      `json:"anomalous_login"`
	ShortSession        bool      `json:"short_session"`
	AnomalousNavigation bool      `json:"anomalous_navigation"`
}

// MerchantProfileUpdate is a side-input event correlated by merchant_id.
type MerchantProfileUpdate struct {
	MerchantID         string    `json:"merchant_id"`
	Timestamp          time.Time `json:"timestamp"`
	RiskLevelIncreased bool      `json:"risk_level_increased"`
	FraudRateIncreased bool      `json:"fraud_rate_increased"`
	NewlyBlacklisted   bool      `json:"newly_blacklisted"`
}

// HistoricalFraudPattern is a side-input event correlated by the
// composite (payment_method, merchant_category, amount bucket) key.
type HistoricalFraudPattern struct {
	PaymentMethod    string    `json:"payment_method"`
	MerchantCategory string    `json:"merchant_category"`
	AmountRange      float64   `json:"amount_range"`
	HourOfDay        *int      `json:"hour_of_day,omitempty"`
	FraudRate        float64   `json:"fraud_rate"`
	OccurrenceCount  int64     `json:"occurrence_count"`
	Recent           bool      `json:"recent"`
	Timestamp        time.Time `json:"timestamp"`
}

const (
	userBehaviorWindow       = 5 * time.Minute
	userBehaviorOutOfOrder   = 5 * time.Second
	merchantUpdateWindow     = 10 * time.Minute
	merchantUpdateOutOfOrder = 5 * time.Second
	historicalPatternWindow     = time.Hour
	historicalPatternOutOfOrder = time.Minute
)

// PatternKey returns the composite key StreamJoiner.java's
// TransactionPatternKeySelector / HistoricalPatternKeySelector compute:
// payment_method, merchant_category, and the amount floored to the
// nearest 100.
func PatternKey(paymentMethod, merchantCategory string, amount float64) string {
	bucket := math.Floor(amount/100) * 100
	return paymentMethod + ":" + merchantCategory + ":" + formatBucket(bucket)
}

func formatBucket(bucket float64) string {
	return itoa(int(bucket))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// patternSimilarity implements StreamJoiner.java's calculatePatternSimilarity.
func patternSimilarity(txn *models.Transaction, p HistoricalFraudPattern) float64 {
	var similarity float64

	if txn.PaymentMethod != "" && txn.PaymentMethod == p.PaymentMethod {
		similarity += 0.3
	}

	amountDiff := math.Abs(txn.Amount - p.AmountRange)
	denom := math.Max(txn.Amount, p.AmountRange)
	if denom > 0 {
		amountSimilarity := math.Max(0, 1.0-(amountDiff/denom))
		similarity += amountSimilarity * 0.4
	}

	if txn.HourOfDay != nil && p.HourOfDay != nil {
		hourDiff := math.Abs(float64(*txn.HourOfDay - *p.HourOfDay))
		timeSimilarity := math.Max(0, 1.0-(hourDiff/12.0))
		similarity += timeSimilarity * 0.3
	}

	return math.Min(1.0, similarity)
}

// ensureFeatures lazily initializes the transaction's feature map so a
// join can be applied before the feature extractor runs (e.g. in tests).
func ensureFeatures(txn *models.Transaction) map[string]any {
	if txn.Features == nil {
		txn.Features = make(map[string]any)
	}
	return txn.Features
}

// JoinUserBehavior folds a correlated user-behavior event's risk factors
// into the transaction's features, within the 5-minute/5s-out-of-order
// window. The caller is responsible for only calling this when the
// event's timestamp falls within userBehaviorWindow of txn.Timestamp and
// the event is not late per userBehaviorOutOfOrder.
func JoinUserBehavior(_ context.Context, txn *models.Transaction, ev UserBehaviorEvent) {
	f := ensureFeatures(txn)
	if ev.AnomalousLogin {
		f["recent_login_anomaly"] = 0.3
	}
	if ev.ShortSession {
		f["session_duration_anomaly"] = 0.2
	}
	if ev.AnomalousNavigation {
		f["navigation_pattern_anomaly"] = 0.25
	}
}

// JoinMerchantUpdate folds a correlated merchant-profile-update event's
// risk factors into the transaction's features, for updates within 10
// minutes (plus 5s out-of-orderness) of the transaction.
func JoinMerchantUpdate(_ context.Context, txn *models.Transaction, upd MerchantProfileUpdate) {
	f := ensureFeatures(txn)
	if upd.RiskLevelIncreased {
		f["merchant_risk_increase"] = 0.4
	}
	if upd.FraudRateIncreased {
		f["merchant_fraud_rate_increase"] = 0.3
	}
	if upd.NewlyBlacklisted {
		f["merchant_newly_blacklisted"] = 0.8
	}
}

// JoinHistoricalPattern folds a correlated historical-fraud-pattern
// event's risk factors into the transaction's features, for patterns
// within 1 hour (plus 1-min out-of-orderness) of the transaction.
func JoinHistoricalPattern(_ context.Context, txn *models.Transaction, p HistoricalFraudPattern) {
	f := ensureFeatures(txn)

	similarity := patternSimilarity(txn, p)
	f["historical_pattern_similarity"] = similarity * p.FraudRate

	if p.Recent && p.FraudRate > 0.5 {
		f["recent_high_fraud_pattern"] = 0.4
	}
	if p.OccurrenceCount > 100 && p.FraudRate > 0.3 {
		f["frequent_fraud_pattern"] = 0.3
	}
}

// WithinUserBehaviorWindow reports whether ev correlates with txn under
// the join's window and out-of-orderness bound.
func WithinUserBehaviorWindow(txn *models.Transaction, ev UserBehaviorEvent) bool {
	return withinWindow(txn.Timestamp, ev.Timestamp, userBehaviorWindow, userBehaviorOutOfOrder)
}

// WithinMerchantUpdateWindow reports whether upd correlates with txn
// under the join's window and out-of-orderness bound.
func WithinMerchantUpdateWindow(txn *models.Transaction, upd MerchantProfileUpdate) bool {
	return withinWindow(txn.Timestamp, upd.Timestamp, merchantUpdateWindow, merchantUpdateOutOfOrder)
}

// WithinHistoricalPatternWindow reports whether p correlates with txn
// under the join's window and out-of-orderness bound.
func WithinHistoricalPatternWindow(txn *models.Transaction, p HistoricalFraudPattern) bool {
	return withinWindow(txn.Timestamp, p.Timestamp, historicalPatternWindow, historicalPatternOutOfOrder)
}

// withinWindow reports whether the two timestamps are at most
// window+outOfOrder apart, in either direction. It does not align either
// timestamp to tumbling window boundaries.
func withinWindow(txnTime, eventTime time.Time, window, outOfOrder time.Duration) bool {
	diff := txnTime.Sub(eventTime)
	if diff < 0 {
		diff = -diff
	}
	return diff <= window+outOfOrder
}
