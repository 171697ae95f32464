package windows

import (
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

const (
	fraudPatternWindowSize = 10 * time.Minute
	fraudPatternWindowSlide = 2 * time.Minute
)

type fraudPatternAccumulator struct {
	transactionCount int64
	fraudCount       int64
}

func newFraudPatternAccumulator() fraudPatternAccumulator { return fraudPatternAccumulator{} }

// FraudPatternAggregator implements the sliding (payment_method,
// merchant_category, amount_bucket) window.
type FraudPatternAggregator struct {
	mgr *Manager[fraudPatternAccumulator, models.FraudPatternAggregate]
}

func NewFraudPatternAggregator() *FraudPatternAggregator {
	return &FraudPatternAggregator{
		mgr: NewManager[fraudPatternAccumulator, models.FraudPatternAggregate](DefaultOutOfOrderness, newFraudPatternAccumulator),
	}
}

func patternKey(txn *models.Transaction) string {
	category, _ := txn.Features["merchant_category"].(string)
	if category == "" {
		category = "unknown"
	}
	return txn.PaymentMethod + "|" + category + "|" + AmountBucketPattern(txn.Amount)
}

func (a *FraudPatternAggregator) Add(txn *models.Transaction) {
	a.mgr.Advance(txn.Timestamp)
	key := patternKey(txn)

	for _, w := range SlidingWindows(txn.Timestamp, fraudPatternWindowSize, fraudPatternWindowSlide) {
		if a.mgr.IsLate(w.End) {
			continue
		}
		acc := a.mgr.Touch(key, w.Start, w.End)
		acc.transactionCount++
		if txn.IsFraudLabel != nil && *txn.IsFraudLabel {
			acc.fraudCount++
		}
		a.mgr.Set(key, w.Start, acc)
	}
}

func (a *FraudPatternAggregator) Emit() []models.FraudPatternAggregate {
	return a.mgr.Emit(func(key string, start, end time.Time, acc fraudPatternAccumulator) models.FraudPatternAggregate {
		return models.FraudPatternAggregate{
			PatternKey:       key,
			WindowStart:      start,
			WindowEnd:        end,
			TransactionCount: acc.transactionCount,
			FraudCount:       acc.fraudCount,
			FraudRate:        rate(acc.fraudCount, acc.transactionCount),
		}
	})
}
