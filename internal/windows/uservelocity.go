package windows

import (
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

// userVelocityAccumulator mirrors WindowProcessor.java's
// UserVelocityAccumulator.
type userVelocityAccumulator struct {
	transactionCount int64
	totalAmount      float64
	fraudCount       int64
	highRiskCount    int64
	uniqueMerchants  map[string]struct{}
	paymentMethods   map[string]struct{}
}

func newUserVelocityAccumulator() userVelocityAccumulator {
	return userVelocityAccumulator{
		uniqueMerchants: make(map[string]struct{}),
		paymentMethods:  make(map[string]struct{}),
	}
}

// UserVelocityAggregator implements the 5-minute/1-minute-slide sliding
// window over per-user transactions.
type UserVelocityAggregator struct {
	mgr *Manager[userVelocityAccumulator, models.UserVelocityAggregate]
}

func NewUserVelocityAggregator() *UserVelocityAggregator {
	return &UserVelocityAggregator{
		mgr: NewManager[userVelocityAccumulator, models.UserVelocityAggregate](DefaultOutOfOrderness, newUserVelocityAccumulator),
	}
}

const (
	userVelocityWindowSize = 5 * time.Minute
	userVelocityWindowSlide = time.Minute
)

// Add folds txn into every sliding window instance it belongs to.
func (a *UserVelocityAggregator) Add(txn *models.Transaction) {
	a.mgr.Advance(txn.Timestamp)

	for _, w := range SlidingWindows(txn.Timestamp, userVelocityWindowSize, userVelocityWindowSlide) {
		if a.mgr.IsLate(w.End) {
			continue
		}
		acc := a.mgr.Touch(txn.UserID, w.Start, w.End)
		acc.transactionCount++
		acc.totalAmount += txn.Amount
		acc.uniqueMerchants[txn.MerchantID] = struct{}{}
		if txn.PaymentMethod != "" {
			acc.paymentMethods[txn.PaymentMethod] = struct{}{}
		}
		if txn.IsFraudLabel != nil && *txn.IsFraudLabel {
			acc.fraudCount++
		}
		if txn.FraudScore > 0.7 {
			acc.highRiskCount++
		}
		a.mgr.Set(txn.UserID, w.Start, acc)
	}
}

// Emit returns every window whose watermark has closed.
func (a *UserVelocityAggregator) Emit() []models.UserVelocityAggregate {
	return a.mgr.Emit(func(key string, start, end time.Time, acc userVelocityAccumulator) models.UserVelocityAggregate {
		return models.UserVelocityAggregate{
			UserID:               key,
			WindowStart:          start,
			WindowEnd:            end,
			TransactionCount:     acc.transactionCount,
			TotalAmount:          acc.totalAmount,
			FraudCount:           acc.fraudCount,
			HighRiskCount:        acc.highRiskCount,
			UniqueMerchants:      len(acc.uniqueMerchants),
			UniquePaymentMethods: len(acc.paymentMethods),
			AvgAmount:            avg(acc.totalAmount, acc.transactionCount),
			FraudRate:            rate(acc.fraudCount, acc.transactionCount),
			VelocityScore:        userVelocityScore(acc),
		}
	})
}

// userVelocityScore implements WindowProcessor.java's calculateVelocityScore.
func userVelocityScore(acc userVelocityAccumulator) float64 {
	var score float64

	switch {
	case acc.transactionCount > 20:
		score += 0.4
	case acc.transactionCount > 10:
		score += 0.2
	case acc.transactionCount > 5:
		score += 0.1
	}

	switch {
	case acc.totalAmount > 10000:
		score += 0.3
	case acc.totalAmount > 5000:
		score += 0.2
	case acc.totalAmount > 1000:
		score += 0.1
	}

	score += rate(acc.fraudCount, acc.transactionCount) * 0.4

	if acc.transactionCount > 0 {
		diversity := float64(len(acc.uniqueMerchants)) / float64(acc.transactionCount)
		if diversity < 0.2 {
			score += 0.2
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func avg(total float64, count int64) float64 {
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func rate(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
