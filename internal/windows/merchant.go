package windows

import (
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

const merchantWindowSize = time.Hour

// merchantAccumulator mirrors WindowProcessor.java's MerchantAccumulator.
type merchantAccumulator struct {
	transactionCount int64
	totalAmount      float64
	fraudCount       int64
	highRiskCount    int64
	uniqueUsers      map[string]struct{}
	amounts          []float64
}

func newMerchantAccumulator() merchantAccumulator {
	return merchantAccumulator{uniqueUsers: make(map[string]struct{})}
}

// MerchantAggregator implements the tumbling one-hour per-merchant window.
type MerchantAggregator struct {
	mgr *Manager[merchantAccumulator, models.MerchantAggregate]
}

func NewMerchantAggregator() *MerchantAggregator {
	return &MerchantAggregator{
		mgr: NewManager[merchantAccumulator, models.MerchantAggregate](DefaultOutOfOrderness, newMerchantAccumulator),
	}
}

func (a *MerchantAggregator) Add(txn *models.Transaction) {
	a.mgr.Advance(txn.Timestamp)

	start, end := TumblingWindow(txn.Timestamp, merchantWindowSize)
	if a.mgr.IsLate(end) {
		return
	}
	acc := a.mgr.Touch(txn.MerchantID, start, end)
	acc.transactionCount++
	acc.totalAmount += txn.Amount
	acc.uniqueUsers[txn.UserID] = struct{}{}
	acc.amounts = append(acc.amounts, txn.Amount)
	if txn.IsFraudLabel != nil && *txn.IsFraudLabel {
		acc.fraudCount++
	}
	if txn.FraudScore > 0.7 {
		acc.highRiskCount++
	}
	a.mgr.Set(txn.MerchantID, start, acc)
}

func (a *MerchantAggregator) Emit() []models.MerchantAggregate {
	return a.mgr.Emit(func(key string, start, end time.Time, acc merchantAccumulator) models.MerchantAggregate {
		return models.MerchantAggregate{
			MerchantID:       key,
			WindowStart:      start,
			WindowEnd:        end,
			TransactionCount: acc.transactionCount,
			TotalAmount:      acc.totalAmount,
			FraudCount:       acc.fraudCount,
			HighRiskCount:    acc.highRiskCount,
			UniqueUsers:      len(acc.uniqueUsers),
			AvgAmount:        avg(acc.totalAmount, acc.transactionCount),
			FraudRate:        rate(acc.fraudCount, acc.transactionCount),
			AmountStdDev:     StdDev(acc.amounts),
			RiskScore:        merchantRiskScore(acc),
		}
	})
}

// merchantRiskScore implements WindowProcessor.java's calculateMerchantRiskScore.
func merchantRiskScore(acc merchantAccumulator) float64 {
	var score float64

	score += rate(acc.fraudCount, acc.transactionCount) * 0.5

	switch {
	case acc.transactionCount > 1000:
		score += 0.2
	case acc.transactionCount > 500:
		score += 0.1
	}

	stddev := StdDev(acc.amounts)
	avgAmount := avg(acc.totalAmount, acc.transactionCount)
	if avgAmount > 0 && stddev/avgAmount > 2.0 {
		score += 0.2
	}

	if acc.transactionCount > 0 {
		diversity := float64(len(acc.uniqueUsers)) / float64(acc.transactionCount)
		if diversity < 0.1 {
			score += 0.3
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
