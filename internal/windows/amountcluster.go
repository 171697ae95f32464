package windows

import (
	"strconv"
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

const amountClusterWindowSize = 30 * time.Minute

type amountClusterAccumulator struct {
	transactionCount int64
	totalAmount      float64
}

func newAmountClusterAccumulator() amountClusterAccumulator { return amountClusterAccumulator{} }

// AmountClusterAggregator implements the 30-minute tumbling log10-bucket
// window.
type AmountClusterAggregator struct {
	mgr *Manager[amountClusterAccumulator, models.AmountClusterAggregate]
}

func NewAmountClusterAggregator() *AmountClusterAggregator {
	return &AmountClusterAggregator{
		mgr: NewManager[amountClusterAccumulator, models.AmountClusterAggregate](DefaultOutOfOrderness, newAmountClusterAccumulator),
	}
}

func (a *AmountClusterAggregator) Add(txn *models.Transaction) {
	a.mgr.Advance(txn.Timestamp)
	key := strconv.Itoa(AmountClusterBucket(txn.Amount))

	start, end := TumblingWindow(txn.Timestamp, amountClusterWindowSize)
	if a.mgr.IsLate(end) {
		return
	}
	acc := a.mgr.Touch(key, start, end)
	acc.transactionCount++
	acc.totalAmount += txn.Amount
	a.mgr.Set(key, start, acc)
}

func (a *AmountClusterAggregator) Emit() []models.AmountClusterAggregate {
	return a.mgr.Emit(func(key string, start, end time.Time, acc amountClusterAccumulator) models.AmountClusterAggregate {
		bucket, _ := strconv.Atoi(key)
		return models.AmountClusterAggregate{
			Bucket:           bucket,
			WindowStart:      start,
			WindowEnd:        end,
			TransactionCount: acc.transactionCount,
			TotalAmount:      acc.totalAmount,
		}
	})
}
