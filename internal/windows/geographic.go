package windows

import (
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

const geographicWindowSize = 15 * time.Minute

type geographicAccumulator struct {
	transactionCount int64
	totalAmount      float64
	uniqueUsers      map[string]struct{}
}

func newGeographicAccumulator() geographicAccumulator {
	return geographicAccumulator{uniqueUsers: make(map[string]struct{})}
}

// GeographicAggregator implements the 15-minute tumbling grid-cell window.
type GeographicAggregator struct {
	mgr *Manager[geographicAccumulator, models.GeographicAggregate]
}

func NewGeographicAggregator() *GeographicAggregator {
	return &GeographicAggregator{
		mgr: NewManager[geographicAccumulator, models.GeographicAggregate](DefaultOutOfOrderness, newGeographicAccumulator),
	}
}

func (a *GeographicAggregator) Add(txn *models.Transaction) {
	a.mgr.Advance(txn.Timestamp)

	var lat, lon *float64
	if txn.Geolocation != nil {
		lat, lon = &txn.Geolocation.Latitude, &txn.Geolocation.Longitude
	}
	key := GeoGridKey(lat, lon)

	start, end := TumblingWindow(txn.Timestamp, geographicWindowSize)
	if a.mgr.IsLate(end) {
		return
	}
	acc := a.mgr.Touch(key, start, end)
	acc.transactionCount++
	acc.totalAmount += txn.Amount
	acc.uniqueUsers[txn.UserID] = struct{}{}
	a.mgr.Set(key, start, acc)
}

func (a *GeographicAggregator) Emit() []models.GeographicAggregate {
	return a.mgr.Emit(func(key string, start, end time.Time, acc geographicAccumulator) models.GeographicAggregate {
		return models.GeographicAggregate{
			GridKey:          key,
			WindowStart:      start,
			WindowEnd:        end,
			TransactionCount: acc.transactionCount,
			TotalAmount:      acc.totalAmount,
			UniqueUsers:      len(acc.uniqueUsers),
		}
	})
}
