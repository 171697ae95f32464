package windows

import (
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

const (
	highFrequencyWindowSize  = 5 * time.Minute
	highFrequencyCountTrigger = 10
)

type highFrequencyAccumulator struct {
	transactionCount int64
	lastTriggerCount int64
}

func newHighFrequencyAccumulator() highFrequencyAccumulator { return highFrequencyAccumulator{} }

// HighFrequencyDetector implements the tumbling 5-minute per-user window
// that fires an alert every 10 events inside the window. Its watermark
// uses the tighter HighFrequencyOutOfOrderness bound.
type HighFrequencyDetector struct {
	mgr *Manager[highFrequencyAccumulator, models.HighFrequencyAlert]
}

func NewHighFrequencyDetector() *HighFrequencyDetector {
	return &HighFrequencyDetector{
		mgr: NewManager[highFrequencyAccumulator, models.HighFrequencyAlert](HighFrequencyOutOfOrderness, newHighFrequencyAccumulator),
	}
}

// Add folds txn into the user's current tumbling window and returns an
// alert, triggeredAt txn.Timestamp, whenever the running count crosses a
// multiple of highFrequencyCountTrigger.
func (d *HighFrequencyDetector) Add(txn *models.Transaction) (models.HighFrequencyAlert, bool) {
	d.mgr.Advance(txn.Timestamp)

	start, end := TumblingWindow(txn.Timestamp, highFrequencyWindowSize)
	if d.mgr.IsLate(end) {
		return models.HighFrequencyAlert{}, false
	}

	acc := d.mgr.Touch(txn.UserID, start, end)
	acc.transactionCount++
	fired := acc.transactionCount/highFrequencyCountTrigger > acc.lastTriggerCount/highFrequencyCountTrigger
	if fired {
		acc.lastTriggerCount = acc.transactionCount
	}
	d.mgr.Set(txn.UserID, start, acc)

	if !fired {
		return models.HighFrequencyAlert{}, false
	}
	return models.HighFrequencyAlert{
		UserID:           txn.UserID,
		WindowStart:      start,
		WindowEnd:        end,
		TransactionCount: acc.transactionCount,
		TriggeredAt:      txn.Timestamp,
	}, true
}

// Emit drains remaining window state once the watermark closes it; the
// within-window alerts are already delivered by Add, so this only clears
// bookkeeping and never itself yields a new alert.
func (d *HighFrequencyDetector) Emit() {
	d.mgr.Emit(func(string, time.Time, time.Time, highFrequencyAccumulator) models.HighFrequencyAlert {
		return models.HighFrequencyAlert{}
	})
}
