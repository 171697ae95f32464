package windows

import (
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

// sessionGap is the inactivity gap that closes a user session window.
const sessionGap = 30 * time.Minute

type openSession struct {
	start            time.Time
	lastEvent        time.Time
	transactionCount int64
	totalAmount      float64
}

// SessionAggregator implements the per-user session window: a session
// stays open while consecutive events are within sessionGap of each
// other, and closes (emitting one UserSessionAggregate) once a new event
// arrives past the gap, or once the watermark advances past the last
// event plus the gap.
//
// Unlike the fixed-boundary tumbling/sliding windows, a session's end is
// only known in hindsight, so this does not reuse Manager[A, R] — it
// keeps its own open-session table keyed by user_id.
type SessionAggregator struct {
	watermark *Watermark
	open      map[string]*openSession
}

func NewSessionAggregator() *SessionAggregator {
	return &SessionAggregator{
		watermark: NewWatermark(DefaultOutOfOrderness),
		open:      make(map[string]*openSession),
	}
}

// Add folds txn into the user's open session, closing and returning the
// prior session first if the gap has elapsed.
func (a *SessionAggregator) Add(txn *models.Transaction) models.UserSessionAggregate {
	a.watermark.Advance(txn.Timestamp)

	s, ok := a.open[txn.UserID]
	var closed models.UserSessionAggregate
	hasClosed := false

	if ok && txn.Timestamp.Sub(s.lastEvent) > sessionGap {
		closed = sessionResult(txn.UserID, s)
		hasClosed = true
		s = nil
	}

	if s == nil {
		s = &openSession{start: txn.Timestamp}
		a.open[txn.UserID] = s
	}
	s.lastEvent = txn.Timestamp
	s.transactionCount++
	s.totalAmount += txn.Amount

	if hasClosed {
		return closed
	}
	return models.UserSessionAggregate{}
}

// Flush closes and returns every session whose gap has elapsed relative
// to the current watermark, without waiting for a triggering new event.
func (a *SessionAggregator) Flush() []models.UserSessionAggregate {
	wm := a.watermark.Current()
	if wm.IsZero() {
		return nil
	}

	var out []models.UserSessionAggregate
	for userID, s := range a.open {
		if wm.Sub(s.lastEvent) > sessionGap {
			out = append(out, sessionResult(userID, s))
			delete(a.open, userID)
		}
	}
	return out
}

func sessionResult(userID string, s *openSession) models.UserSessionAggregate {
	return models.UserSessionAggregate{
		UserID:           userID,
		WindowStart:      s.start,
		WindowEnd:        s.lastEvent,
		TransactionCount: s.transactionCount,
		TotalAmount:      s.totalAmount,
	}
}
