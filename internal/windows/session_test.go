package windows

import (
	"testing"
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

func TestSessionWindowClosesOnGap(t *testing.T) {
	agg := NewSessionAggregator()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	txn := func(offset time.Duration) *models.Transaction {
		return &models.Transaction{UserID: "u1", Amount: 10, Timestamp: base.Add(offset)}
	}

	if closed := agg.Add(txn(0)); closed.UserID != "" {
		t.Fatalf("first event should not close a session")
	}
	if closed := agg.Add(txn(10 * time.Minute)); closed.UserID != "" {
		t.Fatalf("second event within gap should not close a session")
	}
	if closed := agg.Add(txn(25 * time.Minute)); closed.UserID != "" {
		t.Fatalf("third event within gap should not close a session")
	}

	// Fourth event at t=60min is past the 30-minute gap from t=25min,
	// so it closes session 1 = [0, 25min] with 3 events.
	closed := agg.Add(txn(60 * time.Minute))
	if closed.UserID != "u1" {
		t.Fatalf("fourth event should close session 1")
	}
	if closed.TransactionCount != 3 {
		t.Errorf("session 1 transaction_count = %d, want 3", closed.TransactionCount)
	}
	if !closed.WindowStart.Equal(base) {
		t.Errorf("session 1 start = %v, want %v", closed.WindowStart, base)
	}
	if !closed.WindowEnd.Equal(base.Add(25 * time.Minute)) {
		t.Errorf("session 1 end = %v, want %v", closed.WindowEnd, base.Add(25*time.Minute))
	}

	// Session 2 = [60min] with 1 event, only closes once the watermark
	// passes the gap.
	flushed := agg.Flush()
	if len(flushed) != 0 {
		t.Fatalf("session 2 should still be open right after the triggering event")
	}

	// Advance takes an event time; the watermark trails it by
	// DefaultOutOfOrderness, so the event must land that much later.
	agg.watermark.Advance(base.Add(60*time.Minute + sessionGap + DefaultOutOfOrderness + time.Second))
	flushed = agg.Flush()
	if len(flushed) != 1 || flushed[0].UserID != "u1" {
		t.Fatalf("session 2 should flush once the watermark passes the gap")
	}
	if flushed[0].TransactionCount != 1 {
		t.Errorf("session 2 transaction_count = %d, want 1", flushed[0].TransactionCount)
	}
}
