package windows

import (
	"testing"
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

func TestHighFrequencyDetectorFiresEveryTenEvents(t *testing.T) {
	det := NewHighFrequencyDetector()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var fires int
	for i := 1; i <= 25; i++ {
		_, fired := det.Add(&models.Transaction{
			UserID:    "u1",
			Amount:    10,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
		if fired {
			fires++
		}
	}
	if fires != 2 {
		t.Fatalf("fires = %d, want 2 (at event 10 and 20 within the 5-minute window)", fires)
	}
}

func TestHighFrequencyDetectorResetsNextWindow(t *testing.T) {
	det := NewHighFrequencyDetector()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 10; i++ {
		det.Add(&models.Transaction{UserID: "u1", Amount: 1, Timestamp: base.Add(time.Duration(i) * time.Second)})
	}

	_, fired := det.Add(&models.Transaction{
		UserID:    "u1",
		Amount:    1,
		Timestamp: base.Add(6 * time.Minute),
	})
	if fired {
		t.Fatalf("a single event in a fresh window should not fire the count trigger")
	}
}
