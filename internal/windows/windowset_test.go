package windows

import (
	"testing"
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

func TestWindowSetDrainAfterActivity(t *testing.T) {
	ws := NewWindowSet()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lat, lon := 40.7, -73.9

	for i := 0; i < 5; i++ {
		ws.Add(&models.Transaction{
			TransactionID: "t" + itoa(i),
			UserID:        "u1",
			MerchantID:    "m1",
			Amount:        250,
			PaymentMethod: "card",
			Geolocation:   &models.GeoPoint{Latitude: lat, Longitude: lon},
			Features:      map[string]any{"merchant_category": "retail"},
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
		})
	}

	// Push the watermark well past every window's close.
	ws.Add(&models.Transaction{
		TransactionID: "flush",
		UserID:        "flush-user",
		MerchantID:    "flush-merchant",
		Amount:        1,
		Timestamp:     base.Add(3 * time.Hour),
	})

	res := ws.Drain()
	if len(res.Merchant) == 0 {
		t.Errorf("expected a merchant window to drain")
	}
	if len(res.Geographic) == 0 {
		t.Errorf("expected a geographic window to drain")
	}
	if len(res.FraudPattern) == 0 {
		t.Errorf("expected a fraud-pattern window to drain")
	}
	if len(res.AmountCluster) == 0 {
		t.Errorf("expected an amount-cluster window to drain")
	}
	if len(res.UserVelocity) == 0 {
		t.Errorf("expected a user-velocity window to drain")
	}
}
