package windows

import "github.com/fraudscorer/streaming-scorer/internal/models"

// WindowSet bundles all seven aggregators so the pipeline can feed every
// scored transaction through one call and periodically drain emissions
// from all of them.
type WindowSet struct {
	UserVelocity  *UserVelocityAggregator
	Merchant      *MerchantAggregator
	Session       *SessionAggregator
	Geographic    *GeographicAggregator
	FraudPattern  *FraudPatternAggregator
	HighFrequency *HighFrequencyDetector
	AmountCluster *AmountClusterAggregator
}

func NewWindowSet() *WindowSet {
	return &WindowSet{
		UserVelocity:  NewUserVelocityAggregator(),
		Merchant:      NewMerchantAggregator(),
		Session:       NewSessionAggregator(),
		Geographic:    NewGeographicAggregator(),
		FraudPattern:  NewFraudPatternAggregator(),
		HighFrequency: NewHighFrequencyDetector(),
		AmountCluster: NewAmountClusterAggregator(),
	}
}

// Results holds everything emitted for one Add call or one Drain sweep.
type Results struct {
	UserVelocity    []models.UserVelocityAggregate
	Merchant        []models.MerchantAggregate
	Session         []models.UserSessionAggregate
	Geographic      []models.GeographicAggregate
	FraudPattern    []models.FraudPatternAggregate
	HighFrequency   []models.HighFrequencyAlert
	AmountCluster   []models.AmountClusterAggregate
}

// Add feeds txn into every aggregator, returning any session close or
// high-frequency alert triggered immediately by this event.
func (s *WindowSet) Add(txn *models.Transaction) Results {
	var r Results

	s.UserVelocity.Add(txn)
	s.Merchant.Add(txn)
	s.Geographic.Add(txn)
	s.FraudPattern.Add(txn)
	s.AmountCluster.Add(txn)

	if session := s.Session.Add(txn); session.UserID != "" {
		r.Session = append(r.Session, session)
	}
	if alert, fired := s.HighFrequency.Add(txn); fired {
		r.HighFrequency = append(r.HighFrequency, alert)
	}
	return r
}

// Drain emits every window whose watermark has closed across all
// aggregators. Call periodically (e.g. on checkpoint) in addition to the
// inline results from Add.
func (s *WindowSet) Drain() Results {
	s.HighFrequency.Emit()
	return Results{
		UserVelocity:  s.UserVelocity.Emit(),
		Merchant:      s.Merchant.Emit(),
		Session:       s.Session.Flush(),
		Geographic:    s.Geographic.Emit(),
		FraudPattern:  s.FraudPattern.Emit(),
		AmountCluster: s.AmountCluster.Emit(),
	}
}
