package pipeline

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fraudscorer/streaming-scorer/internal/joins"
	"github.com/fraudscorer/streaming-scorer/internal/models"
	"github.com/fraudscorer/streaming-scorer/internal/stream"
)

// sideInputs holds the latest correlated event per key for each of the
// three stream joins (spec component C8), refreshed by independent
// consumer goroutines and read on the hot path under a shared lock.
// Only the single most recent event per key is retained: a later event
// for the same key simply replaces the window-bounded one before it,
// which is equivalent to the join keeping the freshest match.
type sideInputs struct {
	mu                sync.RWMutex
	userBehavior      map[string]joins.UserBehaviorEvent
	merchantUpdate    map[string]joins.MerchantProfileUpdate
	historicalPattern map[string]joins.HistoricalFraudPattern
}

func newSideInputs() *sideInputs {
	return &sideInputs{
		userBehavior:      make(map[string]joins.UserBehaviorEvent),
		merchantUpdate:    make(map[string]joins.MerchantProfileUpdate),
		historicalPattern: make(map[string]joins.HistoricalFraudPattern),
	}
}

func (s *sideInputs) consumeUserBehavior(ctx context.Context, src stream.Source) error {
	for {
		rec, ok, err := src.Read(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		var ev joins.UserBehaviorEvent
		if json.Unmarshal(rec.Value, &ev) != nil || ev.UserID == "" {
			continue
		}
		s.mu.Lock()
		s.userBehavior[ev.UserID] = ev
		s.mu.Unlock()
	}
}

func (s *sideInputs) consumeMerchantUpdate(ctx context.Context, src stream.Source) error {
	for {
		rec, ok, err := src.Read(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		var upd joins.MerchantProfileUpdate
		if json.Unmarshal(rec.Value, &upd) != nil || upd.MerchantID == "" {
			continue
		}
		s.mu.Lock()
		s.merchantUpdate[upd.MerchantID] = upd
		s.mu.Unlock()
	}
}

func (s *sideInputs) consumeHistoricalPattern(ctx context.Context, src stream.Source) error {
	for {
		rec, ok, err := src.Read(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		var p joins.HistoricalFraudPattern
		if json.Unmarshal(rec.Value, &p) != nil || p.PaymentMethod == "" {
			continue
		}
		key := joins.PatternKey(p.PaymentMethod, p.MerchantCategory, p.AmountRange)
		s.mu.Lock()
		s.historicalPattern[key] = p
		s.mu.Unlock()
	}
}

// apply folds any in-window correlated event into txn's feature map.
// Must run after feature extraction, since it adds keys to the same map
// rather than replacing it.
func (s *sideInputs) apply(ctx context.Context, txn *models.Transaction) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ev, ok := s.userBehavior[txn.UserID]; ok && joins.WithinUserBehaviorWindow(txn, ev) {
		joins.JoinUserBehavior(ctx, txn, ev)
	}
	if upd, ok := s.merchantUpdate[txn.MerchantID]; ok && joins.WithinMerchantUpdateWindow(txn, upd) {
		joins.JoinMerchantUpdate(ctx, txn, upd)
	}

	category := "unknown"
	if txn.MerchantProfile != nil && txn.MerchantProfile.Category != "" {
		category = txn.MerchantProfile.Category
	}
	key := joins.PatternKey(txn.PaymentMethod, category, txn.Amount)
	if p, ok := s.historicalPattern[key]; ok && joins.WithinHistoricalPatternWindow(txn, p) {
		joins.JoinHistoricalPattern(ctx, txn, p)
	}
}
