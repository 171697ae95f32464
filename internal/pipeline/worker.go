package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fraudscorer/streaming-scorer/internal/models"
	"github.com/fraudscorer/streaming-scorer/internal/scoring"
	"github.com/fraudscorer/streaming-scorer/internal/windows"
)

// partitionWorker is one key-partitioned execution unit: a worker-local
// WindowSet plus an inbound channel fed only by this partition's
// user_ids, per spec §5's per-key ordering guarantee. drainReq lets the
// checkpoint barrier ask this worker's own goroutine to drain its
// WindowSet, since the set has no internal locking and must only ever
// be touched by the goroutine that owns it.
type partitionWorker struct {
	id       int
	windows  *windows.WindowSet
	inbox    chan *models.Transaction
	drainReq chan chan windows.Results
}

// processOne runs a single transaction through enrichment, scoring,
// velocity update, windowed aggregation, and the three output sinks. A
// decode-failure placeholder skips enrichment, scoring, and the velocity
// update, since it already carries its score/decision/risk_level per
// spec §7; it still passes through windowed aggregation and the sinks.
func (p *Pipeline) processOne(ctx context.Context, txn *models.Transaction) {
	start := time.Now()

	if txn.Error == "" {
		p.enrichAndScore(ctx, txn)
	}
	txn.ProcessingTime = time.Since(start)

	w := p.workers[partitionFor(txn.UserID, len(p.workers))]
	results := w.windows.Add(txn)
	p.logWindowResults(results)

	if p.deps.FeatureStore != nil && len(txn.Features) > 0 {
		if err := p.deps.FeatureStore.StoreFeatureValues(ctx, txn.TransactionID, "transaction", txn.Features); err != nil {
			p.deps.Metrics.IncrStateStoreError("feature_store_write")
		}
	}

	p.deps.Metrics.RecordTransaction(string(txn.Decision), txn.FraudScore)
	p.deps.Logger.TransactionScored(txn.TransactionID, txn.FraudScore, string(txn.Decision), string(txn.RiskLevel), txn.ProcessingTime.Milliseconds())

	p.writeSinks(ctx, txn)
}

func (p *Pipeline) enrichAndScore(ctx context.Context, txn *models.Transaction) {
	txn.UserProfile = p.deps.Profiles.GetUser(ctx, txn.UserID)
	txn.MerchantProfile = p.deps.Profiles.GetMerchant(ctx, txn.MerchantID)

	if p.deps.GeoEnricher != nil {
		p.deps.GeoEnricher.Enrich(txn)
	}

	txn.Features = p.deps.Features.Extract(ctx, txn)
	p.side.apply(ctx, txn)

	scoring.Score(txn)

	if err := p.deps.Velocity.Update(ctx, txn); err != nil {
		p.deps.Metrics.IncrVelocityWriteFailure()
		p.deps.Logger.VelocityWriteFailed(txn.UserID, err)
	}
}

// logWindowResults surfaces the aggregates/alerts that closed inline
// for this event (session end, high-frequency trigger); the rest of a
// worker's windows drain on the checkpoint barrier.
func (p *Pipeline) logWindowResults(r windows.Results) {
	for _, s := range r.Session {
		p.deps.Logger.Info("user session closed",
			zap.String("user_id", s.UserID),
			zap.Int64("transaction_count", s.TransactionCount),
			zap.Float64("total_amount", s.TotalAmount))
	}
	for _, a := range r.HighFrequency {
		p.deps.Logger.Warn("high frequency alert",
			zap.String("user_id", a.UserID),
			zap.Int64("transaction_count", a.TransactionCount))
	}
}
