package pipeline

import (
	"context"
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/codec"
	"github.com/fraudscorer/streaming-scorer/internal/models"
	"github.com/fraudscorer/streaming-scorer/internal/stream"
)

// writeSinks fans a scored transaction out to the enriched, feature, and
// (conditionally) alert streams per spec §6/§4.10. Each write is attempted
// up to sinkRetries times in total; exhaustion is logged and counted but never
// blocks the record from reaching the other sinks.
func (p *Pipeline) writeSinks(ctx context.Context, txn *models.Transaction) {
	p.writeEnriched(ctx, txn)
	p.writeFeatureRecord(ctx, txn)

	if p.deps.Config.EnableAlerting && txn.FraudScore > p.deps.Config.FraudThreshold {
		p.writeAlert(ctx, txn)
	}
}

func (p *Pipeline) writeEnriched(ctx context.Context, txn *models.Transaction) {
	rec := stream.RawRecord{Key: []byte(txn.TransactionID), Value: codec.Encode(txn), Timestamp: txn.Timestamp}
	p.writeWithRetry(ctx, "enriched", p.deps.EnrichedSink, rec)
}

func (p *Pipeline) writeFeatureRecord(ctx context.Context, txn *models.Transaction) {
	fr := &models.FeatureRecord{
		EntityID:   txn.TransactionID,
		EntityType: "transaction",
		Timestamp:  txn.Timestamp,
		Version:    1,
		Features:   txn.Features,
	}
	rec := stream.RawRecord{Key: []byte(txn.TransactionID), Value: codec.EncodeFeatureRecord(fr), Timestamp: txn.Timestamp}
	p.writeWithRetry(ctx, "features", p.deps.FeatureSink, rec)
}

func (p *Pipeline) writeAlert(ctx context.Context, txn *models.Transaction) {
	if !p.limiter.Allow() {
		p.deps.Metrics.IncrAlertSuppressed()
		p.deps.Logger.AlertRateLimited(txn.TransactionID)
		return
	}
	rec := stream.RawRecord{Key: []byte(txn.TransactionID), Value: codec.EncodeAlert(txn), Timestamp: txn.Timestamp}
	p.writeWithRetry(ctx, "alerts", p.deps.AlertSink, rec)
	p.deps.Metrics.IncrAlertEmitted(string(txn.RiskLevel))
}

func (p *Pipeline) writeWithRetry(ctx context.Context, sinkName string, sink stream.Sink, rec stream.RawRecord) {
	if sink == nil {
		return
	}
	var lastErr error
	for attempt := 0; attempt < sinkRetries; attempt++ {
		err := sink.Write(ctx, rec)
		if err == nil {
			return
		}
		lastErr = err
		select {
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		case <-ctx.Done():
			return
		}
	}
	p.deps.Metrics.IncrSinkWriteFailure(sinkName)
	p.deps.Logger.SinkWriteFailed(sinkName, lastErr)
}
