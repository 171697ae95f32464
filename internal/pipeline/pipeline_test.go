package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/fraudscorer/streaming-scorer/internal/config"
	"github.com/fraudscorer/streaming-scorer/internal/joins"
	"github.com/fraudscorer/streaming-scorer/internal/logging"
	"github.com/fraudscorer/streaming-scorer/internal/models"
	"github.com/fraudscorer/streaming-scorer/internal/stream"
	"github.com/fraudscorer/streaming-scorer/internal/telemetry"
)

type fakeSource struct {
	commits int32
}

func (f *fakeSource) Read(ctx context.Context) (stream.RawRecord, bool, error) {
	return stream.RawRecord{}, false, nil
}

func (f *fakeSource) Commit(ctx context.Context) error {
	atomic.AddInt32(&f.commits, 1)
	return nil
}

func (f *fakeSource) Close() error { return nil }

type fakeSink struct {
	writes int32
}

func (f *fakeSink) Write(ctx context.Context, rec stream.RawRecord) error {
	atomic.AddInt32(&f.writes, 1)
	return nil
}

func (f *fakeSink) Close() error { return nil }

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	l, err := logging.New("test", true)
	if err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}
	return l
}

func TestPartitionForIsDeterministic(t *testing.T) {
	a := partitionFor("user-42", 8)
	b := partitionFor("user-42", 8)
	if a != b {
		t.Fatalf("partitionFor not deterministic: %d != %d", a, b)
	}
	if a < 0 || a >= 8 {
		t.Fatalf("partitionFor out of range: %d", a)
	}
}

func TestPartitionForSingleWorkerAlwaysZero(t *testing.T) {
	if got := partitionFor("anyone", 1); got != 0 {
		t.Fatalf("partitionFor(_, 1) = %d, want 0", got)
	}
}

func TestCheckpointerSkipsWithinMinimumPause(t *testing.T) {
	src := &fakeSource{}
	ckpt := newCheckpointer(Dependencies{
		Logger:  testLogger(t),
		Metrics: telemetry.New(),
		Source:  src,
	}, nil)

	ckpt.maybeRun(context.Background())
	ckpt.maybeRun(context.Background())

	if got := atomic.LoadInt32(&src.commits); got != 1 {
		t.Fatalf("commits = %d, want 1 (second tick should be skipped as too soon)", got)
	}

	ckpt.last = time.Now().Add(-minimumPause - time.Second)
	ckpt.maybeRun(context.Background())
	if got := atomic.LoadInt32(&src.commits); got != 2 {
		t.Fatalf("commits = %d, want 2 after minimum pause elapsed", got)
	}
}

func TestWriteAlertRateLimited(t *testing.T) {
	sink := &fakeSink{}
	p := &Pipeline{
		deps: Dependencies{
			Logger:    testLogger(t),
			Metrics:   telemetry.New(),
			AlertSink: sink,
			Config:    &config.Config{EnableAlerting: true, FraudThreshold: 0.7},
		},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}

	txn := &models.Transaction{TransactionID: "t1", FraudScore: 0.9, Timestamp: time.Now()}
	p.writeAlert(context.Background(), txn)
	p.writeAlert(context.Background(), txn)

	if got := atomic.LoadInt32(&sink.writes); got != 1 {
		t.Fatalf("sink writes = %d, want 1 (second alert should be rate-limited)", got)
	}
}

func TestSideInputsApplyWithinWindow(t *testing.T) {
	s := newSideInputs()
	now := time.Now().UTC()

	s.userBehavior["u1"] = joins.UserBehaviorEvent{UserID: "u1", Timestamp: now, AnomalousLogin: true}
	s.merchantUpdate["m1"] = joins.MerchantProfileUpdate{MerchantID: "m1", Timestamp: now, NewlyBlacklisted: true}

	txn := &models.Transaction{
		UserID:     "u1",
		MerchantID: "m1",
		Timestamp:  now.Add(time.Minute),
		Features:   map[string]any{},
	}
	s.apply(context.Background(), txn)

	if v, ok := txn.Features["recent_login_anomaly"]; !ok || v != 0.3 {
		t.Errorf("recent_login_anomaly = %v, ok=%v, want 0.3", v, ok)
	}
	if v, ok := txn.Features["merchant_newly_blacklisted"]; !ok || v != 0.8 {
		t.Errorf("merchant_newly_blacklisted = %v, ok=%v, want 0.8", v, ok)
	}
}

func TestSideInputsApplySkipsStaleEvent(t *testing.T) {
	s := newSideInputs()
	stale := time.Now().UTC().Add(-time.Hour)

	s.userBehavior["u2"] = joins.UserBehaviorEvent{UserID: "u2", Timestamp: stale, AnomalousLogin: true}

	txn := &models.Transaction{UserID: "u2", Timestamp: time.Now().UTC(), Features: map[string]any{}}
	s.apply(context.Background(), txn)

	if _, ok := txn.Features["recent_login_anomaly"]; ok {
		t.Errorf("expected stale user-behavior event to be skipped, but feature was set")
	}
}
