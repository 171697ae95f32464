package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fraudscorer/streaming-scorer/internal/windows"
)

// Checkpoint barrier timing, per spec §4.10: nominal interval 10s,
// minimum pause 5s between barriers, 60s execution timeout, at most one
// barrier in flight at a time.
const (
	nominalInterval  = 10 * time.Second
	minimumPause     = 5 * time.Second
	barrierTimeout   = 60 * time.Second
)

// checkpointer periodically drains every worker's windows and commits
// the input stream's offsets, giving exactly-once semantics at the
// state/window boundary and at-least-once at the sinks (spec §4.10).
type checkpointer struct {
	deps    Dependencies
	workers []*partitionWorker

	inFlight sync.Mutex
	last     time.Time
}

func newCheckpointer(deps Dependencies, workers []*partitionWorker) *checkpointer {
	return &checkpointer{deps: deps, workers: workers}
}

func (c *checkpointer) run(ctx context.Context) error {
	interval := c.deps.Config.CheckpointIntervalDuration()
	if interval <= 0 {
		interval = nominalInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.maybeRun(ctx)
		}
	}
}

// maybeRun enforces "max concurrent 1" by skipping a tick if a barrier
// is already running, and "minimum pause 5s" by skipping a tick that
// arrives too soon after the previous barrier completed.
func (c *checkpointer) maybeRun(ctx context.Context) {
	if !c.inFlight.TryLock() {
		return
	}
	defer c.inFlight.Unlock()

	if !c.last.IsZero() && time.Since(c.last) < minimumPause {
		return
	}

	bctx, cancel := context.WithTimeout(ctx, barrierTimeout)
	defer cancel()

	start := time.Now()
	c.barrier(bctx)
	c.last = time.Now()

	c.deps.Metrics.RecordCheckpointDuration(time.Since(start))
	c.deps.Logger.CheckpointCompleted(len(c.workers), time.Since(start).Milliseconds())
}

// barrier asks every worker's own goroutine to drain its WindowSet (the
// set has no internal locking, so only its owning goroutine may touch
// it) and then commits the source's offsets.
func (c *checkpointer) barrier(ctx context.Context) {
	for _, w := range c.workers {
		reply := make(chan windows.Results, 1)
		select {
		case w.drainReq <- reply:
		case <-ctx.Done():
			return
		}
		select {
		case results := <-reply:
			c.logDrain(results)
		case <-ctx.Done():
			return
		}
	}

	if err := c.deps.Source.Commit(ctx); err != nil {
		c.deps.Logger.Warn("checkpoint commit failed", zap.Error(err))
	}
}

func (c *checkpointer) logDrain(r windows.Results) {
	total := len(r.UserVelocity) + len(r.Merchant) + len(r.Session) + len(r.Geographic) +
		len(r.FraudPattern) + len(r.HighFrequency) + len(r.AmountCluster)
	if total == 0 {
		return
	}
	c.deps.Logger.Debug("window aggregates emitted",
		zap.Int("user_velocity", len(r.UserVelocity)),
		zap.Int("merchant", len(r.Merchant)),
		zap.Int("session", len(r.Session)),
		zap.Int("geographic", len(r.Geographic)),
		zap.Int("fraud_pattern", len(r.FraudPattern)),
		zap.Int("high_frequency", len(r.HighFrequency)),
		zap.Int("amount_cluster", len(r.AmountCluster)),
	)
}
