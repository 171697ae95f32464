// Package logging wraps zap with the pipeline's domain vocabulary
// (transaction scored, sink write failures, checkpoint events), so
// call sites log with named helper methods instead of ad hoc
// zap.Field lists scattered across the codebase.
//
// Grounded on banking-aml-service/internal/pkg/logger/logger.go's
// wrapper-with-domain-helpers pattern, re-expressed for this pipeline's
// events instead of AML screening events.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with pipeline-specific helper methods.
type Logger struct {
	*zap.Logger
}

// New builds a Logger appropriate for environment ("production" gets
// JSON/ISO8601 output; anything else gets colorized development output).
func New(environment string, debug bool) (*Logger, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.InitialFields = map[string]any{
		"service": "fraud-scoring-pipeline",
		"env":     environment,
		"pid":     os.Getpid(),
	}

	zl, err := cfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: zl}, nil
}

// Named returns a named sub-logger.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}

// WithTransaction returns a logger annotated with transaction/user context.
func (l *Logger) WithTransaction(transactionID, userID string) *Logger {
	return &Logger{Logger: l.With(
		zap.String("transaction_id", transactionID),
		zap.String("user_id", userID),
	)}
}

// TransactionScored logs the outcome of scoring a transaction.
func (l *Logger) TransactionScored(transactionID string, score float64, decision, riskLevel string, durationMs int64) {
	l.Info("transaction scored",
		zap.String("transaction_id", transactionID),
		zap.Float64("fraud_score", score),
		zap.String("decision", decision),
		zap.String("risk_level", riskLevel),
		zap.Int64("duration_ms", durationMs),
	)
}

// DecodeFailed logs a malformed input record that was replaced with a
// placeholder.
func (l *Logger) DecodeFailed(placeholderID string, err error) {
	l.Warn("decode failed, emitting placeholder",
		zap.String("transaction_id", placeholderID),
		zap.Error(err),
	)
}

// StateStoreTimeout logs a state-store call that exceeded its deadline
// or tripped the circuit breaker.
func (l *Logger) StateStoreTimeout(operation, key string, err error) {
	l.Warn("state store call failed",
		zap.String("operation", operation),
		zap.String("key", key),
		zap.Error(err),
	)
}

// VelocityWriteFailed logs a failed velocity counter write.
func (l *Logger) VelocityWriteFailed(userID string, err error) {
	l.Warn("velocity write failed",
		zap.String("user_id", userID),
		zap.Error(err),
	)
}

// AggregatorLateEvent logs a window event dropped for lateness.
func (l *Logger) AggregatorLateEvent(aggregate, key string, windowEnd int64) {
	l.Debug("dropped late event",
		zap.String("aggregate", aggregate),
		zap.String("key", key),
		zap.Int64("window_end_unix_ms", windowEnd),
	)
}

// SinkWriteFailed logs a failed sink write after exhausting retries.
func (l *Logger) SinkWriteFailed(sink string, err error) {
	l.Error("sink write failed after retries",
		zap.String("sink", sink),
		zap.Error(err),
	)
}

// CheckpointCompleted logs a completed checkpoint barrier and the number
// of workers it covered.
func (l *Logger) CheckpointCompleted(workers int, durationMs int64) {
	l.Info("checkpoint completed",
		zap.Int("workers", workers),
		zap.Int64("duration_ms", durationMs),
	)
}

// AlertRateLimited logs an alert suppressed by the token-bucket policy.
func (l *Logger) AlertRateLimited(transactionID string) {
	l.Warn("alert suppressed by rate limit",
		zap.String("transaction_id", transactionID),
	)
}
