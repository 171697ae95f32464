// Package stream defines the byte-record stream abstraction the core
// consumes and produces (spec §1, §6), plus a Kafka-backed implementation
// grounded on the teacher's consumer/producer wiring.
package stream

import (
	"context"
	"time"
)

// RawRecord is the unit exchanged across the stream transport: an opaque
// key/value pair with event-time and transport headers.
type RawRecord struct {
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string]string
}

// Source is a byte-record input stream. Read blocks until a record is
// available, the context is cancelled, or the source is exhausted.
type Source interface {
	// Read returns the next record, or ok=false when the context is done.
	Read(ctx context.Context) (rec RawRecord, ok bool, err error)
	// Commit advances the consumer group's committed offset up to the
	// most recently read record, called at checkpoint boundaries.
	Commit(ctx context.Context) error
	Close() error
}

// Sink is a byte-record output stream.
type Sink interface {
	Write(ctx context.Context, rec RawRecord) error
	Close() error
}
