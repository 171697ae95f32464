package ingestapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fraudscorer/streaming-scorer/internal/ingestapi"
	"github.com/fraudscorer/streaming-scorer/internal/logging"
	"github.com/fraudscorer/streaming-scorer/internal/stream"
)

type fakeSink struct {
	writes []stream.RawRecord
	err    error
}

func (f *fakeSink) Write(ctx context.Context, rec stream.RawRecord) error {
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, rec)
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

func TestHealthz(t *testing.T) {
	router := ingestapi.NewRouter(&fakeSink{}, testLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := ingestapi.NewRouter(&fakeSink{}, testLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestIngestAcceptsValidTransaction(t *testing.T) {
	sink := &fakeSink{}
	router := ingestapi.NewRouter(sink, testLogger(t))

	body, _ := json.Marshal(map[string]any{
		"transaction_id": "t1",
		"user_id":        "u1",
		"amount":         42.5,
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(sink.writes) != 1 {
		t.Fatalf("expected 1 record written to sink, got %d", len(sink.writes))
	}

	var published map[string]any
	if err := json.Unmarshal(sink.writes[0].Value, &published); err != nil {
		t.Fatalf("published value is not valid json: %v", err)
	}
	if _, ok := published["timestamp"]; !ok {
		t.Errorf("expected server to stamp a timestamp when the caller omitted one")
	}
}

func TestIngestPreservesCallerSuppliedTimestamp(t *testing.T) {
	sink := &fakeSink{}
	router := ingestapi.NewRouter(sink, testLogger(t))

	body, _ := json.Marshal(map[string]any{
		"transaction_id": "t1",
		"user_id":        "u1",
		"timestamp":      "2026-01-02T15:04:05Z",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var published map[string]any
	if err := json.Unmarshal(sink.writes[0].Value, &published); err != nil {
		t.Fatalf("published value is not valid json: %v", err)
	}
	if published["timestamp"] != "2026-01-02T15:04:05Z" {
		t.Errorf("timestamp = %v, want caller-supplied value preserved", published["timestamp"])
	}
}

func TestIngestRejectsMissingFields(t *testing.T) {
	sink := &fakeSink{}
	router := ingestapi.NewRouter(sink, testLogger(t))

	body, _ := json.Marshal(map[string]any{"amount": 1.0})
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(sink.writes) != 0 {
		t.Fatalf("expected no record written for an invalid request")
	}
}

func TestIngestReturns503WhenSinkFails(t *testing.T) {
	sink := &fakeSink{err: errors.New("broker unreachable")}
	router := ingestapi.NewRouter(sink, testLogger(t))

	body, _ := json.Marshal(map[string]any{"transaction_id": "t1", "user_id": "u1"})
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
