// Package ingestapi implements the HTTP ingestion front door (spec
// component C13): a JSON POST endpoint standing in for the teacher's
// gRPC SendTransaction unary RPC, plus health/readiness endpoints.
//
// Grounded on the teacher's go-server/server.go SendTransaction handler
// (validate request, stamp timestamp, produce to Kafka, return an ack)
// and the router-as-a-package shape of
// Boddenberg-pj-assistant-bfa-go/internal/handler/router.go.
package ingestapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fraudscorer/streaming-scorer/internal/logging"
	"github.com/fraudscorer/streaming-scorer/internal/stream"
)

const rawTransactionTopic = "raw_transactions"

// Server holds the collaborators the ingestion handlers need.
type Server struct {
	sink   stream.Sink
	logger *logging.Logger
}

// NewRouter builds the chi router serving the ingestion endpoint and
// its health/readiness checks.
func NewRouter(sink stream.Sink, logger *logging.Logger) http.Handler {
	s := &Server{sink: sink, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleHealth)
	r.Post("/v1/transactions", s.handleIngest)

	return r
}

// handleIngest accepts a generic JSON transaction payload, stamps
// server receipt time when the caller omitted event time, and re-encodes
// the decoded payload onto the raw-transaction topic; field values are
// kept, but key order and number formatting follow encoding/json.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid json body"})
		return
	}

	txnID, _ := payload["transaction_id"].(string)
	userID, _ := payload["user_id"].(string)
	if txnID == "" || userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "transaction_id and user_id are required"})
		return
	}

	if _, ok := payload["timestamp"]; !ok {
		payload["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "serialization failed"})
		return
	}

	rec := stream.RawRecord{Key: []byte(userID), Value: body, Timestamp: time.Now().UTC()}
	if err := s.sink.Write(r.Context(), rec); err != nil {
		s.logger.SinkWriteFailed(rawTransactionTopic, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "message": "kafka push failed"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"success": true, "message": "stored in kafka", "transaction_id": txnID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
