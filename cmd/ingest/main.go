// Command ingest runs the HTTP ingestion front door (spec component
// C13), publishing accepted transactions onto the raw-transaction
// topic for the scorer to consume.
package main

import (
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/fraudscorer/streaming-scorer/internal/config"
	"github.com/fraudscorer/streaming-scorer/internal/ingestapi"
	"github.com/fraudscorer/streaming-scorer/internal/logging"
	"github.com/fraudscorer/streaming-scorer/internal/stream"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		panic(err)
	}

	logger, err := logging.New("production", false)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	sink, err := stream.NewKafkaSink(stream.KafkaSinkConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   "raw_transactions",
	})
	if err != nil {
		logger.Fatal("failed to create raw-transaction producer", zap.Error(err))
	}
	defer sink.Close()

	router := ingestapi.NewRouter(sink, logger)

	logger.Info("ingestion front door listening", zap.String("addr", ":8080"))
	if err := http.ListenAndServe(":8080", router); err != nil {
		logger.Fatal("http server stopped", zap.Error(err))
	}
}
