// Command scorer runs the streaming fraud-scoring pipeline (spec
// component C10 and everything it wires together): it reads raw
// transactions from Kafka, enriches and scores each one, maintains
// velocity counters and windowed aggregates, joins in side-input
// streams when configured, and writes the enriched/features/alerts
// sinks, checkpointing on a barrier.
//
// Wiring and signal handling are grounded on the teacher's
// go-enricher/enricher.go main function: build collaborators, launch
// the run loop, wait on SIGINT/SIGTERM, shut down in reverse order.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fraudscorer/streaming-scorer/internal/config"
	"github.com/fraudscorer/streaming-scorer/internal/featurestore"
	"github.com/fraudscorer/streaming-scorer/internal/features"
	"github.com/fraudscorer/streaming-scorer/internal/geoenrich"
	"github.com/fraudscorer/streaming-scorer/internal/logging"
	"github.com/fraudscorer/streaming-scorer/internal/pipeline"
	"github.com/fraudscorer/streaming-scorer/internal/profilecache"
	"github.com/fraudscorer/streaming-scorer/internal/stateclient"
	"github.com/fraudscorer/streaming-scorer/internal/stream"
	"github.com/fraudscorer/streaming-scorer/internal/telemetry"
	"github.com/fraudscorer/streaming-scorer/internal/velocity"
)

const (
	rawTransactionTopic = "raw_transactions"
	enrichedTopic       = "enriched_transactions"
	featuresTopic       = "transaction_features"
	alertsTopic         = "fraud_alerts"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New("production", false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := telemetry.New()

	var shutdownTracing func(context.Context) error
	if cfg.OTLPEndpoint != "" {
		_, shutdown, err := telemetry.NewTracerProvider(ctx, telemetry.TracerProviderConfig{
			OTLPEndpoint: cfg.OTLPEndpoint,
			ServiceName:  "fraud-scoring-pipeline",
		})
		if err != nil {
			logger.Warn("tracing disabled: failed to build tracer provider", zap.Error(err))
		} else {
			shutdownTracing = shutdown
		}
	}
	if shutdownTracing != nil {
		defer shutdownTracing(context.Background())
	}

	go serveMetrics(logger, metrics, cfg.MetricsPort)

	state := stateclient.New(stateclient.Config{
		Host:           cfg.RedisHost,
		Port:           cfg.RedisPort,
		Password:       cfg.RedisPassword,
		MaxConnections: cfg.Parallelism * 2,
	})

	var geo *geoenrich.Enricher
	if cfg.GeoIPDatabasePath != "" {
		geo, err = geoenrich.Open(cfg.GeoIPDatabasePath)
		if err != nil {
			logger.Warn("geo enrichment disabled: failed to open database", zap.Error(err))
			geo = nil
		} else {
			defer geo.Close()
		}
	}

	var store *featurestore.Store
	if cfg.EnableFeatureStore {
		store = featurestore.New(state)
	}

	source, err := stream.NewKafkaSource(stream.KafkaSourceConfig{
		Brokers: cfg.KafkaBrokers,
		GroupID: cfg.ConsumerGroupID,
		Topic:   rawTransactionTopic,
	})
	if err != nil {
		logger.Fatal("failed to create raw-transaction consumer", zap.Error(err))
	}
	defer source.Close()

	enrichedSink, err := stream.NewKafkaSink(stream.KafkaSinkConfig{Brokers: cfg.KafkaBrokers, Topic: enrichedTopic})
	if err != nil {
		logger.Fatal("failed to create enriched-transactions producer", zap.Error(err))
	}
	defer enrichedSink.Close()

	featureSink, err := stream.NewKafkaSink(stream.KafkaSinkConfig{Brokers: cfg.KafkaBrokers, Topic: featuresTopic})
	if err != nil {
		logger.Fatal("failed to create transaction-features producer", zap.Error(err))
	}
	defer featureSink.Close()

	alertSink, err := stream.NewKafkaSink(stream.KafkaSinkConfig{Brokers: cfg.KafkaBrokers, Topic: alertsTopic})
	if err != nil {
		logger.Fatal("failed to create fraud-alerts producer", zap.Error(err))
	}
	defer alertSink.Close()

	deps := pipeline.Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,

		Profiles:     profilecache.New(state),
		GeoEnricher:  geo,
		Features:     features.New(state),
		Velocity:     velocity.New(state),
		FeatureStore: store,

		Source:       source,
		EnrichedSink: enrichedSink,
		FeatureSink:  featureSink,
		AlertSink:    alertSink,
	}

	if cfg.UserBehaviorTopic != "" {
		src, err := stream.NewKafkaSource(stream.KafkaSourceConfig{Brokers: cfg.KafkaBrokers, GroupID: cfg.ConsumerGroupID + "-user-behavior", Topic: cfg.UserBehaviorTopic})
		if err != nil {
			logger.Warn("user behavior side input disabled: failed to create consumer", zap.Error(err))
		} else {
			defer src.Close()
			deps.UserBehaviorSource = src
		}
	}
	if cfg.MerchantUpdateTopic != "" {
		src, err := stream.NewKafkaSource(stream.KafkaSourceConfig{Brokers: cfg.KafkaBrokers, GroupID: cfg.ConsumerGroupID + "-merchant-update", Topic: cfg.MerchantUpdateTopic})
		if err != nil {
			logger.Warn("merchant update side input disabled: failed to create consumer", zap.Error(err))
		} else {
			defer src.Close()
			deps.MerchantUpdateSource = src
		}
	}
	if cfg.HistoricalPatternTopic != "" {
		src, err := stream.NewKafkaSource(stream.KafkaSourceConfig{Brokers: cfg.KafkaBrokers, GroupID: cfg.ConsumerGroupID + "-historical-pattern", Topic: cfg.HistoricalPatternTopic})
		if err != nil {
			logger.Warn("historical pattern side input disabled: failed to create consumer", zap.Error(err))
		} else {
			defer src.Close()
			deps.HistoricalPatternSource = src
		}
	}

	p := pipeline.New(deps)

	logger.Info("fraud scoring pipeline starting",
		zap.Int("parallelism", cfg.Parallelism),
		zap.Float64("fraud_threshold", cfg.FraudThreshold),
		zap.Bool("feature_store_enabled", cfg.EnableFeatureStore),
	)

	if err := p.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("pipeline stopped with error", zap.Error(err))
	}
	logger.Info("fraud scoring pipeline stopped")
}

func serveMetrics(logger *logging.Logger, metrics *telemetry.Metrics, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}
