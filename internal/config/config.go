// Package config parses and validates the pipeline's command-line
// configuration (spec component C11): `--key value` pairs bound through
// pflag into viper, with the option catalog and startup validation rules
// spec.md's external-interfaces section names, plus flags for tracing,
// side-input topics, and the GeoIP database.
//
// Grounded on original_source/JobConfig.java's fromArgs switch and
// validate() method for the option catalog, defaults, and validation
// rules; the viper/pflag wiring style follows
// banking-aml-service/internal/config/config.go.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every tunable the pipeline reads at startup.
type Config struct {
	KafkaBrokers    string `mapstructure:"kafka-brokers"`
	ConsumerGroupID string `mapstructure:"consumer-group-id"`

	RedisHost     string `mapstructure:"redis-host"`
	RedisPort     int    `mapstructure:"redis-port"`
	RedisPassword string `mapstructure:"redis-password"`

	Parallelism         int `mapstructure:"parallelism"`
	CheckpointInterval  int `mapstructure:"checkpoint-interval"`

	FraudThreshold       float64 `mapstructure:"fraud-threshold"`
	EnableFeatureStore   bool    `mapstructure:"enable-feature-store"`
	EnableRealTimeScoring bool   `mapstructure:"enable-real-time-scoring"`
	ModelPath            string  `mapstructure:"model-path"`

	VelocityWindowSize int `mapstructure:"velocity-window-size"`

	MetricsPort int `mapstructure:"metrics-port"`

	EnableAlerting        bool    `mapstructure:"enable-alerting"`
	CriticalAlertThreshold float64 `mapstructure:"critical-alert-threshold"`
	HighAlertThreshold     float64 `mapstructure:"high-alert-threshold"`
	MaxAlertsPerMinute     int     `mapstructure:"max-alerts-per-minute"`

	OTLPEndpoint string `mapstructure:"otlp-endpoint"`

	UserBehaviorTopic      string `mapstructure:"user-behavior-topic"`
	MerchantUpdateTopic    string `mapstructure:"merchant-update-topic"`
	HistoricalPatternTopic string `mapstructure:"historical-pattern-topic"`

	GeoIPDatabasePath string `mapstructure:"geoip-database-path"`
}

// CheckpointIntervalDuration converts the millisecond option into a
// time.Duration for the checkpoint scheduler.
func (c *Config) CheckpointIntervalDuration() time.Duration {
	return time.Duration(c.CheckpointInterval) * time.Millisecond
}

// VelocityWindowSizeDuration converts the millisecond option into a
// time.Duration.
func (c *Config) VelocityWindowSizeDuration() time.Duration {
	return time.Duration(c.VelocityWindowSize) * time.Millisecond
}

// Parse binds the recognized --key value flags, applies defaults, and
// validates the result. args excludes the program name (os.Args[1:]).
func Parse(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("fraud-scorer", pflag.ContinueOnError)

	fs.String("kafka-brokers", "localhost:9092", "Comma-separated broker list")
	fs.String("consumer-group-id", "fraud-scoring-pipeline", "Consumer identity")
	fs.String("redis-host", "localhost", "State store host")
	fs.Int("redis-port", 6379, "State store port")
	fs.String("redis-password", "", "State store password")
	fs.Int("parallelism", 12, "Per-stage worker count")
	fs.Int("checkpoint-interval", 10000, "Milliseconds between checkpoints")
	fs.Float64("fraud-threshold", 0.7, "Alert cutoff")
	fs.Bool("enable-feature-store", true, "Toggle the feature store facade")
	fs.Bool("enable-real-time-scoring", true, "Toggle the rule scorer")
	fs.String("model-path", "", "Filesystem location of optional model artifacts")
	fs.Int("velocity-window-size", 300000, "Primary velocity window, in milliseconds")
	fs.Int("metrics-port", 9249, "Prometheus-compatible scrape endpoint")
	fs.Bool("enable-alerting", true, "Toggle writes to the alerts sink")
	fs.Float64("critical-alert-threshold", 0.9, "Score at/above which an alert is CRITICAL")
	fs.Float64("high-alert-threshold", 0.8, "Score at/above which an alert is HIGH")
	fs.Int("max-alerts-per-minute", 100, "Token-bucket alert rate limit, per sink shard")
	fs.String("otlp-endpoint", "", "OTLP gRPC collector endpoint; tracing disabled when empty")
	fs.String("user-behavior-topic", "", "Side-input topic for user behavior events; disabled when empty")
	fs.String("merchant-update-topic", "", "Side-input topic for merchant profile updates; disabled when empty")
	fs.String("historical-pattern-topic", "", "Side-input topic for historical fraud patterns; disabled when empty")
	fs.String("geoip-database-path", "", "MaxMind GeoLite2 database path; geo enrichment disabled when empty")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	v.SetEnvPrefix("FRAUD_SCORER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces spec §6's validation rules, naming the offending key
// in the returned error.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return fmt.Errorf("config: kafka-brokers must not be empty")
	}
	if strings.TrimSpace(c.ConsumerGroupID) == "" {
		return fmt.Errorf("config: consumer-group-id must not be empty")
	}
	if strings.TrimSpace(c.RedisHost) == "" {
		return fmt.Errorf("config: redis-host must not be empty")
	}
	if c.RedisPort < 1 || c.RedisPort > 65535 {
		return fmt.Errorf("config: redis-port must be in 1..65535, got %d", c.RedisPort)
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("config: parallelism must be > 0, got %d", c.Parallelism)
	}
	if c.CheckpointInterval <= 0 {
		return fmt.Errorf("config: checkpoint-interval must be > 0, got %d", c.CheckpointInterval)
	}
	if c.FraudThreshold < 0 || c.FraudThreshold > 1 {
		return fmt.Errorf("config: fraud-threshold must be in [0,1], got %v", c.FraudThreshold)
	}
	return nil
}

// KafkaBrokerList splits the comma-separated broker string.
func (c *Config) KafkaBrokerList() []string {
	return strings.Split(c.KafkaBrokers, ",")
}
