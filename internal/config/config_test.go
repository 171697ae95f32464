package config

import "testing"

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Parallelism != 12 {
		t.Errorf("Parallelism = %d, want default 12", cfg.Parallelism)
	}
	if cfg.FraudThreshold != 0.7 {
		t.Errorf("FraudThreshold = %v, want default 0.7", cfg.FraudThreshold)
	}
	if cfg.RedisPort != 6379 {
		t.Errorf("RedisPort = %d, want default 6379", cfg.RedisPort)
	}
}

func TestParseOverridesFromArgs(t *testing.T) {
	cfg, err := Parse([]string{"--parallelism", "4", "--fraud-threshold", "0.5", "--kafka-brokers", "b1:9092,b2:9092"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Parallelism != 4 {
		t.Errorf("Parallelism = %d, want 4", cfg.Parallelism)
	}
	if cfg.FraudThreshold != 0.5 {
		t.Errorf("FraudThreshold = %v, want 0.5", cfg.FraudThreshold)
	}
	if got := cfg.KafkaBrokerList(); len(got) != 2 || got[0] != "b1:9092" {
		t.Errorf("KafkaBrokerList() = %v", got)
	}
}

func TestValidateRejectsOutOfRangePort(t *testing.T) {
	cfg := Config{
		KafkaBrokers: "b:9092", ConsumerGroupID: "g", RedisHost: "h",
		RedisPort: 70000, Parallelism: 1, CheckpointInterval: 1000, FraudThreshold: 0.5,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for out-of-range redis-port")
	}
}

func TestValidateRejectsFraudThresholdOutOfRange(t *testing.T) {
	cfg := Config{
		KafkaBrokers: "b:9092", ConsumerGroupID: "g", RedisHost: "h",
		RedisPort: 6379, Parallelism: 1, CheckpointInterval: 1000, FraudThreshold: 1.5,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for out-of-range fraud-threshold")
	}
}

func TestValidateRejectsEmptyBrokers(t *testing.T) {
	cfg := Config{
		KafkaBrokers: "  ", ConsumerGroupID: "g", RedisHost: "h",
		RedisPort: 6379, Parallelism: 1, CheckpointInterval: 1000, FraudThreshold: 0.5,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty kafka-brokers")
	}
}
