package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// KafkaSourceConfig configures a consumer-group-backed Source. Isolation
// level is always read_committed and offsets always start at latest with
// auto-commit disabled, per spec §6; the caller commits explicitly at
// checkpoint boundaries.
type KafkaSourceConfig struct {
	Brokers string
	GroupID string
	Topic   string
}

// KafkaSource wraps a confluent-kafka-go consumer. Grounded on the
// teacher's go-enricher/enricher.go poll loop, generalized from a single
// main-function loop into a reusable Source.
type KafkaSource struct {
	consumer *kafka.Consumer
}

func NewKafkaSource(cfg KafkaSourceConfig) (*KafkaSource, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":       cfg.Brokers,
		"group.id":                cfg.GroupID,
		"auto.offset.reset":       "latest",
		"enable.auto.commit":      false,
		"isolation.level":         "read_committed",
	})
	if err != nil {
		return nil, fmt.Errorf("stream: create consumer: %w", err)
	}
	if err := consumer.SubscribeTopics([]string{cfg.Topic}, nil); err != nil {
		consumer.Close()
		return nil, fmt.Errorf("stream: subscribe %q: %w", cfg.Topic, err)
	}
	return &KafkaSource{consumer: consumer}, nil
}

func (s *KafkaSource) Read(ctx context.Context) (RawRecord, bool, error) {
	for {
		select {
		case <-ctx.Done():
			return RawRecord{}, false, nil
		default:
		}

		ev := s.consumer.Poll(100)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			headers := make(map[string]string, len(e.Headers))
			for _, h := range e.Headers {
				headers[h.Key] = string(h.Value)
			}
			ts := e.Timestamp
			if ts.IsZero() {
				ts = time.Now().UTC()
			}
			return RawRecord{
				Key:       e.Key,
				Value:     e.Value,
				Timestamp: ts,
				Headers:   headers,
			}, true, nil
		case kafka.Error:
			if e.IsFatal() {
				return RawRecord{}, false, fmt.Errorf("stream: fatal consumer error: %w", e)
			}
			// Non-fatal broker errors are skipped without being reported
			// and polling continues.
			continue
		default:
			continue
		}
	}
}

func (s *KafkaSource) Commit(ctx context.Context) error {
	_, err := s.consumer.Commit()
	if err != nil && err.(kafka.Error).Code() == kafka.ErrNoOffset {
		return nil
	}
	return err
}

func (s *KafkaSource) Close() error {
	return s.consumer.Close()
}

// KafkaSinkConfig configures an idempotent, acks=all producer matching
// the producer properties in spec §6.
type KafkaSinkConfig struct {
	Brokers string
	Topic   string
}

// KafkaSink wraps a confluent-kafka-go producer. Grounded on the
// teacher's go-server/server.go Produce call, generalized to a reusable
// Sink and extended with the producer properties spec §6 requires.
type KafkaSink struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaSink(cfg KafkaSinkConfig) (*KafkaSink, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Brokers,
		"acks":               "all",
		"retries":            3,
		"batch.size":         16384,
		"linger.ms":          5,
		"queue.buffering.max.kbytes": 32 * 1024,
		"compression.type":   "lz4",
		"enable.idempotence": true,
		"max.in.flight":      5,
	})
	if err != nil {
		return nil, fmt.Errorf("stream: create producer: %w", err)
	}
	return &KafkaSink{producer: producer, topic: cfg.Topic}, nil
}

func (s *KafkaSink) Write(ctx context.Context, rec RawRecord) error {
	deliveryChan := make(chan kafka.Event, 1)
	headers := make([]kafka.Header, 0, len(rec.Headers))
	for k, v := range rec.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	err := s.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &s.topic, Partition: kafka.PartitionAny},
		Key:            rec.Key,
		Value:          rec.Value,
		Timestamp:      rec.Timestamp,
		Headers:        headers,
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("stream: produce: %w", err)
	}

	select {
	case ev := <-deliveryChan:
		m := ev.(*kafka.Message)
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("stream: delivery failed: %w", m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *KafkaSink) Close() error {
	s.producer.Flush(5000)
	s.producer.Close()
	return nil
}
