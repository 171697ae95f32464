// Package stateclient provides namespaced typed accessors over an
// external key/hash store (spec component C2), with a circuit breaker
// guarding every call so a backing-store outage degrades to the
// miss/default paths of C3/C6 rather than blocking pipeline workers.
//
// Grounded on original_source's RedisService.java (key prefixes, TTLs,
// accessor shapes) and the teacher's go-enricher/redis_functions.go
// (go-redis usage, read-modify-write pattern).
package stateclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// Key prefixes, mirrored from RedisService.java.
const (
	UserProfilePrefix       = "user:"
	MerchantProfilePrefix   = "merchant:"
	TransactionPrefix       = "transaction:"
	UserTransactionsPrefix  = "user_transactions:"
	MerchantTransactionsPrefix = "merchant_transactions:"
	VelocityPrefix          = "velocity:"
	FeaturesPrefix          = "features:"
	AggregationsPrefix      = "agg:"
	FeatureMetadataPrefix   = "feature_metadata:"
	FeatureValuesPrefix     = "feature_values:"
	FeatureStatsPrefix      = "feature_stats:"
)

// TTLs, mirrored from RedisService.java and spec §4.2/§4.9.
const (
	TransactionTTL  = 24 * time.Hour
	VelocityTTLDefault = time.Hour
	FeaturesTTL     = 2 * time.Hour
	AggregationsTTL = 30 * time.Minute
	FeatureMetadataTTL = 24 * time.Hour
	FeatureValuesTTL   = 2 * time.Hour
	FeatureStatsTTL    = time.Hour
)

// CallTimeout bounds every state-store operation so a call never blocks
// a worker indefinitely (spec §4.2 contract).
const CallTimeout = 150 * time.Millisecond

// ErrUnavailable is returned (and then swallowed by callers per the
// StateStoreTimeout error-handling row) when the circuit breaker is open.
var ErrUnavailable = errors.New("stateclient: store unavailable")

// Client is the typed, circuit-broken accessor over the backing store.
type Client struct {
	rdb     redis.UniversalClient
	breaker *gobreaker.CircuitBreaker
}

// Config configures the connection to the external KV/hash store.
type Config struct {
	Host           string
	Port           int
	Password       string
	MaxConnections int
}

func New(cfg Config) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		PoolSize:     cfg.MaxConnections,
		DialTimeout:  CallTimeout,
		ReadTimeout:  CallTimeout,
		WriteTimeout: CallTimeout,
	})

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "state-store",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{rdb: rdb, breaker: breaker}
}

// NewWithClient wires a pre-built redis client behind a circuit breaker
// with gobreaker's default interval and timeout.
func NewWithClient(rdb redis.UniversalClient) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "state-store",
		ReadyToTrip: func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures > 5 },
	})
	return &Client{rdb: rdb, breaker: breaker}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, CallTimeout)
}

// GetHash retrieves a hash at key, returning an empty map on miss or on
// any failure — callers must not treat an empty map as fatal.
func (c *Client) GetHash(ctx context.Context, key string) (map[string]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	result, err := c.breaker.Execute(func() (any, error) {
		return c.rdb.HGetAll(ctx, key).Result()
	})
	if err != nil {
		return map[string]string{}, err
	}
	return result.(map[string]string), nil
}

// SetHash writes a hash and sets its TTL.
func (c *Client) SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.breaker.Execute(func() (any, error) {
		pipe := c.rdb.TxPipeline()
		args := make([]any, 0, len(fields)*2)
		for k, v := range fields {
			args = append(args, k, v)
		}
		pipe.HSet(ctx, key, args...)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, err := pipe.Exec(ctx)
		return nil, err
	})
	return err
}

func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.rdb.Expire(ctx, key, ttl).Err()
	})
	return err
}

// GetJSON unmarshals the value at key into dest. Returns (false, nil) on
// miss and (false, err) on any other failure.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	result, err := c.breaker.Execute(func() (any, error) {
		return c.rdb.Get(ctx, key).Result()
	})
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if jerr := json.Unmarshal([]byte(result.(string)), dest); jerr != nil {
		return false, jerr
	}
	return true, nil
}

func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = c.breaker.Execute(func() (any, error) {
		return nil, c.rdb.Set(ctx, key, b, ttl).Err()
	})
	return err
}

// ListPushFront pushes item to the front of the list at key.
func (c *Client) ListPushFront(ctx context.Context, key, item string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.rdb.LPush(ctx, key, item).Err()
	})
	return err
}

// ListTrim keeps only the first n entries of the list at key.
func (c *Client) ListTrim(ctx context.Context, key string, n int64) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.rdb.LTrim(ctx, key, 0, n-1).Err()
	})
	return err
}

func (c *Client) ListRange(ctx context.Context, key string, limit int64) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	result, err := c.breaker.Execute(func() (any, error) {
		return c.rdb.LRange(ctx, key, 0, limit-1).Result()
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// IncrCounter atomically increments the counter at key, setting ttlIfNew
// only on the transition from unset to 1.
func (c *Client) IncrCounter(ctx context.Context, key string, ttlIfNew time.Duration) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	result, err := c.breaker.Execute(func() (any, error) {
		v, err := c.rdb.Incr(ctx, key).Result()
		if err != nil {
			return int64(0), err
		}
		if v == 1 && ttlIfNew > 0 {
			c.rdb.Expire(ctx, key, ttlIfNew)
		}
		return v, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// Ping reports whether the backing store answers health checks.
func (c *Client) Ping(ctx context.Context) bool {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.rdb.Ping(ctx).Err()
	})
	return err == nil
}
