// Package cache is the TTL-keyed session store every other component depends
// on. Values are JSON-serialized before storage and deserialized on read; a
// missing key or field is an absent result, never an error.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps every store failure that is not a plain miss, so
// callers can separate "Redis is down" from their own logic errors.
var ErrUnavailable = errors.New("cache unavailable")

// ConnState is reported through [StateHandler].
type ConnState uint8

const (
	// StateConnected fires when a new connection to the server is established,
	// including reconnects after an outage.
	StateConnected ConnState = iota
	// StateDegraded fires when a command fails for a reason other than a
	// missing key, after the client's own retry budget is spent.
	StateDegraded
)

func (s ConnState) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "degraded"
}

// StateHandler observes connection-state transitions. Handlers must be fast;
// they run on the calling goroutine.
type StateHandler func(state ConnState)

// Config describes the Redis connection and its reconnect policy: bounded
// exponential backoff handled by the client itself rather than ad-hoc retry
// loops in calling code.
type Config struct {
	Addr     string
	Password string
	DB       int

	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration

	OnStateChange StateHandler
}

// NewClient builds a Redis client with the reconnect policy applied.
func NewClient(cfg Config) *redis.Client {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.MinRetryBackoff == 0 {
		cfg.MinRetryBackoff = 100 * time.Millisecond
	}
	if cfg.MaxRetryBackoff == 0 {
		cfg.MaxRetryBackoff = 3 * time.Second
	}

	opts := &redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: cfg.MinRetryBackoff,
		MaxRetryBackoff: cfg.MaxRetryBackoff,
	}
	if cfg.OnStateChange != nil {
		handler := cfg.OnStateChange
		opts.OnConnect = func(ctx context.Context, cn *redis.Conn) error {
			handler(StateConnected)
			return nil
		}
	}

	return redis.NewClient(opts)
}

// Field is one hash field to write.
type Field struct {
	Name  string
	Value any
}

// Values holds raw hash-field values keyed by field name. Absent fields are
// simply not present in the map.
type Values map[string]json.RawMessage

// Decode unmarshals the named field into dest. It returns false without
// touching dest when the field is absent.
func (v Values) Decode(field string, dest any) (bool, error) {
	raw, ok := v[field]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode field %q: %w", field, err)
	}
	return true, nil
}

// Store wraps a Redis client with the serialization and TTL conventions the
// engine relies on.
type Store struct {
	client  *redis.Client
	onState StateHandler
}

// NewStore wraps client. onState may be nil.
func NewStore(client *redis.Client, onState StateHandler) *Store {
	return &Store{client: client, onState: onState}
}

// Get reads a plain key into dest. The second return is false when the key
// does not exist.
func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, s.fail("get", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("get %q: %w", key, err)
	}
	return true, nil
}

// Set writes a plain key. A ttl of zero stores without expiry.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return s.fail("set", err)
	}
	return nil
}

// Del removes keys. Deleting a missing key is not an error.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return s.fail("del", err)
	}
	return nil
}

// HGet reads one hash field into dest; false when key or field is absent.
func (s *Store) HGet(ctx context.Context, key, field string, dest any) (bool, error) {
	data, err := s.client.HGet(ctx, key, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, s.fail("hget", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("hget %q %q: %w", key, field, err)
	}
	return true, nil
}

// HMGet reads the named fields. Absent fields (or a missing key, which reads
// as all fields absent) are omitted from the result.
func (s *Store) HMGet(ctx context.Context, key string, fields ...string) (Values, error) {
	raw, err := s.client.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, s.fail("hmget", err)
	}

	values := make(Values, len(fields))
	for i, entry := range raw {
		str, ok := entry.(string)
		if !ok {
			continue
		}
		values[fields[i]] = json.RawMessage(str)
	}
	return values, nil
}

// HGetAll reads every field of a hash. A missing key yields an empty map.
func (s *Store) HGetAll(ctx context.Context, key string) (Values, error) {
	raw, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, s.fail("hgetall", err)
	}

	values := make(Values, len(raw))
	for field, entry := range raw {
		values[field] = json.RawMessage(entry)
	}
	return values, nil
}

// HSet writes one hash field. When ttl is positive the whole key's expiry is
// refreshed in the same MULTI block.
func (s *Store) HSet(ctx context.Context, key, field string, value any, ttl time.Duration) error {
	return s.HMSet(ctx, key, []Field{{Name: field, Value: value}}, ttl)
}

// HMSet writes several hash fields, refreshing the key TTL alongside when
// ttl is positive. Writes and the expiry travel in one transaction so a
// half-written session can never outlive its TTL.
func (s *Store) HMSet(ctx context.Context, key string, fields []Field, ttl time.Duration) error {
	encoded := make(map[string][]byte, len(fields))
	for _, f := range fields {
		data, err := json.Marshal(f.Value)
		if err != nil {
			return fmt.Errorf("hmset %q field %q: %w", key, f.Name, err)
		}
		encoded[f.Name] = data
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, f := range fields {
			pipe.HSet(ctx, key, f.Name, encoded[f.Name])
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return s.fail("hmset", err)
	}
	return nil
}

// HIncrBy atomically increments a numeric hash field and returns the new
// value. This is the single-round-trip primitive the attempt counters use;
// concurrent increments serialize on the server and cannot under-count.
func (s *Store) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	n, err := s.client.HIncrBy(ctx, key, field, delta).Result()
	if err != nil {
		return 0, s.fail("hincrby", err)
	}
	return n, nil
}

// HDel removes hash fields.
func (s *Store) HDel(ctx context.Context, key string, fields ...string) error {
	if err := s.client.HDel(ctx, key, fields...).Err(); err != nil {
		return s.fail("hdel", err)
	}
	return nil
}

func (s *Store) fail(op string, err error) error {
	if s.onState != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		s.onState(StateDegraded)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
