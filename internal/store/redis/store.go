// Package redis implements the throttle store on Redis.
//
// Each key is stored as SET throttle:<key> <unix-nanos> EX <ttl>. Calls go
// through a CircuitBreaker so an unreachable server costs one dial timeout
// per run, after which reads fail fast (and the throttle fails open).
package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"setup-scanner/internal/throttle"
)

const keyPrefix = "throttle:"

// Config configures the Redis store.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int

	TTL         time.Duration // record expiry; 0 = no expiry
	DialTimeout time.Duration // default 2s
}

// Store is a Redis-backed throttle.Store.
type Store struct {
	client goredis.UniversalClient
	cb     *CircuitBreaker
	ttl    time.Duration
}

// Breaker returns the store's circuit breaker.
func (s *Store) Breaker() *CircuitBreaker { return s.cb }

// New creates a Redis store and pings the server. A failed ping is logged,
// not returned: the breaker starts open and later calls fail open.
func New(cfg Config) *Store {
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = 2 * time.Second
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dial,
		ReadTimeout:  dial,
		WriteTimeout: dial,
		MaxRetries:   -1,
	})
	s := NewWithClient(client, cfg.TTL)

	ctx, cancel := context.WithTimeout(context.Background(), dial)
	defer cancel()
	if err := s.cb.Execute(func() error { return client.Ping(ctx).Err() }, nil); err != nil {
		log.Printf("[throttle-redis] ping %s failed: %v", cfg.Addr, err)
	} else {
		log.Printf("[throttle-redis] connected to %s", cfg.Addr)
	}
	return s
}

// NewWithClient wraps an existing client. The breaker trips on the first
// failure and probes again after 30s.
func NewWithClient(client goredis.UniversalClient, ttl time.Duration) *Store {
	cb := NewCircuitBreaker(1, 30*time.Second)
	cb.OnStateChange = func(from, to State) {
		log.Printf("[throttle-redis] circuit %s -> %s", from, to)
	}
	return &Store{client: client, cb: cb, ttl: ttl}
}

func isNil(err error) bool { return errors.Is(err, goredis.Nil) }

// LastSent implements throttle.Store.
func (s *Store) LastSent(ctx context.Context, key string) (time.Time, bool, error) {
	var raw string
	err := s.cb.Execute(func() error {
		var err error
		raw, err = s.client.Get(ctx, keyPrefix+key).Result()
		return err
	}, isNil)
	if isNil(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: redis: get %s: %v", throttle.ErrStore, key, err)
	}
	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: redis: corrupt record %s=%q", throttle.ErrStore, key, raw)
	}
	return time.Unix(0, nanos).UTC(), true, nil
}

// Put implements throttle.Store.
func (s *Store) Put(ctx context.Context, key string, at time.Time) error {
	err := s.cb.Execute(func() error {
		return s.client.Set(ctx, keyPrefix+key, strconv.FormatInt(at.UnixNano(), 10), s.ttl).Err()
	}, nil)
	if err != nil {
		return fmt.Errorf("%w: redis: set %s: %v", throttle.ErrStore, key, err)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
