// Package throttle suppresses repeated alerts for the same asset and setup
// within a cooldown window.
//
// The gate reads and writes through a Store. Reads fail open: a store that
// cannot answer is treated as holding no record, so a broken store can cause
// duplicate alerts but never blocks them.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultCooldown is the minimum spacing between alerts for one key.
const DefaultCooldown = time.Hour

// ErrStore wraps failures of the underlying store.
var ErrStore = errors.New("throttle store error")

// Key identifies one suppression bucket.
type Key struct {
	Asset   string
	SetupID string
}

// String returns the canonical "<asset>_<setup_id>" form used by stores.
func (k Key) String() string { return k.Asset + "_" + k.SetupID }

// Store is a durable key → last-sent-time mapping.
type Store interface {
	// LastSent returns the last recorded send time for key. ok is false when
	// no record exists.
	LastSent(ctx context.Context, key string) (at time.Time, ok bool, err error)

	// Put overwrites the record for key.
	Put(ctx context.Context, key string, at time.Time) error

	Close() error
}

// PruneAfter returns how long stores keep records. Records must outlive
// every window gated through the store, so the result is the larger of
// 24 cooldowns and two heartbeat intervals.
func PruneAfter(cooldown, heartbeat time.Duration) time.Duration {
	return max(24*cooldown, 2*heartbeat)
}

// Throttle is a check-then-act gate over a Store. It is not atomic across
// processes: two callers racing on one key may both be allowed to send.
type Throttle struct {
	store    Store
	cooldown time.Duration

	// OnError, if set, is called for every store failure (read or write).
	OnError func(op string, err error)
}

// New creates a Throttle. A non-positive cooldown selects DefaultCooldown.
func New(store Store, cooldown time.Duration) *Throttle {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Throttle{store: store, cooldown: cooldown}
}

// Cooldown returns the suppression window.
func (t *Throttle) Cooldown() time.Duration { return t.cooldown }

// WithCooldown returns a Throttle sharing the store and error hook with a
// different window.
func (t *Throttle) WithCooldown(cooldown time.Duration) *Throttle {
	c := New(t.store, cooldown)
	c.OnError = t.OnError
	return c
}

// ShouldSend reports false iff a record for key exists with
// at - last < cooldown. Store errors are logged and treated as no record.
func (t *Throttle) ShouldSend(ctx context.Context, key Key, at time.Time) bool {
	last, ok, err := t.store.LastSent(ctx, key.String())
	if err != nil {
		t.fail("read", key, err)
		return true
	}
	if !ok {
		return true
	}
	return at.Sub(last) >= t.cooldown
}

// RecordSent overwrites the record for key with at.
func (t *Throttle) RecordSent(ctx context.Context, key Key, at time.Time) error {
	if err := t.store.Put(ctx, key.String(), at); err != nil {
		t.fail("write", key, err)
		return fmt.Errorf("throttle: record %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying store.
func (t *Throttle) Close() error { return t.store.Close() }

func (t *Throttle) fail(op string, key Key, err error) {
	slog.Warn("throttle store failure, failing open", "component", "throttle",
		"op", op, "key", key.String(), "error", err)
	if t.OnError != nil {
		t.OnError(op, err)
	}
}
