package cache

import (
	"context"
	"strings"
	"time"
)

// KeyValueStore is the subset of Redis used by ResetThrottle.
type KeyValueStore interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// ResetThrottle limits how often a reset email can be sent to one address.
type ResetThrottle struct {
	store    KeyValueStore
	cooldown time.Duration
}

// NewResetThrottle creates a ResetThrottle. A zero cooldown disables it.
func NewResetThrottle(store KeyValueStore, cooldown time.Duration) *ResetThrottle {
	return &ResetThrottle{store: store, cooldown: cooldown}
}

// key returns the Redis key holding the cooldown marker for email.
func (t *ResetThrottle) key(email string) string {
	return "reset:cooldown:" + strings.ToLower(strings.TrimSpace(email))
}

// Allow reports whether a reset email may be sent to email now, and starts
// the cooldown window when it may.
func (t *ResetThrottle) Allow(ctx context.Context, email string) (bool, error) {
	if t.cooldown <= 0 {
		return true, nil
	}
	return t.store.SetNX(ctx, t.key(email), "1", t.cooldown)
}

// Release clears the cooldown for email so the next request is allowed.
func (t *ResetThrottle) Release(ctx context.Context, email string) error {
	if t.cooldown <= 0 {
		return nil
	}
	return t.store.Delete(ctx, t.key(email))
}
