package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryKV struct {
	keys map[string]time.Duration
	err  error
}

func (m *memoryKV) SetNX(_ context.Context, key, _ string, ttl time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = ttl
	return true, nil
}

func (m *memoryKV) Delete(_ context.Context, keys ...string) error {
	if m.err != nil {
		return m.err
	}
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

func TestResetThrottle(t *testing.T) {
	kv := &memoryKV{keys: map[string]time.Duration{}}
	throttle := NewResetThrottle(kv, time.Minute)
	ctx := context.Background()

	ok, err := throttle.Allow(ctx, "Ops@Example.org")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = throttle.Allow(ctx, " ops@example.org ")
	require.NoError(t, err)
	assert.False(t, ok, "same address with different case must share the cooldown")

	ok, err = throttle.Allow(ctx, "other@example.org")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, time.Minute, kv.keys["reset:cooldown:ops@example.org"])
}

func TestResetThrottleDisabled(t *testing.T) {
	kv := &memoryKV{err: errors.New("should not be called")}
	throttle := NewResetThrottle(kv, 0)

	ok, err := throttle.Allow(context.Background(), "ops@example.org")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, throttle.Release(context.Background(), "ops@example.org"))
}

func TestResetThrottleRelease(t *testing.T) {
	kv := &memoryKV{keys: map[string]time.Duration{}}
	throttle := NewResetThrottle(kv, time.Minute)
	ctx := context.Background()

	ok, err := throttle.Allow(ctx, "ops@example.org")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, throttle.Release(ctx, "OPS@example.org"))
	assert.Empty(t, kv.keys)

	ok, err = throttle.Allow(ctx, "ops@example.org")
	require.NoError(t, err)
	assert.True(t, ok, "a released address starts a new cooldown")
}
