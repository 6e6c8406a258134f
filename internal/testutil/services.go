package testutil

import (
	"context"
	"io"
	"sync"
	"time"
)

// SentCode is one reset email captured by Notifier.
type SentCode struct {
	Email string
	Code  string
}

// Notifier records reset emails. When Err is set every send fails.
type Notifier struct {
	mu   sync.Mutex
	sent []SentCode
	Err  error
}

func (n *Notifier) SendResetCode(_ context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.sent = append(n.sent, SentCode{Email: email, Code: code})
	return nil
}

// Sent returns every captured email.
func (n *Notifier) Sent() []SentCode {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]SentCode(nil), n.sent...)
}

// Last returns the most recent code sent, or "".
func (n *Notifier) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return ""
	}
	return n.sent[len(n.sent)-1].Code
}

// Throttle is a ResetThrottle answering from a fixed value. Released counts
// Release calls.
type Throttle struct {
	Deny     bool
	Err      error
	Released int
}

func (t *Throttle) Allow(context.Context, string) (bool, error) {
	if t.Err != nil {
		return false, t.Err
	}
	return !t.Deny, nil
}

func (t *Throttle) Release(context.Context, string) error {
	t.Released++
	return nil
}

// KeyValue is an in-memory stand-in for the Redis calls made by
// cache.ResetThrottle. Keys never expire on their own.
type KeyValue struct {
	mu   sync.Mutex
	keys map[string]time.Duration
}

func (k *KeyValue) SetNX(_ context.Context, key, _ string, ttl time.Duration) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.keys == nil {
		k.keys = map[string]time.Duration{}
	}
	if _, ok := k.keys[key]; ok {
		return false, nil
	}
	k.keys[key] = ttl
	return true, nil
}

func (k *KeyValue) Delete(_ context.Context, keys ...string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, key := range keys {
		delete(k.keys, key)
	}
	return nil
}

// Expire drops key as if its TTL had elapsed.
func (k *KeyValue) Expire(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.keys, key)
}

// PhotoStore records uploads and returns a predictable URL.
type PhotoStore struct {
	Err      error
	Uploaded map[string][]byte
}

func (p *PhotoStore) PutMemberPhoto(_ context.Context, memberID, _ string, body io.Reader, _ int64) (string, error) {
	if p.Err != nil {
		return "", p.Err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if p.Uploaded == nil {
		p.Uploaded = map[string][]byte{}
	}
	p.Uploaded[memberID] = data
	return "https://cdn.test/members/" + memberID + "/photo.jpg", nil
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock stopped at t.
func NewClock(t time.Time) *Clock { return &Clock{now: t} }

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
