// Package store holds short-lived, single-process key/value state.
//
// Entries expire lazily: reads treat anything older than the TTL as absent,
// and writes sweep expired entries first. There is no background timer.
package store

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrExpired  = errors.New("store: expired")
)

type entry[V any] struct {
	value     V
	createdAt time.Time
}

type options struct {
	now func() time.Time
}

type Option func(*options)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Store is a mutex-guarded map whose entries live for a fixed TTL.
type Store[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry[V]
}

func New[V any](ttl time.Duration, opts ...Option) *Store[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[V]{
		ttl:     ttl,
		now:     o.now,
		entries: make(map[string]entry[V]),
	}
}

func (s *Store[V]) TTL() time.Duration {
	return s.ttl
}

// Put sweeps expired entries, then inserts or overwrites key.
func (s *Store[V]) Put(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)
	s.entries[key] = entry[V]{value: value, createdAt: now}
}

// Get returns the live value for key. An expired entry is removed.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	e, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	if s.expiredLocked(e, s.now()) {
		delete(s.entries, key)
		return zero, false
	}
	return e.value, true
}

func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Pop removes key and returns its value if it was still live.
// Of any number of concurrent callers at most one gets ok == true.
func (s *Store[V]) Pop(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	e, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	delete(s.entries, key)
	if s.expiredLocked(e, s.now()) {
		return zero, false
	}
	return e.value, true
}

// Modify applies fn to the live value under key and stores the result.
// The creation time is kept, so Modify never extends a lifetime.
// Expired entries are left untouched and reported as ErrExpired.
// If fn returns an error nothing is stored and the error is returned as is.
func (s *Store[V]) Modify(key string, fn func(V) (V, error)) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	e, ok := s.entries[key]
	if !ok {
		return zero, ErrNotFound
	}
	if s.expiredLocked(e, s.now()) {
		return zero, ErrExpired
	}

	v, err := fn(e.value)
	if err != nil {
		return zero, err
	}
	e.value = v
	s.entries[key] = e
	return v, nil
}

// CompareAndDelete removes key only if it is live and match accepts its value.
func (s *Store[V]) CompareAndDelete(key string, match func(V) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || s.expiredLocked(e, s.now()) || !match(e.value) {
		return false
	}
	delete(s.entries, key)
	return true
}

// Sweep evicts every expired entry and returns how many were removed.
func (s *Store[V]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

// Len counts entries including expired ones not yet swept.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store[V]) expiredLocked(e entry[V], now time.Time) bool {
	return now.Sub(e.createdAt) > s.ttl
}

func (s *Store[V]) sweepLocked(now time.Time) int {
	n := 0
	for k, e := range s.entries {
		if s.expiredLocked(e, now) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}
