// Package decaymap is a small map whose entries expire after a time-to-live.
package decaymap

import (
	"sync"
	"time"
)

// Zilch returns the zero value of T.
func Zilch[T any]() T {
	var zero T
	return zero
}

// Impl is a lazy key->value map. Expired values are pruned at Get time or
// when Cleanup is called.
type Impl[K comparable, V any] struct {
	data map[K]entry[V]
	lock sync.RWMutex
}

type entry[V any] struct {
	value  V
	expiry time.Time
}

// New creates a new decaying map of key type K and value type V.
func New[K comparable, V any]() *Impl[K, V] {
	return &Impl[K, V]{
		data: make(map[K]entry[V]),
	}
}

// expire forcibly expires a key by moving its expiry one second into the past.
func (m *Impl[K, V]) expire(key K) bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	e, ok := m.data[key]
	if !ok {
		return false
	}

	e.expiry = time.Now().Add(-1 * time.Second)
	m.data[key] = e

	return true
}

// Get gets a value by key. Expired entries are deleted unless they were
// refreshed between the read and the delete.
func (m *Impl[K, V]) Get(key K) (V, bool) {
	m.lock.RLock()
	e, ok := m.data[key]
	m.lock.RUnlock()

	if !ok {
		return Zilch[V](), false
	}

	if time.Now().After(e.expiry) {
		m.lock.Lock()
		if m.data[key].expiry.Equal(e.expiry) {
			delete(m.data, key)
		}
		m.lock.Unlock()

		return Zilch[V](), false
	}

	return e.value, true
}

// Set stores value under key for ttl.
func (m *Impl[K, V]) Set(key K, value V, ttl time.Duration) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.data[key] = entry[V]{
		value:  value,
		expiry: time.Now().Add(ttl),
	}
}

// Cleanup removes every expired entry.
func (m *Impl[K, V]) Cleanup() {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := time.Now()
	for key, e := range m.data {
		if now.After(e.expiry) {
			delete(m.data, key)
		}
	}
}
