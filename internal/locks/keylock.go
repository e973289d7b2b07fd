// Package locks provides in-process keyed mutual exclusion.
// Computations for different symbols may run concurrently, but a
// calculate-and-persist run for one (symbol, period) must never overlap
// with another run for the same pair.
package locks

import "sync"

// KeyLock serializes critical sections per string key
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyLock creates a key lock
func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
// Per-key mutexes are never removed; the key space (symbols x periods)
// is small and fixed.
func (kl *KeyLock) Lock(key string) {
	kl.keyMutex(key).Lock()
}

// Unlock releases the mutex for key
func (kl *KeyLock) Unlock(key string) {
	kl.keyMutex(key).Unlock()
}

// Do runs fn while holding the mutex for key
func (kl *KeyLock) Do(key string, fn func() error) error {
	kl.Lock(key)
	defer kl.Unlock(key)
	return fn()
}

func (kl *KeyLock) keyMutex(key string) *sync.Mutex {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	m, ok := kl.locks[key]
	if !ok {
		m = &sync.Mutex{}
		kl.locks[key] = m
	}
	return m
}
