package utils

import "sync"

// KeyMutex serializes work per string key: one conversation per client, one
// commit per business date. Different keys proceed in parallel.
type KeyMutex struct {
	locks sync.Map // key -> *sync.Mutex
}

// Lock acquires the mutex for key, creating it on first use. Mutexes are
// kept for the process lifetime; the key space (phone numbers, dates) is
// small and bounded.
func (m *KeyMutex) Lock(key string) {
	mu, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
}

// Unlock releases the mutex for key.
func (m *KeyMutex) Unlock(key string) {
	if mu, ok := m.locks.Load(key); ok {
		mu.(*sync.Mutex).Unlock()
	}
}
