// Package keymutex provides named mutexes so fills and revaluations
// against the same position serialize while unrelated positions
// proceed in parallel.
package keymutex

import "sync"

// Map hands out one mutex per key. Mutexes are never evicted; the key
// space here is bounded by accounts times instruments.
type Map struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New() *Map {
	return &Map{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
func (m *Map) Lock(key string) {
	m.get(key).Lock()
}

// Unlock releases the mutex for key.
func (m *Map) Unlock(key string) {
	m.get(key).Unlock()
}

func (m *Map) get(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}
