package storage

import "sync"

type memoryDisk struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns a process-local Store. Values are copied on the way in
// and out so callers cannot alias stored bytes.
func NewMemory() Store {
	return &memoryDisk{data: map[string][]byte{}}
}

func (m *memoryDisk) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memoryDisk) Put(key string, value []byte) error {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), value...)
	m.mu.Unlock()
	return nil
}

func (m *memoryDisk) Delete(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *memoryDisk) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}

func (m *memoryDisk) Close() error { return nil }
