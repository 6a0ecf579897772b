package secrets

import "sync"

// NoopStore is used on platforms without a keychain.
// Every operation returns ErrNotSupported.
type NoopStore struct{}

func (n *NoopStore) Get(service, account string) (string, error) {
	return "", ErrNotSupported
}

func (n *NoopStore) Set(service, account, password string) error {
	return ErrNotSupported
}

func (n *NoopStore) Delete(service, account string) error {
	return ErrNotSupported
}

func (n *NoopStore) IsSupported() bool {
	return false
}

// MemoryStore keeps credentials in process memory. Useful for tests and for
// piping a token to a single command invocation.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]string)}
}

func (m *MemoryStore) Get(service, account string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[service+"/"+account]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(service, account, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[service+"/"+account] = password
	return nil
}

func (m *MemoryStore) Delete(service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := service + "/" + account
	if _, ok := m.items[key]; !ok {
		return ErrNotFound
	}
	delete(m.items, key)
	return nil
}

func (m *MemoryStore) IsSupported() bool {
	return true
}
