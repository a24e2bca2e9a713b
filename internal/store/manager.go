package store

import "sync"

// Manager owns the process-wide store handle with an explicit lifecycle.
// Concurrent Open calls are serialized by a one-time initialization guard:
// the first call provisions the backing, every later call returns the same
// handle without reinitializing.
type Manager struct {
	cfg Config

	mu    sync.Mutex
	store *Store
	err   error
}

// NewManager creates a manager for the given backing config.
// The store is not opened until the first Open call.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

// Open returns the store handle, provisioning it on first call.
// A failed first open is sticky: later calls return the same error rather
// than retrying provisioning with possibly different results.
func (m *Manager) Open() (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store != nil || m.err != nil {
		return m.store, m.err
	}

	m.store, m.err = Open(m.cfg)
	return m.store, m.err
}

// Close releases the handle. After Close, Open provisions a fresh handle.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil {
		return nil
	}

	err := m.store.Close()
	m.store = nil
	m.err = nil
	return err
}
