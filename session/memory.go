package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-process [Store] and [Notifier]. Notifications run
// synchronously on the writing goroutine after the store lock is released.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string]map[string]string
	subs   map[string]map[uint64]func()
	nextID uint64
}

// NewMemoryStore returns an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]string),
		subs: make(map[string]map[uint64]func()),
	}
}

func (m *MemoryStore) Get(_ context.Context, namespace, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[namespace][key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, namespace, key, value string) error {
	m.mu.Lock()
	if m.data[namespace] == nil {
		m.data[namespace] = make(map[string]string)
	}
	m.data[namespace][key] = value
	fns := m.listenersLocked(namespace)
	m.mu.Unlock()

	notify(fns)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, namespace string, keys ...string) error {
	m.mu.Lock()
	changed := false
	for _, k := range keys {
		if _, ok := m.data[namespace][k]; ok {
			delete(m.data[namespace], k)
			changed = true
		}
	}
	if len(m.data[namespace]) == 0 {
		delete(m.data, namespace)
	}
	var fns []func()
	if changed {
		fns = m.listenersLocked(namespace)
	}
	m.mu.Unlock()

	notify(fns)
	return nil
}

func (m *MemoryStore) Subscribe(_ context.Context, namespace string, fn func()) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	if m.subs[namespace] == nil {
		m.subs[namespace] = make(map[uint64]func())
	}
	m.subs[namespace][id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs[namespace], id)
		if len(m.subs[namespace]) == 0 {
			delete(m.subs, namespace)
		}
	}, nil
}

func (m *MemoryStore) listenersLocked(namespace string) []func() {
	fns := make([]func(), 0, len(m.subs[namespace]))
	for _, fn := range m.subs[namespace] {
		fns = append(fns, fn)
	}
	return fns
}

func notify(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
