// Package persist owns the durable HUD state: a Store moves one blob per
// subject in and out of host storage, and the Manager is the single
// source of truth the surfaces and the sync layer mutate through.
package persist

import (
	"context"
	"errors"
	"sync"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// ErrNotFound reports that no blob exists yet for a subject.
var ErrNotFound = errors.New("persist: no state stored for subject")

// Store is the host storage boundary: one structured blob per subject.
type Store interface {
	Load(ctx context.Context, subject string) (*state.State, error)
	Save(ctx context.Context, subject string, st *state.State) error
	Delete(ctx context.Context, subject string) error
}

// MemoryStore keeps blobs in process memory. It backs tests and hosts
// without durable storage.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*state.State
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*state.State)}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, subject string) (*state.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[subject]
	if !ok {
		return nil, ErrNotFound
	}
	return st.Clone(), nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, subject string, st *state.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[subject] = st.Clone()
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, subject)
	return nil
}
