// Package mock provides an in-memory implementation of database.Store for testing.
package mock

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// MockStore is an in-memory database.Store. The zero value is not usable;
// call NewMockStore.
type MockStore struct {
	mu         sync.RWMutex
	identities map[string]*database.Identity
	order      []string
	events     []database.AttendanceEvent

	// Error injection
	GetError    error
	ListError   error
	CountError  error
	CreateError error
	AppendError error
	RecentError error
	SinceError  error
	PingError   error

	// Calls
	CreateCalls int
	AppendCalls int
}

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		identities: make(map[string]*database.Identity),
	}
}

// AddIdentity seeds an identity without going through CreateIdentity
func (m *MockStore) AddIdentity(id database.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.identities[id.IdentityKey]; !ok {
		m.order = append(m.order, id.IdentityKey)
	}
	m.identities[id.IdentityKey] = &id
}

// AddEvent seeds an attendance event
func (m *MockStore) AddEvent(ev database.AttendanceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

// Events returns a copy of all stored events in append order
func (m *MockStore) Events() []database.AttendanceEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.events)
}

func (m *MockStore) GetIdentity(ctx context.Context, key string) (*database.Identity, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.identities[key]
	if !ok {
		return nil, nil
	}
	c := *id
	return &c, nil
}

func (m *MockStore) ListIdentities(ctx context.Context) ([]database.Identity, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Identity, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, *m.identities[key])
	}
	return out, nil
}

func (m *MockStore) CountIdentities(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities), nil
}

// CreateIdentity checks and inserts under one lock.
func (m *MockStore) CreateIdentity(ctx context.Context, id *database.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, ok := m.identities[id.IdentityKey]; ok {
		return fmt.Errorf("insert identity %q: %w", id.IdentityKey, database.ErrDuplicateKey)
	}
	c := *id
	m.identities[id.IdentityKey] = &c
	m.order = append(m.order, id.IdentityKey)
	return nil
}

func (m *MockStore) AppendAttendance(ctx context.Context, ev *database.AttendanceEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendCalls++
	if m.AppendError != nil {
		return m.AppendError
	}
	m.events = append(m.events, *ev)
	return nil
}

func (m *MockStore) RecentAttendance(ctx context.Context, limit int) ([]database.AttendanceEvent, error) {
	if m.RecentError != nil {
		return nil, m.RecentError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Clone(m.events)
	slices.SortStableFunc(out, func(a, b database.AttendanceEvent) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockStore) AttendanceSince(ctx context.Context, since time.Time) ([]database.AttendanceEvent, error) {
	if m.SinceError != nil {
		return nil, m.SinceError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.AttendanceEvent
	for _, ev := range m.events {
		if !ev.Timestamp.Before(since) {
			out = append(out, ev)
		}
	}
	slices.SortStableFunc(out, func(a, b database.AttendanceEvent) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out, nil
}

func (m *MockStore) Ping(ctx context.Context) error {
	return m.PingError
}

func (m *MockStore) Close() error {
	return nil
}
