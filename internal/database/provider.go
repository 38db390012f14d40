package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	backends   = map[string]func(ctx context.Context) (Store, error){}
	backendsMu sync.RWMutex

	activeStore Store
	activeName  string
	activeMu    sync.RWMutex
)

// RegisterBackend registers a store constructor under name.
// Backend packages call this from cmd to avoid import cycles.
func RegisterBackend(name string, open func(ctx context.Context) (Store, error)) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = open
}

// Open connects the named backend and makes it the active store.
func Open(ctx context.Context, name string) (Store, error) {
	backendsMu.RLock()
	open, ok := backends[name]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown store backend %q", name)
	}

	store, err := open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", name, err)
	}

	activeMu.Lock()
	defer activeMu.Unlock()
	activeStore = store
	activeName = name
	return store, nil
}

// GetStore returns the active store.
func GetStore() (Store, error) {
	activeMu.RLock()
	defer activeMu.RUnlock()
	if activeStore == nil {
		return nil, errors.New("store not initialized: call database.Open first")
	}
	return activeStore, nil
}

// ActiveBackend returns the name of the active backend, or "".
func ActiveBackend() string {
	activeMu.RLock()
	defer activeMu.RUnlock()
	return activeName
}

// CloseStore closes and forgets the active store.
func CloseStore() error {
	activeMu.Lock()
	defer activeMu.Unlock()
	if activeStore == nil {
		return nil
	}
	err := activeStore.Close()
	activeStore = nil
	activeName = ""
	if err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}
