package postgres

import (
	"context"
	"sync"
)

var shared struct {
	mu    sync.Mutex
	store *Store
}

// Shared returns the process-wide store, connecting on first use. Later
// calls reuse the same pool regardless of their arguments.
func Shared(ctx context.Context, databaseURL string, opts Options) (*Store, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.store != nil {
		return shared.store, nil
	}
	store, err := NewStore(ctx, databaseURL, opts)
	if err != nil {
		return nil, err
	}
	shared.store = store
	return store, nil
}

// CloseShared closes the process-wide store if one was opened.
func CloseShared() {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.store != nil {
		shared.store.Close()
		shared.store = nil
	}
}
