package credentials

import "sync"

// MemStore is an in-process Store guarded by a mutex. It backs tests and
// embedded usage where persistence across restarts is not wanted.
type MemStore struct {
	mu   sync.RWMutex
	pair Pair
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Access returns the stored access token, or "" when none is stored.
func (ms *MemStore) Access() string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.pair.AccessToken
}

// Refresh returns the stored refresh token, or "" when none is stored.
func (ms *MemStore) Refresh() string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.pair.RefreshToken
}

// Set replaces the stored pair.
func (ms *MemStore) Set(pair Pair) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.pair = pair
}

// Clear removes the stored pair.
func (ms *MemStore) Clear() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.pair = Pair{}
}

// Exists reports whether a pair is currently stored.
func (ms *MemStore) Exists() bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return !ms.pair.IsZero()
}
