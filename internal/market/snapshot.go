package market

import (
	"sync"

	"aura-trader/internal/types"
)

// SnapshotStore holds the latest market-depth/OHLCV snapshot. Snapshots are
// replaced wholesale; no history is retained and no merging occurs.
type SnapshotStore struct {
	mu       sync.RWMutex
	snapshot types.MarketSnapshot
	present  bool
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Replace unconditionally overwrites the stored snapshot.
func (s *SnapshotStore) Replace(snapshot types.MarketSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.present = true
}

// Latest returns the current snapshot; the second return is false when no
// snapshot has been received yet.
func (s *SnapshotStore) Latest() (types.MarketSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.present
}

// OHLCV returns the day summary of the current snapshot, if present.
func (s *SnapshotStore) OHLCV() (types.OHLCV, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.OHLCV, s.present
}

// Reset clears the store to empty on new-connection establishment.
func (s *SnapshotStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = types.MarketSnapshot{}
	s.present = false
}
