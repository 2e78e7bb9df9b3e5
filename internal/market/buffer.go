package market

import (
	"sync"

	"aura-trader/internal/types"
)

// DefaultMaxTicks is the bounded window of most-recent ticks kept per session.
const DefaultMaxTicks = 200

// TickBuffer holds a bounded, time-ordered sliding window of ticks.
// Oldest ticks are evicted first once the cap is reached.
type TickBuffer struct {
	mu      sync.RWMutex
	ticks   []types.Tick
	maxSize int
}

// NewTickBuffer creates a buffer with the given cap. Non-positive caps fall
// back to DefaultMaxTicks.
func NewTickBuffer(maxSize int) *TickBuffer {
	if maxSize <= 0 {
		maxSize = DefaultMaxTicks
	}
	return &TickBuffer{
		ticks:   make([]types.Tick, 0, maxSize),
		maxSize: maxSize,
	}
}

// Append pushes a tick to the end of the window, evicting from the front
// when the cap is exceeded.
func (b *TickBuffer) Append(tick types.Tick) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ticks = append(b.ticks, tick)
	if len(b.ticks) > b.maxSize {
		b.ticks = b.ticks[len(b.ticks)-b.maxSize:]
	}
}

// Snapshot returns a copy of the full window in arrival order.
func (b *TickBuffer) Snapshot() []types.Tick {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]types.Tick, len(b.ticks))
	copy(out, b.ticks)
	return out
}

// Latest returns the most recent tick, if any.
func (b *TickBuffer) Latest() (types.Tick, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.ticks) == 0 {
		return types.Tick{}, false
	}
	return b.ticks[len(b.ticks)-1], true
}

// Len returns the current window length.
func (b *TickBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ticks)
}

// Reset clears the window. Called on new-connection establishment so stale
// data from a prior instrument is never mixed with a new session.
func (b *TickBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ticks = b.ticks[:0]
}
