package news

import (
	"context"
	"sync"
	"time"

	"aura-trader/internal/logger"
	"aura-trader/internal/metrics"
	"aura-trader/internal/types"
)

const (
	// DefaultInterval is the headline production cadence.
	DefaultInterval = 8 * time.Second
	// DefaultMaxHeadlines caps the bounded, most-recent-first sequence.
	DefaultMaxHeadlines = 20
)

// Feed produces a bounded, newest-first sequence of labeled headlines on a
// fixed interval. Production runs only between Start and Stop; stopping keeps
// the accumulated headlines.
type Feed struct {
	source     Source
	instrument string
	interval   time.Duration
	maxSize    int
	onHeadline func(types.NewsHeadline)

	mu        sync.Mutex
	headlines []types.NewsHeadline
	stop      chan struct{}
}

// Option configures a Feed.
type Option func(*Feed)

// WithInterval overrides the production cadence.
func WithInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.interval = d
		}
	}
}

// WithMaxHeadlines overrides the sequence cap.
func WithMaxHeadlines(n int) Option {
	return func(f *Feed) {
		if n > 0 {
			f.maxSize = n
		}
	}
}

// WithHandler registers a callback invoked for each produced headline.
func WithHandler(fn func(types.NewsHeadline)) Option {
	return func(f *Feed) {
		f.onHeadline = fn
	}
}

func NewFeed(source Source, instrument string, opts ...Option) *Feed {
	f := &Feed{
		source:     source,
		instrument: instrument,
		interval:   DefaultInterval,
		maxSize:    DefaultMaxHeadlines,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start emits one headline immediately, then one per interval. Calling Start
// on a running feed is a no-op.
func (f *Feed) Start() {
	f.mu.Lock()
	if f.stop != nil {
		f.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	f.stop = stop
	f.mu.Unlock()

	f.produce()

	go func() {
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				f.produce()
			}
		}
	}()
}

// Stop halts production without clearing existing headlines.
func (f *Feed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stop != nil {
		close(f.stop)
		f.stop = nil
	}
}

// Running reports whether the feed is producing.
func (f *Feed) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stop != nil
}

// Headlines returns a copy of the sequence, most recent first.
func (f *Feed) Headlines() []types.NewsHeadline {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.NewsHeadline, len(f.headlines))
	copy(out, f.headlines)
	return out
}

// Len returns the current sequence length.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.headlines)
}

// Reset clears the sequence, used when a new session begins.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headlines = f.headlines[:0]
}

func (f *Feed) produce() {
	h := f.source.Headline(f.instrument)

	f.mu.Lock()
	f.headlines = append([]types.NewsHeadline{h}, f.headlines...)
	if len(f.headlines) > f.maxSize {
		f.headlines = f.headlines[:f.maxSize]
	}
	f.mu.Unlock()

	metrics.HeadlinesTotal.WithLabelValues(string(h.Sentiment)).Inc()
	logger.Debug(context.Background(), "Headline produced",
		"instrument", f.instrument,
		"sentiment", h.Sentiment,
		"text", h.Text,
	)

	if f.onHeadline != nil {
		f.onHeadline(h)
	}
}
