package bridge

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"aura-trader/internal/interfaces"
	"aura-trader/internal/types"
)

// MockFactory synthesizes a push feed for development without broker
// credentials. Prices follow a bounded random walk; every fifth tick also
// carries a depth snapshot.
type MockFactory struct {
	Interval time.Duration
}

func NewMockFactory(interval time.Duration) *MockFactory {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &MockFactory{Interval: interval}
}

type mockSession struct {
	stop chan struct{}
	once sync.Once
}

func (s *mockSession) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (f *MockFactory) Dial(ctx context.Context, instrument, accessToken string, handlers interfaces.UpstreamHandlers) (interfaces.UpstreamSession, error) {
	session := &mockSession{stop: make(chan struct{})}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	go func() {
		handlers.OnConnect()

		price := 22500.0
		open := price
		high, low := price, price
		var volume int64

		ticker := time.NewTicker(f.Interval)
		defer ticker.Stop()

		for seq := 0; ; seq++ {
			select {
			case <-session.stop:
				handlers.OnClose()
				return
			case <-ticker.C:
			}

			price += (rng.Float64() - 0.5) * price * 0.001
			if price > high {
				high = price
			}
			if price < low {
				low = price
			}
			volume += int64(rng.Intn(5000))

			handlers.OnTick(types.Tick{
				Timestamp: time.Now().UnixMilli(),
				Price:     price,
				Volume:    volume,
			})

			if seq%5 == 0 {
				handlers.OnSnapshot(mockSnapshot(rng, price, types.OHLCV{
					Open:   open,
					High:   high,
					Low:    low,
					Close:  open * 0.998,
					Volume: volume,
				}))
			}
		}
	}()

	return session, nil
}

func mockSnapshot(rng *rand.Rand, price float64, ohlcv types.OHLCV) types.MarketSnapshot {
	const levels = 5
	bids := make([]types.MarketDepthEntry, 0, levels)
	asks := make([]types.MarketDepthEntry, 0, levels)
	for i := 1; i <= levels; i++ {
		step := price * 0.0001 * float64(i)
		bids = append(bids, types.MarketDepthEntry{
			Price:    price - step,
			Quantity: int64(rng.Intn(900) + 100),
			Orders:   int64(rng.Intn(20) + 1),
		})
		asks = append(asks, types.MarketDepthEntry{
			Price:    price + step,
			Quantity: int64(rng.Intn(900) + 100),
			Orders:   int64(rng.Intn(20) + 1),
		})
	}
	return types.MarketSnapshot{Bids: bids, Asks: asks, OHLCV: ohlcv}
}
