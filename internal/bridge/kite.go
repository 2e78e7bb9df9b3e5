package bridge

import (
	"context"
	"fmt"
	"sync"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	kitemodels "github.com/zerodha/gokiteconnect/v4/models"
	kiteticker "github.com/zerodha/gokiteconnect/v4/ticker"

	"aura-trader/internal/interfaces"
	"aura-trader/internal/logger"
	"aura-trader/internal/types"
)

// KiteFactory dials live push-feed sessions against the Zerodha ticker.
type KiteFactory struct {
	apiKey string
}

func NewKiteFactory(apiKey string) *KiteFactory {
	return &KiteFactory{apiKey: apiKey}
}

type kiteSession struct {
	ticker *kiteticker.Ticker
	once   sync.Once
}

func (s *kiteSession) Close() {
	s.once.Do(func() {
		s.ticker.Stop()
	})
}

// Dial resolves the instrument token, opens the ticker socket, and routes
// full-mode packets into normalized handler events.
func (f *KiteFactory) Dial(ctx context.Context, instrument, accessToken string, handlers interfaces.UpstreamHandlers) (interfaces.UpstreamSession, error) {
	kc := kiteconnect.New(f.apiKey)
	kc.SetAccessToken(accessToken)

	ltp, err := kc.GetLTP(instrument)
	if err != nil {
		return nil, fmt.Errorf("resolving instrument %q: %w", instrument, err)
	}
	quote, ok := ltp[instrument]
	if !ok {
		return nil, fmt.Errorf("instrument %q not found", instrument)
	}
	token := uint32(quote.InstrumentToken)

	ticker := kiteticker.New(f.apiKey, accessToken)

	ticker.OnConnect(func() {
		if err := ticker.Subscribe([]uint32{token}); err != nil {
			handlers.OnError(fmt.Errorf("subscribing to %q: %w", instrument, err))
			return
		}
		if err := ticker.SetMode(kiteticker.ModeFull, []uint32{token}); err != nil {
			handlers.OnError(fmt.Errorf("setting full mode for %q: %w", instrument, err))
			return
		}
		logger.Info(ctx, "Upstream feed connected", "instrument", instrument, "token", token)
		handlers.OnConnect()
	})
	ticker.OnError(func(err error) {
		handlers.OnError(err)
	})
	ticker.OnClose(func(code int, reason string) {
		logger.Warn(ctx, "Upstream feed closed", "code", code, "reason", reason)
		handlers.OnClose()
	})
	ticker.OnNoReconnect(func(attempt int) {
		logger.Warn(ctx, "Upstream feed gave up reconnecting", "attempt", attempt)
		handlers.OnClose()
	})
	ticker.OnTick(func(tick kitemodels.Tick) {
		handlers.OnTick(normalizeTick(tick))
		if snapshot, ok := normalizeSnapshot(tick); ok {
			handlers.OnSnapshot(snapshot)
		}
	})

	go ticker.Serve()
	return &kiteSession{ticker: ticker}, nil
}

func normalizeTick(tick kitemodels.Tick) types.Tick {
	return types.Tick{
		Timestamp: tick.Timestamp.Time.UnixMilli(),
		Price:     tick.LastPrice,
		Volume:    int64(tick.VolumeTraded),
	}
}

// normalizeSnapshot flattens the five-level depth plus day OHLC. Index and
// LTP-mode packets carry no depth and yield no snapshot.
func normalizeSnapshot(tick kitemodels.Tick) (types.MarketSnapshot, bool) {
	bids := normalizeDepth(tick.Depth.Buy[:])
	asks := normalizeDepth(tick.Depth.Sell[:])
	if len(bids) == 0 && len(asks) == 0 {
		return types.MarketSnapshot{}, false
	}
	return types.MarketSnapshot{
		Bids: bids,
		Asks: asks,
		OHLCV: types.OHLCV{
			Open:   tick.OHLC.Open,
			High:   tick.OHLC.High,
			Low:    tick.OHLC.Low,
			Close:  tick.OHLC.Close,
			Volume: int64(tick.VolumeTraded),
		},
	}, true
}

func normalizeDepth(levels []kitemodels.DepthItem) []types.MarketDepthEntry {
	out := make([]types.MarketDepthEntry, 0, len(levels))
	for _, level := range levels {
		if level.Quantity == 0 {
			continue
		}
		out = append(out, types.MarketDepthEntry{
			Price:    level.Price,
			Quantity: int64(level.Quantity),
			Orders:   int64(level.Orders),
		})
	}
	return out
}
