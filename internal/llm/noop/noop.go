package noop

import (
	"context"

	"aura-trader/internal/logger"
	"aura-trader/internal/types"
)

// Analyst is a fallback analyst used when no LLM provider is configured.
// It always signals HOLD at the latest price.
type Analyst struct{}

func NewAnalyst() *Analyst {
	return &Analyst{}
}

func (a *Analyst) Analyze(ctx context.Context, instrument string, ticks []types.Tick, headlines []types.NewsHeadline, ohlcv types.OHLCV) (types.AISignal, error) {
	logger.Debug(ctx, "Noop analyst called - always returns HOLD", "instrument", instrument)

	price := ohlcv.Close
	if len(ticks) > 0 {
		price = ticks[len(ticks)-1].Price
	}
	return types.AISignal{
		Signal:     types.ActionHold,
		Confidence: 0.0,
		Target:     price,
		Stoploss:   price,
		Reason:     "No analysis provider configured. Holding position.",
	}, nil
}

func (a *Analyst) Explain(ctx context.Context, trade types.Trade) (string, error) {
	return "No analysis provider is configured, so no explanation is available for this trade.", nil
}
