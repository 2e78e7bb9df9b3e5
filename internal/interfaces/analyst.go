package interfaces

import (
	"context"

	"aura-trader/internal/types"
)

// Analyst is the external analysis collaborator. Analyze derives a trading
// signal from the market context; Explain narrates the rationale behind a
// previously confirmed trade.
type Analyst interface {
	Analyze(ctx context.Context, instrument string, ticks []types.Tick, headlines []types.NewsHeadline, ohlcv types.OHLCV) (types.AISignal, error)
	Explain(ctx context.Context, trade types.Trade) (string, error)
}
