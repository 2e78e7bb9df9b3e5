package llmobs

import (
	"context"

	"aura-trader/internal/interfaces"
	"aura-trader/internal/logger"
	"aura-trader/internal/trace"
	"aura-trader/internal/types"
)

// observableAnalyst wraps an Analyst with observability (logging & tracing)
type observableAnalyst struct {
	analyst interfaces.Analyst
}

var _ interfaces.Analyst = (*observableAnalyst)(nil)

// Wrap wraps an analyst with observability middleware
func Wrap(analyst interfaces.Analyst) interfaces.Analyst {
	return &observableAnalyst{analyst: analyst}
}

func (oa *observableAnalyst) Analyze(ctx context.Context, instrument string, ticks []types.Tick, headlines []types.NewsHeadline, ohlcv types.OHLCV) (types.AISignal, error) {
	ctx, span := trace.StartSpan(ctx, "analyst.Analyze")
	defer span.End()

	// Skip(1) so the log reports the actual caller, not this wrapper
	logger.DebugSkip(ctx, 1, "Requesting signal analysis",
		"instrument", instrument,
		"ticks", len(ticks),
		"headlines", len(headlines),
	)

	signal, err := oa.analyst.Analyze(ctx, instrument, ticks, headlines, ohlcv)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Signal analysis failed", err, "instrument", instrument)
		return types.AISignal{}, err
	}

	logger.InfoSkip(ctx, 1, "Signal analysis received",
		"instrument", instrument,
		"signal", signal.Signal,
		"confidence", signal.Confidence,
		"target", signal.Target,
		"stoploss", signal.Stoploss,
	)
	return signal, nil
}

func (oa *observableAnalyst) Explain(ctx context.Context, trade types.Trade) (string, error) {
	ctx, span := trace.StartSpan(ctx, "analyst.Explain")
	defer span.End()

	text, err := oa.analyst.Explain(ctx, trade)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trade explanation failed", err, "signal", trade.Signal.Signal)
		return "", err
	}

	logger.DebugSkip(ctx, 1, "Trade explanation received", "signal", trade.Signal.Signal)
	return text, nil
}
