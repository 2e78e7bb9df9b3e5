package analytics

import (
	"context"
	"errors"
	"sync"

	"aura-trader/internal/logger"
	"aura-trader/internal/metrics"
	"aura-trader/internal/types"
)

// DefaultMaxTrades bounds the in-memory trade log. The oldest entry is
// evicted when a confirmation would exceed it.
const DefaultMaxTrades = 100

// ErrHoldNotTradable is returned when a confirmation carries a HOLD signal.
var ErrHoldNotTradable = errors.New("hold signals cannot be executed")

// TradeLog accumulates user-confirmed simulated trades, newest first.
type TradeLog struct {
	mu        sync.Mutex
	maxTrades int
	trades    []types.Trade
	journal   *Journal
}

type TradeLogOption func(*TradeLog)

func WithMaxTrades(n int) TradeLogOption {
	return func(l *TradeLog) {
		if n > 0 {
			l.maxTrades = n
		}
	}
}

// WithJournal mirrors every confirmed trade to an append-only daily file.
func WithJournal(j *Journal) TradeLogOption {
	return func(l *TradeLog) { l.journal = j }
}

func NewTradeLog(opts ...TradeLogOption) *TradeLog {
	l := &TradeLog{maxTrades: DefaultMaxTrades}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Confirm records a trade at the head of the log. HOLD signals are not
// executable and are rejected before any state changes.
func (l *TradeLog) Confirm(ctx context.Context, trade types.Trade) error {
	if trade.Signal.Signal == types.ActionHold {
		return ErrHoldNotTradable
	}

	l.mu.Lock()
	l.trades = append([]types.Trade{trade}, l.trades...)
	if len(l.trades) > l.maxTrades {
		l.trades = l.trades[:l.maxTrades]
	}
	journal := l.journal
	l.mu.Unlock()

	metrics.TradesConfirmed.Inc()
	logger.TradeConfirmed(ctx, string(trade.Signal.Signal), trade.Tick.Price)

	if journal != nil {
		if err := journal.Append(trade); err != nil {
			logger.ErrorWithErr(ctx, "Trade journal append failed", err)
		}
	}
	return nil
}

// Trades returns a copy of the log, newest first.
func (l *TradeLog) Trades() []types.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

func (l *TradeLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.trades)
}
