package interfaces

import (
	"context"

	"aura-trader/internal/types"
)

// UpstreamHandlers receives normalized events from a broker push-feed
// session. Callbacks are invoked in delivery order.
type UpstreamHandlers struct {
	OnTick     func(types.Tick)
	OnSnapshot func(types.MarketSnapshot)
	OnConnect  func()
	OnError    func(error)
	OnClose    func()
}

// UpstreamSession is one live push-feed subscription. Close tears the
// session down; it is safe to call more than once.
type UpstreamSession interface {
	Close()
}

// UpstreamFactory dials a push-feed session for one instrument bound to a
// bearer credential. The bridge holds at most one session per client
// connection.
type UpstreamFactory interface {
	Dial(ctx context.Context, instrument, accessToken string, handlers UpstreamHandlers) (UpstreamSession, error)
}
