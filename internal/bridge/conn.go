package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"aura-trader/internal/interfaces"
	"aura-trader/internal/logger"
	"aura-trader/internal/market"
	"aura-trader/internal/metrics"
	"aura-trader/internal/news"
	"aura-trader/internal/signal"
	"aura-trader/internal/types"
)

const (
	readLimit    = 4096
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
	writeWait    = 10 * time.Second
)

// conn is one dashboard client and its subscription pipeline. The buffers
// are created once per connection and reset on each new subscription; feed,
// generator, and upstream session are rebuilt per subscription.
type conn struct {
	id     string
	bridge *Bridge
	sock   *websocket.Conn

	sendMu     sync.Mutex
	send       chan []byte
	sendClosed bool

	buffer *market.TickBuffer
	depth  *market.SnapshotStore

	// subscription state, owned by the readPump goroutine
	instrument string
	session    interfaces.UpstreamSession
	feed       *news.Feed
	generator  *signal.Generator
}

func (c *conn) readPump() {
	ctx := context.Background()
	defer func() {
		c.teardown(ctx)
		c.closeSend()
		_ = c.sock.Close()
		metrics.ConnectedClients.Dec()
		logger.Info(ctx, "Dashboard client disconnected", "conn_id", c.id)
	}()

	c.sock.SetReadLimit(readLimit)
	_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.sock.ReadMessage()
		if err != nil {
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			// Malformed input never kills the connection.
			logger.Warn(ctx, "Dropping malformed client message", "conn_id", c.id)
			continue
		}

		switch frame.Type {
		case frameSubscribe:
			if frame.Instrument == "" {
				logger.Warn(ctx, "Dropping subscribe without instrument", "conn_id", c.id)
				continue
			}
			if frame.AccessToken == "" {
				// The credential gates the upstream subscription; never dial
				// without one.
				logger.Warn(ctx, "Dropping subscribe without access token", "conn_id", c.id, "instrument", frame.Instrument)
				c.push(frameStatus, StatusData{State: statusError, Message: "access token required"})
				continue
			}
			c.subscribe(ctx, frame.Instrument, frame.AccessToken)
		default:
			logger.Warn(ctx, "Dropping unknown client message", "conn_id", c.id, "type", frame.Type)
		}
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.sock.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// push queues a frame for the client. A full queue drops the frame rather
// than blocking feed callbacks behind a slow reader. Late callbacks arriving
// after the connection closed are discarded.
func (c *conn) push(frameType string, v any) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	select {
	case c.send <- marshalFrame(frameType, v):
	default:
		logger.Warn(context.Background(), "Dropping frame for slow client", "conn_id", c.id, "type", frameType)
	}
}

func (c *conn) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}

// subscribe replaces the connection's pipeline with one for the requested
// instrument. The previous upstream session is fully torn down before the
// new dial so the connection never holds two live feeds.
func (c *conn) subscribe(ctx context.Context, instrument, accessToken string) {
	c.teardown(ctx)

	c.instrument = instrument
	b := c.bridge

	c.feed = news.NewFeed(b.source, instrument,
		news.WithInterval(time.Duration(b.cfg.News.IntervalMs)*time.Millisecond),
		news.WithMaxHeadlines(b.cfg.News.MaxHeadlines),
		news.WithHandler(func(h types.NewsHeadline) { c.push(frameHeadline, h) }),
	)
	c.generator = signal.NewGenerator(b.analyst, instrument,
		signal.MarketContext{
			Ticks:     c.buffer.Snapshot,
			Headlines: c.feed.Headlines,
			OHLCV:     c.depth.OHLCV,
		},
		signal.WithDelays(
			time.Duration(b.cfg.Analysis.InitialDelayMs)*time.Millisecond,
			time.Duration(b.cfg.Analysis.IntervalMs)*time.Millisecond,
		),
		signal.WithMinTicks(b.cfg.Analysis.MinTicks),
		signal.WithSignalHandler(func(s types.AISignal) { c.push(frameSignal, s) }),
	)

	feed, generator := c.feed, c.generator
	session, err := b.upstream.Dial(ctx, instrument, accessToken, upstreamHandlers(c, feed, generator))
	if err != nil {
		logger.ErrorWithErr(ctx, "Upstream dial failed", err, "conn_id", c.id, "instrument", instrument)
		c.push(frameStatus, StatusData{State: statusError, Message: "could not connect to market data feed"})
		return
	}
	c.session = session
	logger.Info(ctx, "Subscribed", "conn_id", c.id, "instrument", instrument)
}

func upstreamHandlers(c *conn, feed *news.Feed, generator *signal.Generator) interfaces.UpstreamHandlers {
	return interfaces.UpstreamHandlers{
		OnConnect: func() {
			c.push(frameStatus, StatusData{State: statusConnected})
			feed.Start()
			generator.Activate()
		},
		OnTick: func(tick types.Tick) {
			c.buffer.Append(tick)
			metrics.TicksRelayed.Inc()
			c.push(frameTick, tick)
		},
		OnSnapshot: func(snapshot types.MarketSnapshot) {
			c.depth.Replace(snapshot)
			metrics.SnapshotsRelayed.Inc()
			c.push(frameSnapshot, snapshot)
		},
		OnError: func(err error) {
			logger.ErrorWithErr(context.Background(), "Upstream feed error", err, "conn_id", c.id)
			c.push(frameStatus, StatusData{State: statusError, Message: err.Error()})
		},
		OnClose: func() {
			// The feed dropped out from under the client: stop analysis and
			// news but keep the dashboard socket so the client can resubscribe.
			generator.Deactivate()
			feed.Stop()
			c.push(frameStatus, StatusData{State: statusDisconnected})
		},
	}
}

// teardown closes the current upstream session and deactivates the
// pipeline. Buffers are reset so a following subscription starts clean.
func (c *conn) teardown(ctx context.Context) {
	if c.session != nil {
		c.session.Close()
		c.session = nil
	}
	if c.generator != nil {
		c.generator.Deactivate()
		c.generator = nil
	}
	if c.feed != nil {
		c.feed.Stop()
		c.feed = nil
	}
	if c.instrument != "" {
		logger.Info(ctx, "Subscription torn down", "conn_id", c.id, "instrument", c.instrument)
		c.instrument = ""
	}
	c.buffer.Reset()
	c.depth.Reset()
}
