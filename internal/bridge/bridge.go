// Package bridge proxies a browser WebSocket to the broker push-feed and
// owns the per-connection analysis pipeline: tick buffer, depth snapshot
// store, news feed, and signal generator all live and die with the client
// connection that subscribed them.
package bridge

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"aura-trader/internal/interfaces"
	"aura-trader/internal/logger"
	"aura-trader/internal/market"
	"aura-trader/internal/metrics"
	"aura-trader/internal/news"
	"aura-trader/internal/store"
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout:  10 * time.Second,
	ReadBufferSize:    4096,
	WriteBufferSize:   4096,
	CheckOrigin:       func(r *http.Request) bool { return true }, // SPA local
	EnableCompression: true,
}

// Bridge builds one pipeline per accepted WebSocket connection.
type Bridge struct {
	cfg      *store.Config
	upstream interfaces.UpstreamFactory
	analyst  interfaces.Analyst
	source   news.Source
}

func New(cfg *store.Config, upstream interfaces.UpstreamFactory, analyst interfaces.Analyst, source news.Source) *Bridge {
	return &Bridge{cfg: cfg, upstream: upstream, analyst: analyst, source: source}
}

// ServeWS upgrades the request and runs the connection until the client
// goes away.
func (b *Bridge) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorWithErr(ctx, "WebSocket upgrade failed", err)
		return
	}

	c := &conn{
		id:     uuid.NewString(),
		bridge: b,
		sock:   sock,
		send:   make(chan []byte, 256),
		buffer: market.NewTickBuffer(b.cfg.Buffer.MaxTicks),
		depth:  market.NewSnapshotStore(),
	}

	metrics.ConnectedClients.Inc()
	logger.Info(ctx, "Dashboard client connected", "conn_id", c.id, "remote", sock.RemoteAddr().String())

	go c.writePump()
	c.readPump()
}
