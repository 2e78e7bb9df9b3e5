package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksRelayed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "aura_ticks_relayed_total", Help: "Ticks relayed to dashboard clients"},
	)
	SnapshotsRelayed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "aura_snapshots_relayed_total", Help: "Depth snapshots relayed to dashboard clients"},
	)
	HeadlinesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "aura_headlines_total", Help: "News headlines produced"},
		[]string{"sentiment"},
	)
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "aura_analyses_total", Help: "Analysis cycles by result"},
		[]string{"result"},
	)
	TradesConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "aura_trades_confirmed_total", Help: "Simulated trades confirmed"},
	)
	ConnectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "aura_ws_clients", Help: "Connected dashboard WebSocket clients"},
	)
)

func init() {
	prometheus.MustRegister(
		TicksRelayed, SnapshotsRelayed, HeadlinesTotal,
		AnalysesTotal, TradesConfirmed, ConnectedClients,
	)
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
