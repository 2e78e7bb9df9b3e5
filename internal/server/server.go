// Package server wires the REST surface and the dashboard WebSocket into
// one http.Server with graceful shutdown.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"aura-trader/internal/analytics"
	"aura-trader/internal/auth"
	"aura-trader/internal/bridge"
	"aura-trader/internal/interfaces"
	"aura-trader/internal/logger"
	"aura-trader/internal/metrics"
	"aura-trader/internal/store"
	"aura-trader/internal/types"
)

type Server struct {
	cfg      *store.Config
	bridge   *bridge.Bridge
	auth     *auth.Service
	tradeLog *analytics.TradeLog
	analyst  interfaces.Analyst
	kv       *store.KVStore

	httpSrv *http.Server
}

func New(cfg *store.Config, b *bridge.Bridge, authSvc *auth.Service, tradeLog *analytics.TradeLog, analyst interfaces.Analyst, kv *store.KVStore) *Server {
	s := &Server{
		cfg:      cfg,
		bridge:   b,
		auth:     authSvc,
		tradeLog: tradeLog,
		analyst:  analyst,
		kv:       kv,
	}
	s.httpSrv = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.bridge.ServeWS)

	mux.HandleFunc("POST /get-login-url", s.auth.HandleLoginURL)
	mux.HandleFunc("POST /get-access-token", s.auth.HandleAccessToken)

	mux.HandleFunc("GET /api/performance", s.handlePerformance)
	mux.HandleFunc("GET /api/trades", s.handleListTrades)
	mux.HandleFunc("POST /api/trades", s.handleConfirmTrade)
	mux.HandleFunc("POST /api/explain", s.handleExplain)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.cors(mux)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", s.cfg.Server.Addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info(shutdownCtx, "HTTP server shutting down")
	return s.httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(s.cfg.Server.AllowOrigins) > 0 {
			origin = s.cfg.Server.AllowOrigins[0]
			for _, allowed := range s.cfg.Server.AllowOrigins {
				if allowed == r.Header.Get("Origin") {
					origin = allowed
					break
				}
			}
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type performanceResponse struct {
	Metrics     types.PerformanceMetrics `json:"metrics"`
	EquityCurve []types.EquityDataPoint  `json:"equityCurve"`
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	m, curve := analytics.Compute(s.tradeLog.Trades())
	writeJSON(w, http.StatusOK, performanceResponse{Metrics: m, EquityCurve: curve})
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tradeLog.Trades())
}

func (s *Server) handleConfirmTrade(w http.ResponseWriter, r *http.Request) {
	var trade types.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		writeError(w, http.StatusBadRequest, "invalid trade payload")
		return
	}
	if trade.Signal.Signal != types.ActionBuy && trade.Signal.Signal != types.ActionSell {
		writeError(w, http.StatusUnprocessableEntity, "only BUY and SELL signals can be executed")
		return
	}
	if err := s.tradeLog.Confirm(r.Context(), trade); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, trade)
}

type explainResponse struct {
	Explanation string `json:"explanation"`
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var trade types.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		writeError(w, http.StatusBadRequest, "invalid trade payload")
		return
	}
	explanation, err := s.analyst.Explain(r.Context(), trade)
	if err != nil {
		logger.ErrorWithErr(r.Context(), "Trade explanation failed", err)
		writeError(w, http.StatusBadGateway, "could not generate explanation")
		return
	}
	writeJSON(w, http.StatusOK, explainResponse{Explanation: explanation})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.kv.Settings())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings types.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings payload")
		return
	}
	if settings.TradingStrategy == "" || settings.AIPersonality == "" {
		writeError(w, http.StatusBadRequest, "tradingStrategy and aiPersonality are required")
		return
	}
	if err := s.kv.SaveSettings(settings); err != nil {
		logger.ErrorWithErr(r.Context(), "Saving settings failed", err)
		writeError(w, http.StatusInternalServerError, "could not persist settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
