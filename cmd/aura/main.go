package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"aura-trader/internal/auth"
	"aura-trader/internal/bridge"
	"aura-trader/internal/logger"
	"aura-trader/internal/server"
	"aura-trader/internal/store"
	"aura-trader/internal/trace"
)

func main() {
	if err := initializeSystem(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		log.Fatal(err)
	}

	kv, err := store.NewKVStore(cfg.Settings.Path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open state store", err)
		log.Fatal(err)
	}

	analyst := initializeAnalyst(ctx, cfg, kv)
	upstream := initializeUpstream(ctx, cfg)
	source := initializeNewsSource(ctx, cfg)
	tradeLog := initializeTradeLog(cfg)

	b := bridge.New(cfg, upstream, analyst, source)
	authSvc := auth.NewService(
		auth.NewKiteExchanger(os.Getenv("KITE_API_KEY"), os.Getenv("KITE_API_SECRET")),
		kv,
	)
	srv := server.New(cfg, b, authSvc, tradeLog, analyst, kv)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		logger.Info(ctx, "Shutdown signal received")
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Server exited with error", err)
	}

	if err := trace.Shutdown(context.Background()); err != nil {
		logger.Warn(ctx, "Tracer shutdown failed", "error", err)
	}
}
