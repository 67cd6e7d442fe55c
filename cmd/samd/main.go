// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/samlabs/sam/internal/config"
	"github.com/samlabs/sam/internal/server"
	"github.com/samlabs/sam/internal/server/ws"
	"github.com/samlabs/sam/pkg/analytics"
	"github.com/samlabs/sam/pkg/log"
	"github.com/samlabs/sam/pkg/market"
	"github.com/samlabs/sam/pkg/metric"
	"github.com/samlabs/sam/pkg/store"
	"github.com/samlabs/sam/pkg/token"
)

var (
	configPath = flag.String("config", "", "Path to TOML config file")
	addr       = flag.String("addr", "", "Listen address override")
	release    = flag.Bool("release", false, "Run the HTTP server in release mode")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "samd:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.NewWithLevel(cfg.Log.Level)
	defer logger.Sync()

	kv, err := store.New(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer kv.Close()

	metrics := metric.New(prometheus.DefaultRegisterer)
	stats := analytics.NewTracker()
	hub := ws.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	// In-process adapters; a production deployment swaps these for
	// bindings to the real token contracts.
	ledger := token.NewLedger()
	registry := token.NewRegistry()
	custody := common.HexToAddress(cfg.Market.Custody)

	engine, err := market.New(market.Params{
		Admin:       common.HexToAddress(cfg.Market.Admin),
		Custody:     custody,
		BurnSink:    common.HexToAddress(cfg.Market.BurnSink),
		RevenuePool: common.HexToAddress(cfg.Market.RevenuePool),
		Assets:      registry.Bind(custody),
		Ledger:      ledger.Bind(custody),
		Logger:      logger.With("component", "market"),
		Metrics:     metrics,
		Stats:       stats,
		Journal:     store.NewJournal(kv, "receipt/"),
		OnEvent:     hub.Publish,
	})
	if err != nil {
		return err
	}

	admin := common.HexToAddress(cfg.Market.Admin)
	if err := engine.SetMarketplaceFeeRate(admin, cfg.Market.MarketplaceFeeBps); err != nil {
		return err
	}
	if err := engine.SetRoyaltyFeeRate(admin, cfg.Market.RoyaltyFeeBps); err != nil {
		return err
	}
	for _, w := range cfg.Market.Whitelist {
		if err := engine.SetAssetWhitelist(admin, common.HexToAddress(w), true); err != nil {
			return err
		}
	}

	srv := server.New(engine, stats, hub, server.Options{
		Addr:        cfg.Server.Addr,
		CORSOrigins: cfg.Server.CORSOrigins,
		Release:     *release,
	}, logger.With("component", "server"))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	logger.Info("samd started",
		"addr", cfg.Server.Addr,
		"store", cfg.Store.Backend,
		"fee_bps", cfg.Market.MarketplaceFeeBps,
		"royalty_fee_bps", cfg.Market.RoyaltyFeeBps)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
