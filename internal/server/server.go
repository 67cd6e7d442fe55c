// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samlabs/sam/internal/server/ws"
	"github.com/samlabs/sam/pkg/analytics"
	"github.com/samlabs/sam/pkg/log"
	"github.com/samlabs/sam/pkg/market"
)

// Server exposes the marketplace over HTTP: the read surface, the
// operation endpoints, Prometheus metrics and a WebSocket event feed.
type Server struct {
	engine *market.Marketplace
	stats  *analytics.Tracker
	hub    *ws.Hub
	http   *http.Server
	log    log.Logger
}

// Options configures the server.
type Options struct {
	Addr        string
	CORSOrigins []string
	Release     bool
}

// New builds the server. The stats tracker may be nil.
func New(engine *market.Marketplace, stats *analytics.Tracker, hub *ws.Hub, opts Options, logger log.Logger) *Server {
	if opts.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine: engine,
		stats:  stats,
		hub:    hub,
		log:    logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())

	if len(opts.CORSOrigins) > 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = opts.CORSOrigins
		cfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
		cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
		router.Use(cors.New(cfg))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().Unix()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if hub != nil {
		router.GET("/ws", gin.WrapH(hub))
	}

	api := router.Group("/api/v1")
	{
		api.POST("/listings", s.handleAddListing)
		api.DELETE("/listings/:id", s.handleRemoveListing)
		api.GET("/listings/:id/price", s.handleGetPrice)
		api.GET("/listings/:id/bids", s.handleListBids)
		api.POST("/listings/:id/buy", s.handleBuyNow)
		api.POST("/listings/:id/bids", s.handlePlaceBid)
		api.POST("/bids/:id/claim", s.handleClaim)

		api.GET("/sellers/:addr/listings", s.handleSellerListings)
		api.GET("/escrow/:addr", s.handleEscrowBalance)
		api.POST("/withdraw", s.handleWithdraw)

		api.GET("/stats", s.handleStats)

		admin := api.Group("/admin")
		{
			admin.POST("/fees", s.handleSetFees)
			admin.POST("/whitelist", s.handleSetWhitelist)
		}
	}

	s.http = &http.Server{Addr: opts.Addr, Handler: router}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.log.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
