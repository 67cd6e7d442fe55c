// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/samlabs/sam/pkg/market"
)

// httpStatus maps the engine's error taxonomy onto HTTP codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, market.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, market.ErrInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, market.ErrTransferFailure):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(httpStatus(err), gin.H{"error": err.Error()})
}

func parseAddr(c *gin.Context, s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address: " + s})
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

type addListingRequest struct {
	Caller        string `json:"caller" binding:"required"`
	AssetContract string `json:"asset_contract" binding:"required"`
	AssetID       uint64 `json:"asset_id"`
	MinPrice      uint64 `json:"min_price"`
	BuyNowPrice   uint64 `json:"buy_now_price"`
	StartTime     int64  `json:"start_time"` // unix seconds
	DurationSec   int64  `json:"duration_sec"`
	Dutch         bool   `json:"dutch"`
	DecayInterval int64  `json:"decay_interval_sec"`
	DecayStep     uint64 `json:"decay_step"`
}

func (s *Server) handleAddListing(c *gin.Context) {
	var req addListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller, ok := parseAddr(c, req.Caller)
	if !ok {
		return
	}
	contract, ok := parseAddr(c, req.AssetContract)
	if !ok {
		return
	}

	id, err := s.engine.AddListing(market.AddListingRequest{
		Caller:        caller,
		AssetContract: contract,
		AssetID:       req.AssetID,
		MinPrice:      req.MinPrice,
		BuyNowPrice:   req.BuyNowPrice,
		StartTime:     time.Unix(req.StartTime, 0),
		Duration:      time.Duration(req.DurationSec) * time.Second,
		Dutch:         req.Dutch,
		DecayInterval: time.Duration(req.DecayInterval) * time.Second,
		DecayStep:     req.DecayStep,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"listing_id": id})
}

type callerRequest struct {
	Caller string `json:"caller" binding:"required"`
}

func (s *Server) handleRemoveListing(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req callerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller, ok := parseAddr(c, req.Caller)
	if !ok {
		return
	}
	if err := s.engine.RemoveListing(caller, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": id})
}

func (s *Server) handleGetPrice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	price, err := s.engine.GetPrice(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": id, "price": price})
}

func (s *Server) handleListBids(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": id, "bids": s.engine.BidsOf(id)})
}

func (s *Server) handleBuyNow(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req callerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	buyer, ok := parseAddr(c, req.Caller)
	if !ok {
		return
	}
	if err := s.engine.BuyNow(buyer, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sold": id})
}

type placeBidRequest struct {
	Caller string `json:"caller" binding:"required"`
	Price  uint64 `json:"price" binding:"required"`
}

func (s *Server) handlePlaceBid(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bidder, ok := parseAddr(c, req.Caller)
	if !ok {
		return
	}
	bidID, err := s.engine.PlaceBid(bidder, id, req.Price)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bid_id": bidID})
}

func (s *Server) handleClaim(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req callerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller, ok := parseAddr(c, req.Caller)
	if !ok {
		return
	}
	if err := s.engine.ClaimNft(caller, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claimed": id})
}

func (s *Server) handleSellerListings(c *gin.Context) {
	addr, ok := parseAddr(c, c.Param("addr"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": s.engine.ListingsOf(addr)})
}

func (s *Server) handleEscrowBalance(c *gin.Context) {
	addr, ok := parseAddr(c, c.Param("addr"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"addr": addr, "balance": s.engine.EscrowBalanceOf(addr)})
}

func (s *Server) handleWithdraw(c *gin.Context) {
	var req callerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller, ok := parseAddr(c, req.Caller)
	if !ok {
		return
	}
	amount, err := s.engine.Withdraw(caller)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawn": amount})
}

func (s *Server) handleStats(c *gin.Context) {
	resp := gin.H{
		"total_burned":  s.engine.TotalBurnAmount(),
		"total_revenue": s.engine.RevenueAmount(),
		"fees":          s.engine.Fees(),
	}
	if s.stats != nil {
		resp["market"] = s.stats.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

type setFeesRequest struct {
	Caller            string  `json:"caller" binding:"required"`
	MarketplaceFeeBps *uint64 `json:"marketplace_fee_bps"`
	RoyaltyFeeBps     *uint64 `json:"royalty_fee_bps"`
}

func (s *Server) handleSetFees(c *gin.Context) {
	var req setFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller, ok := parseAddr(c, req.Caller)
	if !ok {
		return
	}
	if req.MarketplaceFeeBps != nil {
		if err := s.engine.SetMarketplaceFeeRate(caller, *req.MarketplaceFeeBps); err != nil {
			fail(c, err)
			return
		}
	}
	if req.RoyaltyFeeBps != nil {
		if err := s.engine.SetRoyaltyFeeRate(caller, *req.RoyaltyFeeBps); err != nil {
			fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"fees": s.engine.Fees()})
}

type setWhitelistRequest struct {
	Caller   string `json:"caller" binding:"required"`
	Contract string `json:"contract" binding:"required"`
	Allowed  bool   `json:"allowed"`
}

func (s *Server) handleSetWhitelist(c *gin.Context) {
	var req setWhitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller, ok := parseAddr(c, req.Caller)
	if !ok {
		return
	}
	contract, ok := parseAddr(c, req.Contract)
	if !ok {
		return
	}
	if err := s.engine.SetAssetWhitelist(caller, contract, req.Allowed); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract, "allowed": req.Allowed})
}
