// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/samlabs/sam/pkg/market"
)

// Config is the full daemon configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
	Market MarketConfig `toml:"market"`
	Store  StoreConfig  `toml:"store"`
}

type ServerConfig struct {
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors_origins"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type MarketConfig struct {
	// Admin is the only principal allowed to change fees and the
	// whitelist.
	Admin string `toml:"admin"`

	// Custody is the engine's account on the value ledger.
	Custody string `toml:"custody"`

	BurnSink    string `toml:"burn_sink"`
	RevenuePool string `toml:"revenue_pool"`

	MarketplaceFeeBps uint64 `toml:"marketplace_fee_bps"`
	RoyaltyFeeBps     uint64 `toml:"royalty_fee_bps"`

	// Whitelist is the set of asset contracts accepted for listing at
	// startup.
	Whitelist []string `toml:"whitelist"`
}

type StoreConfig struct {
	Backend string `toml:"backend"` // "memory" or "badger"
	Path    string `toml:"path"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Log: LogConfig{Level: "info"},
		Market: MarketConfig{
			MarketplaceFeeBps: market.DefaultMarketplaceFeeBps,
			RoyaltyFeeBps:     0,
		},
		Store: StoreConfig{
			Backend: "memory",
			Path:    "data/sam",
		},
	}
}

// Validate checks addresses and rate caps. Called after Load.
func (c *Config) Validate() error {
	for name, addr := range map[string]string{
		"market.admin":        c.Market.Admin,
		"market.custody":      c.Market.Custody,
		"market.burn_sink":    c.Market.BurnSink,
		"market.revenue_pool": c.Market.RevenuePool,
	} {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("config: %s is not a valid address: %q", name, addr)
		}
	}
	for _, w := range c.Market.Whitelist {
		if !common.IsHexAddress(w) {
			return fmt.Errorf("config: whitelist entry is not a valid address: %q", w)
		}
	}
	if c.Market.MarketplaceFeeBps > market.BpsDenominator {
		return fmt.Errorf("config: marketplace_fee_bps above %d", market.BpsDenominator)
	}
	if c.Market.RoyaltyFeeBps > market.BpsDenominator {
		return fmt.Errorf("config: royalty_fee_bps above %d", market.BpsDenominator)
	}
	if c.Store.Backend != "memory" && c.Store.Backend != "badger" {
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	return nil
}
