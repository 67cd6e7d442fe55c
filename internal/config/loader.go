// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads the TOML file at path (optional: an empty path skips the
// file), merges it over the defaults, applies SAM_* environment
// overrides, and returns the result. Call Validate before use.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// .env is optional; ignore a missing file.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Server.Addr, "SAM_SERVER_ADDR")
	setStrList(&cfg.Server.CORSOrigins, "SAM_SERVER_CORS_ORIGINS")

	setStr(&cfg.Log.Level, "SAM_LOG_LEVEL")

	setStr(&cfg.Market.Admin, "SAM_MARKET_ADMIN")
	setStr(&cfg.Market.Custody, "SAM_MARKET_CUSTODY")
	setStr(&cfg.Market.BurnSink, "SAM_MARKET_BURN_SINK")
	setStr(&cfg.Market.RevenuePool, "SAM_MARKET_REVENUE_POOL")
	setUint(&cfg.Market.MarketplaceFeeBps, "SAM_MARKET_FEE_BPS")
	setUint(&cfg.Market.RoyaltyFeeBps, "SAM_MARKET_ROYALTY_FEE_BPS")
	setStrList(&cfg.Market.Whitelist, "SAM_MARKET_WHITELIST")

	setStr(&cfg.Store.Backend, "SAM_STORE_BACKEND")
	setStr(&cfg.Store.Path, "SAM_STORE_PATH")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setStrList(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}

func setUint(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
