// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus instruments.
type Metrics struct {
	ListingsCreated prometheus.Counter
	ListingsRemoved prometheus.Counter
	BidsPlaced      prometheus.Counter
	Sales           prometheus.Counter
	Withdrawals     prometheus.Counter

	// Burned and Revenue mirror the engine's accumulators in payment
	// units.
	Burned  prometheus.Counter
	Revenue prometheus.Counter
}

// New creates the metrics and registers them on reg. Pass
// prometheus.DefaultRegisterer for the default registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ListingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sam", Name: "listings_created_total",
			Help: "Total number of listings created",
		}),
		ListingsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sam", Name: "listings_removed_total",
			Help: "Total number of listings removed by their seller",
		}),
		BidsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sam", Name: "bids_placed_total",
			Help: "Total number of accepted bids",
		}),
		Sales: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sam", Name: "sales_total",
			Help: "Total number of settled sales",
		}),
		Withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sam", Name: "escrow_withdrawals_total",
			Help: "Total number of non-empty escrow withdrawals",
		}),
		Burned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sam", Name: "burned_units_total",
			Help: "Cumulative payment units routed to the burn sink",
		}),
		Revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sam", Name: "revenue_units_total",
			Help: "Cumulative payment units routed to the revenue pool",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ListingsCreated,
			m.ListingsRemoved,
			m.BidsPlaced,
			m.Sales,
			m.Withdrawals,
			m.Burned,
			m.Revenue,
		)
	}
	return m
}
