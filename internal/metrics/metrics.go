package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ipnexus"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration, simulated ledger latency included",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 1.5, 2.5, 5},
	}, []string{"method", "route"})

	// Registry
	AssetsMinted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "registry",
		Name:      "assets_minted_total",
		Help:      "Total assets created through tokenization",
	})

	// Listing book
	ListingPurchases = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "listings",
		Name:      "purchases_total",
		Help:      "Listing purchases by outcome reason",
	}, []string{"reason"})

	ListingsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "listings",
		Name:      "expired_total",
		Help:      "Listings moved to expired by the sweeper",
	})

	// Contract facade
	ContractCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "contract",
		Name:      "calls_total",
		Help:      "Contract facade calls by operation and outcome",
	}, []string{"operation", "outcome"})

	RoyaltyPaid = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "contract",
		Name:      "royalty_paid_total",
		Help:      "Sum of simulated royalty payments",
	})
)

// ObserveContractCall records one facade call.
func ObserveContractCall(operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	ContractCalls.WithLabelValues(operation, outcome).Inc()
}
