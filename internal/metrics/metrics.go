// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Logins counts login attempts by outcome and method (token, wallet).
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitchside_logins_total",
		Help: "Login attempts by method and outcome.",
	}, []string{"method", "outcome"})

	// WalletCreations counts provider wallet creation attempts by outcome.
	WalletCreations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitchside_wallet_creations_total",
		Help: "Embedded wallet creation attempts by outcome.",
	}, []string{"outcome"})

	// WalletResolutions counts resolution passes by result
	// (linked, embedded, none, invalid_address).
	WalletResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitchside_wallet_resolutions_total",
		Help: "Wallet identity resolution passes by result.",
	}, []string{"result"})

	// TxSubmissions counts transaction submissions by final status.
	TxSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitchside_tx_submissions_total",
		Help: "Transaction submissions by final status.",
	}, []string{"status"})

	// SportsUpstreamDuration observes sports API round-trip latency.
	SportsUpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pitchside_sports_upstream_duration_seconds",
		Help:    "Sports-data upstream request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "outcome"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
