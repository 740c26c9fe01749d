// Package metrics defines the storefront's business metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cart operation labels.
const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpUpdate = "update_quantity"
	OpClear  = "clear"
)

// Checkout result labels.
const (
	ResultSuccess   = "success"
	ResultEmptyCart = "empty_cart"
	ResultConflict  = "conflict"
	ResultError     = "error"
)

var (
	CartOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_operations_total",
			Help: "Cart mutations by operation",
		},
		[]string{"op"},
	)

	CheckoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkouts_total",
			Help: "Checkout attempts by result",
		},
		[]string{"result"},
	)

	CheckoutAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_checkout_amount",
			Help:    "Order total of successful checkouts in whole currency units",
			Buckets: prometheus.ExponentialBuckets(500, 2, 10),
		},
	)
)

// ObserveCartOperation counts a successful cart mutation.
func ObserveCartOperation(op string) {
	CartOperationsTotal.WithLabelValues(op).Inc()
}

// ObserveCheckout records a checkout attempt. amount is only recorded for
// successful checkouts.
func ObserveCheckout(result string, amount int64) {
	CheckoutsTotal.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		CheckoutAmount.Observe(float64(amount))
	}
}
