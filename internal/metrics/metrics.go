// Package metrics holds the Prometheus collectors for transaction flow and
// stock handling. They register on the default registry and are served at
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransactionsCreated counts accepted transactions by type (borrow, buy).
	TransactionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookstore_transactions_created_total",
			Help: "Total number of transactions created",
		},
		[]string{"type"},
	)

	// StatusTransitions counts applied status changes.
	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookstore_status_transitions_total",
			Help: "Total number of transaction status transitions",
		},
		[]string{"from", "to"},
	)

	// StockRejections counts transactions refused for lack of stock.
	StockRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookstore_stock_rejections_total",
			Help: "Transactions rejected because a book had insufficient stock",
		},
	)

	// StockRestored counts copies put back on the shelf by returns and cancels.
	StockRestored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookstore_stock_restored_total",
			Help: "Copies restored to stock",
		},
		[]string{"reason"},
	)
)

func RecordCreated(txType string) { TransactionsCreated.WithLabelValues(txType).Inc() }

func RecordTransition(from, to string) { StatusTransitions.WithLabelValues(from, to).Inc() }

func RecordStockRejection() { StockRejections.Inc() }

func RecordRestored(reason string, copies int) {
	if copies > 0 {
		StockRestored.WithLabelValues(reason).Add(float64(copies))
	}
}
