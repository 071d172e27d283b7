package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_sales_recorded_total",
		Help: "Total number of sale transactions recorded",
	})

	PaymentsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_payments_recorded_total",
		Help: "Total number of payment transactions recorded",
	})

	TransactionsDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_deleted_total",
		Help: "Total number of transactions deleted and reversed",
	}, []string{"type"})

	LedgerOperationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_failed_total",
		Help: "Total number of failed ledger operations",
	}, []string{"operation", "reason"})

	LedgerTxRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_tx_retries_total",
		Help: "Total number of ledger transaction retries after serialization conflicts",
	})

	LedgerTxLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_tx_latency_seconds",
		Help:    "Latency of atomic ledger transactions including retries",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	LowStockAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_low_stock_alerts_total",
		Help: "Total number of low stock alerts emitted after sales",
	})

	StatsCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stats_cache_hits_total",
		Help: "Stats cache lookups by outcome",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
