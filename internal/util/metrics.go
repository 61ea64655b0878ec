package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InboundMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inbound_messages_total",
		Help: "Total number of inbound customer messages by type",
	}, []string{"type"})

	DuplicateMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inbound_duplicate_messages_total",
		Help: "Total number of redelivered messages skipped",
	})

	StateTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conversation_transitions_total",
		Help: "Total number of conversation state transitions",
	}, []string{"from", "to"})

	ProductMatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "product_matches_total",
		Help: "Total number of free-text product lookups by result",
	}, []string{"result"})

	OrdersFinalizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_finalized_total",
		Help: "Total number of orders finalized by payment method",
	}, []string{"payment"})

	OrdersArchiveFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_archive_failed_total",
		Help: "Total number of finalized orders that failed to archive",
	})

	DispatchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_dispatch_failures_total",
		Help: "Total number of outbound messages that failed to send",
	}, []string{"kind"})

	AnswerLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "answer_generation_latency_seconds",
		Help:    "Latency of answer generation calls",
		Buckets: prometheus.DefBuckets,
	})

	AnswerFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "answer_generation_failures_total",
		Help: "Total number of failed answer generation calls",
	})

	SessionStoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_store_errors_total",
		Help: "Total number of session store failures",
	}, []string{"op"})

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
