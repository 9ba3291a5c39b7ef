// Package metrics объявляет метрики Prometheus сервиса заметок.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nlnotes"

var (
	// HTTPRequestsTotal считает HTTP-запросы.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration измеряет длительность HTTP-запросов.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// ResolverActionsTotal считает вызовы резолвера по действию и исходу.
	ResolverActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_actions_total",
			Help:      "Total number of resolved note actions",
		},
		[]string{"action", "outcome"},
	)

	// ParserRequestsTotal считает обращения к языковой модели.
	ParserRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parser_requests_total",
			Help:      "Total number of intent parse requests by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// ParserDuration измеряет длительность запроса к модели.
	ParserDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parser_duration_seconds",
			Help:      "Duration of language model calls",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
)

// ObserveHTTP фиксирует завершенный HTTP-запрос.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveResolverAction фиксирует исход действия резолвера.
func ObserveResolverAction(action, outcome string) {
	ResolverActionsTotal.WithLabelValues(action, outcome).Inc()
}

// ObserveParser фиксирует исход разбора запроса.
func ObserveParser(source, outcome string) {
	ParserRequestsTotal.WithLabelValues(source, outcome).Inc()
}
