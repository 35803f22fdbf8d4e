package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "merchant_signups_total",
		Help: "Total number of merchant sign ups",
	})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "merchant_logins_total",
		Help: "Total number of login attempts",
	}, []string{"outcome"})

	ShopsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shops_created_total",
		Help: "Total number of shops created",
	})

	ConnectionRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_requests_total",
		Help: "Connection workflow transitions by outcome",
	}, []string{"outcome"})

	CartAdditionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_additions_total",
		Help: "Total number of add-to-cart operations",
	})

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	OrderValue = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_value",
		Help:    "Total price of placed orders",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	CategoryCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "category_cache_requests_total",
		Help: "Category cache lookups by result",
	}, []string{"result"})

	ActivityEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "activity_events_total",
		Help: "Domain events consumed by the activity worker",
	}, []string{"type", "result"})

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
