package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics is safe to use as a nil pointer; every method becomes a no-op.
type Metrics struct {
	httpDuration *prometheus.HistogramVec
	cartOps      *prometheus.CounterVec
	orders       prometheus.Counter
	revenue      prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "restaurant",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		cartOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restaurant",
			Name:      "cart_operations_total",
			Help:      "Cart mutations by operation.",
		}, []string{"op"}),
		orders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "restaurant",
			Name:      "orders_total",
			Help:      "Orders placed.",
		}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "restaurant",
			Name:      "order_revenue_total",
			Help:      "Sum of order totals.",
		}),
	}
	reg.MustRegister(m.httpDuration, m.cartOps, m.orders, m.revenue)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) CartOperation(op string) {
	if m == nil {
		return
	}
	m.cartOps.WithLabelValues(op).Inc()
}

func (m *Metrics) OrderPlaced(total decimal.Decimal) {
	if m == nil {
		return
	}
	m.orders.Inc()
	m.revenue.Add(total.InexactFloat64())
}
