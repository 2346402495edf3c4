package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingBreakdownsTotal counts breakdowns served, labelled by source and tax direction.
	PricingBreakdownsTotal *prometheus.CounterVec
	// PricingMatrixBuildsTotal counts pricing matrices built, labelled by builder kind.
	PricingMatrixBuildsTotal *prometheus.CounterVec
	// OrderTypeFallbackTotal counts unrecognised order type labels read as dining.
	OrderTypeFallbackTotal *prometheus.CounterVec
	// SalesTransactionsTotal counts recorded transactions by order type.
	SalesTransactionsTotal *prometheus.CounterVec
	// SalesAmountTotal sums recorded transaction amounts by order type and component.
	SalesAmountTotal *prometheus.CounterVec
	// MenuRepriceTotal counts branch repricing runs by outcome.
	MenuRepriceTotal *prometheus.CounterVec
	// MenuRepriceDuration records branch repricing latency in milliseconds.
	MenuRepriceDuration prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricingBreakdownsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_breakdowns_total",
			Help:      "Count of price breakdowns computed or looked up.",
		}, []string{"source", "mode"})
		PricingMatrixBuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_matrix_builds_total",
			Help:      "Count of pricing matrices built.",
		}, []string{"kind"})
		OrderTypeFallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_type_fallback_total",
			Help:      "Count of unrecognised order type labels that fell back to dining.",
		}, []string{"path"})
		SalesTransactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_transactions_total",
			Help:      "Count of recorded sales transactions.",
		}, []string{"order_type"})
		SalesAmountTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_amount_total",
			Help:      "Sum of recorded sales amounts by component.",
		}, []string{"order_type", "component"})
		MenuRepriceTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_reprice_total",
			Help:      "Count of branch menu repricing runs by outcome.",
		}, []string{"result"})
		MenuRepriceDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "menu_reprice_duration_ms",
			Help:      "Latency of branch menu repricing runs in milliseconds.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 5000, 15000},
		})

		mustRegisterCollector(reg, PricingBreakdownsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PricingBreakdownsTotal = v
			}
		})
		mustRegisterCollector(reg, PricingMatrixBuildsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PricingMatrixBuildsTotal = v
			}
		})
		mustRegisterCollector(reg, OrderTypeFallbackTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderTypeFallbackTotal = v
			}
		})
		mustRegisterCollector(reg, SalesTransactionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SalesTransactionsTotal = v
			}
		})
		mustRegisterCollector(reg, SalesAmountTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SalesAmountTotal = v
			}
		})
		mustRegisterCollector(reg, MenuRepriceTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				MenuRepriceTotal = v
			}
		})
		mustRegisterCollector(reg, MenuRepriceDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				MenuRepriceDuration = v
			}
		})
	})
}

// CountBreakdown records a served breakdown. Safe to call before registration.
func CountBreakdown(source string, includesTax bool) {
	if PricingBreakdownsTotal == nil {
		return
	}
	mode := "exclusive"
	if includesTax {
		mode = "inclusive"
	}
	PricingBreakdownsTotal.WithLabelValues(source, mode).Inc()
}

// CountMatrixBuild records a built matrix. Safe to call before registration.
func CountMatrixBuild(kind string) {
	if PricingMatrixBuildsTotal == nil {
		return
	}
	PricingMatrixBuildsTotal.WithLabelValues(kind).Inc()
}

// CountOrderTypeFallback records an unrecognised order type label on a read path.
func CountOrderTypeFallback(path string) {
	if OrderTypeFallbackTotal == nil {
		return
	}
	OrderTypeFallbackTotal.WithLabelValues(path).Inc()
}

// ObserveSale records a transaction and its amounts.
func ObserveSale(orderType string, base, gst, final float64) {
	if SalesTransactionsTotal == nil || SalesAmountTotal == nil {
		return
	}
	SalesTransactionsTotal.WithLabelValues(orderType).Inc()
	SalesAmountTotal.WithLabelValues(orderType, "base").Add(base)
	SalesAmountTotal.WithLabelValues(orderType, "gst").Add(gst)
	SalesAmountTotal.WithLabelValues(orderType, "final").Add(final)
}

// ObserveReprice records one repricing run.
func ObserveReprice(result string, millis float64) {
	if MenuRepriceTotal == nil {
		return
	}
	MenuRepriceTotal.WithLabelValues(result).Inc()
	if MenuRepriceDuration != nil {
		MenuRepriceDuration.Observe(millis)
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
