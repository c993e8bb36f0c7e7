package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SessionsStartedTotal counts shopping sessions opened.
	SessionsStartedTotal prometheus.Counter
	// SessionResetsTotal counts sessions discarded by the customer.
	SessionResetsTotal prometheus.Counter
	// CartItemsAddedTotal counts line items added by catalog key.
	CartItemsAddedTotal *prometheus.CounterVec
	// CartItemsRemovedTotal counts line items removed by catalog key.
	CartItemsRemovedTotal *prometheus.CounterVec
	// CartRejectionsTotal counts rejected cart operations by operation and error kind.
	CartRejectionsTotal *prometheus.CounterVec
	// InvoicesGeneratedTotal counts finalized invoices.
	InvoicesGeneratedTotal prometheus.Counter
	// InvoiceGrandTotal records the tax-inclusive amount of each invoice.
	InvoiceGrandTotal prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers checkout collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SessionsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Number of shopping sessions started.",
		})
		SessionResetsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_resets_total",
			Help:      "Number of shopping sessions reset.",
		})
		CartItemsAddedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_items_added_total",
			Help:      "Line items added to carts.",
		}, []string{"item"})
		CartItemsRemovedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_items_removed_total",
			Help:      "Line items removed from carts.",
		}, []string{"item"})
		CartRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_rejections_total",
			Help:      "Cart operations rejected by validation or state.",
		}, []string{"operation", "kind"})
		InvoicesGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_generated_total",
			Help:      "Number of invoices generated.",
		})
		InvoiceGrandTotal = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invoice_grand_total",
			Help:      "Distribution of invoice grand totals in major currency units.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		})

		mustRegisterCollector(reg, SessionsStartedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				SessionsStartedTotal = v
			}
		})
		mustRegisterCollector(reg, SessionResetsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				SessionResetsTotal = v
			}
		})
		mustRegisterCollector(reg, CartItemsAddedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartItemsAddedTotal = v
			}
		})
		mustRegisterCollector(reg, CartItemsRemovedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartItemsRemovedTotal = v
			}
		})
		mustRegisterCollector(reg, CartRejectionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartRejectionsTotal = v
			}
		})
		mustRegisterCollector(reg, InvoicesGeneratedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				InvoicesGeneratedTotal = v
			}
		})
		mustRegisterCollector(reg, InvoiceGrandTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				InvoiceGrandTotal = v
			}
		})
	})
}

// RecordSessionStarted increments the session counter when registered.
func RecordSessionStarted() {
	if SessionsStartedTotal != nil {
		SessionsStartedTotal.Inc()
	}
}

// RecordSessionReset increments the reset counter when registered.
func RecordSessionReset() {
	if SessionResetsTotal != nil {
		SessionResetsTotal.Inc()
	}
}

// RecordItemAdded counts an added line for the catalog key.
func RecordItemAdded(item string) {
	if CartItemsAddedTotal != nil {
		CartItemsAddedTotal.WithLabelValues(item).Inc()
	}
}

// RecordItemRemoved counts a removed line for the catalog key.
func RecordItemRemoved(item string) {
	if CartItemsRemovedTotal != nil {
		CartItemsRemovedTotal.WithLabelValues(item).Inc()
	}
}

// RecordRejection counts a rejected cart operation.
func RecordRejection(operation, kind string) {
	if CartRejectionsTotal != nil {
		CartRejectionsTotal.WithLabelValues(operation, kind).Inc()
	}
}

// RecordInvoice counts a generated invoice and observes its grand total.
func RecordInvoice(grandTotal float64) {
	if InvoicesGeneratedTotal != nil {
		InvoicesGeneratedTotal.Inc()
	}
	if InvoiceGrandTotal != nil {
		InvoiceGrandTotal.Observe(grandTotal)
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
