package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Payment protocol metrics
	paymentInitiationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_initiations_total",
		Help: "Total number of payment initiation attempts",
	}, []string{
		"product_id", // Which plan was being purchased
		"outcome",    // initiated, invalid_request, error
	})

	paymentVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Total number of payment verification attempts",
	}, []string{
		"outcome", // verified, not_verified, or the failure category
	})

	// Signature mismatches and decode failures are security-relevant;
	// a spike here means someone is probing the verify endpoint.
	receiptFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "receipt_failures_total",
		Help: "Total number of rejected payment receipts by failure category",
	}, []string{
		"category", // decode_error, signature_mismatch, etc.
	})

	statusCheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "esewa_status_check_duration_seconds",
		Help: "Duration of eSewa transaction status-check calls",
		// Buckets: 50ms to 10s (the gateway can be slow)
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	planUpgradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_upgrades_total",
		Help: "Total number of plan upgrade calls to the account service",
	}, []string{
		"status", // success, failed
	})
)

// RecordInitiation records one payment initiation attempt
func RecordInitiation(productID, outcome string) {
	paymentInitiationsTotal.WithLabelValues(productID, outcome).Inc()
}

// RecordVerification records one verification attempt outcome
func RecordVerification(outcome string) {
	paymentVerificationsTotal.WithLabelValues(outcome).Inc()
}

// RecordReceiptFailure records a rejected receipt by failure category
func RecordReceiptFailure(category string) {
	receiptFailuresTotal.WithLabelValues(category).Inc()
}

// ObserveStatusCheckDuration records the latency of one status-check call
func ObserveStatusCheckDuration(d time.Duration) {
	statusCheckDuration.Observe(d.Seconds())
}

// RecordPlanUpgrade records the outcome of one upgrade call
func RecordPlanUpgrade(success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	planUpgradesTotal.WithLabelValues(status).Inc()
}
