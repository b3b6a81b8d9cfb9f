package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clinic_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	appointmentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_appointment_transitions_total",
		Help: "Appointment lifecycle transitions by action and result",
	}, []string{"action", "result"})

	slotConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_slot_conflicts_total",
		Help: "Rejected bookings by the layer that detected the conflict",
	}, []string{"layer"})

	checkoutDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clinic_checkout_duration_seconds",
		Help:    "Duration of checkout transactions",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	checkoutAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_checkout_amount_total",
		Help: "Billed and collected amounts recorded at checkout",
	}, []string{"kind"})

	complianceFlags = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_compliance_flags_total",
		Help: "Compliance flags raised on newly created audit records",
	}, []string{"flag"})

	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_job_runs_total",
		Help: "Background job runs by job and result",
	}, []string{"job", "result"})

	remindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_reminders_total",
		Help: "Appointment reminders by delivery channel and result",
	}, []string{"channel", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveTransition counts one lifecycle action attempt.
func ObserveTransition(action, result string) {
	appointmentTransitions.WithLabelValues(action, result).Inc()
}

// ObserveSlotConflict counts a booking rejected by lock, query or index.
func ObserveSlotConflict(layer string) {
	slotConflicts.WithLabelValues(layer).Inc()
}

// ObserveCheckout records the duration of a checkout with a result label.
func ObserveCheckout(result string, duration time.Duration) {
	checkoutDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// AddCheckoutAmounts adds billed and collected totals.
func AddCheckoutAmounts(billed, collected float64) {
	checkoutAmount.WithLabelValues("billed").Add(billed)
	checkoutAmount.WithLabelValues("collected").Add(collected)
}

// ObserveComplianceFlag counts a raised flag.
func ObserveComplianceFlag(flag string) {
	complianceFlags.WithLabelValues(flag).Inc()
}

// ObserveJob counts a background job run.
func ObserveJob(job, result string) {
	jobRuns.WithLabelValues(job, result).Inc()
}

// ObserveReminder counts one reminder attempt.
func ObserveReminder(channel, result string) {
	remindersSent.WithLabelValues(channel, result).Inc()
}
