package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the app.
type Metrics struct {
	APIRequests       *prometheus.CounterVec
	APILatency        *prometheus.HistogramVec
	OTPSends          *prometheus.CounterVec
	WizardTransitions *prometheus.CounterVec
	StatusToggles     *prometheus.CounterVec
	Uploads           *prometheus.CounterVec
	Errors            *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total astrologer backend requests by endpoint and status.",
			}, []string{"endpoint", "status"}),
			APILatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "Latency distribution for astrologer backend requests.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"endpoint", "status"}),
			OTPSends: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "otp_sends_total",
				Help:      "Total OTP send attempts by outcome.",
			}, []string{"outcome"}),
			WizardTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wizard_transitions_total",
				Help:      "Total onboarding wizard transitions by source and target state.",
			}, []string{"from", "to"}),
			StatusToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "status_toggles_total",
				Help:      "Total chat/call availability toggles by kind and outcome.",
			}, []string{"kind", "outcome"}),
			Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Total document uploads by mime type and outcome.",
			}, []string{"mime_type", "outcome"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.APIRequests,
			metricsInstance.APILatency,
			metricsInstance.OTPSends,
			metricsInstance.WizardTransitions,
			metricsInstance.StatusToggles,
			metricsInstance.Uploads,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}
