// Package metrics exposes Prometheus instruments for source lookups, barcode
// resolution, pairing transitions and rate-limit rejections.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup outcomes
const (
	OutcomeFound       = "found"
	OutcomeEmpty       = "empty"
	OutcomeUnavailable = "unavailable"
)

// Metrics groups every instrument. A nil *Metrics records nothing.
type Metrics struct {
	SourceLookups       *prometheus.CounterVec
	SourceLookupSeconds *prometheus.HistogramVec
	BarcodeResolutions  *prometheus.CounterVec
	PairingTransitions  *prometheus.CounterVec
	RateLimitRejections *prometheus.CounterVec
}

// New registers the instruments on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SourceLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "macrolens_source_lookups_total",
			Help: "External source lookups by source and outcome",
		}, []string{"source", "outcome"}),
		SourceLookupSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "macrolens_source_lookup_duration_seconds",
			Help:    "Latency of external source lookups",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"source"}),
		BarcodeResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "macrolens_barcode_resolutions_total",
			Help: "Barcode resolutions by winning source, or not_found",
		}, []string{"result"}),
		PairingTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "macrolens_pairing_transitions_total",
			Help: "Device pairing state transitions",
		}, []string{"transition"}),
		RateLimitRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "macrolens_ratelimit_rejections_total",
			Help: "Requests rejected by a rate limiter, by scope",
		}, []string{"scope"}),
	}
}

// ObserveLookup records one source call
func (m *Metrics) ObserveLookup(source, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SourceLookups.WithLabelValues(source, outcome).Inc()
	m.SourceLookupSeconds.WithLabelValues(source).Observe(elapsed.Seconds())
}

func (m *Metrics) IncBarcodeResolution(result string) {
	if m == nil {
		return
	}
	m.BarcodeResolutions.WithLabelValues(result).Inc()
}

func (m *Metrics) IncPairingTransition(transition string) {
	if m == nil {
		return
	}
	m.PairingTransitions.WithLabelValues(transition).Inc()
}

func (m *Metrics) IncRateLimitRejection(scope string) {
	if m == nil {
		return
	}
	m.RateLimitRejections.WithLabelValues(scope).Inc()
}
