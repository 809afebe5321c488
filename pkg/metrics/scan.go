package metrics

import "github.com/prometheus/client_golang/prometheus"

// ScanMetrics counts scan resolution outcomes.
type ScanMetrics struct {
	outcomes *prometheus.CounterVec
}

// NewScanMetrics registers the scan metrics on the provided registerer.
func NewScanMetrics(reg prometheus.Registerer) *ScanMetrics {
	if reg == nil {
		return &ScanMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pickup_scans_total",
		Help: "Pickup QR scan attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(outcomes)
	return &ScanMetrics{outcomes: outcomes}
}

// IncOutcome increments the counter for the named scan outcome.
func (s *ScanMetrics) IncOutcome(outcome string) {
	if s == nil || s.outcomes == nil {
		return
	}
	s.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}
