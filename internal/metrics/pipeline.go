package metrics

import (
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runLabelSanitizer = regexp.MustCompile(`[^a-z0-9_]+`)

	runFinalizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forge",
			Subsystem: "pipeline",
			Name:      "run_finalizations_total",
			Help:      "Total number of generation runs by final status, failed stage, and reason",
		},
		[]string{"status", "stage", "reason"},
	)

	partialMaterializationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forge",
			Subsystem: "pipeline",
			Name:      "partial_materializations_total",
			Help:      "Total number of successful runs where at least one file failed to write",
		},
		[]string{"provider"},
	)
)

// RecordRunFinalization records how a generation run ended
func RecordRunFinalization(status, stage, reason string) {
	runFinalizationsTotal.WithLabelValues(
		sanitizeRunLabel(status, "unknown"),
		sanitizeRunLabel(stage, "none"),
		sanitizeRunLabel(reason, "none"),
	).Inc()
}

// RecordPartialMaterialization records a run that kept going past file write failures
func RecordPartialMaterialization(provider string) {
	partialMaterializationsTotal.WithLabelValues(sanitizeRunLabel(provider, "unknown")).Inc()
}

func sanitizeRunLabel(raw, fallback string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return fallback
	}
	s = runLabelSanitizer.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return fallback
	}
	if len(s) > 63 {
		s = s[:63]
	}
	return s
}
