// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain metrics
var (
	CodesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codescan_codes_generated_total",
			Help: "Codes rendered, by format and outcome",
		},
		[]string{"format", "outcome"},
	)

	CodesScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codescan_codes_scanned_total",
			Help: "Scan results accepted by a session, by format",
		},
		[]string{"format"},
	)

	FramesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codescan_frames_total",
			Help: "Camera frames by outcome (decoded, miss, dropped)",
		},
		[]string{"outcome"},
	)

	HistoryWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codescan_history_writes_total",
			Help: "History mutations by operation, record type and outcome",
		},
		[]string{"op", "record_type", "outcome"},
	)

	ActiveScanSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codescan_scan_sessions_active",
		Help: "Open scan sessions",
	})

	ImageCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codescan_image_cache_hits_total",
		Help: "Rendered image cache hits",
	})
	ImageCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codescan_image_cache_misses_total",
		Help: "Rendered image cache misses",
	})
)

// Outcome returns the outcome label for err
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
