package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finnlo",
			Name:      "pages_processed_total",
			Help:      "Pages handled by the extraction stage by result (rendered, skipped, failed)",
		},
		[]string{"result"},
	)

	renderLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "finnlo",
			Name:      "page_render_duration_seconds",
			Help:      "Duration of single page renders including PNG encoding",
			Buckets:   prometheus.DefBuckets,
		},
	)

	stripsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "finnlo",
			Name:      "strips_written_total",
			Help:      "Total cropped strips written",
		},
	)

	cropSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finnlo",
			Name:      "crop_skips_total",
			Help:      "Crop pages skipped by reason (missing, failed)",
		},
		[]string{"reason"},
	)

	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finnlo",
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(pagesProcessed, renderLatency, stripsWritten, cropSkips, stageDuration)
}

// Handler returns the http.Handler for /metrics.
func Handler() http.Handler { return promhttp.Handler() }

func ObservePage(result string)       { pagesProcessed.WithLabelValues(result).Inc() }
func ObserveRender(dur time.Duration) { renderLatency.Observe(dur.Seconds()) }
func IncStrip()                       { stripsWritten.Inc() }
func IncCropSkip(reason string)       { cropSkips.WithLabelValues(reason).Inc() }

func ObserveStage(stage string, dur time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(dur.Seconds())
}
