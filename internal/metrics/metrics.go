package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "alerts_scan_duration_seconds",
			Help:    "Duration of each full scan pass in seconds.",
			Buckets: []float64{1, 5, 15, 60, 300, 900},
		},
	)
	ScanStepDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "alerts_scan_step_duration_seconds",
			Help:       "Duration of each step in processing a saved search.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step"},
	)
	MatchedListingsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_listings_matched_total",
			Help: "Total number of listings that matched a saved search.",
		},
	)
	EmittedNotificationsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_notifications_emitted_total",
			Help: "Total number of notifications emitted.",
		},
	)
	DedupSkippedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_dedup_skipped_total",
			Help: "Total number of matches skipped because the ledger already had the pair.",
		},
	)
	LedgerWriteFailuresCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_ledger_write_failures_total",
			Help: "Total number of ledger writes that failed after a successful emission.",
		},
	)
)

func StartMetricsServer() {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(ScanDuration)
	prometheus.MustRegister(ScanStepDuration)
	prometheus.MustRegister(MatchedListingsCounter)
	prometheus.MustRegister(EmittedNotificationsCounter)
	prometheus.MustRegister(DedupSkippedCounter)
	prometheus.MustRegister(LedgerWriteFailuresCounter)

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(":8080", nil))
	}()
}
