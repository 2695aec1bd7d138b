package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	floodMutesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "overseer_flood_mutes_total",
			Help: "Total number of users muted for flooding",
		},
	)

	blacklistDeletionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "overseer_blacklist_deletions_total",
			Help: "Total number of messages deleted for blacklisted words",
		},
	)

	warningsIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "overseer_warnings_issued_total",
			Help: "Total number of warnings issued",
		},
	)

	autoBansTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "overseer_auto_bans_total",
			Help: "Total number of bans triggered by warning escalation",
		},
	)

	messageProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "overseer_message_processing_duration_seconds",
			Help:    "Time spent processing inbound messages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)

func Init(addr string) {
	prometheus.MustRegister(
		floodMutesTotal,
		blacklistDeletionsTotal,
		warningsIssuedTotal,
		autoBansTotal,
		messageProcessingDuration,
	)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.WithError(err).Error("metrics server failed")
		}
	}()
}

func RecordFloodMute()         { floodMutesTotal.Inc() }
func RecordBlacklistDeletion() { blacklistDeletionsTotal.Inc() }
func RecordWarning()           { warningsIssuedTotal.Inc() }
func RecordAutoBan()           { autoBansTotal.Inc() }

// ObserveProcessing times one message pass, finish with the outcome label.
func ObserveProcessing() func(status string) {
	start := time.Now()
	return func(status string) {
		messageProcessingDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}
}
