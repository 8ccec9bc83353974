package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesSent counts delivery attempts per channel ("email", "whatsapp") and status
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dsa_messages_sent_total",
		Help: "Reminder messages by channel and delivery status.",
	}, []string{"channel", "status"})

	// StatsSyncs counts LeetCode synchronisations by result
	StatsSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dsa_stats_sync_total",
		Help: "LeetCode statistics synchronisations by result.",
	}, []string{"result"})

	// CronRuns counts scheduler invocations by outcome
	CronRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dsa_cron_runs_total",
		Help: "Notification batch runs by outcome.",
	}, []string{"outcome"})

	// CronDuration observes how long completed batch runs take
	CronDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dsa_cron_run_duration_seconds",
		Help:    "Duration of notification batch runs that processed users.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)

// ObserveSend records one delivery attempt
func ObserveSend(channel string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	MessagesSent.WithLabelValues(channel, status).Inc()
}
