package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sanction engine metrics
var (
	SanctionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moderator_sanctions_total",
		Help: "Total number of sanction operations that succeeded",
	}, []string{"action"})

	SanctionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moderator_sanction_errors_total",
		Help: "Total number of sanction operations that failed",
	}, []string{"action", "kind"})

	EscalationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moderator_warning_escalations_total",
		Help: "Total number of permanent bans caused by reaching the warning limit",
	})

	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moderator_notification_failures_total",
		Help: "Total number of notifications that could not be delivered",
	}, []string{"destination"})
)

// Expiry sweeper metrics
var (
	ExpiredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moderator_sanctions_expired_total",
		Help: "Total number of sanctions reversed by the expiry sweeper",
	}, []string{"kind"})

	SweepErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moderator_sweep_errors_total",
		Help: "Total number of failed sweep passes",
	}, []string{"kind"})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "moderator_sweep_duration_seconds",
		Help:    "Duration of one expiry sweep tick in seconds",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
)

// Member tracking metrics
var (
	TrackedMembersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moderator_tracked_member_updates_total",
		Help: "Total number of handle to account updates observed",
	})

	ForbiddenWordHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moderator_forbidden_word_hits_total",
		Help: "Total number of messages that matched the forbidden word list",
	})
)
