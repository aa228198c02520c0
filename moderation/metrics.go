package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var warningsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_warnings_issued_total",
	Help: "Number of warnings issued, by severity",
}, []string{"severity"})

var warningsRemoved = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_warnings_removed_total",
	Help: "Number of warnings deactivated, manually or by retention",
})

var bansIssued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_bans_issued_total",
	Help: "Number of bans issued, by reason",
}, []string{"reason"})

var bansRemoved = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_bans_removed_total",
	Help: "Number of bans lifted by a moderator",
})

var bansExpired = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_bans_expired_total",
	Help: "Number of bans deactivated after their expiry",
})

var autoBans = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_auto_bans_total",
	Help: "Number of bans issued by the escalation policy",
})

var censorWarnings = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_censor_warnings_total",
	Help: "Number of increments of the ephemeral censorship counters",
})

var screenedContent = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_screened_content_total",
	Help: "Number of content submissions screened, by result",
}, []string{"result"})

var maintenanceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "moderation_maintenance_duration",
	Help:    "A histogram of maintenance pass latencies",
	Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
})
