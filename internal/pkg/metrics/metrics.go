// Package metrics defines the custom Prometheus metrics of the auth portal.
// It is the single source of truth for metric names, labels, and help strings.
//
// Metrics are registered with the default registry at package init via
// promauto; HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "authportal"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "ok" or a failure reason (e.g. "email_taken", "captcha_rejected")
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "ok" or a failure reason (e.g. "unknown_email", "bad_password")
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// LogoutsTotal counts logout requests.
var LogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of logout requests.",
	},
)

// ── Captcha metrics ───────────────────────────────────────────────────────────

// CaptchaVerificationsTotal counts captcha decisions.
// Label:
//   - result: "ok", "missing", "replayed", "rejected" or "unavailable"
var CaptchaVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captcha_verifications_total",
		Help:      "Total number of captcha verifications, by result.",
	},
	[]string{"result"},
)

// CaptchaRequestDuration measures the round trip to the verification service.
var CaptchaRequestDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "captcha_request_duration_seconds",
		Help:      "Duration of captcha verification requests to the external service.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsActive tracks the number of live sessions held in memory.
var SessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Current number of live sessions.",
	},
)

// SessionsExpiredTotal counts sessions removed by the expiry sweep or on lookup.
var SessionsExpiredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_expired_total",
		Help:      "Total number of sessions dropped because they expired.",
	},
)

// ── Contact and audit metrics ─────────────────────────────────────────────────

// ContactMessagesTotal counts contact form submissions.
// Label:
//   - result: "ok" or a failure reason
var ContactMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "contact_messages_total",
		Help:      "Total number of contact form submissions, by result.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks events waiting in each audit worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditEventsDroppedTotal counts audit events discarded because a worker queue was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of audit events dropped because the queue was full.",
	},
)

// AuditErrorsTotal counts audit events that failed to persist.
var AuditErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_errors_total",
		Help:      "Total number of audit events that could not be written.",
	},
)
