package triage

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/mailtriage/internal/inference"
)

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	SyncsTotal         *prometheus.CounterVec
	SyncDuration       prometheus.Histogram
	DedupSkips         prometheus.Counter
	EmailsIngested     prometheus.Counter
	ActionsRecommended *prometheus.CounterVec
	ComplianceAlerts   prometheus.Counter
	ActionsTotal       *prometheus.CounterVec
	ResolutionLookups  *prometheus.CounterVec
	HeadFailures       *prometheus.CounterVec
	SummaryFallbacks   *prometheus.CounterVec
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SyncsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailtriage_syncs_total",
			Help: "Total sync passes by result.",
		}, []string{"result"}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailtriage_sync_duration_seconds",
			Help:    "Duration of sync passes in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s .. ~256s
		}),
		DedupSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailtriage_dedup_skips_total",
			Help: "Total messages skipped because their thread was already ingested.",
		}),
		EmailsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailtriage_emails_ingested_total",
			Help: "Total emails ingested and analyzed.",
		}),
		ActionsRecommended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailtriage_actions_recommended_total",
			Help: "Total recommended actions by action.",
		}, []string{"action"}),
		ComplianceAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailtriage_compliance_alerts_total",
			Help: "Total emails flagged by the compliance scan.",
		}),
		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailtriage_email_actions_total",
			Help: "Total manual email actions by kind.",
		}, []string{"action"}),
		ResolutionLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailtriage_resolution_lookups_total",
			Help: "Total resolution cache lookups by result.",
		}, []string{"result"}),
		HeadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailtriage_inference_head_failures_total",
			Help: "Total classifier head failures by head.",
		}, []string{"head"}),
		SummaryFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailtriage_summary_fallbacks_total",
			Help: "Total summary fallbacks by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.SyncsTotal,
		m.SyncDuration,
		m.DedupSkips,
		m.EmailsIngested,
		m.ActionsRecommended,
		m.ComplianceAlerts,
		m.ActionsTotal,
		m.ResolutionLookups,
		m.HeadFailures,
		m.SummaryFallbacks,
	)

	return m
}

// InferenceHooks returns engine hooks that increment the corresponding metrics.
func (m *Metrics) InferenceHooks() inference.Hooks {
	return inference.Hooks{
		OnHeadFailure: func(head string) {
			m.HeadFailures.WithLabelValues(head).Inc()
		},
		OnSummaryFallback: func(kind string) {
			m.SummaryFallbacks.WithLabelValues(kind).Inc()
		},
	}
}
