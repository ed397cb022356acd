// Package metrics collects per-run counters and pushes them to a Prometheus
// Pushgateway, the usual route for short-lived batch jobs.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const Job = "cowin_slot_mailer"

// Run holds the metrics of one polling run on a private registry.
type Run struct {
	Registry *prometheus.Registry

	Reports         *prometheus.CounterVec
	ResolveErrors   *prometheus.CounterVec
	FetchFailures   prometheus.Counter
	MailsSent       prometheus.Counter
	MailsFailed     prometheus.Counter
	MailsSuppressed prometheus.Counter
	Duration        prometheus.Gauge
	LastCompleted   prometheus.Gauge

	variant string
}

func NewRun(variant string) *Run {
	r := &Run{
		Registry: prometheus.NewRegistry(),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slot_mailer_district_reports_total",
			Help: "District reports built, by slot status",
		}, []string{"status"}),
		ResolveErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slot_mailer_resolve_errors_total",
			Help: "District resolution failures, by reason",
		}, []string{"reason"}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slot_mailer_fetch_failures_total",
			Help: "Availability calls that failed",
		}),
		MailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slot_mailer_mails_sent_total",
			Help: "Mail batches delivered",
		}),
		MailsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slot_mailer_mails_failed_total",
			Help: "Mail batches that could not be delivered",
		}),
		MailsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slot_mailer_mails_suppressed_total",
			Help: "Mail batches dropped because no slots were available",
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "slot_mailer_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		LastCompleted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "slot_mailer_last_completed_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		variant: variant,
	}
	r.Registry.MustRegister(
		r.Reports, r.ResolveErrors, r.FetchFailures,
		r.MailsSent, r.MailsFailed, r.MailsSuppressed,
		r.Duration, r.LastCompleted,
	)
	return r
}

// Push replaces this job's metric group on the gateway at url.
func (r *Run) Push(ctx context.Context, url string) error {
	err := push.New(url, Job).
		Gatherer(r.Registry).
		Grouping("variant", r.variant).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
