package app

import (
	"context"
	"errors"

	"cowin-slot-mailer/internal/availability"
	"cowin-slot-mailer/internal/config"
	"cowin-slot-mailer/internal/cowin"
	"cowin-slot-mailer/internal/notify"

	"github.com/sirupsen/logrus"
)

// resolverBatches resolves every configured state and district name and
// fetches each district in turn. Every failure is confined to the recipients
// it affects.
func (r *Runner) resolverBatches(ctx context.Context, state *runState) []notify.MailBatch {
	resolver := cowin.NewResolver(r.catalog)
	fetcher := cowin.NewFetcher(r.client, state.log)

	if err := resolver.LoadStates(ctx); err != nil {
		state.log.WithError(err).Error("states lookup failed")
		state.metrics.ResolveErrors.WithLabelValues("states").Inc()
		return []notify.MailBatch{notify.ErrorBatch(r.cfg.AllRecipients(), notify.StatesNotFoundBody)}
	}

	var batches []notify.MailBatch
	for _, entry := range r.cfg.Cfg {
		entryLog := state.log.WithField("state", entry.State)
		stateID, err := resolver.ResolveState(ctx, entry.State)
		if err != nil {
			entryLog.WithError(err).Error("state not resolved")
			state.metrics.ResolveErrors.WithLabelValues("state").Inc()
			batches = append(batches, notify.ErrorBatch(entryRecipients(entry), notify.StateNotFoundBody))
			continue
		}
		catalog, err := resolver.Districts(ctx, stateID)
		if err != nil {
			entryLog.WithError(err).Error("districts lookup failed")
			state.metrics.ResolveErrors.WithLabelValues("districts").Inc()
			batches = append(batches, notify.ErrorBatch(entryRecipients(entry), notify.DistrictsNotFoundBody))
			continue
		}

		for _, query := range entry.Districts {
			queryLog := entryLog.WithField("pattern", query.District)
			district, err := catalog.Match(query.District)
			if err != nil {
				queryLog.WithError(err).Error("district not resolved")
				reason := "district"
				if errors.Is(err, cowin.ErrInvalidPattern) {
					reason = "pattern"
				}
				state.metrics.ResolveErrors.WithLabelValues(reason).Inc()
				batches = append(batches, notify.ErrorBatch(query.Receivers, notify.DistrictNotFoundBody))
				continue
			}

			slots, err := fetcher.Fetch(ctx, district.ID, state.date)
			if err != nil {
				queryLog.WithError(err).Error("availability lookup failed")
				state.metrics.FetchFailures.Inc()
				batches = append(batches, notify.ErrorBatch(query.Receivers, notify.SlotsUnavailableBody))
				continue
			}
			batches = append(batches, r.reportBatch(state, district.Name, slots, query.Receivers))
		}
	}
	return batches
}

// directBatches fetches every configured district id at once and waits for
// all of them before aggregating.
func (r *Runner) directBatches(ctx context.Context, state *runState) []notify.MailBatch {
	fetcher := cowin.NewFetcher(r.client, state.log)

	targets := make([]cowin.Target, len(r.cfg.Cfg))
	for i, entry := range r.cfg.Cfg {
		targets[i] = cowin.Target{DistrictID: entry.DistrictID, Main: entry.IsMainOK}
	}
	results := fetcher.FetchAll(ctx, targets, state.date)

	batches := make([]notify.MailBatch, 0, len(results))
	for i, slots := range results {
		entry := r.cfg.Cfg[i]
		if slots.Failed {
			state.metrics.FetchFailures.Inc()
		}
		batches = append(batches, r.reportBatch(state, entry.DistrictName, slots, entry.Recipients))
	}
	return batches
}

func (r *Runner) reportBatch(state *runState, districtName string, slots *cowin.CowinSlots, recipients []string) notify.MailBatch {
	state.log.WithFields(logrus.Fields{
		"url":  slots.URL,
		"keys": slots.Keys,
	}).Info("calendar fetched")

	report := availability.Aggregate(districtName, slots, state.elig)
	if report.Skipped > 0 {
		state.log.WithFields(logrus.Fields{
			"district": districtName,
			"skipped":  report.Skipped,
		}).Warn("sessions with unreadable dates were dropped")
	}
	state.metrics.Reports.WithLabelValues(report.Status.String()).Inc()

	batch, err := notify.ReportBatch(report, recipients, state.elig.MinAgeLimit)
	if err != nil {
		state.log.WithError(err).WithField("district", districtName).Error("rendering report failed")
		return notify.ErrorBatch(recipients, notify.SlotsUnavailableBody)
	}
	return batch
}

func entryRecipients(entry config.DistrictEntry) []string {
	var out []string
	for _, d := range entry.Districts {
		out = append(out, d.Receivers...)
	}
	return out
}
