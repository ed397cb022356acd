package app

import (
	"context"
	"fmt"
	"time"

	"cowin-slot-mailer/internal/availability"
	"cowin-slot-mailer/internal/catalogcache"
	"cowin-slot-mailer/internal/config"
	"cowin-slot-mailer/internal/cowin"
	"cowin-slot-mailer/internal/metrics"
	"cowin-slot-mailer/internal/notify"

	"github.com/sirupsen/logrus"
)

// Runner executes polling runs for one variant. Everything a run needs is
// held here and passed down; nothing is package-global.
type Runner struct {
	variant config.Variant
	cfg     *config.Configuration
	opts    Options
	log     logrus.FieldLogger
	loc     *time.Location

	client  *cowin.Client
	catalog cowin.Catalog
	open    notify.Opener
	now     func() time.Time
	closers []func() error
}

// NewRunner wires the upstream client, the optional catalog cache and the
// delivery profile selected by the run mode.
func NewRunner(variant config.Variant, cfg *config.Configuration, opts Options, log logrus.FieldLogger) (*Runner, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	client := cowin.NewClient(cfg.APIPrefix, cfg.AppointmentPrefix, cfg.Timeout())
	r := &Runner{
		variant: variant,
		cfg:     cfg,
		opts:    opts,
		log:     log,
		loc:     loc,
		client:  client,
		catalog: client,
		open:    transportOpener(cfg.Profile(opts.TestMode), opts.TestMode),
		now:     time.Now,
	}
	if cc := cfg.CatalogCache; cc.Addr != "" && variant == config.VariantResolver {
		rdb := catalogcache.NewRedisClient(catalogcache.Options{Addr: cc.Addr, Password: cc.Password, DB: cc.DB})
		r.catalog = catalogcache.New(rdb, client, cfg.CacheTTL(), log)
		r.closers = append(r.closers, rdb.Close)
	}
	return r, nil
}

func transportOpener(profile config.SMTP, testMode bool) notify.Opener {
	if profile.Transport == config.TransportSES {
		return func(ctx context.Context) (notify.Transport, error) {
			t, err := notify.NewSESTransport(ctx, profile.Region)
			if err != nil {
				return nil, err
			}
			return t, nil
		}
	}
	return func(ctx context.Context) (notify.Transport, error) {
		t, err := notify.DialSMTP(ctx, notify.SMTPOptions{
			Host:        profile.Server,
			Port:        profile.Port,
			Username:    profile.Username,
			Password:    profile.Password,
			ImplicitTLS: !testMode,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

// Close releases the connections the runner opened.
func (r *Runner) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// runState is what a single run carries through its phases.
type runState struct {
	date    string
	elig    availability.Eligibility
	metrics *metrics.Run
	log     logrus.FieldLogger
}

// Run performs one complete poll: build batches, filter, deliver. It fails only
// when the mail transport cannot be opened.
func (r *Runner) Run(ctx context.Context) error {
	start := r.now()
	state := &runState{
		date:    cowin.QueryDate(start, r.opts.MailIfAvailable, r.loc),
		elig:    availability.Eligibility{MinAgeLimit: r.cfg.MinAgeLimit},
		metrics: metrics.NewRun(r.variantName()),
	}
	state.log = r.log.WithFields(logrus.Fields{"variant": r.variantName(), "date": state.date})

	var batches []notify.MailBatch
	switch r.variant {
	case config.VariantDirect:
		batches = r.directBatches(ctx, state)
	default:
		batches = r.resolverBatches(ctx, state)
	}

	state.log.WithFields(logrus.Fields{
		"count":             len(batches),
		"summary":           summarize(batches),
		"mail_if_available": r.opts.MailIfAvailable,
	}).Info("TOTAL MAIL BATCHES")
	final := notify.Suppress(batches, r.opts.MailIfAvailable)
	state.metrics.MailsSuppressed.Add(float64(len(batches) - len(final)))
	state.log.WithFields(logrus.Fields{
		"count":             len(final),
		"summary":           summarize(final),
		"mail_if_available": r.opts.MailIfAvailable,
	}).Info("FINAL MAIL BATCHES")

	profile := r.cfg.Profile(r.opts.TestMode)
	dispatcher := notify.NewDispatcher(r.open, profile.Username, state.log)
	result, err := dispatcher.Dispatch(ctx, final)
	state.metrics.MailsSent.Add(float64(result.Sent))
	state.metrics.MailsFailed.Add(float64(result.Failed))

	elapsed := r.now().Sub(start)
	state.metrics.Duration.Set(elapsed.Seconds())
	if err == nil {
		state.metrics.LastCompleted.SetToCurrentTime()
	}
	r.pushMetrics(ctx, state)

	if err != nil {
		return err
	}
	if result.Err != nil {
		state.log.WithError(result.Err).Warnf("%d of %d mail batches failed", result.Failed, len(final))
	}
	state.log.WithFields(logrus.Fields{
		"sent":    result.Sent,
		"elapsed": elapsed.String(),
	}).Info("run complete")
	return nil
}

func (r *Runner) pushMetrics(ctx context.Context, state *runState) {
	if r.cfg.PushgatewayURL == "" {
		return
	}
	if err := state.metrics.Push(ctx, r.cfg.PushgatewayURL); err != nil {
		state.log.WithError(err).Warn("could not push run metrics")
	}
}

func (r *Runner) variantName() string {
	if r.variant == config.VariantDirect {
		return "direct"
	}
	return "resolver"
}

func summarize(batches []notify.MailBatch) []string {
	out := make([]string, len(batches))
	for i, b := range batches {
		out[i] = fmt.Sprintf("%s -> %v", b.Subject, b.Recipients)
	}
	return out
}
