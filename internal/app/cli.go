package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cowin-slot-mailer/internal/config"
	"cowin-slot-mailer/internal/logger"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// Options are the command-line settings shared by both entry points.
type Options struct {
	ConfigPath      string
	MailIfAvailable bool
	TestMode        bool
	Every           int
	LogLevel        string
	LogFormat       string
}

var errUsage = errors.New("usage")

// ParseArgs accepts flags before or after the positional config path.
func ParseArgs(name string, args []string, stderr io.Writer) (Options, error) {
	opts := Options{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.MailIfAvailable, "mail-if-available", false, "Dispatch emails only if slots are available; queries tomorrow's calendar.")
	fs.BoolVar(&opts.TestMode, "test-mode", false, "Use the test_creds delivery profile.")
	fs.IntVar(&opts.Every, "every", 0, "Repeat the run every N seconds (0 runs once).")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error).")
	fs.StringVar(&opts.LogFormat, "log-format", "text", "Log format (text or json).")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [flags] config_file\n", name)
		fs.PrintDefaults()
	}

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return opts, fmt.Errorf("%w: %w", errUsage, err)
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
	if len(positional) != 1 {
		fs.Usage()
		return opts, fmt.Errorf("%w: expected exactly one config_file, got %d", errUsage, len(positional))
	}
	if opts.Every < 0 {
		return opts, fmt.Errorf("%w: -every needs to be 0 or a positive number of seconds", errUsage)
	}
	opts.ConfigPath = positional[0]
	return opts, nil
}

// Main is the whole life of one process and returns its exit code.
func Main(name string, variant config.Variant, args []string) int {
	tic := time.Now()

	opts, err := ParseArgs(name, args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	log := logger.New(opts.LogLevel, opts.LogFormat)

	cfg, err := config.Load(opts.ConfigPath, config.LoadOptions{Variant: variant, TestMode: opts.TestMode})
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			log.Errorf("%s doesnt contain the config file", opts.ConfigPath)
			return 1
		}
		log.WithError(err).Error("could not load configuration")
		return 1
	}

	runner, err := NewRunner(variant, cfg, opts, log)
	if err != nil {
		log.WithError(err).Error("could not set up run")
		return 1
	}
	defer runner.Close()
	logger.InLocation(log, runner.loc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := 0
	if opts.Every > 0 {
		code = schedule(ctx, runner, opts.Every, log)
	} else if err := runner.Run(ctx); err != nil {
		log.WithError(err).Error("run aborted")
		code = 1
	}

	log.Infof("Total processing time = %v seconds", time.Since(tic).Seconds())
	return code
}

// schedule repeats runs until ctx is cancelled. A run never overlaps the
// previous one.
func schedule(ctx context.Context, runner *Runner, every int, log logrus.FieldLogger) int {
	scheduler := gocron.NewScheduler(runner.loc)
	_, err := scheduler.Every(every).Seconds().Do(func() {
		log.Info("Polling started")
		if err := runner.Run(ctx); err != nil {
			log.WithError(err).Error("run aborted")
		}
	})
	if err != nil {
		log.WithError(err).Error("could not schedule runs")
		return 1
	}
	scheduler.SingletonMode()
	scheduler.StartAsync()
	log.Infof("Polling every %d seconds", every)

	<-ctx.Done()
	log.Info("Shutting down scheduler...")
	scheduler.Stop()
	return 0
}
