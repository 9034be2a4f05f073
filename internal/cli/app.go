package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/LeJamon/xrplgate/internal/builder"
	"github.com/LeJamon/xrplgate/internal/config"
	"github.com/LeJamon/xrplgate/internal/events"
	"github.com/LeJamon/xrplgate/internal/idempotency"
	"github.com/LeJamon/xrplgate/internal/journal"
	"github.com/LeJamon/xrplgate/internal/metrics"
	"github.com/LeJamon/xrplgate/internal/network"
	"github.com/LeJamon/xrplgate/internal/rpc"
	"github.com/LeJamon/xrplgate/internal/service"
	"github.com/LeJamon/xrplgate/internal/signing"
	"github.com/LeJamon/xrplgate/internal/submit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// app holds everything a command needs, wired from the configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	client   *rpc.Client
	fees     *network.FeeAdvisor
	window   *network.LedgerWindow
	svc      *service.Service
	guard    idempotency.Guard
	journal  *journal.Store
	events   *events.Publisher
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadConfig(config.ConfigPaths{Main: configFile})
	}
	return config.LoadDefault()
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if debug {
		level = slog.LevelDebug
	} else if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg, logger: newLogger(cfg.Log), registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.close()
		}
	}()
	m := metrics.NewMetrics(a.registry)

	a.client = rpc.NewClient(rpc.Config{
		URL:            cfg.Node.URL,
		DialTimeout:    cfg.Node.DialTimeout,
		RequestTimeout: cfg.Node.RequestTimeout,
		RateLimit:      cfg.Node.RateLimit,
		Burst:          cfg.Node.Burst,
	}, m, a.logger)
	a.fees = network.NewFeeAdvisor(a.client, network.FeePolicy{
		FallbackDrops: cfg.Fee.FallbackDrops,
		MaxDrops:      cfg.Fee.MaxDrops,
	}, m, a.logger)
	a.window = network.NewLedgerWindow(a.client)
	policy := network.WindowPolicy{Margin: cfg.Window.Margin, TrustMargin: cfg.Window.TrustMargin}

	opts := []submit.Option{submit.WithMetrics(m), submit.WithLogger(a.logger)}
	if a.guard, err = idempotency.Open(idempotency.Config{
		Backend: idempotency.Backend(cfg.Idempotency.Backend),
		Size:    cfg.Idempotency.Size,
		Path:    cfg.Idempotency.Path,
	}); err != nil {
		return nil, fmt.Errorf("opening idempotency guard: %w", err)
	}
	if a.guard != nil {
		opts = append(opts, submit.WithGuard(a.guard))
	}
	if cfg.Journal.Enabled() {
		if a.journal, err = journal.Open(ctx, journal.Config{
			Driver:       journal.Driver(cfg.Journal.Driver),
			DSN:          cfg.Journal.DSN,
			MaxOpenConns: cfg.Journal.MaxOpenConns,
			Timeout:      cfg.Journal.Timeout,
		}); err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		opts = append(opts, submit.WithRecorder(a.journal))
	}
	if cfg.Events.Enabled() {
		if a.events, err = events.Connect(events.Config{
			URL:           cfg.Events.NATSURL,
			Name:          "xrplgate",
			SubjectPrefix: cfg.Events.SubjectPrefix,
			ReconnectWait: cfg.Events.ReconnectWait,
			MaxReconnects: cfg.Events.MaxReconnects,
		}, a.logger); err != nil {
			return nil, fmt.Errorf("connecting to nats: %w", err)
		}
		opts = append(opts, submit.WithPublisher(a.events))
	}

	exec := submit.New(a.client, builder.New(a.fees, a.window, policy, a.logger), submit.Config{
		MaxRetries:   cfg.Submit.MaxRetries,
		RetryDelay:   cfg.Submit.RetryDelay,
		PollInterval: cfg.Submit.PollInterval,
	}, opts...)

	mode, err := signing.ParseMode(cfg.Signing.Mode)
	if err != nil {
		return nil, err
	}
	svcOpts := []service.Option{
		service.WithSigningMode(mode),
		service.WithWindowPolicy(policy),
		service.WithLogger(a.logger),
	}
	if cfg.Faucet.URL != "" {
		svcOpts = append(svcOpts, service.WithFaucet(service.NewFaucet(cfg.Faucet.URL, &http.Client{Timeout: cfg.Faucet.Timeout})))
	}
	a.svc = service.New(a.client, exec, svcOpts...)
	return a, nil
}

// close releases every resource and writes the metrics textfile.
func (a *app) close() error {
	var errs []error
	if a.events != nil {
		errs = append(errs, a.events.Close())
	}
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}
	if a.guard != nil {
		errs = append(errs, a.guard.Close())
	}
	if a.client != nil {
		errs = append(errs, a.client.Disconnect())
	}
	if a.cfg.Metrics.Textfile != "" {
		errs = append(errs, metrics.WriteTextfile(a.cfg.Metrics.Textfile, a.registry))
	}
	return errors.Join(errs...)
}

// run builds the app for one command invocation and tears it down after.
func run(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	err = fn(ctx, a)
	if cerr := a.close(); cerr != nil {
		a.logger.Warn("shutdown", "error", cerr)
	}
	return err
}
