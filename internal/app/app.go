// Package app assembles the monitor from configuration: registry, probers,
// stores, alert transports, telemetry and the scheduler.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/config"
	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/httpapi"
	apimw "github.com/hamed0406/uptimemonitor/internal/httpapi/middleware"
	"github.com/hamed0406/uptimemonitor/internal/notify"
	"github.com/hamed0406/uptimemonitor/internal/probe"
	"github.com/hamed0406/uptimemonitor/internal/repo"
	"github.com/hamed0406/uptimemonitor/internal/repo/memory"
	"github.com/hamed0406/uptimemonitor/internal/repo/postgres"
	"github.com/hamed0406/uptimemonitor/internal/repo/sqlite"
	"github.com/hamed0406/uptimemonitor/internal/repo/statefile"
	"github.com/hamed0406/uptimemonitor/internal/scheduler"
	"github.com/hamed0406/uptimemonitor/internal/stats"
	"github.com/hamed0406/uptimemonitor/internal/telemetry"
)

type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Registry  *domain.Registry
	Store     *memory.Store
	Runner    *scheduler.Runner
	Alerter   *scheduler.Alerter
	Scheduler *scheduler.Scheduler
	Telemetry *telemetry.Provider
	History   repo.HistoryReader

	closers []func() error
}

// New wires every component. Stores that fail to open are fatal; previous
// states that fail to load are only logged.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg, err := config.LoadRegistry(cfg.TargetsFile)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, Registry: reg}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	tel, err := telemetry.Setup(ctx, telemetry.Config{ServiceName: "uptime-monitor", OTLPEndpoint: cfg.OTLPEndpoint})
	if err != nil {
		return nil, err
	}
	a.Telemetry = tel
	a.closers = append(a.closers, func() error {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tel.Shutdown(sctx)
	})
	metrics, err := telemetry.NewMetrics(tel.Meter())
	if err != nil {
		return nil, err
	}

	transport, err := Transport(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Alerter = scheduler.NewAlerter(logger, transport, metrics, scheduler.AlerterConfig{Timeout: cfg.AlertTimeout})

	a.Store = memory.NewWithTargets(reg.Targets())
	a.Runner = scheduler.NewRunner(logger, reg, Prober(cfg), stats.NewAccumulator(), a.Store, a.Alerter, cfg.CheckInterval)
	a.Runner.Metrics = metrics
	a.Runner.Tracer = tel.Tracer()

	sched, err := Schedule(cfg)
	if err != nil {
		return nil, err
	}
	a.Runner.Schedule = sched

	loaders, err := a.openSinks(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range loaders {
		if serr := a.Runner.Seed(ctx, l); serr != nil {
			logger.Warn("seed_states_failed", zap.Error(serr))
		}
	}

	a.Scheduler = scheduler.New(logger, a.Runner, a.Store, sched)
	return a, nil
}

// openSinks attaches the configured history stores and the state file as
// cycle sinks. The returned loaders are ordered so the state file wins.
func (a *App) openSinks(ctx context.Context) ([]repo.StateLoader, error) {
	var loaders []repo.StateLoader
	cfg := a.Config

	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		if err := pg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.Runner.Sinks = append(a.Runner.Sinks, pg)
		a.History = pg
		loaders = append(loaders, pg)
	}

	if cfg.SQLitePath != "" {
		db, err := sqlite.Open(sqlite.Config{DSN: cfg.SQLitePath, RetentionAge: cfg.SQLiteRetention})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.Runner.Sinks = append(a.Runner.Sinks, db)
		if a.History == nil {
			a.History = db
		}
		loaders = append(loaders, db)
	}

	if cfg.StateFile != "" {
		sf := statefile.New(cfg.StateFile, a.Registry)
		a.Runner.Sinks = append(a.Runner.Sinks, sf)
		loaders = append(loaders, sf)
	}
	return loaders, nil
}

// Server returns the HTTP API bound to this app.
func (a *App) Server() *httpapi.Server {
	srv := httpapi.NewServer(a.Logger, a.Registry, a.Store, a.Scheduler)
	srv.History = a.History
	if a.Telemetry != nil {
		srv.Metrics = a.Telemetry
	}
	return srv
}

// RouterOptions maps config onto the router's auth, CORS and rate limits.
func (a *App) RouterOptions() httpapi.Options {
	c := a.Config
	return httpapi.Options{
		Keys:           apimw.Keys{Public: c.PublicAPIKeys, Admin: c.AdminAPIKeys},
		AllowedOrigins: c.AllowedOrigins,
		PublicRPM:      c.PublicRPM,
		PublicBurst:    c.PublicBurst,
		AdminRPM:       c.AdminRPM,
		AdminBurst:     c.AdminBurst,
	}
}

// Close drains pending alerts and releases stores and telemetry.
func (a *App) Close(ctx context.Context) error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Alerter != nil {
		a.Alerter.Wait()
	}
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}

// Prober routes each target kind to its probe, retrying failures when
// ProbeAttempts > 1.
func Prober(cfg config.Config) probe.Prober {
	d := probe.NewDispatcher().
		Handle(domain.KindHTTP, probe.NewHTTPProber(cfg.HTTPTimeout)).
		Handle(domain.KindTCP, probe.NewTCPProber(cfg.TCPTimeout)).
		Handle(domain.KindICMP, probe.NewICMPProber(cfg.ICMPTimeout, cfg.ICMPPrivileged))
	if cfg.ProbeAttempts > 1 {
		return probe.Retry{Inner: d, Attempts: cfg.ProbeAttempts, Backoff: cfg.ProbeBackoff}
	}
	return d
}

// Schedule prefers the cron expression over the fixed interval. Nil means
// only startup and manual cycles run.
func Schedule(cfg config.Config) (scheduler.Schedule, error) {
	if cfg.CheckSchedule != "" {
		return scheduler.ParseSchedule(cfg.CheckSchedule)
	}
	if cfg.CheckInterval > 0 {
		return scheduler.Every{Start: time.Now(), Interval: cfg.CheckInterval}, nil
	}
	return nil, nil
}

// Transport builds the alert transport for every configured method.
func Transport(cfg config.Config, logger *zap.Logger) (notify.Transport, error) {
	var out notify.Multi
	for _, m := range cfg.AlertMethods {
		switch m {
		case config.AlertNone, "":
		case config.AlertLog:
			out = append(out, notify.Log{Logger: logger})
		case config.AlertSlack:
			if n := notify.NewSlack(cfg.SlackWebhookURL); n != nil {
				out = append(out, notify.Messages{Name: m, Notifier: n})
			}
		case config.AlertTelegram:
			if n := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID); n != nil {
				out = append(out, notify.Messages{Name: m, Notifier: n})
			}
		case config.AlertGitHubIssue:
			if n := notify.NewGitHubIssue(cfg.GitHubToken, cfg.GitHubRepository); n != nil {
				out = append(out, notify.Messages{Name: m, Notifier: n})
			}
		case config.AlertSendGrid:
			if n := notify.NewSendGrid(cfg.SendGridAPIKey, cfg.AlertEmail); n != nil {
				out = append(out, notify.Messages{Name: m, Notifier: n})
			}
		default:
			return nil, fmt.Errorf("unknown alert method %q", m)
		}
	}
	switch len(out) {
	case 0:
		return notify.Nop{}, nil
	case 1:
		return out[0], nil
	}
	return out, nil
}
