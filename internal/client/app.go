package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/MKhiriev/profile-sync/internal/adapter"
	"github.com/MKhiriev/profile-sync/internal/config"
	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/metrics"
	"github.com/MKhiriev/profile-sync/internal/notifier"
	"github.com/MKhiriev/profile-sync/internal/service"
	"github.com/MKhiriev/profile-sync/internal/store"
	"github.com/MKhiriev/profile-sync/internal/tui"
	"github.com/MKhiriev/profile-sync/internal/utils"
	"github.com/MKhiriev/profile-sync/internal/workers"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	services *service.ClientServices
	storage  store.LocalStorage
	peers    notifier.Notifier
	redis    *redis.Client
	metrics  *http.Server
	tui      *tui.TUI
	workers  *workers.Workers
	logger   *logger.Logger

	interfaceAddrs func() ([]net.Addr, error)
}

// NewApp builds every collaborator of the sync daemon. The console is used
// unless cfg.App.Headless is set; a headless daemon prompts for the sync
// decision only when stdin is a terminal.
func NewApp(ctx context.Context, cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	localStorage, err := store.NewLocalStorage(ctx, cfg.Storage.DSN, log)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	profileAdapter, err := adapter.NewHTTPProfileAdapter(cfg.Adapter, log)
	if err != nil {
		_ = localStorage.Close()
		return nil, fmt.Errorf("create profile adapter: %w", err)
	}

	a := &App{
		storage:        localStorage,
		peers:          notifier.Nop(),
		logger:         log.Component("app"),
		interfaceAddrs: upInterfaceAddrs,
	}

	var redisNotifier *notifier.RedisNotifier
	if cfg.Notifier.RedisAddress != "" {
		instanceID := utils.NewID()
		subject := service.NewStaticCredentialProvider(cfg.Auth.Token).Subject()

		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Notifier.RedisAddress})
		redisNotifier = notifier.NewRedisNotifier(a.redis, cfg.Notifier.Channel, instanceID, subject, log)
		a.peers = redisNotifier
	}

	reg := prometheus.NewRegistry()
	if cfg.MetricsAddress != "" {
		a.metrics = &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           metrics.Handler(reg),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	collaborators := service.ClientCollaborators{
		Adapter:  profileAdapter,
		Storage:  localStorage,
		Notifier: a.peers,
		Metrics:  metrics.NewSync(reg),
	}
	switch {
	case !cfg.App.Headless:
		a.tui = tui.New(log)
		collaborators.Prompter = a.tui
		collaborators.Reporter = a.tui
	case isatty.IsTerminal(os.Stdin.Fd()):
		collaborators.Prompter = tui.NewPermissionPrompter(os.Stdin, os.Stdout)
	}

	a.services = service.NewClientServices(cfg, collaborators, log)

	var notifierWorker workers.Worker
	if redisNotifier != nil {
		notifierWorker = redisNotifier
	}
	var metricsWorker workers.Worker
	if a.metrics != nil {
		metricsWorker = workers.Func(a.serveMetrics)
	}

	a.workers = workers.NewWorkers(
		a.services.Engine,
		notifierWorker,
		metricsWorker,
		workers.Func(a.watchNetwork),
		a.services.Scheduler,
	)

	return a, nil
}

// Run hydrates the engine, starts the background workers and blocks until
// the console is closed, SIGINT or SIGTERM arrives, or ctx is cancelled.
// The sync state is persisted once more before Run returns.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.services.Engine.Hydrate(ctx); err != nil {
		a.logger.Warn().Err(err).Str("func", "*App.Run").Msg("queued updates could not be restored")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.workers.Run(runCtx)
	a.watchSignals(runCtx)

	a.logger.Info().
		Str("profile", a.services.Engine.ActiveProfile().String()).
		Bool("headless", a.tui == nil).
		Msg("sync daemon started")

	var runErr error
	if a.tui != nil {
		runErr = a.tui.Run(runCtx, a.services)
	} else {
		<-runCtx.Done()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer shutdownCancel()

	return errors.Join(runErr, a.shutdown(shutdownCtx))
}

func (a *App) shutdown(ctx context.Context) error {
	a.services.Scheduler.Stop()

	var errs []error
	if err := a.services.Engine.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close sync engine: %w", err))
	}
	if err := a.peers.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close notifier: %w", err))
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis client: %w", err))
		}
	}
	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown metrics listener: %w", err))
		}
	}
	if err := a.storage.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close local storage: %w", err))
	}

	a.logger.Info().Msg("sync daemon stopped")
	return errors.Join(errs...)
}

func (a *App) serveMetrics(_ context.Context) {
	ln, err := net.Listen("tcp", a.metrics.Addr)
	if err != nil {
		a.logger.Err(err).Str("func", "*App.serveMetrics").Msg("metrics listener disabled")
		return
	}

	go func() {
		a.logger.Info().Str("address", ln.Addr().String()).Msg("metrics listening")
		if err := a.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Err(err).Str("func", "*App.serveMetrics").Msg("metrics listener stopped")
		}
	}()
}

func (a *App) refresh(ctx context.Context) {
	go func() {
		if err := a.services.Scheduler.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn().Err(err).Str("func", "*App.refresh").Msg("refresh failed")
		}
	}()
}

func (a *App) visible(ctx context.Context) {
	a.services.Presence.SetVisible(true)
	a.services.Scheduler.VisibilityRegained(ctx)
}
