package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/alert"
	"github.com/hamed0406/healthwatch/internal/config"
	"github.com/hamed0406/healthwatch/internal/httpapi"
	apimw "github.com/hamed0406/healthwatch/internal/httpapi/middleware"
	"github.com/hamed0406/healthwatch/internal/logging"
	"github.com/hamed0406/healthwatch/internal/notify"
	"github.com/hamed0406/healthwatch/internal/repo"
	"github.com/hamed0406/healthwatch/internal/repo/memory"
	"github.com/hamed0406/healthwatch/internal/repo/postgres"
	"github.com/hamed0406/healthwatch/internal/sampler"
	"github.com/hamed0406/healthwatch/internal/scheduler"
)

type stores struct {
	samples  repo.SampleStore
	alerts   repo.AlertStore
	metadata repo.MetadataStore
}

func main() {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store_init_failed", zap.Error(err))
	}
	defer closeStore()

	if cfg.SlackWebhookURL == "" {
		logger.Warn("slack_webhook_not_configured")
	}
	dispatcher := notify.NewDispatcher(
		notify.NewSlack(cfg.SlackWebhookURL),
		cfg.DispatchAttempts, cfg.DispatchBackoff, 30*time.Second,
		logger,
	)

	manager := alert.NewManager(st.alerts, cfg.RenotifyCooldown, logger)
	if err := manager.Rehydrate(ctx); err != nil {
		logger.Fatal("rehydrate_failed", zap.Error(err))
	}

	smp := sampler.New(sampler.NewGopsutilReader(cfg.DiskPath))

	monitor := scheduler.NewMonitor(
		logger, smp, st.samples, manager, dispatcher,
		cfg.Thresholds(), cfg.CheckInterval,
	)
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		monitor.Run(ctx)
	}()

	api := httpapi.NewServer(logger, smp, st.samples, st.alerts, st.metadata, dispatcher)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.Router(keys, nil, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
	}

	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_serve_error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	// the monitor finishes its in-flight tick before returning
	<-monitorDone

	// drain HTTP before closing the dispatcher so an in-flight resolve or
	// test-notification still gets a live delivery context
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	// pending notification retries are abandoned here
	dispatcher.Close()
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (stores, func(), error) {
	if cfg.DatabaseURL == "" {
		m := memory.New()
		logger.Info("store_memory")
		return stores{samples: m, alerts: m, metadata: m}, func() {}, nil
	}
	pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return stores{}, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return stores{}, nil, err
	}
	logger.Info("store_postgres")
	return stores{samples: pg, alerts: pg, metadata: pg}, pg.Close, nil
}
