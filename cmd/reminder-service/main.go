package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spherelog/spherelog/internal/api"
	"github.com/spherelog/spherelog/internal/config"
	"github.com/spherelog/spherelog/internal/health"
	"github.com/spherelog/spherelog/internal/journal"
	"github.com/spherelog/spherelog/internal/logger"
	"github.com/spherelog/spherelog/internal/metrics"
	"github.com/spherelog/spherelog/internal/model"
	"github.com/spherelog/spherelog/internal/notify"
	"github.com/spherelog/spherelog/internal/reminder"
	"github.com/spherelog/spherelog/internal/services"
	"github.com/spherelog/spherelog/internal/store"
	"github.com/spherelog/spherelog/internal/store/postgres"
	"github.com/spherelog/spherelog/internal/store/sqlite"
)

func main() {
	dbDriver := flag.String("db-driver", "", "Override SPHERELOG_DB_DRIVER (sqlite, postgres)")
	flag.Parse()

	log := logger.New("reminder-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *dbDriver != "" {
		cfg.DBDriver = *dbDriver
		if err := cfg.Validate(); err != nil {
			log.Fatal().Err(err).Msg("Invalid db-driver override")
		}
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Reminder service starting…")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// -------- Storage layer -----------------
	var st store.Store
	switch cfg.DBDriver {
	case "postgres":
		st, err = postgres.Open(ctx, cfg.PostgresDSN)
	default:
		st, err = sqlite.Open(cfg.SQLitePath)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Store unavailable")
	}
	defer func() { _ = st.Close() }()

	// -------- Journal data source -----------
	var source journal.Source
	if cfg.JournalBaseURL != "" {
		source = journal.NewClient(cfg.JournalBaseURL)
	} else {
		log.Warn().Msg("No journal backend configured; running against an empty in-memory source")
		source = journal.NewStatic()
	}

	// -------- Notification service ----------
	notifySvc := notify.NewLocal(log)

	// -------- Stores & scheduler ------------
	registry := prometheus.NewRegistry()
	m := metrics.NewScheduler(registry)

	templates := services.NewTemplateService(st)
	assignments := services.NewAssignmentService(st)
	if err := templates.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Could not initialize template store")
	}
	if err := assignments.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Could not initialize assignment store")
	}

	guard := reminder.NewDeliveryGuard(notifySvc, log, nil)
	sched := reminder.NewScheduler(st, source, notifySvc, templates, assignments, guard, m, log, reminder.Options{
		Subscribed: func() bool { return cfg.SubscriptionActive },
		Debounce:   cfg.RefreshDebounce,
	})
	if err := sched.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Could not restore scheduler state")
	}
	defer sched.Stop()

	templates.SetOnChange(sched.NotifyChange)
	templates.SetCascade(assignments.RemoveTemplateRefs)
	assignments.SetOnChange(sched.NotifyChange)
	assignments.SetOnDisable(func(ctx context.Context, sphere model.Sphere, entityID string) {
		if err := sched.CancelEntity(ctx, sphere, entityID); err != nil {
			log.Error().Err(err).Str("entity", entityID).Msg("entity-scoped cancel failed")
		}
	})
	notifySvc.SetDeliveryHandler(func(d notify.Delivered) bool {
		show := guard.Handle(d)
		if !show {
			m.SuppressedDeliveries.Inc()
		}
		return show
	})
	notifySvc.SetTapHandler(func(p notify.Payload) {
		log.Info().Str("entity", p.EntityID).Str("sphere", string(p.Sphere)).Msg("notification tapped; deep-linking to entity")
	})

	// Kick the first pass once stores are loaded.
	sched.NotifyChange()

	// -------- Health monitor ----------------
	storeCheck := health.NewPingChecker("store", st, log, 2*time.Second)
	svcHealth := health.NewServiceHealthChecker(log, storeCheck)
	go storeCheck.Start(ctx, cfg.HealthInterval)
	go svcHealth.Start(ctx, cfg.HealthInterval)

	// -------- Router & Server ---------------
	router := api.NewRouter(templates, assignments, sched, svcHealth, registry)
	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server…")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
