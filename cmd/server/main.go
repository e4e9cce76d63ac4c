package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/headless-comments-api/internal/akismet"
	"github.com/headless-comments-api/internal/api"
	"github.com/headless-comments-api/internal/config"
	"github.com/headless-comments-api/internal/database"
	"github.com/headless-comments-api/internal/metrics"
	"github.com/headless-comments-api/internal/notify"
	"github.com/headless-comments-api/internal/render"
	"github.com/headless-comments-api/internal/repository"
	"github.com/headless-comments-api/internal/service"
	"github.com/headless-comments-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(logger.Options{})
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log.Info().Msg("Starting headless comments API server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.Server.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	repos := repository.New(db)
	m := metrics.New()

	// Outbound notifications
	mailer := notify.NewMailer(cfg.SMTP, log)
	dispatcher := notify.NewDispatcher(repos, mailer, cfg.Notify, cfg.Site.Name, m, log)

	deps := service.Dependencies{
		Notifier: dispatcher,
		Renderer: render.New(render.Options{}),
		Metrics:  m,
	}

	classifier := akismet.NewClient(akismet.Config{
		APIKey:   cfg.Akismet.APIKey,
		Endpoint: cfg.Akismet.Endpoint,
		Timeout:  cfg.Akismet.Timeout,
	}, log)
	if classifier.Configured() {
		deps.Classifier = classifier
	} else {
		log.Warn().Msg("AKISMET_API_KEY not set, spam checks are disabled")
	}

	services := service.NewServices(repos, deps, cfg, log)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := services.Settings.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap settings")
	}

	dispatcher.Start(ctx)

	router := api.NewRouter(services, m, db, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("base_path", api.BasePath).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Drain queued notifications after the last request has finished
	dispatcher.Stop(shutdownCtx)

	log.Info().Msg("Server exited gracefully")
}
