package main

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/rankboard/internal/api"
	"github.com/amaumene/rankboard/internal/config"
	"github.com/amaumene/rankboard/internal/controllers"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
	"github.com/amaumene/rankboard/internal/scheduler"
	"github.com/amaumene/rankboard/internal/services/googlebooks"
	"github.com/amaumene/rankboard/internal/services/itunes"
	"github.com/amaumene/rankboard/internal/services/jikan"
	"github.com/amaumene/rankboard/internal/services/remote"
	"github.com/amaumene/rankboard/internal/services/sportsdb"
	"github.com/amaumene/rankboard/internal/services/tmdb"
	"github.com/amaumene/rankboard/internal/tracing"
	"github.com/amaumene/rankboard/internal/utils"
	"github.com/sirupsen/logrus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// App is everything `rankd serve` runs
type App struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Sessions  *controllers.SessionManager
	Scheduler *scheduler.Scheduler
	Server    *api.Server
	Tracer    *sdktrace.TracerProvider
}

func newApp(cfg *config.Config, logger *logrus.Logger, sessions *controllers.SessionManager, sched *scheduler.Scheduler, server *api.Server, tp *sdktrace.TracerProvider) *App {
	return &App{
		Config:    cfg,
		Logger:    logger,
		Sessions:  sessions,
		Scheduler: sched,
		Server:    server,
		Tracer:    tp,
	}
}

// Importer is what `rankd import` needs: local sessions and a matcher
type Importer struct {
	Sessions *controllers.SessionManager
	Matcher  *controllers.WatchedMatcher
}

func newImporter(sessions *controllers.SessionManager, matcher *controllers.WatchedMatcher) *Importer {
	return &Importer{Sessions: sessions, Matcher: matcher}
}

func provideLogger(cfg *config.Config) *logrus.Logger {
	return utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
}

func provideTracer(cfg *config.Config, logger *logrus.Logger) (*sdktrace.TracerProvider, func()) {
	tp := tracing.NewProvider(cfg.TraceSampleRatio, logger)
	return tp, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx, tp); err != nil {
			logger.WithError(err).Warn("Failed to flush traces")
		}
	}
}

func provideDatabase(cfg *config.Config, logger *logrus.Logger) (*models.Database, func(), error) {
	db, err := models.NewDatabase(cfg.LocalDatabaseFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.WithField("path", cfg.LocalDatabaseFile).Info("Local database opened")
	return db, func() {
		if err := db.Close(); err != nil {
			logger.WithError(err).Error("Failed to close local database")
		}
	}, nil
}

func provideRemote(cfg *config.Config, logger *logrus.Logger) (*remote.Store, func(), error) {
	store, err := remote.Open(cfg.RemoteDatabaseFile, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize remote store: %w", err)
	}
	logger.WithField("path", cfg.RemoteDatabaseFile).Info("Remote store opened")
	return store, func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Error("Failed to close remote store")
		}
	}, nil
}

func provideTermList(cfg *config.Config, logger *logrus.Logger) *utils.TermList {
	terms, err := utils.LoadTermList(cfg.DiscoveryTermsFile)
	if err != nil {
		logger.WithError(err).Warn("Failed to load discovery terms, using built-in terms")
		terms, _ = utils.LoadTermList("")
	}
	return terms
}

// provideAdapters builds one adapter per configured upstream. A missing
// API key disables that upstream only.
func provideAdapters(cfg *config.Config, terms *utils.TermList, logger *logrus.Logger) []providers.Adapter {
	var adapters []providers.Adapter

	if cfg.TMDBAPIKey != "" {
		adapters = append(adapters, tmdb.NewClient(cfg, logger))
	} else {
		logger.Warn("TMDB_API_KEY not set, movie and tv search disabled")
	}
	adapters = append(adapters,
		googlebooks.NewClient(cfg, terms, logger),
		itunes.NewClient(cfg, terms, logger),
		jikan.NewClient(cfg, logger),
	)
	if cfg.SportsDBAPIKey != "" {
		adapters = append(adapters, sportsdb.NewClient(cfg, terms, logger))
	} else {
		logger.Warn("SPORTSDB_API_KEY not set, athlete and event search disabled")
	}

	names := make([]string, 0, len(adapters))
	for _, a := range adapters {
		names = append(names, string(a.Name()))
	}
	logger.WithField("providers", names).Info("Provider adapters initialized")
	return adapters
}
