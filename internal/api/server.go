package api

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/rankboard/internal/api/handlers"
	"github.com/amaumene/rankboard/internal/api/middleware"
	"github.com/amaumene/rankboard/internal/config"
	"github.com/amaumene/rankboard/internal/controllers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	app    *fiber.App
	addr   string
	logger *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, sessions *controllers.SessionManager, dispatcher *controllers.Dispatcher, matcher *controllers.WatchedMatcher, logger *logrus.Logger) *Server {
	s := &Server{
		addr:   ":" + cfg.ServerPort,
		logger: logger,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "rankd",
		ErrorHandler:          handlers.ErrorHandler(logger),
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
	})
	s.app.Use(recover.New())
	s.app.Use(middleware.Logging(logger))

	s.setupRoutes(sessions, dispatcher, matcher)
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(sessions *controllers.SessionManager, dispatcher *controllers.Dispatcher, matcher *controllers.WatchedMatcher) {
	healthHandler := handlers.NewHealthHandler(s.logger)
	statusHandler := handlers.NewStatusHandler(sessions, dispatcher, s.logger)
	catalogHandler := handlers.NewCatalogHandler(dispatcher, s.logger)
	listsHandler := handlers.NewListsHandler(sessions, s.logger)
	watchedHandler := handlers.NewWatchedHandler(matcher, s.logger)
	sessionHandler := handlers.NewSessionHandler(s.logger)

	s.app.Get("/health", healthHandler.Check)
	s.app.Get("/status", statusHandler.Status)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Catalog routes need no session
	api := s.app.Group("/api")
	api.Get("/categories", catalogHandler.Categories)
	api.Get("/search/all", catalogHandler.SearchAll)
	api.Get("/search", catalogHandler.Search)
	api.Get("/discover/:category", catalogHandler.Discover)
	api.Get("/items/:category/:id", catalogHandler.Item)
	api.Post("/custom-items", listsHandler.CustomItem)

	user := api.Group("", middleware.Session(sessions))

	user.Get("/session", sessionHandler.Current)
	user.Post("/session/sync", sessionHandler.Sync)

	user.Get("/temp", listsHandler.TempLists)
	user.Get("/temp/:category", listsHandler.TempList)
	user.Delete("/temp/:category", listsHandler.ClearTemp)
	user.Post("/temp/:category/items", listsHandler.AddToTemp)
	user.Delete("/temp/:category/items/:itemId", listsHandler.RemoveFromTemp)
	user.Post("/temp/:category/items/:itemId/move", listsHandler.MoveTempItem)
	user.Post("/temp/:category/publish", listsHandler.Publish)

	user.Get("/lists", listsHandler.Lists)
	user.Get("/lists/search", listsHandler.SearchLists)
	user.Get("/lists/:id", listsHandler.GetList)
	user.Patch("/lists/:id", listsHandler.UpdateList)
	user.Delete("/lists/:id", listsHandler.DeleteList)
	user.Get("/lists/:id/status", listsHandler.ListStatus)
	user.Post("/lists/:id/items", listsHandler.AddItem)
	user.Patch("/lists/:id/items/:itemId", listsHandler.UpdateItem)
	user.Delete("/lists/:id/items/:itemId", listsHandler.RemoveItem)
	user.Post("/lists/:id/items/:itemId/move", listsHandler.MoveItem)

	user.Get("/share/:code", listsHandler.Shared)
	user.Post("/share/:code/save", listsHandler.SaveShared)
	user.Get("/recommendations", listsHandler.Recommendations)
	user.Delete("/recommendations/:id", listsHandler.DeleteRecommendation)

	user.Post("/watched/match", watchedHandler.Match)
	user.Get("/watched/:category", watchedHandler.Watched)
	user.Post("/watched/:category/import", watchedHandler.Import)
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the HTTP server and blocks until ctx is done
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("addr", s.addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.app.Listen(s.addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithTimeout(10 * time.Second)
}
