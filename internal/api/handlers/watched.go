package handlers

import (
	"bytes"

	"github.com/amaumene/rankboard/internal/api/middleware"
	"github.com/amaumene/rankboard/internal/controllers"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// WatchedHandler imports watched history and resolves it against upstream catalogs
type WatchedHandler struct {
	matcher *controllers.WatchedMatcher
	logger  *logrus.Logger
}

// NewWatchedHandler creates a new watched handler
func NewWatchedHandler(matcher *controllers.WatchedMatcher, logger *logrus.Logger) *WatchedHandler {
	return &WatchedHandler{
		matcher: matcher,
		logger:  logger,
	}
}

// ImportResponse summarizes a CSV import
type ImportResponse struct {
	Parsed int `json:"parsed"`
	Pool   int `json:"pool"`
}

// MatchResponse summarizes a rematch run
type MatchResponse struct {
	Resolved int `json:"resolved"`
	Pending  int `json:"pending"`
}

// Import handles POST /api/watched/:category/import with a CSV body
func (h *WatchedHandler) Import(c *fiber.Ctx) error {
	category, err := categoryParam(c.Params("category"))
	if err != nil {
		return err
	}

	entries, err := controllers.ParseWatchedCSV(bytes.NewReader(c.Body()))
	if err != nil {
		return err
	}

	session := middleware.CurrentSession(c)
	pool, err := session.Store.ImportWatched(category, entries)
	if err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"device":   session.DeviceID,
		"category": category,
		"parsed":   len(entries),
		"pool":     len(pool),
	}).Info("Watched history imported")

	return c.Status(fiber.StatusCreated).JSON(ImportResponse{Parsed: len(entries), Pool: len(pool)})
}

// Watched handles GET /api/watched/:category
func (h *WatchedHandler) Watched(c *fiber.Ctx) error {
	category, err := categoryParam(c.Params("category"))
	if err != nil {
		return err
	}
	return c.JSON(middleware.CurrentSession(c).Store.Watched(category))
}

// Match handles POST /api/watched/match, resolving pending entries now
// instead of waiting for the scheduled rematch
func (h *WatchedHandler) Match(c *fiber.Ctx) error {
	store := middleware.CurrentSession(c).Store
	resolved := h.matcher.MatchPending(c.UserContext(), store)
	return c.JSON(MatchResponse{Resolved: resolved, Pending: len(store.PendingWatched())})
}
