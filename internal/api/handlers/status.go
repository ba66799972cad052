package handlers

import (
	"github.com/amaumene/rankboard/internal/controllers"
	"github.com/amaumene/rankboard/internal/providers"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// StatusHandler handles status requests
type StatusHandler struct {
	sessions   *controllers.SessionManager
	dispatcher *controllers.Dispatcher
	logger     *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(sessions *controllers.SessionManager, dispatcher *controllers.Dispatcher, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		sessions:   sessions,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// CategoryStatus reports whether a category can be searched
type CategoryStatus struct {
	providers.CategoryInfo
	Enabled bool `json:"enabled"`
}

// StatusResponse represents the status response
type StatusResponse struct {
	Sessions        int              `json:"sessions"`
	SignedIn        int              `json:"signed_in"`
	TotalLists      int              `json:"total_lists"`
	ListsByStatus   map[string]int   `json:"lists_by_status"`
	ListsByCategory map[string]int   `json:"lists_by_category"`
	PendingWatched  int              `json:"pending_watched"`
	Categories      []CategoryStatus `json:"categories"`
}

// Status handles the status endpoint
func (h *StatusHandler) Status(c *fiber.Ctx) error {
	response := StatusResponse{
		ListsByStatus:   make(map[string]int),
		ListsByCategory: make(map[string]int),
	}

	for _, session := range h.sessions.Sessions() {
		response.Sessions++
		if session.CurrentUserID() != "" {
			response.SignedIn++
		}
		for _, list := range session.Store.Lists() {
			response.TotalLists++
			response.ListsByStatus[string(list.SyncStatus)]++
			response.ListsByCategory[string(list.Category)]++
		}
		response.PendingWatched += len(session.Store.PendingWatched())
	}

	for _, info := range providers.Categories() {
		response.Categories = append(response.Categories, CategoryStatus{
			CategoryInfo: info,
			Enabled:      h.dispatcher.Enabled(info.Category),
		})
	}

	return c.JSON(response)
}
