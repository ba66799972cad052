package handlers

import (
	"github.com/amaumene/rankboard/internal/api/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// SessionHandler exposes the caller's sync state
type SessionHandler struct {
	logger *logrus.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(logger *logrus.Logger) *SessionHandler {
	return &SessionHandler{logger: logger}
}

// SessionResponse describes the caller's session
type SessionResponse struct {
	DeviceID string `json:"deviceId"`
	UserID   string `json:"userId,omitempty"`
	SignedIn bool   `json:"signedIn"`
	Lists    int    `json:"lists"`
}

// Current handles GET /api/session
func (h *SessionHandler) Current(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	userID := session.CurrentUserID()
	return c.JSON(SessionResponse{
		DeviceID: session.DeviceID,
		UserID:   userID,
		SignedIn: userID != "",
		Lists:    len(session.Store.Lists()),
	})
}

// Sync handles POST /api/session/sync: pull the user's lists and merge them
func (h *SessionHandler) Sync(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)

	result, err := session.Sync.PullAndMerge(c.UserContext())
	if err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"device":     session.DeviceID,
		"remote":     result.Remote,
		"local_only": result.LocalOnly,
		"pushed":     result.Pushed,
	}).Info("Session synced")

	return c.JSON(result)
}
