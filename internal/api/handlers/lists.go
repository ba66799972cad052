package handlers

import (
	"strings"

	"github.com/amaumene/rankboard/internal/api/middleware"
	"github.com/amaumene/rankboard/internal/controllers"
	"github.com/amaumene/rankboard/internal/lists"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ListsHandler serves temp lists, published lists, shares and recommendations
// for the caller's session
type ListsHandler struct {
	sessions *controllers.SessionManager
	logger   *logrus.Logger
}

// NewListsHandler creates a new lists handler
func NewListsHandler(sessions *controllers.SessionManager, logger *logrus.Logger) *ListsHandler {
	return &ListsHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// CustomItemRequest is the body of POST /api/custom-items
type CustomItemRequest struct {
	Name     string  `json:"name"`
	Subtitle string  `json:"subtitle"`
	Image    *string `json:"image"`
	Year     *int    `json:"year"`
}

// ListStatusResponse reports the sync state of one list
type ListStatusResponse struct {
	ID     string            `json:"id"`
	Status models.SyncStatus `json:"status"`
}

func store(c *fiber.Ctx) *lists.Store {
	return middleware.CurrentSession(c).Store
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}

// Temp lists

// TempLists handles GET /api/temp
func (h *ListsHandler) TempLists(c *fiber.Ctx) error {
	return c.JSON(store(c).TempLists())
}

// TempList handles GET /api/temp/:category
func (h *ListsHandler) TempList(c *fiber.Ctx) error {
	category, err := categoryParam(c.Params("category"))
	if err != nil {
		return err
	}
	return c.JSON(store(c).TempList(category))
}

// AddToTemp handles POST /api/temp/:category/items
func (h *ListsHandler) AddToTemp(c *fiber.Ctx) error {
	category, err := categoryParam(c.Params("category"))
	if err != nil {
		return err
	}
	var item models.Item
	if err := parseBody(c, &item); err != nil {
		return err
	}

	tl, err := store(c).AddToTemp(category, item)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(tl)
}

// RemoveFromTemp handles DELETE /api/temp/:category/items/:itemId
func (h *ListsHandler) RemoveFromTemp(c *fiber.Ctx) error {
	category, err := categoryParam(c.Params("category"))
	if err != nil {
		return err
	}
	tl, err := store(c).RemoveFromTemp(category, c.Params("itemId"))
	if err != nil {
		return err
	}
	return c.JSON(tl)
}

// MoveTempItem handles POST /api/temp/:category/items/:itemId/move
func (h *ListsHandler) MoveTempItem(c *fiber.Ctx) error {
	category, err := categoryParam(c.Params("category"))
	if err != nil {
		return err
	}
	var move lists.Move
	if err := parseBody(c, &move); err != nil {
		return err
	}

	tl, err := store(c).MoveTempItem(category, c.Params("itemId"), move)
	if err != nil {
		return err
	}
	return c.JSON(tl)
}

// ClearTemp handles DELETE /api/temp/:category
func (h *ListsHandler) ClearTemp(c *fiber.Ctx) error {
	category, err := categoryParam(c.Params("category"))
	if err != nil {
		return err
	}
	return c.JSON(store(c).ClearTemp(category))
}

// Publish handles POST /api/temp/:category/publish
func (h *ListsHandler) Publish(c *fiber.Ctx) error {
	category, err := categoryParam(c.Params("category"))
	if err != nil {
		return err
	}
	var meta models.ListMeta
	if err := parseBody(c, &meta); err != nil {
		return err
	}

	list, err := store(c).Publish(c.UserContext(), category, meta)
	if err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"device":   middleware.CurrentSession(c).DeviceID,
		"list":     list.ID,
		"category": category,
		"items":    len(list.Items),
	}).Info("List published")

	return c.Status(fiber.StatusCreated).JSON(list)
}

// CustomItem handles POST /api/custom-items. The item is returned for the
// client to place in any list.
func (h *ListsHandler) CustomItem(c *fiber.Ctx) error {
	var req CustomItemRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return badRequest("name is required")
	}
	return c.Status(fiber.StatusCreated).JSON(lists.NewCustomItem(req.Name, req.Subtitle, req.Image, req.Year))
}

// Published lists

// Lists handles GET /api/lists
func (h *ListsHandler) Lists(c *fiber.Ctx) error {
	return c.JSON(store(c).Lists())
}

// SearchLists handles GET /api/lists/search?q=
func (h *ListsHandler) SearchLists(c *fiber.Ctx) error {
	return c.JSON(store(c).SearchLists(c.Query("q")))
}

// GetList handles GET /api/lists/:id
func (h *ListsHandler) GetList(c *fiber.Ctx) error {
	list, err := store(c).Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// UpdateList handles PATCH /api/lists/:id. Items change through the item routes only.
func (h *ListsHandler) UpdateList(c *fiber.Ctx) error {
	var patch models.ListPatch
	if err := parseBody(c, &patch); err != nil {
		return err
	}
	patch.Items = nil

	list, err := store(c).UpdateMetadata(c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// DeleteList handles DELETE /api/lists/:id
func (h *ListsHandler) DeleteList(c *fiber.Ctx) error {
	if err := store(c).DeleteList(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddItem handles POST /api/lists/:id/items
func (h *ListsHandler) AddItem(c *fiber.Ctx) error {
	var item models.Item
	if err := parseBody(c, &item); err != nil {
		return err
	}
	list, err := store(c).AddItem(c.Params("id"), item)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(list)
}

// RemoveItem handles DELETE /api/lists/:id/items/:itemId
func (h *ListsHandler) RemoveItem(c *fiber.Ctx) error {
	list, err := store(c).RemoveItem(c.Params("id"), c.Params("itemId"))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// MoveItem handles POST /api/lists/:id/items/:itemId/move
func (h *ListsHandler) MoveItem(c *fiber.Ctx) error {
	var move lists.Move
	if err := parseBody(c, &move); err != nil {
		return err
	}
	list, err := store(c).MoveItem(c.Params("id"), c.Params("itemId"), move)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// UpdateItem handles PATCH /api/lists/:id/items/:itemId
func (h *ListsHandler) UpdateItem(c *fiber.Ctx) error {
	var patch models.ItemPatch
	if err := parseBody(c, &patch); err != nil {
		return err
	}
	list, err := store(c).UpdateItem(c.Params("id"), c.Params("itemId"), patch)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// ListStatus handles GET /api/lists/:id/status
func (h *ListsHandler) ListStatus(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	id := c.Params("id")
	if _, err := session.Store.Get(id); err != nil {
		return err
	}
	return c.JSON(ListStatusResponse{ID: id, Status: session.Sync.Status(id)})
}

// Sharing and recommendations

// Shared handles GET /api/share/:code
func (h *ListsHandler) Shared(c *fiber.Ctx) error {
	code := c.Params("code")
	if !lists.IsValidShareCode(code) {
		return badRequest("malformed share code")
	}

	list, err := h.sessions.FindShared(c.UserContext(), middleware.CurrentSession(c), code)
	if err != nil {
		return err
	}
	if list == nil {
		return fiber.NewError(fiber.StatusNotFound, "no list with that share code")
	}
	return c.JSON(list)
}

// SaveShared handles POST /api/share/:code/save, keeping the shared list as a recommendation
func (h *ListsHandler) SaveShared(c *fiber.Ctx) error {
	code := c.Params("code")
	if !lists.IsValidShareCode(code) {
		return badRequest("malformed share code")
	}

	session := middleware.CurrentSession(c)
	list, err := h.sessions.FindShared(c.UserContext(), session, code)
	if err != nil {
		return err
	}
	if list == nil {
		return fiber.NewError(fiber.StatusNotFound, "no list with that share code")
	}
	return c.Status(fiber.StatusCreated).JSON(session.Store.SaveRecommendation(list))
}

// Recommendations handles GET /api/recommendations
func (h *ListsHandler) Recommendations(c *fiber.Ctx) error {
	return c.JSON(store(c).Recommendations())
}

// DeleteRecommendation handles DELETE /api/recommendations/:id
func (h *ListsHandler) DeleteRecommendation(c *fiber.Ctx) error {
	if err := store(c).DeleteRecommendation(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
