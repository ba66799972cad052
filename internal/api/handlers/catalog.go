package handlers

import (
	"strings"

	"github.com/amaumene/rankboard/internal/controllers"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// CatalogHandler serves search, discovery and item lookup
type CatalogHandler struct {
	dispatcher *controllers.Dispatcher
	logger     *logrus.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(dispatcher *controllers.Dispatcher, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func categoryParam(raw string) (models.Category, error) {
	category := models.Category(raw)
	if !providers.IsKnown(category) {
		return "", badRequest("unknown category " + raw)
	}
	return category, nil
}

// Categories lists every category and whether it can be searched
func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	out := make([]CategoryStatus, 0)
	for _, info := range providers.Categories() {
		out = append(out, CategoryStatus{
			CategoryInfo: info,
			Enabled:      h.dispatcher.Enabled(info.Category),
		})
	}
	return c.JSON(out)
}

// Search handles GET /api/search?q=&category=&year=&limit=
func (h *CatalogHandler) Search(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return badRequest("q is required")
	}
	category, err := categoryParam(c.Query("category"))
	if err != nil {
		return err
	}

	items := h.dispatcher.Search(c.UserContext(), query, category, controllers.SearchOptions{
		Limit: c.QueryInt("limit", 0),
		Year:  c.Query("year"),
	})
	return c.JSON(items)
}

// SearchAll handles GET /api/search/all?q=&year=&limit=
func (h *CatalogHandler) SearchAll(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return badRequest("q is required")
	}

	results := h.dispatcher.SearchAll(c.UserContext(), query, controllers.SearchOptions{
		Limit: c.QueryInt("limit", 0),
		Year:  c.Query("year"),
	})
	return c.JSON(results)
}

// Discover handles GET /api/discover/:category?year=&limit=
func (h *CatalogHandler) Discover(c *fiber.Ctx) error {
	category, err := categoryParam(c.Params("category"))
	if err != nil {
		return err
	}

	items := h.dispatcher.Discover(c.UserContext(), category, controllers.DiscoverOptions{
		Year:  c.Query("year"),
		Limit: c.QueryInt("limit", 0),
	})
	return c.JSON(items)
}

// Item handles GET /api/items/:category/:id
func (h *CatalogHandler) Item(c *fiber.Ctx) error {
	category, err := categoryParam(c.Params("category"))
	if err != nil {
		return err
	}

	item := h.dispatcher.GetByID(c.UserContext(), c.Params("id"), category)
	if item == nil {
		return fiber.NewError(fiber.StatusNotFound, "item not found")
	}
	return c.JSON(item)
}
