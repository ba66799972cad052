package providers

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/utils"
)

// ErrInvalidRecord is returned when a raw record lacks a name or native id
var ErrInvalidRecord = errors.New("invalid upstream record")

// Record is the per-adapter projection of a raw upstream payload.
// Each adapter's DTO converts itself into a Record; nothing past Normalize
// sees upstream-specific shapes.
type Record struct {
	Provider models.Provider
	Category models.Category
	NativeID string
	Name     string

	// Image may be absolute or relative; ImageBase completes relative paths
	Image     string
	ImageBase string

	// Date is whatever the upstream sent: full date, year-only string or number
	Date interface{}

	Subtitle string
	Metadata map[string]any
}

// Normalize converts a Record into the canonical Item
func Normalize(r Record) (models.Item, error) {
	name := strings.TrimSpace(r.Name)
	nativeID := strings.TrimSpace(r.NativeID)
	if name == "" || nativeID == "" {
		return models.Item{}, fmt.Errorf("%w: %s %s record missing name or id", ErrInvalidRecord, r.Provider, r.Category)
	}

	item := models.Item{
		ID:         models.NewItemID(r.Provider, r.Category, nativeID),
		ExternalID: nativeID,
		Category:   r.Category,
		Provider:   r.Provider,
		Name:       name,
		Image:      absoluteImage(r.Image, r.ImageBase),
		Year:       utils.ExtractYear(r.Date),
		Subtitle:   strings.TrimSpace(r.Subtitle),
	}

	if len(r.Metadata) > 0 {
		item.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			if v == nil {
				continue
			}
			item.Metadata[k] = v
		}
	}

	return item, nil
}

// NormalizeAll normalizes records in order, dropping invalid ones
func NormalizeAll(records []Record) []models.Item {
	items := make([]models.Item, 0, len(records))
	for _, r := range records {
		item, err := Normalize(r)
		if err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

// absoluteImage returns an absolute https/http URL or nil
func absoluteImage(image, base string) *string {
	image = strings.TrimSpace(image)
	if image == "" {
		return nil
	}

	if strings.HasPrefix(image, "//") {
		image = "https:" + image
	}

	if u, err := url.Parse(image); err == nil && u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil
		}
		return &image
	}

	if base == "" {
		return nil
	}
	full := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(image, "/")
	if u, err := url.Parse(full); err != nil || !u.IsAbs() {
		return nil
	}
	return &full
}
