package remote

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/amaumene/rankboard/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListRecord is the server-side row for a published list
type ListRecord struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	OwnerID     string         `gorm:"size:64;not null;index:idx_list_owner" json:"owner_id"`
	ShareCode   string         `gorm:"size:6;not null;uniqueIndex:idx_list_share_code" json:"share_code"`
	Category    string         `gorm:"size:32;not null" json:"category"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Theme       string         `gorm:"size:50" json:"theme"`
	AccentColor string         `gorm:"size:20" json:"accent_color"`
	Year        *int           `json:"year"`
	IsPublic    bool           `gorm:"default:false" json:"is_public"`
	Items       datatypes.JSON `json:"items"`
	PublishedAt time.Time      `json:"published_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for ListRecord
func (ListRecord) TableName() string {
	return "ranked_lists"
}

func newRecord(ownerID string, list *models.List) (*ListRecord, error) {
	items, err := json.Marshal(list.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}

	rec := &ListRecord{
		ID:          list.ID,
		OwnerID:     ownerID,
		Category:    string(list.Category),
		Title:       list.Title,
		Description: list.Description,
		Theme:       list.Theme,
		AccentColor: list.AccentColor,
		Year:        list.Year,
		IsPublic:    list.IsPublic,
		Items:       datatypes.JSON(items),
		PublishedAt: list.PublishedAt,
	}
	if list.ShareCode != nil {
		rec.ShareCode = *list.ShareCode
	}
	return rec, nil
}

func (r *ListRecord) toList() (*models.List, error) {
	var items []models.Item
	if len(r.Items) > 0 {
		if err := json.Unmarshal(r.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to decode items of list %s: %w", r.ID, err)
		}
	}
	if items == nil {
		items = []models.Item{}
	}

	code := r.ShareCode
	list := &models.List{
		ID:          r.ID,
		ShareCode:   &code,
		Kind:        models.ListKindPublished,
		Category:    models.Category(r.Category),
		Title:       r.Title,
		Description: r.Description,
		Theme:       r.Theme,
		AccentColor: r.AccentColor,
		Year:        r.Year,
		IsPublic:    r.IsPublic,
		Items:       items,
		OwnerID:     r.OwnerID,
		PublishedAt: r.PublishedAt,
		UpdatedAt:   r.UpdatedAt,
		SyncStatus:  models.SyncStatusSynced,
	}
	if r.DeletedAt.Valid {
		t := r.DeletedAt.Time
		list.DeletedAt = &t
	}
	return list, nil
}
