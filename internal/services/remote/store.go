package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amaumene/rankboard/internal/lists"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// ErrNotAuthenticated is returned for calls made without a user id
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotFound is returned for unknown or deleted lists
	ErrNotFound = errors.New("list not found")
)

// Store is the remote document store holding every user's published lists
type Store struct {
	db        *gorm.DB
	allocator *lists.ShareCodeAllocator
	logger    *logrus.Logger
}

// Open opens (or creates) the sqlite file backing the remote store
func Open(path string, logger *logrus.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open remote store: %w", err)
	}
	return New(db, logger)
}

// New wraps an existing gorm connection and migrates the schema
func New(db *gorm.DB, logger *logrus.Logger) (*Store, error) {
	if err := db.AutoMigrate(&ListRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate remote store: %w", err)
	}

	s := &Store{db: db, logger: logger}
	s.allocator = lists.NewShareCodeAllocator(s, logger)
	return s, nil
}

// Close releases the underlying connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FetchLists returns the live lists owned by userID, most recently updated first
func (s *Store) FetchLists(ctx context.Context, userID string) ([]*models.List, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	var records []ListRecord
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("updated_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lists: %w", err)
	}

	out := make([]*models.List, 0, len(records))
	for i := range records {
		list, err := records[i].toList()
		if err != nil {
			s.logger.WithError(err).WithField("list", records[i].ID).Warn("Skipping unreadable remote list")
			continue
		}
		out = append(out, list)
	}
	return out, nil
}

// CreateList stores a list for userID. The client's share code is kept when it is
// free, otherwise the server assigns one. Re-creating an existing list of the same
// owner overwrites it (and revives it if deleted), so retried pushes are harmless.
func (s *Store) CreateList(ctx context.Context, userID string, list *models.List) (*models.List, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if list == nil || list.ID == "" {
		return nil, fmt.Errorf("list id is required")
	}

	var existing ListRecord
	err := s.db.WithContext(ctx).Unscoped().Where("id = ?", list.ID).First(&existing).Error
	switch {
	case err == nil:
		if existing.OwnerID != userID {
			return nil, fmt.Errorf("list %s belongs to another user", list.ID)
		}
		rec, err := newRecord(userID, list)
		if err != nil {
			return nil, err
		}
		rec.ShareCode = existing.ShareCode
		rec.CreatedAt = existing.CreatedAt
		if err := s.db.WithContext(ctx).Unscoped().Save(rec).Error; err != nil {
			return nil, fmt.Errorf("failed to update list %s: %w", list.ID, err)
		}
		return rec.toList()
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to look up list %s: %w", list.ID, err)
	}

	rec, err := newRecord(userID, list)
	if err != nil {
		return nil, err
	}
	if !s.codeUsable(ctx, rec.ShareCode) {
		rec.ShareCode = s.allocator.Allocate(ctx)
	}

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("failed to create list %s: %w", list.ID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"list":       rec.ID,
		"owner":      userID,
		"share_code": rec.ShareCode,
	}).Debug("Stored remote list")

	return rec.toList()
}

func (s *Store) codeUsable(ctx context.Context, code string) bool {
	if !lists.IsValidShareCode(code) {
		return false
	}
	taken, err := s.ShareCodeExists(ctx, code)
	return err == nil && !taken
}

// UpdateList applies a partial update to one of userID's lists
func (s *Store) UpdateList(ctx context.Context, userID, listID string, patch models.ListPatch) error {
	if userID == "" {
		return ErrNotAuthenticated
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec ListRecord
		err := tx.Where("id = ? AND owner_id = ?", listID, userID).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("list %s: %w", listID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load list %s: %w", listID, err)
		}

		if patch.Title != nil {
			rec.Title = *patch.Title
		}
		if patch.Description != nil {
			rec.Description = *patch.Description
		}
		if patch.Theme != nil {
			rec.Theme = *patch.Theme
		}
		if patch.AccentColor != nil {
			rec.AccentColor = *patch.AccentColor
		}
		if patch.Year != nil {
			y := *patch.Year
			rec.Year = &y
		}
		if patch.IsPublic != nil {
			rec.IsPublic = *patch.IsPublic
		}
		if patch.Items != nil {
			items, err := json.Marshal(patch.Items)
			if err != nil {
				return fmt.Errorf("failed to encode items: %w", err)
			}
			rec.Items = datatypes.JSON(items)
		}

		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("failed to update list %s: %w", listID, err)
		}
		return nil
	})
}

// DeleteList soft-deletes one of userID's lists
func (s *Store) DeleteList(ctx context.Context, userID, listID string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}

	result := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", listID, userID).
		Delete(&ListRecord{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete list %s: %w", listID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}
	return nil
}

// FindByShareCode returns the live list carrying code, whoever owns it
func (s *Store) FindByShareCode(ctx context.Context, code string) (*models.List, error) {
	var rec ListRecord
	err := s.db.WithContext(ctx).Where("share_code = ?", code).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("share code %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up share code %s: %w", code, err)
	}
	return rec.toList()
}

// ShareCodeExists reports whether code was ever issued, deleted lists included
func (s *Store) ShareCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Unscoped().
		Model(&ListRecord{}).
		Where("share_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check share code: %w", err)
	}
	return count > 0, nil
}
