package models

import "time"

// List is a finalized, shareable ranked list (published or saved recommendation)
type List struct {
	ID          string     `json:"id"`
	ShareCode   *string    `json:"shareCode"`
	Kind        ListKind   `json:"kind"`
	Category    Category   `json:"category"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Theme       string     `json:"theme"`
	AccentColor string     `json:"accentColor"`
	Year        *int       `json:"year"`
	IsPublic    bool       `json:"isPublic"`
	Items       []Item     `json:"items"`
	OwnerID     string     `json:"ownerId,omitempty"`
	PublishedAt time.Time  `json:"publishedAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`

	SyncStatus SyncStatus `json:"syncStatus"`
}

// IsDeleted reports whether the list was soft-deleted
func (l *List) IsDeleted() bool {
	return l.DeletedAt != nil
}

// Clone returns a deep copy of the list
func (l *List) Clone() *List {
	out := *l
	if l.ShareCode != nil {
		code := *l.ShareCode
		out.ShareCode = &code
	}
	if l.Year != nil {
		y := *l.Year
		out.Year = &y
	}
	if l.DeletedAt != nil {
		d := *l.DeletedAt
		out.DeletedAt = &d
	}
	out.Items = CloneItems(l.Items)
	return &out
}

// ListMeta carries the user-editable fields supplied when a list is created
type ListMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Theme       string `json:"theme"`
	AccentColor string `json:"accentColor"`
	Year        *int   `json:"year"`
	IsPublic    bool   `json:"isPublic"`
}

// ListPatch captures a partial metadata update; nil fields are left unchanged.
// Items is set only when the push carries a structural change.
type ListPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Theme       *string `json:"theme,omitempty"`
	AccentColor *string `json:"accentColor,omitempty"`
	Year        *int    `json:"year,omitempty"`
	IsPublic    *bool   `json:"isPublic,omitempty"`
	Items       []Item  `json:"items,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p ListPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Theme == nil &&
		p.AccentColor == nil && p.Year == nil && p.IsPublic == nil && p.Items == nil
}

// Merge overlays other onto p, other winning on every field it sets
func (p ListPatch) Merge(other ListPatch) ListPatch {
	if other.Title != nil {
		p.Title = other.Title
	}
	if other.Description != nil {
		p.Description = other.Description
	}
	if other.Theme != nil {
		p.Theme = other.Theme
	}
	if other.AccentColor != nil {
		p.AccentColor = other.AccentColor
	}
	if other.Year != nil {
		p.Year = other.Year
	}
	if other.IsPublic != nil {
		p.IsPublic = other.IsPublic
	}
	if other.Items != nil {
		p.Items = other.Items
	}
	return p
}

// Apply writes the patch onto a list
func (p ListPatch) Apply(l *List) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Theme != nil {
		l.Theme = *p.Theme
	}
	if p.AccentColor != nil {
		l.AccentColor = *p.AccentColor
	}
	if p.Year != nil {
		y := *p.Year
		l.Year = &y
	}
	if p.IsPublic != nil {
		l.IsPublic = *p.IsPublic
	}
	if p.Items != nil {
		l.Items = CloneItems(p.Items)
	}
}

// ItemPatch updates the user annotations of one item in a list
type ItemPatch struct {
	Rating      *int    `json:"rating,omitempty"`
	ClearRating bool    `json:"clearRating,omitempty"`
	Comment     *string `json:"comment,omitempty"`
}

// TempList is the unpublished working list for one category
type TempList struct {
	Category  Category  `json:"category"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WatchedEntry is a previously consumed title imported in bulk
type WatchedEntry struct {
	ID         string        `json:"id"`
	Category   Category      `json:"category"`
	Title      string        `json:"title"`
	Year       *int          `json:"year"`
	Rating     *float64      `json:"rating"`
	Source     WatchedSource `json:"source"`
	UpstreamID string        `json:"upstreamId,omitempty"`
	ItemID     string        `json:"itemId,omitempty"`
	NeedsMatch bool          `json:"needsMatch"`
	ImportedAt time.Time     `json:"importedAt"`
}
