package models

import (
	"fmt"
	"strings"
)

// Item is the canonical unit of content, whatever upstream it came from
type Item struct {
	ID         string         `json:"id"`
	ExternalID string         `json:"externalId"`
	Category   Category       `json:"category"`
	Provider   Provider       `json:"provider"`
	Name       string         `json:"name"`
	Image      *string        `json:"image"`
	Year       *int           `json:"year"`
	Subtitle   string         `json:"subtitle,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`

	// User annotations, only set once the item is placed in a list
	Rank       int    `json:"rank,omitempty"`
	UserRating *int   `json:"userRating,omitempty"`
	Comment    string `json:"comment,omitempty"`
}

// NewItemID builds the namespaced item id "{provider}_{category}_{nativeID}".
// Two records with the same provider and native id always get the same id.
func NewItemID(provider Provider, category Category, nativeID string) string {
	return fmt.Sprintf("%s_%s_%s", provider, category, nativeID)
}

// ParseItemID splits a namespaced id. ok is false when id carries no namespace.
func ParseItemID(id string) (provider Provider, category Category, nativeID string, ok bool) {
	parts := strings.SplitN(id, "_", 3)
	if len(parts) != 3 || parts[2] == "" {
		return "", "", "", false
	}
	if !isKnownProvider(Provider(parts[0])) {
		return "", "", "", false
	}
	return Provider(parts[0]), Category(parts[1]), parts[2], true
}

// StripItemIDPrefix returns the provider-native id, whether or not id is namespaced
func StripItemIDPrefix(id string) string {
	if _, _, nativeID, ok := ParseItemID(id); ok {
		return nativeID
	}
	return id
}

func isKnownProvider(p Provider) bool {
	switch p {
	case ProviderTMDB, ProviderGoogleBooks, ProviderITunes, ProviderJikan, ProviderSportsDB, ProviderCustom, ProviderNone:
		return true
	}
	return false
}

// Clone returns a deep copy so list mutations never alias adapter results
func (i Item) Clone() Item {
	out := i
	if i.Image != nil {
		img := *i.Image
		out.Image = &img
	}
	if i.Year != nil {
		y := *i.Year
		out.Year = &y
	}
	if i.UserRating != nil {
		r := *i.UserRating
		out.UserRating = &r
	}
	if i.Metadata != nil {
		out.Metadata = make(map[string]any, len(i.Metadata))
		for k, v := range i.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// WithoutAnnotations strips rank, rating and comment
func (i Item) WithoutAnnotations() Item {
	out := i.Clone()
	out.Rank = 0
	out.UserRating = nil
	out.Comment = ""
	return out
}

// CloneItems deep-copies a slice of items
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
