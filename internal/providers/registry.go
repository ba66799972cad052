package providers

import "github.com/amaumene/rankboard/internal/models"

// CategoryInfo describes which provider owns a category and what it can do
type CategoryInfo struct {
	Category      models.Category `json:"category"`
	Provider      models.Provider `json:"provider"`
	Label         string          `json:"label"`
	HasYearFilter bool            `json:"hasYearFilter"`
	HasImages     bool            `json:"hasImages"`
}

// Searchable reports whether items can be fetched from an upstream for this category
func (c CategoryInfo) Searchable() bool {
	return c.Provider != models.ProviderNone && c.Provider != models.ProviderCustom && c.Category != models.CategoryCustom
}

var customCategory = CategoryInfo{
	Category: models.CategoryCustom,
	Provider: models.ProviderNone,
	Label:    "Custom",
}

// Display order
var registry = []CategoryInfo{
	{Category: models.CategoryMovie, Provider: models.ProviderTMDB, Label: "Movies", HasYearFilter: true, HasImages: true},
	{Category: models.CategoryTV, Provider: models.ProviderTMDB, Label: "TV Shows", HasYearFilter: true, HasImages: true},
	{Category: models.CategoryBook, Provider: models.ProviderGoogleBooks, Label: "Books", HasYearFilter: true, HasImages: true},
	{Category: models.CategoryPodcast, Provider: models.ProviderITunes, Label: "Podcasts", HasImages: true},
	{Category: models.CategoryAlbum, Provider: models.ProviderITunes, Label: "Albums", HasYearFilter: true, HasImages: true},
	{Category: models.CategoryAnime, Provider: models.ProviderJikan, Label: "Anime", HasYearFilter: true, HasImages: true},
	{Category: models.CategoryAthlete, Provider: models.ProviderSportsDB, Label: "Athletes", HasImages: true},
	{Category: models.CategorySportingEvent, Provider: models.ProviderSportsDB, Label: "Sporting Events", HasYearFilter: true, HasImages: true},
}

var byCategory = func() map[models.Category]CategoryInfo {
	m := make(map[models.Category]CategoryInfo, len(registry)+1)
	for _, info := range registry {
		m[info.Category] = info
	}
	m[models.CategoryCustom] = customCategory
	return m
}()

// Lookup resolves a category. Unknown categories resolve to the custom entry.
func Lookup(category models.Category) CategoryInfo {
	if info, ok := byCategory[category]; ok {
		return info
	}
	return customCategory
}

// Categories returns the searchable categories in display order
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(registry))
	copy(out, registry)
	return out
}

// IsKnown reports whether category is in the registry (custom included)
func IsKnown(category models.Category) bool {
	_, ok := byCategory[category]
	return ok
}
