package googlebooks

import (
	"strings"

	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
)

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string       `json:"title"`
	Subtitle            string       `json:"subtitle"`
	Authors             []string     `json:"authors"`
	Publisher           string       `json:"publisher"`
	PublishedDate       string       `json:"publishedDate"`
	Description         string       `json:"description"`
	PageCount           int          `json:"pageCount"`
	Categories          []string     `json:"categories"`
	AverageRating       float64      `json:"averageRating"`
	RatingsCount        int          `json:"ratingsCount"`
	Language            string       `json:"language"`
	ImageLinks          imageLinks   `json:"imageLinks"`
	IndustryIdentifiers []identifier `json:"industryIdentifiers"`
}

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

type identifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

func (v volume) toRecord() providers.Record {
	info := v.VolumeInfo

	metadata := map[string]any{
		"description":   info.Description,
		"publisher":     info.Publisher,
		"pageCount":     info.PageCount,
		"averageRating": info.AverageRating,
		"ratingsCount":  info.RatingsCount,
		"language":      info.Language,
	}
	if info.Subtitle != "" {
		metadata["bookSubtitle"] = info.Subtitle
	}
	if len(info.Categories) > 0 {
		metadata["categories"] = info.Categories
	}
	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_13" || id.Type == "ISBN_10" {
			metadata[strings.ToLower(id.Type)] = id.Identifier
		}
	}

	return providers.Record{
		Provider: models.ProviderGoogleBooks,
		Category: models.CategoryBook,
		NativeID: v.ID,
		Name:     info.Title,
		Image:    coverURL(info.ImageLinks),
		Date:     info.PublishedDate,
		Subtitle: strings.Join(info.Authors, ", "),
		Metadata: metadata,
	}
}

// coverURL picks the larger thumbnail, upgrades http links and drops the page-curl effect
func coverURL(links imageLinks) string {
	cover := links.Thumbnail
	if cover == "" {
		cover = links.SmallThumbnail
	}
	if cover == "" {
		return ""
	}
	if strings.HasPrefix(cover, "http://") {
		cover = "https://" + strings.TrimPrefix(cover, "http://")
	}
	return strings.Replace(cover, "&edge=curl", "", 1)
}
