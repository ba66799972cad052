package jikan

import (
	"strconv"

	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
)

type listResponse struct {
	Data       []anime    `json:"data"`
	Pagination pagination `json:"pagination"`
}

type pagination struct {
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
}

type detailResponse struct {
	Data anime `json:"data"`
}

type anime struct {
	MalID        int64   `json:"mal_id"`
	Title        string  `json:"title"`
	TitleEnglish string  `json:"title_english"`
	Type         string  `json:"type"`
	Episodes     int     `json:"episodes"`
	Status       string  `json:"status"`
	Score        float64 `json:"score"`
	Rank         int     `json:"rank"`
	Members      int     `json:"members"`
	Synopsis     string  `json:"synopsis"`
	Year         int     `json:"year"`
	Aired        aired   `json:"aired"`
	Images       images  `json:"images"`
	Genres       []named `json:"genres"`
	Studios      []named `json:"studios"`
}

type aired struct {
	From string `json:"from"`
}

type images struct {
	JPG imageSet `json:"jpg"`
}

type imageSet struct {
	ImageURL      string `json:"image_url"`
	LargeImageURL string `json:"large_image_url"`
}

type named struct {
	Name string `json:"name"`
}

func names(values []named) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.Name)
	}
	return out
}

func (a anime) toRecord() providers.Record {
	image := a.Images.JPG.LargeImageURL
	if image == "" {
		image = a.Images.JPG.ImageURL
	}

	// aired.from is the full premiere date; year is only set for seasonal shows
	var date interface{} = a.Aired.From
	if a.Aired.From == "" && a.Year > 0 {
		date = a.Year
	}

	subtitle := ""
	if a.TitleEnglish != "" && a.TitleEnglish != a.Title {
		subtitle = a.TitleEnglish
	} else if len(a.Studios) > 0 {
		subtitle = a.Studios[0].Name
	}

	metadata := map[string]any{
		"type":     a.Type,
		"episodes": a.Episodes,
		"status":   a.Status,
		"score":    a.Score,
		"rank":     a.Rank,
		"members":  a.Members,
		"synopsis": a.Synopsis,
	}
	if len(a.Genres) > 0 {
		metadata["genres"] = names(a.Genres)
	}
	if len(a.Studios) > 0 {
		metadata["studios"] = names(a.Studios)
	}

	return providers.Record{
		Provider: models.ProviderJikan,
		Category: models.CategoryAnime,
		NativeID: strconv.FormatInt(a.MalID, 10),
		Name:     a.Title,
		Image:    image,
		Date:     date,
		Subtitle: subtitle,
		Metadata: metadata,
	}
}
