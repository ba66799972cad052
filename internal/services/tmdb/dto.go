package tmdb

import (
	"strconv"

	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
)

const imageBaseURL = "https://image.tmdb.org/t/p/w500"

type pagedResponse struct {
	Page         int      `json:"page"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
	Results      []result `json:"results"`
}

// result covers both movie (title, release_date) and tv (name, first_air_date) shapes
type result struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	OriginalTitle    string  `json:"original_title"`
	OriginalName     string  `json:"original_name"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	PosterPath       string  `json:"poster_path"`
	Overview         string  `json:"overview"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	OriginalLanguage string  `json:"original_language"`
	GenreIDs         []int   `json:"genre_ids"`
}

type genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// details is the /movie/{id} and /tv/{id} payload
type details struct {
	result
	Tagline          string  `json:"tagline"`
	Runtime          int     `json:"runtime"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	NumberOfEpisodes int     `json:"number_of_episodes"`
	Status           string  `json:"status"`
	Genres           []genre `json:"genres"`
}

func (r result) toRecord(category models.Category) providers.Record {
	name, original, date := r.Title, r.OriginalTitle, r.ReleaseDate
	if category == models.CategoryTV {
		name, original, date = r.Name, r.OriginalName, r.FirstAirDate
	}

	metadata := map[string]any{
		"overview":         r.Overview,
		"voteAverage":      r.VoteAverage,
		"voteCount":        r.VoteCount,
		"popularity":       r.Popularity,
		"originalLanguage": r.OriginalLanguage,
	}
	if original != "" && original != name {
		metadata["originalTitle"] = original
	}
	if len(r.GenreIDs) > 0 {
		metadata["genreIds"] = r.GenreIDs
	}

	return providers.Record{
		Provider:  models.ProviderTMDB,
		Category:  category,
		NativeID:  strconv.FormatInt(r.ID, 10),
		Name:      name,
		Image:     r.PosterPath,
		ImageBase: imageBaseURL,
		Date:      date,
		Metadata:  metadata,
	}
}

func (d details) toRecord(category models.Category) providers.Record {
	record := d.result.toRecord(category)
	record.Subtitle = d.Tagline

	if len(d.Genres) > 0 {
		names := make([]string, 0, len(d.Genres))
		for _, g := range d.Genres {
			names = append(names, g.Name)
		}
		record.Metadata["genres"] = names
	}
	if d.Status != "" {
		record.Metadata["status"] = d.Status
	}
	if category == models.CategoryTV {
		record.Metadata["seasons"] = d.NumberOfSeasons
		record.Metadata["episodes"] = d.NumberOfEpisodes
	} else if d.Runtime > 0 {
		record.Metadata["runtime"] = d.Runtime
	}
	return record
}
