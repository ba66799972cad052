package itunes

import (
	"strconv"
	"strings"

	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
)

type searchResponse struct {
	ResultCount int      `json:"resultCount"`
	Results     []result `json:"results"`
}

type result struct {
	WrapperType       string   `json:"wrapperType"`
	Kind              string   `json:"kind"`
	CollectionType    string   `json:"collectionType"`
	CollectionID      int64    `json:"collectionId"`
	TrackID           int64    `json:"trackId"`
	CollectionName    string   `json:"collectionName"`
	TrackName         string   `json:"trackName"`
	ArtistName        string   `json:"artistName"`
	ArtworkURL100     string   `json:"artworkUrl100"`
	ArtworkURL600     string   `json:"artworkUrl600"`
	ReleaseDate       string   `json:"releaseDate"`
	PrimaryGenreName  string   `json:"primaryGenreName"`
	Genres            []string `json:"genres"`
	TrackCount        int      `json:"trackCount"`
	FeedURL           string   `json:"feedUrl"`
	CollectionViewURL string   `json:"collectionViewUrl"`
	ContentRating     string   `json:"contentAdvisoryRating"`
	Country           string   `json:"country"`
}

// matches reports whether a lookup result is the entity kind the category expects.
// Album lookups also return the album's tracks.
func (r result) matches(category models.Category) bool {
	if category == models.CategoryPodcast {
		return r.Kind == "podcast" || (r.WrapperType == "track" && r.FeedURL != "")
	}
	return r.WrapperType == "collection"
}

func (r result) toRecord(category models.Category) providers.Record {
	name := r.CollectionName
	if name == "" {
		name = r.TrackName
	}

	metadata := map[string]any{
		"genre":      r.PrimaryGenreName,
		"trackCount": r.TrackCount,
		"url":        r.CollectionViewURL,
	}
	if len(r.Genres) > 0 {
		metadata["genres"] = r.Genres
	}
	if r.ContentRating != "" {
		metadata["contentRating"] = r.ContentRating
	}
	if category == models.CategoryPodcast && r.FeedURL != "" {
		metadata["feedUrl"] = r.FeedURL
	}

	return providers.Record{
		Provider: models.ProviderITunes,
		Category: category,
		NativeID: strconv.FormatInt(r.CollectionID, 10),
		Name:     name,
		Image:    artwork(r),
		Date:     r.ReleaseDate,
		Subtitle: r.ArtistName,
		Metadata: metadata,
	}
}

// artwork prefers the 600px image, upscaling the 100px URL when that is all we have
func artwork(r result) string {
	if r.ArtworkURL600 != "" {
		return r.ArtworkURL600
	}
	return strings.Replace(r.ArtworkURL100, "100x100bb", "600x600bb", 1)
}
