package itunes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amaumene/rankboard/internal/config"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
	"github.com/amaumene/rankboard/internal/utils"
)

const podcastFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Hardcore History</title>
    <description>Dan Carlin's podcast</description>
    <language>en-us</language>
    <item>
      <title>Show 70 - Twilight of the Aesir</title>
      <pubDate>Mon, 01 Apr 2024 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Show 69 - Mania for Subjugation</title>
      <pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func newTestServer(t *testing.T, enrich bool) (*Client, *httptest.Server) {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			q := r.URL.Query()
			if q.Get("entity") == "album" {
				w.Write([]byte(`{"resultCount":2,"results":[
					{"wrapperType":"collection","collectionId":1440833098,"collectionName":"Abbey Road","artistName":"The Beatles","artworkUrl100":"https://is1.mzstatic.com/image/thumb/abbey/100x100bb.jpg","releaseDate":"1969-09-26T07:00:00Z","primaryGenreName":"Rock"},
					{"wrapperType":"collection","collectionId":1,"collectionName":"Abbey Road (Remaster)","artistName":"The Beatles","releaseDate":"2019-09-27T07:00:00Z"}
				]}`))
				return
			}
			w.Write([]byte(`{"resultCount":1,"results":[
				{"wrapperType":"track","kind":"podcast","collectionId":173001861,"trackId":173001861,"collectionName":"Dan Carlin's Hardcore History","artistName":"Dan Carlin","artworkUrl600":"https://is1.mzstatic.com/hh/600x600bb.jpg","feedUrl":"` + server.URL + `/feed.xml","releaseDate":"2024-04-01T10:00:00Z"}
			]}`))
		case "/lookup":
			if r.URL.Query().Get("id") == "404" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if r.URL.Query().Get("id") == "173001861" {
				w.Write([]byte(`{"resultCount":1,"results":[
					{"wrapperType":"track","kind":"podcast","collectionId":173001861,"collectionName":"Dan Carlin's Hardcore History","artistName":"Dan Carlin","feedUrl":"` + server.URL + `/feed.xml"}
				]}`))
				return
			}
			w.Write([]byte(`{"resultCount":0,"results":[]}`))
		case "/feed.xml":
			w.Header().Set("Content-Type", "application/rss+xml")
			w.Write([]byte(podcastFeed))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	cfg := config.Default(t.TempDir())
	cfg.ITunesBaseURL = server.URL
	cfg.EnrichPodcastFeeds = enrich
	return NewClient(cfg, nil, utils.NullLogger()), server
}

func TestSearchAlbums(t *testing.T) {
	client, _ := newTestServer(t, false)

	items, err := client.Search(context.Background(), "abbey road", models.CategoryAlbum, providers.Query{Year: providers.ParseYearFilter("1960s")})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected the remaster to be filtered out by year, got %d items", len(items))
	}

	album := items[0]
	if album.ID != "itunes_album_1440833098" || album.Subtitle != "The Beatles" {
		t.Errorf("unexpected album %+v", album)
	}
	if album.Image == nil || *album.Image != "https://is1.mzstatic.com/image/thumb/abbey/600x600bb.jpg" {
		t.Errorf("expected upscaled artwork, got %v", album.Image)
	}
	if album.Year == nil || *album.Year != 1969 {
		t.Errorf("expected 1969, got %v", album.Year)
	}
}

func TestGetPodcastWithFeedEnrichment(t *testing.T) {
	client, _ := newTestServer(t, true)

	item, err := client.GetByID(context.Background(), "itunes_podcast_173001861", models.CategoryPodcast)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if item == nil {
		t.Fatal("expected podcast")
	}
	if item.Metadata["episodeCount"] != 2 {
		t.Errorf("expected 2 episodes, got %v", item.Metadata["episodeCount"])
	}
	if item.Metadata["latestEpisode"] != "Show 70 - Twilight of the Aesir" {
		t.Errorf("unexpected latest episode %v", item.Metadata["latestEpisode"])
	}
	if item.Metadata["language"] != "en-us" {
		t.Errorf("unexpected language %v", item.Metadata["language"])
	}
}

func TestGetPodcastWithoutEnrichment(t *testing.T) {
	client, _ := newTestServer(t, false)

	item, err := client.GetByID(context.Background(), "173001861", models.CategoryPodcast)
	if err != nil || item == nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if _, ok := item.Metadata["episodeCount"]; ok {
		t.Error("feed should not be fetched when enrichment is disabled")
	}
}

func TestGetByIDUnknown(t *testing.T) {
	client, _ := newTestServer(t, false)

	item, err := client.GetByID(context.Background(), "42", models.CategoryPodcast)
	if err != nil || item != nil {
		t.Errorf("expected nil, nil for an unknown id, got %+v, %v", item, err)
	}

	item, err = client.GetByID(context.Background(), "itunes_podcast_404", models.CategoryPodcast)
	if err != nil || item != nil {
		t.Errorf("expected nil, nil for a 404 lookup, got %+v, %v", item, err)
	}
}

func TestDiscoverPodcasts(t *testing.T) {
	client, _ := newTestServer(t, false)

	items, err := client.Discover(context.Background(), models.CategoryPodcast, providers.Query{Limit: 5})
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	// Every term returns the same show; it must appear once
	if len(items) != 1 {
		t.Errorf("expected 1 de-duplicated podcast, got %d", len(items))
	}
}
