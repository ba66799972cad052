package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amaumene/rankboard/internal/config"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
	"github.com/amaumene/rankboard/internal/utils"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default(t.TempDir())
	cfg.TMDBBaseURL = server.URL
	cfg.TMDBAPIKey = "test-key"
	return NewClient(cfg, utils.NullLogger())
}

func TestSearchMovie(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("query") != "Dune" || q.Get("api_key") != "test-key" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Get("primary_release_year") != "2021" {
			t.Errorf("expected single year pushed upstream, got %q", q.Get("primary_release_year"))
		}
		w.Write([]byte(`{"page":1,"total_pages":1,"results":[
			{"id":438631,"title":"Dune","original_title":"Dune","release_date":"2021-09-15","poster_path":"/d5NXSklXo0qyIYkgV94XAgMIckC.jpg","vote_average":7.8}
		]}`))
	})

	items, err := client.Search(context.Background(), "Dune", models.CategoryMovie, providers.Query{Limit: 10, Year: providers.ParseYearFilter("2021")})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.ID != "tmdb_movie_438631" || item.ExternalID != "438631" {
		t.Errorf("unexpected ids %q %q", item.ID, item.ExternalID)
	}
	if item.Year == nil || *item.Year != 2021 {
		t.Errorf("expected year 2021, got %v", item.Year)
	}
	if item.Image == nil || !strings.HasPrefix(*item.Image, "https://image.tmdb.org/t/p/w500/") {
		t.Errorf("expected absolute poster url, got %v", item.Image)
	}
	if _, ok := item.Metadata["originalTitle"]; ok {
		t.Error("original title equal to title should not be kept")
	}
}

func TestDiscoverTrendingAndDecade(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/discover/tv" {
			q := r.URL.Query()
			if q.Get("first_air_date.gte") != "1990-01-01" || q.Get("first_air_date.lte") != "1999-12-31" {
				t.Errorf("unexpected date bounds %s", r.URL.RawQuery)
			}
		}
		w.Write([]byte(`{"page":1,"total_pages":1,"results":[
			{"id":1,"name":"Twin Peaks","first_air_date":"1990-04-08","poster_path":"/tp.jpg"},
			{"id":2,"name":"","first_air_date":"1991-01-01"}
		]}`))
	})

	items, err := client.Discover(context.Background(), models.CategoryTV, providers.Query{Limit: 5})
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Twin Peaks" {
		t.Errorf("expected the nameless record to be dropped, got %+v", items)
	}

	if _, err := client.Discover(context.Background(), models.CategoryTV, providers.Query{Year: providers.ParseYearFilter("decade-1990")}); err != nil {
		t.Fatalf("Discover with decade failed: %v", err)
	}

	if len(paths) != 2 || paths[0] != "/trending/tv/week" || paths[1] != "/discover/tv" {
		t.Errorf("unexpected request paths %v", paths)
	}
}

func TestSearchPagesUntilLimit(t *testing.T) {
	var pages []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		var b strings.Builder
		b.WriteString(`{"page":` + page + `,"total_pages":5,"results":[`)
		for i := 0; i < pageSize; i++ {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(`{"id":` + page + fmt.Sprintf("%02d", i) + `,"title":"Movie"}`)
		}
		b.WriteString(`]}`)
		w.Write([]byte(b.String()))
	})

	items, err := client.Search(context.Background(), "movie", models.CategoryMovie, providers.Query{Limit: 30})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(items) != 30 {
		t.Errorf("expected 30 items, got %d", len(items))
	}
	if len(pages) != 2 {
		t.Errorf("expected 2 page requests, got %v", pages)
	}
}

func TestGetByID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/438631":
			w.Write([]byte(`{"id":438631,"title":"Dune","release_date":"2021-09-15","tagline":"Beyond fear, destiny awaits.","runtime":155,"genres":[{"id":878,"name":"Science Fiction"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	item, err := client.GetByID(context.Background(), "tmdb_movie_438631", models.CategoryMovie)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if item == nil || item.ExternalID != "438631" {
		t.Fatalf("unexpected item %+v", item)
	}
	if item.Subtitle != "Beyond fear, destiny awaits." {
		t.Errorf("unexpected subtitle %q", item.Subtitle)
	}
	if genres, ok := item.Metadata["genres"].([]string); !ok || genres[0] != "Science Fiction" {
		t.Errorf("unexpected genres %v", item.Metadata["genres"])
	}

	missing, err := client.GetByID(context.Background(), "999", models.CategoryMovie)
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for a missing id, got %+v, %v", missing, err)
	}
}

func TestRateLimited(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "Dune", models.CategoryMovie, providers.Query{})
	if !errors.Is(err, providers.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if calls != 1 {
		t.Errorf("rate limited requests must not be retried, got %d calls", calls)
	}
}

func TestUnsupportedCategory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := client.Search(context.Background(), "x", models.CategoryBook, providers.Query{}); err == nil {
		t.Error("expected an error for a non-TMDB category")
	}
}
