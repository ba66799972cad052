package jikan

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amaumene/rankboard/internal/config"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
	"github.com/amaumene/rankboard/internal/utils"
)

func newTestClient(t *testing.T, rps float64, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default(t.TempDir())
	cfg.JikanBaseURL = server.URL
	cfg.JikanRPS = rps
	return NewClient(cfg, utils.NullLogger())
}

const bebop = `{"mal_id":1,"title":"Cowboy Bebop","title_english":"Cowboy Bebop","type":"TV","episodes":26,"score":8.75,
	"aired":{"from":"1998-04-03T00:00:00+00:00"},"images":{"jpg":{"image_url":"https://cdn.myanimelist.net/images/anime/4/19644.jpg","large_image_url":"https://cdn.myanimelist.net/images/anime/4/19644l.jpg"}},
	"genres":[{"name":"Action"},{"name":"Sci-Fi"}],"studios":[{"name":"Sunrise"}]}`

func TestSearchPushesYearRange(t *testing.T) {
	client := newTestClient(t, 100, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/anime" || q.Get("q") != "bebop" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if q.Get("start_date") != "1990-01-01" || q.Get("end_date") != "1999-12-31" {
			t.Errorf("expected decade bounds, got %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"data":[` + bebop + `],"pagination":{"has_next_page":false}}`))
	})

	items, err := client.Search(context.Background(), "bebop", models.CategoryAnime, providers.Query{Year: providers.ParseYearFilter("decade-1990")})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.ID != "jikan_anime_1" || item.Year == nil || *item.Year != 1998 {
		t.Errorf("unexpected item %+v", item)
	}
	if item.Subtitle != "Sunrise" {
		t.Errorf("expected studio subtitle when english title matches, got %q", item.Subtitle)
	}
	if item.Image == nil || *item.Image != "https://cdn.myanimelist.net/images/anime/4/19644l.jpg" {
		t.Errorf("expected large image, got %v", item.Image)
	}
}

func TestDiscoverUsesTopEndpoint(t *testing.T) {
	var pages int
	client := newTestClient(t, 100, func(w http.ResponseWriter, r *http.Request) {
		pages++
		if r.URL.Path != "/top/anime" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("unexpected limit %s", r.URL.Query().Get("limit"))
		}
		w.Write([]byte(`{"data":[` + bebop + `],"pagination":{"has_next_page":true}}`))
	})

	items, err := client.Discover(context.Background(), models.CategoryAnime, providers.Query{Limit: 5})
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	// The fixture repeats the same show on every page; paging stops once a page adds nothing
	if len(items) != 1 {
		t.Errorf("expected 1 de-duplicated item, got %d", len(items))
	}
	if pages != 2 {
		t.Errorf("expected 2 page requests, got %d", pages)
	}
}

func TestGetByID(t *testing.T) {
	client := newTestClient(t, 100, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/anime/1" {
			w.Write([]byte(`{"data":` + bebop + `}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	item, err := client.GetByID(context.Background(), "jikan_anime_1", models.CategoryAnime)
	if err != nil || item == nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if genres, ok := item.Metadata["genres"].([]string); !ok || len(genres) != 2 {
		t.Errorf("unexpected genres %v", item.Metadata["genres"])
	}

	missing, err := client.GetByID(context.Background(), "jikan_anime_999999", models.CategoryAnime)
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil, got %+v, %v", missing, err)
	}
}

func TestClientSideLimiter(t *testing.T) {
	client := newTestClient(t, 0.1, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[],"pagination":{}}`))
	})

	if _, err := client.Search(context.Background(), "a", models.CategoryAnime, providers.Query{}); err != nil {
		t.Fatalf("first request should pass: %v", err)
	}

	// The next token is ten seconds away; a short deadline must fail fast as rate limited
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := client.Search(ctx, "b", models.CategoryAnime, providers.Query{})
	if !errors.Is(err, providers.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("limiter should not block past the deadline")
	}
}
