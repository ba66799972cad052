package sportsdb

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

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default(t.TempDir())
	cfg.SportsDBBaseURL = server.URL + "/api/v1/json"
	cfg.SportsDBAPIKey = "123"
	return NewClient(cfg, nil, utils.NullLogger())
}

func TestSearchAthletes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/json/123/searchplayers.php" || r.URL.Query().Get("p") != "Messi" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		w.Write([]byte(`{"player":[
			{"idPlayer":"34146370","strPlayer":"Lionel Messi","strTeam":"Inter Miami","strPosition":"Forward","strSport":"Soccer","dateBorn":"1987-06-24","strCutout":"https://www.thesportsdb.com/images/media/player/cutout/messi.png"}
		]}`))
	})

	items, err := client.Search(context.Background(), "Messi", models.CategoryAthlete, providers.Query{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].ID != "sportsdb_athlete_34146370" || items[0].Subtitle != "Inter Miami · Forward" {
		t.Errorf("unexpected athlete %+v", items[0])
	}
}

func TestSearchEventsNullResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"event":null}`))
	})

	items, err := client.Search(context.Background(), "nothing", models.CategorySportingEvent, providers.Query{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestGetEventBySeasonOnly(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "441613" {
			w.Write([]byte(`{"events":[{"idEvent":"441613","strEvent":"England vs West Germany","strLeague":"FIFA World Cup","strSeason":"1966","intHomeScore":"4","intAwayScore":"2"}]}`))
			return
		}
		w.Write([]byte(`{"events":null}`))
	})

	item, err := client.GetByID(context.Background(), "sportsdb_sportingEvent_441613", models.CategorySportingEvent)
	if err != nil || item == nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if item.Year == nil || *item.Year != 1966 {
		t.Errorf("expected year from season, got %v", item.Year)
	}
	if item.Metadata["score"] != "4-2" {
		t.Errorf("unexpected score %v", item.Metadata["score"])
	}

	missing, err := client.GetByID(context.Background(), "1", models.CategorySportingEvent)
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for unknown event, got %+v, %v", missing, err)
	}
}

func TestDiscoverAthletesStopsAtLimit(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		name := r.URL.Query().Get("p")
		w.Write([]byte(`{"player":[{"idPlayer":"` + name + `","strPlayer":"` + name + `"}]}`))
	})

	items, err := client.Discover(context.Background(), models.CategoryAthlete, providers.Query{Limit: 3})
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(items) != 3 || calls != 3 {
		t.Errorf("expected 3 items from 3 calls, got %d items from %d calls", len(items), calls)
	}
	if items[0].Name != "Lionel Messi" {
		t.Errorf("expected term order to be kept, got %q first", items[0].Name)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, category := range []models.Category{models.CategoryAthlete, models.CategorySportingEvent} {
		item, err := client.GetByID(context.Background(), "404", category)
		if err != nil || item != nil {
			t.Errorf("%s: expected nil, nil for a 404 lookup, got %+v, %v", category, item, err)
		}
	}
}
