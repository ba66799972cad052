package providers

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/utils"
)

func TestNormalizeIdempotent(t *testing.T) {
	record := Record{
		Provider:  models.ProviderTMDB,
		Category:  models.CategoryMovie,
		NativeID:  "438631",
		Name:      " Dune ",
		Image:     "/d5NXSklXo0qyIYkgV94XAgMIckC.jpg",
		ImageBase: "https://image.tmdb.org/t/p/w500",
		Date:      "2021-09-15",
		Metadata:  map[string]any{"voteAverage": 7.8, "overview": nil},
	}

	first, err := Normalize(record)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	second, err := Normalize(record)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalizing twice differed:\n%+v\n%+v", first, second)
	}

	if first.ID != "tmdb_movie_438631" {
		t.Errorf("unexpected id %q", first.ID)
	}
	if first.Name != "Dune" {
		t.Errorf("expected trimmed name, got %q", first.Name)
	}
	if first.Image == nil || *first.Image != "https://image.tmdb.org/t/p/w500/d5NXSklXo0qyIYkgV94XAgMIckC.jpg" {
		t.Errorf("unexpected image %v", first.Image)
	}
	if first.Year == nil || *first.Year != 2021 {
		t.Errorf("expected year 2021, got %v", first.Year)
	}
	if _, ok := first.Metadata["overview"]; ok {
		t.Error("nil metadata values should be dropped")
	}
	if first.Rank != 0 || first.UserRating != nil || first.Comment != "" {
		t.Error("normalized items must carry no annotations")
	}
}

func TestNormalizeRejectsMissingFields(t *testing.T) {
	if _, err := Normalize(Record{Provider: models.ProviderJikan, Category: models.CategoryAnime, NativeID: "1"}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for empty name, got %v", err)
	}
	if _, err := Normalize(Record{Provider: models.ProviderJikan, Category: models.CategoryAnime, Name: "Bebop"}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for empty id, got %v", err)
	}
}

func TestNormalizeImages(t *testing.T) {
	tests := []struct {
		name  string
		image string
		base  string
		want  *string
	}{
		{"absolute", "https://example.com/a.jpg", "", utils.StringPtr("https://example.com/a.jpg")},
		{"protocol relative", "//example.com/a.jpg", "", utils.StringPtr("https://example.com/a.jpg")},
		{"relative with base", "a.jpg", "https://cdn.example.com/", utils.StringPtr("https://cdn.example.com/a.jpg")},
		{"relative without base", "/a.jpg", "", nil},
		{"empty", "", "https://cdn.example.com", nil},
		{"other scheme", "ftp://example.com/a.jpg", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := Normalize(Record{
				Provider: models.ProviderITunes, Category: models.CategoryAlbum,
				NativeID: "1", Name: "x", Image: tt.image, ImageBase: tt.base,
			})
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if tt.want == nil {
				if item.Image != nil {
					t.Errorf("expected nil image, got %q", *item.Image)
				}
				return
			}
			if item.Image == nil || *item.Image != *tt.want {
				t.Errorf("got %v, want %q", item.Image, *tt.want)
			}
		})
	}
}

func TestParseYearFilter(t *testing.T) {
	tests := []struct {
		token string
		want  *YearFilter
	}{
		{"2021", &YearFilter{Year: 2021, StartYear: 2021, EndYear: 2021}},
		{"decade-1990", &YearFilter{Year: 1990, StartYear: 1990, EndYear: 1999, IsDecade: true}},
		{"1980s", &YearFilter{Year: 1980, StartYear: 1980, EndYear: 1989, IsDecade: true}},
		{"decade-1995", &YearFilter{Year: 1990, StartYear: 1990, EndYear: 1999, IsDecade: true}},
		{"", nil},
		{"nineties", nil},
		{"21", nil},
	}

	for _, tt := range tests {
		got := ParseYearFilter(tt.token)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseYearFilter(%q) = %+v, want %+v", tt.token, got, tt.want)
		}
	}
}

func TestFilterByYearKeepsUnknown(t *testing.T) {
	filter := ParseYearFilter("decade-1990")
	items := []models.Item{
		{ID: "a", Year: utils.IntPtr(1994)},
		{ID: "b", Year: utils.IntPtr(2001)},
		{ID: "c"},
		{ID: "d", Year: utils.IntPtr(1990)},
		{ID: "e", Year: utils.IntPtr(1989)},
	}

	got := FilterByYear(items, filter)
	var ids []string
	for _, item := range got {
		ids = append(ids, item.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "c", "d"}) {
		t.Errorf("unexpected filter result %v", ids)
	}
}

func TestQueryEffectiveLimit(t *testing.T) {
	if got := (Query{}).EffectiveLimit(); got != DefaultLimit {
		t.Errorf("expected default %d, got %d", DefaultLimit, got)
	}
	if got := (Query{Limit: 500}).EffectiveLimit(); got != MaxLimit {
		t.Errorf("expected cap %d, got %d", MaxLimit, got)
	}
	if got := (Query{Limit: 7}).EffectiveLimit(); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
}

func TestRegistryLookup(t *testing.T) {
	if info := Lookup(models.CategoryMovie); info.Provider != models.ProviderTMDB || !info.Searchable() {
		t.Errorf("unexpected movie entry %+v", info)
	}
	if info := Lookup(models.CategoryPodcast); info.Provider != models.ProviderITunes {
		t.Errorf("unexpected podcast entry %+v", info)
	}

	unknown := Lookup(models.Category("boardgame"))
	if unknown.Category != models.CategoryCustom || unknown.Provider != models.ProviderNone {
		t.Errorf("unknown category should resolve to custom, got %+v", unknown)
	}
	if unknown.Searchable() {
		t.Error("custom entry must not be searchable")
	}

	for _, info := range Categories() {
		if info.Category == models.CategoryCustom {
			t.Error("custom should not be listed as a searchable category")
		}
	}
}

func item(provider models.Provider, id string, year *int) models.Item {
	return models.Item{
		ID:         models.NewItemID(provider, models.CategoryBook, id),
		ExternalID: id,
		Provider:   provider,
		Category:   models.CategoryBook,
		Name:       "Book " + id,
		Year:       year,
	}
}

func TestAggregatorDedupAndShortCircuit(t *testing.T) {
	var calls []string
	responses := map[string][]models.Item{
		"fiction": {item(models.ProviderGoogleBooks, "1", nil), item(models.ProviderGoogleBooks, "2", nil)},
		"history": {item(models.ProviderGoogleBooks, "2", nil), item(models.ProviderGoogleBooks, "3", nil)},
		"science": {item(models.ProviderGoogleBooks, "4", nil), item(models.ProviderGoogleBooks, "5", nil)},
		"poetry":  {item(models.ProviderGoogleBooks, "6", nil)},
	}

	agg := &Aggregator{
		Terms: []string{"fiction", "history", "science", "poetry"},
		Search: func(ctx context.Context, term string, fetch int) ([]models.Item, error) {
			calls = append(calls, term)
			return responses[term], nil
		},
	}

	got, err := agg.Collect(context.Background(), 4)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	var ids []string
	for _, it := range got {
		ids = append(ids, it.ExternalID)
	}
	if !reflect.DeepEqual(ids, []string{"1", "2", "3", "4"}) {
		t.Errorf("unexpected ids %v", ids)
	}
	if !reflect.DeepEqual(calls, []string{"fiction", "history", "science"}) {
		t.Errorf("expected to stop after reaching the limit, called %v", calls)
	}
}

func TestAggregatorUnderfillAndYearFilter(t *testing.T) {
	agg := &Aggregator{
		Terms: []string{"a", "b"},
		Year:  ParseYearFilter("decade-1990"),
		Search: func(ctx context.Context, term string, fetch int) ([]models.Item, error) {
			if fetch != 20 {
				t.Errorf("expected per-term fetch of 20, got %d", fetch)
			}
			return []models.Item{
				item(models.ProviderGoogleBooks, term+"-old", utils.IntPtr(1995)),
				item(models.ProviderGoogleBooks, term+"-new", utils.IntPtr(2015)),
				item(models.ProviderGoogleBooks, term+"-unknown", nil),
			}, nil
		},
	}

	got, err := agg.Collect(context.Background(), 10)
	if err != nil {
		t.Fatalf("under-filling must not error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 items, got %d", len(got))
	}
	for _, it := range got {
		if it.Year != nil && (*it.Year < 1990 || *it.Year > 1999) {
			t.Errorf("item %s outside decade", it.ID)
		}
	}
}

func TestAggregatorSkipsFailedTermsAndStopsOnRateLimit(t *testing.T) {
	var calls int32
	agg := &Aggregator{
		Terms: []string{"broken", "ok", "throttled", "never"},
		Search: func(ctx context.Context, term string, fetch int) ([]models.Item, error) {
			atomic.AddInt32(&calls, 1)
			switch term {
			case "broken":
				return nil, fmt.Errorf("boom: %w", ErrUpstreamUnavailable)
			case "throttled":
				return nil, ErrRateLimited
			case "never":
				t.Error("should not query after being rate limited")
			}
			return []models.Item{item(models.ProviderGoogleBooks, term, nil)}, nil
		},
		Logger: utils.NullLogger(),
	}

	got, err := agg.Collect(context.Background(), 10)
	if err != nil {
		t.Fatalf("expected partial results without error, got %v", err)
	}
	if len(got) != 1 || got[0].ExternalID != "ok" {
		t.Errorf("unexpected result %+v", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestAggregatorReportsTotalFailure(t *testing.T) {
	agg := &Aggregator{
		Terms: []string{"a"},
		Search: func(ctx context.Context, term string, fetch int) ([]models.Item, error) {
			return nil, ErrRateLimited
		},
	}
	got, err := agg.Collect(context.Background(), 5)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no items, got %d", len(got))
	}
}

func TestAggregatorConcurrentPreservesTermOrder(t *testing.T) {
	agg := &Aggregator{
		Terms:       []string{"a", "b", "c", "d", "e"},
		Concurrency: 3,
		Search: func(ctx context.Context, term string, fetch int) ([]models.Item, error) {
			return []models.Item{
				item(models.ProviderITunes, term+"1", nil),
				item(models.ProviderITunes, term+"2", nil),
			}, nil
		},
	}

	got, err := agg.Collect(context.Background(), 5)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	var ids []string
	for _, it := range got {
		ids = append(ids, it.ExternalID)
	}
	if !reflect.DeepEqual(ids, []string{"a1", "a2", "b1", "b2", "c1"}) {
		t.Errorf("unexpected order %v", ids)
	}
}
