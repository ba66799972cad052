package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/amaumene/rankboard/internal/config"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
	"github.com/amaumene/rankboard/internal/services/upstream"
	"github.com/sirupsen/logrus"
)

// TMDB pages are fixed at 20 results
const pageSize = 20

// Client is the TMDB adapter for movies and TV shows
type Client struct {
	http   *upstream.Client
	apiKey string
	logger *logrus.Logger
}

// NewClient creates a new TMDB client
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		http:   upstream.New(string(models.ProviderTMDB), cfg.TMDBBaseURL, logger, upstream.WithTimeout(cfg.ProviderTimeout)),
		apiKey: cfg.TMDBAPIKey,
		logger: logger,
	}
}

// Name returns the provider id
func (c *Client) Name() models.Provider {
	return models.ProviderTMDB
}

// SupportsYearRange is true: /discover takes date bounds
func (c *Client) SupportsYearRange(category models.Category) bool {
	return true
}

func mediaPath(category models.Category) (string, error) {
	switch category {
	case models.CategoryMovie:
		return "movie", nil
	case models.CategoryTV:
		return "tv", nil
	}
	return "", fmt.Errorf("tmdb does not serve category %q", category)
}

func (c *Client) params() url.Values {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("language", "en-US")
	return params
}

// Search queries /search/{movie|tv}
func (c *Client) Search(ctx context.Context, query string, category models.Category, opts providers.Query) ([]models.Item, error) {
	media, err := mediaPath(category)
	if err != nil {
		return nil, err
	}

	params := c.params()
	params.Set("query", query)
	params.Set("include_adult", "false")
	if opts.Year != nil && !opts.Year.IsDecade {
		if category == models.CategoryTV {
			params.Set("first_air_date_year", strconv.Itoa(opts.Year.Year))
		} else {
			params.Set("primary_release_year", strconv.Itoa(opts.Year.Year))
		}
	}

	return c.fetchPages(ctx, "/search/"+media, params, category, opts.EffectiveLimit())
}

// Discover uses the weekly trending feed, or /discover with date bounds when a year filter is set
func (c *Client) Discover(ctx context.Context, category models.Category, opts providers.Query) ([]models.Item, error) {
	media, err := mediaPath(category)
	if err != nil {
		return nil, err
	}

	params := c.params()
	if opts.Year == nil {
		return c.fetchPages(ctx, "/trending/"+media+"/week", params, category, opts.EffectiveLimit())
	}

	gte := fmt.Sprintf("%d-01-01", opts.Year.StartYear)
	lte := fmt.Sprintf("%d-12-31", opts.Year.EndYear)
	if category == models.CategoryTV {
		params.Set("first_air_date.gte", gte)
		params.Set("first_air_date.lte", lte)
	} else {
		params.Set("primary_release_date.gte", gte)
		params.Set("primary_release_date.lte", lte)
	}
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")

	return c.fetchPages(ctx, "/discover/"+media, params, category, opts.EffectiveLimit())
}

// GetByID fetches /movie/{id} or /tv/{id}
func (c *Client) GetByID(ctx context.Context, id string, category models.Category) (*models.Item, error) {
	media, err := mediaPath(category)
	if err != nil {
		return nil, err
	}

	var d details
	nativeID := models.StripItemIDPrefix(id)
	if err := c.http.GetJSON(ctx, "/"+media+"/"+url.PathEscape(nativeID), c.params(), &d); err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	item, err := providers.Normalize(d.toRecord(category))
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// fetchPages walks result pages until limit items are collected or pages run out
func (c *Client) fetchPages(ctx context.Context, path string, params url.Values, category models.Category, limit int) ([]models.Item, error) {
	items := make([]models.Item, 0, limit)
	pages := (limit + pageSize - 1) / pageSize

	for page := 1; page <= pages; page++ {
		params.Set("page", strconv.Itoa(page))

		var resp pagedResponse
		if err := c.http.GetJSON(ctx, path, params, &resp); err != nil {
			if len(items) > 0 {
				c.logger.WithError(err).WithField("page", page).Warn("TMDB paging stopped early")
				break
			}
			return nil, err
		}

		records := make([]providers.Record, 0, len(resp.Results))
		for _, r := range resp.Results {
			records = append(records, r.toRecord(category))
		}
		before := len(items)
		items = providers.Dedupe(append(items, providers.NormalizeAll(records)...))

		if resp.TotalPages <= page || len(items) == before {
			break
		}
	}

	return providers.Truncate(items, limit), nil
}
