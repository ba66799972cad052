package jikan

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
	"golang.org/x/time/rate"
)

// Jikan caps page size at 25
const pageSize = 25

// Client is the Jikan (MyAnimeList) adapter
type Client struct {
	http   *upstream.Client
	logger *logrus.Logger
}

// NewClient creates a new Jikan client. Requests are throttled client-side
// to cfg.JikanRPS since the public API bans abusive callers.
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	limiter := rate.NewLimiter(rate.Limit(cfg.JikanRPS), 1)
	return &Client{
		http: upstream.New(string(models.ProviderJikan), cfg.JikanBaseURL, logger,
			upstream.WithTimeout(cfg.ProviderTimeout),
			upstream.WithLimiter(limiter),
		),
		logger: logger,
	}
}

// Name returns the provider id
func (c *Client) Name() models.Provider {
	return models.ProviderJikan
}

// SupportsYearRange is true: /anime takes start_date and end_date
func (c *Client) SupportsYearRange(category models.Category) bool {
	return true
}

func checkCategory(category models.Category) error {
	if category != models.CategoryAnime {
		return fmt.Errorf("jikan does not serve category %q", category)
	}
	return nil
}

func setYearRange(params url.Values, year *providers.YearFilter) {
	if year == nil {
		return
	}
	params.Set("start_date", fmt.Sprintf("%d-01-01", year.StartYear))
	params.Set("end_date", fmt.Sprintf("%d-12-31", year.EndYear))
}

// Search queries /anime
func (c *Client) Search(ctx context.Context, query string, category models.Category, opts providers.Query) ([]models.Item, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sfw", "true")
	setYearRange(params, opts.Year)

	return c.fetchPages(ctx, "/anime", params, opts.EffectiveLimit())
}

// Discover uses /top/anime, or a members-ordered /anime listing when a year filter is set
func (c *Client) Discover(ctx context.Context, category models.Category, opts providers.Query) ([]models.Item, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}

	params := url.Values{}
	if opts.Year == nil {
		params.Set("filter", "airing")
		return c.fetchPages(ctx, "/top/anime", params, opts.EffectiveLimit())
	}

	params.Set("sfw", "true")
	params.Set("order_by", "members")
	params.Set("sort", "desc")
	setYearRange(params, opts.Year)
	return c.fetchPages(ctx, "/anime", params, opts.EffectiveLimit())
}

// GetByID fetches /anime/{id}
func (c *Client) GetByID(ctx context.Context, id string, category models.Category) (*models.Item, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}

	var resp detailResponse
	nativeID := models.StripItemIDPrefix(id)
	if err := c.http.GetJSON(ctx, "/anime/"+url.PathEscape(nativeID), nil, &resp); err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	item, err := providers.Normalize(resp.Data.toRecord())
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) fetchPages(ctx context.Context, path string, params url.Values, limit int) ([]models.Item, error) {
	items := make([]models.Item, 0, limit)
	perPage := limit
	if perPage > pageSize {
		perPage = pageSize
	}
	params.Set("limit", strconv.Itoa(perPage))

	for page := 1; len(items) < limit; page++ {
		params.Set("page", strconv.Itoa(page))

		var resp listResponse
		if err := c.http.GetJSON(ctx, path, params, &resp); err != nil {
			if len(items) > 0 {
				c.logger.WithError(err).WithField("page", page).Warn("Jikan paging stopped early")
				break
			}
			return nil, err
		}

		records := make([]providers.Record, 0, len(resp.Data))
		for _, a := range resp.Data {
			records = append(records, a.toRecord())
		}
		before := len(items)
		items = providers.Dedupe(append(items, providers.NormalizeAll(records)...))

		if !resp.Pagination.HasNextPage || len(items) == before {
			break
		}
	}

	return providers.Truncate(items, limit), nil
}
