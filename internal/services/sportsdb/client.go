package sportsdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/amaumene/rankboard/internal/config"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
	"github.com/amaumene/rankboard/internal/services/upstream"
	"github.com/amaumene/rankboard/internal/utils"
	"github.com/sirupsen/logrus"
)

// TheSportsDB has no popularity feed; discovery fans out over these names
var defaultDiscoveryTerms = map[models.Category][]string{
	models.CategoryAthlete: {
		"Lionel Messi", "Cristiano Ronaldo", "LeBron James", "Serena Williams",
		"Roger Federer", "Usain Bolt", "Tom Brady", "Lewis Hamilton", "Simone Biles",
	},
	models.CategorySportingEvent: {
		"Champions League Final", "World Cup Final", "Super Bowl", "NBA Finals",
		"Wimbledon Final", "Stanley Cup", "World Series",
	},
}

// Client is TheSportsDB adapter for athletes and sporting events
type Client struct {
	http        *upstream.Client
	terms       map[models.Category][]string
	concurrency int
	logger      *logrus.Logger
}

// NewClient creates a new TheSportsDB client. The API key is a path segment.
func NewClient(cfg *config.Config, terms *utils.TermList, logger *logrus.Logger) *Client {
	resolved := make(map[models.Category][]string, len(defaultDiscoveryTerms))
	for category, fallback := range defaultDiscoveryTerms {
		resolved[category] = terms.Terms(string(category), fallback)
	}

	baseURL := strings.TrimRight(cfg.SportsDBBaseURL, "/") + "/" + url.PathEscape(cfg.SportsDBAPIKey)
	return &Client{
		http:        upstream.New(string(models.ProviderSportsDB), baseURL, logger, upstream.WithTimeout(cfg.ProviderTimeout)),
		terms:       resolved,
		concurrency: cfg.DiscoveryConcurrency,
		logger:      logger,
	}
}

// Name returns the provider id
func (c *Client) Name() models.Provider {
	return models.ProviderSportsDB
}

// SupportsYearRange is false: search endpoints take only a name
func (c *Client) SupportsYearRange(category models.Category) bool {
	return false
}

func checkCategory(category models.Category) error {
	if category != models.CategoryAthlete && category != models.CategorySportingEvent {
		return fmt.Errorf("sportsdb does not serve category %q", category)
	}
	return nil
}

// Search queries searchplayers.php or searchevents.php
func (c *Client) Search(ctx context.Context, query string, category models.Category, opts providers.Query) ([]models.Item, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}
	limit := opts.EffectiveLimit()
	items, err := c.search(ctx, query, category)
	if err != nil {
		return nil, err
	}
	return providers.Truncate(providers.FilterByYear(items, opts.Year), limit), nil
}

// Discover aggregates canned name queries
func (c *Client) Discover(ctx context.Context, category models.Category, opts providers.Query) ([]models.Item, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}

	agg := &providers.Aggregator{
		Terms:       c.terms[category],
		Year:        opts.Year,
		Concurrency: c.concurrency,
		Logger:      c.logger,
		// Result size is fixed upstream; fetch is ignored
		Search: func(ctx context.Context, term string, _ int) ([]models.Item, error) {
			return c.search(ctx, term, category)
		},
	}
	return agg.Collect(ctx, opts.EffectiveLimit())
}

// GetByID queries lookupplayer.php or lookupevent.php
func (c *Client) GetByID(ctx context.Context, id string, category models.Category) (*models.Item, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("id", models.StripItemIDPrefix(id))

	var records []providers.Record
	if category == models.CategoryAthlete {
		var resp playersResponse
		if err := c.http.GetJSON(ctx, "/lookupplayer.php", params, &resp); err != nil {
			return notFoundAsNil(err)
		}
		for _, p := range append(resp.Players, resp.Player...) {
			records = append(records, p.toRecord())
		}
	} else {
		var resp eventsResponse
		if err := c.http.GetJSON(ctx, "/lookupevent.php", params, &resp); err != nil {
			return notFoundAsNil(err)
		}
		for _, e := range append(resp.Events, resp.Event...) {
			records = append(records, e.toRecord())
		}
	}

	// Unknown ids come back as a null list
	if len(records) == 0 {
		return nil, nil
	}
	item, err := providers.Normalize(records[0])
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) search(ctx context.Context, query string, category models.Category) ([]models.Item, error) {
	params := url.Values{}
	var records []providers.Record

	if category == models.CategoryAthlete {
		params.Set("p", query)
		var resp playersResponse
		if err := c.http.GetJSON(ctx, "/searchplayers.php", params, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Player {
			records = append(records, p.toRecord())
		}
	} else {
		params.Set("e", query)
		var resp eventsResponse
		if err := c.http.GetJSON(ctx, "/searchevents.php", params, &resp); err != nil {
			return nil, err
		}
		for _, e := range resp.Event {
			records = append(records, e.toRecord())
		}
	}

	return providers.NormalizeAll(records), nil
}

// notFoundAsNil maps a 404 lookup to the "no such item" result
func notFoundAsNil(err error) (*models.Item, error) {
	if errors.Is(err, upstream.ErrNotFound) {
		return nil, nil
	}
	return nil, err
}
