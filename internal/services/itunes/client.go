package itunes

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
	"github.com/amaumene/rankboard/internal/utils"
	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"
)

// The search API caps limit at 200
const maxResults = 200

// The iTunes search API has no charts endpoint; discovery fans out over these terms
var defaultDiscoveryTerms = map[models.Category][]string{
	models.CategoryPodcast: {"news", "comedy", "true crime", "history", "science", "business", "technology", "sports"},
	models.CategoryAlbum:   {"greatest hits", "rock", "pop", "hip hop", "jazz", "classical", "soundtrack", "live"},
}

// Client is the iTunes adapter for podcasts and albums
type Client struct {
	http        *upstream.Client
	terms       map[models.Category][]string
	concurrency int
	enrichFeeds bool
	feedParser  *gofeed.Parser
	logger      *logrus.Logger
}

// NewClient creates a new iTunes client
func NewClient(cfg *config.Config, terms *utils.TermList, logger *logrus.Logger) *Client {
	resolved := make(map[models.Category][]string, len(defaultDiscoveryTerms))
	for category, fallback := range defaultDiscoveryTerms {
		resolved[category] = terms.Terms(string(category), fallback)
	}

	return &Client{
		http:        upstream.New(string(models.ProviderITunes), cfg.ITunesBaseURL, logger, upstream.WithTimeout(cfg.ProviderTimeout)),
		terms:       resolved,
		concurrency: cfg.DiscoveryConcurrency,
		enrichFeeds: cfg.EnrichPodcastFeeds,
		feedParser:  gofeed.NewParser(),
		logger:      logger,
	}
}

// Name returns the provider id
func (c *Client) Name() models.Provider {
	return models.ProviderITunes
}

// SupportsYearRange is false: search has no release date filter
func (c *Client) SupportsYearRange(category models.Category) bool {
	return false
}

func entityParams(category models.Category) (url.Values, error) {
	params := url.Values{}
	switch category {
	case models.CategoryPodcast:
		params.Set("media", "podcast")
		params.Set("entity", "podcast")
	case models.CategoryAlbum:
		params.Set("media", "music")
		params.Set("entity", "album")
	default:
		return nil, fmt.Errorf("itunes does not serve category %q", category)
	}
	return params, nil
}

// Search queries /search
func (c *Client) Search(ctx context.Context, query string, category models.Category, opts providers.Query) ([]models.Item, error) {
	limit := opts.EffectiveLimit()
	items, err := c.search(ctx, query, category, limit)
	if err != nil {
		return nil, err
	}
	return providers.Truncate(providers.FilterByYear(items, opts.Year), limit), nil
}

// Discover aggregates canned genre queries
func (c *Client) Discover(ctx context.Context, category models.Category, opts providers.Query) ([]models.Item, error) {
	if _, err := entityParams(category); err != nil {
		return nil, err
	}

	agg := &providers.Aggregator{
		Terms:       c.terms[category],
		Year:        opts.Year,
		Concurrency: c.concurrency,
		Logger:      c.logger,
		Search: func(ctx context.Context, term string, fetch int) ([]models.Item, error) {
			return c.search(ctx, term, category, fetch)
		},
	}
	return agg.Collect(ctx, opts.EffectiveLimit())
}

// GetByID queries /lookup. Podcasts are optionally enriched from their RSS feed.
func (c *Client) GetByID(ctx context.Context, id string, category models.Category) (*models.Item, error) {
	if _, err := entityParams(category); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("id", models.StripItemIDPrefix(id))

	var resp searchResponse
	if err := c.http.GetJSON(ctx, "/lookup", params, &resp); err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	for _, r := range resp.Results {
		if !r.matches(category) {
			continue
		}
		item, err := providers.Normalize(r.toRecord(category))
		if err != nil {
			return nil, err
		}
		if category == models.CategoryPodcast && c.enrichFeeds && r.FeedURL != "" {
			c.enrichFromFeed(ctx, &item, r.FeedURL)
		}
		return &item, nil
	}

	// Lookup answers 200 with no results for unknown ids
	return nil, nil
}

func (c *Client) search(ctx context.Context, query string, category models.Category, fetch int) ([]models.Item, error) {
	params, err := entityParams(category)
	if err != nil {
		return nil, err
	}
	if fetch > maxResults {
		fetch = maxResults
	}
	params.Set("term", query)
	params.Set("limit", strconv.Itoa(fetch))

	var resp searchResponse
	if err := c.http.GetJSON(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	records := make([]providers.Record, 0, len(resp.Results))
	for _, r := range resp.Results {
		records = append(records, r.toRecord(category))
	}
	return providers.NormalizeAll(records), nil
}

// enrichFromFeed adds episode data from the podcast feed. Failures leave the item untouched.
func (c *Client) enrichFromFeed(ctx context.Context, item *models.Item, feedURL string) {
	body, err := c.http.GetRaw(ctx, feedURL)
	if err != nil {
		c.logger.WithError(err).WithField("feed", feedURL).Warn("Failed to fetch podcast feed")
		return
	}
	defer body.Close()

	feed, err := c.feedParser.Parse(body)
	if err != nil {
		c.logger.WithError(err).WithField("feed", feedURL).Warn("Failed to parse podcast feed")
		return
	}

	if item.Metadata == nil {
		item.Metadata = map[string]any{}
	}
	item.Metadata["episodeCount"] = len(feed.Items)
	if feed.Description != "" {
		item.Metadata["description"] = feed.Description
	}
	if feed.Language != "" {
		item.Metadata["language"] = feed.Language
	}
	if len(feed.Items) > 0 {
		latest := feed.Items[0]
		item.Metadata["latestEpisode"] = latest.Title
		if latest.PublishedParsed != nil {
			item.Metadata["latestEpisodeAt"] = latest.PublishedParsed.UTC()
		}
	}
	if item.Image == nil && feed.Image != nil {
		item.Image = utils.StringPtr(feed.Image.URL)
	}
}
