package googlebooks

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
	"github.com/sirupsen/logrus"
)

// The volumes endpoint caps maxResults at 40
const maxResults = 40

// Google Books has no popularity feed; discovery fans out over these subjects
var defaultDiscoveryTerms = []string{
	"subject:fiction",
	"subject:fantasy",
	"subject:science fiction",
	"subject:mystery",
	"subject:biography",
	"subject:history",
	"subject:classics",
	"subject:poetry",
}

// Client is the Google Books adapter
type Client struct {
	http        *upstream.Client
	apiKey      string
	terms       []string
	concurrency int
	logger      *logrus.Logger
}

// NewClient creates a new Google Books client
func NewClient(cfg *config.Config, terms *utils.TermList, logger *logrus.Logger) *Client {
	return &Client{
		http:        upstream.New(string(models.ProviderGoogleBooks), cfg.GoogleBooksBaseURL, logger, upstream.WithTimeout(cfg.ProviderTimeout)),
		apiKey:      cfg.GoogleBooksAPIKey,
		terms:       terms.Terms(string(models.CategoryBook), defaultDiscoveryTerms),
		concurrency: cfg.DiscoveryConcurrency,
		logger:      logger,
	}
}

// Name returns the provider id
func (c *Client) Name() models.Provider {
	return models.ProviderGoogleBooks
}

// SupportsYearRange is false: the volumes endpoint has no date filter
func (c *Client) SupportsYearRange(category models.Category) bool {
	return false
}

func checkCategory(category models.Category) error {
	if category != models.CategoryBook {
		return fmt.Errorf("googlebooks does not serve category %q", category)
	}
	return nil
}

// Search queries /volumes
func (c *Client) Search(ctx context.Context, query string, category models.Category, opts providers.Query) ([]models.Item, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}
	limit := opts.EffectiveLimit()
	items, err := c.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return providers.Truncate(providers.FilterByYear(items, opts.Year), limit), nil
}

// Discover aggregates canned subject queries
func (c *Client) Discover(ctx context.Context, category models.Category, opts providers.Query) ([]models.Item, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}

	agg := &providers.Aggregator{
		Terms:       c.terms,
		Year:        opts.Year,
		Concurrency: c.concurrency,
		Logger:      c.logger,
		Search: func(ctx context.Context, term string, fetch int) ([]models.Item, error) {
			return c.search(ctx, term, fetch)
		},
	}
	return agg.Collect(ctx, opts.EffectiveLimit())
}

// GetByID fetches /volumes/{id}
func (c *Client) GetByID(ctx context.Context, id string, category models.Category) (*models.Item, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}

	var v volume
	nativeID := models.StripItemIDPrefix(id)
	if err := c.http.GetJSON(ctx, "/volumes/"+url.PathEscape(nativeID), c.params(), &v); err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	item, err := providers.Normalize(v.toRecord())
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) params() url.Values {
	params := url.Values{}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	return params
}

func (c *Client) search(ctx context.Context, query string, fetch int) ([]models.Item, error) {
	if fetch > maxResults {
		fetch = maxResults
	}

	params := c.params()
	params.Set("q", query)
	params.Set("printType", "books")
	params.Set("maxResults", strconv.Itoa(fetch))

	var resp volumesResponse
	if err := c.http.GetJSON(ctx, "/volumes", params, &resp); err != nil {
		return nil, err
	}

	records := make([]providers.Record, 0, len(resp.Items))
	for _, v := range resp.Items {
		records = append(records, v.toRecord())
	}
	return providers.NormalizeAll(records), nil
}
