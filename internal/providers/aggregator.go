package providers

import (
	"context"
	"errors"
	"sync"

	"github.com/amaumene/rankboard/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// TermSearch runs one canned query against an upstream and returns normalized items
type TermSearch func(ctx context.Context, term string, fetch int) ([]models.Item, error)

// Aggregator synthesizes a "popular" feed for upstreams without one by
// running canned queries in priority order and de-duplicating by item id.
type Aggregator struct {
	Terms       []string
	Search      TermSearch
	Year        *YearFilter
	PerTerm     int // results requested per term; defaults to 2*limit, at least 20
	Concurrency int // terms in flight at once; <= 1 runs sequentially
	Logger      *logrus.Logger
}

type termResult struct {
	items []models.Item
	err   error
}

// Collect fills up to limit items. Running out of terms is not an error.
// An error is returned only when nothing was collected and a term failed,
// so callers can tell an empty upstream from a broken one.
func (a *Aggregator) Collect(ctx context.Context, limit int) ([]models.Item, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	fetch := a.PerTerm
	if fetch <= 0 {
		fetch = 2 * limit
		if fetch < 20 {
			fetch = 20
		}
	}

	batch := a.Concurrency
	if batch < 1 {
		batch = 1
	}

	seen := make(map[string]struct{})
	out := make([]models.Item, 0, limit)
	var lastErr error

	for start := 0; start < len(a.Terms) && len(out) < limit; start += batch {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		end := start + batch
		if end > len(a.Terms) {
			end = len(a.Terms)
		}
		results := a.runBatch(ctx, a.Terms[start:end], fetch)

		stop := false
		for i, res := range results {
			term := a.Terms[start+i]
			if res.err != nil {
				lastErr = res.err
				a.logTermFailure(term, res.err)
				if errors.Is(res.err, ErrRateLimited) {
					stop = true
				}
				continue
			}

			for _, item := range res.items {
				if len(out) >= limit {
					break
				}
				if _, dup := seen[item.ID]; dup {
					continue
				}
				seen[item.ID] = struct{}{}
				if !a.Year.Contains(item.Year) {
					continue
				}
				out = append(out, item)
			}
		}

		if stop {
			break
		}
	}

	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

// runBatch searches a slice of terms, returning results in term order
func (a *Aggregator) runBatch(ctx context.Context, terms []string, fetch int) []termResult {
	results := make([]termResult, len(terms))
	if len(terms) == 1 {
		items, err := a.Search(ctx, terms[0], fetch)
		results[0] = termResult{items: items, err: err}
		return results
	}

	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(len(terms))
	for i, term := range terms {
		i, term := i, term
		p.Go(func() {
			items, err := a.Search(ctx, term, fetch)
			mu.Lock()
			results[i] = termResult{items: items, err: err}
			mu.Unlock()
		})
	}
	p.Wait()

	return results
}

func (a *Aggregator) logTermFailure(term string, err error) {
	if a.Logger == nil {
		return
	}
	a.Logger.WithError(err).WithField("term", term).Warn("Discovery term failed")
}
