package providers

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/amaumene/rankboard/internal/models"
)

var (
	// ErrUpstreamUnavailable is returned on network failures and non-2xx responses
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrRateLimited is returned when an upstream throttles us. Never retried.
	ErrRateLimited = errors.New("upstream rate limited")
)

// Adapter is one upstream content integration
type Adapter interface {
	Name() models.Provider
	Search(ctx context.Context, query string, category models.Category, opts Query) ([]models.Item, error)
	Discover(ctx context.Context, category models.Category, opts Query) ([]models.Item, error)
	// GetByID returns nil, nil when the upstream reports the id as missing
	GetByID(ctx context.Context, id string, category models.Category) (*models.Item, error)
	// SupportsYearRange reports whether Discover applies the year filter upstream
	SupportsYearRange(category models.Category) bool
}

// Query carries the caller options handed to an adapter
type Query struct {
	Limit int
	Year  *YearFilter
}

const (
	DefaultLimit = 20
	MaxLimit     = 50
)

// EffectiveLimit clamps the requested limit to [1, MaxLimit], defaulting when unset
func (q Query) EffectiveLimit() int {
	switch {
	case q.Limit <= 0:
		return DefaultLimit
	case q.Limit > MaxLimit:
		return MaxLimit
	}
	return q.Limit
}

// YearFilter is a parsed single-year or decade token
type YearFilter struct {
	Year      int  `json:"year"`
	StartYear int  `json:"startYear"`
	EndYear   int  `json:"endYear"`
	IsDecade  bool `json:"isDecade"`
}

var (
	decadeTokenRegex = regexp.MustCompile(`^decade-(\d{4})$`)
	decadeShortRegex = regexp.MustCompile(`^(\d{4})s$`)
	yearTokenRegex   = regexp.MustCompile(`^\d{4}$`)
)

// ParseYearFilter parses "2021", "decade-1990" or "1990s".
// Returns nil for an empty or unrecognized token.
func ParseYearFilter(token string) *YearFilter {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	if m := decadeTokenRegex.FindStringSubmatch(token); m != nil {
		return decade(m[1])
	}
	if m := decadeShortRegex.FindStringSubmatch(token); m != nil {
		return decade(m[1])
	}
	if yearTokenRegex.MatchString(token) {
		y, _ := strconv.Atoi(token)
		return &YearFilter{Year: y, StartYear: y, EndYear: y}
	}
	return nil
}

func decade(digits string) *YearFilter {
	y, _ := strconv.Atoi(digits)
	start := y - y%10
	return &YearFilter{Year: start, StartYear: start, EndYear: start + 9, IsDecade: true}
}

// Contains reports whether a year passes the filter. Unknown years always pass.
func (f *YearFilter) Contains(year *int) bool {
	if f == nil || year == nil {
		return true
	}
	return *year >= f.StartYear && *year <= f.EndYear
}

// FilterByYear keeps the items whose year falls in the filter range or is unknown
func FilterByYear(items []models.Item, filter *YearFilter) []models.Item {
	if filter == nil {
		return items
	}
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		if filter.Contains(item.Year) {
			out = append(out, item)
		}
	}
	return out
}

// Truncate caps items at limit
func Truncate(items []models.Item, limit int) []models.Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// Dedupe drops items whose id was already seen, keeping first occurrences in order
func Dedupe(items []models.Item) []models.Item {
	seen := make(map[string]struct{}, len(items))
	out := items[:0:0]
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}
