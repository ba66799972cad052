package controllers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/amaumene/rankboard/internal/lists"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/utils"
	"github.com/sirupsen/logrus"
)

// ErrUnknownCSVFormat is returned when no title column can be found
var ErrUnknownCSVFormat = errors.New("unrecognized watched csv: no title column")

// ParseWatchedCSV reads a watched export. Letterboxd exports
// (Date,Name,Year,Letterboxd URI,Rating) and plain title,year,rating files are understood.
func ParseWatchedCSV(r io.Reader) ([]models.WatchedEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []models.WatchedEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}

	source := models.WatchedSourceCSV
	if _, ok := columns["letterboxd uri"]; ok {
		source = models.WatchedSourceLetterboxd
	}

	titleCol, ok := columns["name"]
	if !ok {
		if titleCol, ok = columns["title"]; !ok {
			return nil, ErrUnknownCSVFormat
		}
	}
	yearCol, hasYear := columns["year"]
	ratingCol, hasRating := columns["rating"]

	field := func(record []string, col int) string {
		if col < len(record) {
			return strings.TrimSpace(record[col])
		}
		return ""
	}

	entries := []models.WatchedEntry{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		title := field(record, titleCol)
		if title == "" {
			continue
		}
		entry := models.WatchedEntry{Title: title, Source: source}
		if hasYear {
			entry.Year = utils.ExtractYear(field(record, yearCol))
		}
		if hasRating {
			if rating, err := strconv.ParseFloat(field(record, ratingCol), 64); err == nil && rating > 0 {
				entry.Rating = &rating
			}
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// ItemSearcher is the slice of the Dispatcher the matcher needs
type ItemSearcher interface {
	Search(ctx context.Context, query string, category models.Category, opts SearchOptions) []models.Item
}

// DefaultMatchThreshold is the minimum folded-title similarity accepted as a match
const DefaultMatchThreshold = 0.8

// WatchedMatcher resolves imported watched entries to upstream items
type WatchedMatcher struct {
	searcher  ItemSearcher
	threshold float64
	logger    *logrus.Logger
}

// NewWatchedMatcher creates a matcher searching through searcher
func NewWatchedMatcher(searcher ItemSearcher, logger *logrus.Logger) *WatchedMatcher {
	return &WatchedMatcher{
		searcher:  searcher,
		threshold: DefaultMatchThreshold,
		logger:    logger,
	}
}

// Match returns the best upstream item for entry, or nil
func (m *WatchedMatcher) Match(ctx context.Context, entry models.WatchedEntry) *models.Item {
	opts := SearchOptions{Limit: 10}
	if entry.Year != nil {
		opts.Year = strconv.Itoa(*entry.Year)
	}

	candidates := m.searcher.Search(ctx, entry.Title, entry.Category, opts)
	if len(candidates) == 0 && entry.Year != nil {
		// Upstream years are sometimes off by one; retry unfiltered and let ranking decide
		opts.Year = ""
		candidates = m.searcher.Search(ctx, entry.Title, entry.Category, opts)
	}
	if len(candidates) == 0 {
		return nil
	}

	titles := make([]string, len(candidates))
	years := make([]*int, len(candidates))
	for i, c := range candidates {
		titles[i] = c.Name
		years[i] = c.Year
	}

	best := utils.RankMatches(entry.Title, entry.Year, titles, years)[0]
	if best.Score < m.threshold {
		m.logger.WithFields(logrus.Fields{
			"title": entry.Title,
			"best":  titles[best.Index],
			"score": best.Score,
		}).Debug("No close enough match")
		return nil
	}

	item := candidates[best.Index]
	return &item
}

// MatchPending tries to resolve every entry of store still waiting for a match.
// It returns how many entries were resolved.
func (m *WatchedMatcher) MatchPending(ctx context.Context, store *lists.Store) int {
	resolved := 0
	for _, entry := range store.PendingWatched() {
		if ctx.Err() != nil {
			break
		}
		item := m.Match(ctx, entry)
		if item == nil {
			continue
		}
		if err := store.ResolveWatched(entry.Category, entry.ID, *item); err != nil {
			m.logger.WithError(err).WithField("entry", entry.ID).Warn("Failed to record watched match")
			continue
		}
		resolved++
	}

	if resolved > 0 {
		m.logger.WithFields(logrus.Fields{
			"device":   store.DeviceID(),
			"resolved": resolved,
		}).Info("Matched watched entries")
	}
	return resolved
}
