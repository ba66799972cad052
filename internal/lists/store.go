package lists

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
	"github.com/amaumene/rankboard/internal/utils"
	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sirupsen/logrus"
)

// ChangeKind classifies a local mutation of a published list
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Change is emitted after a published list is mutated locally
type Change struct {
	Kind   ChangeKind
	ListID string
	List   *models.List     // snapshot after the change
	Patch  models.ListPatch // changed fields, for updates
}

// ChangeObserver receives changes once the store lock is released
type ChangeObserver func(Change)

// Store holds one session's lists: temp lists by category, published lists,
// saved recommendations and the watched-pool. It is the single writer of
// local state and writes through to the local database.
type Store struct {
	mu sync.RWMutex

	deviceID     string
	db           *models.Database
	allocator    *ShareCodeAllocator
	maxTempItems int
	logger       *logrus.Logger
	now          func() time.Time

	temp            map[models.Category]*models.TempList
	published       map[string]*models.List
	recommendations map[string]*models.List
	watched         map[models.Category][]models.WatchedEntry

	observers []ChangeObserver
}

// NewStore creates a store for a device, loading whatever the database holds for it.
// db and allocator may be nil.
func NewStore(deviceID string, db *models.Database, allocator *ShareCodeAllocator, maxTempItems int, logger *logrus.Logger) (*Store, error) {
	s := &Store{
		deviceID:        deviceID,
		db:              db,
		allocator:       allocator,
		maxTempItems:    maxTempItems,
		logger:          logger,
		now:             time.Now,
		temp:            make(map[models.Category]*models.TempList),
		published:       make(map[string]*models.List),
		recommendations: make(map[string]*models.List),
		watched:         make(map[models.Category][]models.WatchedEntry),
	}

	if db != nil {
		state, err := db.LoadDevice(deviceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load local state for %s: %w", deviceID, err)
		}
		s.temp = state.TempLists
		s.published = state.Lists
		s.recommendations = state.Recommendations
		s.watched = state.Watched
	}

	return s, nil
}

// DeviceID returns the device the store belongs to
func (s *Store) DeviceID() string {
	return s.deviceID
}

// Observe registers a change observer
func (s *Store) Observe(observer ChangeObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

func (s *Store) notify(change *Change) {
	if change == nil {
		return
	}
	s.mu.RLock()
	observers := append([]ChangeObserver(nil), s.observers...)
	s.mu.RUnlock()

	for _, observer := range observers {
		observer(*change)
	}
}

// NewCustomItem builds a locally created item with no upstream
func NewCustomItem(name, subtitle string, image *string, year *int) models.Item {
	nativeID := uuid.NewString()
	return models.Item{
		ID:         models.NewItemID(models.ProviderCustom, models.CategoryCustom, nativeID),
		ExternalID: nativeID,
		Category:   models.CategoryCustom,
		Provider:   models.ProviderCustom,
		Name:       strings.TrimSpace(name),
		Subtitle:   subtitle,
		Image:      image,
		Year:       year,
	}
}

func validateItem(category models.Category, item models.Item) error {
	if item.ID == "" {
		return invalid("item", "missing id")
	}
	if item.ExternalID == "" || item.ID != models.NewItemID(item.Provider, item.Category, item.ExternalID) {
		return invalid("item", fmt.Sprintf("id %s does not match %s/%s/%s", item.ID, item.Provider, item.Category, item.ExternalID))
	}
	if strings.TrimSpace(item.Name) == "" {
		return invalid("item", "missing name")
	}
	if item.Provider != models.ProviderCustom && item.Category != category {
		return invalid("item", fmt.Sprintf("%s item cannot go in a %s list", item.Category, category))
	}
	return nil
}

func validateCategory(category models.Category) error {
	if !providers.IsKnown(category) {
		return invalid("category", fmt.Sprintf("unknown category %q", category))
	}
	return nil
}

func validateRating(rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return invalid("rating", "must be between 1 and 5")
	}
	return nil
}

// Temp lists

// TempList returns a copy of the working list for category (empty if none)
func (s *Store) TempList(category models.Category) *models.TempList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tempCopy(category)
}

func (s *Store) tempCopy(category models.Category) *models.TempList {
	tl, ok := s.temp[category]
	if !ok {
		return &models.TempList{Category: category, Items: []models.Item{}}
	}
	return &models.TempList{Category: tl.Category, Items: models.CloneItems(tl.Items), UpdatedAt: tl.UpdatedAt}
}

// TempLists returns copies of every non-empty working list
func (s *Store) TempLists() map[models.Category]*models.TempList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[models.Category]*models.TempList, len(s.temp))
	for category, tl := range s.temp {
		if len(tl.Items) > 0 {
			out[category] = s.tempCopy(category)
		}
	}
	return out
}

// mutateTemp runs fn on a copy of the category's items and commits only on success
func (s *Store) mutateTemp(category models.Category, fn func(items []models.Item) ([]models.Item, error)) (*models.TempList, error) {
	if err := validateCategory(category); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.tempCopy(category)
	items, err := fn(current.Items)
	if err != nil {
		return nil, err
	}

	tl := &models.TempList{Category: category, Items: AssignSequentialRanks(items), UpdatedAt: s.now()}
	s.temp[category] = tl
	s.persistTemp(tl)
	return s.tempCopy(category), nil
}

// AddToTemp appends an item to the category's working list
func (s *Store) AddToTemp(category models.Category, item models.Item) (*models.TempList, error) {
	return s.mutateTemp(category, func(items []models.Item) ([]models.Item, error) {
		if err := validateItem(category, item); err != nil {
			return nil, err
		}
		if indexOf(items, item.ID) >= 0 {
			return nil, invalid("item", "already in the list")
		}
		if s.maxTempItems > 0 && len(items) >= s.maxTempItems {
			return nil, invalid("items", fmt.Sprintf("working list is full (%d items)", s.maxTempItems))
		}
		return Insert(items, item.WithoutAnnotations(), -1), nil
	})
}

// RemoveFromTemp drops an item from the working list
func (s *Store) RemoveFromTemp(category models.Category, itemID string) (*models.TempList, error) {
	return s.mutateTemp(category, func(items []models.Item) ([]models.Item, error) {
		if indexOf(items, itemID) < 0 {
			return nil, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
		}
		return Remove(items, itemID), nil
	})
}

// MoveTempItem reorders the working list
func (s *Store) MoveTempItem(category models.Category, itemID string, move Move) (*models.TempList, error) {
	return s.mutateTemp(category, func(items []models.Item) ([]models.Item, error) {
		return applyMove(items, itemID, move)
	})
}

// ClearTemp empties the working list
func (s *Store) ClearTemp(category models.Category) *models.TempList {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.temp, category)
	if s.db != nil {
		if err := s.db.DeleteTempList(s.deviceID, category); err != nil {
			s.logPersistError(err, "temp list", string(category))
		}
	}
	return &models.TempList{Category: category, Items: []models.Item{}}
}

func applyMove(items []models.Item, itemID string, move Move) ([]models.Item, error) {
	if indexOf(items, itemID) < 0 {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	out, ok := ApplyMove(items, itemID, move)
	if !ok {
		return nil, invalid("move", fmt.Sprintf("unknown op %q", move.Op))
	}
	return out, nil
}

// Publishing

// Publish turns the category's working list into a published list. Only the
// published items leave the working list; items added meanwhile stay.
func (s *Store) Publish(ctx context.Context, category models.Category, meta models.ListMeta) (*models.List, error) {
	s.mu.RLock()
	items := s.tempCopy(category).Items
	s.mu.RUnlock()

	list, err := s.CreateFromItems(ctx, category, items, meta, models.ListKindPublished)
	if err != nil {
		return nil, err
	}
	s.dropFromTemp(category, items)
	return list, nil
}

// dropFromTemp removes published items from the working list, deleting it once empty
func (s *Store) dropFromTemp(category models.Category, published []models.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gone := make(map[string]struct{}, len(published))
	for _, item := range published {
		gone[item.ID] = struct{}{}
	}

	current := s.tempCopy(category)
	kept := make([]models.Item, 0, len(current.Items))
	for _, item := range current.Items {
		if _, ok := gone[item.ID]; !ok {
			kept = append(kept, item)
		}
	}

	if len(kept) == 0 {
		delete(s.temp, category)
		if s.db != nil {
			if err := s.db.DeleteTempList(s.deviceID, category); err != nil {
				s.logPersistError(err, "temp list", string(category))
			}
		}
		return
	}

	tl := &models.TempList{Category: category, Items: AssignSequentialRanks(kept), UpdatedAt: s.now()}
	s.temp[category] = tl
	s.persistTemp(tl)
}

// CreateFromItems creates a list directly from items. Published lists get a share code.
func (s *Store) CreateFromItems(ctx context.Context, category models.Category, items []models.Item, meta models.ListMeta, kind models.ListKind) (*models.List, error) {
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		return nil, invalid("title", "must not be empty")
	}
	if len(items) == 0 {
		return nil, invalid("items", "a list needs at least one item")
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if err := validateItem(category, item); err != nil {
			return nil, err
		}
		if _, dup := seen[item.ID]; dup {
			return nil, invalid("items", fmt.Sprintf("duplicate item %s", item.ID))
		}
		seen[item.ID] = struct{}{}
		if err := validateRating(item.UserRating); err != nil {
			return nil, err
		}
	}
	if kind == "" {
		kind = models.ListKindPublished
	}

	// Allocation may hit the local and remote stores, so it runs unlocked
	var shareCode *string
	if kind == models.ListKindPublished && s.allocator != nil {
		code := s.allocator.Allocate(ctx)
		shareCode = &code
	}

	now := s.now()
	list := &models.List{
		ID:          uuid.NewString(),
		ShareCode:   shareCode,
		Kind:        kind,
		Category:    category,
		Title:       title,
		Description: meta.Description,
		Theme:       meta.Theme,
		AccentColor: meta.AccentColor,
		Year:        meta.Year,
		IsPublic:    meta.IsPublic,
		Items:       AssignSequentialRanks(items),
		PublishedAt: now,
		UpdatedAt:   now,
		SyncStatus:  models.SyncStatusLocalOnly,
	}

	if kind == models.ListKindRecommendation {
		s.mu.Lock()
		s.recommendations[list.ID] = list
		s.persistRecommendation(list)
		s.mu.Unlock()
		return list.Clone(), nil
	}

	var change *Change
	defer func() { s.notify(change) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.published[list.ID] = list
	s.persistList(list)
	change = &Change{Kind: ChangeCreated, ListID: list.ID, List: list.Clone()}

	s.logger.WithFields(logrus.Fields{
		"device":   s.deviceID,
		"list":     list.ID,
		"category": category,
		"items":    len(list.Items),
	}).Info("Published list")

	return list.Clone(), nil
}

// Published lists

// mutateList runs fn on a copy of a live published list and commits only on success
func (s *Store) mutateList(listID string, fn func(list *models.List) (models.ListPatch, error)) (*models.List, error) {
	var change *Change
	defer func() { s.notify(change) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.published[listID]
	if !ok || current.IsDeleted() {
		return nil, fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}

	working := current.Clone()
	patch, err := fn(working)
	if err != nil {
		return nil, err
	}

	working.UpdatedAt = s.now()
	s.published[listID] = working
	s.persistList(working)
	change = &Change{Kind: ChangeUpdated, ListID: listID, List: working.Clone(), Patch: patch}
	return working.Clone(), nil
}

// AddItem appends an item to a published list
func (s *Store) AddItem(listID string, item models.Item) (*models.List, error) {
	return s.mutateList(listID, func(list *models.List) (models.ListPatch, error) {
		if err := validateItem(list.Category, item); err != nil {
			return models.ListPatch{}, err
		}
		if indexOf(list.Items, item.ID) >= 0 {
			return models.ListPatch{}, invalid("item", "already in the list")
		}
		list.Items = Insert(list.Items, item.WithoutAnnotations(), -1)
		return models.ListPatch{Items: list.Items}, nil
	})
}

// RemoveItem drops an item from a published list. The last item cannot be removed.
func (s *Store) RemoveItem(listID, itemID string) (*models.List, error) {
	return s.mutateList(listID, func(list *models.List) (models.ListPatch, error) {
		if indexOf(list.Items, itemID) < 0 {
			return models.ListPatch{}, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
		}
		if len(list.Items) == 1 {
			return models.ListPatch{}, invalid("items", "a list needs at least one item")
		}
		list.Items = Remove(list.Items, itemID)
		return models.ListPatch{Items: list.Items}, nil
	})
}

// MoveItem reorders a published list
func (s *Store) MoveItem(listID, itemID string, move Move) (*models.List, error) {
	return s.mutateList(listID, func(list *models.List) (models.ListPatch, error) {
		items, err := applyMove(list.Items, itemID, move)
		if err != nil {
			return models.ListPatch{}, err
		}
		list.Items = items
		return models.ListPatch{Items: list.Items}, nil
	})
}

// UpdateMetadata applies title, theme, visibility and other non-structural edits
func (s *Store) UpdateMetadata(listID string, patch models.ListPatch) (*models.List, error) {
	patch.Items = nil
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, invalid("title", "must not be empty")
		}
		patch.Title = &title
	}

	return s.mutateList(listID, func(list *models.List) (models.ListPatch, error) {
		patch.Apply(list)
		return patch, nil
	})
}

// UpdateItem sets the rating and/or comment of one item
func (s *Store) UpdateItem(listID, itemID string, patch models.ItemPatch) (*models.List, error) {
	if err := validateRating(patch.Rating); err != nil {
		return nil, err
	}

	return s.mutateList(listID, func(list *models.List) (models.ListPatch, error) {
		i := indexOf(list.Items, itemID)
		if i < 0 {
			return models.ListPatch{}, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
		}
		item := &list.Items[i]
		switch {
		case patch.ClearRating:
			item.UserRating = nil
		case patch.Rating != nil:
			r := *patch.Rating
			item.UserRating = &r
		}
		if patch.Comment != nil {
			item.Comment = *patch.Comment
		}
		return models.ListPatch{Items: list.Items}, nil
	})
}

// DeleteList soft-deletes a published list
func (s *Store) DeleteList(listID string) error {
	var change *Change
	defer func() { s.notify(change) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.published[listID]
	if !ok || list.IsDeleted() {
		return fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}

	deleted := list.Clone()
	now := s.now()
	deleted.DeletedAt = &now
	deleted.UpdatedAt = now
	s.published[listID] = deleted
	s.persistList(deleted)
	change = &Change{Kind: ChangeDeleted, ListID: listID, List: deleted.Clone()}
	return nil
}

// Lists returns live published lists, most recently updated first
func (s *Store) Lists() []*models.List {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.List, 0, len(s.published))
	for _, list := range s.published {
		if !list.IsDeleted() {
			out = append(out, list.Clone())
		}
	}
	sortByUpdated(out)
	return out
}

// AllPublished returns every published list, soft-deleted ones included
func (s *Store) AllPublished() []*models.List {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.List, 0, len(s.published))
	for _, list := range s.published {
		out = append(out, list.Clone())
	}
	sortByUpdated(out)
	return out
}

func sortByUpdated(lists []*models.List) {
	sort.SliceStable(lists, func(i, j int) bool {
		if !lists[i].UpdatedAt.Equal(lists[j].UpdatedAt) {
			return lists[i].UpdatedAt.After(lists[j].UpdatedAt)
		}
		return lists[i].ID < lists[j].ID
	})
}

// Get returns a live published list
func (s *Store) Get(listID string) (*models.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.published[listID]
	if !ok || list.IsDeleted() {
		return nil, fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}
	return list.Clone(), nil
}

// FindByShareCode looks through live published lists and saved recommendations
func (s *Store) FindByShareCode(code string) *models.List {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, collection := range []map[string]*models.List{s.published, s.recommendations} {
		for _, list := range collection {
			if list.ShareCode != nil && *list.ShareCode == code && !list.IsDeleted() {
				return list.Clone()
			}
		}
	}
	return nil
}

// SearchLists fuzzy-matches query against live published list titles, best match first
func (s *Store) SearchLists(query string) []*models.List {
	live := s.Lists()
	query = strings.TrimSpace(query)
	if query == "" {
		return live
	}

	titles := make([]string, len(live))
	for i, list := range live {
		titles[i] = list.Title
	}

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	out := make([]*models.List, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, live[r.OriginalIndex])
	}
	return out
}

// Sync hooks. These never notify observers.

// ReplacePublished swaps in the merged published collection
func (s *Store) ReplacePublished(merged []*models.List) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replacePublishedLocked(merged)
}

// MergePublished replaces the published collection with merge(current) under
// one lock, so edits made while a pull is in flight are not overwritten. The
// lists handed to merge, soft-deleted ones included, are returned.
func (s *Store) MergePublished(merge func(local []*models.List) []*models.List) []*models.List {
	s.mu.Lock()
	defer s.mu.Unlock()

	local := make([]*models.List, 0, len(s.published))
	for _, list := range s.published {
		local = append(local, list.Clone())
	}
	sortByUpdated(local)

	s.replacePublishedLocked(merge(local))
	return local
}

func (s *Store) replacePublishedLocked(merged []*models.List) {
	next := make(map[string]*models.List, len(merged))
	for _, list := range merged {
		next[list.ID] = list.Clone()
	}

	for id := range s.published {
		if _, kept := next[id]; !kept && s.db != nil {
			if err := s.db.DeleteList(s.deviceID, id); err != nil {
				s.logPersistError(err, "list", id)
			}
		}
	}
	for _, list := range next {
		s.persistList(list)
	}
	s.published = next
}

// SetShareCode records a server-assigned share code
func (s *Store) SetShareCode(listID, code string) {
	s.updateQuietly(listID, func(list *models.List) {
		list.ShareCode = &code
	})
}

// SetSyncStatus records the replication state of a list
func (s *Store) SetSyncStatus(listID string, status models.SyncStatus) {
	s.updateQuietly(listID, func(list *models.List) {
		list.SyncStatus = status
	})
}

func (s *Store) updateQuietly(listID string, fn func(list *models.List)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.published[listID]
	if !ok {
		return
	}
	updated := list.Clone()
	fn(updated)
	s.published[listID] = updated
	s.persistList(updated)
}

// Recommendations

// SaveRecommendation keeps a copy of someone else's list
func (s *Store) SaveRecommendation(list *models.List) *models.List {
	saved := list.Clone()
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	saved.Kind = models.ListKindRecommendation
	saved.Items = AssignSequentialRanks(saved.Items)
	saved.SyncStatus = models.SyncStatusLocalOnly
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recommendations[saved.ID] = saved
	s.persistRecommendation(saved)
	return saved.Clone()
}

// Recommendations returns the saved recommendation lists
func (s *Store) Recommendations() []*models.List {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.List, 0, len(s.recommendations))
	for _, list := range s.recommendations {
		out = append(out, list.Clone())
	}
	sortByUpdated(out)
	return out
}

// DeleteRecommendation forgets a saved recommendation list
func (s *Store) DeleteRecommendation(listID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recommendations[listID]; !ok {
		return fmt.Errorf("recommendation %s: %w", listID, ErrNotFound)
	}
	delete(s.recommendations, listID)
	if s.db != nil {
		if err := s.db.DeleteRecommendation(s.deviceID, listID); err != nil {
			s.logPersistError(err, "recommendation", listID)
		}
	}
	return nil
}

// Watched-pool

func watchedKey(title string, year *int) string {
	key := utils.FoldTitle(title)
	if year != nil {
		key += fmt.Sprintf("|%d", *year)
	}
	return key
}

// ImportWatched merges entries into the category's pool. Entries already
// present (same folded title and year) are kept, with a new rating winning.
func (s *Store) ImportWatched(category models.Category, entries []models.WatchedEntry) ([]models.WatchedEntry, error) {
	if err := validateCategory(category); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pool := append([]models.WatchedEntry(nil), s.watched[category]...)
	index := make(map[string]int, len(pool))
	for i, e := range pool {
		index[watchedKey(e.Title, e.Year)] = i
	}

	now := s.now()
	for _, e := range entries {
		e.Title = strings.TrimSpace(e.Title)
		if e.Title == "" {
			continue
		}
		key := watchedKey(e.Title, e.Year)
		if i, ok := index[key]; ok {
			if e.Rating != nil {
				pool[i].Rating = e.Rating
			}
			continue
		}

		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.Category = category
		e.NeedsMatch = e.ItemID == ""
		if e.Source == "" {
			e.Source = models.WatchedSourceManual
		}
		e.ImportedAt = now
		index[key] = len(pool)
		pool = append(pool, e)
	}

	s.watched[category] = pool
	s.persistWatched(category, pool)
	return append([]models.WatchedEntry(nil), pool...), nil
}

// Watched returns the category's pool
func (s *Store) Watched(category models.Category) []models.WatchedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.WatchedEntry{}, s.watched[category]...)
}

// PendingWatched returns every entry still waiting for an upstream match
func (s *Store) PendingWatched() []models.WatchedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.WatchedEntry
	for _, pool := range s.watched {
		for _, e := range pool {
			if e.NeedsMatch {
				out = append(out, e)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ImportedAt.Before(out[j].ImportedAt)
	})
	return out
}

// ResolveWatched links an entry to an upstream item
func (s *Store) ResolveWatched(category models.Category, entryID string, item models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool := s.watched[category]
	for i := range pool {
		if pool[i].ID != entryID {
			continue
		}
		updated := append([]models.WatchedEntry(nil), pool...)
		updated[i].ItemID = item.ID
		updated[i].UpstreamID = item.ExternalID
		updated[i].NeedsMatch = false
		s.watched[category] = updated
		s.persistWatched(category, updated)
		return nil
	}
	return fmt.Errorf("watched entry %s: %w", entryID, ErrNotFound)
}

// Persistence. Failures are logged and never fail the mutation.

func (s *Store) logPersistError(err error, kind, key string) {
	s.logger.WithError(err).WithFields(logrus.Fields{
		"device": s.deviceID,
		"kind":   kind,
		"key":    key,
	}).Error("Failed to persist local state")
}

func (s *Store) persistTemp(tl *models.TempList) {
	if s.db == nil {
		return
	}
	if err := s.db.SaveTempList(s.deviceID, tl); err != nil {
		s.logPersistError(err, "temp list", string(tl.Category))
	}
}

func (s *Store) persistList(list *models.List) {
	if s.db == nil {
		return
	}
	if err := s.db.SaveList(s.deviceID, list); err != nil {
		s.logPersistError(err, "list", list.ID)
	}
}

func (s *Store) persistRecommendation(list *models.List) {
	if s.db == nil {
		return
	}
	if err := s.db.SaveRecommendation(s.deviceID, list); err != nil {
		s.logPersistError(err, "recommendation", list.ID)
	}
}

func (s *Store) persistWatched(category models.Category, pool []models.WatchedEntry) {
	if s.db == nil {
		return
	}
	if err := s.db.SaveWatched(s.deviceID, category, pool); err != nil {
		s.logPersistError(err, "watched", string(category))
	}
}
