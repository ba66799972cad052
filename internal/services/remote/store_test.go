package remote

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/amaumene/rankboard/internal/lists"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/utils"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "remote.db"), utils.NullLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testList(id, title string, code *string) *models.List {
	return &models.List{
		ID:        id,
		ShareCode: code,
		Kind:      models.ListKindPublished,
		Category:  models.CategoryMovie,
		Title:     title,
		Items: []models.Item{
			{ID: "tmdb_movie_438631", ExternalID: "438631", Name: "Dune", Category: models.CategoryMovie, Provider: models.ProviderTMDB, Rank: 1},
			{ID: "tmdb_movie_693134", ExternalID: "693134", Name: "Dune: Part Two", Category: models.CategoryMovie, Provider: models.ProviderTMDB, Rank: 2},
		},
		PublishedAt: time.Now(),
	}
}

func TestRequiresUser(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.FetchLists(ctx, ""); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("FetchLists: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := store.CreateList(ctx, "", testList("a", "A", nil)); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("CreateList: expected ErrNotAuthenticated, got %v", err)
	}
	if err := store.UpdateList(ctx, "", "a", models.ListPatch{}); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("UpdateList: expected ErrNotAuthenticated, got %v", err)
	}
	if err := store.DeleteList(ctx, "", "a"); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("DeleteList: expected ErrNotAuthenticated, got %v", err)
	}
}

func TestCreateKeepsFreeShareCode(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	code := "Dune42"

	created, err := store.CreateList(ctx, "user-1", testList("list-1", "Dunes", &code))
	if err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}
	if *created.ShareCode != code {
		t.Errorf("expected share code %s, got %s", code, *created.ShareCode)
	}
	if created.SyncStatus != models.SyncStatusSynced || created.OwnerID != "user-1" {
		t.Errorf("unexpected created list %+v", created)
	}
	if len(created.Items) != 2 || created.Items[1].Name != "Dune: Part Two" {
		t.Errorf("items not round-tripped: %+v", created.Items)
	}
}

func TestCreateAssignsCodeOnCollision(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	code := "Dune42"

	if _, err := store.CreateList(ctx, "user-1", testList("list-1", "Dunes", &code)); err != nil {
		t.Fatal(err)
	}
	second, err := store.CreateList(ctx, "user-2", testList("list-2", "Other", &code))
	if err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}
	if *second.ShareCode == code || !lists.IsValidShareCode(*second.ShareCode) {
		t.Errorf("expected a fresh server code, got %s", *second.ShareCode)
	}

	noCode, err := store.CreateList(ctx, "user-2", testList("list-3", "No code", nil))
	if err != nil {
		t.Fatal(err)
	}
	if !lists.IsValidShareCode(*noCode.ShareCode) {
		t.Errorf("expected an assigned code, got %q", *noCode.ShareCode)
	}
}

func TestCreateIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.CreateList(ctx, "user-1", testList("list-1", "Dunes", nil))
	if err != nil {
		t.Fatal(err)
	}
	retry, err := store.CreateList(ctx, "user-1", testList("list-1", "Dunes again", nil))
	if err != nil {
		t.Fatalf("retried create failed: %v", err)
	}
	if *retry.ShareCode != *first.ShareCode || retry.Title != "Dunes again" {
		t.Errorf("unexpected retry result %+v", retry)
	}

	fetched, err := store.FetchLists(ctx, "user-1")
	if err != nil || len(fetched) != 1 {
		t.Fatalf("expected one list, got %d (%v)", len(fetched), err)
	}

	if _, err := store.CreateList(ctx, "user-2", testList("list-1", "Hijack", nil)); err == nil {
		t.Error("expected an error creating over another user's list")
	}
}

func TestUpdateAndDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.CreateList(ctx, "user-1", testList("list-1", "Dunes", nil))
	if err != nil {
		t.Fatal(err)
	}

	title := "Spice"
	public := true
	items := created.Items[:1]
	if err := store.UpdateList(ctx, "user-1", "list-1", models.ListPatch{Title: &title, IsPublic: &public, Items: items}); err != nil {
		t.Fatalf("UpdateList failed: %v", err)
	}

	got, err := store.FindByShareCode(ctx, *created.ShareCode)
	if err != nil {
		t.Fatalf("FindByShareCode failed: %v", err)
	}
	if got.Title != "Spice" || !got.IsPublic || len(got.Items) != 1 || got.Description != "" {
		t.Errorf("patch not applied as expected: %+v", got)
	}

	if err := store.UpdateList(ctx, "user-2", "list-1", models.ListPatch{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a foreign update, got %v", err)
	}

	if err := store.DeleteList(ctx, "user-1", "list-1"); err != nil {
		t.Fatalf("DeleteList failed: %v", err)
	}
	if err := store.DeleteList(ctx, "user-1", "list-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
	if _, err := store.FindByShareCode(ctx, *created.ShareCode); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted list should not be found by code, got %v", err)
	}
	fetched, _ := store.FetchLists(ctx, "user-1")
	if len(fetched) != 0 {
		t.Error("deleted list should not be fetched")
	}

	taken, err := store.ShareCodeExists(ctx, *created.ShareCode)
	if err != nil || !taken {
		t.Error("codes of deleted lists stay reserved")
	}
}
