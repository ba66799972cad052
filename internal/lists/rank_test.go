package lists

import (
	"fmt"
	"testing"

	"github.com/amaumene/rankboard/internal/models"
)

func makeItems(n int) []models.Item {
	items := make([]models.Item, n)
	for i := range items {
		id := fmt.Sprintf("%d", i+1)
		items[i] = models.Item{
			ID:         models.NewItemID(models.ProviderTMDB, models.CategoryMovie, id),
			ExternalID: id,
			Category:   models.CategoryMovie,
			Provider:   models.ProviderTMDB,
			Name:       "Movie " + id,
		}
	}
	return items
}

func order(items []models.Item) string {
	s := ""
	for _, item := range items {
		s += item.ExternalID
	}
	return s
}

func TestAssignSequentialRanks(t *testing.T) {
	items := makeItems(4)
	items[0].Rank = 7
	items[2].Rank = 7

	ranked := AssignSequentialRanks(items)
	if !RanksContiguous(ranked) {
		t.Errorf("ranks not contiguous: %+v", ranked)
	}
	if items[0].Rank != 7 {
		t.Error("input must not be modified")
	}
	if got := AssignSequentialRanks(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestMoveUpDownBoundaries(t *testing.T) {
	items := AssignSequentialRanks(makeItems(3))
	first, last := items[0].ID, items[2].ID

	if got := order(MoveItemUp(items, first)); got != "123" {
		t.Errorf("moving the first item up should be a no-op, got %s", got)
	}
	if got := order(MoveItemDown(items, last)); got != "123" {
		t.Errorf("moving the last item down should be a no-op, got %s", got)
	}
	if got := order(MoveItemUp(items, last)); got != "132" {
		t.Errorf("unexpected order %s", got)
	}
	if got := order(MoveItemDown(items, first)); got != "213" {
		t.Errorf("unexpected order %s", got)
	}
	if got := order(MoveItemUp(items, "missing")); got != "123" {
		t.Errorf("unknown id should be a no-op, got %s", got)
	}
}

func TestMoveTo(t *testing.T) {
	items := AssignSequentialRanks(makeItems(5))

	tests := []struct {
		id    string
		index int
		want  string
	}{
		{items[4].ID, 0, "51234"},
		{items[0].ID, 4, "23451"},
		{items[1].ID, 2, "13245"},
		{items[0].ID, 99, "23451"},
		{items[3].ID, -3, "41235"},
	}

	for _, tt := range tests {
		got := MoveItemTo(items, tt.id, tt.index)
		if order(got) != tt.want {
			t.Errorf("MoveItemTo(%s, %d) = %s, want %s", tt.id, tt.index, order(got), tt.want)
		}
		if !RanksContiguous(got) {
			t.Errorf("ranks not contiguous after MoveItemTo(%s, %d)", tt.id, tt.index)
		}
	}
}

func TestRankContiguityAcrossOperations(t *testing.T) {
	items := AssignSequentialRanks(makeItems(6))
	extra := makeItems(8)[7]

	steps := []func([]models.Item) []models.Item{
		func(in []models.Item) []models.Item { return Insert(in, extra, 2) },
		func(in []models.Item) []models.Item { return Remove(in, in[0].ID) },
		func(in []models.Item) []models.Item { return MoveItemDown(in, in[1].ID) },
		func(in []models.Item) []models.Item { return MoveItemTo(in, in[4].ID, 1) },
		func(in []models.Item) []models.Item { return Remove(in, in[len(in)-1].ID) },
		func(in []models.Item) []models.Item { return MoveItemUp(in, in[len(in)-1].ID) },
	}

	for i, step := range steps {
		items = step(items)
		if !RanksContiguous(items) {
			t.Fatalf("step %d broke rank contiguity: %+v", i, items)
		}
	}
	if len(items) != 5 {
		t.Errorf("expected 5 items, got %d", len(items))
	}
}

func TestApplyMove(t *testing.T) {
	items := AssignSequentialRanks(makeItems(3))

	if _, ok := ApplyMove(items, items[0].ID, Move{Op: "sideways"}); ok {
		t.Error("unknown op should not be ok")
	}
	if _, ok := ApplyMove(items, "missing", Move{Op: MoveUp}); ok {
		t.Error("unknown id should not be ok")
	}
	got, ok := ApplyMove(items, items[0].ID, Move{Op: MoveTo, Index: 2})
	if !ok || order(got) != "231" {
		t.Errorf("unexpected result %s", order(got))
	}
}
