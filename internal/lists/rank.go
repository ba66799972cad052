package lists

import "github.com/amaumene/rankboard/internal/models"

// MoveOp is a rank change requested by the user
type MoveOp string

const (
	MoveUp   MoveOp = "up"
	MoveDown MoveOp = "down"
	MoveTo   MoveOp = "to"
)

// Move describes a reorder; Index is only read for MoveTo
type Move struct {
	Op    MoveOp `json:"op"`
	Index int    `json:"index"`
}

// All functions below return a fresh slice with ranks exactly 1..N and never
// modify their input.

// AssignSequentialRanks sets rank = position + 1 on a copy of items
func AssignSequentialRanks(items []models.Item) []models.Item {
	out := models.CloneItems(items)
	if out == nil {
		out = []models.Item{}
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func indexOf(items []models.Item, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// MoveItemUp swaps the item with its predecessor. No-op for the first item or an unknown id.
func MoveItemUp(items []models.Item, id string) []models.Item {
	out := AssignSequentialRanks(items)
	if i := indexOf(out, id); i > 0 {
		out[i-1], out[i] = out[i], out[i-1]
	}
	return AssignSequentialRanks(out)
}

// MoveItemDown swaps the item with its successor. No-op for the last item or an unknown id.
func MoveItemDown(items []models.Item, id string) []models.Item {
	out := AssignSequentialRanks(items)
	if i := indexOf(out, id); i >= 0 && i < len(out)-1 {
		out[i], out[i+1] = out[i+1], out[i]
	}
	return AssignSequentialRanks(out)
}

// MoveItemTo reinserts the item at newIndex, clamped to the valid range
func MoveItemTo(items []models.Item, id string, newIndex int) []models.Item {
	i := indexOf(items, id)
	if i < 0 {
		return AssignSequentialRanks(items)
	}

	target := items[i]
	rest := make([]models.Item, 0, len(items))
	rest = append(rest, items[:i]...)
	rest = append(rest, items[i+1:]...)
	if newIndex < 0 {
		newIndex = 0
	}
	return Insert(rest, target, newIndex)
}

// Insert places item at index (clamped; a negative index appends)
func Insert(items []models.Item, item models.Item, index int) []models.Item {
	if index < 0 || index > len(items) {
		index = len(items)
	}
	out := make([]models.Item, 0, len(items)+1)
	out = append(out, items[:index]...)
	out = append(out, item)
	out = append(out, items[index:]...)
	return AssignSequentialRanks(out)
}

// Remove drops the item with the given id
func Remove(items []models.Item, id string) []models.Item {
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return AssignSequentialRanks(out)
}

// ApplyMove dispatches a Move. ok is false for an unknown op or id.
func ApplyMove(items []models.Item, id string, move Move) (out []models.Item, ok bool) {
	if indexOf(items, id) < 0 {
		return AssignSequentialRanks(items), false
	}
	switch move.Op {
	case MoveUp:
		return MoveItemUp(items, id), true
	case MoveDown:
		return MoveItemDown(items, id), true
	case MoveTo:
		return MoveItemTo(items, id, move.Index), true
	}
	return AssignSequentialRanks(items), false
}

// RanksContiguous reports whether ranks are exactly 1..N in order
func RanksContiguous(items []models.Item) bool {
	for i, item := range items {
		if item.Rank != i+1 {
			return false
		}
	}
	return true
}
