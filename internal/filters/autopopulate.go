package filters

import (
	"sort"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// AutoPopulate assigns candidate items to the grid's free slots in
// row-major order. Items whose UUID the exists lookup reports as already
// placed anywhere in the HUD are skipped, as are nil entries and
// duplicates within the candidate list itself. Placement stops when the
// grid runs out of free slots; leftovers are returned in order. The grid
// itself is not mutated; callers persist the returned placements.
func AutoPopulate(g *state.GridState, items []*state.CellData, exists func(uuid string) bool) (placed map[string]*state.CellData, leftover []*state.CellData) {
	if g == nil {
		return nil, items
	}
	if exists == nil {
		exists = func(string) bool { return false }
	}

	free := freeSlots(g)
	placed = make(map[string]*state.CellData)
	seen := make(map[string]bool)
	for _, item := range items {
		if item == nil || item.UUID == "" {
			continue
		}
		if seen[item.UUID] || exists(item.UUID) {
			continue
		}
		seen[item.UUID] = true
		if len(free) == 0 {
			leftover = append(leftover, item.Clone())
			continue
		}
		placed[free[0]] = item.Clone()
		free = free[1:]
	}
	return placed, leftover
}

// freeSlots lists the grid's unoccupied slot keys in row-major order.
func freeSlots(g *state.GridState) []string {
	var free []string
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			key := state.SlotKey(col, row)
			if g.Items[key] == nil {
				free = append(free, key)
			}
		}
	}
	return free
}

// Comparator orders two cell payloads for auto-sort.
type Comparator func(a, b *state.CellData) bool

// ByName orders alphabetically by display name.
func ByName(a, b *state.CellData) bool {
	return a.Name < b.Name
}

// ByTypeThenName groups by type, alphabetical within each group.
func ByTypeThenName(a, b *state.CellData) bool {
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.Name < b.Name
}

// AutoSort compacts the grid's items into row-major order under the
// comparator, leaving no gaps. The returned map is a full replacement
// for the grid's contents; the grid itself is not mutated.
func AutoSort(g *state.GridState, less Comparator) map[string]*state.CellData {
	if g == nil {
		return nil
	}
	if less == nil {
		less = ByName
	}

	items := make([]*state.CellData, 0, len(g.Items))
	for key, data := range g.Items {
		if data == nil {
			continue
		}
		if col, row, err := state.ParseSlotKey(key); err != nil || !g.InBounds(col, row) {
			continue
		}
		items = append(items, data.Clone())
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })

	sorted := make(map[string]*state.CellData, len(items))
	for i, item := range items {
		if i >= g.Capacity() {
			break
		}
		sorted[state.SlotKey(i%g.Cols, i/g.Cols)] = item
	}
	return sorted
}
