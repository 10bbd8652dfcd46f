package hudsync

import (
	"sort"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// cellKey identifies a cell update for deduplication.
type cellKey struct {
	surface state.Surface
	index   int
	slot    string
}

// containerKey identifies a container update for deduplication.
type containerKey struct {
	surface state.Surface
	index   int
}

// Coalesce deduplicates and reorders a queued batch. It is applied
// identically before sending and before applying received batches:
//
//   - clearAll erases everything queued before it.
//   - gridConfig keeps only the latest per grid index.
//   - cellUpdate keeps only the latest per (surface, index, slot).
//   - containerUpdate keeps the latest per container and removes cell
//     updates for the same container that were queued before it.
//   - weaponSetChange keeps only the latest value.
//   - cell updates addressing slots outside the bounds implied by a
//     coalesced gridConfig for the same grid are dropped.
//
// Output order is fixed: clearAll, gridConfigs, containerUpdates,
// weaponSetChange, cellUpdates. Shape changes must land before content
// addressed by the new shape, and bulk replacements before the patches
// they would conflict with.
func Coalesce(updates []Update) []Update {
	var clearAll *Update
	gridConfigs := make(map[int]Update)
	containers := make(map[containerKey]Update)
	cells := make(map[cellKey]Update)
	var weaponSet *Update

	for _, u := range updates {
		u := u
		switch u.Type {
		case UpdateClearAll:
			if clearAll == nil || u.Timestamp >= clearAll.Timestamp {
				clearAll = &u
			}
			gridConfigs = make(map[int]Update)
			containers = make(map[containerKey]Update)
			cells = make(map[cellKey]Update)
			weaponSet = nil

		case UpdateGridConfig:
			if existing, ok := gridConfigs[u.GridIndex]; !ok || u.Timestamp >= existing.Timestamp {
				gridConfigs[u.GridIndex] = u
			}

		case UpdateContainer:
			key := containerKey{surface: u.Surface, index: u.SurfaceIndex}
			if existing, ok := containers[key]; !ok || u.Timestamp >= existing.Timestamp {
				containers[key] = u
			}
			for ck := range cells {
				if ck.surface == key.surface && ck.index == key.index {
					delete(cells, ck)
				}
			}

		case UpdateCell:
			key := cellKey{surface: u.Surface, index: u.SurfaceIndex, slot: u.Slot}
			if existing, ok := cells[key]; !ok || u.Timestamp >= existing.Timestamp {
				cells[key] = u
			}

		case UpdateWeaponSet:
			if weaponSet == nil || u.Timestamp >= weaponSet.Timestamp {
				weaponSet = &u
			}
		}
	}

	// Drop cell updates that a coalesced shape change orphaned.
	for key := range cells {
		if key.surface != state.SurfaceHotbar {
			continue
		}
		config, ok := gridConfigs[key.index]
		if !ok {
			continue
		}
		col, row, err := state.ParseSlotKey(key.slot)
		if err != nil || col >= config.Cols || row >= config.Rows {
			delete(cells, key)
		}
	}

	out := make([]Update, 0, 1+len(gridConfigs)+len(containers)+1+len(cells))
	if clearAll != nil {
		out = append(out, *clearAll)
	}
	out = append(out, sortedGridConfigs(gridConfigs)...)
	out = append(out, sortedContainers(containers)...)
	if weaponSet != nil {
		out = append(out, *weaponSet)
	}
	out = append(out, sortedCells(cells)...)
	return out
}

// The per-type sorts keep coalesced output deterministic; within a type
// there is no ordering dependency, determinism just makes batches
// comparable across clients and in tests.

func sortedGridConfigs(configs map[int]Update) []Update {
	out := make([]Update, 0, len(configs))
	for _, u := range configs {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GridIndex < out[j].GridIndex })
	return out
}

func sortedContainers(containers map[containerKey]Update) []Update {
	out := make([]Update, 0, len(containers))
	for _, u := range containers {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Surface != out[j].Surface {
			return out[i].Surface < out[j].Surface
		}
		return out[i].SurfaceIndex < out[j].SurfaceIndex
	})
	return out
}

func sortedCells(cells map[cellKey]Update) []Update {
	out := make([]Update, 0, len(cells))
	for _, u := range cells {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Surface != out[j].Surface {
			return out[i].Surface < out[j].Surface
		}
		if out[i].SurfaceIndex != out[j].SurfaceIndex {
			return out[i].SurfaceIndex < out[j].SurfaceIndex
		}
		return out[i].Slot < out[j].Slot
	})
	return out
}
