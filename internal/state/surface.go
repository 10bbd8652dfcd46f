package state

import "fmt"

// Surface names one of the slot-holding HUD areas. Sync messages and
// persistence mutators address grids as (surface, index, slot).
type Surface string

const (
	// SurfaceHotbar addresses the hotbar row-group grids (index 0..2).
	SurfaceHotbar Surface = "hotbar"
	// SurfaceWeaponSets addresses the weapon-set grids (index 0..2).
	SurfaceWeaponSets Surface = "weaponSets"
	// SurfaceQuickAccess addresses the single quick-access grid (index 0).
	SurfaceQuickAccess Surface = "quickAccess"
)

// Valid reports whether the surface name is one of the known areas.
func (s Surface) Valid() bool {
	switch s {
	case SurfaceHotbar, SurfaceWeaponSets, SurfaceQuickAccess:
		return true
	}
	return false
}

// Grid resolves a (surface, index) pair against the blob. Unknown
// surfaces and out-of-range indices return nil rather than panicking;
// callers are expected to guard.
func (s *State) Grid(surface Surface, index int) *GridState {
	switch surface {
	case SurfaceHotbar:
		if index >= 0 && index < len(s.Hotbar.Grids) {
			return s.Hotbar.Grids[index]
		}
	case SurfaceWeaponSets:
		if index >= 0 && index < len(s.WeaponSets.Sets) {
			return s.WeaponSets.Sets[index]
		}
	case SurfaceQuickAccess:
		if index == 0 {
			return s.QuickAccess
		}
	}
	return nil
}

// Location identifies where a UUID was found during a whole-HUD scan.
type Location struct {
	Surface Surface
	Index   int
	Slot    string
}

func (l Location) String() string {
	return fmt.Sprintf("%s[%d]@%s", l.Surface, l.Index, l.Slot)
}

// FindUUID scans every surface for the first cell holding the UUID.
// Hotbar grids are scanned first, then weapon sets, then quick access.
func (s *State) FindUUID(uuid string) (Location, bool) {
	if uuid == "" {
		return Location{}, false
	}
	scan := func(surface Surface, index int, g *GridState) (Location, bool) {
		for key, data := range g.Items {
			if data != nil && data.UUID == uuid {
				return Location{Surface: surface, Index: index, Slot: key}, true
			}
		}
		return Location{}, false
	}
	for i, g := range s.Hotbar.Grids {
		if loc, ok := scan(SurfaceHotbar, i, g); ok {
			return loc, true
		}
	}
	for i, g := range s.WeaponSets.Sets {
		if loc, ok := scan(SurfaceWeaponSets, i, g); ok {
			return loc, true
		}
	}
	if s.QuickAccess != nil {
		if loc, ok := scan(SurfaceQuickAccess, 0, s.QuickAccess); ok {
			return loc, true
		}
	}
	return Location{}, false
}
