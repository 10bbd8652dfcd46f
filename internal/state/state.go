// Package state defines the persisted data model shared by every HUD
// surface: cell payloads, grid layouts, weapon sets, quick access, and
// named hotbar views. All snapshot helpers return detached copies so
// callers can mutate results without corrupting live state.
package state

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// HotbarGridCount is the number of independent hotbar grids (row groups).
	HotbarGridCount = 3
	// WeaponSetCount is the number of switchable weapon sets.
	WeaponSetCount = 3
	// MaxViews caps how many named hotbar views a subject may hold.
	MaxViews = 5

	// DefaultHotbarRows and DefaultHotbarCols size a freshly created hotbar grid.
	DefaultHotbarRows = 2
	DefaultHotbarCols = 5
	// DefaultWeaponSetRows and DefaultWeaponSetCols size a weapon-set grid.
	DefaultWeaponSetRows = 2
	DefaultWeaponSetCols = 2
	// DefaultQuickAccessRows and DefaultQuickAccessCols size the quick-access grid.
	DefaultQuickAccessRows = 3
	DefaultQuickAccessCols = 2
)

// Uses tracks a limited-use resource attached to a cell (charges, slots).
type Uses struct {
	Value int `json:"value"`
	Max   int `json:"max"`
}

// CellData is the payload held by a single grid slot. A nil *CellData
// means the slot is empty. Identity is the UUID.
type CellData struct {
	UUID     string `json:"uuid"`
	Name     string `json:"name"`
	Img      string `json:"img"`
	Type     string `json:"type"`
	Quantity *int   `json:"quantity,omitempty"`
	Uses     *Uses  `json:"uses,omitempty"`
}

// Equal reports whether two cell payloads are interchangeable for
// re-render purposes: UUID, Img, Name, Quantity, and Uses must all match.
func (c *CellData) Equal(other *CellData) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.UUID != other.UUID || c.Img != other.Img || c.Name != other.Name {
		return false
	}
	if (c.Quantity == nil) != (other.Quantity == nil) {
		return false
	}
	if c.Quantity != nil && *c.Quantity != *other.Quantity {
		return false
	}
	if (c.Uses == nil) != (other.Uses == nil) {
		return false
	}
	if c.Uses != nil && (c.Uses.Value != other.Uses.Value || c.Uses.Max != other.Uses.Max) {
		return false
	}
	return true
}

// Clone returns a detached copy of the payload.
func (c *CellData) Clone() *CellData {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Quantity != nil {
		qty := *c.Quantity
		clone.Quantity = &qty
	}
	if c.Uses != nil {
		uses := *c.Uses
		clone.Uses = &uses
	}
	return &clone
}

// SlotKey builds the canonical "col-row" key addressing a cell.
func SlotKey(col, row int) string {
	return strconv.Itoa(col) + "-" + strconv.Itoa(row)
}

// ParseSlotKey splits a "col-row" key back into coordinates.
func ParseSlotKey(key string) (col, row int, err error) {
	sep := strings.IndexByte(key, '-')
	if sep <= 0 || sep == len(key)-1 {
		return 0, 0, fmt.Errorf("malformed slot key %q", key)
	}
	col, err = strconv.Atoi(key[:sep])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed slot key %q: %w", key, err)
	}
	row, err = strconv.Atoi(key[sep+1:])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed slot key %q: %w", key, err)
	}
	if col < 0 || row < 0 {
		return 0, 0, fmt.Errorf("negative slot key %q", key)
	}
	return col, row, nil
}

// GridState is the persisted layout and contents of one grid.
type GridState struct {
	Rows  int                  `json:"rows"`
	Cols  int                  `json:"cols"`
	Items map[string]*CellData `json:"items"`
}

// NewGridState constructs an empty grid, clamping dimensions to 1x1.
func NewGridState(rows, cols int) *GridState {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	return &GridState{Rows: rows, Cols: cols, Items: make(map[string]*CellData)}
}

// Capacity returns rows*cols.
func (g *GridState) Capacity() int {
	return g.Rows * g.Cols
}

// InBounds reports whether the coordinates address a live slot.
func (g *GridState) InBounds(col, row int) bool {
	return col >= 0 && row >= 0 && col < g.Cols && row < g.Rows
}

// PruneOrphans drops every item keyed outside the current dimensions and
// returns how many entries were removed. Malformed keys are treated as
// orphans as well.
func (g *GridState) PruneOrphans() int {
	removed := 0
	for key := range g.Items {
		col, row, err := ParseSlotKey(key)
		if err != nil || !g.InBounds(col, row) {
			delete(g.Items, key)
			removed++
		}
	}
	return removed
}

// Clone returns a detached copy of the grid.
func (g *GridState) Clone() *GridState {
	if g == nil {
		return nil
	}
	clone := &GridState{Rows: g.Rows, Cols: g.Cols, Items: make(map[string]*CellData, len(g.Items))}
	for key, data := range g.Items {
		clone.Items[key] = data.Clone()
	}
	return clone
}

// CloneGrids copies a grid slice element by element.
func CloneGrids(grids []*GridState) []*GridState {
	if grids == nil {
		return nil
	}
	clones := make([]*GridState, len(grids))
	for i, g := range grids {
		clones[i] = g.Clone()
	}
	return clones
}

// HotbarState holds the live hotbar grids, one per row group.
type HotbarState struct {
	Grids []*GridState `json:"grids"`
}

// WeaponSetsState holds every weapon-set grid plus the active index.
type WeaponSetsState struct {
	Sets      []*GridState `json:"sets"`
	ActiveSet int          `json:"activeSet"`
}

// View is a named, switchable snapshot of the hotbar grids. The Grids
// field mirrors the live hotbar while the view is active.
type View struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Icon  string       `json:"icon"`
	Grids []*GridState `json:"grids"`
}

// Clone returns a detached copy of the view.
func (v *View) Clone() *View {
	if v == nil {
		return nil
	}
	return &View{ID: v.ID, Name: v.Name, Icon: v.Icon, Grids: CloneGrids(v.Grids)}
}

// ViewsState tracks the stored views and which one is active.
type ViewsState struct {
	List     []*View `json:"list"`
	ActiveID string  `json:"activeId"`
}

// State is the full persisted blob for one subject.
type State struct {
	Hotbar      HotbarState     `json:"hotbar"`
	WeaponSets  WeaponSetsState `json:"weaponSets"`
	QuickAccess *GridState      `json:"quickAccess"`
	Views       ViewsState      `json:"views"`
}

// NewDefaultState builds the first-use state for a subject: empty grids
// at default dimensions and a single active view named "Default".
func NewDefaultState() *State {
	hotbar := make([]*GridState, HotbarGridCount)
	for i := range hotbar {
		hotbar[i] = NewGridState(DefaultHotbarRows, DefaultHotbarCols)
	}
	sets := make([]*GridState, WeaponSetCount)
	for i := range sets {
		sets[i] = NewGridState(DefaultWeaponSetRows, DefaultWeaponSetCols)
	}
	view := &View{
		ID:    "view-1",
		Name:  "Default",
		Icon:  "icons/default-view.svg",
		Grids: CloneGrids(hotbar),
	}
	return &State{
		Hotbar:      HotbarState{Grids: hotbar},
		WeaponSets:  WeaponSetsState{Sets: sets},
		QuickAccess: NewGridState(DefaultQuickAccessRows, DefaultQuickAccessCols),
		Views:       ViewsState{List: []*View{view}, ActiveID: view.ID},
	}
}

// Clone returns a detached copy of the whole blob.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	clone := &State{
		Hotbar:      HotbarState{Grids: CloneGrids(s.Hotbar.Grids)},
		WeaponSets:  WeaponSetsState{Sets: CloneGrids(s.WeaponSets.Sets), ActiveSet: s.WeaponSets.ActiveSet},
		QuickAccess: s.QuickAccess.Clone(),
	}
	clone.Views.ActiveID = s.Views.ActiveID
	if s.Views.List != nil {
		clone.Views.List = make([]*View, len(s.Views.List))
		for i, view := range s.Views.List {
			clone.Views.List[i] = view.Clone()
		}
	}
	return clone
}

// Normalize repairs a loaded blob: missing grids are recreated at
// default dimensions, the active indices are clamped, orphaned items are
// pruned, and a default view is synthesized when the list is empty.
func (s *State) Normalize() {
	if len(s.Hotbar.Grids) != HotbarGridCount {
		grids := make([]*GridState, HotbarGridCount)
		copy(grids, s.Hotbar.Grids)
		s.Hotbar.Grids = grids
	}
	for i, g := range s.Hotbar.Grids {
		s.Hotbar.Grids[i] = normalizeGrid(g, DefaultHotbarRows, DefaultHotbarCols)
	}
	if len(s.WeaponSets.Sets) != WeaponSetCount {
		sets := make([]*GridState, WeaponSetCount)
		copy(sets, s.WeaponSets.Sets)
		s.WeaponSets.Sets = sets
	}
	for i, g := range s.WeaponSets.Sets {
		s.WeaponSets.Sets[i] = normalizeGrid(g, DefaultWeaponSetRows, DefaultWeaponSetCols)
	}
	if s.WeaponSets.ActiveSet < 0 || s.WeaponSets.ActiveSet >= WeaponSetCount {
		s.WeaponSets.ActiveSet = 0
	}
	s.QuickAccess = normalizeGrid(s.QuickAccess, DefaultQuickAccessRows, DefaultQuickAccessCols)

	if len(s.Views.List) == 0 {
		view := &View{ID: "view-1", Name: "Default", Icon: "icons/default-view.svg", Grids: CloneGrids(s.Hotbar.Grids)}
		s.Views.List = []*View{view}
		s.Views.ActiveID = view.ID
		return
	}
	active := false
	for _, view := range s.Views.List {
		if view.Grids == nil {
			view.Grids = CloneGrids(s.Hotbar.Grids)
		}
		if view.ID == s.Views.ActiveID {
			active = true
		}
	}
	if !active {
		s.Views.ActiveID = s.Views.List[0].ID
	}
}

func normalizeGrid(g *GridState, rows, cols int) *GridState {
	if g == nil {
		return NewGridState(rows, cols)
	}
	if g.Rows < 1 {
		g.Rows = 1
	}
	if g.Cols < 1 {
		g.Cols = 1
	}
	if g.Items == nil {
		g.Items = make(map[string]*CellData)
	}
	g.PruneOrphans()
	return g
}
