package persist

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// User-input rejections. Callers map these to warning notifications; the
// operation aborts with no state change.
var (
	ErrMaxViews      = errors.New("persist: maximum number of views reached")
	ErrLastView      = errors.New("persist: cannot delete the last remaining view")
	ErrEmptyViewName = errors.New("persist: view name cannot be empty")
	ErrUnknownView   = errors.New("persist: no view with that id")
	ErrBadIndex      = errors.New("persist: index out of range")
)

// Manager is the single source of truth for one subject's HUD state. It
// caches the blob in memory, applies every mutation to the cache first,
// and persists durably before the mutation is considered committed for
// cross-client purposes.
type Manager struct {
	mu      sync.Mutex
	store   Store
	subject string
	logger  *log.Logger
	state   *state.State
}

// NewManager binds a manager to a subject and its backing store.
func NewManager(store Store, subject string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{store: store, subject: subject, logger: logger}
}

// Subject returns the subject key this manager persists under.
func (m *Manager) Subject() string { return m.subject }

// Load pulls the subject's blob from the store, creating and persisting
// a default one on first use.
func (m *Manager) Load(ctx context.Context) error {
	st, err := m.store.Load(ctx, m.subject)
	if errors.Is(err, ErrNotFound) {
		st = state.NewDefaultState()
		if err := m.store.Save(ctx, m.subject, st); err != nil {
			return fmt.Errorf("persist: failed to seed state for %s: %w", m.subject, err)
		}
		m.logger.Printf("persist: created default state for %s", m.subject)
	} else if err != nil {
		return err
	}
	st.Normalize()
	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
	return nil
}

// State returns a detached snapshot of the cached blob.
func (m *Manager) State() *state.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLocked().Clone()
}

// Save persists the cached blob as-is.
func (m *Manager) Save(ctx context.Context) error {
	m.mu.Lock()
	snapshot := m.ensureLocked().Clone()
	m.mu.Unlock()
	return m.store.Save(ctx, m.subject, snapshot)
}

// UpdateGridConfig changes a hotbar grid's shape. Nil leaves a dimension
// unchanged. Orphaned items are pruned and the active view snapshot is
// kept in step before persisting.
func (m *Manager) UpdateGridConfig(ctx context.Context, gridIndex int, rows, cols *int) error {
	m.mu.Lock()
	st := m.ensureLocked()
	if gridIndex < 0 || gridIndex >= len(st.Hotbar.Grids) {
		m.mu.Unlock()
		return fmt.Errorf("%w: hotbar grid %d", ErrBadIndex, gridIndex)
	}
	g := st.Hotbar.Grids[gridIndex]
	if rows != nil && *rows >= 1 {
		g.Rows = *rows
	}
	if cols != nil && *cols >= 1 {
		g.Cols = *cols
	}
	g.PruneOrphans()
	m.syncActiveViewLocked()
	snapshot := st.Clone()
	m.mu.Unlock()
	return m.store.Save(ctx, m.subject, snapshot)
}

// UpdateContainer replaces a grid's contents wholesale.
func (m *Manager) UpdateContainer(ctx context.Context, surface state.Surface, index int, items map[string]*state.CellData) error {
	m.mu.Lock()
	st := m.ensureLocked()
	g := st.Grid(surface, index)
	if g == nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s[%d]", ErrBadIndex, surface, index)
	}
	g.Items = make(map[string]*state.CellData, len(items))
	for key, data := range items {
		if data == nil {
			continue
		}
		g.Items[key] = data.Clone()
	}
	g.PruneOrphans()
	if surface == state.SurfaceHotbar {
		m.syncActiveViewLocked()
	}
	snapshot := st.Clone()
	m.mu.Unlock()
	return m.store.Save(ctx, m.subject, snapshot)
}

// UpdateCell sets or clears one slot.
func (m *Manager) UpdateCell(ctx context.Context, surface state.Surface, index int, slot string, data *state.CellData) error {
	if _, _, err := state.ParseSlotKey(slot); err != nil {
		return err
	}
	m.mu.Lock()
	st := m.ensureLocked()
	g := st.Grid(surface, index)
	if g == nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s[%d]", ErrBadIndex, surface, index)
	}
	if data == nil {
		delete(g.Items, slot)
	} else {
		g.Items[slot] = data.Clone()
	}
	g.PruneOrphans()
	if surface == state.SurfaceHotbar {
		m.syncActiveViewLocked()
	}
	snapshot := st.Clone()
	m.mu.Unlock()
	return m.store.Save(ctx, m.subject, snapshot)
}

// SetActiveWeaponSet persists a weapon-set switch.
func (m *Manager) SetActiveWeaponSet(ctx context.Context, index int) error {
	if index < 0 || index >= state.WeaponSetCount {
		return fmt.Errorf("%w: weapon set %d", ErrBadIndex, index)
	}
	m.mu.Lock()
	st := m.ensureLocked()
	st.WeaponSets.ActiveSet = index
	snapshot := st.Clone()
	m.mu.Unlock()
	return m.store.Save(ctx, m.subject, snapshot)
}

// ActiveWeaponSet returns the cached active set index.
func (m *Manager) ActiveWeaponSet() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLocked().WeaponSets.ActiveSet
}

// FindUUID scans every surface for the UUID, supporting duplicate
// detection during auto-populate.
func (m *Manager) FindUUID(uuid string) (state.Location, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLocked().FindUUID(uuid)
}

// ClearAll empties every grid on every surface and every view snapshot,
// keeping dimensions and the view list intact.
func (m *Manager) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	st := m.ensureLocked()
	for _, g := range st.Hotbar.Grids {
		g.Items = make(map[string]*state.CellData)
	}
	for _, g := range st.WeaponSets.Sets {
		g.Items = make(map[string]*state.CellData)
	}
	st.QuickAccess.Items = make(map[string]*state.CellData)
	for _, view := range st.Views.List {
		for _, g := range view.Grids {
			g.Items = make(map[string]*state.CellData)
		}
	}
	snapshot := st.Clone()
	m.mu.Unlock()
	return m.store.Save(ctx, m.subject, snapshot)
}

// ReplaceState swaps in a whole new blob (import path) and persists it.
func (m *Manager) ReplaceState(ctx context.Context, st *state.State) error {
	st = st.Clone()
	st.Normalize()
	m.mu.Lock()
	m.state = st
	snapshot := st.Clone()
	m.mu.Unlock()
	return m.store.Save(ctx, m.subject, snapshot)
}

// ResyncFromGrids refreshes the cache from the live grid objects after a
// remote batch has been applied, so a subsequent local read matches what
// is on screen. The refreshed cache is not persisted; the originating
// client already did that.
func (m *Manager) ResyncFromGrids(hotbar []*state.GridState, sets []*state.GridState, activeSet int, quick *state.GridState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.ensureLocked()
	for i, g := range hotbar {
		if i < len(st.Hotbar.Grids) && g != nil {
			st.Hotbar.Grids[i] = g.Clone()
		}
	}
	for i, g := range sets {
		if i < len(st.WeaponSets.Sets) && g != nil {
			st.WeaponSets.Sets[i] = g.Clone()
		}
	}
	if activeSet >= 0 && activeSet < state.WeaponSetCount {
		st.WeaponSets.ActiveSet = activeSet
	}
	if quick != nil {
		st.QuickAccess = quick.Clone()
	}
	m.syncActiveViewLocked()
}

// Views returns detached copies of the stored views in order.
func (m *Manager) Views() []*state.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.ensureLocked()
	views := make([]*state.View, len(st.Views.List))
	for i, view := range st.Views.List {
		views[i] = view.Clone()
	}
	return views
}

// View returns a detached copy of one view.
func (m *Manager) View(id string) (*state.View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if view := m.findViewLocked(id); view != nil {
		return view.Clone(), true
	}
	return nil, false
}

// ActiveViewID returns the active view's id.
func (m *Manager) ActiveViewID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLocked().Views.ActiveID
}

// SwitchView loads the target view's snapshot into the live hotbar state
// and persists. Switching to the already-active view is a no-op. The
// returned grids are what the hotbar surface pushes into its Grid
// objects.
func (m *Manager) SwitchView(ctx context.Context, id string) ([]*state.GridState, error) {
	m.mu.Lock()
	st := m.ensureLocked()
	if id == st.Views.ActiveID {
		grids := state.CloneGrids(st.Hotbar.Grids)
		m.mu.Unlock()
		return grids, nil
	}
	view := m.findViewLocked(id)
	if view == nil {
		m.mu.Unlock()
		return nil, ErrUnknownView
	}
	st.Hotbar.Grids = state.CloneGrids(view.Grids)
	st.Views.ActiveID = id
	grids := state.CloneGrids(st.Hotbar.Grids)
	snapshot := st.Clone()
	m.mu.Unlock()
	if err := m.store.Save(ctx, m.subject, snapshot); err != nil {
		return nil, err
	}
	return grids, nil
}

// CreateView adds a view initialized with an empty hotbar grid set.
func (m *Manager) CreateView(ctx context.Context, name, icon string) (*state.View, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyViewName
	}
	m.mu.Lock()
	st := m.ensureLocked()
	if len(st.Views.List) >= state.MaxViews {
		m.mu.Unlock()
		return nil, ErrMaxViews
	}
	grids := make([]*state.GridState, state.HotbarGridCount)
	for i := range grids {
		grids[i] = state.NewGridState(state.DefaultHotbarRows, state.DefaultHotbarCols)
	}
	view := &state.View{ID: newViewID(), Name: name, Icon: icon, Grids: grids}
	st.Views.List = append(st.Views.List, view)
	created := view.Clone()
	snapshot := st.Clone()
	m.mu.Unlock()
	if err := m.store.Save(ctx, m.subject, snapshot); err != nil {
		return nil, err
	}
	return created, nil
}

// RenameView changes a view's display name.
func (m *Manager) RenameView(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyViewName
	}
	m.mu.Lock()
	st := m.ensureLocked()
	view := m.findViewLocked(id)
	if view == nil {
		m.mu.Unlock()
		return ErrUnknownView
	}
	view.Name = name
	snapshot := st.Clone()
	m.mu.Unlock()
	return m.store.Save(ctx, m.subject, snapshot)
}

// DuplicateView copies a view, snapshot included, under a new name.
func (m *Manager) DuplicateView(ctx context.Context, id, name string) (*state.View, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyViewName
	}
	m.mu.Lock()
	st := m.ensureLocked()
	if len(st.Views.List) >= state.MaxViews {
		m.mu.Unlock()
		return nil, ErrMaxViews
	}
	source := m.findViewLocked(id)
	if source == nil {
		m.mu.Unlock()
		return nil, ErrUnknownView
	}
	view := source.Clone()
	view.ID = newViewID()
	view.Name = name
	st.Views.List = append(st.Views.List, view)
	created := view.Clone()
	snapshot := st.Clone()
	m.mu.Unlock()
	if err := m.store.Save(ctx, m.subject, snapshot); err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteView removes a view. Deleting the sole remaining view is
// rejected. Deleting the active view activates the first remaining one
// and loads its snapshot into the live hotbar; the returned grids are
// non-nil exactly in that case.
func (m *Manager) DeleteView(ctx context.Context, id string) ([]*state.GridState, error) {
	m.mu.Lock()
	st := m.ensureLocked()
	if len(st.Views.List) <= 1 {
		m.mu.Unlock()
		return nil, ErrLastView
	}
	idx := -1
	for i, view := range st.Views.List {
		if view.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return nil, ErrUnknownView
	}
	wasActive := st.Views.ActiveID == id
	st.Views.List = append(st.Views.List[:idx], st.Views.List[idx+1:]...)

	var grids []*state.GridState
	if wasActive {
		replacement := st.Views.List[0]
		st.Views.ActiveID = replacement.ID
		st.Hotbar.Grids = state.CloneGrids(replacement.Grids)
		grids = state.CloneGrids(st.Hotbar.Grids)
	}
	snapshot := st.Clone()
	m.mu.Unlock()
	if err := m.store.Save(ctx, m.subject, snapshot); err != nil {
		return nil, err
	}
	return grids, nil
}

// ensureLocked lazily initializes the cache so read paths work even
// before Load has run (tests, fresh subjects).
func (m *Manager) ensureLocked() *state.State {
	if m.state == nil {
		m.state = state.NewDefaultState()
	}
	return m.state
}

// syncActiveViewLocked mirrors the live hotbar grids into the active
// view's snapshot, preserving the invariant that the active view always
// matches what is on screen.
func (m *Manager) syncActiveViewLocked() {
	st := m.state
	for _, view := range st.Views.List {
		if view.ID == st.Views.ActiveID {
			view.Grids = state.CloneGrids(st.Hotbar.Grids)
			return
		}
	}
}

func (m *Manager) findViewLocked(id string) *state.View {
	for _, view := range m.ensureLocked().Views.List {
		if view.ID == id {
			return view
		}
	}
	return nil
}

func newViewID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "view-0"
	}
	return "view-" + hex.EncodeToString(b)
}
