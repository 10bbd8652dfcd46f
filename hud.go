// Package hud assembles the HUD core: an explicit application context
// carrying every injected dependency, and a per-subject controller that
// owns the surfaces, the persistence manager, and the sync engine. There
// is no global lookup; hosts construct a Context once and open a
// Controller per selected subject.
package hud

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/adapter"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/filters"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/grid"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/hudsync"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/layout"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/persist"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/render"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/settings"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/surface"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// SettingsNamespace is the namespace the core reads its flags under.
const SettingsNamespace = "bg3-hud-core"

// Context carries the dependencies a controller needs. Hosts build one
// at startup; zero-value fields fall back to safe defaults (no-op
// adapter, in-memory store, discarded broadcasts).
type Context struct {
	Logger   *log.Logger
	Settings *settings.Accessor
	Adapter  adapter.System
	Store    persist.Store
	// Transport broadcasts outbound batches. Nil disables sync.
	Transport hudsync.Transport
	UserID    string
	// Observer watches render-node mutations (host integration, tests).
	Observer render.Observer
	// Cells supplies interaction callbacks for every cell. The controller
	// takes over OnDrop and OnExternalDrop for its move/adopt logic.
	Cells grid.Callbacks
	// Filters declares the filter buttons shown with the hotbar. Toggling
	// them classifies matching cells; see ToggleFilterUsed.
	Filters []*state.Filter
	// FilterMatcher decides cell membership per filter. Nil compares the
	// cell type against the filter id.
	FilterMatcher filters.Matcher
	// Debounce overrides the sync flush window. Zero uses the default.
	Debounce time.Duration
}

type nopTransport struct{}

func (nopTransport) Send([]byte) error { return nil }

var (
	_ surface.Notifier = (*Controller)(nil)
	_ hudsync.Applier  = (*Controller)(nil)
)

// Controller drives one subject's HUD for as long as it is selected.
// Remote batches arrive on the inbound debounce timer's goroutine, so a
// single mutex, shared with every surface entry point, serializes them
// against host-driven edits.
type Controller struct {
	mu       sync.Mutex
	subject  string
	logger   *log.Logger
	settings *settings.Accessor
	adapter  adapter.System
	filters  *filters.Set

	manager     *persist.Manager
	hotbar      *surface.Hotbar
	weaponSets  *surface.WeaponSets
	quickAccess *surface.QuickAccess
	views       *surface.Views

	outbound *hudsync.Outbound
	inbound  *hudsync.Inbound
}

// Open loads the subject's state and builds its surfaces and sync
// queues. The controller lives until Close; selecting another subject
// means closing this controller and opening a new one.
func Open(ctx context.Context, app Context, subject string) (*Controller, error) {
	logger := app.Logger
	if logger == nil {
		logger = log.Default()
	}
	sys := app.Adapter
	if sys == nil {
		sys = adapter.Base{}
	}
	store := app.Store
	if store == nil {
		store = persist.NewMemoryStore()
	}
	transport := app.Transport
	if transport == nil {
		transport = nopTransport{}
	}

	manager := persist.NewManager(store, subject, logger)
	if err := manager.Load(ctx); err != nil {
		return nil, fmt.Errorf("hud: failed to open %s: %w", subject, err)
	}

	c := &Controller{
		subject:  subject,
		logger:   logger,
		settings: app.Settings,
		adapter:  sys,
		filters:  filters.NewSet(app.Filters, app.FilterMatcher),
		manager:  manager,
	}
	c.outbound = hudsync.NewOutbound(transport, app.UserID, app.Debounce, logger)
	c.inbound = hudsync.NewInbound(c, app.UserID, app.Debounce, logger)

	c.hotbar = surface.NewHotbar(surface.HotbarConfig{
		Manager:  manager,
		Observer: app.Observer,
		Cells:    c.cellCallbacks(state.SurfaceHotbar, app.Cells),
		Notifier: c,
		Logger:   logger,
		Lock:     &c.mu,
	})
	c.weaponSets = surface.NewWeaponSets(surface.WeaponSetsConfig{
		Manager:  manager,
		Adapter:  sys,
		Observer: app.Observer,
		Cells:    c.cellCallbacks(state.SurfaceWeaponSets, app.Cells),
		Notifier: c,
		Logger:   logger,
		Lock:     &c.mu,
	})
	c.quickAccess = surface.NewQuickAccess(surface.QuickAccessConfig{
		Manager:  manager,
		Observer: app.Observer,
		Cells:    c.cellCallbacks(state.SurfaceQuickAccess, app.Cells),
		Notifier: c,
		Logger:   logger,
		Lock:     &c.mu,
	})
	c.views = surface.NewViews(surface.ViewsConfig{
		Manager:  manager,
		Hotbar:   c.hotbar,
		Observer: app.Observer,
		Notifier: c,
		Logger:   logger,
		Lock:     &c.mu,
	})
	return c, nil
}

// Close flushes the outbound queue and applies anything still buffered
// inbound, so no edit is lost when the subject is deselected.
func (c *Controller) Close() {
	c.outbound.Close()
	c.inbound.Close()
}

// Subject returns the subject this controller displays.
func (c *Controller) Subject() string { return c.subject }

// Hotbar returns the hotbar surface.
func (c *Controller) Hotbar() *surface.Hotbar { return c.hotbar }

// WeaponSets returns the weapon-set surface.
func (c *Controller) WeaponSets() *surface.WeaponSets { return c.weaponSets }

// QuickAccess returns the quick-access surface.
func (c *Controller) QuickAccess() *surface.QuickAccess { return c.quickAccess }

// Views returns the named-view strip.
func (c *Controller) Views() *surface.Views { return c.views }

// Manager returns the persistence manager.
func (c *Controller) Manager() *persist.Manager { return c.manager }

// Receive feeds a raw transport message into the inbound queue. Hosts
// wire their transport's message callback here.
func (c *Controller) Receive(raw []byte) {
	c.inbound.Receive(raw)
}

// cellCallbacks wraps the host's callbacks with the controller's drop
// handling for one surface. Clicks and drag lifecycle pass through.
func (c *Controller) cellCallbacks(surf state.Surface, host grid.Callbacks) grid.Callbacks {
	return grid.Callbacks{
		OnClick:      host.OnClick,
		OnRightClick: host.OnRightClick,
		OnDragEnd:    host.OnDragEnd,
		OnDrop: func(cell *grid.Cell, payload grid.DragPayload) {
			dst := state.Location{Surface: surf, Index: cell.SurfaceIndex(), Slot: cell.Slot()}
			if err := c.MoveCell(context.Background(), payload.UUID, dst); err != nil {
				c.logger.Printf("hud: drop on %s failed: %v", dst, err)
			}
		},
		OnExternalDrop: func(cell *grid.Cell, raw string) {
			dst := state.Location{Surface: surf, Index: cell.SurfaceIndex(), Slot: cell.Slot()}
			if err := c.AdoptExternalDrop(context.Background(), raw, dst); err != nil {
				c.logger.Printf("hud: external drop on %s failed: %v", dst, err)
			}
		},
	}
}

// MoveCell moves the item identified by uuid to the destination slot.
// The source is located by scanning the HUD; when the destination is
// occupied the two items swap. Persist first, then patch both grids,
// then broadcast both slots.
func (c *Controller) MoveCell(ctx context.Context, uuid string, dst state.Location) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	src, ok := c.manager.FindUUID(uuid)
	if !ok {
		return fmt.Errorf("hud: uuid %s is not in the HUD", uuid)
	}
	if src == dst {
		return nil
	}

	st := c.manager.State()
	srcGrid := st.Grid(src.Surface, src.Index)
	dstGrid := st.Grid(dst.Surface, dst.Index)
	if srcGrid == nil || dstGrid == nil {
		return fmt.Errorf("%w: move %s to %s", persist.ErrBadIndex, src, dst)
	}
	moved := srcGrid.Items[src.Slot]
	displaced := dstGrid.Items[dst.Slot]

	if err := c.setCell(ctx, dst, moved); err != nil {
		return err
	}
	return c.setCell(ctx, src, displaced)
}

// AdoptExternalDrop asks the adapter to interpret a drop that did not
// parse as a HUD drag and places the result in the destination slot.
// Unusable payloads are a silent no-op.
func (c *Controller) AdoptExternalDrop(ctx context.Context, raw string, dst state.Location) error {
	data, err := c.adapter.HandleExternalDrop(ctx, c.subject, raw)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setCell(ctx, dst, data)
}

// SetCell sets or clears one slot anywhere in the HUD.
func (c *Controller) SetCell(ctx context.Context, loc state.Location, data *state.CellData) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setCell(ctx, loc, data)
}

// setCell persists one slot, patches the owning live grid, and
// broadcasts the change. The caller holds the lock.
func (c *Controller) setCell(ctx context.Context, loc state.Location, data *state.CellData) error {
	if err := c.manager.UpdateCell(ctx, loc.Surface, loc.Index, loc.Slot, data); err != nil {
		return err
	}
	if g := c.liveGrid(loc.Surface, loc.Index); g != nil {
		g.SetItem(loc.Slot, data)
		g.Render()
	}
	c.classifyCells()
	c.NotifyCell(loc.Surface, loc.Index, loc.Slot, data)
	return nil
}

// liveGrid resolves a (surface, index) pair to the on-screen grid.
func (c *Controller) liveGrid(surf state.Surface, index int) *grid.Grid {
	switch surf {
	case state.SurfaceHotbar:
		return c.hotbar.Grid(index)
	case state.SurfaceWeaponSets:
		sets := c.weaponSets.Sets()
		if index >= 0 && index < len(sets) {
			return sets[index]
		}
	case state.SurfaceQuickAccess:
		if index == 0 {
			return c.quickAccess.Grid()
		}
	}
	return nil
}

// ClearAll empties every surface: persisted state first, then every
// live grid, then one broadcast that supersedes anything queued.
func (c *Controller) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.manager.ClearAll(ctx); err != nil {
		return err
	}
	st := c.manager.State()
	c.hotbar.ApplyGrids(st.Hotbar.Grids)
	c.weaponSets.ApplySets(st.WeaponSets.Sets)
	c.quickAccess.Apply(st.QuickAccess)
	c.classifyCells()
	c.NotifyClearAll()
	return nil
}

// Export serializes the subject's surfaces as a layout document.
func (c *Controller) Export(tokenID string) ([]byte, error) {
	doc := layout.Export(c.manager.State(), c.subject, tokenID)
	return doc.Encode()
}

// Import validates and applies a layout document. A malformed document
// is rejected before any state changes. On success every surface is
// re-rendered from the imported contents and broadcast.
func (c *Controller) Import(ctx context.Context, raw []byte) error {
	doc, err := layout.Decode(raw)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := doc.ApplyTo(c.manager.State())
	if err := c.manager.ReplaceState(ctx, next); err != nil {
		return err
	}

	st := c.manager.State()
	c.hotbar.ApplyGrids(st.Hotbar.Grids)
	c.weaponSets.ApplySets(st.WeaponSets.Sets)
	c.weaponSets.ApplyActive(st.WeaponSets.ActiveSet)
	c.quickAccess.Apply(st.QuickAccess)
	c.classifyCells()

	for i, gs := range st.Hotbar.Grids {
		c.NotifyGridConfig(i, gs.Rows, gs.Cols)
		c.NotifyContainer(state.SurfaceHotbar, i, gs.Items)
	}
	for i, gs := range st.WeaponSets.Sets {
		c.NotifyContainer(state.SurfaceWeaponSets, i, gs.Items)
	}
	c.NotifyContainer(state.SurfaceQuickAccess, 0, st.QuickAccess.Items)
	c.NotifyWeaponSet(st.WeaponSets.ActiveSet)
	return nil
}

// AutoPopulate collects the subject's items from the adapter and places
// them into free hotbar slots row-major, grid by grid, skipping UUIDs
// already anywhere in the HUD. Gated by the autoPopulate setting when a
// settings accessor is present.
func (c *Controller) AutoPopulate(ctx context.Context) error {
	if c.settings != nil && !c.settings.Bool(SettingsNamespace, "autoPopulate", true) {
		return nil
	}
	items, err := c.adapter.CollectItems(ctx, c.subject)
	if err != nil {
		return fmt.Errorf("hud: failed to collect items for %s: %w", c.subject, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := items
	for i, g := range c.hotbar.Grids() {
		if len(remaining) == 0 {
			break
		}
		placed, leftover := filters.AutoPopulate(g.State(), remaining, func(uuid string) bool {
			_, found := c.manager.FindUUID(uuid)
			return found
		})
		remaining = leftover
		if len(placed) == 0 {
			continue
		}
		merged := g.Items()
		for slot, data := range placed {
			merged[slot] = data
		}
		if err := c.replaceContainer(ctx, state.SurfaceHotbar, i, merged); err != nil {
			return err
		}
	}
	if n := len(remaining); n > 0 {
		c.logger.Printf("hud: auto-populate left %d items unplaced for %s", n, c.subject)
	}
	return nil
}

// AutoSort compacts one grid's items row-major under the comparator.
// A nil comparator sorts by name.
func (c *Controller) AutoSort(ctx context.Context, surf state.Surface, index int, less filters.Comparator) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.liveGrid(surf, index)
	if g == nil {
		return fmt.Errorf("%w: %s[%d]", persist.ErrBadIndex, surf, index)
	}
	sorted := filters.AutoSort(g.State(), less)
	return c.replaceContainer(ctx, surf, index, sorted)
}

// replaceContainer persists a grid's new contents, applies them to the
// live grid, and broadcasts one container update. The caller holds the
// lock.
func (c *Controller) replaceContainer(ctx context.Context, surf state.Surface, index int, items map[string]*state.CellData) error {
	if err := c.manager.UpdateContainer(ctx, surf, index, items); err != nil {
		return err
	}
	if g := c.liveGrid(surf, index); g != nil {
		g.SetItems(items)
		g.Render()
	}
	c.classifyCells()
	c.NotifyContainer(surf, index, items)
	return nil
}

// Filters returns the filter set for inspection: the declared filters,
// the highlighted one, and the used membership.
func (c *Controller) Filters() *filters.Set { return c.filters }

// ToggleFilterHighlight flips the highlighted filter, clearing any
// previous highlight, and re-classifies every cell. Returns whether the
// filter is highlighted afterwards; unknown ids are ignored.
func (c *Controller) ToggleFilterHighlight(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	on := c.filters.ToggleHighlight(id)
	c.classifyCells()
	return on
}

// ToggleFilterUsed flips a filter's used membership and re-classifies
// every cell. Returns whether the filter is used afterwards; unknown
// ids are ignored.
func (c *Controller) ToggleFilterUsed(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	on := c.filters.ToggleUsed(id)
	c.classifyCells()
	return on
}

// classifyCells flags every cell matching a used filter and every cell
// matching the highlighted filter, and clears the flags everywhere
// else. Runs under the lock after toggles and after anything that
// refills or reshapes the live grids.
func (c *Controller) classifyCells() {
	if len(c.filters.Filters()) == 0 {
		return
	}
	grids := make([]*grid.Grid, 0, len(c.hotbar.Grids())+len(c.weaponSets.Sets())+1)
	grids = append(grids, c.hotbar.Grids()...)
	grids = append(grids, c.weaponSets.Sets()...)
	grids = append(grids, c.quickAccess.Grid())
	for _, g := range grids {
		for _, cell := range g.Cells() {
			data := cell.Data()
			cell.Node().SetClass("filter-match", len(c.filters.Matches(data)) > 0)
			cell.Node().SetClass("filter-highlight", c.filters.MatchesHighlighted(data))
		}
	}
}

// OnSubjectDataChanged is the observer entry point the host-integration
// layer calls when an item's host-side data changes. The first cell
// holding the UUID is refreshed; a nil payload clears it.
func (c *Controller) OnSubjectDataChanged(uuid string, data *state.CellData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	loc, ok := c.manager.FindUUID(uuid)
	if !ok {
		return
	}
	if err := c.setCell(context.Background(), loc, data); err != nil {
		c.logger.Printf("hud: failed to refresh %s at %s: %v", uuid, loc, err)
	}
}

// NotifyGridConfig implements surface.Notifier.
func (c *Controller) NotifyGridConfig(gridIndex, rows, cols int) {
	c.outbound.Enqueue(hudsync.Update{
		Type:      hudsync.UpdateGridConfig,
		Subject:   c.subject,
		GridIndex: gridIndex,
		Rows:      rows,
		Cols:      cols,
	})
}

// NotifyCell implements surface.Notifier.
func (c *Controller) NotifyCell(surf state.Surface, index int, slot string, data *state.CellData) {
	c.outbound.Enqueue(hudsync.Update{
		Type:         hudsync.UpdateCell,
		Subject:      c.subject,
		Surface:      surf,
		SurfaceIndex: index,
		Slot:         slot,
		Data:         data.Clone(),
	})
}

// NotifyContainer implements surface.Notifier.
func (c *Controller) NotifyContainer(surf state.Surface, index int, items map[string]*state.CellData) {
	cloned := make(map[string]*state.CellData, len(items))
	for slot, data := range items {
		cloned[slot] = data.Clone()
	}
	c.outbound.Enqueue(hudsync.Update{
		Type:         hudsync.UpdateContainer,
		Subject:      c.subject,
		Surface:      surf,
		SurfaceIndex: index,
		Items:        cloned,
	})
}

// NotifyWeaponSet implements surface.Notifier.
func (c *Controller) NotifyWeaponSet(index int) {
	c.outbound.Enqueue(hudsync.Update{
		Type:      hudsync.UpdateWeaponSet,
		Subject:   c.subject,
		ActiveSet: index,
	})
}

// NotifyClearAll implements surface.Notifier.
func (c *Controller) NotifyClearAll() {
	c.outbound.Enqueue(hudsync.Update{
		Type:    hudsync.UpdateClearAll,
		Subject: c.subject,
	})
}

// ApplyBatch implements hudsync.Applier. Shape changes land on the data
// model first, followed by one joint re-render, then the remaining
// updates in batch order. Cell updates addressing slots outside the
// post-config bounds are dropped silently; that is the expected shrink
// race, not an error. Afterwards the manager cache is resynced from the
// live grids without persisting, since the originating client already
// persisted.
func (c *Controller) ApplyBatch(updates []hudsync.Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	shapeChanged := false
	for _, u := range updates {
		if u.Type != hudsync.UpdateGridConfig {
			continue
		}
		if g := c.hotbar.Grid(u.GridIndex); g != nil {
			g.SetDimensions(u.Rows, u.Cols)
			shapeChanged = true
		}
	}
	if shapeChanged {
		c.hotbar.RenderAll()
	}

	for _, u := range updates {
		switch u.Type {
		case hudsync.UpdateClearAll:
			for _, g := range c.hotbar.Grids() {
				g.SetItems(nil)
				g.Render()
			}
			for _, g := range c.weaponSets.Sets() {
				g.SetItems(nil)
				g.Render()
			}
			c.quickAccess.Grid().SetItems(nil)
			c.quickAccess.Grid().Render()
		case hudsync.UpdateGridConfig:
			// Applied above.
		case hudsync.UpdateContainer:
			if g := c.liveGrid(u.Surface, u.SurfaceIndex); g != nil {
				g.SetItems(u.Items)
				g.Render()
			}
		case hudsync.UpdateWeaponSet:
			c.weaponSets.ApplyActive(u.ActiveSet)
		case hudsync.UpdateCell:
			g := c.liveGrid(u.Surface, u.SurfaceIndex)
			if g == nil {
				continue
			}
			col, row, err := state.ParseSlotKey(u.Slot)
			if err != nil || col >= g.Cols() || row >= g.Rows() {
				continue
			}
			g.SetItem(u.Slot, u.Data)
			g.Render()
		}
	}

	c.classifyCells()
	c.manager.ResyncFromGrids(
		c.hotbar.States(),
		c.weaponSets.States(),
		c.weaponSets.ActiveSet(),
		c.quickAccess.State(),
	)
}
