package surface

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/grid"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/persist"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/render"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// HotbarConfig wires a hotbar surface.
type HotbarConfig struct {
	Manager  *persist.Manager
	Observer render.Observer
	Cells    grid.Callbacks
	Notifier Notifier
	Logger   *log.Logger
	// Lock serializes grid mutations against remote batch application.
	// The controller shares one lock across every surface it owns; nil
	// gets a private mutex.
	Lock *sync.Mutex
}

// Hotbar owns the independent hotbar grids, one per row group. Grid
// objects are created once and survive view switches and remote updates.
type Hotbar struct {
	mu       *sync.Mutex
	grids    []*grid.Grid
	manager  *persist.Manager
	notifier Notifier
	logger   *log.Logger
}

// NewHotbar builds the grids from the manager's cached state.
func NewHotbar(cfg HotbarConfig) *Hotbar {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	mu := cfg.Lock
	if mu == nil {
		mu = new(sync.Mutex)
	}
	st := cfg.Manager.State()
	grids := make([]*grid.Grid, len(st.Hotbar.Grids))
	for i, gs := range st.Hotbar.Grids {
		g := grid.New(gs.Rows, gs.Cols, i, cfg.Observer, cfg.Cells)
		g.SetItems(gs.Items)
		g.Render()
		grids[i] = g
	}
	return &Hotbar{mu: mu, grids: grids, manager: cfg.Manager, notifier: notifier, logger: logger}
}

// Grids returns the live grid objects.
func (h *Hotbar) Grids() []*grid.Grid { return h.grids }

// Grid returns one grid by row-group index, nil when out of range.
func (h *Hotbar) Grid(index int) *grid.Grid {
	if index < 0 || index >= len(h.grids) {
		return nil
	}
	return h.grids[index]
}

// AddRow grows every grid by one row: all grids re-render first, then
// every config persists, then the shape change is broadcast.
func (h *Hotbar) AddRow(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resizeRows(ctx, +1)
}

// RemoveRow shrinks every grid by one row, rejecting the operation when
// any grid is already at the one-row minimum.
func (h *Hotbar) RemoveRow(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, g := range h.grids {
		if g.Rows() <= 1 {
			return ErrMinRows
		}
	}
	return h.resizeRows(ctx, -1)
}

func (h *Hotbar) resizeRows(ctx context.Context, delta int) error {
	var wg sync.WaitGroup
	for _, g := range h.grids {
		g.SetDimensions(g.Rows()+delta, g.Cols())
		wg.Add(1)
		go func(g *grid.Grid) {
			defer wg.Done()
			g.Render()
		}(g)
	}
	wg.Wait()

	var firstErr error
	for i, g := range h.grids {
		rows, cols := g.Rows(), g.Cols()
		if err := h.manager.UpdateGridConfig(ctx, i, &rows, &cols); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("hotbar: failed to persist grid %d config: %w", i, err)
			}
			continue
		}
		h.notifier.NotifyGridConfig(i, rows, cols)
	}
	return firstErr
}

// SetCell updates one slot: persist, patch the owning grid, broadcast.
func (h *Hotbar) SetCell(ctx context.Context, index int, slot string, data *state.CellData) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	g := h.Grid(index)
	if g == nil {
		return fmt.Errorf("%w: hotbar grid %d", persist.ErrBadIndex, index)
	}
	if err := h.manager.UpdateCell(ctx, state.SurfaceHotbar, index, slot, data); err != nil {
		return err
	}
	g.SetItem(slot, data)
	g.Render()
	h.notifier.NotifyCell(state.SurfaceHotbar, index, slot, data)
	return nil
}

// ApplyGrids pushes loaded grid states into the existing Grid objects
// and re-renders them in parallel. No Grid objects are destroyed; this
// is the view-switch and remote-batch path. The caller holds the lock.
func (h *Hotbar) ApplyGrids(grids []*state.GridState) {
	var wg sync.WaitGroup
	for i, gs := range grids {
		if i >= len(h.grids) {
			break
		}
		if gs == nil {
			continue
		}
		wg.Add(1)
		go func(g *grid.Grid, gs *state.GridState) {
			defer wg.Done()
			g.Apply(gs)
		}(h.grids[i], gs)
	}
	wg.Wait()
}

// States snapshots every live grid.
func (h *Hotbar) States() []*state.GridState {
	states := make([]*state.GridState, len(h.grids))
	for i, g := range h.grids {
		states[i] = g.State()
	}
	return states
}

// RenderAll re-renders every grid in parallel.
func (h *Hotbar) RenderAll() {
	var wg sync.WaitGroup
	for _, g := range h.grids {
		wg.Add(1)
		go func(g *grid.Grid) {
			defer wg.Done()
			g.Render()
		}(g)
	}
	wg.Wait()
}
