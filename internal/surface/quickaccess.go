package surface

import (
	"context"
	"log"
	"sync"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/grid"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/persist"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/render"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// QuickAccessConfig wires the quick-access surface.
type QuickAccessConfig struct {
	Manager  *persist.Manager
	Observer render.Observer
	Cells    grid.Callbacks
	Notifier Notifier
	Logger   *log.Logger
	// Lock serializes grid mutations against remote batch application.
	// Shared by the owning controller; nil gets a private mutex.
	Lock *sync.Mutex
}

// QuickAccess is a single fixed-purpose grid beside the portrait. Same
// cell behavior as the hotbar, no row controls and no views.
type QuickAccess struct {
	mu       *sync.Mutex
	grid     *grid.Grid
	manager  *persist.Manager
	notifier Notifier
	logger   *log.Logger
}

// NewQuickAccess builds the grid from the manager's cached state.
func NewQuickAccess(cfg QuickAccessConfig) *QuickAccess {
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
	gs := cfg.Manager.State().QuickAccess
	g := grid.New(gs.Rows, gs.Cols, 0, cfg.Observer, cfg.Cells)
	g.SetItems(gs.Items)
	g.Render()
	return &QuickAccess{mu: mu, grid: g, manager: cfg.Manager, notifier: notifier, logger: logger}
}

// Grid returns the live grid object.
func (q *QuickAccess) Grid() *grid.Grid { return q.grid }

// SetCell updates one slot: persist, patch the grid, broadcast.
func (q *QuickAccess) SetCell(ctx context.Context, slot string, data *state.CellData) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.manager.UpdateCell(ctx, state.SurfaceQuickAccess, 0, slot, data); err != nil {
		return err
	}
	q.grid.SetItem(slot, data)
	q.grid.Render()
	q.notifier.NotifyCell(state.SurfaceQuickAccess, 0, slot, data)
	return nil
}

// Apply pushes a loaded grid state into the existing grid.
func (q *QuickAccess) Apply(gs *state.GridState) {
	q.grid.Apply(gs)
}

// State snapshots the live grid.
func (q *QuickAccess) State() *state.GridState {
	return q.grid.State()
}
