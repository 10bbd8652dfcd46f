package surface

import (
	"context"
	"log"
	"sync"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/adapter"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/grid"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/persist"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/render"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// WeaponSetsConfig wires the weapon-set surface.
type WeaponSetsConfig struct {
	Manager  *persist.Manager
	Adapter  adapter.System
	Observer render.Observer
	Cells    grid.Callbacks
	Notifier Notifier
	Logger   *log.Logger
	// Lock serializes grid mutations against remote batch application.
	// Shared by the owning controller; nil gets a private mutex.
	Lock *sync.Mutex
}

// WeaponSets renders every set simultaneously with exactly one active.
// Clicking anywhere on an inactive set is reinterpreted as a switch;
// cells of the active set behave like normal cells.
type WeaponSets struct {
	mu       *sync.Mutex
	sets     []*grid.Grid
	setNodes []*render.Node
	active   int
	manager  *persist.Manager
	adapter  adapter.System
	notifier Notifier
	logger   *log.Logger
}

// NewWeaponSets builds the set grids from the manager's cached state.
func NewWeaponSets(cfg WeaponSetsConfig) *WeaponSets {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	sys := cfg.Adapter
	if sys == nil {
		sys = adapter.Base{}
	}
	mu := cfg.Lock
	if mu == nil {
		mu = new(sync.Mutex)
	}
	st := cfg.Manager.State()
	w := &WeaponSets{
		mu:       mu,
		sets:     make([]*grid.Grid, len(st.WeaponSets.Sets)),
		setNodes: make([]*render.Node, len(st.WeaponSets.Sets)),
		active:   st.WeaponSets.ActiveSet,
		manager:  cfg.Manager,
		adapter:  sys,
		notifier: notifier,
		logger:   logger,
	}
	for i, gs := range st.WeaponSets.Sets {
		g := grid.New(gs.Rows, gs.Cols, i, cfg.Observer, cfg.Cells)
		g.SetItems(gs.Items)
		g.Render()
		w.sets[i] = g
		wrapper := render.NewNode("weapon-set", cfg.Observer)
		wrapper.ReplaceChildren(g.Node())
		w.setNodes[i] = wrapper
	}
	w.markActive(w.active)
	return w
}

// Sets returns the live set grids.
func (w *WeaponSets) Sets() []*grid.Grid { return w.sets }

// SetNodes returns the wrapper nodes carrying the active flag.
func (w *WeaponSets) SetNodes() []*render.Node { return w.setNodes }

// ActiveSet returns the active set index.
func (w *WeaponSets) ActiveSet() int { return w.active }

// HandleClick routes a click inside a set. On the active set the cell's
// normal interaction fires; anywhere on an inactive set, even a filled
// cell, the click becomes a switch. The cell callback runs outside the
// lock so it may call back into the controller.
func (w *WeaponSets) HandleClick(ctx context.Context, setIndex int, cell *grid.Cell) error {
	w.mu.Lock()
	active := setIndex == w.active
	w.mu.Unlock()
	if active {
		if cell != nil {
			cell.Click()
		}
		return nil
	}
	return w.SwitchTo(ctx, setIndex)
}

// SwitchTo activates a set: the adapter's equip/unequip hook runs, the
// visuals flip optimistically, the index persists, and the change is
// broadcast. Switching to the already-active set is a no-op and does not
// invoke the adapter hook.
func (w *WeaponSets) SwitchTo(ctx context.Context, index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if index == w.active {
		return nil
	}
	if index < 0 || index >= len(w.sets) {
		return persist.ErrBadIndex
	}

	if err := w.adapter.OnSetSwitch(ctx, w.manager.Subject(), index); err != nil {
		// Equip side effects are the adapter's responsibility; the switch
		// itself still happens.
		w.logger.Printf("weaponsets: adapter OnSetSwitch failed: %v", err)
	}

	w.markActive(index)
	if err := w.manager.SetActiveWeaponSet(ctx, index); err != nil {
		return err
	}
	w.notifier.NotifyWeaponSet(index)
	return nil
}

// ApplyActive flips the visuals without persisting or notifying. Remote
// batches use it; the originating client already persisted. The caller
// holds the lock.
func (w *WeaponSets) ApplyActive(index int) {
	if index < 0 || index >= len(w.sets) {
		return
	}
	w.markActive(index)
}

// ApplySets pushes loaded grid states into the existing set grids.
func (w *WeaponSets) ApplySets(sets []*state.GridState) {
	for i, gs := range sets {
		if i >= len(w.sets) {
			break
		}
		if gs == nil {
			continue
		}
		w.sets[i].Apply(gs)
	}
}

// States snapshots every live set grid.
func (w *WeaponSets) States() []*state.GridState {
	states := make([]*state.GridState, len(w.sets))
	for i, g := range w.sets {
		states[i] = g.State()
	}
	return states
}

// markActive flags exactly one set active and suppresses its tooltip.
func (w *WeaponSets) markActive(index int) {
	w.active = index
	for i, node := range w.setNodes {
		active := i == index
		node.SetClass("active", active)
		if active {
			node.SetAttr("data-tooltip-disabled", "true")
		} else {
			node.RemoveAttr("data-tooltip-disabled")
		}
	}
}
