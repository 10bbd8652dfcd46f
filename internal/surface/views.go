package surface

import (
	"context"
	"log"
	"sync"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/persist"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/render"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// ViewsConfig wires the named-view strip.
type ViewsConfig struct {
	Manager  *persist.Manager
	Hotbar   *Hotbar
	Observer render.Observer
	Notifier Notifier
	Logger   *log.Logger
	// Lock serializes strip and hotbar mutations against remote batch
	// application. Shared by the owning controller; nil gets a private
	// mutex.
	Lock *sync.Mutex
}

// Views renders the strip of named hotbar layouts and drives switching.
// The hotbar's Grid objects are never destroyed by a switch; snapshots
// are pushed into them and re-rendered.
type Views struct {
	mu       *sync.Mutex
	node     *render.Node
	buttons  map[string]*render.Node
	manager  *persist.Manager
	hotbar   *Hotbar
	observer render.Observer
	notifier Notifier
	logger   *log.Logger
}

// NewViews builds the strip from the manager's cached state.
func NewViews(cfg ViewsConfig) *Views {
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
	v := &Views{
		mu:       mu,
		node:     render.NewNode("view-strip", cfg.Observer),
		buttons:  make(map[string]*render.Node),
		manager:  cfg.Manager,
		hotbar:   cfg.Hotbar,
		observer: cfg.Observer,
		notifier: notifier,
		logger:   logger,
	}
	v.refresh()
	return v
}

// Node exposes the strip's render node.
func (v *Views) Node() *render.Node { return v.node }

// Button returns the render node for one view's button.
func (v *Views) Button(id string) *render.Node { return v.buttons[id] }

// Switch activates a view: the snapshot loads into the live hotbar
// grids and the resulting shapes and contents are broadcast so remote
// clients converge without a view-specific message. Switching to the
// active view is a no-op.
func (v *Views) Switch(ctx context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if id == v.manager.ActiveViewID() {
		return nil
	}
	grids, err := v.manager.SwitchView(ctx, id)
	if err != nil {
		return err
	}
	v.hotbar.ApplyGrids(grids)
	v.refresh()
	v.broadcastGrids(grids)
	return nil
}

// Create adds an empty view. The new view does not steal focus.
func (v *Views) Create(ctx context.Context, name, icon string) (*state.View, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	view, err := v.manager.CreateView(ctx, name, icon)
	if err != nil {
		return nil, err
	}
	v.refresh()
	return view, nil
}

// Rename changes a view's label.
func (v *Views) Rename(ctx context.Context, id, name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.manager.RenameView(ctx, id, name); err != nil {
		return err
	}
	v.refresh()
	return nil
}

// Duplicate copies a view, contents included, under a new name.
func (v *Views) Duplicate(ctx context.Context, id, name string) (*state.View, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	view, err := v.manager.DuplicateView(ctx, id, name)
	if err != nil {
		return nil, err
	}
	v.refresh()
	return view, nil
}

// Delete removes a view. When the active view is deleted, the first
// remaining view's snapshot loads into the hotbar and is broadcast.
func (v *Views) Delete(ctx context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	grids, err := v.manager.DeleteView(ctx, id)
	if err != nil {
		return err
	}
	if grids != nil {
		v.hotbar.ApplyGrids(grids)
		v.broadcastGrids(grids)
	}
	v.refresh()
	return nil
}

// refresh rebuilds the button strip from the stored view list. Buttons
// are cheap; the strip rebuilds wholesale rather than diffing.
func (v *Views) refresh() {
	views := v.manager.Views()
	activeID := v.manager.ActiveViewID()
	buttons := make(map[string]*render.Node, len(views))
	children := make([]*render.Node, 0, len(views))
	for _, view := range views {
		btn := v.node.NewChild("view-button")
		btn.SetAttr("data-view-id", view.ID)
		btn.SetText(view.Name)
		if view.Icon != "" {
			btn.SetAttr("data-icon", view.Icon)
		}
		btn.SetClass("active", view.ID == activeID)
		buttons[view.ID] = btn
		children = append(children, btn)
	}
	v.buttons = buttons
	v.node.ReplaceChildren(children...)
}

// broadcastGrids emits a shape plus contents update for every hotbar
// grid so remote clients converge on the switched-to layout.
func (v *Views) broadcastGrids(grids []*state.GridState) {
	for i, gs := range grids {
		if gs == nil {
			continue
		}
		v.notifier.NotifyGridConfig(i, gs.Rows, gs.Cols)
		v.notifier.NotifyContainer(state.SurfaceHotbar, i, gs.Items)
	}
}
