// Package surface implements the slot-holding HUD areas — hotbar,
// weapon sets, quick access — and the named-view strip. Surfaces own
// their Grid objects for the lifetime of an open HUD, forward cell
// interaction to injected callbacks, mutate state through the
// persistence manager, and report every local edit to a Notifier so the
// sync layer can broadcast it.
package surface

import (
	"errors"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// ErrMinRows rejects removing the last hotbar row.
var ErrMinRows = errors.New("surface: hotbar must keep at least one row")

// Notifier receives local edits for cross-client broadcast. The sync
// engine implements it; NopNotifier stands in when sync is disabled.
type Notifier interface {
	NotifyGridConfig(gridIndex, rows, cols int)
	NotifyCell(surface state.Surface, index int, slot string, data *state.CellData)
	NotifyContainer(surface state.Surface, index int, items map[string]*state.CellData)
	NotifyWeaponSet(index int)
	NotifyClearAll()
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

// NotifyGridConfig implements Notifier.
func (NopNotifier) NotifyGridConfig(int, int, int) {}

// NotifyCell implements Notifier.
func (NopNotifier) NotifyCell(state.Surface, int, string, *state.CellData) {}

// NotifyContainer implements Notifier.
func (NopNotifier) NotifyContainer(state.Surface, int, map[string]*state.CellData) {}

// NotifyWeaponSet implements Notifier.
func (NopNotifier) NotifyWeaponSet(int) {}

// NotifyClearAll implements Notifier.
func (NopNotifier) NotifyClearAll() {}
