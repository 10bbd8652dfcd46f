// Package hudsync propagates local optimistic edits to every other
// client viewing the same subject. The transport is fire-and-forget and
// unordered, so both the send and receive paths funnel through the same
// coalescer: queued updates are deduplicated latest-wins per key,
// superseded by bulk operations, and emitted in a fixed order that lands
// shape changes before the content addressed by them.
package hudsync

import (
	"time"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// UpdateType discriminates queued update records.
type UpdateType string

const (
	// UpdateClearAll wipes every surface; it supersedes everything queued
	// before it.
	UpdateClearAll UpdateType = "clearAll"
	// UpdateGridConfig changes a hotbar grid's shape.
	UpdateGridConfig UpdateType = "gridConfig"
	// UpdateCell sets or clears one slot.
	UpdateCell UpdateType = "cellUpdate"
	// UpdateContainer replaces a grid's contents wholesale.
	UpdateContainer UpdateType = "containerUpdate"
	// UpdateWeaponSet switches the active weapon set.
	UpdateWeaponSet UpdateType = "weaponSetChange"
)

// Update is one queued edit. Payload fields are populated according to
// Type; unused fields stay zero.
type Update struct {
	Type      UpdateType `json:"type"`
	Subject   string     `json:"subject"`
	UserID    string     `json:"userId"`
	Timestamp int64      `json:"timestamp"`

	// gridConfig
	GridIndex int `json:"gridIndex,omitempty"`
	Rows      int `json:"rows,omitempty"`
	Cols      int `json:"cols,omitempty"`

	// cellUpdate / containerUpdate
	Surface      state.Surface              `json:"surface,omitempty"`
	SurfaceIndex int                        `json:"surfaceIndex,omitempty"`
	Slot         string                     `json:"slot,omitempty"`
	Data         *state.CellData            `json:"data,omitempty"`
	Items        map[string]*state.CellData `json:"items,omitempty"`

	// weaponSetChange
	ActiveSet int `json:"activeSet"`
}

// Now returns the wall-clock timestamp stamped onto updates, in
// milliseconds since the epoch.
func Now() int64 {
	return time.Now().UnixMilli()
}
