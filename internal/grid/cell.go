// Package grid implements the slot containers at the heart of the HUD:
// a Cell owns one render node for its whole lifetime, and a Grid
// reconciles a rectangle of cells against new contents, rebuilding only
// when the shape changes and patching individual cells otherwise.
package grid

import (
	"encoding/json"
	"strconv"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/render"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// DragPayload is the interchange format carried through the host's
// native drag-data channel.
type DragPayload struct {
	UUID        string `json:"uuid"`
	Type        string `json:"type"`
	SourceSlot  string `json:"sourceSlot"`
	SourceIndex int    `json:"sourceIndex"`
}

// ParseDragPayload decodes a drag payload. A failed parse means the drop
// originated outside the HUD and must be delegated to the system adapter.
func ParseDragPayload(raw string) (DragPayload, bool) {
	var payload DragPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return DragPayload{}, false
	}
	if payload.UUID == "" {
		return DragPayload{}, false
	}
	return payload, true
}

// Callbacks carries the interaction handlers the owning surface injects
// into its cells. A cell never persists anything itself.
type Callbacks struct {
	OnClick      func(c *Cell)
	OnRightClick func(c *Cell)
	OnDragEnd    func(c *Cell)
	// OnDrop receives drops whose payload parsed as a HUD drag.
	OnDrop func(c *Cell, payload DragPayload)
	// OnExternalDrop receives drops whose payload did not parse; the raw
	// data is passed through for the system adapter to interpret.
	OnExternalDrop func(c *Cell, raw string)
}

// Cell is a single addressable slot. Exactly one render node exists per
// cell for its lifetime; SetData only swaps subtree content and flags.
type Cell struct {
	col, row     int
	surfaceIndex int
	data         *state.CellData
	node         *render.Node
	callbacks    Callbacks
}

// NewCell constructs an empty cell and its root node.
func NewCell(col, row, surfaceIndex int, observer render.Observer, callbacks Callbacks) *Cell {
	c := &Cell{
		col:          col,
		row:          row,
		surfaceIndex: surfaceIndex,
		node:         render.NewNode("cell", observer),
		callbacks:    callbacks,
	}
	c.node.SetAttr("data-slot", c.Slot())
	c.node.SetClass("empty", true)
	return c
}

// setPosition re-addresses a surviving cell after an equal-area shape
// change, where the cell count is unchanged but row-major coordinates
// shift.
func (c *Cell) setPosition(col, row int) {
	c.col = col
	c.row = row
	c.node.SetAttr("data-slot", c.Slot())
}

// Slot returns the "col-row" key addressing this cell.
func (c *Cell) Slot() string {
	return state.SlotKey(c.col, c.row)
}

// Col returns the cell's column.
func (c *Cell) Col() int { return c.col }

// Row returns the cell's row.
func (c *Cell) Row() int { return c.row }

// SurfaceIndex returns the owning grid's index within its surface.
func (c *Cell) SurfaceIndex() int { return c.surfaceIndex }

// Data returns the currently held payload, nil when empty.
func (c *Cell) Data() *state.CellData { return c.data }

// Node exposes the cell's render node.
func (c *Cell) Node() *render.Node { return c.node }

// SetData swaps the cell's payload and re-renders the subtree in place.
// The root node survives; only content and the empty/filled flags move.
func (c *Cell) SetData(data *state.CellData) {
	c.data = data.Clone()
	filled := c.data != nil
	c.node.SetClass("filled", filled)
	c.node.SetClass("empty", !filled)
	if !filled {
		c.node.RemoveAttr("draggable")
		c.node.ReplaceChildren()
		return
	}
	c.node.SetAttr("draggable", "true")

	icon := c.node.NewChild("icon")
	icon.SetAttr("src", c.data.Img)
	icon.SetAttr("title", c.data.Name)
	children := []*render.Node{icon}

	if c.data.Quantity != nil {
		badge := c.node.NewChild("quantity")
		badge.SetText(strconv.Itoa(*c.data.Quantity))
		children = append(children, badge)
	}
	if c.data.Uses != nil {
		badge := c.node.NewChild("uses")
		badge.SetText(strconv.Itoa(c.data.Uses.Value) + "/" + strconv.Itoa(c.data.Uses.Max))
		children = append(children, badge)
	}
	c.node.ReplaceChildren(children...)
}

// StartDrag serializes the drag payload for a filled cell. Empty cells
// are not draggable and report false.
func (c *Cell) StartDrag() (string, bool) {
	if c.data == nil {
		return "", false
	}
	payload := DragPayload{
		UUID:        c.data.UUID,
		Type:        c.data.Type,
		SourceSlot:  c.Slot(),
		SourceIndex: c.surfaceIndex,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// HandleDrop routes a raw drop payload: HUD-internal drags go to OnDrop,
// anything unparseable is treated as an external drop.
func (c *Cell) HandleDrop(raw string) {
	if payload, ok := ParseDragPayload(raw); ok {
		if c.callbacks.OnDrop != nil {
			c.callbacks.OnDrop(c, payload)
		}
		return
	}
	if c.callbacks.OnExternalDrop != nil {
		c.callbacks.OnExternalDrop(c, raw)
	}
}

// Click forwards a primary interaction to the owning surface.
func (c *Cell) Click() {
	if c.callbacks.OnClick != nil {
		c.callbacks.OnClick(c)
	}
}

// RightClick forwards a secondary interaction to the owning surface.
func (c *Cell) RightClick() {
	if c.callbacks.OnRightClick != nil {
		c.callbacks.OnRightClick(c)
	}
}

// DragEnd forwards drag completion to the owning surface.
func (c *Cell) DragEnd() {
	if c.callbacks.OnDragEnd != nil {
		c.callbacks.OnDragEnd(c)
	}
}
